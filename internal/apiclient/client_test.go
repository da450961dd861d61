package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice/api/internal/config"
	"backoffice/api/internal/handlers"
	"backoffice/api/internal/models"
	"backoffice/api/internal/server"
	"backoffice/api/internal/service"
	"backoffice/api/internal/testutil"
)

// fakeAPI issues an access cookie that is already stale, so every protected
// call fails until the client refreshes.
type fakeAPI struct {
	mu           sync.Mutex
	validAccess  string
	refreshOK    bool
	refreshDelay time.Duration
	refreshCalls atomic.Int32
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/auth/login":
		http.SetCookie(w, &http.Cookie{Name: "access_token", Value: "stale", Path: "/", HttpOnly: true})
		http.SetCookie(w, &http.Cookie{Name: "refresh_token", Value: "r0", Path: "/api/auth/refresh", HttpOnly: true})
		writeJSON(w, http.StatusOK, `{"email":"a@example.com","name":null,"role":"editor"}`)

	case "/api/auth/refresh":
		n := f.refreshCalls.Add(1)
		if _, err := r.Cookie("refresh_token"); err != nil || !f.refreshOK {
			writeJSON(w, http.StatusUnauthorized, `{"success":false,"statusCode":401,"message":"Invalid refresh token"}`)
			return
		}
		// hold the refresh open so concurrent callers pile up behind it
		delay := f.refreshDelay
		if delay == 0 {
			delay = 50 * time.Millisecond
		}
		time.Sleep(delay)
		access := fmt.Sprintf("fresh-%d", n)
		f.mu.Lock()
		f.validAccess = access
		f.mu.Unlock()
		http.SetCookie(w, &http.Cookie{Name: "access_token", Value: access, Path: "/", HttpOnly: true})
		writeJSON(w, http.StatusOK, `{"email":"a@example.com","name":null,"role":"editor"}`)

	case "/api/things":
		cookie, err := r.Cookie("access_token")
		f.mu.Lock()
		valid := f.validAccess
		f.mu.Unlock()
		if err != nil || cookie.Value != valid {
			writeJSON(w, http.StatusUnauthorized, `{"success":false,"statusCode":401,"message":"Unauthorized"}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"ok":true}`)

	default:
		http.NotFound(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func newFakeClient(t *testing.T, api *fakeAPI) *Client {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	client, err := New(srv.URL)
	require.NoError(t, err)
	_, err = client.Login(context.Background(), "a@example.com", "Password1!")
	require.NoError(t, err)
	return client
}

func TestConcurrentUnauthorizedTriggerOneRefresh(t *testing.T) {
	api := &fakeAPI{refreshOK: true}
	client := newFakeClient(t, api)

	const callers = 10
	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		errs  = make(chan error, callers)
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			var out struct{ OK bool }
			err := client.Do(context.Background(), http.MethodGet, "/api/things", nil, &out)
			if err == nil && !out.OK {
				err = errors.New("unexpected body")
			}
			errs <- err
		}()
	}
	close(start)
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), api.refreshCalls.Load())
}

func TestCancelledCallerDoesNotAbortSharedRefresh(t *testing.T) {
	api := &fakeAPI{refreshOK: true, refreshDelay: 200 * time.Millisecond}
	client := newFakeClient(t, api)

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		first <- client.Do(ctx, http.MethodGet, "/api/things", nil, nil)
	}()

	require.Eventually(t, func() bool { return api.refreshCalls.Load() == 1 },
		time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-first, context.Canceled)

	var out struct{ OK bool }
	require.NoError(t, client.Do(context.Background(), http.MethodGet, "/api/things", nil, &out))
	assert.True(t, out.OK)
	assert.Equal(t, int32(1), api.refreshCalls.Load())
}

func TestFailedRefreshReportsSessionExpired(t *testing.T) {
	api := &fakeAPI{refreshOK: false}
	client := newFakeClient(t, api)

	err := client.Do(context.Background(), http.MethodGet, "/api/things", nil, nil)
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, int32(1), api.refreshCalls.Load())
}

func TestAuthPathsAreNotRetried(t *testing.T) {
	api := &fakeAPI{refreshOK: true}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	client, err := New(srv.URL)
	require.NoError(t, err)

	err = client.Do(context.Background(), http.MethodPost, "/api/auth/refresh", nil, nil)
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Invalid refresh token", apiErr.Message)
	assert.Equal(t, int32(1), api.refreshCalls.Load())
}

func TestClientAgainstServer(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := &config.AppConfig{
		Environment: "test",
		Security: config.SecurityConfig{
			JWTSecret:         testutil.TestSecret,
			JWTAccessTTL:      15 * time.Minute,
			JWTRefreshTTL:     7 * 24 * time.Hour,
			RefreshCookiePath: "/api/auth/refresh",
		},
	}
	log := zerolog.Nop()
	admins := testutil.NewAdminStore()
	hasher := testutil.NewHasher()
	testutil.MustCreateAdmin(t, admins, hasher, "real@example.com", "Password1!", models.RoleAdmin, true)

	handlerSet := handlers.NewHandlerSet(log, cfg, handlers.Services{
		Auth:       service.NewAuthService(admins, hasher, testutil.NewIssuer(), testutil.NewRevocations(), log),
		Admins:     service.NewAdminService(admins, hasher, log),
		Categories: service.NewCategoryService(testutil.NewCategoryStore()),
	}, handlers.HealthChecks{})
	srv := httptest.NewServer(server.NewHTTPServer(cfg, log, handlerSet).Handler())
	t.Cleanup(srv.Close)

	client, err := New(srv.URL)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = client.Login(ctx, "real@example.com", "wrong")
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Invalid email or password", apiErr.Message)

	session, err := client.Login(ctx, "real@example.com", "Password1!")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, session.Role)

	me, err := client.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "real@example.com", me.Email)

	var categories []models.CategoryView
	require.NoError(t, client.Do(ctx, http.MethodGet, "/api/categories", nil, &categories))
	assert.Empty(t, categories)

	require.NoError(t, client.Logout(ctx))

	err = client.Do(ctx, http.MethodGet, "/api/categories", nil, &categories)
	assert.ErrorIs(t, err, ErrSessionExpired)
}
