package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice/api/internal/apperror"
	"backoffice/api/internal/models"
	"backoffice/api/internal/repository"
	"backoffice/api/internal/service"
	"backoffice/api/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type guardFixture struct {
	router *gin.Engine
	auth   *service.AuthService
	store  *testutil.AdminStore
}

func newGuardFixture(t *testing.T) guardFixture {
	t.Helper()
	store := testutil.NewAdminStore()
	auth := service.NewAuthService(store, testutil.NewHasher(), testutil.NewIssuer(), testutil.NewRevocations(), zerolog.Nop())

	router := gin.New()
	router.Use(RequestID(), Recovery(zerolog.Nop()))
	router.GET("/me", Auth(auth), func(c *gin.Context) {
		admin, _ := CurrentAdmin(c)
		c.JSON(http.StatusOK, admin.ToPublicView())
	})
	router.DELETE("/admins", Auth(auth), RequireRoles(models.RoleSuperAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	router.POST("/refresh", RefreshAuth(auth), func(c *gin.Context) {
		subject, _, ok := RefreshSubject(c)
		require.True(t, ok)
		c.String(http.StatusOK, subject)
	})
	router.GET("/panic", func(c *gin.Context) { panic("boom") })

	return guardFixture{router: router, auth: auth, store: store}
}

func (f guardFixture) login(t *testing.T, email string, role models.AdminRole) service.Session {
	t.Helper()
	testutil.MustCreateAdmin(t, f.store, testutil.NewHasher(), email, "Password1!", role, true)
	session, err := f.auth.Login(context.Background(), service.LoginInput{Email: email, Password: "Password1!"})
	require.NoError(t, err)
	return session
}

func (f guardFixture) do(method, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) apperror.Body {
	t.Helper()
	var body apperror.Body
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestAuthRejectsMissingAndInvalidCookies(t *testing.T) {
	f := newGuardFixture(t)

	rec := f.do(http.MethodGet, "/me")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, apperror.Body{Success: false, StatusCode: 401, Message: "Unauthorized"}, decodeBody(t, rec))

	rec = f.do(http.MethodGet, "/me", &http.Cookie{Name: AccessCookie, Value: "garbage"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthResolvesCurrentAdmin(t *testing.T) {
	f := newGuardFixture(t)
	session := f.login(t, "me@example.com", models.RoleEditor)

	rec := f.do(http.MethodGet, "/me", &http.Cookie{Name: AccessCookie, Value: session.AccessToken})
	require.Equal(t, http.StatusOK, rec.Code)

	var view map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "me@example.com", view["email"])
	assert.Equal(t, "editor", view["role"])
	assert.NotContains(t, view, "id")
}

func TestAuthRejectsDeletedAndInactiveAdmins(t *testing.T) {
	f := newGuardFixture(t)
	ctx := context.Background()

	gone := f.login(t, "gone@example.com", models.RoleEditor)
	_, err := f.store.Delete(ctx, gone.Admin.ID)
	require.NoError(t, err)
	rec := f.do(http.MethodGet, "/me", &http.Cookie{Name: AccessCookie, Value: gone.AccessToken})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	off := f.login(t, "off@example.com", models.RoleEditor)
	inactive := false
	_, err = f.store.Update(ctx, off.Admin.ID, repository.AdminUpdate{IsActive: &inactive})
	require.NoError(t, err)
	rec = f.do(http.MethodGet, "/me", &http.Cookie{Name: AccessCookie, Value: off.AccessToken})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRejectsLoggedOutAccessToken(t *testing.T) {
	f := newGuardFixture(t)
	session := f.login(t, "bye@example.com", models.RoleEditor)
	ctx := context.Background()

	_, claims, err := f.auth.Authenticate(ctx, session.AccessToken)
	require.NoError(t, err)
	require.NoError(t, f.auth.Logout(ctx, session.Admin.ID, claims))

	rec := f.do(http.MethodGet, "/me", &http.Cookie{Name: AccessCookie, Value: session.AccessToken})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRoles(t *testing.T) {
	f := newGuardFixture(t)

	for _, role := range []models.AdminRole{models.RoleAdmin, models.RoleEditor} {
		session := f.login(t, string(role)+"@example.com", role)
		rec := f.do(http.MethodDelete, "/admins", &http.Cookie{Name: AccessCookie, Value: session.AccessToken})
		assert.Equal(t, http.StatusForbidden, rec.Code, role)
		assert.Equal(t, "Only super_admin can perform this action", decodeBody(t, rec).Message)
	}

	root := f.login(t, "root@example.com", models.RoleSuperAdmin)
	rec := f.do(http.MethodDelete, "/admins", &http.Cookie{Name: AccessCookie, Value: root.AccessToken})
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRequireRolesUsesStoredRole(t *testing.T) {
	f := newGuardFixture(t)
	session := f.login(t, "demoted@example.com", models.RoleSuperAdmin)

	demoted := models.RoleEditor
	_, err := f.store.Update(context.Background(), session.Admin.ID, repository.AdminUpdate{Role: &demoted})
	require.NoError(t, err)

	rec := f.do(http.MethodDelete, "/admins", &http.Cookie{Name: AccessCookie, Value: session.AccessToken})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRefreshAuth(t *testing.T) {
	f := newGuardFixture(t)
	session := f.login(t, "refresh@example.com", models.RoleEditor)

	rec := f.do(http.MethodPost, "/refresh")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid refresh token", decodeBody(t, rec).Message)

	rec = f.do(http.MethodPost, "/refresh", &http.Cookie{Name: RefreshCookie, Value: "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(http.MethodPost, "/refresh", &http.Cookie{Name: RefreshCookie, Value: session.RefreshToken})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, session.Admin.ID, rec.Body.String())
}

func TestRecoveryReturnsUniformBody(t *testing.T) {
	f := newGuardFixture(t)

	rec := f.do(http.MethodGet, "/panic")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", decodeBody(t, rec).Message)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestCORSPreflight(t *testing.T) {
	router := gin.New()
	router.Use(CORS([]string{"https://admin.example.com"}))
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://admin.example.com")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://admin.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
