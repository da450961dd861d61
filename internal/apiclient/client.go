// Package apiclient is a Go client for the back-office API. It keeps the
// session cookies in a jar and transparently refreshes an expired access
// token, sharing a single refresh between concurrent callers.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"backoffice/api/internal/apperror"
	"backoffice/api/internal/models"
)

const (
	authPrefix     = "/api/auth/"
	refreshPath    = "/api/auth/refresh"
	refreshTimeout = 15 * time.Second
)

// ErrSessionExpired means the refresh token was rejected and the caller has
// to log in again.
var ErrSessionExpired = errors.New("apiclient: session expired")

// Error is a non-2xx response from the API.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("apiclient: %d %s", e.Status, e.Message)
}

type Option func(*Client)

func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.http.Timeout = timeout }
}

type Client struct {
	baseURL *url.URL
	http    *http.Client
	log     zerolog.Logger

	refreshes singleflight.Group
	// generation counts successful refreshes; a 401 for a request sent
	// before the latest refresh is retried without refreshing again.
	generation atomic.Uint64
}

func New(baseURL string, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	c := &Client{
		baseURL: parsed,
		http:    &http.Client{Jar: jar, Timeout: 30 * time.Second},
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (models.AuthenticatedSession, error) {
	var session models.AuthenticatedSession
	err := c.Do(ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &session)
	return session, err
}

func (c *Client) Me(ctx context.Context) (models.AuthenticatedSession, error) {
	var session models.AuthenticatedSession
	err := c.Do(ctx, http.MethodGet, "/api/auth/me", nil, &session)
	return session, err
}

func (c *Client) Logout(ctx context.Context) error {
	return c.Do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}

// Do sends a JSON request and decodes the response into out when it is not
// nil. A 401 on a non-auth path triggers one refresh and one retry.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = raw
	}

	generation := c.generation.Load()
	resp, err := c.send(ctx, method, path, payload)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized && !strings.HasPrefix(path, authPrefix) {
		drain(resp)
		if err := c.refresh(ctx, generation); err != nil {
			return err
		}
		if resp, err = c.send(ctx, method, path, payload); err != nil {
			return err
		}
	}

	return decode(resp, out)
}

// refresh rotates the session unless another caller already did so after
// generation was observed. Concurrent callers share one in-flight refresh,
// which runs detached from any single caller's cancellation.
func (c *Client) refresh(ctx context.Context, generation uint64) error {
	results := c.refreshes.DoChan("refresh", func() (any, error) {
		if c.generation.Load() != generation {
			return nil, nil
		}

		refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()

		resp, err := c.send(refreshCtx, http.MethodPost, refreshPath, nil)
		if err != nil {
			return nil, err
		}
		drain(resp)
		if resp.StatusCode != http.StatusOK {
			c.log.Warn().Int("status", resp.StatusCode).Msg("session refresh rejected")
			return nil, ErrSessionExpired
		}

		c.generation.Add(1)
		c.log.Debug().Msg("session refreshed")
		return nil, nil
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-results:
		if res.Shared {
			c.log.Debug().Msg("joined in-flight session refresh")
		}
		return res.Err
	}
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

func decode(resp *http.Response, out any) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var body apperror.Body
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Message == "" {
			return &Error{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return &Error{Status: resp.StatusCode, Message: body.Message}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
