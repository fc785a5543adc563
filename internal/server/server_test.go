package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/avoroshilov/lessonbook/internal/apperr"
	"github.com/avoroshilov/lessonbook/internal/config"
	"github.com/avoroshilov/lessonbook/internal/model"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.Config{
		HTTPAddr:      ":0",
		SecretKey:     "test-secret",
		AdminEmail:    "admin@example.com",
		AdminPassword: "admin-pass",
		TokenTTLMin:   5,
	}
	return New(cfg, Services{}, zap.NewNop())
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: x", apperr.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: x", apperr.ErrConflict), http.StatusConflict},
		{fmt.Errorf("%w: x", apperr.ErrCapacityExceeded), http.StatusConflict},
		{fmt.Errorf("%w: x", apperr.ErrInvalidTransition), http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: x", apperr.ErrForbidden), http.StatusForbidden},
		{fmt.Errorf("%w: x", apperr.ErrUnauthorized), http.StatusUnauthorized},
		{fmt.Errorf("%w: x", apperr.ErrInvalidArgument), http.StatusBadRequest},
		{fmt.Errorf("plain failure"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, statusFor(tc.err), tc.err.Error())
	}
}

func TestParsePage(t *testing.T) {
	app := fiber.New()
	var got pageParams
	app.Get("/", func(c *fiber.Ctx) error {
		got = parsePage(c)
		return c.SendString("ok")
	})

	cases := []struct {
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"", defaultPageSize, 0},
		{"limit=10&offset=30", 10, 30},
		{"_page=3&_limit=25", 25, 50},
		{"_page=1&_limit=20", 20, 0},
		{"limit=100000", maxPageSize, 0},
		{"_page=0&_limit=-5", defaultPageSize, 0},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/?"+tc.query, nil)
		resp, err := app.Test(req)
		require.NoError(t, err, tc.query)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, tc.wantLimit, got.Limit, tc.query)
		assert.Equal(t, tc.wantOffset, got.Offset, tc.query)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	s := testServer(t)

	body := `{"email":"admin@example.com","password":"wrong"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := s.App().Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLoginSetsCookieAndMeWorks(t *testing.T) {
	s := testServer(t)

	body := `{"email":"admin@example.com","password":"admin-pass"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := s.App().Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var cookie string
	for _, c := range resp.Cookies() {
		if c.Name == accessTokenCookie {
			cookie = c.Value
		}
	}
	require.NotEmpty(t, cookie, "login must set the access_token cookie")

	var loginBody struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&loginBody))
	require.NotEmpty(t, loginBody.AccessToken)

	// Cookie path.
	me := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	me.AddCookie(&http.Cookie{Name: accessTokenCookie, Value: cookie})
	meResp, err := s.App().Test(me)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, meResp.StatusCode)

	var identity authIdentity
	require.NoError(t, json.NewDecoder(meResp.Body).Decode(&identity))
	assert.Equal(t, "admin@example.com", identity.Subject)
	assert.Equal(t, string(model.RoleAdmin), identity.Role)

	// Bearer fallback.
	bearer := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	bearer.Header.Set(fiber.HeaderAuthorization, "Bearer "+loginBody.AccessToken)
	bearerResp, err := s.App().Test(bearer)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, bearerResp.StatusCode)
}

func TestMeWithoutTokenIsUnauthorized(t *testing.T) {
	s := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	resp, err := s.App().Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var body detail
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Contains(t, body.Detail, "access token")
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	s := testServer(t)

	// No token at all.
	req := httptest.NewRequest(http.MethodGet, "/api/admin/settings", nil)
	resp, err := s.App().Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Valid token, wrong role.
	token, _, err := s.auth.issue("42", model.RoleClient)
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodGet, "/api/admin/settings", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	resp, err = s.App().Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestTokenWithWrongSignatureRejected(t *testing.T) {
	s := testServer(t)

	other := &config.Config{SecretKey: "other-secret", TokenTTLMin: 5}
	forged, _, err := newAuthManager(other).issue("admin@example.com", model.RoleAdmin)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+forged)
	resp, err := s.App().Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
