package server

import (
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/avoroshilov/lessonbook/internal/apperr"
	"github.com/avoroshilov/lessonbook/internal/config"
	"github.com/avoroshilov/lessonbook/internal/model"
)

const accessTokenCookie = "access_token"

// claimsKey is where the auth middleware stores verified claims on the ctx.
const claimsKey = "auth_claims"

type authClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// authManager issues and verifies the HS256 access tokens carried in the
// access_token cookie (or an Authorization: Bearer header).
type authManager struct {
	cfg *config.Config
}

func newAuthManager(cfg *config.Config) *authManager {
	return &authManager{cfg: cfg}
}

func (a *authManager) issue(subject string, role model.UserRole) (string, time.Time, error) {
	expires := time.Now().Add(time.Duration(a.cfg.TokenTTLMin) * time.Minute)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, authClaims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	})

	signed, err := token.SignedString([]byte(a.cfg.SecretKey))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}

	return signed, expires, nil
}

func (a *authManager) verify(raw string) (*authClaims, error) {
	var claims authClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(a.cfg.SecretKey), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", apperr.ErrUnauthorized, err)
	}

	return &claims, nil
}

// tokenFrom extracts the raw token: cookie first, Bearer header as fallback.
func tokenFrom(c *fiber.Ctx) string {
	if raw := c.Cookies(accessTokenCookie); raw != "" {
		return raw
	}
	header := c.Get(fiber.HeaderAuthorization)
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

// authenticate verifies the request token and stores the claims on the ctx.
func (s *Server) authenticate(c *fiber.Ctx) (*authClaims, error) {
	raw := tokenFrom(c)
	if raw == "" {
		return nil, fmt.Errorf("%w: missing access token", apperr.ErrUnauthorized)
	}

	claims, err := s.auth.verify(raw)
	if err != nil {
		return nil, err
	}

	c.Locals(claimsKey, claims)
	return claims, nil
}

func (s *Server) requireAuth(c *fiber.Ctx) error {
	if _, err := s.authenticate(c); err != nil {
		return err
	}
	return c.Next()
}

func (s *Server) requireAdmin(c *fiber.Ctx) error {
	claims, err := s.authenticate(c)
	if err != nil {
		return err
	}
	if claims.Role != string(model.RoleAdmin) {
		return fmt.Errorf("%w: admin role required", apperr.ErrForbidden)
	}
	return c.Next()
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authIdentity struct {
	Subject string `json:"subject"`
	Role    string `json:"role"`
}

// login checks the configured admin credentials and sets the token cookie.
func (s *Server) login(c *fiber.Ctx) error {
	var req loginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	emailOK := subtle.ConstantTimeCompare([]byte(req.Email), []byte(s.cfg.AdminEmail)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(s.cfg.AdminPassword)) == 1
	if s.cfg.AdminEmail == "" || !emailOK || !passOK {
		return fmt.Errorf("%w: invalid credentials", apperr.ErrUnauthorized)
	}

	signed, expires, err := s.auth.issue(req.Email, model.RoleAdmin)
	if err != nil {
		return err
	}

	c.Cookie(&fiber.Cookie{
		Name:     accessTokenCookie,
		Value:    signed,
		Expires:  expires,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
	})

	return c.JSON(fiber.Map{
		"access_token": signed,
		"token_type":   "bearer",
	})
}

// logout clears the token cookie.
func (s *Server) logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     accessTokenCookie,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
	})
	return c.JSON(fiber.Map{"detail": "logged out"})
}

// me returns the verified identity behind the current token.
func (s *Server) me(c *fiber.Ctx) error {
	claims := c.Locals(claimsKey).(*authClaims)
	return c.JSON(authIdentity{
		Subject: claims.Subject,
		Role:    claims.Role,
	})
}
