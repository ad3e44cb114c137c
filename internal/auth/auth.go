// Package auth guards the admin endpoints (registration export, manual sync, sync
// history) with HS256 tokens signed by the configured secret.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/msp-registration/internal/config"
	"github.com/golang-jwt/jwt/v5"
)

const (
	TokenDuration = 24 * time.Hour
	CookieName    = "auth_token"
	AdminSubject  = "admin"
)

var ErrNoSecret = errors.New("JWT_SECRET is not configured")

type AuthHandler struct {
	cfg *config.Config
}

func NewAuthHandler(cfg *config.Config) *AuthHandler {
	return &AuthHandler{cfg: cfg}
}

// AuthInput carries the credentials of a huma operation.
type AuthInput struct {
	Cookie        string `header:"Cookie"`
	Authorization string `header:"Authorization"`
}

func (h *AuthHandler) GenerateToken() (string, error) {
	if h.cfg.JWTSecret == "" {
		return "", ErrNoSecret
	}
	claims := jwt.MapClaims{
		"sub": AdminSubject,
		"exp": time.Now().Add(TokenDuration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.cfg.JWTSecret))
}

// ParseToken validates tokenString and returns its claims.
func (h *AuthHandler) ParseToken(tokenString string) (jwt.MapClaims, error) {
	if h.cfg.JWTSecret == "" {
		return nil, ErrNoSecret
	}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(h.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if sub, _ := claims.GetSubject(); sub != AdminSubject {
		return nil, errors.New("invalid token subject")
	}
	return claims, nil
}

func bearerToken(header string) string {
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

func cookieToken(header string) string {
	cookies, err := http.ParseCookie(header)
	if err != nil {
		return ""
	}
	for _, c := range cookies {
		if c.Name == CookieName {
			return c.Value
		}
	}
	return ""
}

// Authorize checks the credentials of a huma request.
func (h *AuthHandler) Authorize(_ context.Context, input AuthInput) error {
	token := bearerToken(input.Authorization)
	if token == "" && input.Cookie != "" {
		token = cookieToken(input.Cookie)
	}
	if token == "" {
		return huma.Error401Unauthorized("Unauthorized: No token found")
	}
	if _, err := h.ParseToken(token); err != nil {
		return huma.Error401Unauthorized("Unauthorized: Invalid token")
	}
	return nil
}
