package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gdg-garage/msp-registration/internal/config"
	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, secret, subject string, expiresIn time.Duration) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub": subject,
		"exp": time.Now().Add(expiresIn).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func serve(handler *AuthHandler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler.AdminMiddleware(next).ServeHTTP(rr, req)
	return rr
}

func TestAdminMiddleware_SlidingSession(t *testing.T) {
	cfg := &config.Config{JWTSecret: "test-secret"}
	handler := NewAuthHandler(cfg)

	t.Run("TokenRenewed", func(t *testing.T) {
		// Expires in 11 hours, less than TokenDuration/2
		tokenString := signedToken(t, cfg.JWTSecret, AdminSubject, 11*time.Hour)

		req, _ := http.NewRequest("GET", "/", nil)
		req.AddCookie(&http.Cookie{Name: CookieName, Value: tokenString})
		rr := serve(handler, req)

		if rr.Code != http.StatusOK {
			t.Errorf("expected status OK, got %v", rr.Code)
		}

		found := false
		for _, c := range rr.Result().Cookies() {
			if c.Name == CookieName {
				found = true
				if c.Value == tokenString {
					t.Errorf("expected new token value, but got the old one")
				}
			}
		}
		if !found {
			t.Errorf("expected new auth_token cookie to be set")
		}
	})

	t.Run("TokenNotRenewed", func(t *testing.T) {
		tokenString := signedToken(t, cfg.JWTSecret, AdminSubject, 13*time.Hour)

		req, _ := http.NewRequest("GET", "/", nil)
		req.AddCookie(&http.Cookie{Name: CookieName, Value: tokenString})
		rr := serve(handler, req)

		if rr.Code != http.StatusOK {
			t.Errorf("expected status OK, got %v", rr.Code)
		}
		for _, c := range rr.Result().Cookies() {
			if c.Name == CookieName {
				t.Errorf("did not expect a new auth_token cookie to be set")
			}
		}
	})
}

func TestAdminMiddleware_Rejects(t *testing.T) {
	handler := NewAuthHandler(&config.Config{JWTSecret: "test-secret"})

	tests := []struct {
		name   string
		header string
	}{
		{"no token", ""},
		{"wrong secret", "Bearer " + signedToken(t, "other-secret", AdminSubject, time.Hour)},
		{"wrong subject", "Bearer " + signedToken(t, "test-secret", "visitor", time.Hour)},
		{"expired", "Bearer " + signedToken(t, "test-secret", AdminSubject, -time.Hour)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if rr := serve(handler, req); rr.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", rr.Code)
			}
		})
	}
}

func TestAdminMiddleware_BearerAccepted(t *testing.T) {
	handler := NewAuthHandler(&config.Config{JWTSecret: "test-secret"})
	token, err := handler.GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}

	req, _ := http.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	if rr := serve(handler, req); rr.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rr.Code)
	}
}
