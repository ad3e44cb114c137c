package auth

import (
	"net/http"
	"time"
)

// AdminMiddleware guards plain chi routes. Cookie sessions past half their lifetime
// get a fresh cookie.
func (h *AuthHandler) AdminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := bearerToken(r.Header.Get("Authorization"))
		fromCookie := false
		if tokenString == "" {
			cookie, err := r.Cookie(CookieName)
			if err != nil {
				http.Error(w, "Unauthorized: No token found", http.StatusUnauthorized)
				return
			}
			tokenString = cookie.Value
			fromCookie = true
		}

		claims, err := h.ParseToken(tokenString)
		if err != nil {
			http.Error(w, "Unauthorized: Invalid token", http.StatusUnauthorized)
			return
		}

		// Sliding session: refresh token if it's more than halfway through its duration
		if exp, err := claims.GetExpirationTime(); fromCookie && err == nil && exp != nil {
			if time.Until(exp.Time) < TokenDuration/2 {
				if newToken, err := h.GenerateToken(); err == nil {
					http.SetCookie(w, &http.Cookie{
						Name:     CookieName,
						Value:    newToken,
						Expires:  time.Now().Add(TokenDuration),
						HttpOnly: true,
						Path:     "/",
					})
				}
			}
		}

		next.ServeHTTP(w, r)
	})
}
