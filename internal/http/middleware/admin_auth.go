package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const adminClaimsKey contextKey = "adminClaims"

// AdminJWT guards the lead listing endpoints with an HS256-signed bearer
// token. An empty secret disables the admin surface entirely.
func AdminJWT(secret string) func(http.Handler) http.Handler {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(30*time.Second),
	)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				writeError(w, "admin auth disabled", http.StatusUnauthorized)
				return
			}
			tokenString, ok := bearerToken(r)
			if !ok {
				writeError(w, "missing authorization header", http.StatusUnauthorized)
				return
			}
			claims := jwt.RegisteredClaims{}
			token, err := parser.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				writeError(w, "invalid token", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), adminClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminClaimsFromContext returns admin JWT claims if present.
func AdminClaimsFromContext(ctx context.Context) (jwt.RegisteredClaims, bool) {
	claims, ok := ctx.Value(adminClaimsKey).(jwt.RegisteredClaims)
	return claims, ok
}

func bearerToken(r *http.Request) (string, bool) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if len(auth) <= len(prefix) || !strings.EqualFold(auth[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(auth[len(prefix):]), true
}

func writeError(w http.ResponseWriter, msg string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
