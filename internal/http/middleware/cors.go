package middleware

import (
	"net/http"
	"strings"
)

// CORS is an allowlist CORS policy for the read-only admin API. The public
// intake endpoint answers CORS itself and is not wrapped by this.
// If allowedOrigins contains "*", any Origin is echoed back.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	allowAny := false
	allow := map[string]struct{}{}
	for _, origin := range allowedOrigins {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		switch origin {
		case "":
		case "*":
			allowAny = true
		default:
			allow[origin] = struct{}{}
		}
	}

	const (
		allowedHeaders = "Authorization, Content-Type"
		allowedMethods = "GET, OPTIONS"
	)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			allowed := origin != "" && (allowAny || hasOrigin(allow, origin))
			if allowed {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
				w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)
				w.Header().Set("Access-Control-Allow-Methods", allowedMethods)
				w.Header().Set("Access-Control-Max-Age", "600")
			}

			if r.Method == http.MethodOptions && origin != "" && r.Header.Get("Access-Control-Request-Method") != "" {
				if !allowed {
					w.WriteHeader(http.StatusForbidden)
					return
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ParseOrigins splits a comma-separated origin list.
func ParseOrigins(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func hasOrigin(allow map[string]struct{}, origin string) bool {
	_, ok := allow[origin]
	return ok
}
