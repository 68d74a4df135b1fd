package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/wolfman30/visitplus-leads/pkg/logging"
)

// RequestLogger emits one structured line per completed request.
func RequestLogger(logger *logging.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := chimw.GetReqID(r.Context())
			if reqID == "" {
				reqID = r.Header.Get("X-Request-ID")
			}
			if reqID == "" {
				reqID = uuid.NewString()
			}
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"request_id", reqID,
				"remote_ip", clientIP(r),
				"duration_ms", time.Since(start).Milliseconds(),
			}
			if status >= http.StatusInternalServerError {
				logger.Error("request completed", attrs...)
				return
			}
			logger.Info("request completed", attrs...)
		})
	}
}
