package middleware

import (
	"log/slog"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/AnshRaj112/mindjournal-backend/internal/logger"
	"github.com/AnshRaj112/mindjournal-backend/pkg/clientip"
)

// RequestLogger logs one line per request. Server errors log at error
// level and health checks at debug.
func RequestLogger(log *slog.Logger, trustProxy bool) func(http.Handler) http.Handler {
	log = log.With(logger.Component, logger.ComponentHTTP)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			level := slog.LevelInfo
			switch {
			case status >= 500:
				level = slog.LevelError
			case status >= 400:
				level = slog.LevelWarn
			case r.URL.Path == "/health":
				level = slog.LevelDebug
			}
			log.LogAttrs(r.Context(), level, "request",
				slog.String(logger.RequestID, chimw.GetReqID(r.Context())),
				slog.String(logger.Method, r.Method),
				slog.String(logger.Path, r.URL.Path),
				slog.Int(logger.StatusCode, status),
				slog.Int64(logger.Duration, time.Since(start).Milliseconds()),
				slog.String(logger.ClientIP, clientip.RealClientIP(r, trustProxy)),
			)
		})
	}
}
