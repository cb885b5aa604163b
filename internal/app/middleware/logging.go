package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// LoggingMiddleware provides structured logging for the chi router
type LoggingMiddleware struct {
	logger *logrus.Logger
}

// NewLoggingMiddleware creates a new logging middleware
func NewLoggingMiddleware(logger *logrus.Logger) *LoggingMiddleware {
	return &LoggingMiddleware{
		logger: logger,
	}
}

// Logger returns a chi-compatible logging middleware
func (l *LoggingMiddleware) Logger() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			t1 := time.Now()
			defer func() {
				latency := time.Since(t1)

				fields := logrus.Fields{
					"method":     r.Method,
					"path":       r.URL.Path,
					"status":     ww.Status(),
					"latency":    latency,
					"ip":         r.RemoteAddr,
					"user_agent": r.UserAgent(),
					"bytes":      ww.BytesWritten(),
				}

				if r.URL.RawQuery != "" {
					fields["query"] = r.URL.RawQuery
				}

				switch {
				case ww.Status() >= 500:
					l.logger.WithFields(fields).Error("HTTP request")
				case ww.Status() >= 400:
					l.logger.WithFields(fields).Warn("HTTP request")
				default:
					l.logger.WithFields(fields).Info("HTTP request")
				}
			}()

			next.ServeHTTP(ww, r)
		}
		return http.HandlerFunc(fn)
	}
}

// Recovery returns a chi-compatible recovery middleware
func (l *LoggingMiddleware) Recovery() func(next http.Handler) http.Handler {
	return middleware.Recoverer
}

// CORS returns a basic CORS middleware
func CORS() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
			w.Header().Set("Access-Control-Expose-Headers", "Content-Length")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Max-Age", "43200")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
