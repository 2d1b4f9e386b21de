package middleware

import (
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"

	"myflix-api/pkg/response"
)

const panicMessage = "Something broke!"

func RecoveryMiddleware(log *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if recovered := recover(); recovered != nil {
					log.Errorw("panic recovered",
						"error", recovered,
						"method", r.Method,
						"path", r.URL.Path,
						"stack", string(debug.Stack()),
					)
					response.Text(w, http.StatusInternalServerError, panicMessage)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
