package middleware

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tomasen/realip"
)

// Logger logs every handled request.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		next.ServeHTTP(w, r)

		logrus.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"ip":       realip.FromRequest(r),
			"duration": time.Since(start).String(),
		}).Info("request handled")
	})
}
