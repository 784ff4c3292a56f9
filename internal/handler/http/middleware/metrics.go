package middleware

import (
	"net/http"

	"github.com/gaushala-erp/payroll-backend-go/internal/pkg/metrics"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// Metrics counts every request and its final status.
func Metrics(collector *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			collector.HTTPRequest(status)
		})
	}
}
