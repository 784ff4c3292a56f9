package http

import (
	"log/slog"
	"net/http"

	"github.com/gaushala-erp/payroll-backend-go/internal/handler/http/middleware"
	"github.com/gaushala-erp/payroll-backend-go/internal/pkg/jwt"
	"github.com/gaushala-erp/payroll-backend-go/internal/pkg/metrics"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

type RouterOptions struct {
	Logger         *slog.Logger
	AllowedOrigins []string
}

func NewRouter(opts RouterOptions, JWTService jwt.Service, collector *metrics.Collector, payrollHandler PayrollHandler) *chi.Mux {
	r := chi.NewRouter()

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(middleware.Metrics(collector))
	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Method(http.MethodGet, "/metrics", collector.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))
			r.Use(middleware.RequireTenant)

			r.Route("/payroll", func(r chi.Router) {
				r.Get("/working-days", payrollHandler.GetWorkingDays)

				r.Route("/salary-transactions", func(r chi.Router) {
					r.Post("/", payrollHandler.GenerateSalary)
					r.Get("/", payrollHandler.ListSalaryTransactions)
					r.Get("/export", payrollHandler.ExportSalaryTransactions)

					r.Route("/{id}", func(r chi.Router) {
						r.Get("/", payrollHandler.GetSalaryTransaction)
						r.Patch("/payment", payrollHandler.UpdatePayment)
						r.Delete("/", payrollHandler.DeleteSalaryTransaction)
					})
				})

				r.Route("/runs", func(r chi.Router) {
					r.Get("/", payrollHandler.ListRuns)

					// Manager only
					r.Group(func(r chi.Router) {
						r.Use(middleware.RequireManager)
						r.Post("/", payrollHandler.TriggerRun)
					})
				})
			})
		})
	})
	return r
}
