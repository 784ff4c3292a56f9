package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gaushala-erp/payroll-backend-go/internal/config"
	appHTTP "github.com/gaushala-erp/payroll-backend-go/internal/handler/http"
	"github.com/gaushala-erp/payroll-backend-go/internal/pkg/cron"
	"github.com/gaushala-erp/payroll-backend-go/internal/pkg/database"
	"github.com/gaushala-erp/payroll-backend-go/internal/pkg/jwt"
	"github.com/gaushala-erp/payroll-backend-go/internal/pkg/lock"
	"github.com/gaushala-erp/payroll-backend-go/internal/pkg/metrics"
	"github.com/gaushala-erp/payroll-backend-go/internal/repository/postgresql"
	payrollService "github.com/gaushala-erp/payroll-backend-go/internal/service/payroll"
	"github.com/gaushala-erp/payroll-backend-go/migrations"
	"github.com/go-chi/httplog/v3"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	logger := newLogger(cfg.App)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolOptions{
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		return fmt.Errorf("error connecting to database: %w", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(ctx, migrations.FS); err != nil {
			return fmt.Errorf("error applying migrations: %w", err)
		}
	}

	var locker lock.Locker = lock.NewMemoryLocker()
	if cfg.Redis.Enabled {
		redisClient, err := lock.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		locker = lock.NewRedisLocker(redisClient, "gaushala:")
		slog.Info("Using redis payroll run lock", "addr", cfg.Redis.Addr)
	}

	collector := metrics.NewCollector()

	payrollSvc := payrollService.NewPayrollService(
		payrollService.Repositories{
			SalaryTransactions: postgresql.NewSalaryTransactionRepository(db),
			Runs:               postgresql.NewPayrollRunRepository(db),
			Employees:          postgresql.NewEmployeeRepository(db),
			JoiningRecords:     postgresql.NewJoiningRecordRepository(db),
			Attendance:         postgresql.NewAttendanceRepository(db),
		},
		locker,
		collector,
		payrollService.Options{
			Location:        cfg.Payroll.Location(),
			Workers:         cfg.Payroll.Workers,
			EmployeeTimeout: cfg.Payroll.EmployeeTimeout,
			RunBudget:       cfg.Payroll.RunBudget,
			MaxRetries:      cfg.Payroll.MaxRetries,
			RetryBackoff:    cfg.Payroll.RetryBackoff,
			LockTTL:         cfg.Redis.LockTTL,
		},
	)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	payrollHandler := appHTTP.NewPayrollHandler(payrollSvc)

	router := appHTTP.NewRouter(
		appHTTP.RouterOptions{Logger: logger, AllowedOrigins: cfg.CORS.AllowedOrigins},
		JWTService,
		collector,
		payrollHandler,
	)

	if cfg.Payroll.CronEnabled {
		scheduler := cron.NewScheduler(cfg.Payroll.Location())
		payrollJobs := cron.NewPayrollJobs(payrollSvc, cfg.Payroll.TenantIDs)
		if err := payrollJobs.RegisterJobs(scheduler, cfg.Payroll.CronSpec); err != nil {
			return err
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.Port),
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Server running", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}

func newLogger(app config.AppConfig) *slog.Logger {
	logFormat := httplog.SchemaECS.Concise(false)
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       parseLevel(app.LogLevel),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", app.Name),
		slog.String("version", app.Version),
		slog.String("env", app.Env),
	)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
