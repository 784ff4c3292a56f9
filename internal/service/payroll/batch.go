package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/gaushala-erp/payroll-backend-go/internal/domain/payroll"
	"github.com/gaushala-erp/payroll-backend-go/internal/pkg/lock"
	"golang.org/x/sync/errgroup"
)

// finishTimeout bounds bookkeeping writes made after the run budget expired.
const finishTimeout = 10 * time.Second

// RunPayrollBatch refreshes the current month's salary of every active
// employee of each tenant. Employee failures are reported, never fatal.
func (s *PayrollServiceImpl) RunPayrollBatch(ctx context.Context, tenantIDs []string, trigger payroll.RunTrigger) (payroll.BatchResult, error) {
	if len(tenantIDs) == 0 {
		return payroll.BatchResult{}, payroll.ErrTenantRequired
	}

	startedAt := s.opts.Now()
	month := payroll.MonthOf(startedAt.In(s.opts.Location))

	ctx, cancel := context.WithTimeout(ctx, s.opts.RunBudget)
	defer cancel()

	result := payroll.BatchResult{
		SalaryMonth: month.String(),
		Trigger:     trigger,
		StartedAt:   startedAt,
		Tenants:     make([]payroll.TenantRunResult, 0, len(tenantIDs)),
	}

	slog.Info("Payroll: batch started",
		"salary_month", month.String(),
		"trigger", trigger,
		"tenant_count", len(tenantIDs),
	)

	for _, tenantID := range tenantIDs {
		result.Tenants = append(result.Tenants, s.runTenant(ctx, tenantID, month, trigger))
	}

	result.FinishedAt = s.opts.Now()
	s.metrics.BatchFinished(result.FinishedAt.Sub(startedAt))

	slog.Info("Payroll: batch finished",
		"salary_month", month.String(),
		"trigger", trigger,
		"duration", result.FinishedAt.Sub(startedAt),
	)

	return result, nil
}

func (s *PayrollServiceImpl) runTenant(ctx context.Context, tenantID string, month payroll.SalaryMonth, trigger payroll.RunTrigger) payroll.TenantRunResult {
	res := payroll.TenantRunResult{TenantID: tenantID, Status: payroll.RunStatusRunning}

	release, err := s.locker.Acquire(ctx, fmt.Sprintf("payroll:%s:%s", tenantID, month), s.opts.LockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			s.metrics.BatchSkipped()
			slog.Warn("Payroll: run already in progress, skipping tenant",
				"tenant_id", tenantID,
				"salary_month", month.String(),
			)
			res.Status = payroll.RunStatusSkipped
			res.Error = payroll.ErrPayrollRunInProgress.Error()
			return res
		}
		slog.Error("Payroll: failed to acquire run lock", "tenant_id", tenantID, "error", err)
		res.Status = payroll.RunStatusFailed
		res.Error = err.Error()
		return res
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finishTimeout)
		defer cancel()
		if err := release(releaseCtx); err != nil {
			slog.Error("Payroll: failed to release run lock", "tenant_id", tenantID, "error", err)
		}
	}()

	s.metrics.BatchStarted()

	run, err := withRetry(ctx, s, "create_payroll_run", func(ctx context.Context) (payroll.PayrollRun, error) {
		return s.runRepo.Create(ctx, payroll.PayrollRun{
			TenantID:    tenantID,
			SalaryMonth: month.String(),
			Trigger:     trigger,
			Status:      payroll.RunStatusRunning,
			StartedAt:   s.opts.Now(),
		})
	})
	if err != nil {
		slog.Error("Payroll: failed to record run", "tenant_id", tenantID, "error", err)
		res.Status = payroll.RunStatusFailed
		res.Error = err.Error()
		return res
	}
	res.RunID = run.ID

	employeeIDs, err := withRetry(ctx, s, "list_active_employees", func(ctx context.Context) ([]string, error) {
		return s.employeeRepo.ListActiveIDs(ctx, tenantID)
	})
	if err != nil {
		slog.Error("Payroll: failed to list employees", "tenant_id", tenantID, "error", err)
		res.Status = payroll.RunStatusFailed
		res.Error = err.Error()
		s.finishRun(ctx, run, res)
		return res
	}

	res.Total = len(employeeIDs)
	res.Succeeded, res.Failures = s.processEmployees(ctx, tenantID, month, employeeIDs)
	res.Failed = len(res.Failures)
	res.Status = payroll.RunStatusCompleted
	if res.Failed > 0 {
		res.Status = payroll.RunStatusCompletedWithErrors
	}

	s.finishRun(ctx, run, res)

	slog.Info("Payroll: tenant run finished",
		"tenant_id", tenantID,
		"salary_month", month.String(),
		"status", res.Status,
		"total", res.Total,
		"succeeded", res.Succeeded,
		"failed", res.Failed,
	)
	return res
}

// processEmployees fans the roster out over a bounded worker pool.
func (s *PayrollServiceImpl) processEmployees(ctx context.Context, tenantID string, month payroll.SalaryMonth, employeeIDs []string) (int, []payroll.EmployeeFailure) {
	var (
		mu        sync.Mutex
		succeeded int
		failures  []payroll.EmployeeFailure
	)

	g := new(errgroup.Group)
	g.SetLimit(s.opts.Workers)

	for _, employeeID := range employeeIDs {
		g.Go(func() error {
			err := s.refreshEmployee(ctx, tenantID, employeeID, month)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				s.metrics.EmployeeFailed()
				failures = append(failures, payroll.EmployeeFailure{EmployeeID: employeeID, Error: err.Error()})
				slog.Error("Payroll: employee failed",
					"tenant_id", tenantID,
					"employee_id", employeeID,
					"salary_month", month.String(),
					"error", err,
				)
				return nil
			}

			s.metrics.EmployeeSucceeded()
			succeeded++
			slog.Info("Payroll: employee processed",
				"tenant_id", tenantID,
				"employee_id", employeeID,
				"salary_month", month.String(),
			)
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(failures, func(i, j int) bool {
		return failures[i].EmployeeID < failures[j].EmployeeID
	})
	return succeeded, failures
}

// refreshEmployee runs the full pipeline for one employee. The final upsert
// is the only write, so a failure anywhere leaves the ledger as it was.
func (s *PayrollServiceImpl) refreshEmployee(ctx context.Context, tenantID, employeeID string, month payroll.SalaryMonth) error {
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("run budget exhausted before start: %w", err)
		}
		return fmt.Errorf("run cancelled before start: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.EmployeeTimeout)
	defer cancel()

	computed, err := s.compute(ctx, tenantID, employeeID, month)
	if err != nil {
		return err
	}

	key := payroll.SalaryTransactionKey{
		TenantID:    tenantID,
		EmployeeID:  employeeID,
		SalaryMonth: month.String(),
	}
	creation := payroll.CreationFields{
		GeneratedDate: s.today(),
		GeneratedBy:   payroll.AutoGenerateBy,
		PaymentType:   payroll.PaymentTypeCash,
	}

	created, err := withRetry(ctx, s, "upsert_salary_transaction", func(ctx context.Context) (bool, error) {
		_, created, err := s.salaryRepo.Upsert(ctx, key, computed, creation)
		return created, err
	})
	if err != nil {
		return err
	}
	s.metrics.SalaryWritten(created)
	return nil
}

func (s *PayrollServiceImpl) finishRun(ctx context.Context, run payroll.PayrollRun, res payroll.TenantRunResult) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finishTimeout)
	defer cancel()

	finishedAt := s.opts.Now()
	run.Status = res.Status
	run.TotalEmployees = res.Total
	run.Succeeded = res.Succeeded
	run.Failed = res.Failed
	run.Failures = res.Failures
	run.FinishedAt = &finishedAt
	if res.Error != "" {
		msg := res.Error
		run.ErrorMessage = &msg
	}

	if _, err := withRetry(ctx, s, "finish_payroll_run", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.runRepo.Finish(ctx, run)
	}); err != nil {
		slog.Error("Payroll: failed to finish run", "tenant_id", run.TenantID, "run_id", run.ID, "error", err)
	}
}

func (s *PayrollServiceImpl) ListRuns(ctx context.Context, tenantID string, limit int) ([]payroll.PayrollRunResponse, error) {
	if tenantID == "" {
		return nil, payroll.ErrTenantRequired
	}

	runs, err := s.runRepo.ListByTenant(ctx, tenantID, limit)
	if err != nil {
		return nil, err
	}

	result := make([]payroll.PayrollRunResponse, 0, len(runs))
	for _, r := range runs {
		var finishedAt *string
		if r.FinishedAt != nil {
			str := r.FinishedAt.Format(time.RFC3339)
			finishedAt = &str
		}
		result = append(result, payroll.PayrollRunResponse{
			ID:             r.ID,
			TenantID:       r.TenantID,
			SalaryMonth:    r.SalaryMonth,
			Trigger:        string(r.Trigger),
			Status:         string(r.Status),
			TotalEmployees: r.TotalEmployees,
			Succeeded:      r.Succeeded,
			Failed:         r.Failed,
			Failures:       r.Failures,
			ErrorMessage:   r.ErrorMessage,
			StartedAt:      r.StartedAt.Format(time.RFC3339),
			FinishedAt:     finishedAt,
		})
	}
	return result, nil
}
