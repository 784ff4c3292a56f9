package cron

import (
	"context"
	"log/slog"

	"github.com/gaushala-erp/payroll-backend-go/internal/domain/payroll"
)

const monthlyPayrollJob = "generate_monthly_payroll"

type PayrollJobs struct {
	payrollService payroll.PayrollService
	tenantIDs      []string
}

func NewPayrollJobs(payrollService payroll.PayrollService, tenantIDs []string) *PayrollJobs {
	return &PayrollJobs{
		payrollService: payrollService,
		tenantIDs:      tenantIDs,
	}
}

func (j *PayrollJobs) RegisterJobs(scheduler *Scheduler, spec string) error {
	return scheduler.AddJob(monthlyPayrollJob, spec, j.GenerateMonthlyPayroll)
}

// GenerateMonthlyPayroll refreshes the current month's salaries of every
// configured tenant. Per-employee failures are logged by the service.
func (j *PayrollJobs) GenerateMonthlyPayroll(ctx context.Context) error {
	slog.Info("Cron: Starting monthly payroll job", "tenants", j.tenantIDs)

	result, err := j.payrollService.RunPayrollBatch(ctx, j.tenantIDs, payroll.RunTriggerCron)
	if err != nil {
		return err
	}

	succeeded, failed := 0, 0
	for _, t := range result.Tenants {
		succeeded += t.Succeeded
		failed += t.Failed
	}

	slog.Info("Cron: Monthly payroll job finished",
		"salary_month", result.SalaryMonth,
		"succeeded", succeeded,
		"failed", failed,
		"duration", result.FinishedAt.Sub(result.StartedAt),
	)
	return nil
}
