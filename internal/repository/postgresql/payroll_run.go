package postgresql

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gaushala-erp/payroll-backend-go/internal/domain/payroll"
	"github.com/gaushala-erp/payroll-backend-go/internal/pkg/database"
	"github.com/google/uuid"
)

type payrollRunRepository struct {
	db *database.DB
}

func NewPayrollRunRepository(db *database.DB) payroll.PayrollRunRepository {
	return &payrollRunRepository{db: db}
}

func (r *payrollRunRepository) Create(ctx context.Context, run payroll.PayrollRun) (payroll.PayrollRun, error) {
	q := GetQuerier(ctx, r.db)

	id, err := uuid.NewV7()
	if err != nil {
		return payroll.PayrollRun{}, fmt.Errorf("failed to generate payroll run id: %w", err)
	}
	run.ID = id.String()

	query := `
		INSERT INTO payroll_runs (id, tenant_id, salary_month, trigger, status, total_employees, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := q.Exec(ctx, query,
		run.ID, run.TenantID, run.SalaryMonth, string(run.Trigger), string(run.Status), run.TotalEmployees, run.StartedAt,
	); err != nil {
		return payroll.PayrollRun{}, fmt.Errorf("failed to create payroll run: %w", classify(err))
	}
	return run, nil
}

func (r *payrollRunRepository) Finish(ctx context.Context, run payroll.PayrollRun) error {
	q := GetQuerier(ctx, r.db)

	if run.Failures == nil {
		run.Failures = []payroll.EmployeeFailure{}
	}
	failures, err := json.Marshal(run.Failures)
	if err != nil {
		return fmt.Errorf("failed to encode payroll run failures: %w", err)
	}

	query := `
		UPDATE payroll_runs SET
			status = $2,
			total_employees = $3,
			succeeded = $4,
			failed = $5,
			failures = $6,
			error_message = $7,
			finished_at = $8
		WHERE id = $1
	`
	if _, err := q.Exec(ctx, query,
		run.ID, string(run.Status), run.TotalEmployees, run.Succeeded, run.Failed, failures, run.ErrorMessage, run.FinishedAt,
	); err != nil {
		return fmt.Errorf("failed to finish payroll run: %w", classify(err))
	}
	return nil
}

func (r *payrollRunRepository) ListByTenant(ctx context.Context, tenantID string, limit int) ([]payroll.PayrollRun, error) {
	q := GetQuerier(ctx, r.db)

	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, tenant_id, salary_month, trigger, status, total_employees, succeeded, failed,
			failures, error_message, started_at, finished_at
		FROM payroll_runs
		WHERE tenant_id = $1
		ORDER BY started_at DESC
		LIMIT $2
	`

	rows, err := q.Query(ctx, query, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list payroll runs: %w", classify(err))
	}
	defer rows.Close()

	var runs []payroll.PayrollRun
	for rows.Next() {
		var run payroll.PayrollRun
		var failures []byte
		if err := rows.Scan(
			&run.ID, &run.TenantID, &run.SalaryMonth, &run.Trigger, &run.Status,
			&run.TotalEmployees, &run.Succeeded, &run.Failed,
			&failures, &run.ErrorMessage, &run.StartedAt, &run.FinishedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan payroll run: %w", err)
		}
		if len(failures) > 0 {
			if err := json.Unmarshal(failures, &run.Failures); err != nil {
				return nil, fmt.Errorf("failed to decode payroll run failures: %w", err)
			}
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payroll runs: %w", classify(err))
	}

	return runs, nil
}
