package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/gaushala-erp/payroll-backend-go/internal/domain/employee"
	"github.com/gaushala-erp/payroll-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type employeeRepositoryImpl struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepositoryImpl{db: db}
}

// ListActiveIDs implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) ListActiveIDs(ctx context.Context, tenantID string) ([]string, error) {
	q := GetQuerier(ctx, e.db)

	query := `
		SELECT id
		FROM employees
		WHERE tenant_id = $1 AND employment_status = $2 AND deleted_at IS NULL
		ORDER BY employee_code
	`

	rows, err := q.Query(ctx, query, tenantID, employee.EmploymentStatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list active employees: %w", classify(err))
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan active employees: %w", classify(err))
	}
	return ids, nil
}

// GetProfile implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) GetProfile(ctx context.Context, tenantID, employeeID string) (employee.Profile, error) {
	q := GetQuerier(ctx, e.db)

	profileQuery := `
		SELECT id, tenant_id, full_name, gender
		FROM employees
		WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL
	`

	var p employee.Profile
	err := q.QueryRow(ctx, profileQuery, employeeID, tenantID).Scan(&p.EmployeeID, &p.TenantID, &p.FullName, &p.Gender)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Profile{}, employee.ErrEmployeeNotFound
		}
		return employee.Profile{}, fmt.Errorf("failed to get employee profile: %w", classify(err))
	}

	historyQuery := `
		SELECT id, employee_id, effective_date, decided_amount, created_at
		FROM salary_history
		WHERE employee_id = $1 AND tenant_id = $2
		ORDER BY effective_date DESC, created_at DESC
	`

	rows, err := q.Query(ctx, historyQuery, employeeID, tenantID)
	if err != nil {
		return employee.Profile{}, fmt.Errorf("failed to get salary history: %w", classify(err))
	}
	defer rows.Close()

	for rows.Next() {
		var h employee.SalaryHistoryEntry
		if err := rows.Scan(&h.ID, &h.EmployeeID, &h.EffectiveDate, &h.DecidedAmount, &h.CreatedAt); err != nil {
			return employee.Profile{}, fmt.Errorf("failed to scan salary history: %w", err)
		}
		p.SalaryHistory = append(p.SalaryHistory, h)
	}
	if err := rows.Err(); err != nil {
		return employee.Profile{}, fmt.Errorf("failed to iterate salary history: %w", classify(err))
	}

	return p, nil
}

type joiningRecordRepositoryImpl struct {
	db *database.DB
}

func NewJoiningRecordRepository(db *database.DB) employee.JoiningRecordRepository {
	return &joiningRecordRepositoryImpl{db: db}
}

// GetActiveByEmployee implements employee.JoiningRecordRepository.
func (j *joiningRecordRepositoryImpl) GetActiveByEmployee(ctx context.Context, tenantID, employeeID string) ([]employee.JoiningRecord, error) {
	q := GetQuerier(ctx, j.db)

	query := `
		SELECT id, tenant_id, employee_id, join_date, leave_date, is_active, is_deleted, created_at
		FROM joining_records
		WHERE tenant_id = $1 AND employee_id = $2 AND is_active = true AND is_deleted = false
		ORDER BY created_at DESC
	`

	rows, err := q.Query(ctx, query, tenantID, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get joining records: %w", classify(err))
	}
	defer rows.Close()

	var records []employee.JoiningRecord
	for rows.Next() {
		var rec employee.JoiningRecord
		if err := rows.Scan(
			&rec.ID, &rec.TenantID, &rec.EmployeeID, &rec.JoinDate, &rec.LeaveDate,
			&rec.IsActive, &rec.IsDeleted, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan joining record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate joining records: %w", classify(err))
	}

	return records, nil
}
