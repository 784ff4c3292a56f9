package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/gaushala-erp/payroll-backend-go/internal/domain/payroll"
	"github.com/gaushala-erp/payroll-backend-go/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type salaryTransactionRepository struct {
	db *database.DB
}

func NewSalaryTransactionRepository(db *database.DB) payroll.SalaryTransactionRepository {
	return &salaryTransactionRepository{db: db}
}

const salaryTransactionColumns = `
	st.id, st.tenant_id, st.employee_id, st.salary_month,
	st.total_working_days, st.actual_working_days, st.present_days, st.absent_days, st.leave_count,
	st.decided_salary, st.salary_per_day, st.payable_salary,
	st.generated_date, st.generated_by, st.payment_type, st.transaction_reference,
	st.actual_pay_date, st.is_paid, st.is_deleted, st.created_at, st.updated_at`

// returningColumns mirrors salaryTransactionColumns for INSERT/UPDATE ... RETURNING,
// where the table alias is not available.
const returningColumns = `
	id, tenant_id, employee_id, salary_month,
	total_working_days, actual_working_days, present_days, absent_days, leave_count,
	decided_salary, salary_per_day, payable_salary,
	generated_date, generated_by, payment_type, transaction_reference,
	actual_pay_date, is_paid, is_deleted, created_at, updated_at`

func scanSalaryTransaction(row pgx.Row, extra ...any) (payroll.SalaryTransaction, error) {
	var st payroll.SalaryTransaction
	dest := []any{
		&st.ID, &st.TenantID, &st.EmployeeID, &st.SalaryMonth,
		&st.TotalWorkingDays, &st.ActualWorkingDays, &st.PresentDays, &st.AbsentDays, &st.LeaveCount,
		&st.DecidedSalary, &st.SalaryPerDay, &st.PayableSalary,
		&st.GeneratedDate, &st.GeneratedBy, &st.PaymentType, &st.TransactionReference,
		&st.ActualPayDate, &st.IsPaid, &st.IsDeleted, &st.CreatedAt, &st.UpdatedAt,
	}
	err := row.Scan(append(dest, extra...)...)
	return st, err
}

func insertArgs(key payroll.SalaryTransactionKey, computed payroll.ComputedFields, creation payroll.CreationFields) ([]any, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate salary transaction id: %w", err)
	}
	return []any{
		id.String(), key.TenantID, key.EmployeeID, key.SalaryMonth,
		computed.TotalWorkingDays, computed.ActualWorkingDays, computed.PresentDays, computed.AbsentDays, computed.LeaveCount,
		computed.DecidedSalary, computed.SalaryPerDay, computed.PayableSalary,
		creation.GeneratedDate, creation.GeneratedBy, string(creation.PaymentType), creation.TransactionReference,
		creation.ActualPayDate, creation.IsPaid,
	}, nil
}

const insertSalaryTransaction = `
	INSERT INTO salary_transactions (
		id, tenant_id, employee_id, salary_month,
		total_working_days, actual_working_days, present_days, absent_days, leave_count,
		decided_salary, salary_per_day, payable_salary,
		generated_date, generated_by, payment_type, transaction_reference,
		actual_pay_date, is_paid
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	ON CONFLICT (tenant_id, employee_id, salary_month) WHERE is_deleted = false`

// ========== LEDGER ==========

func (r *salaryTransactionRepository) FindByKey(ctx context.Context, key payroll.SalaryTransactionKey) (payroll.SalaryTransaction, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + salaryTransactionColumns + `
		FROM salary_transactions st
		WHERE st.tenant_id = $1 AND st.employee_id = $2 AND st.salary_month = $3 AND st.is_deleted = false
	`

	st, err := scanSalaryTransaction(q.QueryRow(ctx, query, key.TenantID, key.EmployeeID, key.SalaryMonth))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.SalaryTransaction{}, payroll.ErrSalaryTransactionNotFound
		}
		return payroll.SalaryTransaction{}, fmt.Errorf("failed to find salary transaction: %w", classify(err))
	}
	return st, nil
}

func (r *salaryTransactionRepository) Upsert(ctx context.Context, key payroll.SalaryTransactionKey, computed payroll.ComputedFields, creation payroll.CreationFields) (payroll.SalaryTransaction, bool, error) {
	q := GetQuerier(ctx, r.db)

	args, err := insertArgs(key, computed, creation)
	if err != nil {
		return payroll.SalaryTransaction{}, false, err
	}

	// Creation-only columns are never rewritten.
	query := insertSalaryTransaction + ` DO UPDATE SET
			total_working_days = EXCLUDED.total_working_days,
			actual_working_days = EXCLUDED.actual_working_days,
			present_days = EXCLUDED.present_days,
			absent_days = EXCLUDED.absent_days,
			leave_count = EXCLUDED.leave_count,
			decided_salary = EXCLUDED.decided_salary,
			salary_per_day = EXCLUDED.salary_per_day,
			payable_salary = EXCLUDED.payable_salary,
			updated_at = NOW()
		RETURNING ` + returningColumns + `, (xmax = 0) AS created
	`

	var created bool
	st, err := scanSalaryTransaction(q.QueryRow(ctx, query, args...), &created)
	if err != nil {
		return payroll.SalaryTransaction{}, false, fmt.Errorf("failed to upsert salary transaction: %w", classify(err))
	}
	return st, created, nil
}

func (r *salaryTransactionRepository) CreateIfAbsent(ctx context.Context, key payroll.SalaryTransactionKey, computed payroll.ComputedFields, creation payroll.CreationFields) (payroll.SalaryTransaction, bool, error) {
	q := GetQuerier(ctx, r.db)

	args, err := insertArgs(key, computed, creation)
	if err != nil {
		return payroll.SalaryTransaction{}, false, err
	}

	query := insertSalaryTransaction + ` DO NOTHING
		RETURNING ` + returningColumns

	st, err := scanSalaryTransaction(q.QueryRow(ctx, query, args...))
	if err == nil {
		return st, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return payroll.SalaryTransaction{}, false, fmt.Errorf("failed to create salary transaction: %w", classify(err))
	}

	// Lost the race to a concurrent writer; hand back what it stored.
	existing, err := r.FindByKey(ctx, key)
	if err != nil {
		return payroll.SalaryTransaction{}, false, err
	}
	return existing, false, nil
}

// ========== QUERIES ==========

func (r *salaryTransactionRepository) GetByID(ctx context.Context, tenantID string, id string) (payroll.SalaryTransaction, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + salaryTransactionColumns + `, e.full_name, e.employee_code
		FROM salary_transactions st
		LEFT JOIN employees e ON st.employee_id = e.id
		WHERE st.id = $1 AND st.tenant_id = $2 AND st.is_deleted = false
	`

	var name, code *string
	st, err := scanSalaryTransaction(q.QueryRow(ctx, query, id, tenantID), &name, &code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.SalaryTransaction{}, payroll.ErrSalaryTransactionNotFound
		}
		return payroll.SalaryTransaction{}, fmt.Errorf("failed to get salary transaction: %w", classify(err))
	}
	st.EmployeeName, st.EmployeeCode = name, code
	return st, nil
}

func (r *salaryTransactionRepository) List(ctx context.Context, tenantID string, filter payroll.SalaryTransactionFilter) ([]payroll.SalaryTransaction, int64, error) {
	q := GetQuerier(ctx, r.db)

	baseQuery := `
		FROM salary_transactions st
		LEFT JOIN employees e ON st.employee_id = e.id
		WHERE st.tenant_id = $1 AND st.is_deleted = false
	`
	args := []any{tenantID}
	argIdx := 2

	if filter.SalaryMonth != nil {
		baseQuery += fmt.Sprintf(" AND st.salary_month = $%d", argIdx)
		args = append(args, *filter.SalaryMonth)
		argIdx++
	}
	if filter.EmployeeID != nil {
		baseQuery += fmt.Sprintf(" AND st.employee_id = $%d", argIdx)
		args = append(args, *filter.EmployeeID)
		argIdx++
	}
	if filter.IsPaid != nil {
		baseQuery += fmt.Sprintf(" AND st.is_paid = $%d", argIdx)
		args = append(args, *filter.IsPaid)
		argIdx++
	}

	var totalCount int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*) "+baseQuery, args...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count salary transactions: %w", classify(err))
	}

	// Limit 0 means "everything", used by the CSV export.
	pagination := ""
	if filter.Limit > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		pagination = fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
		args = append(args, filter.Limit, (page-1)*filter.Limit)
	}

	selectQuery := `SELECT ` + salaryTransactionColumns + `, e.full_name, e.employee_code ` +
		baseQuery + ` ORDER BY st.salary_month DESC, e.employee_code` + pagination

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list salary transactions: %w", classify(err))
	}
	defer rows.Close()

	var records []payroll.SalaryTransaction
	for rows.Next() {
		var name, code *string
		st, err := scanSalaryTransaction(rows, &name, &code)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan salary transaction: %w", err)
		}
		st.EmployeeName, st.EmployeeCode = name, code
		records = append(records, st)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate salary transactions: %w", classify(err))
	}

	return records, totalCount, nil
}

// ========== PAYMENT ==========

func (r *salaryTransactionRepository) UpdatePayment(ctx context.Context, tenantID string, update payroll.PaymentUpdate) (payroll.SalaryTransaction, error) {
	q := GetQuerier(ctx, r.db)

	var paymentType *string
	if update.PaymentType != nil {
		s := string(*update.PaymentType)
		paymentType = &s
	}

	query := `
		UPDATE salary_transactions SET
			is_paid = $3,
			actual_pay_date = COALESCE($4, actual_pay_date),
			payment_type = COALESCE($5, payment_type),
			transaction_reference = COALESCE($6, transaction_reference),
			updated_at = NOW()
		WHERE id = $1 AND tenant_id = $2 AND is_deleted = false
		RETURNING ` + returningColumns

	st, err := scanSalaryTransaction(q.QueryRow(ctx, query,
		update.ID, tenantID, update.IsPaid, update.ActualPayDate, paymentType, update.TransactionReference,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.SalaryTransaction{}, payroll.ErrSalaryTransactionNotFound
		}
		return payroll.SalaryTransaction{}, fmt.Errorf("failed to update salary payment: %w", classify(err))
	}
	return st, nil
}

func (r *salaryTransactionRepository) SoftDelete(ctx context.Context, tenantID string, id string) error {
	return WithTransaction(ctx, r.db, func(txCtx context.Context) error {
		q := GetQuerier(txCtx, r.db)

		var isPaid bool
		err := q.QueryRow(txCtx, `
			SELECT is_paid FROM salary_transactions
			WHERE id = $1 AND tenant_id = $2 AND is_deleted = false
			FOR UPDATE
		`, id, tenantID).Scan(&isPaid)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return payroll.ErrSalaryTransactionNotFound
			}
			return fmt.Errorf("failed to lock salary transaction: %w", classify(err))
		}
		if isPaid {
			return payroll.ErrSalaryTransactionAlreadyPaid
		}

		if _, err := q.Exec(txCtx, `
			UPDATE salary_transactions SET is_deleted = true, updated_at = NOW()
			WHERE id = $1 AND tenant_id = $2
		`, id, tenantID); err != nil {
			return fmt.Errorf("failed to delete salary transaction: %w", classify(err))
		}
		return nil
	})
}
