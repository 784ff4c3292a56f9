package payroll

import "context"

// SalaryTransactionRepository is the salary ledger.
// All methods include tenantID to prevent cross-tenant data access.
type SalaryTransactionRepository interface {
	// FindByKey returns the non-deleted transaction for key or ErrSalaryTransactionNotFound.
	FindByKey(ctx context.Context, key SalaryTransactionKey) (SalaryTransaction, error)

	// Upsert atomically creates the transaction or rewrites only its computed fields.
	// created reports whether a new row was inserted.
	Upsert(ctx context.Context, key SalaryTransactionKey, computed ComputedFields, creation CreationFields) (tx SalaryTransaction, created bool, err error)

	// CreateIfAbsent inserts a new transaction unless one exists for key, in which
	// case the stored row is returned untouched with created == false.
	CreateIfAbsent(ctx context.Context, key SalaryTransactionKey, computed ComputedFields, creation CreationFields) (tx SalaryTransaction, created bool, err error)

	GetByID(ctx context.Context, tenantID string, id string) (SalaryTransaction, error)
	List(ctx context.Context, tenantID string, filter SalaryTransactionFilter) ([]SalaryTransaction, int64, error)
	UpdatePayment(ctx context.Context, tenantID string, update PaymentUpdate) (SalaryTransaction, error)
	SoftDelete(ctx context.Context, tenantID string, id string) error
}

// PayrollRunRepository tracks batch invocations.
type PayrollRunRepository interface {
	Create(ctx context.Context, run PayrollRun) (PayrollRun, error)
	Finish(ctx context.Context, run PayrollRun) error
	ListByTenant(ctx context.Context, tenantID string, limit int) ([]PayrollRun, error)
}
