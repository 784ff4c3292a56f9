package employee

import "context"

// EmployeeRepository is the employee directory as seen by payroll.
type EmployeeRepository interface {
	// ListActiveIDs returns ids of active, non-deleted employees of a tenant.
	ListActiveIDs(ctx context.Context, tenantID string) ([]string, error)
	// GetProfile returns gender and full salary history. Returns ErrEmployeeNotFound
	// when the employee does not exist in the tenant.
	GetProfile(ctx context.Context, tenantID, employeeID string) (Profile, error)
}

type JoiningRecordRepository interface {
	// GetActiveByEmployee returns active, non-deleted joining records, newest first.
	GetActiveByEmployee(ctx context.Context, tenantID, employeeID string) ([]JoiningRecord, error)
}
