package payroll

import "errors"

var (
	ErrInvalidSalaryMonth           = errors.New("salary month must be in YYYY-MM format")
	ErrMissingJoiningRecord         = errors.New("employee has no active joining record")
	ErrMissingEmployeeProfile       = errors.New("employee profile not found")
	ErrAbsencesExceedWorkingDays    = errors.New("recorded absences exceed working days in month")
	ErrStoreUnavailable             = errors.New("payroll store unavailable")
	ErrSalaryTransactionNotFound    = errors.New("salary transaction not found")
	ErrSalaryTransactionAlreadyPaid = errors.New("salary transaction already paid, cannot delete")
	ErrPayrollRunInProgress         = errors.New("payroll run already in progress for this tenant and month")
	ErrTenantRequired               = errors.New("tenant id is required")
)
