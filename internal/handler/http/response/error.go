package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gaushala-erp/payroll-backend-go/internal/domain/employee"
	"github.com/gaushala-erp/payroll-backend-go/internal/domain/payroll"
	"github.com/gaushala-erp/payroll-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Payroll domain errors
	case errors.Is(err, payroll.ErrInvalidSalaryMonth):
		ValidationError(w, map[string]string{"salary_month": "must be in YYYY-MM format"})
	case errors.Is(err, payroll.ErrMissingJoiningRecord):
		UnprocessableEntity(w, "MISSING_JOINING_RECORD", "Employee has no active joining record")
	case errors.Is(err, payroll.ErrAbsencesExceedWorkingDays):
		UnprocessableEntity(w, "INVALID_ATTENDANCE", err.Error())
	case errors.Is(err, payroll.ErrMissingEmployeeProfile):
		NotFound(w, "Employee profile not found")
	case errors.Is(err, payroll.ErrSalaryTransactionNotFound):
		NotFound(w, "Salary transaction not found")
	case errors.Is(err, payroll.ErrSalaryTransactionAlreadyPaid):
		Conflict(w, "Salary transaction already paid")
	case errors.Is(err, payroll.ErrPayrollRunInProgress):
		Conflict(w, "Payroll run already in progress")
	case errors.Is(err, payroll.ErrTenantRequired):
		Forbidden(w, "Tenant context required")
	case errors.Is(err, payroll.ErrStoreUnavailable):
		slog.Error("Store unavailable", "error", err)
		ServiceUnavailable(w, "Payroll store temporarily unavailable, please retry")

	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
