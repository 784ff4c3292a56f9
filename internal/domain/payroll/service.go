package payroll

import (
	"context"
	"io"
)

type PayrollService interface {
	// Working days
	CalculateWorkingDays(ctx context.Context, req WorkingDaysRequest) (WorkingDaysResponse, error)

	// Salary transactions
	GenerateSalary(ctx context.Context, req GenerateSalaryRequest) (GenerateSalaryResponse, error)
	GetSalaryTransaction(ctx context.Context, tenantID string, id string) (SalaryTransactionResponse, error)
	ListSalaryTransactions(ctx context.Context, tenantID string, filter SalaryTransactionFilter) (ListSalaryTransactionResponse, error)
	UpdatePayment(ctx context.Context, req UpdatePaymentRequest) (SalaryTransactionResponse, error)
	DeleteSalaryTransaction(ctx context.Context, tenantID string, id string) error
	ExportSalaryTransactions(ctx context.Context, tenantID string, salaryMonth string, w io.Writer) error

	// Batch
	RunPayrollBatch(ctx context.Context, tenantIDs []string, trigger RunTrigger) (BatchResult, error)
	ListRuns(ctx context.Context, tenantID string, limit int) ([]PayrollRunResponse, error)
}
