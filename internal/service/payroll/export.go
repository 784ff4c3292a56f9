package payroll

import (
	"context"
	"fmt"
	"io"

	"github.com/gaushala-erp/payroll-backend-go/internal/domain/payroll"
	"github.com/gocarina/gocsv"
)

// ExportSalaryTransactions writes every live salary of the month as CSV.
func (s *PayrollServiceImpl) ExportSalaryTransactions(ctx context.Context, tenantID string, salaryMonth string, w io.Writer) error {
	if tenantID == "" {
		return payroll.ErrTenantRequired
	}
	month, err := payroll.ParseSalaryMonth(salaryMonth)
	if err != nil {
		return err
	}

	monthStr := month.String()
	records, _, err := s.salaryRepo.List(ctx, tenantID, payroll.SalaryTransactionFilter{SalaryMonth: &monthStr})
	if err != nil {
		return err
	}

	rows := make([]*payroll.SalaryTransactionCSV, 0, len(records))
	for _, r := range records {
		resp := mapToResponse(r)
		rows = append(rows, &payroll.SalaryTransactionCSV{
			EmployeeID:           resp.EmployeeID,
			EmployeeCode:         resp.EmployeeCode,
			EmployeeName:         resp.EmployeeName,
			SalaryMonth:          resp.SalaryMonth,
			TotalWorkingDays:     resp.TotalWorkingDays,
			ActualWorkingDays:    resp.ActualWorkingDays,
			LeaveCount:           resp.LeaveCount,
			DecidedSalary:        r.DecidedSalary.StringFixed(2),
			PayableSalary:        r.PayableSalary.StringFixed(2),
			IsPaid:               resp.IsPaid,
			PaymentType:          resp.PaymentType,
			TransactionReference: resp.TransactionReference,
			GeneratedBy:          resp.GeneratedBy,
			GeneratedDate:        resp.GeneratedDate,
		})
	}

	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("failed to write salary export: %w", err)
	}
	return nil
}
