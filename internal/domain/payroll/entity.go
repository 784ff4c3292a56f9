package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// AutoGenerateBy marks salary transactions created by the batch driver.
const AutoGenerateBy = "Auto Generate"

// PaymentType enum
type PaymentType string

const (
	PaymentTypeCash         PaymentType = "cash"
	PaymentTypeBankTransfer PaymentType = "bank_transfer"
	PaymentTypeCheque       PaymentType = "cheque"
	PaymentTypeUPI          PaymentType = "upi"
)

// SalaryTransactionKey is the identity of a salary transaction within a tenant.
type SalaryTransactionKey struct {
	TenantID    string
	EmployeeID  string
	SalaryMonth string
}

// SalaryTransaction - one generated salary per employee per month
type SalaryTransaction struct {
	ID                   string
	TenantID             string
	EmployeeID           string
	SalaryMonth          string
	TotalWorkingDays     int
	ActualWorkingDays    int
	PresentDays          int
	AbsentDays           int
	LeaveCount           int
	DecidedSalary        decimal.Decimal
	SalaryPerDay         decimal.Decimal
	PayableSalary        decimal.Decimal
	GeneratedDate        time.Time
	GeneratedBy          string
	PaymentType          PaymentType
	TransactionReference string
	ActualPayDate        *time.Time
	IsPaid               bool
	IsDeleted            bool
	CreatedAt            time.Time
	UpdatedAt            time.Time

	// Joined fields
	EmployeeName *string
	EmployeeCode *string
}

// ComputedFields are rewritten on every refresh.
type ComputedFields struct {
	TotalWorkingDays  int
	ActualWorkingDays int
	PresentDays       int
	AbsentDays        int
	LeaveCount        int
	DecidedSalary     decimal.Decimal
	SalaryPerDay      decimal.Decimal
	PayableSalary     decimal.Decimal
}

// CreationFields are written only when the transaction is first created.
type CreationFields struct {
	GeneratedDate        time.Time
	GeneratedBy          string
	PaymentType          PaymentType
	TransactionReference string
	ActualPayDate        *time.Time
	IsPaid               bool
}

// PaymentUpdate is the explicit pay-status change applied outside payroll generation.
type PaymentUpdate struct {
	ID                   string
	IsPaid               bool
	ActualPayDate        *time.Time
	PaymentType          *PaymentType
	TransactionReference *string
}

// WorkingDaysSummary - attendance summary of one employee for one month
type WorkingDaysSummary struct {
	TenantID          string
	EmployeeID        string
	SalaryMonth       SalaryMonth
	MonthStart        time.Time
	CalendarDays      int
	TotalDays         int
	PresentCount      int
	AbsentCount       int
	ActualWorkingDays int
	JoinDate          time.Time
}

// SalaryComputation - pro-rated salary derived from a WorkingDaysSummary
type SalaryComputation struct {
	CurrentDecidedSalary decimal.Decimal
	SalaryPerDay         decimal.Decimal
	ForgivenDays         int
	LeaveCount           int
	PayableDays          int
	PayableSalary        decimal.Decimal
}

// Fields flattens a computation into the persisted computed fields.
func (c SalaryComputation) Fields(summary WorkingDaysSummary) ComputedFields {
	return ComputedFields{
		TotalWorkingDays:  summary.TotalDays,
		ActualWorkingDays: summary.ActualWorkingDays,
		PresentDays:       summary.PresentCount,
		AbsentDays:        summary.AbsentCount,
		LeaveCount:        c.LeaveCount,
		DecidedSalary:     c.CurrentDecidedSalary,
		SalaryPerDay:      c.SalaryPerDay,
		PayableSalary:     c.PayableSalary,
	}
}

// RunStatus enum
type RunStatus string

const (
	RunStatusRunning             RunStatus = "running"
	RunStatusCompleted           RunStatus = "completed"
	RunStatusCompletedWithErrors RunStatus = "completed_with_errors"
	RunStatusFailed              RunStatus = "failed"
	RunStatusSkipped             RunStatus = "skipped"
)

// RunTrigger enum
type RunTrigger string

const (
	RunTriggerCron   RunTrigger = "cron"
	RunTriggerManual RunTrigger = "manual"
)

type EmployeeFailure struct {
	EmployeeID string `json:"employee_id"`
	Error      string `json:"error"`
}

// PayrollRun - one batch invocation for one tenant
type PayrollRun struct {
	ID             string
	TenantID       string
	SalaryMonth    string
	Trigger        RunTrigger
	Status         RunStatus
	TotalEmployees int
	Succeeded      int
	Failed         int
	Failures       []EmployeeFailure
	ErrorMessage   *string
	StartedAt      time.Time
	FinishedAt     *time.Time
}
