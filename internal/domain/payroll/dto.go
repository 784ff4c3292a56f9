package payroll

import (
	"time"

	"github.com/gaushala-erp/payroll-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========== GENERATE ==========

type GenerateSalaryRequest struct {
	TenantID             string  `json:"-" validate:"required"`
	CallerID             string  `json:"-" validate:"required"`
	EmployeeID           string  `json:"employee_id" validate:"required,uuid"`
	SalaryMonth          string  `json:"salary_month" validate:"required,salary_month"`
	PaymentType          *string `json:"payment_type,omitempty" validate:"omitempty,oneof=cash bank_transfer cheque upi"`
	TransactionReference *string `json:"transaction_reference,omitempty" validate:"omitempty,max=128"`
	ActualPayDate        *string `json:"actual_pay_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	IsPaid               *bool   `json:"is_paid,omitempty"`
}

func (r *GenerateSalaryRequest) Validate() error {
	return validator.Struct(r)
}

// CreationFields builds the creation-only stamp for an interactive request.
// GeneratedBy is always the caller; AutoGenerateBy belongs to the batch driver.
func (r *GenerateSalaryRequest) CreationFields(today time.Time) CreationFields {
	creation := CreationFields{
		GeneratedDate: today,
		GeneratedBy:   r.CallerID,
		PaymentType:   PaymentTypeCash,
	}
	if r.PaymentType != nil {
		creation.PaymentType = PaymentType(*r.PaymentType)
	}
	if r.TransactionReference != nil {
		creation.TransactionReference = *r.TransactionReference
	}
	if r.ActualPayDate != nil {
		if d, ok := validator.IsValidDate(*r.ActualPayDate); ok {
			creation.ActualPayDate = &d
		}
	}
	if r.IsPaid != nil {
		creation.IsPaid = *r.IsPaid
	}
	return creation
}

type GenerateSalaryResponse struct {
	AlreadyGenerated  bool                      `json:"already_generated"`
	SalaryTransaction SalaryTransactionResponse `json:"salary_transaction"`
}

// ========== WORKING DAYS ==========

type WorkingDaysRequest struct {
	TenantID    string `json:"-" validate:"required"`
	EmployeeID  string `json:"employee_id" validate:"required,uuid"`
	SalaryMonth string `json:"salary_month" validate:"required,salary_month"`
}

func (r *WorkingDaysRequest) Validate() error {
	return validator.Struct(r)
}

type WorkingDaysResponse struct {
	EmployeeID               string `json:"employee_id"`
	SalaryMonth              string `json:"salary_month"`
	MonthStartDate           string `json:"month_start_date"`
	JoinDate                 string `json:"join_date"`
	CalendarDays             int    `json:"calendar_days"`
	TotalDaysForThisEmployee int    `json:"total_days_for_this_employee"`
	PresentCount             int    `json:"present_count"`
	AbsentCount              int    `json:"absent_count"`
	ActualWorkingDays        int    `json:"actual_working_days"`
}

// ========== SALARY TRANSACTIONS ==========

type SalaryTransactionResponse struct {
	ID                   string          `json:"id"`
	EmployeeID           string          `json:"employee_id"`
	EmployeeName         string          `json:"employee_name,omitempty"`
	EmployeeCode         string          `json:"employee_code,omitempty"`
	SalaryMonth          string          `json:"salary_month"`
	TotalWorkingDays     int             `json:"total_working_days"`
	ActualWorkingDays    int             `json:"actual_working_days"`
	PresentDays          int             `json:"present_days"`
	AbsentDays           int             `json:"absent_days"`
	LeaveCount           int             `json:"leave_count"`
	DecidedSalary        decimal.Decimal `json:"decided_salary"`
	SalaryPerDay         decimal.Decimal `json:"salary_per_day"`
	PayableSalary        decimal.Decimal `json:"payable_salary"`
	GeneratedDate        string          `json:"generated_date"`
	GeneratedBy          string          `json:"generated_by"`
	PaymentType          string          `json:"payment_type"`
	TransactionReference string          `json:"transaction_reference"`
	ActualPayDate        *string         `json:"actual_pay_date,omitempty"`
	IsPaid               bool            `json:"is_paid"`
}

type SalaryTransactionFilter struct {
	SalaryMonth *string `json:"salary_month,omitempty" validate:"omitempty,salary_month"`
	EmployeeID  *string `json:"employee_id,omitempty" validate:"omitempty,uuid"`
	IsPaid      *bool   `json:"is_paid,omitempty"`
	Page        int     `json:"page" validate:"min=0"`
	Limit       int     `json:"limit" validate:"min=0,max=100"`
}

func (f *SalaryTransactionFilter) Validate() error {
	return validator.Struct(f)
}

type ListSalaryTransactionResponse struct {
	Data       []SalaryTransactionResponse `json:"data"`
	TotalCount int64                       `json:"total_count"`
	Page       int                         `json:"page"`
	Limit      int                         `json:"limit"`
	TotalPages int                         `json:"total_pages"`
}

type UpdatePaymentRequest struct {
	ID                   string  `json:"-" validate:"required,uuid"`
	TenantID             string  `json:"-" validate:"required"`
	IsPaid               *bool   `json:"is_paid" validate:"required"`
	ActualPayDate        *string `json:"actual_pay_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	PaymentType          *string `json:"payment_type,omitempty" validate:"omitempty,oneof=cash bank_transfer cheque upi"`
	TransactionReference *string `json:"transaction_reference,omitempty" validate:"omitempty,max=128"`
}

func (r *UpdatePaymentRequest) Validate() error {
	return validator.Struct(r)
}

// SalaryTransactionCSV is one exported row.
type SalaryTransactionCSV struct {
	EmployeeID           string `csv:"employee_id"`
	EmployeeCode         string `csv:"employee_code"`
	EmployeeName         string `csv:"employee_name"`
	SalaryMonth          string `csv:"salary_month"`
	TotalWorkingDays     int    `csv:"total_working_days"`
	ActualWorkingDays    int    `csv:"actual_working_days"`
	LeaveCount           int    `csv:"leave_count"`
	DecidedSalary        string `csv:"decided_salary"`
	PayableSalary        string `csv:"payable_salary"`
	IsPaid               bool   `csv:"is_paid"`
	PaymentType          string `csv:"payment_type"`
	TransactionReference string `csv:"transaction_reference"`
	GeneratedBy          string `csv:"generated_by"`
	GeneratedDate        string `csv:"generated_date"`
}

// ========== BATCH ==========

type TenantRunResult struct {
	TenantID  string            `json:"tenant_id"`
	RunID     string            `json:"run_id,omitempty"`
	Status    RunStatus         `json:"status"`
	Total     int               `json:"total_employees"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Failures  []EmployeeFailure `json:"failures,omitempty"`
	Error     string            `json:"error,omitempty"`
}

type BatchResult struct {
	SalaryMonth string            `json:"salary_month"`
	Trigger     RunTrigger        `json:"trigger"`
	StartedAt   time.Time         `json:"started_at"`
	FinishedAt  time.Time         `json:"finished_at"`
	Tenants     []TenantRunResult `json:"tenants"`
}

type PayrollRunResponse struct {
	ID             string            `json:"id"`
	TenantID       string            `json:"tenant_id"`
	SalaryMonth    string            `json:"salary_month"`
	Trigger        string            `json:"trigger"`
	Status         string            `json:"status"`
	TotalEmployees int               `json:"total_employees"`
	Succeeded      int               `json:"succeeded"`
	Failed         int               `json:"failed"`
	Failures       []EmployeeFailure `json:"failures,omitempty"`
	ErrorMessage   *string           `json:"error_message,omitempty"`
	StartedAt      string            `json:"started_at"`
	FinishedAt     *string           `json:"finished_at,omitempty"`
}
