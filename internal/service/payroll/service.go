package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gaushala-erp/payroll-backend-go/internal/domain/attendance"
	"github.com/gaushala-erp/payroll-backend-go/internal/domain/employee"
	"github.com/gaushala-erp/payroll-backend-go/internal/domain/payroll"
	"github.com/gaushala-erp/payroll-backend-go/internal/pkg/lock"
	"github.com/gaushala-erp/payroll-backend-go/internal/pkg/metrics"
	"github.com/gaushala-erp/payroll-backend-go/internal/pkg/validator"
)

const dateLayout = "2006-01-02"

// Options tunes the payroll engine. Zero values fall back to defaults.
type Options struct {
	Location        *time.Location
	Workers         int
	EmployeeTimeout time.Duration
	RunBudget       time.Duration
	MaxRetries      int
	RetryBackoff    time.Duration
	LockTTL         time.Duration
	Now             func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.Workers < 1 {
		o.Workers = 4
	}
	if o.EmployeeTimeout <= 0 {
		o.EmployeeTimeout = 30 * time.Second
	}
	if o.RunBudget <= 0 {
		o.RunBudget = 15 * time.Minute
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 200 * time.Millisecond
	}
	if o.LockTTL <= 0 {
		o.LockTTL = o.RunBudget + time.Minute
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Repositories groups the stores the engine reads and writes.
type Repositories struct {
	SalaryTransactions payroll.SalaryTransactionRepository
	Runs               payroll.PayrollRunRepository
	Employees          employee.EmployeeRepository
	JoiningRecords     employee.JoiningRecordRepository
	Attendance         attendance.AttendanceRepository
}

type PayrollServiceImpl struct {
	salaryRepo     payroll.SalaryTransactionRepository
	runRepo        payroll.PayrollRunRepository
	employeeRepo   employee.EmployeeRepository
	joiningRepo    employee.JoiningRecordRepository
	attendanceRepo attendance.AttendanceRepository
	locker         lock.Locker
	metrics        *metrics.Collector
	opts           Options
}

func NewPayrollService(
	repos Repositories,
	locker lock.Locker,
	collector *metrics.Collector,
	opts Options,
) payroll.PayrollService {
	return newPayrollService(repos, locker, collector, opts)
}

func newPayrollService(repos Repositories, locker lock.Locker, collector *metrics.Collector, opts Options) *PayrollServiceImpl {
	if locker == nil {
		locker = lock.NewMemoryLocker()
	}
	if collector == nil {
		collector = metrics.NewCollector()
	}
	return &PayrollServiceImpl{
		salaryRepo:     repos.SalaryTransactions,
		runRepo:        repos.Runs,
		employeeRepo:   repos.Employees,
		joiningRepo:    repos.JoiningRecords,
		attendanceRepo: repos.Attendance,
		locker:         locker,
		metrics:        collector,
		opts:           opts.withDefaults(),
	}
}

// today is the current calendar date in the payroll timezone.
func (s *PayrollServiceImpl) today() time.Time {
	now := s.opts.Now().In(s.opts.Location)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// ========== PIPELINE ==========

func (s *PayrollServiceImpl) workingDays(ctx context.Context, tenantID, employeeID string, month payroll.SalaryMonth) (payroll.WorkingDaysSummary, error) {
	records, err := withRetry(ctx, s, "find_attendance", func(ctx context.Context) ([]attendance.Attendance, error) {
		return s.attendanceRepo.FindByEmployeeInRange(ctx, tenantID, employeeID, month.Start(), month.End())
	})
	if err != nil {
		return payroll.WorkingDaysSummary{}, err
	}

	joining, err := withRetry(ctx, s, "find_joining_records", func(ctx context.Context) ([]employee.JoiningRecord, error) {
		return s.joiningRepo.GetActiveByEmployee(ctx, tenantID, employeeID)
	})
	if err != nil {
		return payroll.WorkingDaysSummary{}, err
	}

	summary, err := CalculateWorkingDays(month, attendance.CountByType(records), joining)
	if err != nil {
		return payroll.WorkingDaysSummary{}, err
	}
	summary.TenantID = tenantID
	summary.EmployeeID = employeeID
	return summary, nil
}

// compute runs the read-only part of the pipeline. Nothing is written.
func (s *PayrollServiceImpl) compute(ctx context.Context, tenantID, employeeID string, month payroll.SalaryMonth) (payroll.ComputedFields, error) {
	summary, err := s.workingDays(ctx, tenantID, employeeID, month)
	if err != nil {
		return payroll.ComputedFields{}, err
	}

	profile, err := withRetry(ctx, s, "get_employee_profile", func(ctx context.Context) (employee.Profile, error) {
		return s.employeeRepo.GetProfile(ctx, tenantID, employeeID)
	})
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return payroll.ComputedFields{}, fmt.Errorf("%w: %s", payroll.ErrMissingEmployeeProfile, employeeID)
		}
		return payroll.ComputedFields{}, err
	}
	if len(profile.SalaryHistory) == 0 {
		slog.Warn("Payroll: employee has no salary history, using zero decided salary",
			"tenant_id", tenantID,
			"employee_id", employeeID,
			"salary_month", month.String(),
		)
	}

	return ComputeSalary(summary, profile).Fields(summary), nil
}

// ========== WORKING DAYS ==========

func (s *PayrollServiceImpl) CalculateWorkingDays(ctx context.Context, req payroll.WorkingDaysRequest) (payroll.WorkingDaysResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.WorkingDaysResponse{}, err
	}
	month, err := payroll.ParseSalaryMonth(req.SalaryMonth)
	if err != nil {
		return payroll.WorkingDaysResponse{}, err
	}

	summary, err := s.workingDays(ctx, req.TenantID, req.EmployeeID, month)
	if err != nil {
		return payroll.WorkingDaysResponse{}, err
	}

	return payroll.WorkingDaysResponse{
		EmployeeID:               summary.EmployeeID,
		SalaryMonth:              month.String(),
		MonthStartDate:           summary.MonthStart.Format(dateLayout),
		JoinDate:                 summary.JoinDate.Format(dateLayout),
		CalendarDays:             summary.CalendarDays,
		TotalDaysForThisEmployee: summary.TotalDays,
		PresentCount:             summary.PresentCount,
		AbsentCount:              summary.AbsentCount,
		ActualWorkingDays:        summary.ActualWorkingDays,
	}, nil
}

// ========== SALARY TRANSACTIONS ==========

// GenerateSalary creates the month's salary for one employee. An existing
// record is returned untouched; only the batch driver refreshes.
func (s *PayrollServiceImpl) GenerateSalary(ctx context.Context, req payroll.GenerateSalaryRequest) (payroll.GenerateSalaryResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.GenerateSalaryResponse{}, err
	}
	month, err := payroll.ParseSalaryMonth(req.SalaryMonth)
	if err != nil {
		return payroll.GenerateSalaryResponse{}, err
	}

	key := payroll.SalaryTransactionKey{
		TenantID:    req.TenantID,
		EmployeeID:  req.EmployeeID,
		SalaryMonth: month.String(),
	}

	existing, err := withRetry(ctx, s, "find_salary_transaction", func(ctx context.Context) (payroll.SalaryTransaction, error) {
		return s.salaryRepo.FindByKey(ctx, key)
	})
	if err == nil {
		return payroll.GenerateSalaryResponse{AlreadyGenerated: true, SalaryTransaction: mapToResponse(existing)}, nil
	}
	if !errors.Is(err, payroll.ErrSalaryTransactionNotFound) {
		return payroll.GenerateSalaryResponse{}, err
	}

	computed, err := s.compute(ctx, req.TenantID, req.EmployeeID, month)
	if err != nil {
		return payroll.GenerateSalaryResponse{}, err
	}

	type createResult struct {
		tx      payroll.SalaryTransaction
		created bool
	}
	res, err := withRetry(ctx, s, "create_salary_transaction", func(ctx context.Context) (createResult, error) {
		tx, created, err := s.salaryRepo.CreateIfAbsent(ctx, key, computed, req.CreationFields(s.today()))
		return createResult{tx: tx, created: created}, err
	})
	if err != nil {
		return payroll.GenerateSalaryResponse{}, err
	}
	if res.created {
		s.metrics.SalaryWritten(true)
	}

	slog.Info("Payroll: salary generated",
		"tenant_id", req.TenantID,
		"employee_id", req.EmployeeID,
		"salary_month", key.SalaryMonth,
		"generated_by", res.tx.GeneratedBy,
		"already_generated", !res.created,
	)

	return payroll.GenerateSalaryResponse{
		AlreadyGenerated:  !res.created,
		SalaryTransaction: mapToResponse(res.tx),
	}, nil
}

func (s *PayrollServiceImpl) GetSalaryTransaction(ctx context.Context, tenantID string, id string) (payroll.SalaryTransactionResponse, error) {
	if tenantID == "" {
		return payroll.SalaryTransactionResponse{}, payroll.ErrTenantRequired
	}

	tx, err := s.salaryRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return payroll.SalaryTransactionResponse{}, err
	}
	return mapToResponse(tx), nil
}

func (s *PayrollServiceImpl) ListSalaryTransactions(ctx context.Context, tenantID string, filter payroll.SalaryTransactionFilter) (payroll.ListSalaryTransactionResponse, error) {
	if tenantID == "" {
		return payroll.ListSalaryTransactionResponse{}, payroll.ErrTenantRequired
	}
	if err := filter.Validate(); err != nil {
		return payroll.ListSalaryTransactionResponse{}, err
	}

	// Set defaults
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	records, totalCount, err := s.salaryRepo.List(ctx, tenantID, filter)
	if err != nil {
		return payroll.ListSalaryTransactionResponse{}, err
	}

	totalPages := int(totalCount) / filter.Limit
	if int(totalCount)%filter.Limit > 0 {
		totalPages++
	}

	return payroll.ListSalaryTransactionResponse{
		Data:       mapToResponses(records),
		TotalCount: totalCount,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
	}, nil
}

// UpdatePayment is the explicit pay-status change. Computed fields are untouched.
func (s *PayrollServiceImpl) UpdatePayment(ctx context.Context, req payroll.UpdatePaymentRequest) (payroll.SalaryTransactionResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.SalaryTransactionResponse{}, err
	}

	update := payroll.PaymentUpdate{
		ID:                   req.ID,
		IsPaid:               *req.IsPaid,
		TransactionReference: req.TransactionReference,
	}
	if req.ActualPayDate != nil {
		if d, ok := validator.IsValidDate(*req.ActualPayDate); ok {
			update.ActualPayDate = &d
		}
	}
	if req.PaymentType != nil {
		pt := payroll.PaymentType(*req.PaymentType)
		update.PaymentType = &pt
	}

	tx, err := s.salaryRepo.UpdatePayment(ctx, req.TenantID, update)
	if err != nil {
		return payroll.SalaryTransactionResponse{}, err
	}

	slog.Info("Payroll: payment updated",
		"tenant_id", req.TenantID,
		"salary_transaction_id", tx.ID,
		"is_paid", tx.IsPaid,
	)
	return mapToResponse(tx), nil
}

func (s *PayrollServiceImpl) DeleteSalaryTransaction(ctx context.Context, tenantID string, id string) error {
	if tenantID == "" {
		return payroll.ErrTenantRequired
	}
	return s.salaryRepo.SoftDelete(ctx, tenantID, id)
}

// ========== HELPERS ==========

// Money is stored at full precision and rounded here, for presentation only.
func mapToResponse(tx payroll.SalaryTransaction) payroll.SalaryTransactionResponse {
	var payDate *string
	if tx.ActualPayDate != nil {
		str := tx.ActualPayDate.Format(dateLayout)
		payDate = &str
	}

	employeeName := ""
	employeeCode := ""
	if tx.EmployeeName != nil {
		employeeName = *tx.EmployeeName
	}
	if tx.EmployeeCode != nil {
		employeeCode = *tx.EmployeeCode
	}

	return payroll.SalaryTransactionResponse{
		ID:                   tx.ID,
		EmployeeID:           tx.EmployeeID,
		EmployeeName:         employeeName,
		EmployeeCode:         employeeCode,
		SalaryMonth:          tx.SalaryMonth,
		TotalWorkingDays:     tx.TotalWorkingDays,
		ActualWorkingDays:    tx.ActualWorkingDays,
		PresentDays:          tx.PresentDays,
		AbsentDays:           tx.AbsentDays,
		LeaveCount:           tx.LeaveCount,
		DecidedSalary:        tx.DecidedSalary.Round(2),
		SalaryPerDay:         tx.SalaryPerDay.Round(2),
		PayableSalary:        tx.PayableSalary.Round(2),
		GeneratedDate:        tx.GeneratedDate.Format(dateLayout),
		GeneratedBy:          tx.GeneratedBy,
		PaymentType:          string(tx.PaymentType),
		TransactionReference: tx.TransactionReference,
		ActualPayDate:        payDate,
		IsPaid:               tx.IsPaid,
	}
}

func mapToResponses(records []payroll.SalaryTransaction) []payroll.SalaryTransactionResponse {
	result := make([]payroll.SalaryTransactionResponse, 0, len(records))
	for _, r := range records {
		result = append(result, mapToResponse(r))
	}
	return result
}
