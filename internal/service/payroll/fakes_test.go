package payroll

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gaushala-erp/payroll-backend-go/internal/domain/attendance"
	"github.com/gaushala-erp/payroll-backend-go/internal/domain/employee"
	"github.com/gaushala-erp/payroll-backend-go/internal/domain/payroll"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// fakeStore is an in-memory stand-in for every port the engine uses.
type fakeStore struct {
	mu sync.Mutex

	employees  map[string][]string // tenant -> active employee ids
	profiles   map[string]employee.Profile
	joining    map[string][]employee.JoiningRecord
	attendance map[string][]attendance.Attendance
	salaries   map[payroll.SalaryTransactionKey]payroll.SalaryTransaction
	runs       []payroll.PayrollRun

	// transientFailures makes the next N attendance lookups for an employee fail.
	transientFailures map[string]int
	attendanceCalls   map[string]int
	// blockAttendance makes attendance lookups for an employee wait for ctx.
	blockAttendance map[string]bool

	nextID int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		employees:         make(map[string][]string),
		profiles:          make(map[string]employee.Profile),
		joining:           make(map[string][]employee.JoiningRecord),
		attendance:        make(map[string][]attendance.Attendance),
		salaries:          make(map[payroll.SalaryTransactionKey]payroll.SalaryTransaction),
		transientFailures: make(map[string]int),
		attendanceCalls:   make(map[string]int),
		blockAttendance:   make(map[string]bool),
	}
}

func (f *fakeStore) repositories() Repositories {
	return Repositories{
		SalaryTransactions: fakeSalaryRepo{f},
		Runs:               fakeRunRepo{f},
		Employees:          fakeEmployeeRepo{f},
		JoiningRecords:     fakeJoiningRepo{f},
		Attendance:         fakeAttendanceRepo{f},
	}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// addEmployee registers an active employee with one joining record and salary.
func (f *fakeStore) addEmployee(tenantID, id string, gender employee.Gender, joined time.Time, salary int64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.employees[tenantID] = append(f.employees[tenantID], id)
	f.profiles[id] = employee.Profile{
		EmployeeID: id,
		TenantID:   tenantID,
		Gender:     gender,
		SalaryHistory: []employee.SalaryHistoryEntry{
			{EffectiveDate: joined, DecidedAmount: decimal.NewFromInt(salary)},
		},
	}
	f.joining[id] = []employee.JoiningRecord{
		{EmployeeID: id, TenantID: tenantID, JoinDate: joined, IsActive: true, CreatedAt: joined},
	}
}

func (f *fakeStore) addAttendance(employeeID string, typ attendance.AttendanceType, days ...time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, d := range days {
		f.attendance[employeeID] = append(f.attendance[employeeID], attendance.Attendance{
			EmployeeID: employeeID,
			Date:       d,
			Type:       typ,
		})
	}
}

func (f *fakeStore) salaryCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.salaries)
}

type fakeAttendanceRepo struct{ *fakeStore }

func (r fakeAttendanceRepo) FindByEmployeeInRange(ctx context.Context, tenantID, employeeID string, from, to time.Time) ([]attendance.Attendance, error) {
	r.mu.Lock()
	block := r.blockAttendance[employeeID]
	r.attendanceCalls[employeeID]++
	if r.transientFailures[employeeID] > 0 {
		r.transientFailures[employeeID]--
		r.mu.Unlock()
		return nil, fmt.Errorf("failed to find attendance: %w", payroll.ErrStoreUnavailable)
	}
	var out []attendance.Attendance
	for _, a := range r.attendance[employeeID] {
		if !a.Date.Before(from) && !a.Date.After(to) {
			out = append(out, a)
		}
	}
	r.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return out, nil
}

type fakeJoiningRepo struct{ *fakeStore }

func (r fakeJoiningRepo) GetActiveByEmployee(ctx context.Context, tenantID, employeeID string) ([]employee.JoiningRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]employee.JoiningRecord(nil), r.joining[employeeID]...), nil
}

type fakeEmployeeRepo struct{ *fakeStore }

func (r fakeEmployeeRepo) ListActiveIDs(ctx context.Context, tenantID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.employees[tenantID]...), nil
}

func (r fakeEmployeeRepo) GetProfile(ctx context.Context, tenantID, employeeID string) (employee.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[employeeID]
	if !ok || p.TenantID != tenantID {
		return employee.Profile{}, employee.ErrEmployeeNotFound
	}
	return p, nil
}

type fakeSalaryRepo struct{ *fakeStore }

func (r fakeSalaryRepo) FindByKey(ctx context.Context, key payroll.SalaryTransactionKey) (payroll.SalaryTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx, ok := r.salaries[key]
	if !ok {
		return payroll.SalaryTransaction{}, payroll.ErrSalaryTransactionNotFound
	}
	return tx, nil
}

func (r fakeSalaryRepo) insert(key payroll.SalaryTransactionKey, computed payroll.ComputedFields, creation payroll.CreationFields) payroll.SalaryTransaction {
	r.nextID++
	tx := payroll.SalaryTransaction{
		ID:                   uuid.NewString(),
		TenantID:             key.TenantID,
		EmployeeID:           key.EmployeeID,
		SalaryMonth:          key.SalaryMonth,
		GeneratedDate:        creation.GeneratedDate,
		GeneratedBy:          creation.GeneratedBy,
		PaymentType:          creation.PaymentType,
		TransactionReference: creation.TransactionReference,
		ActualPayDate:        creation.ActualPayDate,
		IsPaid:               creation.IsPaid,
	}
	applyComputed(&tx, computed)
	r.salaries[key] = tx
	return tx
}

func applyComputed(tx *payroll.SalaryTransaction, c payroll.ComputedFields) {
	tx.TotalWorkingDays = c.TotalWorkingDays
	tx.ActualWorkingDays = c.ActualWorkingDays
	tx.PresentDays = c.PresentDays
	tx.AbsentDays = c.AbsentDays
	tx.LeaveCount = c.LeaveCount
	tx.DecidedSalary = c.DecidedSalary
	tx.SalaryPerDay = c.SalaryPerDay
	tx.PayableSalary = c.PayableSalary
}

func (r fakeSalaryRepo) Upsert(ctx context.Context, key payroll.SalaryTransactionKey, computed payroll.ComputedFields, creation payroll.CreationFields) (payroll.SalaryTransaction, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if tx, ok := r.salaries[key]; ok {
		applyComputed(&tx, computed)
		r.salaries[key] = tx
		return tx, false, nil
	}
	return r.insert(key, computed, creation), true, nil
}

func (r fakeSalaryRepo) CreateIfAbsent(ctx context.Context, key payroll.SalaryTransactionKey, computed payroll.ComputedFields, creation payroll.CreationFields) (payroll.SalaryTransaction, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if tx, ok := r.salaries[key]; ok {
		return tx, false, nil
	}
	return r.insert(key, computed, creation), true, nil
}

func (r fakeSalaryRepo) byID(tenantID, id string) (payroll.SalaryTransactionKey, payroll.SalaryTransaction, bool) {
	for k, tx := range r.salaries {
		if tx.ID == id && tx.TenantID == tenantID {
			return k, tx, true
		}
	}
	return payroll.SalaryTransactionKey{}, payroll.SalaryTransaction{}, false
}

func (r fakeSalaryRepo) GetByID(ctx context.Context, tenantID string, id string) (payroll.SalaryTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, tx, ok := r.byID(tenantID, id); ok {
		return tx, nil
	}
	return payroll.SalaryTransaction{}, payroll.ErrSalaryTransactionNotFound
}

func (r fakeSalaryRepo) List(ctx context.Context, tenantID string, filter payroll.SalaryTransactionFilter) ([]payroll.SalaryTransaction, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []payroll.SalaryTransaction
	for _, tx := range r.salaries {
		if tx.TenantID != tenantID {
			continue
		}
		if filter.SalaryMonth != nil && tx.SalaryMonth != *filter.SalaryMonth {
			continue
		}
		if filter.EmployeeID != nil && tx.EmployeeID != *filter.EmployeeID {
			continue
		}
		if filter.IsPaid != nil && tx.IsPaid != *filter.IsPaid {
			continue
		}
		out = append(out, tx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out, int64(len(out)), nil
}

func (r fakeSalaryRepo) UpdatePayment(ctx context.Context, tenantID string, update payroll.PaymentUpdate) (payroll.SalaryTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key, tx, ok := r.byID(tenantID, update.ID)
	if !ok {
		return payroll.SalaryTransaction{}, payroll.ErrSalaryTransactionNotFound
	}
	tx.IsPaid = update.IsPaid
	if update.ActualPayDate != nil {
		tx.ActualPayDate = update.ActualPayDate
	}
	if update.PaymentType != nil {
		tx.PaymentType = *update.PaymentType
	}
	if update.TransactionReference != nil {
		tx.TransactionReference = *update.TransactionReference
	}
	r.salaries[key] = tx
	return tx, nil
}

func (r fakeSalaryRepo) SoftDelete(ctx context.Context, tenantID string, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key, tx, ok := r.byID(tenantID, id)
	if !ok {
		return payroll.ErrSalaryTransactionNotFound
	}
	if tx.IsPaid {
		return payroll.ErrSalaryTransactionAlreadyPaid
	}
	delete(r.salaries, key)
	return nil
}

type fakeRunRepo struct{ *fakeStore }

func (r fakeRunRepo) Create(ctx context.Context, run payroll.PayrollRun) (payroll.PayrollRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	run.ID = fmt.Sprintf("run-%d", r.nextID)
	r.runs = append(r.runs, run)
	return run, nil
}

func (r fakeRunRepo) Finish(ctx context.Context, run payroll.PayrollRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.runs {
		if r.runs[i].ID == run.ID {
			r.runs[i] = run
			return nil
		}
	}
	return fmt.Errorf("run %s not found", run.ID)
}

func (r fakeRunRepo) ListByTenant(ctx context.Context, tenantID string, limit int) ([]payroll.PayrollRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []payroll.PayrollRun
	for i := len(r.runs) - 1; i >= 0; i-- {
		if r.runs[i].TenantID == tenantID {
			out = append(out, r.runs[i])
		}
	}
	return out, nil
}
