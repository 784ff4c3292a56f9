package payroll

import (
	"fmt"

	"github.com/gaushala-erp/payroll-backend-go/internal/domain/attendance"
	"github.com/gaushala-erp/payroll-backend-go/internal/domain/employee"
	"github.com/gaushala-erp/payroll-backend-go/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

// Absent days per month that do not reduce pay.
const (
	forgivenDaysFemale  = 3
	forgivenDaysDefault = 2
)

// ForgivenDays returns the monthly absence allowance for gender.
func ForgivenDays(gender employee.Gender) int {
	if gender.IsFemale() {
		return forgivenDaysFemale
	}
	return forgivenDaysDefault
}

// CalculateWorkingDays summarises one employee's month. The latest created
// joining record truncates the month when the employee joined inside it.
func CalculateWorkingDays(month payroll.SalaryMonth, counts attendance.Counts, joining []employee.JoiningRecord) (payroll.WorkingDaysSummary, error) {
	latest, ok := employee.LatestJoiningRecord(joining)
	if !ok {
		return payroll.WorkingDaysSummary{}, payroll.ErrMissingJoiningRecord
	}

	calendarDays := month.Days()
	totalDays := calendarDays
	if month.Contains(latest.JoinDate) {
		totalDays = calendarDays - (latest.JoinDate.Day() - 1)
	}

	actual := totalDays - counts.Absent
	if actual < 0 {
		return payroll.WorkingDaysSummary{}, fmt.Errorf("%w: %d absences against %d days",
			payroll.ErrAbsencesExceedWorkingDays, counts.Absent, totalDays)
	}

	return payroll.WorkingDaysSummary{
		SalaryMonth:       month,
		MonthStart:        month.Start(),
		CalendarDays:      calendarDays,
		TotalDays:         totalDays,
		PresentCount:      counts.Present,
		AbsentCount:       counts.Absent,
		ActualWorkingDays: actual,
		JoinDate:          latest.JoinDate,
	}, nil
}

// ComputeSalary pro-rates the current decided salary. The per-day rate is
// always taken over the full calendar month, even for mid-month joiners.
func ComputeSalary(summary payroll.WorkingDaysSummary, profile employee.Profile) payroll.SalaryComputation {
	decided := profile.CurrentDecidedSalary()
	monthLen := decimal.NewFromInt(int64(summary.CalendarDays))

	forgiven := ForgivenDays(profile.Gender)
	leaveCount := max(0, summary.AbsentCount-forgiven)
	payableDays := summary.TotalDays - leaveCount

	return payroll.SalaryComputation{
		CurrentDecidedSalary: decided,
		SalaryPerDay:         decided.Div(monthLen),
		ForgivenDays:         forgiven,
		LeaveCount:           leaveCount,
		PayableDays:          payableDays,
		// Multiply before dividing so exact results stay exact.
		PayableSalary: decided.Mul(decimal.NewFromInt(int64(payableDays))).Div(monthLen),
	}
}
