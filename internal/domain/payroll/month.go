package payroll

import (
	"fmt"
	"time"
)

const salaryMonthLayout = "2006-01"

// SalaryMonth identifies one payroll period. Its string form is "YYYY-MM".
type SalaryMonth struct {
	Year  int
	Month time.Month
}

func ParseSalaryMonth(s string) (SalaryMonth, error) {
	if len(s) != len(salaryMonthLayout) {
		return SalaryMonth{}, fmt.Errorf("%w: %q", ErrInvalidSalaryMonth, s)
	}
	t, err := time.Parse(salaryMonthLayout, s)
	if err != nil {
		return SalaryMonth{}, fmt.Errorf("%w: %q", ErrInvalidSalaryMonth, s)
	}
	return SalaryMonth{Year: t.Year(), Month: t.Month()}, nil
}

// MonthOf returns the salary month t falls in, evaluated in t's location.
func MonthOf(t time.Time) SalaryMonth {
	return SalaryMonth{Year: t.Year(), Month: t.Month()}
}

func (m SalaryMonth) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Start is the first calendar day of the month at midnight UTC.
func (m SalaryMonth) Start() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End is the last calendar day of the month at midnight UTC.
func (m SalaryMonth) End() time.Time {
	return time.Date(m.Year, m.Month+1, 0, 0, 0, 0, 0, time.UTC)
}

// Days is the number of calendar days in the month.
func (m SalaryMonth) Days() int {
	return m.End().Day()
}

// Contains reports whether the calendar date of t falls in the month.
func (m SalaryMonth) Contains(t time.Time) bool {
	return t.Year() == m.Year && t.Month() == m.Month
}
