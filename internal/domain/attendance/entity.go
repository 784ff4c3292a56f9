package attendance

import (
	"time"
)

// AttendanceType is the daily attendance marking for an employee.
type AttendanceType string

const (
	AttendanceTypePresent AttendanceType = "Present"
	AttendanceTypeAbsent  AttendanceType = "Absent"
	AttendanceTypeLeave   AttendanceType = "Leave"
	AttendanceTypeHoliday AttendanceType = "Holiday"
	AttendanceTypeHalfDay AttendanceType = "HalfDay"
)

type Attendance struct {
	ID         string
	TenantID   string
	EmployeeID string
	Date       time.Time
	Type       AttendanceType
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Counts holds per-type attendance totals for a date range.
type Counts struct {
	Present int
	Absent  int
}

// CountByType groups records by type. Types other than Present and Absent are ignored.
func CountByType(records []Attendance) Counts {
	var counts Counts
	for _, rec := range records {
		switch rec.Type {
		case AttendanceTypePresent:
			counts.Present++
		case AttendanceTypeAbsent:
			counts.Absent++
		}
	}
	return counts
}
