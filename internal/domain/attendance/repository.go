package attendance

import (
	"context"
	"time"
)

// AttendanceRepository is the read side of the attendance store used by payroll.
// All methods include tenantID parameter to prevent cross-tenant data access.
type AttendanceRepository interface {
	// FindByEmployeeInRange returns the employee's records with from <= date <= to.
	FindByEmployeeInRange(ctx context.Context, tenantID, employeeID string, from, to time.Time) ([]Attendance, error)
}
