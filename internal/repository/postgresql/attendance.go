package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/gaushala-erp/payroll-backend-go/internal/domain/attendance"
	"github.com/gaushala-erp/payroll-backend-go/internal/pkg/database"
)

type attendanceRepositoryImpl struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepositoryImpl{db: db}
}

// FindByEmployeeInRange implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) FindByEmployeeInRange(ctx context.Context, tenantID, employeeID string, from, to time.Time) ([]attendance.Attendance, error) {
	if from.After(to) {
		return nil, attendance.ErrInvalidDateRange
	}

	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, tenant_id, employee_id, date, attendance_type, created_at, updated_at
		FROM attendances
		WHERE tenant_id = $1
			AND employee_id = $2
			AND date BETWEEN $3 AND $4
			AND is_deleted = false
		ORDER BY date
	`

	rows, err := q.Query(ctx, query, tenantID, employeeID, from.Format("2006-01-02"), to.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("failed to find attendance: %w", classify(err))
	}
	defer rows.Close()

	var records []attendance.Attendance
	for rows.Next() {
		var a attendance.Attendance
		if err := rows.Scan(&a.ID, &a.TenantID, &a.EmployeeID, &a.Date, &a.Type, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		records = append(records, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendance: %w", classify(err))
	}

	return records, nil
}
