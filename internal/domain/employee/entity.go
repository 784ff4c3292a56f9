package employee

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Employee struct {
	ID               string
	TenantID         string
	EmployeeCode     string
	FullName         string
	Gender           Gender
	EmploymentStatus EmploymentStatus
	CreatedAt        time.Time
	UpdatedAt        time.Time
	DeletedAt        *time.Time
}

type Gender string

const (
	Male   Gender = "MALE"
	Female Gender = "FEMALE"
	Other  Gender = "OTHER"
)

// IsFemale matches case-insensitively; stored values differ in casing across tenants.
func (g Gender) IsFemale() bool {
	return strings.EqualFold(strings.TrimSpace(string(g)), string(Female))
}

type EmploymentStatus string

const (
	EmploymentStatusActive   EmploymentStatus = "active"
	EmploymentStatusInactive EmploymentStatus = "inactive"
)

// JoiningRecord is one employment stint. Re-joins create additional records.
type JoiningRecord struct {
	ID         string
	TenantID   string
	EmployeeID string
	JoinDate   time.Time
	LeaveDate  *time.Time
	IsActive   bool
	IsDeleted  bool
	CreatedAt  time.Time
}

// LatestJoiningRecord returns the most recently created record.
func LatestJoiningRecord(records []JoiningRecord) (JoiningRecord, bool) {
	if len(records) == 0 {
		return JoiningRecord{}, false
	}
	latest := records[0]
	for _, rec := range records[1:] {
		if rec.CreatedAt.After(latest.CreatedAt) {
			latest = rec
		}
	}
	return latest, true
}

type SalaryHistoryEntry struct {
	ID            string
	EmployeeID    string
	EffectiveDate time.Time
	DecidedAmount decimal.Decimal
	CreatedAt     time.Time
}

// Profile is what payroll needs to know about an employee.
type Profile struct {
	EmployeeID    string
	TenantID      string
	FullName      string
	Gender        Gender
	SalaryHistory []SalaryHistoryEntry
}

// CurrentDecidedSalary returns the amount with the latest effective date,
// or zero when no salary was ever decided.
func (p Profile) CurrentDecidedSalary() decimal.Decimal {
	if len(p.SalaryHistory) == 0 {
		return decimal.Zero
	}
	history := make([]SalaryHistoryEntry, len(p.SalaryHistory))
	copy(history, p.SalaryHistory)
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].EffectiveDate.After(history[j].EffectiveDate)
	})
	return history[0].DecidedAmount
}
