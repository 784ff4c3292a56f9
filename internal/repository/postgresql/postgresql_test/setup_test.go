package postgresql_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/gaushala-erp/payroll-backend-go/internal/pkg/database"
	"github.com/gaushala-erp/payroll-backend-go/migrations"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// TestDatabaseSetup wraps a migrated test database
type TestDatabaseSetup struct {
	DB *database.DB
}

// NewTestDatabase connects to TEST_DATABASE_URL and applies migrations.
// Tests are skipped when the variable is unset.
func NewTestDatabase(t *testing.T) *TestDatabaseSetup {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := database.NewPostgreSQLDB(ctx, dsn, database.PoolOptions{MaxConns: 10, MinConns: 1})
	require.NoError(t, err, "failed to connect to test database")

	require.NoError(t, db.Migrate(ctx, migrations.FS))

	setup := &TestDatabaseSetup{DB: db}
	require.NoError(t, setup.TruncateAllTables(ctx))
	t.Cleanup(setup.Close)
	return setup
}

// TruncateAllTables removes every row from the payroll tables
func (t *TestDatabaseSetup) TruncateAllTables(ctx context.Context) error {
	tx, err := t.DB.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tables := []string{
		"payroll_runs",
		"salary_transactions",
		"attendances",
		"joining_records",
		"salary_history",
		"employees",
	}

	for _, table := range tables {
		_, err := tx.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		if err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	return tx.Commit(ctx)
}

// Close closes the database connection
func (t *TestDatabaseSetup) Close() {
	t.DB.Close()
}

func (t *TestDatabaseSetup) createEmployee(tb testing.TB, tenantID, code, gender string) string {
	tb.Helper()
	id := uuid.NewString()
	_, err := t.DB.Exec(context.Background(), `
		INSERT INTO employees (id, tenant_id, employee_code, full_name, gender)
		VALUES ($1, $2, $3, $4, $5)
	`, id, tenantID, code, "Employee "+code, gender)
	require.NoError(tb, err)
	return id
}

func (t *TestDatabaseSetup) addSalaryHistory(tb testing.TB, tenantID, employeeID string, effective time.Time, amount string) {
	tb.Helper()
	_, err := t.DB.Exec(context.Background(), `
		INSERT INTO salary_history (id, tenant_id, employee_id, effective_date, decided_amount)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.NewString(), tenantID, employeeID, effective, decimal.RequireFromString(amount))
	require.NoError(tb, err)
}

func (t *TestDatabaseSetup) addJoiningRecord(tb testing.TB, tenantID, employeeID string, joinDate time.Time) {
	tb.Helper()
	_, err := t.DB.Exec(context.Background(), `
		INSERT INTO joining_records (id, tenant_id, employee_id, join_date)
		VALUES ($1, $2, $3, $4)
	`, uuid.NewString(), tenantID, employeeID, joinDate)
	require.NoError(tb, err)
}

func (t *TestDatabaseSetup) addAttendance(tb testing.TB, tenantID, employeeID string, date time.Time, kind string) {
	tb.Helper()
	_, err := t.DB.Exec(context.Background(), `
		INSERT INTO attendances (id, tenant_id, employee_id, date, attendance_type)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.NewString(), tenantID, employeeID, date, kind)
	require.NoError(tb, err)
}
