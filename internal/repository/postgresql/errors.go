package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/gaushala-erp/payroll-backend-go/internal/domain/payroll"
	"github.com/jackc/pgx/v5/pgconn"
)

// classify tags failures a retry can plausibly fix with payroll.ErrStoreUnavailable.
func classify(err error) error {
	if err == nil || !isTransient(err) {
		return err
	}
	return fmt.Errorf("%w: %w", payroll.ErrStoreUnavailable, err)
}

func isTransient(err error) bool {
	// Cancellation belongs to the caller, not the store.
	if errors.Is(err, context.Canceled) {
		return false
	}
	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return true
		}
		switch pgErr.Code[:2] {
		case "08", "53", "57": // connection exception, insufficient resources, operator intervention
			return true
		}
		return false
	}

	var connErr *pgconn.ConnectError
	return errors.As(err, &connErr)
}
