package attendance

import "errors"

var (
	ErrInvalidDateRange = errors.New("attendance date range start must not be after end")
)
