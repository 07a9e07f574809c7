package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyBatch is returned when an upload resolves to zero data rows.
	ErrEmptyBatch = errors.New("batch contains no rows")

	// ErrUnknownDataset is returned for a dataset type outside the known feeds.
	ErrUnknownDataset = errors.New("unknown dataset type")

	// ErrNotFound is returned by lookups that miss; it is non-fatal and maps
	// to a 404 at the HTTP boundary.
	ErrNotFound = errors.New("not found")
)

// ValidationError rejects a batch before any storage interaction takes place.
// No upload ledger row exists for a batch that fails validation.
type ValidationError struct {
	RowNumber int
	Field     string
	Message   string
}

func (e *ValidationError) Error() string {
	if e.RowNumber > 0 {
		return fmt.Sprintf("row %d: field %s: %s", e.RowNumber, e.Field, e.Message)
	}
	return fmt.Sprintf("field %s: %s", e.Field, e.Message)
}
