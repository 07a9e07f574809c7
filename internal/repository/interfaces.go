package repository

import (
	"context"

	"github.com/Akshaybondre123/AutoMobile-sub000/internal/domain"

	"github.com/google/uuid"
)

// RecordStore persists business records, one table per dataset type, each
// unique on (organization, location, business key).
type RecordStore interface {
	// ExistingKeys reports which of the given business keys are already
	// persisted for the tenant scope.
	ExistingKeys(ctx context.Context, dataset domain.DatasetType, scope domain.TenantScope, keys []string) (map[string]struct{}, error)

	// Keys lists every business key persisted for the tenant scope.
	Keys(ctx context.Context, dataset domain.DatasetType, scope domain.TenantScope) ([]string, error)

	// List returns every record persisted for the tenant scope.
	List(ctx context.Context, dataset domain.DatasetType, scope domain.TenantScope) ([]domain.BusinessRecord, error)

	// GetByKey fetches one record by business key within the tenant scope.
	// Returns domain.ErrNotFound on a miss.
	GetByKey(ctx context.Context, dataset domain.DatasetType, scope domain.TenantScope, key string) (domain.BusinessRecord, error)

	// InTransaction runs fn inside a single database transaction; any error
	// rolls the whole transaction back.
	InTransaction(ctx context.Context, fn func(tx RecordTx) error) error
}

// RecordTx exposes the write operations available inside a transaction.
type RecordTx interface {
	// Insert bulk-inserts records and returns the number inserted.
	Insert(ctx context.Context, dataset domain.DatasetType, records []domain.BusinessRecord) (int, error)

	// Update replaces the fields, upload reference, and updated-at of the
	// record matching (scope, business key). Returns the number of records
	// matched; zero is not an error.
	Update(ctx context.Context, dataset domain.DatasetType, record domain.BusinessRecord) (int64, error)
}

// UploadLedger is the append-only record of upload attempts.
type UploadLedger interface {
	CreatePending(ctx context.Context, upload domain.UploadRecord) (domain.UploadRecord, error)
	MarkCompleted(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, message string) error

	// FindDuplicateByFingerprint returns the most recent completed upload of
	// identical logical content for the scope and dataset, or
	// domain.ErrNotFound.
	FindDuplicateByFingerprint(ctx context.Context, fingerprint string, scope domain.TenantScope, dataset domain.DatasetType) (domain.UploadRecord, error)

	GetByID(ctx context.Context, id uuid.UUID) (domain.UploadRecord, error)

	// History lists uploads for the scope newest first, optionally filtered
	// by dataset type.
	History(ctx context.Context, scope domain.TenantScope, dataset *domain.DatasetType, limit, offset int) ([]domain.UploadRecord, error)

	// Delete removes a ledger entry; records referencing it cascade.
	Delete(ctx context.Context, id uuid.UUID) error
}
