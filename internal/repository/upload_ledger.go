package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Akshaybondre123/AutoMobile-sub000/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uploadLedger implements UploadLedger backed by pgxpool.
type uploadLedger struct {
	pool *pgxpool.Pool
}

// NewUploadLedger creates a pgx-backed upload ledger.
func NewUploadLedger(pool *pgxpool.Pool) UploadLedger {
	return &uploadLedger{pool: pool}
}

func (l *uploadLedger) CreatePending(ctx context.Context, upload domain.UploadRecord) (domain.UploadRecord, error) {
	_, err := l.pool.Exec(
		ctx,
		`INSERT INTO uploads (id, dataset_type, organization_id, location_id, uploader_id, file_name, row_count, byte_size, fingerprint, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		upload.ID,
		string(upload.Dataset),
		upload.Scope.OrganizationID,
		upload.Scope.LocationID,
		upload.UploaderID,
		upload.FileName,
		upload.RowCount,
		upload.ByteSize,
		upload.Fingerprint,
		string(domain.UploadProcessing),
		upload.CreatedAt,
	)
	if err != nil {
		return domain.UploadRecord{}, fmt.Errorf("failed to create upload record: %w", err)
	}

	upload.Status = domain.UploadProcessing
	return upload, nil
}

func (l *uploadLedger) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	return l.transition(ctx, id, domain.UploadCompleted, "")
}

func (l *uploadLedger) MarkFailed(ctx context.Context, id uuid.UUID, message string) error {
	return l.transition(ctx, id, domain.UploadFailed, message)
}

// transition moves an upload out of processing exactly once; a second call
// for the same id matches zero rows and reports ErrNotFound.
func (l *uploadLedger) transition(ctx context.Context, id uuid.UUID, status domain.UploadStatus, message string) error {
	var errMsg any
	if message != "" {
		errMsg = message
	}

	tag, err := l.pool.Exec(
		ctx,
		`UPDATE uploads SET status = $1, error_message = $2
		 WHERE id = $3 AND status = $4`,
		string(status),
		errMsg,
		id,
		string(domain.UploadProcessing),
	)
	if err != nil {
		return fmt.Errorf("failed to mark upload %s: %w", status, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("upload %s not in processing state: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (l *uploadLedger) FindDuplicateByFingerprint(ctx context.Context, fingerprint string, scope domain.TenantScope, dataset domain.DatasetType) (domain.UploadRecord, error) {
	row := l.pool.QueryRow(
		ctx,
		`SELECT id, dataset_type, organization_id, location_id, uploader_id, file_name, row_count, byte_size, fingerprint, status, error_message, created_at
		 FROM uploads
		 WHERE fingerprint = $1
		   AND organization_id = $2
		   AND location_id = $3
		   AND dataset_type = $4
		   AND status = $5
		 ORDER BY created_at DESC
		 LIMIT 1`,
		fingerprint,
		scope.OrganizationID,
		scope.LocationID,
		string(dataset),
		string(domain.UploadCompleted),
	)

	return scanUpload(row)
}

func (l *uploadLedger) GetByID(ctx context.Context, id uuid.UUID) (domain.UploadRecord, error) {
	row := l.pool.QueryRow(
		ctx,
		`SELECT id, dataset_type, organization_id, location_id, uploader_id, file_name, row_count, byte_size, fingerprint, status, error_message, created_at
		 FROM uploads WHERE id = $1`,
		id,
	)

	return scanUpload(row)
}

func (l *uploadLedger) History(ctx context.Context, scope domain.TenantScope, dataset *domain.DatasetType, limit, offset int) ([]domain.UploadRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	query := `SELECT id, dataset_type, organization_id, location_id, uploader_id, file_name, row_count, byte_size, fingerprint, status, error_message, created_at
	 FROM uploads
	 WHERE organization_id = $1 AND location_id = $2`
	args := []any{scope.OrganizationID, scope.LocationID}

	if dataset != nil {
		query += ` AND dataset_type = $3 ORDER BY created_at DESC LIMIT $4 OFFSET $5`
		args = append(args, string(*dataset), limit, offset)
	} else {
		query += ` ORDER BY created_at DESC LIMIT $3 OFFSET $4`
		args = append(args, limit, offset)
	}

	rows, err := l.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list uploads: %w", err)
	}
	defer rows.Close()

	uploads := []domain.UploadRecord{}
	for rows.Next() {
		upload, err := scanUpload(rows)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, upload)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate uploads: %w", err)
	}

	return uploads, nil
}

func (l *uploadLedger) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := l.pool.Exec(ctx, `DELETE FROM uploads WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete upload: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("upload %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func scanUpload(row rowScanner) (domain.UploadRecord, error) {
	var (
		upload     domain.UploadRecord
		dataset    string
		orgID      uuid.UUID
		locationID uuid.UUID
		status     string
		errMsg     pgtype.Text
	)
	if err := row.Scan(
		&upload.ID,
		&dataset,
		&orgID,
		&locationID,
		&upload.UploaderID,
		&upload.FileName,
		&upload.RowCount,
		&upload.ByteSize,
		&upload.Fingerprint,
		&status,
		&errMsg,
		&upload.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.UploadRecord{}, fmt.Errorf("upload: %w", domain.ErrNotFound)
		}
		return domain.UploadRecord{}, fmt.Errorf("failed to scan upload: %w", err)
	}

	upload.Dataset = domain.DatasetType(dataset)
	upload.Scope = domain.TenantScope{OrganizationID: orgID, LocationID: locationID}
	upload.Status = domain.UploadStatus(status)
	if errMsg.Valid {
		upload.ErrorMessage = errMsg.String
	}

	return upload, nil
}
