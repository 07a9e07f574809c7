package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Akshaybondre123/AutoMobile-sub000/internal/db"
	"github.com/Akshaybondre123/AutoMobile-sub000/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// tableFor maps a dataset type to its record table. Each table shares the
// same shape and the unique index on (organization_id, location_id,
// business_key).
func tableFor(dataset domain.DatasetType) (string, error) {
	switch dataset {
	case domain.DatasetBilling:
		return "billing_records", nil
	case domain.DatasetWarranty:
		return "warranty_claims", nil
	case domain.DatasetBooking:
		return "vehicle_bookings", nil
	case domain.DatasetPartsOperation:
		return "parts_operations", nil
	case domain.DatasetRepairOrder:
		return "repair_orders", nil
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownDataset, dataset)
	}
}

// recordStore implements RecordStore backed by pgxpool.
type recordStore struct {
	pool *pgxpool.Pool
}

// NewRecordStore creates a pgx-backed record store.
func NewRecordStore(pool *pgxpool.Pool) RecordStore {
	return &recordStore{pool: pool}
}

func (s *recordStore) ExistingKeys(ctx context.Context, dataset domain.DatasetType, scope domain.TenantScope, keys []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{}, len(keys))
	if len(keys) == 0 {
		return existing, nil
	}

	table, err := tableFor(dataset)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(
		ctx,
		fmt.Sprintf(
			`SELECT business_key FROM %s
			 WHERE organization_id = $1 AND location_id = $2 AND business_key = ANY($3)`,
			table,
		),
		scope.OrganizationID,
		scope.LocationID,
		keys,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query existing keys: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan business key: %w", err)
		}
		existing[key] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate existing keys: %w", err)
	}

	return existing, nil
}

func (s *recordStore) Keys(ctx context.Context, dataset domain.DatasetType, scope domain.TenantScope) ([]string, error) {
	table, err := tableFor(dataset)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(
		ctx,
		fmt.Sprintf(
			`SELECT business_key FROM %s WHERE organization_id = $1 AND location_id = $2`,
			table,
		),
		scope.OrganizationID,
		scope.LocationID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query keys: %w", err)
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan business key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate keys: %w", err)
	}

	return keys, nil
}

func (s *recordStore) List(ctx context.Context, dataset domain.DatasetType, scope domain.TenantScope) ([]domain.BusinessRecord, error) {
	table, err := tableFor(dataset)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(
		ctx,
		fmt.Sprintf(
			`SELECT id, organization_id, location_id, business_key, fields, upload_id, created_at, updated_at
			 FROM %s
			 WHERE organization_id = $1 AND location_id = $2
			 ORDER BY created_at`,
			table,
		),
		scope.OrganizationID,
		scope.LocationID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	records := []domain.BusinessRecord{}
	for rows.Next() {
		record, err := scanRecord(rows, dataset)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", err)
	}

	return records, nil
}

func (s *recordStore) GetByKey(ctx context.Context, dataset domain.DatasetType, scope domain.TenantScope, key string) (domain.BusinessRecord, error) {
	table, err := tableFor(dataset)
	if err != nil {
		return domain.BusinessRecord{}, err
	}

	row := s.pool.QueryRow(
		ctx,
		fmt.Sprintf(
			`SELECT id, organization_id, location_id, business_key, fields, upload_id, created_at, updated_at
			 FROM %s
			 WHERE organization_id = $1 AND location_id = $2 AND business_key = $3`,
			table,
		),
		scope.OrganizationID,
		scope.LocationID,
		key,
	)

	record, err := scanRecord(row, dataset)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.BusinessRecord{}, fmt.Errorf("record %q: %w", key, domain.ErrNotFound)
		}
		return domain.BusinessRecord{}, err
	}
	return record, nil
}

func (s *recordStore) InTransaction(ctx context.Context, fn func(tx RecordTx) error) error {
	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&recordTx{tx: tx})
	})
}

// recordTx implements RecordTx over a live pgx transaction.
type recordTx struct {
	tx pgx.Tx
}

func (t *recordTx) Insert(ctx context.Context, dataset domain.DatasetType, records []domain.BusinessRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	table, err := tableFor(dataset)
	if err != nil {
		return 0, err
	}

	batch := &pgx.Batch{}
	for i := range records {
		fieldsJSON, err := records[i].FieldsJSON()
		if err != nil {
			return 0, fmt.Errorf("failed to marshal fields for key %q: %w", records[i].BusinessKey, err)
		}
		batch.Queue(
			fmt.Sprintf(
				`INSERT INTO %s (id, organization_id, location_id, business_key, fields, upload_id, created_at, updated_at)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				table,
			),
			records[i].ID,
			records[i].Scope.OrganizationID,
			records[i].Scope.LocationID,
			records[i].BusinessKey,
			fieldsJSON,
			records[i].UploadID,
			records[i].CreatedAt,
			records[i].UpdatedAt,
		)
	}

	results := t.tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := range records {
		if _, err := results.Exec(); err != nil {
			return 0, fmt.Errorf("failed to insert record %q: %w", records[i].BusinessKey, err)
		}
	}

	return len(records), nil
}

func (t *recordTx) Update(ctx context.Context, dataset domain.DatasetType, record domain.BusinessRecord) (int64, error) {
	table, err := tableFor(dataset)
	if err != nil {
		return 0, err
	}

	fieldsJSON, err := record.FieldsJSON()
	if err != nil {
		return 0, fmt.Errorf("failed to marshal fields for key %q: %w", record.BusinessKey, err)
	}

	tag, err := t.tx.Exec(
		ctx,
		fmt.Sprintf(
			`UPDATE %s
			 SET fields = $1, upload_id = $2, updated_at = $3
			 WHERE organization_id = $4 AND location_id = $5 AND business_key = $6`,
			table,
		),
		fieldsJSON,
		record.UploadID,
		time.Now(),
		record.Scope.OrganizationID,
		record.Scope.LocationID,
		record.BusinessKey,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to update record %q: %w", record.BusinessKey, err)
	}

	return tag.RowsAffected(), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner, dataset domain.DatasetType) (domain.BusinessRecord, error) {
	var (
		record     domain.BusinessRecord
		orgID      uuid.UUID
		locationID uuid.UUID
		fieldsJSON json.RawMessage
	)
	if err := row.Scan(
		&record.ID,
		&orgID,
		&locationID,
		&record.BusinessKey,
		&fieldsJSON,
		&record.UploadID,
		&record.CreatedAt,
		&record.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.BusinessRecord{}, err
		}
		return domain.BusinessRecord{}, fmt.Errorf("failed to scan record: %w", err)
	}

	record.Scope = domain.TenantScope{OrganizationID: orgID, LocationID: locationID}
	record.Dataset = dataset

	if len(fieldsJSON) > 0 {
		if err := json.Unmarshal(fieldsJSON, &record.Fields); err != nil {
			return domain.BusinessRecord{}, fmt.Errorf("failed to decode fields for record %s: %w", record.ID, err)
		}
	}

	return record, nil
}
