package ingestion

import (
	"context"
	"fmt"

	"github.com/Akshaybondre123/AutoMobile-sub000/internal/domain"
	"github.com/Akshaybondre123/AutoMobile-sub000/internal/repository"
)

// ExecResult reports what an executed batch did to storage.
type ExecResult struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
}

// Executor applies an analyzed batch under a single transaction: bulk insert
// for new keys, field-merge update for existing ones. Every persisted row is
// stamped with the originating upload and a fresh updated-at.
type Executor struct {
	records repository.RecordStore
}

// NewExecutor creates an upsert executor.
func NewExecutor(records repository.RecordStore) *Executor {
	return &Executor{records: records}
}

// Execute applies the batch. All writes happen inside one transaction; any
// failure rolls the whole batch back and the error propagates so the caller
// can mark the upload failed. An update that matches zero records (for
// example a concurrent delete) counts as zero, not an error.
func (e *Executor) Execute(ctx context.Context, dataset domain.DatasetType, scope domain.TenantScope, rows []domain.Row, upload domain.UploadRecord, analysis domain.BatchAnalysis) (ExecResult, error) {
	if len(rows) == 0 {
		return ExecResult{}, domain.ErrEmptyBatch
	}

	keyField := dataset.BusinessKeyField()

	// Collapse duplicate keys within the batch, last row wins. keyOrder
	// preserves first-occurrence order so writes stay deterministic.
	byKey := make(map[string]domain.Row, len(rows))
	keyOrder := make([]string, 0, len(rows))
	for _, row := range rows {
		if _, ok := byKey[row.Key]; !ok {
			keyOrder = append(keyOrder, row.Key)
		}
		byKey[row.Key] = row
	}

	existing := make(map[string]struct{}, len(analysis.ExistingKeys))
	for _, key := range analysis.ExistingKeys {
		existing[key] = struct{}{}
	}

	var result ExecResult
	err := e.records.InTransaction(ctx, func(tx repository.RecordTx) error {
		var inserts []domain.BusinessRecord
		for _, key := range keyOrder {
			row := byKey[key]
			fields := row.Fields(keyField)

			if _, ok := existing[key]; ok {
				record := domain.BusinessRecord{
					Scope:       scope,
					Dataset:     dataset,
					BusinessKey: key,
					Fields:      fields,
					UploadID:    upload.ID,
				}
				matched, err := tx.Update(ctx, dataset, record)
				if err != nil {
					return fmt.Errorf("update %q: %w", key, err)
				}
				result.Updated += int(matched)
				continue
			}

			inserts = append(inserts, domain.NewBusinessRecord(scope, dataset, key, fields, upload.ID))
		}

		inserted, err := tx.Insert(ctx, dataset, inserts)
		if err != nil {
			return fmt.Errorf("insert batch: %w", err)
		}
		result.Inserted = inserted
		return nil
	})
	if err != nil {
		return ExecResult{}, err
	}

	return result, nil
}
