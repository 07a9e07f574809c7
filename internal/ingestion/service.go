package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/Akshaybondre123/AutoMobile-sub000/internal/domain"
	"github.com/Akshaybondre123/AutoMobile-sub000/internal/repository"

	"github.com/google/uuid"
)

// Service orchestrates one upload end to end: normalize, validate,
// fingerprint, ledger entry, analyze, execute, ledger transition.
type Service struct {
	normalizer *Normalizer
	analyzer   *Analyzer
	executor   *Executor
	ledger     repository.UploadLedger
}

// NewService wires the ingestion pipeline.
func NewService(records repository.RecordStore, ledger repository.UploadLedger) *Service {
	return &Service{
		normalizer: NewNormalizer(),
		analyzer:   NewAnalyzer(records),
		executor:   NewExecutor(records),
		ledger:     ledger,
	}
}

// Request describes one upload.
type Request struct {
	Dataset    domain.DatasetType
	Scope      domain.TenantScope
	UploaderID uuid.UUID
	FileName   string
	Data       io.Reader
}

// Result is the upload outcome returned to the caller.
type Result struct {
	Success        bool                 `json:"success"`
	UploadID       uuid.UUID            `json:"upload_id"`
	Case           domain.IngestionCase `json:"case"`
	Inserted       int                  `json:"inserted"`
	Updated        int                  `json:"updated"`
	TotalProcessed int                  `json:"total_processed"`
}

// Ingest runs the full pipeline. Validation failures reject the upload before
// any storage interaction, so no ledger row exists for them. Once a ledger
// row exists, the upload transitions exactly once to completed or failed; an
// execution error is captured verbatim on the ledger entry.
func (s *Service) Ingest(ctx context.Context, req Request) (Result, error) {
	if !req.Dataset.Valid() {
		return Result{}, fmt.Errorf("%w: %q", domain.ErrUnknownDataset, req.Dataset)
	}
	if err := req.Scope.Validate(); err != nil {
		return Result{}, err
	}
	if req.Data == nil {
		return Result{}, errors.New("data reader is required")
	}

	payload, err := io.ReadAll(req.Data)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read upload: %w", err)
	}

	rows, err := s.normalizer.Normalize(req.Dataset, req.FileName, payload)
	if err != nil {
		return Result{}, err
	}

	if err := validateRows(req.Dataset, rows); err != nil {
		return Result{}, err
	}

	// Fingerprint before any database interaction.
	fingerprint := domain.Fingerprint(req.Dataset, rows)

	// Advisory duplicate lookup: a hit selects the full-overwrite strategy
	// but never blocks the upload. Re-uploading identical content is a
	// supported, idempotent operation.
	duplicate := false
	if _, err := s.ledger.FindDuplicateByFingerprint(ctx, fingerprint, req.Scope, req.Dataset); err == nil {
		duplicate = true
	} else if !errors.Is(err, domain.ErrNotFound) {
		return Result{}, fmt.Errorf("duplicate lookup: %w", err)
	}

	upload := domain.NewUploadRecord(req.Dataset, req.Scope, req.UploaderID, req.FileName, len(rows), int64(len(payload)), fingerprint)
	upload, err = s.ledger.CreatePending(ctx, upload)
	if err != nil {
		return Result{}, fmt.Errorf("failed to open ledger entry: %w", err)
	}

	analysis, err := s.analyzer.Analyze(ctx, req.Dataset, req.Scope, rows)
	if err != nil {
		s.fail(ctx, upload.ID, err)
		return Result{UploadID: upload.ID}, err
	}
	if duplicate {
		analysis.Case = domain.CaseDuplicateFile
	}

	exec, err := s.executor.Execute(ctx, req.Dataset, req.Scope, rows, upload, analysis)
	if err != nil {
		s.fail(ctx, upload.ID, err)
		return Result{UploadID: upload.ID}, err
	}

	if err := s.ledger.MarkCompleted(ctx, upload.ID); err != nil {
		return Result{UploadID: upload.ID}, fmt.Errorf("failed to close ledger entry: %w", err)
	}

	return Result{
		Success:        true,
		UploadID:       upload.ID,
		Case:           analysis.Case,
		Inserted:       exec.Inserted,
		Updated:        exec.Updated,
		TotalProcessed: len(rows),
	}, nil
}

// History lists upload attempts for a tenant scope, newest first.
func (s *Service) History(ctx context.Context, scope domain.TenantScope, dataset *domain.DatasetType, limit, offset int) ([]domain.UploadRecord, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	return s.ledger.History(ctx, scope, dataset, limit, offset)
}

// FileDetail fetches one ledger entry.
func (s *Service) FileDetail(ctx context.Context, id uuid.UUID) (domain.UploadRecord, error) {
	return s.ledger.GetByID(ctx, id)
}

// DeleteUpload removes a ledger entry; the records it originated cascade.
func (s *Service) DeleteUpload(ctx context.Context, id uuid.UUID) error {
	return s.ledger.Delete(ctx, id)
}

func (s *Service) fail(ctx context.Context, id uuid.UUID, cause error) {
	if err := s.ledger.MarkFailed(ctx, id, cause.Error()); err != nil {
		log.Printf("[INGEST] failed to mark upload %s failed: %v", id, err)
	}
}

// validateRows rejects any row missing its business key before analysis runs.
func validateRows(dataset domain.DatasetType, rows []domain.Row) error {
	keyField := dataset.BusinessKeyField()
	for i, row := range rows {
		if row.Key == "" {
			return &domain.ValidationError{
				RowNumber: i + 1,
				Field:     keyField,
				Message:   "missing business key",
			}
		}
	}
	return nil
}
