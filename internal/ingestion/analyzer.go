package ingestion

import (
	"context"
	"fmt"

	"github.com/Akshaybondre123/AutoMobile-sub000/internal/domain"
	"github.com/Akshaybondre123/AutoMobile-sub000/internal/repository"
)

// Analyzer classifies a batch against the records already persisted for its
// tenant scope. It reads and classifies only; no side effects.
type Analyzer struct {
	records repository.RecordStore
}

// NewAnalyzer creates a batch analyzer.
func NewAnalyzer(records repository.RecordStore) *Analyzer {
	return &Analyzer{records: records}
}

// Analyze extracts the business key from every row, queries which keys exist
// for the scope, and partitions the batch. Duplicate keys within the batch
// are not collapsed here: later rows with the same key overwrite earlier
// ones' effect at execution time (last-row-wins).
func (a *Analyzer) Analyze(ctx context.Context, dataset domain.DatasetType, scope domain.TenantScope, rows []domain.Row) (domain.BatchAnalysis, error) {
	if len(rows) == 0 {
		return domain.BatchAnalysis{}, domain.ErrEmptyBatch
	}
	if !dataset.Valid() {
		return domain.BatchAnalysis{}, fmt.Errorf("%w: %q", domain.ErrUnknownDataset, dataset)
	}

	keys := make([]string, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		if _, dup := seen[row.Key]; dup {
			continue
		}
		seen[row.Key] = struct{}{}
		keys = append(keys, row.Key)
	}

	existing, err := a.records.ExistingKeys(ctx, dataset, scope, keys)
	if err != nil {
		return domain.BatchAnalysis{}, fmt.Errorf("failed to look up existing keys: %w", err)
	}

	analysis := domain.BatchAnalysis{
		ExistingKeys: []string{},
		NewKeys:      []string{},
	}
	for _, key := range keys {
		if _, ok := existing[key]; ok {
			analysis.ExistingKeys = append(analysis.ExistingKeys, key)
		} else {
			analysis.NewKeys = append(analysis.NewKeys, key)
		}
	}

	switch {
	case len(analysis.ExistingKeys) == 0:
		analysis.Case = domain.CaseBrandNew
	case len(analysis.NewKeys) == 0:
		analysis.Case = domain.CaseReupload
	default:
		analysis.Case = domain.CaseMixed
	}

	return analysis, nil
}
