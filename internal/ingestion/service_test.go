package ingestion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/Akshaybondre123/AutoMobile-sub000/internal/domain"
	"github.com/Akshaybondre123/AutoMobile-sub000/internal/repository"

	"github.com/google/uuid"
)

func testScope() domain.TenantScope {
	return domain.TenantScope{OrganizationID: uuid.New(), LocationID: uuid.New()}
}

func TestServiceIngestBrandNewBatch(t *testing.T) {
	store := newMemStore()
	ledger := newMemLedger()
	service := NewService(store, ledger)
	scope := testScope()

	data := `RO Number,VIN,Amount
RO-1001,MH12AB1234,2500
RO-1002,MH14CD5678,1800
`
	result, err := service.Ingest(context.Background(), Request{
		Dataset:    domain.DatasetBilling,
		Scope:      scope,
		UploaderID: uuid.New(),
		FileName:   "billing.csv",
		Data:       strings.NewReader(data),
	})
	if err != nil {
		t.Fatalf("ingest returned error: %v", err)
	}

	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.Case != domain.CaseBrandNew {
		t.Fatalf("expected BRAND_NEW case, got %s", result.Case)
	}
	if result.Inserted != 2 || result.Updated != 0 || result.TotalProcessed != 2 {
		t.Fatalf("unexpected counts: %+v", result)
	}
	if got := ledger.statuses[result.UploadID]; got != domain.UploadCompleted {
		t.Fatalf("expected upload completed, got %s", got)
	}
	if len(store.all(domain.DatasetBilling, scope)) != 2 {
		t.Fatalf("expected 2 persisted records")
	}
}

func TestServiceIngestIsIdempotent(t *testing.T) {
	store := newMemStore()
	ledger := newMemLedger()
	service := NewService(store, ledger)
	scope := testScope()

	data := `RO Number,Amount
RO-1001,2500
RO-1002,1800
`
	first, err := service.Ingest(context.Background(), Request{
		Dataset:    domain.DatasetBilling,
		Scope:      scope,
		UploaderID: uuid.New(),
		FileName:   "billing.csv",
		Data:       strings.NewReader(data),
	})
	if err != nil {
		t.Fatalf("first ingest: %v", err)
	}

	second, err := service.Ingest(context.Background(), Request{
		Dataset:    domain.DatasetBilling,
		Scope:      scope,
		UploaderID: uuid.New(),
		FileName:   "billing-reupload.csv",
		Data:       strings.NewReader(data),
	})
	if err != nil {
		t.Fatalf("second ingest: %v", err)
	}

	if first.Inserted != 2 {
		t.Fatalf("first upload should insert 2, got %d", first.Inserted)
	}
	if second.Inserted != 0 || second.Updated != 2 {
		t.Fatalf("re-upload should only update: %+v", second)
	}
	// Same logical content: the fingerprint lookup should upgrade the case
	// even though the file name differs.
	if second.Case != domain.CaseDuplicateFile {
		t.Fatalf("expected DUPLICATE_FILE case, got %s", second.Case)
	}
	if len(store.all(domain.DatasetBilling, scope)) != 2 {
		t.Fatalf("record set must be unchanged after re-upload")
	}
	// Records must point at the latest upload.
	for _, record := range store.all(domain.DatasetBilling, scope) {
		if record.UploadID != second.UploadID {
			t.Fatalf("record %s not re-pointed at latest upload", record.BusinessKey)
		}
	}
}

func TestServiceIngestMixedBatch(t *testing.T) {
	store := newMemStore()
	ledger := newMemLedger()
	service := NewService(store, ledger)
	scope := testScope()

	seed := `RO Number,Amount
RO-1001,100
`
	if _, err := service.Ingest(context.Background(), Request{
		Dataset:  domain.DatasetBilling,
		Scope:    scope,
		FileName: "seed.csv",
		Data:     strings.NewReader(seed),
	}); err != nil {
		t.Fatalf("seed ingest: %v", err)
	}

	mixed := `RO Number,Amount
RO-1001,150
RO-2001,900
`
	result, err := service.Ingest(context.Background(), Request{
		Dataset:  domain.DatasetBilling,
		Scope:    scope,
		FileName: "mixed.csv",
		Data:     strings.NewReader(mixed),
	})
	if err != nil {
		t.Fatalf("mixed ingest: %v", err)
	}

	if result.Case != domain.CaseMixed {
		t.Fatalf("expected MIXED case, got %s", result.Case)
	}
	if result.Inserted != 1 || result.Updated != 1 {
		t.Fatalf("unexpected counts: %+v", result)
	}
	if len(store.all(domain.DatasetBilling, scope)) != 2 {
		t.Fatalf("expected 2 records after mixed batch")
	}
}

func TestServiceIngestMissingBusinessKeyRejectedBeforeLedger(t *testing.T) {
	store := newMemStore()
	ledger := newMemLedger()
	service := NewService(store, ledger)

	data := `RO Number,Amount
RO-1001,100
,200
`
	_, err := service.Ingest(context.Background(), Request{
		Dataset:  domain.DatasetBilling,
		Scope:    testScope(),
		FileName: "billing.csv",
		Data:     strings.NewReader(data),
	})

	var validationErr *domain.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if validationErr.RowNumber != 2 {
		t.Fatalf("expected row 2, got %d", validationErr.RowNumber)
	}
	if len(ledger.created) != 0 {
		t.Fatalf("validation failure must not create a ledger entry")
	}
}

func TestServiceIngestExecutionFailureMarksLedgerFailed(t *testing.T) {
	store := newMemStore()
	store.failKey = "RO-1002"
	ledger := newMemLedger()
	service := NewService(store, ledger)
	scope := testScope()

	data := `RO Number,Amount
RO-1001,100
RO-1002,200
`
	result, err := service.Ingest(context.Background(), Request{
		Dataset:  domain.DatasetBilling,
		Scope:    scope,
		FileName: "billing.csv",
		Data:     strings.NewReader(data),
	})
	if err == nil {
		t.Fatalf("expected execution error")
	}

	if result.UploadID == uuid.Nil {
		t.Fatalf("ledger entry id should be surfaced on failure")
	}
	if ledger.statuses[result.UploadID] != domain.UploadFailed {
		t.Fatalf("expected upload marked failed")
	}
	if !strings.Contains(ledger.errors[result.UploadID], "RO-1002") {
		t.Fatalf("failure message should carry the cause verbatim, got %q", ledger.errors[result.UploadID])
	}
	// Full rollback: nothing from the batch may survive.
	if got := len(store.all(domain.DatasetBilling, scope)); got != 0 {
		t.Fatalf("expected zero net changes after rollback, found %d records", got)
	}
}

func TestServiceIngestTenantIsolation(t *testing.T) {
	store := newMemStore()
	ledger := newMemLedger()
	service := NewService(store, ledger)
	scopeA := testScope()
	scopeB := testScope()

	data := `RO Number,Amount
RO-1001,100
`
	if _, err := service.Ingest(context.Background(), Request{
		Dataset:  domain.DatasetBilling,
		Scope:    scopeA,
		FileName: "a.csv",
		Data:     strings.NewReader(data),
	}); err != nil {
		t.Fatalf("tenant A ingest: %v", err)
	}

	// Same business key for tenant B must classify as brand new and insert,
	// never touch tenant A's record.
	result, err := service.Ingest(context.Background(), Request{
		Dataset:  domain.DatasetBilling,
		Scope:    scopeB,
		FileName: "b.csv",
		Data:     strings.NewReader(data),
	})
	if err != nil {
		t.Fatalf("tenant B ingest: %v", err)
	}
	if result.Case != domain.CaseBrandNew || result.Inserted != 1 {
		t.Fatalf("expected isolated brand-new insert, got %+v", result)
	}
	if len(store.all(domain.DatasetBilling, scopeA)) != 1 || len(store.all(domain.DatasetBilling, scopeB)) != 1 {
		t.Fatalf("tenant record sets must stay independent")
	}
}

func TestServiceHistoryAndDetail(t *testing.T) {
	store := newMemStore()
	ledger := newMemLedger()
	service := NewService(store, ledger)
	scope := testScope()

	data := `RO Number,Amount
RO-1001,100
`
	result, err := service.Ingest(context.Background(), Request{
		Dataset:  domain.DatasetBilling,
		Scope:    scope,
		FileName: "billing.csv",
		Data:     strings.NewReader(data),
	})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}

	history, err := service.History(context.Background(), scope, nil, 10, 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 || history[0].ID != result.UploadID {
		t.Fatalf("unexpected history: %+v", history)
	}

	if _, err := service.FileDetail(context.Background(), uuid.New()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown upload, got %v", err)
	}
}

func TestLedgerStatusTransitionsExactlyOnce(t *testing.T) {
	ledger := newMemLedger()

	upload, err := ledger.CreatePending(context.Background(), domain.NewUploadRecord(domain.DatasetBilling, testScope(), uuid.New(), "billing.csv", 1, 10, "fp"))
	if err != nil {
		t.Fatalf("create pending: %v", err)
	}

	if err := ledger.MarkCompleted(context.Background(), upload.ID); err != nil {
		t.Fatalf("first transition: %v", err)
	}
	if err := ledger.MarkFailed(context.Background(), upload.ID, "late failure"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second transition must report ErrNotFound, got %v", err)
	}
	if err := ledger.MarkCompleted(context.Background(), upload.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("repeated completion must report ErrNotFound, got %v", err)
	}
	if ledger.statuses[upload.ID] != domain.UploadCompleted {
		t.Fatalf("status must keep the first transition, got %s", ledger.statuses[upload.ID])
	}

	if err := ledger.MarkCompleted(context.Background(), uuid.New()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown upload must report ErrNotFound, got %v", err)
	}
}

// ---- in-memory stubs ----

type memStore struct {
	records map[string]map[string]domain.BusinessRecord
	failKey string
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string]map[string]domain.BusinessRecord)}
}

func bucketKey(dataset domain.DatasetType, scope domain.TenantScope) string {
	return fmt.Sprintf("%s|%s", dataset, scope)
}

func (m *memStore) bucket(dataset domain.DatasetType, scope domain.TenantScope) map[string]domain.BusinessRecord {
	key := bucketKey(dataset, scope)
	if m.records[key] == nil {
		m.records[key] = make(map[string]domain.BusinessRecord)
	}
	return m.records[key]
}

func (m *memStore) all(dataset domain.DatasetType, scope domain.TenantScope) []domain.BusinessRecord {
	bucket := m.bucket(dataset, scope)
	records := make([]domain.BusinessRecord, 0, len(bucket))
	for _, record := range bucket {
		records = append(records, record)
	}
	return records
}

func (m *memStore) ExistingKeys(ctx context.Context, dataset domain.DatasetType, scope domain.TenantScope, keys []string) (map[string]struct{}, error) {
	bucket := m.bucket(dataset, scope)
	existing := make(map[string]struct{})
	for _, key := range keys {
		if _, ok := bucket[key]; ok {
			existing[key] = struct{}{}
		}
	}
	return existing, nil
}

func (m *memStore) Keys(ctx context.Context, dataset domain.DatasetType, scope domain.TenantScope) ([]string, error) {
	bucket := m.bucket(dataset, scope)
	keys := make([]string, 0, len(bucket))
	for key := range bucket {
		keys = append(keys, key)
	}
	return keys, nil
}

func (m *memStore) List(ctx context.Context, dataset domain.DatasetType, scope domain.TenantScope) ([]domain.BusinessRecord, error) {
	return m.all(dataset, scope), nil
}

func (m *memStore) GetByKey(ctx context.Context, dataset domain.DatasetType, scope domain.TenantScope, key string) (domain.BusinessRecord, error) {
	if record, ok := m.bucket(dataset, scope)[key]; ok {
		return record, nil
	}
	return domain.BusinessRecord{}, domain.ErrNotFound
}

func (m *memStore) InTransaction(ctx context.Context, fn func(tx repository.RecordTx) error) error {
	staged := &memTx{store: m}
	if err := fn(staged); err != nil {
		return err
	}
	staged.commit()
	return nil
}

// memTx buffers writes and applies them only on commit, mirroring the
// all-or-nothing transaction the pgx implementation provides.
type memTx struct {
	store  *memStore
	writes []domain.BusinessRecord
}

func (t *memTx) Insert(ctx context.Context, dataset domain.DatasetType, records []domain.BusinessRecord) (int, error) {
	for _, record := range records {
		if record.BusinessKey == t.store.failKey {
			return 0, fmt.Errorf("forced insert failure for %s", record.BusinessKey)
		}
		t.writes = append(t.writes, record)
	}
	return len(records), nil
}

func (t *memTx) Update(ctx context.Context, dataset domain.DatasetType, record domain.BusinessRecord) (int64, error) {
	if record.BusinessKey == t.store.failKey {
		return 0, fmt.Errorf("forced update failure for %s", record.BusinessKey)
	}
	bucket := t.store.bucket(dataset, record.Scope)
	existing, ok := bucket[record.BusinessKey]
	if !ok {
		return 0, nil
	}
	record.ID = existing.ID
	record.CreatedAt = existing.CreatedAt
	t.writes = append(t.writes, record)
	return 1, nil
}

func (t *memTx) commit() {
	for _, record := range t.writes {
		t.store.bucket(record.Dataset, record.Scope)[record.BusinessKey] = record
	}
}

type memLedger struct {
	created  map[uuid.UUID]domain.UploadRecord
	statuses map[uuid.UUID]domain.UploadStatus
	errors   map[uuid.UUID]string
	order    []uuid.UUID
}

func newMemLedger() *memLedger {
	return &memLedger{
		created:  make(map[uuid.UUID]domain.UploadRecord),
		statuses: make(map[uuid.UUID]domain.UploadStatus),
		errors:   make(map[uuid.UUID]string),
	}
}

func (l *memLedger) CreatePending(ctx context.Context, upload domain.UploadRecord) (domain.UploadRecord, error) {
	l.created[upload.ID] = upload
	l.statuses[upload.ID] = domain.UploadProcessing
	l.order = append(l.order, upload.ID)
	return upload, nil
}

func (l *memLedger) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	return l.transition(id, domain.UploadCompleted, "")
}

func (l *memLedger) MarkFailed(ctx context.Context, id uuid.UUID, message string) error {
	return l.transition(id, domain.UploadFailed, message)
}

// transition mirrors the single-shot status guard of the SQL implementation:
// only an upload still in processing may move.
func (l *memLedger) transition(id uuid.UUID, status domain.UploadStatus, message string) error {
	if l.statuses[id] != domain.UploadProcessing {
		return fmt.Errorf("upload %s not in processing state: %w", id, domain.ErrNotFound)
	}
	l.statuses[id] = status
	if message != "" {
		l.errors[id] = message
	}
	return nil
}

func (l *memLedger) FindDuplicateByFingerprint(ctx context.Context, fingerprint string, scope domain.TenantScope, dataset domain.DatasetType) (domain.UploadRecord, error) {
	for _, id := range l.order {
		upload := l.created[id]
		if upload.Fingerprint == fingerprint &&
			upload.Scope == scope &&
			upload.Dataset == dataset &&
			l.statuses[id] == domain.UploadCompleted {
			return upload, nil
		}
	}
	return domain.UploadRecord{}, domain.ErrNotFound
}

func (l *memLedger) GetByID(ctx context.Context, id uuid.UUID) (domain.UploadRecord, error) {
	if upload, ok := l.created[id]; ok {
		upload.Status = l.statuses[id]
		return upload, nil
	}
	return domain.UploadRecord{}, domain.ErrNotFound
}

func (l *memLedger) History(ctx context.Context, scope domain.TenantScope, dataset *domain.DatasetType, limit, offset int) ([]domain.UploadRecord, error) {
	uploads := []domain.UploadRecord{}
	for i := len(l.order) - 1; i >= 0; i-- {
		upload := l.created[l.order[i]]
		if upload.Scope != scope {
			continue
		}
		if dataset != nil && upload.Dataset != *dataset {
			continue
		}
		uploads = append(uploads, upload)
	}
	return uploads, nil
}

func (l *memLedger) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := l.created[id]; !ok {
		return domain.ErrNotFound
	}
	delete(l.created, id)
	delete(l.statuses, id)
	return nil
}

var _ repository.RecordStore = (*memStore)(nil)
var _ repository.UploadLedger = (*memLedger)(nil)
