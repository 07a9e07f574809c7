package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// BusinessRecord is the durable representation of one ingested row. Within a
// tenant scope and dataset, the business key is unique; an upsert that hits
// an existing key replaces the fields and re-points UploadID at the current
// upload, leaving CreatedAt untouched.
type BusinessRecord struct {
	ID          uuid.UUID      `json:"id"`
	Scope       TenantScope    `json:"scope"`
	Dataset     DatasetType    `json:"dataset"`
	BusinessKey string         `json:"business_key"`
	Fields      map[string]any `json:"fields"`
	UploadID    uuid.UUID      `json:"upload_id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// NewBusinessRecord stamps a fresh record for insertion.
func NewBusinessRecord(scope TenantScope, dataset DatasetType, key string, fields map[string]any, uploadID uuid.UUID) BusinessRecord {
	now := time.Now()
	return BusinessRecord{
		ID:          uuid.New(),
		Scope:       scope,
		Dataset:     dataset,
		BusinessKey: key,
		Fields:      copyFields(fields),
		UploadID:    uploadID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// FieldsJSON marshals the field map for JSONB storage.
func (r *BusinessRecord) FieldsJSON() (json.RawMessage, error) {
	if r.Fields == nil {
		r.Fields = make(map[string]any)
	}
	return json.Marshal(r.Fields)
}

// FieldString returns the named field coerced to a string, or "".
func (r BusinessRecord) FieldString(name string) string {
	if r.Fields == nil {
		return ""
	}
	return toString(r.Fields[name])
}

func copyFields(fields map[string]any) map[string]any {
	copied := make(map[string]any, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	return copied
}
