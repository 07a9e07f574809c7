package ingestion

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/Akshaybondre123/AutoMobile-sub000/internal/domain"

	"github.com/google/uuid"
)

// Handler exposes uploads and upload history over HTTP.
type Handler struct {
	service *Service
}

// NewHTTPHandler wraps the service with upload endpoints.
func NewHTTPHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Upload handles a multipart POST carrying the file plus dataset and tenant
// metadata.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, fmt.Sprintf("invalid form data: %v", err), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, fmt.Sprintf("file required: %v", err), http.StatusBadRequest)
		return
	}
	defer file.Close()

	dataset, err := domain.ParseDatasetType(strings.TrimSpace(r.FormValue("datasetType")))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	scope, err := scopeFromForm(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	uploaderID, err := uuid.Parse(strings.TrimSpace(r.FormValue("uploaderId")))
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid uploader id: %v", err), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to read file: %v", err), http.StatusBadRequest)
		return
	}

	result, err := h.service.Ingest(r.Context(), Request{
		Dataset:    dataset,
		Scope:      scope,
		UploaderID: uploaderID,
		FileName:   header.Filename,
		Data:       bytes.NewReader(data),
	})
	if err != nil {
		writeIngestError(w, result, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// History lists upload attempts for a tenant scope.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	scope, err := scopeFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var dataset *domain.DatasetType
	if raw := strings.TrimSpace(r.URL.Query().Get("datasetType")); raw != "" {
		dt, err := domain.ParseDatasetType(raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		dataset = &dt
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	uploads, err := h.service.History(r.Context(), scope, dataset, limit, offset)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, uploads)
}

// Detail fetches one ledger entry by id.
func (h *Handler) Detail(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(strings.TrimSpace(r.URL.Query().Get("id")))
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid upload id: %v", err), http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		upload, err := h.service.FileDetail(r.Context(), id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, upload)
	case http.MethodDelete:
		if err := h.service.DeleteUpload(r.Context(), id); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func scopeFromForm(r *http.Request) (domain.TenantScope, error) {
	orgID, err := uuid.Parse(strings.TrimSpace(r.FormValue("organizationId")))
	if err != nil {
		return domain.TenantScope{}, fmt.Errorf("invalid organization id: %w", err)
	}
	locationID, err := uuid.Parse(strings.TrimSpace(r.FormValue("locationId")))
	if err != nil {
		return domain.TenantScope{}, fmt.Errorf("invalid location id: %w", err)
	}
	return domain.TenantScope{OrganizationID: orgID, LocationID: locationID}, nil
}

func scopeFromQuery(r *http.Request) (domain.TenantScope, error) {
	orgID, err := uuid.Parse(strings.TrimSpace(r.URL.Query().Get("organizationId")))
	if err != nil {
		return domain.TenantScope{}, fmt.Errorf("invalid organization id: %w", err)
	}
	locationID, err := uuid.Parse(strings.TrimSpace(r.URL.Query().Get("locationId")))
	if err != nil {
		return domain.TenantScope{}, fmt.Errorf("invalid location id: %w", err)
	}
	return domain.TenantScope{OrganizationID: orgID, LocationID: locationID}, nil
}

func writeIngestError(w http.ResponseWriter, result Result, err error) {
	status := http.StatusInternalServerError
	var validationErr *domain.ValidationError
	switch {
	case errors.As(err, &validationErr),
		errors.Is(err, domain.ErrEmptyBatch),
		errors.Is(err, domain.ErrUnknownDataset),
		errors.Is(err, ErrUnsupportedFormat):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	}

	payload := map[string]any{
		"success": false,
		"error":   err.Error(),
	}
	if result.UploadID != uuid.Nil {
		payload["upload_id"] = result.UploadID
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
