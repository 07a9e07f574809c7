package reconciliation

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/Akshaybondre123/AutoMobile-sub000/internal/auth"
	"github.com/Akshaybondre123/AutoMobile-sub000/internal/domain"

	"github.com/google/uuid"
)

// Handler exposes reconciliation as a GET endpoint.
type Handler struct {
	engine *Engine
}

// NewHTTPHandler wraps the engine.
func NewHTTPHandler(engine *Engine) *Handler {
	return &Handler{engine: engine}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	orgID, err := uuid.Parse(strings.TrimSpace(r.URL.Query().Get("organizationId")))
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid organization id: %v", err), http.StatusBadRequest)
		return
	}
	locationID, err := uuid.Parse(strings.TrimSpace(r.URL.Query().Get("locationId")))
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid location id: %v", err), http.StatusBadRequest)
		return
	}
	scope := domain.TenantScope{OrganizationID: orgID, LocationID: locationID}

	if err := auth.EnforceTenantScope(r.Context(), scope); err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}

	opts := Options{AdvisorID: strings.TrimSpace(r.URL.Query().Get("advisorId"))}
	if restricted, ok := auth.AdvisorFromContext(r.Context()); ok {
		opts.AdvisorID = restricted
	}

	report, err := h.engine.Reconcile(r.Context(), scope, opts)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(report)
}
