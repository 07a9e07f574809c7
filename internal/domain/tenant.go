package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// TenantScope is the (organization, location) pair that partitions all
// persisted data. Every storage read and write is filtered by it.
type TenantScope struct {
	OrganizationID uuid.UUID `json:"organization_id"`
	LocationID     uuid.UUID `json:"location_id"`
}

// Validate ensures both halves of the scope are present.
func (s TenantScope) Validate() error {
	if s.OrganizationID == uuid.Nil {
		return fmt.Errorf("organization id is required")
	}
	if s.LocationID == uuid.Nil {
		return fmt.Errorf("location id is required")
	}
	return nil
}

func (s TenantScope) String() string {
	return fmt.Sprintf("%s/%s", s.OrganizationID, s.LocationID)
}
