package repository

import (
	"testing"

	"github.com/Akshaybondre123/AutoMobile-sub000/internal/domain"
)

func TestTableForCoversEveryDataset(t *testing.T) {
	want := map[domain.DatasetType]string{
		domain.DatasetBilling:        "billing_records",
		domain.DatasetWarranty:       "warranty_claims",
		domain.DatasetBooking:        "vehicle_bookings",
		domain.DatasetPartsOperation: "parts_operations",
		domain.DatasetRepairOrder:    "repair_orders",
	}
	for dataset, table := range want {
		got, err := tableFor(dataset)
		if err != nil {
			t.Fatalf("%s: %v", dataset, err)
		}
		if got != table {
			t.Fatalf("%s: expected table %q, got %q", dataset, table, got)
		}
	}
}

func TestTableForRejectsUnknownDataset(t *testing.T) {
	if _, err := tableFor(domain.DatasetType("inventory")); err == nil {
		t.Fatalf("unknown dataset must not map to a table")
	}
}
