package ingestion

import (
	"errors"
	"testing"

	"github.com/Akshaybondre123/AutoMobile-sub000/internal/domain"
)

func TestNormalizeMapsHeaderAliases(t *testing.T) {
	n := NewNormalizer()

	data := []byte("Reg No,Chassis No,Advisor Name,Job Type,Booking Date\nMH12AB1234,VIN0001,Priya,Paid Service,12-05-2026\n")
	rows, err := n.Normalize(domain.DatasetBooking, "bookings.csv", data)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}

	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	row := rows[0]
	if row.Key != "MH12AB1234" {
		t.Fatalf("reg no should map to the booking business key, got %q", row.Key)
	}
	if row.VIN != "VIN0001" {
		t.Fatalf("chassis no should map to vin, got %q", row.VIN)
	}
	if row.ServiceAdvisor != "Priya" || row.WorkType != "Paid Service" {
		t.Fatalf("advisor/work type mapping failed: %+v", row)
	}
	if row.ScheduledDate != "12-05-2026" {
		t.Fatalf("booking date should stay raw, got %q", row.ScheduledDate)
	}
}

func TestNormalizeKeepsUnknownColumnsInExtra(t *testing.T) {
	n := NewNormalizer()

	data := []byte("RO Number,Amount,Dealer Remark\nRO-1,2500.50,call back\n")
	rows, err := n.Normalize(domain.DatasetBilling, "billing.csv", data)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}

	row := rows[0]
	if row.Amount == nil || *row.Amount != 2500.50 {
		t.Fatalf("amount should coerce to float, got %v", row.Amount)
	}
	if row.Extra["dealer_remark"] != "call back" {
		t.Fatalf("unmodeled column must survive in Extra, got %+v", row.Extra)
	}
}

func TestNormalizeSkipsEmptyRowsAndPreservesOrder(t *testing.T) {
	n := NewNormalizer()

	data := []byte("RO Number,Amount\n\nRO-1,100\n,,\nRO-2,200\n")
	rows, err := n.Normalize(domain.DatasetBilling, "billing.csv", data)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}

	if len(rows) != 2 || rows[0].Key != "RO-1" || rows[1].Key != "RO-2" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestNormalizeHandlesUTF8BOM(t *testing.T) {
	n := NewNormalizer()

	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("RO Number\nRO-1\n")...)
	rows, err := n.Normalize(domain.DatasetBilling, "billing.csv", data)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if rows[0].Key != "RO-1" {
		t.Fatalf("BOM should be stripped before the header, got %q", rows[0].Key)
	}
}

func TestNormalizeRejectsUnsupportedFormat(t *testing.T) {
	n := NewNormalizer()

	_, err := n.Normalize(domain.DatasetBilling, "billing.pdf", []byte("junk"))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestNormalizeEmptyFile(t *testing.T) {
	n := NewNormalizer()

	if _, err := n.Normalize(domain.DatasetBilling, "billing.csv", nil); err == nil {
		t.Fatalf("expected error for empty payload")
	}

	_, err := n.Normalize(domain.DatasetBilling, "billing.csv", []byte("RO Number\n"))
	if !errors.Is(err, domain.ErrEmptyBatch) {
		t.Fatalf("header-only file should be an empty batch, got %v", err)
	}
}
