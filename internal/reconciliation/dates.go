package reconciliation

import (
	"strconv"
	"strings"
	"time"
)

// excelEpoch is the day-zero of Excel date serials. Serial 1 is 1899-12-31;
// the off-by-one around the fictitious 1900-02-29 is inherited from Lotus and
// baked into every spreadsheet export we receive.
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// fallbackLayouts are tried after the two primary formats, most specific
// first.
var fallbackLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"02/01/2006",
	"01/02/2006",
	"02 Jan 2006",
}

// parseScheduledDate resolves a booking's scheduled date from one of three
// accepted shapes, in order: a numeric Excel serial (fractional time-of-day
// ignored), DD-MM-YYYY, then the free-form fallback layouts. The returned
// time is truncated to midnight UTC. ok is false when nothing parses; the
// caller maps that to the processing bucket rather than failing.
func parseScheduledDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}

	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		if serial <= 0 {
			return time.Time{}, false
		}
		return excelEpoch.AddDate(0, 0, int(serial)), true
	}

	if ts, err := time.Parse("02-01-2006", raw); err == nil {
		return midnight(ts), true
	}

	for _, layout := range fallbackLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return midnight(ts), true
		}
	}

	return time.Time{}, false
}

func midnight(ts time.Time) time.Time {
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
}
