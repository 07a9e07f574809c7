package domain

// BookingStatus is the derived lifecycle status of one booking, recomputed on
// every reconciliation call and never persisted as ground truth.
type BookingStatus string

const (
	// StatusConverted means the booking's VIN appears in the repair orders.
	StatusConverted BookingStatus = "converted"
	// StatusProcessing covers unmatched bookings dated today or earlier, and
	// unmatched bookings whose scheduled date cannot be parsed.
	StatusProcessing BookingStatus = "processing"
	// StatusTomorrow covers unmatched bookings scheduled for tomorrow.
	StatusTomorrow BookingStatus = "tomorrow"
	// StatusFuture covers unmatched bookings scheduled after tomorrow.
	StatusFuture BookingStatus = "future"
)

// BookingStatuses lists every status in a stable presentation order.
var BookingStatuses = []BookingStatus{
	StatusConverted,
	StatusProcessing,
	StatusTomorrow,
	StatusFuture,
}

// MatchResult is the per-booking outcome of VIN reconciliation.
type MatchResult struct {
	VIN     string        `json:"vin"`
	Matched bool          `json:"matched"`
	Status  BookingStatus `json:"status"`
}
