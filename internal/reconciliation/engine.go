package reconciliation

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Akshaybondre123/AutoMobile-sub000/internal/domain"
	"github.com/Akshaybondre123/AutoMobile-sub000/internal/repository"
)

// Engine cross-references persisted bookings against the repair-order VIN
// set for a tenant and derives a lifecycle status per booking. It is
// read-only and stateless: every call recomputes from current storage, so
// concurrent calls need no coordination.
type Engine struct {
	records repository.RecordStore
	now     func() time.Time
}

// NewEngine creates a reconciliation engine.
func NewEngine(records repository.RecordStore) *Engine {
	return &Engine{records: records, now: time.Now}
}

// Options narrows a reconciliation run. AdvisorID, when set, restricts the
// booking side to that advisor; the repair-order VIN universe is never
// narrowed, since repair orders are uploaded by managers.
type Options struct {
	AdvisorID string
}

// BookingResult is one classified booking.
type BookingResult struct {
	domain.MatchResult
	RegistrationNumber string         `json:"registration_number"`
	ServiceAdvisor     string         `json:"service_advisor"`
	WorkType           string         `json:"work_type"`
	Fields             map[string]any `json:"fields"`
}

// GroupBreakdown aggregates one (service advisor, work type) pair.
type GroupBreakdown struct {
	ServiceAdvisor string                       `json:"service_advisor"`
	WorkType       string                       `json:"work_type"`
	Total          int                          `json:"total"`
	Counts         map[domain.BookingStatus]int `json:"counts"`
}

// Report is the full reconciliation output for one tenant scope.
type Report struct {
	Total    int                                      `json:"total"`
	Counts   map[domain.BookingStatus]int             `json:"counts"`
	ByStatus map[domain.BookingStatus][]BookingResult `json:"by_status"`
	Groups   []GroupBreakdown                         `json:"groups"`
}

// Reconcile loads the tenant's repair-order VIN set and bookings, classifies
// each booking, and aggregates in a single pass. Both reads are filtered by
// tenant scope; a VIN collision across tenants can never match.
func (e *Engine) Reconcile(ctx context.Context, scope domain.TenantScope, opts Options) (Report, error) {
	if err := scope.Validate(); err != nil {
		return Report{}, err
	}

	vins, err := e.records.Keys(ctx, domain.DatasetRepairOrder, scope)
	if err != nil {
		return Report{}, fmt.Errorf("failed to load repair order vins: %w", err)
	}
	vinSet := make(map[string]struct{}, len(vins))
	for _, vin := range vins {
		if normalized := normalizeVIN(vin); normalized != "" {
			vinSet[normalized] = struct{}{}
		}
	}

	bookings, err := e.records.List(ctx, domain.DatasetBooking, scope)
	if err != nil {
		return Report{}, fmt.Errorf("failed to load bookings: %w", err)
	}

	advisor := strings.TrimSpace(opts.AdvisorID)
	today := midnight(e.now())

	report := Report{
		Counts:   make(map[domain.BookingStatus]int, len(domain.BookingStatuses)),
		ByStatus: make(map[domain.BookingStatus][]BookingResult, len(domain.BookingStatuses)),
	}
	groups := make(map[string]*GroupBreakdown)

	for _, booking := range bookings {
		result := classify(booking, vinSet, today)
		if advisor != "" && !strings.EqualFold(result.ServiceAdvisor, advisor) {
			continue
		}

		report.Total++
		report.Counts[result.Status]++
		report.ByStatus[result.Status] = append(report.ByStatus[result.Status], result)

		groupKey := result.ServiceAdvisor + "\x00" + result.WorkType
		group, ok := groups[groupKey]
		if !ok {
			group = &GroupBreakdown{
				ServiceAdvisor: result.ServiceAdvisor,
				WorkType:       result.WorkType,
				Counts:         make(map[domain.BookingStatus]int, len(domain.BookingStatuses)),
			}
			groups[groupKey] = group
		}
		group.Total++
		group.Counts[result.Status]++
	}

	report.Groups = make([]GroupBreakdown, 0, len(groups))
	for _, group := range groups {
		report.Groups = append(report.Groups, *group)
	}
	sort.Slice(report.Groups, func(i, j int) bool {
		if report.Groups[i].ServiceAdvisor != report.Groups[j].ServiceAdvisor {
			return report.Groups[i].ServiceAdvisor < report.Groups[j].ServiceAdvisor
		}
		return report.Groups[i].WorkType < report.Groups[j].WorkType
	})

	return report, nil
}

// classify runs the per-booking state machine: empty VIN is unmatched, a VIN
// hit is converted, otherwise the scheduled date buckets the booking. An
// unparseable date is expected input and lands in processing.
func classify(booking domain.BusinessRecord, vinSet map[string]struct{}, today time.Time) BookingResult {
	result := BookingResult{
		MatchResult: domain.MatchResult{
			VIN: normalizeVIN(booking.FieldString(domain.FieldVIN)),
		},
		RegistrationNumber: booking.BusinessKey,
		ServiceAdvisor:     booking.FieldString(domain.FieldServiceAdvisor),
		WorkType:           booking.FieldString(domain.FieldWorkType),
		Fields:             booking.Fields,
	}

	if result.VIN != "" {
		if _, ok := vinSet[result.VIN]; ok {
			result.Matched = true
			result.Status = domain.StatusConverted
			return result
		}
	}

	scheduled, ok := parseScheduledDate(booking.FieldString(domain.FieldScheduledDate))
	if !ok {
		result.Status = domain.StatusProcessing
		return result
	}

	tomorrow := today.AddDate(0, 0, 1)
	switch {
	case !scheduled.After(today):
		result.Status = domain.StatusProcessing
	case scheduled.Equal(tomorrow):
		result.Status = domain.StatusTomorrow
	default:
		result.Status = domain.StatusFuture
	}
	return result
}

// normalizeVIN trims and uppercases so matching is case and whitespace
// insensitive.
func normalizeVIN(vin string) string {
	return strings.ToUpper(strings.TrimSpace(vin))
}
