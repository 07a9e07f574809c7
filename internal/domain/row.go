package domain

import (
	"strconv"
	"strings"
)

// Normalized field names the engine reasons about directly. Spreadsheet
// columns outside this set travel in Row.Extra untouched.
const (
	FieldVIN            = "vin"
	FieldServiceAdvisor = "service_advisor"
	FieldWorkType       = "work_type"
	FieldScheduledDate  = "scheduled_date"
	FieldAmount         = "amount"
)

// Row is one normalized spreadsheet row. The business key and the handful of
// fields the engine interprets are typed; every other column is carried in
// the Extra side-map so unmodeled spreadsheet columns survive a round trip.
type Row struct {
	Key            string
	VIN            string
	ServiceAdvisor string
	WorkType       string
	ScheduledDate  string
	Amount         *float64
	Extra          map[string]any
}

// RowFromFields builds a Row from a flat field map, lifting the business key
// and the known fields out of the map. keyField names the business-key column
// for the dataset being ingested.
func RowFromFields(fields map[string]any, keyField string) Row {
	row := Row{Extra: make(map[string]any)}
	for name, value := range fields {
		switch name {
		case keyField:
			row.Key = strings.TrimSpace(toString(value))
		case FieldVIN:
			row.VIN = strings.TrimSpace(toString(value))
		case FieldServiceAdvisor:
			row.ServiceAdvisor = strings.TrimSpace(toString(value))
		case FieldWorkType:
			row.WorkType = strings.TrimSpace(toString(value))
		case FieldScheduledDate:
			row.ScheduledDate = strings.TrimSpace(toString(value))
		case FieldAmount:
			if f, ok := toFloat(value); ok {
				amount := f
				row.Amount = &amount
			} else {
				// Unparseable amounts ("N/A", malformed numbers) keep their
				// raw value rather than vanishing from the record.
				row.Extra[name] = value
			}
		default:
			row.Extra[name] = value
		}
	}
	return row
}

// Fields flattens the row back into a single field map keyed by normalized
// column names, merging the typed fields over the Extra side-map.
func (r Row) Fields(keyField string) map[string]any {
	fields := make(map[string]any, len(r.Extra)+6)
	for name, value := range r.Extra {
		fields[name] = value
	}
	if r.Key != "" {
		fields[keyField] = r.Key
	}
	if r.VIN != "" {
		fields[FieldVIN] = r.VIN
	}
	if r.ServiceAdvisor != "" {
		fields[FieldServiceAdvisor] = r.ServiceAdvisor
	}
	if r.WorkType != "" {
		fields[FieldWorkType] = r.WorkType
	}
	if r.ScheduledDate != "" {
		fields[FieldScheduledDate] = r.ScheduledDate
	}
	if r.Amount != nil {
		fields[FieldAmount] = *r.Amount
	}
	return fields
}

func toString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	case string:
		// Thousands separators are common in exported amount columns.
		cleaned := strings.ReplaceAll(strings.TrimSpace(v), ",", "")
		if cleaned == "" {
			return 0, false
		}
		if f, err := strconv.ParseFloat(cleaned, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}
