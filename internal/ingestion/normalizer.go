package ingestion

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Akshaybondre123/AutoMobile-sub000/internal/domain"

	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat is returned when an uploaded file is not supported.
var ErrUnsupportedFormat = errors.New("unsupported file format")

var byteOrderMark = []byte{0xEF, 0xBB, 0xBF}

// headerAliases maps spreadsheet column spellings, after sanitization, onto
// the normalized field names the engine reasons about. Dealership exports
// vary per DMS vendor; the alias table absorbs the common spellings.
var headerAliases = map[string]string{
	"ro_number":           "ro_number",
	"ro_no":               "ro_number",
	"repair_order_number": "ro_number",
	"repair_order_no":     "ro_number",

	"claim_number": "claim_number",
	"claim_no":     "claim_number",

	"registration_number": "registration_number",
	"registration_no":     "registration_number",
	"reg_no":              "registration_number",
	"vehicle_reg_no":      "registration_number",

	"operation_code": "operation_code",
	"op_code":        "operation_code",
	"part_code":      "operation_code",

	"vin":            domain.FieldVIN,
	"chassis_no":     domain.FieldVIN,
	"chassis_number": domain.FieldVIN,

	"service_advisor": domain.FieldServiceAdvisor,
	"advisor":         domain.FieldServiceAdvisor,
	"advisor_name":    domain.FieldServiceAdvisor,
	"sa_name":         domain.FieldServiceAdvisor,

	"work_type": domain.FieldWorkType,
	"job_type":  domain.FieldWorkType,

	"scheduled_date":   domain.FieldScheduledDate,
	"booking_date":     domain.FieldScheduledDate,
	"appointment_date": domain.FieldScheduledDate,

	"amount":       domain.FieldAmount,
	"bill_amount":  domain.FieldAmount,
	"total_amount": domain.FieldAmount,
}

// Normalizer converts an uploaded CSV or XLSX file into the ordered row
// sequence the rest of the engine consumes.
type Normalizer struct{}

// NewNormalizer creates a row normalizer.
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize parses the payload for the given dataset type. The first
// non-empty row is the header; empty rows are dropped; field values are
// trimmed. Rows are returned in file order so that last-row-wins semantics
// hold downstream.
func (n *Normalizer) Normalize(dataset domain.DatasetType, fileName string, payload []byte) ([]domain.Row, error) {
	if len(payload) == 0 {
		return nil, errors.New("file is empty")
	}

	records, err := parseFile(fileName, payload)
	if err != nil {
		return nil, err
	}

	headers, dataRows, err := splitHeader(records)
	if err != nil {
		return nil, err
	}

	keyField := dataset.BusinessKeyField()
	rows := make([]domain.Row, 0, len(dataRows))
	for _, raw := range dataRows {
		fields := make(map[string]any, len(headers))
		for col, header := range headers {
			if col >= len(raw) {
				continue
			}
			value := strings.TrimSpace(raw[col])
			if value == "" {
				continue
			}
			fields[header] = coerceCell(value)
		}
		if len(fields) == 0 {
			continue
		}
		rows = append(rows, domain.RowFromFields(fields, keyField))
	}

	if len(rows) == 0 {
		return nil, domain.ErrEmptyBatch
	}
	return rows, nil
}

func parseFile(fileName string, payload []byte) ([][]string, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".csv":
		return parseCSV(payload)
	case ".xlsx":
		return parseExcel(payload)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

func parseCSV(payload []byte) ([][]string, error) {
	reader := bufio.NewReader(bytes.NewReader(payload))
	if prefix, err := reader.Peek(len(byteOrderMark)); err == nil && bytes.Equal(prefix, byteOrderMark) {
		_, _ = reader.Discard(len(byteOrderMark))
	}

	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	return records, nil
}

func parseExcel(payload []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("excel file has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from xlsx: %w", err)
	}
	return rows, nil
}

func splitHeader(records [][]string) ([]string, [][]string, error) {
	var headerRow []string
	var dataRows [][]string

	for _, row := range records {
		if rowEmpty(row) {
			continue
		}
		if headerRow == nil {
			headerRow = row
			continue
		}
		dataRows = append(dataRows, row)
	}

	if headerRow == nil {
		return nil, nil, errors.New("header row could not be detected")
	}

	return sanitizeHeaders(headerRow), dataRows, nil
}

func rowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func sanitizeHeaders(raw []string) []string {
	headers := make([]string, len(raw))
	seen := make(map[string]int)

	for idx, value := range raw {
		name := strings.ToLower(strings.TrimSpace(value))
		name = strings.ReplaceAll(name, " ", "_")
		name = strings.ReplaceAll(name, ".", "_")
		name = strings.ReplaceAll(name, "-", "_")
		name = strings.ReplaceAll(name, "/", "_")
		name = strings.Trim(name, "_")
		if name == "" {
			name = fmt.Sprintf("column_%d", idx+1)
		}
		if canonical, ok := headerAliases[name]; ok {
			name = canonical
		}

		base := name
		count := seen[base]
		if count > 0 {
			name = fmt.Sprintf("%s_%d", base, count+1)
		}
		seen[base] = count + 1

		headers[idx] = name
	}

	return headers
}

// coerceCell keeps numbers numeric so amounts survive as floats, everything
// else stays a string. Date cells stay raw strings; reconciliation owns date
// parsing.
func coerceCell(value string) any {
	if i, err := strconv.ParseInt(value, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	return value
}
