package domain

import "fmt"

// DatasetType identifies one of the spreadsheet feeds the dealership uploads.
type DatasetType string

const (
	DatasetBilling        DatasetType = "billing"
	DatasetWarranty       DatasetType = "warranty"
	DatasetBooking        DatasetType = "booking"
	DatasetPartsOperation DatasetType = "parts_operation"
	DatasetRepairOrder    DatasetType = "repair_order"
)

var datasetTypes = []DatasetType{
	DatasetBilling,
	DatasetWarranty,
	DatasetBooking,
	DatasetPartsOperation,
	DatasetRepairOrder,
}

// ParseDatasetType validates a raw dataset type string.
func ParseDatasetType(raw string) (DatasetType, error) {
	for _, dt := range datasetTypes {
		if string(dt) == raw {
			return dt, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDataset, raw)
}

// Valid reports whether the dataset type is one of the known feeds.
func (d DatasetType) Valid() bool {
	_, err := ParseDatasetType(string(d))
	return err == nil
}

// BusinessKeyField returns the normalized field name that uniquely identifies
// a record of this dataset within a tenant scope. The mapping is fixed; it is
// not configurable at runtime.
func (d DatasetType) BusinessKeyField() string {
	switch d {
	case DatasetBilling:
		return "ro_number"
	case DatasetWarranty:
		return "claim_number"
	case DatasetBooking:
		return "registration_number"
	case DatasetPartsOperation:
		return "operation_code"
	case DatasetRepairOrder:
		return "vin"
	default:
		return ""
	}
}
