package product

import "time"

// Operation identifies a consumer-facing data product operation for access
// logging.
type Operation string

const (
	OperationQuery  Operation = "query"
	OperationUpdate Operation = "update"
	OperationRemove Operation = "remove"
)

// AccessEntry records one consumer operation against a data product.
type AccessEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Operation Operation `json:"operation"`
	Params    Filters   `json:"params,omitempty"`
	Product   string    `json:"data_product"`
	Version   string    `json:"version"`
}

// Clone returns a deep copy of the entry.
func (e AccessEntry) Clone() AccessEntry {
	out := e
	out.Params = e.Params.Clone()
	return out
}

// CloneAccessEntries deep-copies a slice of access entries.
func CloneAccessEntries(entries []AccessEntry) []AccessEntry {
	if entries == nil {
		return nil
	}
	out := make([]AccessEntry, len(entries))
	for i, e := range entries {
		out[i] = e.Clone()
	}
	return out
}
