package product

import "reflect"

// Record is a single stored row: a mapping of field name to value. Records may
// carry fields beyond the schema; the schema constrains only declared fields.
type Record map[string]any

// Clone returns a copy of the record. Nested map and slice values are copied
// recursively so the clone shares no mutable state with the original.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	cp := make(Record, len(r))
	for k, v := range r {
		cp[k] = CloneValue(v)
	}
	return cp
}

// CloneValue deep-copies a field value. Nested maps and slices are copied
// recursively; scalar values are returned as-is.
func CloneValue(v any) any {
	switch value := v.(type) {
	case Record:
		return value.Clone()
	case map[string]any:
		cp := make(map[string]any, len(value))
		for k, elem := range value {
			cp[k] = CloneValue(elem)
		}
		return cp
	case []any:
		cp := make([]any, len(value))
		for i, elem := range value {
			cp[i] = CloneValue(elem)
		}
		return cp
	case []string:
		return append([]string(nil), value...)
	default:
		return v
	}
}

// CloneRecords copies a record sequence, cloning every element.
func CloneRecords(in []Record) []Record {
	if in == nil {
		return nil
	}
	out := make([]Record, len(in))
	for i, rec := range in {
		out[i] = rec.Clone()
	}
	return out
}

// Filters is an exact-match predicate over records: every key/value pair must
// equal the corresponding record field. A record missing a filtered field does
// not match. An empty filter set matches every record.
type Filters map[string]any

// Clone returns a copy of the filter map. Nested values are deep-copied.
func (f Filters) Clone() Filters {
	if f == nil {
		return nil
	}
	cp := make(Filters, len(f))
	for k, v := range f {
		cp[k] = CloneValue(v)
	}
	return cp
}

// Matches reports whether rec satisfies every filter pair.
func (f Filters) Matches(rec Record) bool {
	for key, want := range f {
		got, ok := rec[key]
		if !ok || !equalValues(got, want) {
			return false
		}
	}
	return true
}

// equalValues compares field values. Numeric values compare by magnitude
// across integer and float representations; everything else compares
// structurally.
func equalValues(a, b any) bool {
	af, aok := NumericValue(a)
	bf, bok := NumericValue(b)
	if aok && bok {
		return af == bf
	}
	return reflect.DeepEqual(a, b)
}

// NumericValue converts integer and float kinds to float64. The second return
// reports whether the value was numeric at all.
func NumericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
