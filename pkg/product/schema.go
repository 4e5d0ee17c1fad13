package product

import (
	"fmt"
	"sort"
)

// FieldType declares the semantic type expected for a schema field.
type FieldType string

// Supported field types. Integer and float are distinct: a float value does
// not satisfy an integer declaration and vice versa.
const (
	// FieldString matches Go string values.
	FieldString FieldType = "string"
	// FieldInteger matches Go integer kinds (signed and unsigned).
	FieldInteger FieldType = "integer"
	// FieldFloat matches float32 and float64 values only.
	FieldFloat FieldType = "float"
	FieldBoolean FieldType = "boolean"
)

// Matches reports whether value satisfies the declared field type.
func (t FieldType) Matches(value any) bool {
	switch t {
	case FieldString:
		_, ok := value.(string)
		return ok
	case FieldInteger:
		switch value.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return true
		}
		return false
	case FieldFloat:
		switch value.(type) {
		case float32, float64:
			return true
		}
		return false
	case FieldBoolean:
		_, ok := value.(bool)
		return ok
	}
	return false
}

// Schema declares the required fields of a record store, the primary key, and
// the fields marked as indexed. Index declarations are descriptive only; the
// store performs no lookup acceleration. A schema is immutable once a store is
// constructed from it.
type Schema struct {
	Fields     map[string]FieldType `json:"fields"`
	PrimaryKey string               `json:"primary_key,omitempty"`
	Indexes    []string             `json:"indexes,omitempty"`
}

// Clone returns a deep copy of the schema.
func (s Schema) Clone() Schema {
	cp := s
	if s.Fields != nil {
		cp.Fields = make(map[string]FieldType, len(s.Fields))
		for k, v := range s.Fields {
			cp.Fields[k] = v
		}
	}
	if s.Indexes != nil {
		cp.Indexes = append([]string(nil), s.Indexes...)
	}
	return cp
}

// FieldNames returns the declared field names in lexical order.
func (s Schema) FieldNames() []string {
	names := make([]string, 0, len(s.Fields))
	for name := range s.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks a candidate record against the schema: every declared field
// must be present and its value must satisfy the declared type. Extra fields
// beyond the schema are permitted. Each failure yields a blocking violation.
func (s Schema) Validate(rec Record) []Violation {
	var out []Violation
	for _, name := range s.FieldNames() {
		value, ok := rec[name]
		if !ok {
			out = append(out, Violation{
				Rule:     RuleSchema,
				Severity: SeverityBlock,
				Field:    name,
				Message:  fmt.Sprintf("required field %q missing", name),
			})
			continue
		}
		if v := s.CheckField(name, value); v != nil {
			out = append(out, *v)
		}
	}
	return out
}

// CheckField validates a single value against the declared type of the named
// field. It returns nil when the field is undeclared or the value conforms.
func (s Schema) CheckField(name string, value any) *Violation {
	declared, ok := s.Fields[name]
	if !ok {
		return nil
	}
	if declared.Matches(value) {
		return nil
	}
	return &Violation{
		Rule:     RuleSchema,
		Severity: SeverityBlock,
		Field:    name,
		Message:  fmt.Sprintf("field %q expects %s, got %T", name, declared, value),
	}
}
