// Package validation holds the field rules and per-resource schemas shared by
// the API boundary and the admin resource managers.
package validation

import (
	"sort"
)

type FieldResult struct {
	IsValid bool   `json:"isValid"`
	Error   string `json:"error,omitempty"`
}

type FormResult struct {
	IsValid     bool              `json:"isValid"`
	Errors      []string          `json:"errors"`
	FieldErrors map[string]string `json:"fieldErrors"`
}

// Record is a flat view of a form keyed by field name.
type Record map[string]any

// Schema maps a field name to the rules applied to it, in order.
type Schema map[string][]Rule

// Fields returns the schema keys in a stable order.
func (s Schema) Fields() []string {
	keys := make([]string, 0, len(s))
	for key := range s {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// ValidateField runs rules in order and reports the first failure.
func ValidateField(value any, rules ...Rule) FieldResult {
	for _, rule := range rules {
		if !rule.Check(value) {
			return FieldResult{IsValid: false, Error: rule.Message}
		}
	}
	return FieldResult{IsValid: true}
}

// ValidateForm validates every schema field of record and aggregates the failures.
func ValidateForm(record Record, schema Schema) FormResult {
	result := FormResult{
		IsValid:     true,
		Errors:      []string{},
		FieldErrors: map[string]string{},
	}
	for _, field := range schema.Fields() {
		check := ValidateField(record[field], schema[field]...)
		if check.IsValid {
			continue
		}
		result.IsValid = false
		result.Errors = append(result.Errors, check.Error)
		result.FieldErrors[field] = check.Error
	}
	return result
}
