// Package validation applies per-field-type obligatory-value rules to a
// submitted value map.
package validation

import (
	"inspection_portal_backend/internal/workorders/domain"
)

// MissingFields returns the labels of every spec in specs whose submitted
// value is absent or blank, in definition order. An empty result means the
// submission is valid.
//
// File-typed fields are always skipped: photo presence is established by the
// reconciliation engine's resulting URL lists, not by raw value-map content.
// Note this means a required photo field can complete with zero photos; the
// presence check for files intentionally lives downstream.
func MissingFields(specs []domain.FieldSpec, values domain.ValueMap) []string {
	missing := make([]string, 0)
	for _, spec := range specs {
		if spec.Type == domain.FieldTypeFile {
			continue
		}
		if !spec.Required {
			continue
		}
		value, ok := values.Get(spec.Name)
		if !ok || value.IsBlank() {
			missing = append(missing, labelOf(spec))
		}
	}
	return missing
}

// MissingRecompiled returns the labels of recompile-snapshot fields that were
// not resubmitted with a non-empty value. Every non-file field flagged for
// recompilation must be re-entered, whatever its original required flag.
func MissingRecompiled(recompile []domain.FieldSpec, values domain.ValueMap) []string {
	missing := make([]string, 0)
	for _, spec := range recompile {
		if spec.Type == domain.FieldTypeFile {
			continue
		}
		value, ok := values.Get(spec.Name)
		if !ok || value.IsBlank() {
			missing = append(missing, labelOf(spec))
		}
	}
	return missing
}

// MissingNewFields returns the labels of required new-field definitions that
// were not submitted with a non-empty value.
func MissingNewFields(newFields []domain.FieldSpec, values domain.ValueMap) []string {
	missing := make([]string, 0)
	for _, spec := range newFields {
		if spec.Type == domain.FieldTypeFile || !spec.Required {
			continue
		}
		value, ok := values.Get(spec.Name)
		if !ok || value.IsBlank() {
			missing = append(missing, labelOf(spec))
		}
	}
	return missing
}

func labelOf(spec domain.FieldSpec) string {
	if spec.Label != "" {
		return spec.Label
	}
	return spec.Name
}
