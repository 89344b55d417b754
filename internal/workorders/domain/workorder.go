// Package domain provides core business rules for the work-order bounded context.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// State is the lifecycle state of a work order.
type State string

const (
	StateOpen       State = "Open"
	StateInProgress State = "InProgress"
	StateCompleted  State = "Completed"
	StateReopened   State = "Reopened"
)

// Priority indicates how urgently a work order should be handled.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// ValidPriority reports whether p is one of the known priorities.
func ValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// FieldType is the declared type of a form field.
type FieldType string

const (
	FieldTypeText    FieldType = "text"
	FieldTypeNumber  FieldType = "number"
	FieldTypeBoolean FieldType = "boolean"
	FieldTypeDate    FieldType = "date"
	FieldTypeSelect  FieldType = "select"
	FieldTypeFile    FieldType = "file"
)

// FieldSpec describes one typed form field. It is always embedded inside a
// work-order snapshot, never persisted on its own. PriorValue is set only on
// specs snapshotted into FieldsToRecompile during a reopen.
type FieldSpec struct {
	Name       string      `json:"name"`
	Label      string      `json:"label"`
	Type       FieldType   `json:"type"`
	Required   bool        `json:"required,omitempty"`
	Options    []string    `json:"options,omitempty"`
	PriorValue *FieldValue `json:"priorValue,omitempty"`
}

// Note is one append-only free-text annotation on a work order.
type Note struct {
	AuthorID  uuid.UUID `json:"authorId"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

// WorkOrder is the central entity: one condominium verification task tracked
// through its lifecycle. Data is the single source of truth for collected
// answers and accumulates across completions.
type WorkOrder struct {
	ID             uuid.UUID  `json:"id"`
	State          State      `json:"state"`
	CondominiumID  uuid.UUID  `json:"condominiumId"`
	AssignedUserID *uuid.UUID `json:"assignedUserId,omitempty"`
	Priority       Priority   `json:"priority"`

	Data       ValueMap    `json:"data"`
	FieldSpecs []FieldSpec `json:"fieldSpecs"`

	// Populated only while State == Reopened; empty otherwise.
	FieldsToRecompile []FieldSpec `json:"fieldsToRecompile,omitempty"`
	NewFields         []FieldSpec `json:"newFields,omitempty"`

	Notes []Note `json:"notes"`

	// Retained after re-completion for audit history; never cleared.
	ReopenReason      *string `json:"reopenReason,omitempty"`
	IntegrationReason *string `json:"integrationReason,omitempty"`

	OpenedAt    time.Time  `json:"openedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	ReopenedAt  *time.Time `json:"reopenedAt,omitempty"`
}

// FindFieldSpec returns the spec with the given name from the work order's
// declared field set, or false when no such field exists.
func (w *WorkOrder) FindFieldSpec(name string) (FieldSpec, bool) {
	for _, spec := range w.FieldSpecs {
		if spec.Name == name {
			return spec, true
		}
	}
	return FieldSpec{}, false
}
