// Package transport defines the request and response shapes of the
// work-order HTTP surface.
package transport

import (
	"time"

	"inspection_portal_backend/internal/workorders/domain"
	"inspection_portal_backend/internal/workorders/photos"

	"github.com/google/uuid"
)

// FieldSpecPayload is a field definition submitted by an administrator.
type FieldSpecPayload struct {
	Name     string   `json:"name" validate:"required"`
	Label    string   `json:"label" validate:"required"`
	Type     string   `json:"type" validate:"required,oneof=text number boolean date select file"`
	Required bool     `json:"required"`
	Options  []string `json:"options,omitempty"`
}

// ToDomain converts the payload into a domain field spec.
func (p FieldSpecPayload) ToDomain() domain.FieldSpec {
	return domain.FieldSpec{
		Name:     p.Name,
		Label:    p.Label,
		Type:     domain.FieldType(p.Type),
		Required: p.Required,
		Options:  p.Options,
	}
}

// CreateWorkOrderRequest opens a new work order.
type CreateWorkOrderRequest struct {
	CondominiumID  uuid.UUID          `json:"condominiumId" validate:"required"`
	Priority       string             `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	AssignedUserID *uuid.UUID         `json:"assignedUserId,omitempty"`
	FieldSpecs     []FieldSpecPayload `json:"fieldSpecs" validate:"required,min=1,dive"`
}

// CompleteRequest is the JSON part of a complete submission; photo files
// travel alongside it as multipart parts keyed by logical field name.
type CompleteRequest struct {
	Data domain.ValueMap `json:"data"`
	Note string          `json:"note,omitempty"`
}

// ReopenRequest sends a completed work order back to the inspector.
type ReopenRequest struct {
	Reason              string             `json:"reason" validate:"required,min=10"`
	KeepFieldNames      []string           `json:"keepFieldNames"`
	RecompileFieldNames []string           `json:"recompileFieldNames"`
	NewFields           []FieldSpecPayload `json:"newFields" validate:"omitempty,dive"`
}

// CompleteIntegrationRequest resolves a reopened work order. KeepPhotoPaths
// lists the photo URLs to retain; everything existing and not listed is
// removed. New photo files travel as multipart parts keyed by field name.
type CompleteIntegrationRequest struct {
	RecompiledValues  domain.ValueMap `json:"recompiledValues"`
	NewFieldValues    domain.ValueMap `json:"newFieldValues"`
	KeepPhotoPaths    []string        `json:"keepPhotoPaths"`
	IntegrationReason string          `json:"integrationReason,omitempty"`
}

// AssignRequest sets or changes the responsible inspector.
type AssignRequest struct {
	AssignedUserID uuid.UUID `json:"assignedUserId" validate:"required"`
}

// AddNoteRequest appends a free-text note.
type AddNoteRequest struct {
	Body string `json:"body" validate:"required"`
}

// NoteResponse is one note on a work order.
type NoteResponse struct {
	AuthorID  uuid.UUID `json:"authorId"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

// WorkOrderResponse is the API view of a work order. Warnings is populated
// only on responses to complete / complete-integration actions that hit
// non-fatal storage failures.
type WorkOrderResponse struct {
	ID                uuid.UUID          `json:"id"`
	State             string             `json:"state"`
	CondominiumID     uuid.UUID          `json:"condominiumId"`
	AssignedUserID    *uuid.UUID         `json:"assignedUserId,omitempty"`
	Priority          string             `json:"priority"`
	Data              domain.ValueMap    `json:"data"`
	FieldSpecs        []domain.FieldSpec `json:"fieldSpecs"`
	FieldsToRecompile []domain.FieldSpec `json:"fieldsToRecompile,omitempty"`
	NewFields         []domain.FieldSpec `json:"newFields,omitempty"`
	Notes             []NoteResponse     `json:"notes"`
	ReopenReason      *string            `json:"reopenReason,omitempty"`
	IntegrationReason *string            `json:"integrationReason,omitempty"`
	OpenedAt          time.Time          `json:"openedAt"`
	CompletedAt       *time.Time         `json:"completedAt,omitempty"`
	ReopenedAt        *time.Time         `json:"reopenedAt,omitempty"`
	Warnings          []photos.Warning   `json:"warnings,omitempty"`
}

// ToWorkOrderResponse maps a domain record to its API view.
func ToWorkOrderResponse(wo domain.WorkOrder, warnings []photos.Warning) WorkOrderResponse {
	notes := make([]NoteResponse, 0, len(wo.Notes))
	for _, n := range wo.Notes {
		notes = append(notes, NoteResponse{AuthorID: n.AuthorID, Body: n.Body, CreatedAt: n.CreatedAt})
	}
	return WorkOrderResponse{
		ID:                wo.ID,
		State:             string(wo.State),
		CondominiumID:     wo.CondominiumID,
		AssignedUserID:    wo.AssignedUserID,
		Priority:          string(wo.Priority),
		Data:              wo.Data,
		FieldSpecs:        wo.FieldSpecs,
		FieldsToRecompile: wo.FieldsToRecompile,
		NewFields:         wo.NewFields,
		Notes:             notes,
		ReopenReason:      wo.ReopenReason,
		IntegrationReason: wo.IntegrationReason,
		OpenedAt:          wo.OpenedAt,
		CompletedAt:       wo.CompletedAt,
		ReopenedAt:        wo.ReopenedAt,
		Warnings:          warnings,
	}
}
