// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"inspection_portal_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// WorkOrderCompleted is published when an inspector completes a work order
// for the first time.
type WorkOrderCompleted struct {
	BaseEvent
	WorkOrderID   uuid.UUID `json:"workOrderId"`
	CondominiumID uuid.UUID `json:"condominiumId"`
	ActorID       uuid.UUID `json:"actorId"`
	Summary       string    `json:"summary"`
	PhotoCount    int       `json:"photoCount"`
	WarningCount  int       `json:"warningCount"`
}

func (e WorkOrderCompleted) EventName() string { return "workorders.completed" }

// WorkOrderReopened is published when an administrator sends a completed
// work order back for recompilation.
type WorkOrderReopened struct {
	BaseEvent
	WorkOrderID    uuid.UUID  `json:"workOrderId"`
	CondominiumID  uuid.UUID  `json:"condominiumId"`
	ActorID        uuid.UUID  `json:"actorId"`
	AssignedUserID *uuid.UUID `json:"assignedUserId,omitempty"`
	Reason         string     `json:"reason"`
	RecompileCount int        `json:"recompileCount"`
	NewFieldCount  int        `json:"newFieldCount"`
}

func (e WorkOrderReopened) EventName() string { return "workorders.reopened" }

// WorkOrderIntegrated is published when a reopened work order is re-completed.
type WorkOrderIntegrated struct {
	BaseEvent
	WorkOrderID   uuid.UUID `json:"workOrderId"`
	CondominiumID uuid.UUID `json:"condominiumId"`
	ActorID       uuid.UUID `json:"actorId"`
	Summary       string    `json:"summary"`
	WarningCount  int       `json:"warningCount"`
}

func (e WorkOrderIntegrated) EventName() string { return "workorders.integrated" }

// WorkOrderAssigned is published when a work order is assigned to an inspector.
type WorkOrderAssigned struct {
	BaseEvent
	WorkOrderID    uuid.UUID  `json:"workOrderId"`
	CondominiumID  uuid.UUID  `json:"condominiumId"`
	ActorID        uuid.UUID  `json:"actorId"`
	PreviousUserID *uuid.UUID `json:"previousUserId,omitempty"`
	AssignedUserID uuid.UUID  `json:"assignedUserId"`
}

func (e WorkOrderAssigned) EventName() string { return "workorders.assigned" }

// WorkOrderReminderDue is published by the scheduler when an assigned work
// order is still not completed after its reminder window.
type WorkOrderReminderDue struct {
	BaseEvent
	WorkOrderID    uuid.UUID `json:"workOrderId"`
	AssignedUserID uuid.UUID `json:"assignedUserId"`
}

func (e WorkOrderReminderDue) EventName() string { return "workorders.reminder.due" }
