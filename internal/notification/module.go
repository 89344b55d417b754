// Package notification turns work-order lifecycle events into in-app
// notifications, SSE pushes and administrator emails. It subscribes to the
// event bus so the lifecycle service never needs to know about delivery
// channels; delivery failures are logged and never propagate upstream.
package notification

import (
	"context"
	"fmt"

	"inspection_portal_backend/internal/email"
	"inspection_portal_backend/internal/events"
	apphttp "inspection_portal_backend/internal/http"
	"inspection_portal_backend/internal/notification/directory"
	"inspection_portal_backend/internal/notification/inapp"
	"inspection_portal_backend/internal/notification/sse"
	"inspection_portal_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	categoryLifecycle = "work_order_lifecycle"
	categoryReminder  = "work_order_reminder"

	roleAdmin = "admin"
)

// InAppWriter persists in-app notifications.
type InAppWriter interface {
	Create(ctx context.Context, p inapp.CreateParams) (inapp.Notification, error)
}

// UserReader resolves notification recipients.
type UserReader interface {
	ListAdmins(ctx context.Context) ([]directory.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (directory.User, error)
}

// Module wires lifecycle events to the delivery channels.
type Module struct {
	inapp   InAppWriter
	users   UserReader
	sender  email.Sender
	sse     *sse.Service
	handler *Handler
	log     *logger.Logger
}

// New creates the notification module. sender may be nil when email is
// disabled; sse may be nil in worker processes without HTTP.
func New(inappRepo InAppWriter, users UserReader, sender email.Sender, sseSvc *sse.Service, log *logger.Logger) *Module {
	m := &Module{inapp: inappRepo, users: users, sender: sender, sse: sseSvc, log: log}
	if reader, ok := inappRepo.(InAppReader); ok && sseSvc != nil {
		m.handler = NewHandler(reader, sseSvc)
	}
	return m
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "notification"
}

// RegisterRoutes mounts the notification inbox and SSE stream. Worker
// processes construct the module without an SSE service and register no
// routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	if m.handler == nil {
		return
	}
	m.handler.RegisterRoutes(ctx.Protected.Group("/notifications"))
}

// RegisterEventHandlers subscribes the module to the lifecycle events.
func (m *Module) RegisterEventHandlers(bus events.Bus) {
	bus.Subscribe(events.WorkOrderCompleted{}.EventName(), events.HandlerFunc(m.handleCompleted))
	bus.Subscribe(events.WorkOrderReopened{}.EventName(), events.HandlerFunc(m.handleReopened))
	bus.Subscribe(events.WorkOrderIntegrated{}.EventName(), events.HandlerFunc(m.handleIntegrated))
	bus.Subscribe(events.WorkOrderAssigned{}.EventName(), events.HandlerFunc(m.handleAssigned))
	bus.Subscribe(events.WorkOrderReminderDue{}.EventName(), events.HandlerFunc(m.handleReminderDue))
}

func (m *Module) handleCompleted(ctx context.Context, event events.Event) error {
	e, ok := event.(events.WorkOrderCompleted)
	if !ok {
		return nil
	}

	title := "Work order completed"
	content := e.Summary
	if e.WarningCount > 0 {
		content = fmt.Sprintf("%s (%d storage warnings)", content, e.WarningCount)
	}

	m.fanOutToAdmins(ctx, e.WorkOrderID, title, content, func(admin directory.User) error {
		if m.sender == nil {
			return nil
		}
		return m.sender.SendWorkOrderCompletedEmail(ctx, admin.Email, e.CondominiumID.String(), e.WorkOrderID.String())
	})

	m.push(sse.Event{
		Type:        sse.EventWorkOrderCompleted,
		WorkOrderID: e.WorkOrderID,
		Message:     content,
	})
	return nil
}

func (m *Module) handleReopened(ctx context.Context, event events.Event) error {
	e, ok := event.(events.WorkOrderReopened)
	if !ok {
		return nil
	}

	if e.AssignedUserID == nil {
		return nil
	}

	content := fmt.Sprintf("Reopened: %s (%d fields to recompile, %d new fields)",
		e.Reason, e.RecompileCount, e.NewFieldCount)

	m.notifyUser(ctx, *e.AssignedUserID, &e.WorkOrderID, "Work order reopened", content, categoryLifecycle)

	if m.sender != nil {
		if user, err := m.users.GetByID(ctx, *e.AssignedUserID); err == nil {
			if err := m.sender.SendWorkOrderReopenedEmail(ctx, user.Email, e.WorkOrderID.String(), e.Reason); err != nil {
				m.logErr("send reopened email", err)
			}
		}
	}

	if m.sse != nil {
		m.sse.SendToUser(*e.AssignedUserID, sse.Event{
			Type:        sse.EventWorkOrderReopened,
			WorkOrderID: e.WorkOrderID,
			Message:     content,
		})
	}
	return nil
}

func (m *Module) handleIntegrated(ctx context.Context, event events.Event) error {
	e, ok := event.(events.WorkOrderIntegrated)
	if !ok {
		return nil
	}

	m.fanOutToAdmins(ctx, e.WorkOrderID, "Work order re-completed", e.Summary, nil)

	m.push(sse.Event{
		Type:        sse.EventWorkOrderIntegrated,
		WorkOrderID: e.WorkOrderID,
		Message:     e.Summary,
	})
	return nil
}

func (m *Module) handleAssigned(ctx context.Context, event events.Event) error {
	e, ok := event.(events.WorkOrderAssigned)
	if !ok {
		return nil
	}

	content := fmt.Sprintf("Work order %s has been assigned to you", e.WorkOrderID)
	m.notifyUser(ctx, e.AssignedUserID, &e.WorkOrderID, "New assignment", content, categoryLifecycle)

	if m.sse != nil {
		m.sse.SendToUser(e.AssignedUserID, sse.Event{
			Type:        sse.EventWorkOrderAssigned,
			WorkOrderID: e.WorkOrderID,
			Message:     content,
		})
	}
	return nil
}

func (m *Module) handleReminderDue(ctx context.Context, event events.Event) error {
	e, ok := event.(events.WorkOrderReminderDue)
	if !ok {
		return nil
	}

	content := fmt.Sprintf("Work order %s is still pending completion", e.WorkOrderID)
	m.notifyUser(ctx, e.AssignedUserID, &e.WorkOrderID, "Pending work order", content, categoryReminder)

	if m.sender != nil {
		if user, err := m.users.GetByID(ctx, e.AssignedUserID); err == nil {
			if err := m.sender.SendWorkOrderReminderEmail(ctx, user.Email, e.WorkOrderID.String()); err != nil {
				m.logErr("send reminder email", err)
			}
		}
	}

	if m.sse != nil {
		m.sse.SendToUser(e.AssignedUserID, sse.Event{
			Type:        sse.EventWorkOrderReminder,
			WorkOrderID: e.WorkOrderID,
			Message:     content,
		})
	}
	return nil
}

// fanOutToAdmins stores one in-app notification per administrator and runs
// the optional per-admin side effect (e.g. email). Each failure is logged
// individually so one bad recipient never blocks the rest.
func (m *Module) fanOutToAdmins(ctx context.Context, workOrderID uuid.UUID, title, content string, extra func(directory.User) error) {
	admins, err := m.users.ListAdmins(ctx)
	if err != nil {
		m.logErr("list admins", err)
		return
	}

	for _, admin := range admins {
		m.notifyUser(ctx, admin.ID, &workOrderID, title, content, categoryLifecycle)
		if extra != nil {
			if err := extra(admin); err != nil {
				m.logErr("admin fan-out", err)
			}
		}
	}
}

func (m *Module) notifyUser(ctx context.Context, userID uuid.UUID, workOrderID *uuid.UUID, title, content, category string) {
	_, err := m.inapp.Create(ctx, inapp.CreateParams{
		UserID:      userID,
		Title:       title,
		Content:     content,
		WorkOrderID: workOrderID,
		Category:    category,
	})
	if err != nil {
		m.logErr("create in-app notification", err)
	}
}

func (m *Module) push(event sse.Event) {
	if m.sse != nil {
		m.sse.BroadcastToRole(roleAdmin, event)
	}
}

func (m *Module) logErr(op string, err error) {
	if m.log != nil {
		m.log.Error("notification delivery failed", "op", op, "error", err)
	}
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
