package notification

import (
	"context"
	"errors"
	"sync"
	"testing"

	"inspection_portal_backend/internal/events"
	"inspection_portal_backend/internal/notification/directory"
	"inspection_portal_backend/internal/notification/inapp"

	"github.com/google/uuid"
)

type fakeInApp struct {
	mu      sync.Mutex
	created []inapp.CreateParams
	fail    bool
}

func (f *fakeInApp) Create(_ context.Context, p inapp.CreateParams) (inapp.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return inapp.Notification{}, errors.New("insert failed")
	}
	f.created = append(f.created, p)
	return inapp.Notification{ID: uuid.New(), UserID: p.UserID, Title: p.Title}, nil
}

type fakeUsers struct {
	admins   []directory.User
	byID     map[uuid.UUID]directory.User
	listErr  error
	getCalls int
}

func (f *fakeUsers) ListAdmins(context.Context) ([]directory.User, error) {
	return f.admins, f.listErr
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (directory.User, error) {
	f.getCalls++
	u, ok := f.byID[id]
	if !ok {
		return directory.User{}, directory.ErrUserNotFound
	}
	return u, nil
}

type sentMail struct {
	kind string
	to   string
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentMail
}

func (f *fakeSender) SendWorkOrderCompletedEmail(_ context.Context, to, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMail{kind: "completed", to: to})
	return nil
}

func (f *fakeSender) SendWorkOrderReopenedEmail(_ context.Context, to, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMail{kind: "reopened", to: to})
	return nil
}

func (f *fakeSender) SendWorkOrderReminderEmail(_ context.Context, to, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMail{kind: "reminder", to: to})
	return nil
}

func adminUser(email string) directory.User {
	return directory.User{ID: uuid.New(), Email: email, Role: "admin"}
}

func TestCompletedFansOutToAllAdmins(t *testing.T) {
	store := &fakeInApp{}
	sender := &fakeSender{}
	users := &fakeUsers{admins: []directory.User{adminUser("a@test"), adminUser("b@test")}}
	m := New(store, users, sender, nil, nil)

	err := m.handleCompleted(context.Background(), events.WorkOrderCompleted{
		BaseEvent:    events.NewBaseEvent(),
		WorkOrderID:  uuid.New(),
		Summary:      "work order completed with 4 fields",
		WarningCount: 1,
	})
	if err != nil {
		t.Fatalf("handleCompleted: %v", err)
	}

	if len(store.created) != 2 {
		t.Errorf("created %d in-app notifications, want one per admin", len(store.created))
	}
	for _, n := range store.created {
		if n.Category != categoryLifecycle {
			t.Errorf("category = %q", n.Category)
		}
		if n.WorkOrderID == nil {
			t.Error("work order reference missing")
		}
	}
	if len(sender.sent) != 2 || sender.sent[0].kind != "completed" {
		t.Errorf("sent = %+v, want completed email per admin", sender.sent)
	}
}

func TestReopenedNotifiesAssignee(t *testing.T) {
	store := &fakeInApp{}
	sender := &fakeSender{}
	assignee := adminUser("inspector@test")
	users := &fakeUsers{byID: map[uuid.UUID]directory.User{assignee.ID: assignee}}
	m := New(store, users, sender, nil, nil)

	err := m.handleReopened(context.Background(), events.WorkOrderReopened{
		BaseEvent:      events.NewBaseEvent(),
		WorkOrderID:    uuid.New(),
		AssignedUserID: &assignee.ID,
		Reason:         "unit count mismatch",
		RecompileCount: 1,
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(store.created) != 1 || store.created[0].UserID != assignee.ID {
		t.Errorf("created = %+v, want one notification for the assignee", store.created)
	}
	if len(sender.sent) != 1 || sender.sent[0].to != "inspector@test" {
		t.Errorf("sent = %+v", sender.sent)
	}
}

func TestReopenedWithoutAssigneeIsSilent(t *testing.T) {
	store := &fakeInApp{}
	users := &fakeUsers{}
	m := New(store, users, nil, nil, nil)

	err := m.handleReopened(context.Background(), events.WorkOrderReopened{
		BaseEvent:   events.NewBaseEvent(),
		WorkOrderID: uuid.New(),
		Reason:      "nobody assigned yet",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(store.created) != 0 {
		t.Errorf("unassigned reopen should notify nobody, got %+v", store.created)
	}
}

func TestAssignedNotifiesNewAssignee(t *testing.T) {
	store := &fakeInApp{}
	users := &fakeUsers{}
	m := New(store, users, nil, nil, nil)

	assignee := uuid.New()
	err := m.handleAssigned(context.Background(), events.WorkOrderAssigned{
		BaseEvent:      events.NewBaseEvent(),
		WorkOrderID:    uuid.New(),
		AssignedUserID: assignee,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(store.created) != 1 || store.created[0].UserID != assignee {
		t.Errorf("created = %+v", store.created)
	}
}

func TestReminderDueSendsEmailAndInApp(t *testing.T) {
	store := &fakeInApp{}
	sender := &fakeSender{}
	assignee := adminUser("inspector@test")
	users := &fakeUsers{byID: map[uuid.UUID]directory.User{assignee.ID: assignee}}
	m := New(store, users, sender, nil, nil)

	err := m.handleReminderDue(context.Background(), events.WorkOrderReminderDue{
		BaseEvent:      events.NewBaseEvent(),
		WorkOrderID:    uuid.New(),
		AssignedUserID: assignee.ID,
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(store.created) != 1 || store.created[0].Category != categoryReminder {
		t.Errorf("created = %+v, want one reminder notification", store.created)
	}
	if len(sender.sent) != 1 || sender.sent[0].kind != "reminder" {
		t.Errorf("sent = %+v", sender.sent)
	}
}

func TestDeliveryFailuresNeverPropagate(t *testing.T) {
	store := &fakeInApp{fail: true}
	users := &fakeUsers{listErr: errors.New("directory down"), admins: nil}
	m := New(store, users, nil, nil, nil)

	if err := m.handleCompleted(context.Background(), events.WorkOrderCompleted{
		BaseEvent:   events.NewBaseEvent(),
		WorkOrderID: uuid.New(),
	}); err != nil {
		t.Errorf("directory failure must not propagate: %v", err)
	}

	if err := m.handleAssigned(context.Background(), events.WorkOrderAssigned{
		BaseEvent:      events.NewBaseEvent(),
		WorkOrderID:    uuid.New(),
		AssignedUserID: uuid.New(),
	}); err != nil {
		t.Errorf("in-app insert failure must not propagate: %v", err)
	}
}
