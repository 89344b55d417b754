package service

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"inspection_portal_backend/internal/events"
	"inspection_portal_backend/internal/workorders/domain"
	"inspection_portal_backend/internal/workorders/photos"
	"inspection_portal_backend/internal/workorders/repository"
	"inspection_portal_backend/platform/apperr"

	"github.com/google/uuid"
)

// fakeStore keeps records in memory and enforces the same conditional-write
// semantics as the SQL repository, under a mutex so concurrency tests are
// meaningful.
type fakeStore struct {
	mu      sync.Mutex
	records map[uuid.UUID]domain.WorkOrder
	failAll error
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[uuid.UUID]domain.WorkOrder)}
}

func (s *fakeStore) Create(_ context.Context, wo domain.WorkOrder) (domain.WorkOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll != nil {
		return domain.WorkOrder{}, s.failAll
	}
	s.records[wo.ID] = wo
	return wo, nil
}

func (s *fakeStore) GetByID(_ context.Context, id uuid.UUID) (domain.WorkOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll != nil {
		return domain.WorkOrder{}, s.failAll
	}
	wo, ok := s.records[id]
	if !ok {
		return domain.WorkOrder{}, repository.ErrNotFound
	}
	return wo, nil
}

func (s *fakeStore) ConditionalUpdate(_ context.Context, id uuid.UUID, expectedState domain.State, wo domain.WorkOrder) (domain.WorkOrder, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll != nil {
		return domain.WorkOrder{}, false, s.failAll
	}
	current, ok := s.records[id]
	if !ok || current.State != expectedState {
		return domain.WorkOrder{}, false, nil
	}
	s.records[id] = wo
	return wo, true, nil
}

func (s *fakeStore) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return false, nil
	}
	delete(s.records, id)
	return true, nil
}

func (s *fakeStore) List(_ context.Context, filter repository.ListFilter) ([]domain.WorkOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.WorkOrder, 0, len(s.records))
	for _, wo := range s.records {
		if filter.State != nil && wo.State != *filter.State {
			continue
		}
		out = append(out, wo)
	}
	return out, nil
}

// fakeObjectStore never fails; per-path failures are covered in the photos
// package tests.
type fakeObjectStore struct {
	mu      sync.Mutex
	stored  map[string][]byte
	deleted []string
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{stored: make(map[string][]byte)}
}

func (s *fakeObjectStore) Put(_ context.Context, storagePath string, data []byte, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stored[storagePath] = data
	return "https://cdn.test/" + storagePath, nil
}

func (s *fakeObjectStore) Delete(_ context.Context, storagePath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, storagePath)
	return nil
}

// captureBus records published events synchronously.
type captureBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *captureBus) Publish(_ context.Context, event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *captureBus) PublishSync(ctx context.Context, event events.Event) error {
	b.Publish(ctx, event)
	return nil
}

func (b *captureBus) Subscribe(string, events.Handler) {}

func (b *captureBus) names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.events))
	for i, e := range b.events {
		out[i] = e.EventName()
	}
	return out
}

type reminderCall struct {
	workOrderID uuid.UUID
	assigneeID  uuid.UUID
}

type fakeReminders struct {
	mu    sync.Mutex
	calls []reminderCall
}

func (f *fakeReminders) ScheduleWorkOrderReminder(_ context.Context, workOrderID, assignedUserID uuid.UUID, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, reminderCall{workOrderID: workOrderID, assigneeID: assignedUserID})
	return nil
}

func newTestService(t *testing.T) (*Service, *fakeStore, *fakeObjectStore, *captureBus) {
	t.Helper()
	store := newFakeStore()
	objects := newFakeObjectStore()
	bus := &captureBus{}
	svc := New(store, photos.NewEngine(objects), bus, nil)
	return svc, store, objects, bus
}

func defaultSpecs() []domain.FieldSpec {
	return []domain.FieldSpec{
		{Name: "roof_state", Label: "Roof state", Type: domain.FieldTypeText, Required: true},
		{Name: "unit_count", Label: "Unit count", Type: domain.FieldTypeNumber, Required: true},
		{Name: "remarks", Label: "Remarks", Type: domain.FieldTypeText},
		{Name: "facade_photos", Label: "Facade photos", Type: domain.FieldTypeFile, Required: true},
	}
}

func createWorkOrder(t *testing.T, svc *Service) domain.WorkOrder {
	t.Helper()
	wo, err := svc.Create(context.Background(), CreateParams{
		CondominiumID: uuid.New(),
		FieldSpecs:    defaultSpecs(),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return wo
}

func validCompletion() CompleteParams {
	var data domain.ValueMap
	data.Set("roof_state", domain.StringValue("good"))
	data.Set("unit_count", domain.NumberValue(12))
	return CompleteParams{Data: data}
}

func TestCreateDefaults(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	wo := createWorkOrder(t, svc)

	if wo.State != domain.StateOpen {
		t.Errorf("state = %q, want open", wo.State)
	}
	if wo.Priority != domain.PriorityMedium {
		t.Errorf("priority = %q, want default medium", wo.Priority)
	}
	if wo.Data.Len() != 0 {
		t.Errorf("new work order should start with empty data")
	}
	if wo.OpenedAt.IsZero() {
		t.Error("OpenedAt must be set")
	}
}

func TestCreateRejectsBadInput(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.Create(context.Background(), CreateParams{Priority: "asap"})
	if !apperr.Is(err, apperr.KindBadRequest) {
		t.Errorf("unknown priority: err = %v, want bad request", err)
	}

	_, err = svc.Create(context.Background(), CreateParams{
		FieldSpecs: []domain.FieldSpec{{Name: "a"}, {Name: "a"}},
	})
	if !apperr.Is(err, apperr.KindBadRequest) {
		t.Errorf("duplicate specs: err = %v, want bad request", err)
	}
}

func TestStartTransition(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	wo := createWorkOrder(t, svc)

	started, err := svc.Start(context.Background(), wo.ID, uuid.New())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if started.State != domain.StateInProgress {
		t.Errorf("state = %q, want in progress", started.State)
	}

	// Starting twice is an illegal transition.
	_, err = svc.Start(context.Background(), wo.ID, uuid.New())
	if !apperr.Is(err, apperr.KindBadRequest) {
		t.Errorf("second start: err = %v, want bad request", err)
	}
}

func TestCompleteHappyPath(t *testing.T) {
	svc, _, objects, bus := newTestService(t)
	wo := createWorkOrder(t, svc)
	actor := uuid.New()

	params := validCompletion()
	params.Note = "  all good  "
	params.PhotosByField = map[string][]photos.Upload{
		"facade_photos": {{FileName: "f.jpg", ContentType: "image/jpeg", Data: []byte("f")}},
	}

	result, err := svc.Complete(context.Background(), wo.ID, actor, params)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	got := result.WorkOrder

	if got.State != domain.StateCompleted {
		t.Errorf("state = %q, want completed", got.State)
	}
	if got.CompletedAt == nil {
		t.Error("CompletedAt must be set")
	}
	if v, ok := got.Data.Get("roof_state"); !ok || v.Str != "good" {
		t.Errorf("roof_state = %+v", v)
	}
	if v, ok := got.Data.Get("facade_photos"); !ok || v.Kind != domain.KindPhotoList || len(v.Photos) != 1 {
		t.Errorf("facade_photos = %+v, want one stored URL", v)
	}
	if len(got.Notes) != 1 || got.Notes[0].Body != "all good" || got.Notes[0].AuthorID != actor {
		t.Errorf("notes = %+v, want one trimmed note by actor", got.Notes)
	}
	if len(objects.stored) != 1 {
		t.Errorf("stored %d objects, want 1", len(objects.stored))
	}

	names := bus.names()
	if len(names) != 1 || names[0] != "workorders.completed" {
		t.Errorf("published events = %v", names)
	}
}

func TestCompleteValidationFailureHasNoSideEffects(t *testing.T) {
	svc, _, objects, bus := newTestService(t)
	wo := createWorkOrder(t, svc)

	var data domain.ValueMap
	data.Set("roof_state", domain.StringValue("   "))

	_, err := svc.Complete(context.Background(), wo.ID, uuid.New(), CompleteParams{
		Data: data,
		PhotosByField: map[string][]photos.Upload{
			"facade_photos": {{FileName: "f.jpg", Data: []byte("f")}},
		},
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("err = %v, want validation", err)
	}

	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		t.Fatal("expected *apperr.Error")
	}
	missing, ok := appErr.Details.([]string)
	if !ok {
		t.Fatalf("details = %#v, want missing label list", appErr.Details)
	}
	want := []string{"Roof state", "Unit count"}
	if !reflect.DeepEqual(missing, want) {
		t.Errorf("missing = %v, want %v", missing, want)
	}

	if len(objects.stored) != 0 || len(objects.deleted) != 0 {
		t.Error("validation failure must not touch storage")
	}
	if len(bus.names()) != 0 {
		t.Error("validation failure must not publish events")
	}

	current, _ := svc.GetByID(context.Background(), wo.ID)
	if current.State != domain.StateOpen {
		t.Errorf("state = %q, want unchanged open", current.State)
	}
}

func TestCompleteIllegalFromCompleted(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	wo := createWorkOrder(t, svc)

	if _, err := svc.Complete(context.Background(), wo.ID, uuid.New(), validCompletion()); err != nil {
		t.Fatalf("first complete: %v", err)
	}

	_, err := svc.Complete(context.Background(), wo.ID, uuid.New(), validCompletion())
	if !apperr.Is(err, apperr.KindBadRequest) {
		t.Errorf("err = %v, want bad request", err)
	}
}

func TestConcurrentCompletesOneWins(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	wo := createWorkOrder(t, svc)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Complete(context.Background(), wo.ID, uuid.New(), validCompletion())
		}(i)
	}
	wg.Wait()

	var okCount, conflictCount int
	for _, err := range errs {
		switch {
		case err == nil:
			okCount++
		case apperr.Is(err, apperr.KindConflict) || apperr.Is(err, apperr.KindBadRequest):
			// The loser either lost the conditional write or re-read the
			// record after the winner moved it to completed.
			conflictCount++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if okCount != 1 || conflictCount != 1 {
		t.Errorf("okCount = %d, conflictCount = %d, want exactly one winner", okCount, conflictCount)
	}
}

func TestReopenValidation(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	wo := createWorkOrder(t, svc)
	if _, err := svc.Complete(context.Background(), wo.ID, uuid.New(), validCompletion()); err != nil {
		t.Fatal(err)
	}

	_, err := svc.Reopen(context.Background(), wo.ID, uuid.New(), ReopenParams{Reason: "too short"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("short reason: err = %v, want validation", err)
	}

	_, err = svc.Reopen(context.Background(), wo.ID, uuid.New(), ReopenParams{
		Reason:              "roof answer is implausible",
		RecompileFieldNames: []string{"nonexistent"},
	})
	if !apperr.Is(err, apperr.KindBadRequest) {
		t.Errorf("unknown recompile field: err = %v, want bad request", err)
	}

	_, err = svc.Reopen(context.Background(), wo.ID, uuid.New(), ReopenParams{
		Reason:    "roof answer is implausible",
		NewFields: []domain.FieldSpec{{Name: "roof_state", Type: domain.FieldTypeText}},
	})
	if !apperr.Is(err, apperr.KindBadRequest) {
		t.Errorf("colliding new field: err = %v, want bad request", err)
	}

	_, err = svc.Reopen(context.Background(), wo.ID, uuid.New(), ReopenParams{
		Reason:         "roof answer is implausible",
		KeepFieldNames: []string{"nonexistent"},
	})
	if !apperr.Is(err, apperr.KindBadRequest) {
		t.Errorf("unknown keep field: err = %v, want bad request", err)
	}

	_, err = svc.Reopen(context.Background(), wo.ID, uuid.New(), ReopenParams{
		Reason:              "roof answer is implausible",
		KeepFieldNames:      []string{"unit_count"},
		RecompileFieldNames: []string{"unit_count"},
	})
	if !apperr.Is(err, apperr.KindBadRequest) {
		t.Errorf("keep/recompile overlap: err = %v, want bad request", err)
	}
}

func TestReopenSnapshotsPriorValues(t *testing.T) {
	svc, _, _, bus := newTestService(t)
	wo := createWorkOrder(t, svc)
	if _, err := svc.Complete(context.Background(), wo.ID, uuid.New(), validCompletion()); err != nil {
		t.Fatal(err)
	}

	reopened, err := svc.Reopen(context.Background(), wo.ID, uuid.New(), ReopenParams{
		Reason:              "unit count does not match the cadastre",
		RecompileFieldNames: []string{"unit_count"},
		NewFields:           []domain.FieldSpec{{Name: "boiler_year", Label: "Boiler year", Type: domain.FieldTypeNumber, Required: true}},
	})
	if err != nil {
		t.Fatalf("Reopen: %v", err)
	}

	if reopened.State != domain.StateReopened {
		t.Errorf("state = %q, want reopened", reopened.State)
	}
	if reopened.ReopenedAt == nil || reopened.ReopenReason == nil {
		t.Fatal("reopen timestamp and reason must be set")
	}
	if len(reopened.FieldsToRecompile) != 1 {
		t.Fatalf("recompile set = %+v", reopened.FieldsToRecompile)
	}
	snap := reopened.FieldsToRecompile[0]
	if snap.PriorValue == nil || snap.PriorValue.Num != 12 {
		t.Errorf("prior value snapshot = %+v, want captured 12", snap.PriorValue)
	}
	// The prior value lives only on the snapshot; the data map keeps the
	// answer until it is recompiled.
	if v, ok := reopened.Data.Get("unit_count"); !ok || v.Num != 12 {
		t.Errorf("data,unit_count = %+v, want untouched", v)
	}

	names := bus.names()
	if names[len(names)-1] != "workorders.reopened" {
		t.Errorf("events = %v, want reopened last", names)
	}
}

func TestCompleteIntegrationRoundTrip(t *testing.T) {
	svc, _, objects, bus := newTestService(t)
	wo := createWorkOrder(t, svc)

	params := validCompletion()
	params.PhotosByField = map[string][]photos.Upload{
		"facade_photos": {
			{FileName: "a.jpg", Data: []byte("a")},
			{FileName: "b.jpg", Data: []byte("b")},
		},
	}
	completed, err := svc.Complete(context.Background(), wo.ID, uuid.New(), params)
	if err != nil {
		t.Fatal(err)
	}
	photoURLs, _ := completed.WorkOrder.Data.Get("facade_photos")
	if len(photoURLs.Photos) != 2 {
		t.Fatalf("precondition: want 2 stored photos, got %v", photoURLs.Photos)
	}

	if _, err := svc.Reopen(context.Background(), wo.ID, uuid.New(), ReopenParams{
		Reason:              "unit count does not match the cadastre",
		RecompileFieldNames: []string{"unit_count"},
		NewFields:           []domain.FieldSpec{{Name: "boiler_year", Label: "Boiler year", Type: domain.FieldTypeNumber, Required: true}},
	}); err != nil {
		t.Fatal(err)
	}

	// Missing recompiled value fails and lists the label.
	_, err = svc.CompleteIntegration(context.Background(), wo.ID, uuid.New(), IntegrationParams{})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("empty integration: err = %v, want validation", err)
	}

	var recompiled, newValues domain.ValueMap
	recompiled.Set("unit_count", domain.NumberValue(14))
	newValues.Set("boiler_year", domain.NumberValue(2019))

	result, err := svc.CompleteIntegration(context.Background(), wo.ID, uuid.New(), IntegrationParams{
		RecompiledValues: recompiled,
		NewFieldValues:   newValues,
		KeepPhotoPaths:   []string{photoURLs.Photos[0]},
		NewUploadsByField: map[string][]photos.Upload{
			"facade_photos": {{FileName: "c.jpg", Data: []byte("c")}},
		},
		IntegrationReason: "recounted on site",
	})
	if err != nil {
		t.Fatalf("CompleteIntegration: %v", err)
	}
	got := result.WorkOrder

	if got.State != domain.StateCompleted {
		t.Errorf("state = %q, want completed", got.State)
	}
	if v, _ := got.Data.Get("unit_count"); v.Num != 14 {
		t.Errorf("unit_count = %v, want recompiled 14", v.Num)
	}
	if v, _ := got.Data.Get("boiler_year"); v.Num != 2019 {
		t.Errorf("boiler_year = %v, want 2019", v.Num)
	}
	if v, _ := got.Data.Get("roof_state"); v.Str != "good" {
		t.Errorf("untouched field lost: roof_state = %q", v.Str)
	}

	merged, _ := got.Data.Get("facade_photos")
	if len(merged.Photos) != 2 {
		t.Fatalf("photos after integration = %v, want kept+new", merged.Photos)
	}
	if merged.Photos[0] != photoURLs.Photos[0] {
		t.Errorf("kept photo must stay first: %v", merged.Photos)
	}
	if len(objects.deleted) != 1 {
		t.Errorf("deleted %v, want exactly the dropped photo", objects.deleted)
	}

	if len(got.FieldsToRecompile) != 0 || len(got.NewFields) != 0 {
		t.Error("recompile bookkeeping must be cleared after integration")
	}
	if len(got.FieldSpecs) != len(defaultSpecs())+1 {
		t.Errorf("new field should join the permanent spec set: %d specs", len(got.FieldSpecs))
	}
	if got.IntegrationReason == nil || *got.IntegrationReason != "recounted on site" {
		t.Errorf("integration reason = %v", got.IntegrationReason)
	}
	if got.ReopenReason == nil {
		t.Error("reopen reason must survive integration for audit history")
	}

	names := bus.names()
	if names[len(names)-1] != "workorders.integrated" {
		t.Errorf("events = %v, want integrated last", names)
	}
}

func TestIntegrationWithoutChangesReproducesData(t *testing.T) {
	svc, _, objects, _ := newTestService(t)
	wo := createWorkOrder(t, svc)

	params := validCompletion()
	params.PhotosByField = map[string][]photos.Upload{
		"facade_photos": {
			{FileName: "a.jpg", Data: []byte("a")},
			{FileName: "b.jpg", Data: []byte("b")},
		},
	}
	completed, err := svc.Complete(context.Background(), wo.ID, uuid.New(), params)
	if err != nil {
		t.Fatal(err)
	}
	before := completed.WorkOrder.Data
	beforePhotos, _ := before.Get("facade_photos")

	// Reopening with nothing to recompile and no new fields is legal.
	if _, err := svc.Reopen(context.Background(), wo.ID, uuid.New(), ReopenParams{
		Reason: "spot check, please confirm the submission",
	}); err != nil {
		t.Fatalf("empty reopen: %v", err)
	}

	// Integrating while keeping every photo must reproduce the record exactly.
	result, err := svc.CompleteIntegration(context.Background(), wo.ID, uuid.New(), IntegrationParams{
		KeepPhotoPaths: beforePhotos.Photos,
	})
	if err != nil {
		t.Fatalf("CompleteIntegration: %v", err)
	}
	got := result.WorkOrder

	if got.State != domain.StateCompleted {
		t.Errorf("state = %q, want completed", got.State)
	}
	if !got.Data.Equal(before) {
		t.Errorf("data after no-change cycle = %v, want %v", got.Data, before)
	}
	if len(got.FieldSpecs) != len(defaultSpecs()) {
		t.Errorf("spec set changed: %d specs", len(got.FieldSpecs))
	}
	if len(objects.deleted) != 0 {
		t.Errorf("no-change cycle deleted %v", objects.deleted)
	}
	if len(objects.stored) != 2 {
		t.Errorf("stored %d objects, want the original 2", len(objects.stored))
	}
}

func TestAssignSchedulesReminder(t *testing.T) {
	svc, _, _, bus := newTestService(t)
	reminders := &fakeReminders{}
	svc.WithReminders(reminders, time.Hour)

	wo := createWorkOrder(t, svc)
	assignee := uuid.New()

	assigned, err := svc.Assign(context.Background(), wo.ID, uuid.New(), assignee)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if assigned.AssignedUserID == nil || *assigned.AssignedUserID != assignee {
		t.Errorf("assignee = %v", assigned.AssignedUserID)
	}
	if assigned.State != domain.StateOpen {
		t.Errorf("assignment must not change state, got %q", assigned.State)
	}
	if len(reminders.calls) != 1 || reminders.calls[0].assigneeID != assignee {
		t.Errorf("reminder calls = %+v", reminders.calls)
	}

	names := bus.names()
	if names[len(names)-1] != "workorders.assigned" {
		t.Errorf("events = %v", names)
	}

	// Completed work orders get no reminder.
	if _, err := svc.Complete(context.Background(), wo.ID, uuid.New(), validCompletion()); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Assign(context.Background(), wo.ID, uuid.New(), uuid.New()); err != nil {
		t.Fatal(err)
	}
	if len(reminders.calls) != 1 {
		t.Errorf("completed assignment scheduled a reminder: %+v", reminders.calls)
	}
}

func TestAddNote(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	wo := createWorkOrder(t, svc)

	_, err := svc.AddNote(context.Background(), wo.ID, uuid.New(), "   ")
	if !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("blank note: err = %v, want validation", err)
	}

	updated, err := svc.AddNote(context.Background(), wo.ID, uuid.New(), "check the basement")
	if err != nil {
		t.Fatalf("AddNote: %v", err)
	}
	if len(updated.Notes) != 1 || updated.Notes[0].Body != "check the basement" {
		t.Errorf("notes = %+v", updated.Notes)
	}
}

func TestDeleteAndNotFound(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	wo := createWorkOrder(t, svc)

	if err := svc.Delete(context.Background(), wo.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(context.Background(), wo.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("double delete: err = %v, want not found", err)
	}
	if _, err := svc.GetByID(context.Background(), wo.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("get after delete: err = %v, want not found", err)
	}
}

func TestStoreFailureMapsToUnavailable(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	wo := createWorkOrder(t, svc)
	store.failAll = errors.New("connection refused")

	_, err := svc.GetByID(context.Background(), wo.ID)
	if !apperr.Is(err, apperr.KindUnavailable) {
		t.Errorf("err = %v, want unavailable", err)
	}
	if !strings.Contains(err.Error(), "unavailable") {
		t.Errorf("message should mention the store being unavailable: %v", err)
	}
}
