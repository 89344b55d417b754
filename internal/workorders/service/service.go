// Package service orchestrates the work-order lifecycle: it checks requested
// actions against the current state, runs field validation and photo
// reconciliation, persists the new record with an optimistic-concurrency
// write, and publishes lifecycle events for the notification module.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"inspection_portal_backend/internal/events"
	"inspection_portal_backend/internal/workorders/domain"
	"inspection_portal_backend/internal/workorders/photos"
	"inspection_portal_backend/internal/workorders/repository"
	"inspection_portal_backend/internal/workorders/validation"
	"inspection_portal_backend/platform/apperr"
	"inspection_portal_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	msgNotFound       = "work order not found"
	msgConcurrentEdit = "work order was modified concurrently, re-read and retry"
	msgStoreDown      = "work order store unavailable"
)

// Store is the durable work-order record contract. ConditionalUpdate must
// persist the record only while its stored state still equals expectedState,
// reporting false otherwise; implementations must be safe for concurrent use.
type Store interface {
	Create(ctx context.Context, wo domain.WorkOrder) (domain.WorkOrder, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.WorkOrder, error)
	ConditionalUpdate(ctx context.Context, id uuid.UUID, expectedState domain.State, wo domain.WorkOrder) (domain.WorkOrder, bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context, filter repository.ListFilter) ([]domain.WorkOrder, error)
}

// ReminderScheduler schedules a completion reminder for an assigned work
// order. A nil scheduler disables reminders.
type ReminderScheduler interface {
	ScheduleWorkOrderReminder(ctx context.Context, workOrderID, assignedUserID uuid.UUID, runAt time.Time) error
}

// Service is the lifecycle state machine for work orders.
type Service struct {
	store         Store
	photos        *photos.Engine
	bus           events.Bus
	reminders     ReminderScheduler
	reminderDelay time.Duration
	log           *logger.Logger
	now           func() time.Time
}

// New creates the lifecycle service. bus and reminders may be nil in tests.
func New(store Store, photoEngine *photos.Engine, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		store:  store,
		photos: photoEngine,
		bus:    bus,
		log:    log,
		now:    time.Now,
	}
}

// WithReminders enables reminder scheduling on assignment.
func (s *Service) WithReminders(scheduler ReminderScheduler, delay time.Duration) *Service {
	s.reminders = scheduler
	s.reminderDelay = delay
	return s
}

// CreateParams opens a new work order.
type CreateParams struct {
	CondominiumID  uuid.UUID
	Priority       domain.Priority
	AssignedUserID *uuid.UUID
	FieldSpecs     []domain.FieldSpec
}

// CompleteParams carries an inspector's completion submission.
type CompleteParams struct {
	Data          domain.ValueMap
	Note          string
	PhotosByField map[string][]photos.Upload
}

// ReopenParams sends a completed work order back for recompilation.
type ReopenParams struct {
	Reason              string
	KeepFieldNames      []string
	RecompileFieldNames []string
	NewFields           []domain.FieldSpec
}

// IntegrationParams resolves a reopened work order.
type IntegrationParams struct {
	RecompiledValues  domain.ValueMap
	NewFieldValues    domain.ValueMap
	KeepPhotoPaths    []string
	NewUploadsByField map[string][]photos.Upload
	IntegrationReason string
}

// Result is the outcome of an action that may carry storage warnings.
type Result struct {
	WorkOrder domain.WorkOrder
	Warnings  []photos.Warning
}

// Create opens a new work order in state Open with an empty data map.
func (s *Service) Create(ctx context.Context, params CreateParams) (domain.WorkOrder, error) {
	priority := params.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}
	if !domain.ValidPriority(priority) {
		return domain.WorkOrder{}, apperr.BadRequest(fmt.Sprintf("unknown priority %q", priority))
	}
	if err := validateSpecSet(params.FieldSpecs); err != nil {
		return domain.WorkOrder{}, err
	}

	wo := domain.WorkOrder{
		ID:             uuid.New(),
		State:          domain.StateOpen,
		CondominiumID:  params.CondominiumID,
		AssignedUserID: params.AssignedUserID,
		Priority:       priority,
		Data:           domain.NewValueMap(),
		FieldSpecs:     params.FieldSpecs,
		Notes:          []domain.Note{},
		OpenedAt:       s.now(),
	}

	created, err := s.store.Create(ctx, wo)
	if err != nil {
		return domain.WorkOrder{}, storeErr("workorders.create", err)
	}
	return created, nil
}

// Start marks work on an open work order as begun.
func (s *Service) Start(ctx context.Context, id, actorID uuid.UUID) (domain.WorkOrder, error) {
	wo, err := s.load(ctx, id)
	if err != nil {
		return domain.WorkOrder{}, err
	}

	next, err := s.checkTransition(wo, domain.ActionStart)
	if err != nil {
		return domain.WorkOrder{}, err
	}

	updated := wo
	updated.State = next
	return s.persist(ctx, wo, updated, domain.ActionStart)
}

// Complete validates the submitted non-file fields against the work order's
// spec set, merges data and the optional note, records the photo batch, and
// transitions to Completed. Validation failure is side-effect-free: no
// storage delete or upload is issued before every required field passes.
func (s *Service) Complete(ctx context.Context, id, actorID uuid.UUID, params CompleteParams) (Result, error) {
	wo, err := s.load(ctx, id)
	if err != nil {
		return Result{}, err
	}

	next, err := s.checkTransition(wo, domain.ActionComplete)
	if err != nil {
		return Result{}, err
	}

	if missing := validation.MissingFields(wo.FieldSpecs, params.Data); len(missing) > 0 {
		return Result{}, validationFailed(missing)
	}

	// Completion only adds photos: everything already stored is kept.
	existing := photoListsOf(wo)
	recon := s.photos.Reconcile(ctx, photos.Request{
		Existing:   existing,
		KeepPaths:  flattenPaths(existing),
		NewUploads: params.PhotosByField,
		PathPrefix: wo.ID.String(),
	})

	updated := wo
	updated.Data = wo.Data.Clone()
	mergeValues(&updated.Data, params.Data)
	applyMergedPhotos(&updated.Data, recon.MergedByField)
	if strings.TrimSpace(params.Note) != "" {
		updated.Notes = appendNote(wo.Notes, actorID, params.Note, s.now())
	}
	updated.State = next
	completedAt := s.now()
	updated.CompletedAt = &completedAt

	persisted, err := s.persist(ctx, wo, updated, domain.ActionComplete)
	if err != nil {
		return Result{}, err
	}

	s.publish(ctx, events.WorkOrderCompleted{
		BaseEvent:     events.NewBaseEvent(),
		WorkOrderID:   persisted.ID,
		CondominiumID: persisted.CondominiumID,
		ActorID:       actorID,
		Summary:       fmt.Sprintf("work order completed with %d fields", params.Data.Len()),
		PhotoCount:    len(recon.Assets),
		WarningCount:  len(recon.Warnings),
	})
	s.logWarnings(persisted.ID, recon.Warnings)

	return Result{WorkOrder: persisted, Warnings: recon.Warnings}, nil
}

// Reopen sends a completed work order back to the inspector. The reason must
// be at least MinReopenReasonLength characters; the named recompile fields
// are snapshotted with their prior values, and newly defined fields become
// part of the reopening cycle.
func (s *Service) Reopen(ctx context.Context, id, actorID uuid.UUID, params ReopenParams) (domain.WorkOrder, error) {
	wo, err := s.load(ctx, id)
	if err != nil {
		return domain.WorkOrder{}, err
	}

	next, err := s.checkTransition(wo, domain.ActionReopen)
	if err != nil {
		return domain.WorkOrder{}, err
	}

	reason := strings.TrimSpace(params.Reason)
	if len(reason) < domain.MinReopenReasonLength {
		return domain.WorkOrder{}, apperr.Validation(
			fmt.Sprintf("reopen reason must be at least %d characters", domain.MinReopenReasonLength))
	}

	// Keep and recompile must partition the existing fields: a name may name
	// an existing field and appear in at most one of the two sets.
	inRecompile := make(map[string]bool, len(params.RecompileFieldNames))
	for _, name := range params.RecompileFieldNames {
		inRecompile[name] = true
	}
	for _, name := range params.KeepFieldNames {
		if _, ok := wo.FindFieldSpec(name); !ok {
			return domain.WorkOrder{}, apperr.BadRequest(fmt.Sprintf("unknown field %q in keep set", name))
		}
		if inRecompile[name] {
			return domain.WorkOrder{}, apperr.BadRequest(fmt.Sprintf("field %q cannot be both kept and recompiled", name))
		}
	}

	recompile := make([]domain.FieldSpec, 0, len(params.RecompileFieldNames))
	for _, name := range params.RecompileFieldNames {
		spec, ok := wo.FindFieldSpec(name)
		if !ok {
			return domain.WorkOrder{}, apperr.BadRequest(fmt.Sprintf("unknown field %q in recompile set", name))
		}
		if prior, ok := wo.Data.Get(name); ok {
			priorCopy := prior
			spec.PriorValue = &priorCopy
		}
		recompile = append(recompile, spec)
	}

	if err := validateSpecSet(params.NewFields); err != nil {
		return domain.WorkOrder{}, err
	}
	for _, nf := range params.NewFields {
		if _, exists := wo.FindFieldSpec(nf.Name); exists {
			return domain.WorkOrder{}, apperr.BadRequest(fmt.Sprintf("new field %q already exists", nf.Name))
		}
	}

	updated := wo
	updated.State = next
	updated.FieldsToRecompile = recompile
	updated.NewFields = params.NewFields
	updated.ReopenReason = &reason
	reopenedAt := s.now()
	updated.ReopenedAt = &reopenedAt

	persisted, err := s.persist(ctx, wo, updated, domain.ActionReopen)
	if err != nil {
		return domain.WorkOrder{}, err
	}

	s.publish(ctx, events.WorkOrderReopened{
		BaseEvent:      events.NewBaseEvent(),
		WorkOrderID:    persisted.ID,
		CondominiumID:  persisted.CondominiumID,
		ActorID:        actorID,
		AssignedUserID: persisted.AssignedUserID,
		Reason:         reason,
		RecompileCount: len(recompile),
		NewFieldCount:  len(params.NewFields),
	})

	return persisted, nil
}

// CompleteIntegration reconciles a partial resubmission on a reopened work
// order back into a single consistent record: every non-file recompile field
// must be re-entered, every required non-file new field must be filled, the
// photo batch is reconciled against the declared keep set, and the recompile
// bookkeeping is cleared. An empty recompile + new-field pair is legal and
// still runs the full photo pass.
func (s *Service) CompleteIntegration(ctx context.Context, id, actorID uuid.UUID, params IntegrationParams) (Result, error) {
	wo, err := s.load(ctx, id)
	if err != nil {
		return Result{}, err
	}

	next, err := s.checkTransition(wo, domain.ActionCompleteIntegration)
	if err != nil {
		return Result{}, err
	}

	missing := validation.MissingRecompiled(wo.FieldsToRecompile, params.RecompiledValues)
	missing = append(missing, validation.MissingNewFields(wo.NewFields, params.NewFieldValues)...)
	if len(missing) > 0 {
		return Result{}, validationFailed(missing)
	}

	recon := s.photos.Reconcile(ctx, photos.Request{
		Existing:   photoListsOf(wo),
		KeepPaths:  params.KeepPhotoPaths,
		NewUploads: params.NewUploadsByField,
		PathPrefix: wo.ID.String(),
	})

	updated := wo
	updated.Data = wo.Data.Clone()
	for _, spec := range wo.FieldsToRecompile {
		if v, ok := params.RecompiledValues.Get(spec.Name); ok {
			updated.Data.Set(spec.Name, v)
		}
	}
	for _, spec := range wo.NewFields {
		if v, ok := params.NewFieldValues.Get(spec.Name); ok {
			updated.Data.Set(spec.Name, v)
		}
	}
	applyMergedPhotos(&updated.Data, recon.MergedByField)

	// New fields join the permanent spec set once integrated.
	updated.FieldSpecs = append(append([]domain.FieldSpec{}, wo.FieldSpecs...), wo.NewFields...)
	updated.FieldsToRecompile = nil
	updated.NewFields = nil
	if reason := strings.TrimSpace(params.IntegrationReason); reason != "" {
		updated.IntegrationReason = &reason
	}
	updated.State = next
	completedAt := s.now()
	updated.CompletedAt = &completedAt

	persisted, err := s.persist(ctx, wo, updated, domain.ActionCompleteIntegration)
	if err != nil {
		return Result{}, err
	}

	s.publish(ctx, events.WorkOrderIntegrated{
		BaseEvent:     events.NewBaseEvent(),
		WorkOrderID:   persisted.ID,
		CondominiumID: persisted.CondominiumID,
		ActorID:       actorID,
		Summary:       fmt.Sprintf("integration completed, %d fields recompiled", params.RecompiledValues.Len()),
		WarningCount:  len(recon.Warnings),
	})
	s.logWarnings(persisted.ID, recon.Warnings)

	return Result{WorkOrder: persisted, Warnings: recon.Warnings}, nil
}

// Assign sets the responsible inspector. Legal from any state; the state is
// left unchanged.
func (s *Service) Assign(ctx context.Context, id, actorID, assigneeID uuid.UUID) (domain.WorkOrder, error) {
	wo, err := s.load(ctx, id)
	if err != nil {
		return domain.WorkOrder{}, err
	}

	previous := wo.AssignedUserID
	updated := wo
	updated.AssignedUserID = &assigneeID

	persisted, err := s.persist(ctx, wo, updated, domain.ActionAssign)
	if err != nil {
		return domain.WorkOrder{}, err
	}

	s.publish(ctx, events.WorkOrderAssigned{
		BaseEvent:      events.NewBaseEvent(),
		WorkOrderID:    persisted.ID,
		CondominiumID:  persisted.CondominiumID,
		ActorID:        actorID,
		PreviousUserID: previous,
		AssignedUserID: assigneeID,
	})

	if s.reminders != nil && s.reminderDelay > 0 && persisted.State != domain.StateCompleted {
		runAt := s.now().Add(s.reminderDelay)
		if err := s.reminders.ScheduleWorkOrderReminder(ctx, persisted.ID, assigneeID, runAt); err != nil && s.log != nil {
			s.log.Warn("failed to schedule work order reminder", "work_order_id", persisted.ID, "error", err)
		}
	}

	return persisted, nil
}

// AddNote appends a free-text note. Legal from any state.
func (s *Service) AddNote(ctx context.Context, id, actorID uuid.UUID, body string) (domain.WorkOrder, error) {
	if strings.TrimSpace(body) == "" {
		return domain.WorkOrder{}, apperr.Validation("note body must not be empty")
	}

	wo, err := s.load(ctx, id)
	if err != nil {
		return domain.WorkOrder{}, err
	}

	updated := wo
	updated.Notes = appendNote(wo.Notes, actorID, body, s.now())
	return s.persist(ctx, wo, updated, domain.ActionAddNote)
}

// Delete destroys the record. Always permitted, any state, irreversible.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	found, err := s.store.Delete(ctx, id)
	if err != nil {
		return storeErr("workorders.delete", err)
	}
	if !found {
		return apperr.NotFound(msgNotFound)
	}
	return nil
}

// GetByID fetches a work order.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (domain.WorkOrder, error) {
	return s.load(ctx, id)
}

// List returns work orders matching the filter.
func (s *Service) List(ctx context.Context, filter repository.ListFilter) ([]domain.WorkOrder, error) {
	orders, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, storeErr("workorders.list", err)
	}
	return orders, nil
}

func (s *Service) load(ctx context.Context, id uuid.UUID) (domain.WorkOrder, error) {
	wo, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.WorkOrder{}, apperr.NotFound(msgNotFound)
		}
		return domain.WorkOrder{}, storeErr("workorders.get", err)
	}
	return wo, nil
}

func (s *Service) checkTransition(wo domain.WorkOrder, action domain.Action) (domain.State, error) {
	next, ok := domain.NextState(wo.State, action)
	if !ok {
		return "", apperr.BadRequest(
			fmt.Sprintf("action %q is not allowed from state %q", action, wo.State))
	}
	return next, nil
}

// persist writes the updated record conditioned on the state it was read in.
// A lost condition surfaces as a conflict; the caller must re-read and retry.
func (s *Service) persist(ctx context.Context, read, updated domain.WorkOrder, action domain.Action) (domain.WorkOrder, error) {
	persisted, ok, err := s.store.ConditionalUpdate(ctx, read.ID, read.State, updated)
	if err != nil {
		return domain.WorkOrder{}, storeErr("workorders.update", err)
	}
	if !ok {
		return domain.WorkOrder{}, apperr.Conflict(msgConcurrentEdit)
	}
	if s.log != nil && read.State != persisted.State {
		s.log.TransitionEvent(persisted.ID.String(), string(action), string(read.State), string(persisted.State))
	}
	return persisted, nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.bus != nil {
		s.bus.Publish(ctx, event)
	}
}

func (s *Service) logWarnings(workOrderID uuid.UUID, warnings []photos.Warning) {
	if s.log == nil {
		return
	}
	for _, w := range warnings {
		s.log.StorageWarning(workOrderID.String(), w.Operation, w.Path, errors.New(w.Reason))
	}
}

func validationFailed(missing []string) error {
	return apperr.Validation("required fields are missing or empty").WithDetails(missing)
}

func validateSpecSet(specs []domain.FieldSpec) error {
	seen := make(map[string]bool, len(specs))
	for _, spec := range specs {
		if strings.TrimSpace(spec.Name) == "" {
			return apperr.BadRequest("field spec name must not be empty")
		}
		if seen[spec.Name] {
			return apperr.BadRequest(fmt.Sprintf("duplicate field spec %q", spec.Name))
		}
		seen[spec.Name] = true
	}
	return nil
}

// photoListsOf extracts the per-field URL lists currently persisted.
func photoListsOf(wo domain.WorkOrder) map[string][]string {
	existing := make(map[string][]string)
	for _, name := range wo.Data.Keys() {
		if v, ok := wo.Data.Get(name); ok && v.Kind == domain.KindPhotoList {
			existing[name] = v.Photos
		}
	}
	return existing
}

func flattenPaths(byField map[string][]string) []string {
	var all []string
	for _, urls := range byField {
		all = append(all, urls...)
	}
	return all
}

// mergeValues copies submitted values into the record, skipping photo lists:
// photo content is owned by the reconciliation result, never by the raw
// value map.
func mergeValues(dst *domain.ValueMap, submitted domain.ValueMap) {
	for _, name := range submitted.Keys() {
		v, _ := submitted.Get(name)
		if v.Kind == domain.KindPhotoList {
			continue
		}
		dst.Set(name, v)
	}
}

func applyMergedPhotos(dst *domain.ValueMap, merged map[string][]string) {
	// Apply in the data map's existing order first so already-present photo
	// fields keep their position, then append newly photographed fields.
	applied := make(map[string]bool, len(merged))
	for _, name := range dst.Keys() {
		if urls, ok := merged[name]; ok {
			dst.Set(name, domain.PhotoListValue(urls))
			applied[name] = true
		}
	}
	remaining := make([]string, 0, len(merged))
	for name := range merged {
		if !applied[name] {
			remaining = append(remaining, name)
		}
	}
	sort.Strings(remaining)
	for _, name := range remaining {
		dst.Set(name, domain.PhotoListValue(merged[name]))
	}
}

func appendNote(notes []domain.Note, authorID uuid.UUID, body string, at time.Time) []domain.Note {
	out := make([]domain.Note, 0, len(notes)+1)
	out = append(out, notes...)
	out = append(out, domain.Note{AuthorID: authorID, Body: strings.TrimSpace(body), CreatedAt: at})
	return out
}

func storeErr(op string, err error) error {
	return apperr.Wrap(apperr.KindUnavailable, msgStoreDown, err).WithOp(op)
}
