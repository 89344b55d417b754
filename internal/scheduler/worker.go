package scheduler

import (
	"context"
	"errors"
	"fmt"

	"inspection_portal_backend/internal/events"
	"inspection_portal_backend/internal/workorders/domain"
	"inspection_portal_backend/internal/workorders/repository"
	"inspection_portal_backend/platform/config"
	"inspection_portal_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	repo   *repository.Repository
	bus    events.Bus
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, pool *pgxpool.Pool, bus events.Bus, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		repo:   repository.New(pool),
		bus:    bus,
		log:    log,
	}

	mux.HandleFunc(TaskWorkOrderReminder, w.handleWorkOrderReminder)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

// handleWorkOrderReminder fires when a reminder window elapses. The reminder
// is dropped when the work order was completed, deleted or reassigned in the
// meantime.
func (w *Worker) handleWorkOrderReminder(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseWorkOrderReminderPayload(task)
	if err != nil {
		return err
	}

	workOrderID, err := uuid.Parse(payload.WorkOrderID)
	if err != nil {
		return err
	}

	assignedUserID, err := uuid.Parse(payload.AssignedUserID)
	if err != nil {
		return err
	}

	wo, err := w.repo.GetByID(ctx, workOrderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}

	if wo.State == domain.StateCompleted {
		return nil
	}
	if wo.AssignedUserID == nil || *wo.AssignedUserID != assignedUserID {
		return nil
	}

	if w.bus == nil {
		return nil
	}

	w.bus.Publish(ctx, events.WorkOrderReminderDue{
		BaseEvent:      events.NewBaseEvent(),
		WorkOrderID:    wo.ID,
		AssignedUserID: assignedUserID,
	})

	return nil
}
