// Package inapp persists in-app notifications for portal users.
package inapp

import (
	"context"
	"time"

	"inspection_portal_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	opCreate      = "notification.inapp.repository.create"
	opList        = "notification.inapp.repository.list"
	opCountUnread = "notification.inapp.repository.count_unread"
	opMarkRead    = "notification.inapp.repository.mark_read"

	errRepoNotConfigured = "in-app notification repository not configured"
)

type Notification struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"userId"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	WorkOrderID *uuid.UUID `json:"workOrderId,omitempty"`
	Category    string     `json:"category"`
	IsRead      bool       `json:"isRead"`
	CreatedAt   time.Time  `json:"createdAt"`
}

type CreateParams struct {
	UserID      uuid.UUID
	Title       string
	Content     string
	WorkOrderID *uuid.UUID
	Category    string
}

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Create(ctx context.Context, p CreateParams) (Notification, error) {
	if r == nil || r.pool == nil {
		return Notification{}, apperr.Internal(errRepoNotConfigured).WithOp(opCreate)
	}

	var n Notification
	err := r.pool.QueryRow(ctx, `
		INSERT INTO notifications (user_id, title, content, work_order_id, category)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, user_id, title, content, work_order_id, category, is_read, created_at
	`, p.UserID, p.Title, p.Content, p.WorkOrderID, p.Category).Scan(
		&n.ID, &n.UserID, &n.Title, &n.Content, &n.WorkOrderID, &n.Category, &n.IsRead, &n.CreatedAt,
	)
	if err != nil {
		return Notification{}, apperr.Wrap(apperr.KindInternal, "failed to create notification", err).WithOp(opCreate)
	}
	return n, nil
}

func (r *Repository) List(ctx context.Context, userID uuid.UUID, limit int) ([]Notification, error) {
	if r == nil || r.pool == nil {
		return nil, apperr.Internal(errRepoNotConfigured).WithOp(opList)
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, title, content, work_order_id, category, is_read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list notifications", err).WithOp(opList)
	}
	defer rows.Close()

	notifications := make([]Notification, 0)
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Content, &n.WorkOrderID, &n.Category, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "failed to scan notification", err).WithOp(opList)
		}
		notifications = append(notifications, n)
	}
	if rows.Err() != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list notifications", rows.Err()).WithOp(opList)
	}
	return notifications, nil
}

func (r *Repository) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	if r == nil || r.pool == nil {
		return 0, apperr.Internal(errRepoNotConfigured).WithOp(opCountUnread)
	}

	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = false
	`, userID).Scan(&count)
	if err != nil {
		return 0, apperr.Wrap(apperr.KindInternal, "failed to count unread notifications", err).WithOp(opCountUnread)
	}
	return count, nil
}

func (r *Repository) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	if r == nil || r.pool == nil {
		return apperr.Internal(errRepoNotConfigured).WithOp(opMarkRead)
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE notifications SET is_read = true WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to mark notification read", err).WithOp(opMarkRead)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("notification not found").WithOp(opMarkRead)
	}
	return nil
}
