// Package repository persists work orders in PostgreSQL. Collected data,
// field spec snapshots and notes live in JSONB columns; every mutating write
// is conditioned on the state the record was read in.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"inspection_portal_backend/internal/workorders/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("work order not found")

const workOrderColumns = `id, state, condominium_id, assigned_user_id, priority,
	data, field_specs, fields_to_recompile, new_fields, notes,
	reopen_reason, integration_reason, opened_at, completed_at, reopened_at`

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListFilter narrows List results. Zero fields match everything.
type ListFilter struct {
	State          *domain.State
	AssignedUserID *uuid.UUID
	CondominiumID  *uuid.UUID
}

// Create inserts a new work order and returns the stored record.
func (r *Repository) Create(ctx context.Context, wo domain.WorkOrder) (domain.WorkOrder, error) {
	enc, err := encodeWorkOrder(wo)
	if err != nil {
		return domain.WorkOrder{}, err
	}

	query := fmt.Sprintf(`
		INSERT INTO work_orders (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING %s
	`, workOrderColumns, workOrderColumns)

	row := r.pool.QueryRow(ctx, query,
		wo.ID, wo.State, wo.CondominiumID, wo.AssignedUserID, wo.Priority,
		enc.data, enc.fieldSpecs, enc.recompile, enc.newFields, enc.notes,
		wo.ReopenReason, wo.IntegrationReason, wo.OpenedAt, wo.CompletedAt, wo.ReopenedAt,
	)
	return scanWorkOrder(row)
}

// GetByID fetches a work order. Returns ErrNotFound when no row exists.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (domain.WorkOrder, error) {
	query := fmt.Sprintf(`SELECT %s FROM work_orders WHERE id = $1`, workOrderColumns)
	wo, err := scanWorkOrder(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.WorkOrder{}, ErrNotFound
	}
	return wo, err
}

// ConditionalUpdate overwrites the record only when its persisted state still
// equals expectedState. The boolean reports whether the condition held; a
// false result with a nil error means a concurrent writer got there first.
func (r *Repository) ConditionalUpdate(ctx context.Context, id uuid.UUID, expectedState domain.State, wo domain.WorkOrder) (domain.WorkOrder, bool, error) {
	enc, err := encodeWorkOrder(wo)
	if err != nil {
		return domain.WorkOrder{}, false, err
	}

	query := fmt.Sprintf(`
		UPDATE work_orders SET
			state = $3,
			assigned_user_id = $4,
			priority = $5,
			data = $6,
			field_specs = $7,
			fields_to_recompile = $8,
			new_fields = $9,
			notes = $10,
			reopen_reason = $11,
			integration_reason = $12,
			completed_at = $13,
			reopened_at = $14,
			updated_at = now()
		WHERE id = $1 AND state = $2
		RETURNING %s
	`, workOrderColumns)

	row := r.pool.QueryRow(ctx, query,
		id, expectedState,
		wo.State, wo.AssignedUserID, wo.Priority,
		enc.data, enc.fieldSpecs, enc.recompile, enc.newFields, enc.notes,
		wo.ReopenReason, wo.IntegrationReason, wo.CompletedAt, wo.ReopenedAt,
	)
	updated, err := scanWorkOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		// Either the row is gone or its state moved under us.
		return domain.WorkOrder{}, false, nil
	}
	if err != nil {
		return domain.WorkOrder{}, false, err
	}
	return updated, true, nil
}

// Delete removes the record. Returns false when no row existed.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM work_orders WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// List returns work orders matching the filter, newest first.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]domain.WorkOrder, error) {
	conditions := make([]string, 0, 3)
	args := make([]interface{}, 0, 3)

	if filter.State != nil {
		args = append(args, *filter.State)
		conditions = append(conditions, fmt.Sprintf("state = $%d", len(args)))
	}
	if filter.AssignedUserID != nil {
		args = append(args, *filter.AssignedUserID)
		conditions = append(conditions, fmt.Sprintf("assigned_user_id = $%d", len(args)))
	}
	if filter.CondominiumID != nil {
		args = append(args, *filter.CondominiumID)
		conditions = append(conditions, fmt.Sprintf("condominium_id = $%d", len(args)))
	}

	query := fmt.Sprintf(`SELECT %s FROM work_orders`, workOrderColumns)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY opened_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]domain.WorkOrder, 0)
	for rows.Next() {
		wo, err := scanWorkOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, wo)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return orders, nil
}

type encodedWorkOrder struct {
	data       []byte
	fieldSpecs []byte
	recompile  []byte
	newFields  []byte
	notes      []byte
}

func encodeWorkOrder(wo domain.WorkOrder) (encodedWorkOrder, error) {
	var enc encodedWorkOrder
	var err error

	if enc.data, err = json.Marshal(wo.Data); err != nil {
		return enc, err
	}
	if enc.fieldSpecs, err = json.Marshal(emptyIfNilSpecs(wo.FieldSpecs)); err != nil {
		return enc, err
	}
	if enc.recompile, err = json.Marshal(emptyIfNilSpecs(wo.FieldsToRecompile)); err != nil {
		return enc, err
	}
	if enc.newFields, err = json.Marshal(emptyIfNilSpecs(wo.NewFields)); err != nil {
		return enc, err
	}
	if enc.notes, err = json.Marshal(emptyIfNilNotes(wo.Notes)); err != nil {
		return enc, err
	}
	return enc, nil
}

func emptyIfNilSpecs(specs []domain.FieldSpec) []domain.FieldSpec {
	if specs == nil {
		return []domain.FieldSpec{}
	}
	return specs
}

func emptyIfNilNotes(notes []domain.Note) []domain.Note {
	if notes == nil {
		return []domain.Note{}
	}
	return notes
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanWorkOrder(row rowScanner) (domain.WorkOrder, error) {
	var wo domain.WorkOrder
	var data, fieldSpecs, recompile, newFields, notes []byte
	var completedAt, reopenedAt *time.Time

	err := row.Scan(
		&wo.ID, &wo.State, &wo.CondominiumID, &wo.AssignedUserID, &wo.Priority,
		&data, &fieldSpecs, &recompile, &newFields, &notes,
		&wo.ReopenReason, &wo.IntegrationReason, &wo.OpenedAt, &completedAt, &reopenedAt,
	)
	if err != nil {
		return domain.WorkOrder{}, err
	}

	if err := json.Unmarshal(data, &wo.Data); err != nil {
		return domain.WorkOrder{}, err
	}
	if err := json.Unmarshal(fieldSpecs, &wo.FieldSpecs); err != nil {
		return domain.WorkOrder{}, err
	}
	if err := json.Unmarshal(recompile, &wo.FieldsToRecompile); err != nil {
		return domain.WorkOrder{}, err
	}
	if err := json.Unmarshal(newFields, &wo.NewFields); err != nil {
		return domain.WorkOrder{}, err
	}
	if err := json.Unmarshal(notes, &wo.Notes); err != nil {
		return domain.WorkOrder{}, err
	}

	wo.CompletedAt = completedAt
	wo.ReopenedAt = reopenedAt
	return wo, nil
}
