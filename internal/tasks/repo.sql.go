package tasks

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskhive/taskhive/internal/identity"
	"github.com/taskhive/taskhive/internal/platform/db"
	"github.com/taskhive/taskhive/internal/platform/httpx"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const taskColumns = `t.id, t.user_id, t.title, t.description, t.status, t.priority, t.due_date, t.tags, t.assigned_to, t.created_at, t.updated_at, u.name AS owner_name, u.email AS owner_email`
const taskFrom = ` FROM tasks t LEFT JOIN users u ON t.user_id = u.id`

func scanTask(row pgx.Row) (*Task, error) {
	var task Task
	err := row.Scan(
		&task.ID, &task.UserID, &task.Title, &task.Description, &task.Status, &task.Priority,
		&task.DueDate, &task.Tags, &task.AssignedTo, &task.CreatedAt, &task.UpdatedAt,
		&task.OwnerName, &task.OwnerEmail,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &task, nil
}

// List returns the viewer's page of tasks plus the total row count for
// the same filter.
func (r *Repository) List(ctx context.Context, q Query, viewer identity.RoleAware) ([]Task, int, error) {
	filter := buildFilter(q, viewer.UserID, viewer.IsAdmin())
	where := filter.where()

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(t.id)`+taskFrom+where, filter.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + taskColumns + taskFrom + where +
		sortClause(q.SortBy, q.SortOrder, viewer.IsAdmin()) +
		" LIMIT " + filter.bind(q.PerPage) + " OFFSET " + filter.bind((q.Page-1)*q.PerPage)

	rows, err := r.pool.Query(ctx, query, filter.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// FindByID fetches one task, scoped to the viewer's own rows unless the
// viewer is an admin.
func (r *Repository) FindByID(ctx context.Context, id int64, viewer identity.RoleAware) (*Task, error) {
	if viewer.IsAdmin() {
		return scanTask(r.pool.QueryRow(ctx, `SELECT `+taskColumns+taskFrom+` WHERE t.id = $1`, id))
	}
	return scanTask(r.pool.QueryRow(ctx, `SELECT `+taskColumns+taskFrom+` WHERE t.id = $1 AND t.user_id = $2`, id, viewer.UserID))
}

// Create inserts a task owned by userID and returns the stored row.
func (r *Repository) Create(ctx context.Context, userID int64, in CreateInput) (*Task, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO tasks (user_id, title, description, status, priority, due_date, tags, assigned_to)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		userID, in.Title, in.Description, in.Status, in.Priority, in.DueDate, in.Tags, in.AssignedTo,
	).Scan(&id)
	if err != nil {
		return nil, err
	}
	return scanTask(r.pool.QueryRow(ctx, `SELECT `+taskColumns+taskFrom+` WHERE t.id = $1`, id))
}

// Update patches a task inside one transaction: read the scoped row,
// merge, write, and return the result.
func (r *Repository) Update(ctx context.Context, id int64, in UpdateInput, viewer identity.RoleAware) (*Task, error) {
	var updated *Task
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var current *Task
		var err error
		if viewer.IsAdmin() {
			current, err = scanTask(tx.QueryRow(ctx, `SELECT `+taskColumns+taskFrom+` WHERE t.id = $1`, id))
		} else {
			current, err = scanTask(tx.QueryRow(ctx, `SELECT `+taskColumns+taskFrom+` WHERE t.id = $1 AND t.user_id = $2`, id, viewer.UserID))
		}
		if err != nil {
			return err
		}

		title := current.Title
		if in.Title != nil {
			title = *in.Title
		}
		status := current.Status
		if in.Status != nil {
			status = *in.Status
		}
		priority := current.Priority
		if in.Priority != nil {
			priority = *in.Priority
		}
		description := current.Description
		if in.Description != nil {
			description = in.Description
		}
		dueDate := current.DueDate
		if in.DueDate != nil {
			dueDate = in.DueDate
		}
		tags := current.Tags
		if in.Tags != nil {
			tags = in.Tags
		}
		assignedTo := current.AssignedTo
		if in.AssignedTo != nil {
			assignedTo = in.AssignedTo
		}

		_, err = tx.Exec(ctx,
			`UPDATE tasks
			 SET title = $1, description = $2, status = $3, priority = $4, due_date = $5, tags = $6, assigned_to = $7, updated_at = $8
			 WHERE id = $9`,
			title, description, status, priority, dueDate, tags, assignedTo, time.Now().UTC(), id)
		if err != nil {
			return err
		}

		updated, err = scanTask(tx.QueryRow(ctx, `SELECT `+taskColumns+taskFrom+` WHERE t.id = $1`, id))
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a task, scoped to the viewer's own rows unless the
// viewer is an admin.
func (r *Repository) Delete(ctx context.Context, id int64, viewer identity.RoleAware) error {
	var tag pgconn.CommandTag
	var err error
	if viewer.IsAdmin() {
		tag, err = r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	} else {
		tag, err = r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, viewer.UserID)
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// StatusStats aggregates counts by status for the viewer's scope.
func (r *Repository) StatusStats(ctx context.Context, viewer identity.RoleAware) (StatusStats, error) {
	query := `SELECT
		COALESCE(SUM(CASE WHEN status = 'todo' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN status = 'doing' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN status = 'done' THEN 1 ELSE 0 END), 0)
	 FROM tasks`
	args := []any{}
	if !viewer.IsAdmin() {
		query += ` WHERE user_id = $1`
		args = append(args, viewer.UserID)
	}
	var stats StatusStats
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&stats.Todo, &stats.Doing, &stats.Done); err != nil {
		return StatusStats{}, err
	}
	return stats, nil
}
