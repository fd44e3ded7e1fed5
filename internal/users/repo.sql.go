package users

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskhive/taskhive/internal/identity"
	"github.com/taskhive/taskhive/internal/platform/httpx"
)

// Repository defines persistence operations for the user directory and
// the admin surface.
type Repository interface {
	identity.Directory
	ListAssignees(ctx context.Context) ([]Assignee, error)
	ListSummaries(ctx context.Context, limit, offset int) ([]Summary, int, error)
	UpdateRole(ctx context.Context, userID int64, role identity.Role) error

	// Stat collectors, one per table so the service can fan them out.
	UserCounts(ctx context.Context, since time.Time) (total, createdToday int64, err error)
	TaskCounts(ctx context.Context, since time.Time) (TaskCounts, error)
	LoginCounts(ctx context.Context, since time.Time) (ok, failed int64, err error)
}

// TaskCounts carries the task-side aggregates for the dashboard.
type TaskCounts struct {
	Total        int64
	Todo         int64
	Doing        int64
	Done         int64
	Low          int64
	Med          int64
	High         int64
	CreatedToday int64
}

// PGRepository implements Repository on PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

var _ Repository = (*PGRepository)(nil)

// NewPGRepository constructs a PGRepository.
func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindProfile reads the live user profile. The role chain depends on this
// hitting the store on every call, so no caching here.
func (r *PGRepository) FindProfile(ctx context.Context, userID int64) (*identity.Profile, error) {
	var p identity.Profile
	err := r.pool.QueryRow(ctx,
		`SELECT name, email, role FROM users WHERE id = $1`, userID,
	).Scan(&p.Name, &p.Email, &p.Role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// ListAssignees returns every user with their open task count, ordered by
// name for stable dropdowns.
func (r *PGRepository) ListAssignees(ctx context.Context) ([]Assignee, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT u.id, u.name, COUNT(t.id)
		 FROM users u
		 LEFT JOIN tasks t ON t.user_id = u.id AND t.status <> 'done'
		 GROUP BY u.id, u.name
		 ORDER BY u.name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []Assignee
	for rows.Next() {
		var a Assignee
		if err := rows.Scan(&a.ID, &a.Name, &a.TaskCount); err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

// ListSummaries returns one admin page of users plus the total user count.
func (r *PGRepository) ListSummaries(ctx context.Context, limit, offset int) ([]Summary, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(id) FROM users`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT u.id, u.name, u.email, u.role, COUNT(t.id), u.created_at
		 FROM users u
		 LEFT JOIN tasks t ON t.user_id = u.id
		 GROUP BY u.id, u.name, u.email, u.role, u.created_at
		 ORDER BY u.created_at DESC
		 LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []Summary
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &s.Role, &s.TaskCount, &s.CreatedAt); err != nil {
			return nil, 0, err
		}
		list = append(list, s)
	}
	return list, total, rows.Err()
}

// UpdateRole changes a user's role. The next request the target makes
// sees the new role because role lookups are never cached.
func (r *PGRepository) UpdateRole(ctx context.Context, userID int64, role identity.Role) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET role = $1, updated_at = NOW() WHERE id = $2`, string(role), userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// UserCounts returns the total user count and how many registered since
// the given instant.
func (r *PGRepository) UserCounts(ctx context.Context, since time.Time) (int64, int64, error) {
	var total, createdToday int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(id), COALESCE(SUM(CASE WHEN created_at >= $1 THEN 1 ELSE 0 END), 0) FROM users`,
		since,
	).Scan(&total, &createdToday)
	return total, createdToday, err
}

// TaskCounts aggregates task totals by status and priority in one scan.
func (r *PGRepository) TaskCounts(ctx context.Context, since time.Time) (TaskCounts, error) {
	var c TaskCounts
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(id),
			COALESCE(SUM(CASE WHEN status = 'todo' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'doing' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'done' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN priority = 'low' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN priority = 'med' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN priority = 'high' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN created_at >= $1 THEN 1 ELSE 0 END), 0)
		 FROM tasks`,
		since,
	).Scan(&c.Total, &c.Todo, &c.Doing, &c.Done, &c.Low, &c.Med, &c.High, &c.CreatedToday)
	if err != nil {
		return TaskCounts{}, err
	}
	return c, nil
}

// LoginCounts returns successful and failed login attempts since the
// given instant.
func (r *PGRepository) LoginCounts(ctx context.Context, since time.Time) (int64, int64, error) {
	var ok, failed int64
	err := r.pool.QueryRow(ctx,
		`SELECT
			COALESCE(SUM(CASE WHEN success THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN NOT success THEN 1 ELSE 0 END), 0)
		 FROM login_attempts WHERE created_at >= $1`,
		since,
	).Scan(&ok, &failed)
	return ok, failed, err
}
