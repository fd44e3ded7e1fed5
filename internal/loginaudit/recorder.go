// Package loginaudit keeps an append-only trail of login attempts.
//
// The trail is consumed only for offline abuse analysis; request gating
// belongs to the rate limiter.
package loginaudit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Attempt is one login attempt, successful or not. Rows are write-once,
// never updated or deleted.
type Attempt struct {
	ID        string
	IPAddress string
	Email     *string
	Success   bool
	UserAgent *string
	CreatedAt time.Time
}

// Recorder appends attempts to the audit trail.
type Recorder interface {
	Record(ctx context.Context, ip string, email *string, success bool, userAgent *string) error
}

// PGRecorder implements Recorder on PostgreSQL.
type PGRecorder struct {
	pool *pgxpool.Pool
}

// NewPGRecorder constructs a PostgreSQL-backed recorder.
func NewPGRecorder(pool *pgxpool.Pool) *PGRecorder {
	return &PGRecorder{pool: pool}
}

// Record appends one row unconditionally. Failures propagate: a broken
// audit path is a correctness problem, not best-effort telemetry.
func (r *PGRecorder) Record(ctx context.Context, ip string, email *string, success bool, userAgent *string) error {
	if ip == "" {
		return errors.New("loginaudit: ip address required")
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO login_attempts (id, ip_address, email, success, user_agent, created_at)
		 VALUES ($1, $2, $3, $4, $5, NOW())`,
		uuid.NewString(), ip, email, success, userAgent,
	)
	return err
}

var _ Recorder = (*PGRecorder)(nil)
