package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Record mirrors a rate_limits row. At most one record exists per
// (ip_address, endpoint) pair.
type Record struct {
	IPAddress    string
	Endpoint     string
	RequestCount int
	WindowStart  time.Time
	BlockedUntil *time.Time
	UpdatedAt    time.Time
}

// Store persists sliding-window counters and block state. A nil record
// with a nil error means "first request ever seen", which must never be
// conflated with a store failure.
type Store interface {
	// Find returns the record for the pair, or nil when none exists.
	Find(ctx context.Context, ip, endpoint string) (*Record, error)
	// IncrementInWindow bumps request_count only when the stored
	// window_start is still after windowFloor. It reports the resulting
	// count and whether a row matched.
	IncrementInWindow(ctx context.Context, ip, endpoint string, windowFloor, now time.Time) (int, bool, error)
	// StartWindow replaces the record with a fresh one: count 1, window
	// starting now, block cleared.
	StartWindow(ctx context.Context, ip, endpoint string, now time.Time) error
	// Block stamps blocked_until on the record.
	Block(ctx context.Context, ip, endpoint string, until, now time.Time) error
}

// PGStore implements Store on PostgreSQL. Row-level semantics of the
// individual statements are the only concurrency control.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore constructs a PostgreSQL-backed store.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// Find returns the record for the pair, or nil when none exists.
func (s *PGStore) Find(ctx context.Context, ip, endpoint string) (*Record, error) {
	record := Record{IPAddress: ip, Endpoint: endpoint}
	err := s.pool.QueryRow(ctx,
		`SELECT request_count, window_start, blocked_until, updated_at
		 FROM rate_limits
		 WHERE ip_address = $1 AND endpoint = $2`,
		ip, endpoint,
	).Scan(&record.RequestCount, &record.WindowStart, &record.BlockedUntil, &record.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// IncrementInWindow bumps the counter when the stored window is still open.
func (s *PGStore) IncrementInWindow(ctx context.Context, ip, endpoint string, windowFloor, now time.Time) (int, bool, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`UPDATE rate_limits
		 SET request_count = request_count + 1, updated_at = $3
		 WHERE ip_address = $1 AND endpoint = $2 AND window_start > $4
		 RETURNING request_count`,
		ip, endpoint, now, windowFloor,
	).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return count, true, nil
}

// StartWindow upserts a fresh record for the pair.
func (s *PGStore) StartWindow(ctx context.Context, ip, endpoint string, now time.Time) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO rate_limits (ip_address, endpoint, request_count, window_start, blocked_until, updated_at)
		 VALUES ($1, $2, 1, $3, NULL, $3)
		 ON CONFLICT (ip_address, endpoint) DO UPDATE
		 SET request_count = 1, window_start = EXCLUDED.window_start, blocked_until = NULL, updated_at = EXCLUDED.updated_at`,
		ip, endpoint, now,
	)
	return err
}

// Block stamps the stored deadline for the pair.
func (s *PGStore) Block(ctx context.Context, ip, endpoint string, until, now time.Time) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE rate_limits
		 SET blocked_until = $3, updated_at = $4
		 WHERE ip_address = $1 AND endpoint = $2`,
		ip, endpoint, until, now,
	)
	return err
}

var _ Store = (*PGStore)(nil)
