package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AbuseScanJob aggregates recent failed login attempts per IP and reports
// sources that look like credential stuffing. It only reads the audit
// trail; blocking stays with the request-path limiter.
type AbuseScanJob struct {
	Pool   *pgxpool.Pool
	Logger *slog.Logger
	clock  func() time.Time
}

// NewAbuseScanJob initialises the abuse scan handler.
func NewAbuseScanJob(pool *pgxpool.Pool, logger *slog.Logger) *AbuseScanJob {
	return &AbuseScanJob{
		Pool:   pool,
		Logger: logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

type suspiciousSource struct {
	IP       string
	Failures int64
	Emails   int64
	LastSeen time.Time
}

// Handle executes the abuse scan logic.
func (j *AbuseScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("abuse scan: handler not configured")
	}
	var payload AbuseScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.WindowHours <= 0 {
		payload.WindowHours = 24
	}
	if payload.FailureThreshold <= 0 {
		payload.FailureThreshold = 20
	}

	start := j.now()
	logger := j.logger().With(
		slog.Int("window_hours", payload.WindowHours),
		slog.Int("failure_threshold", payload.FailureThreshold),
	)
	logger.Info("starting abuse scan")

	sources, err := j.scan(ctx, payload, start)
	if err != nil {
		logger.Error("scan failed", slog.Any("error", err))
		return err
	}

	for _, s := range sources {
		logger.Warn("suspicious login source detected",
			slog.String("ip", s.IP),
			slog.Int64("failed_attempts", s.Failures),
			slog.Int64("distinct_emails", s.Emails),
			slog.Time("last_seen", s.LastSeen),
		)
	}

	logger.Info("completed abuse scan",
		slog.Int("suspicious_sources", len(sources)),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func (j *AbuseScanJob) scan(ctx context.Context, payload AbuseScanPayload, now time.Time) ([]suspiciousSource, error) {
	if j.Pool == nil {
		return nil, errors.New("abuse scan: pool not configured")
	}
	since := now.Add(-time.Duration(payload.WindowHours) * time.Hour)
	rows, err := j.Pool.Query(ctx,
		`SELECT ip_address, COUNT(id), COUNT(DISTINCT email), MAX(created_at)
		 FROM login_attempts
		 WHERE NOT success AND created_at >= $1
		 GROUP BY ip_address
		 HAVING COUNT(id) >= $2
		 ORDER BY COUNT(id) DESC`,
		since, payload.FailureThreshold)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sources []suspiciousSource
	for rows.Next() {
		var s suspiciousSource
		if err := rows.Scan(&s.IP, &s.Failures, &s.Emails, &s.LastSeen); err != nil {
			return nil, err
		}
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

func (j *AbuseScanJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}

func (j *AbuseScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
