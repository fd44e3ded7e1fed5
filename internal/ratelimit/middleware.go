package ratelimit

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/taskhive/taskhive/internal/platform/httpx"
	"github.com/taskhive/taskhive/internal/realip"
)

// RejectCounter observes requests turned away by an active block.
type RejectCounter interface {
	RateLimitRejected(endpoint string)
}

// Limiter wraps every route with the sliding-window check. All its state
// lives in the store; nothing mutable is shared in-process.
type Limiter struct {
	store   Store
	rules   Rules
	logger  *slog.Logger
	metrics RejectCounter
	clock   func() time.Time
}

// NewLimiter constructs a Limiter with the default rule set.
func NewLimiter(store Store, logger *slog.Logger) *Limiter {
	return &Limiter{
		store:  store,
		rules:  DefaultRules,
		logger: logger,
		clock:  time.Now,
	}
}

// WithMetrics attaches a rejection counter.
func (l *Limiter) WithMetrics(m RejectCounter) *Limiter {
	l.metrics = m
	return l
}

// Middleware rejects requests from blocked pairs before the handler runs
// and counts the request after it returns, whatever its outcome.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := realip.FromRequest(r)
		endpoint := r.URL.Path
		policy := l.rules.Match(endpoint)
		now := l.clock()

		record, err := l.store.Find(r.Context(), ip, endpoint)
		if err != nil {
			// Fail closed: a store outage must never grant access.
			l.logger.Error("rate limit lookup", slog.Any("error", err), slog.String("ip", ip), slog.String("endpoint", endpoint))
			httpx.RespondError(w, err)
			return
		}
		if record != nil && record.BlockedUntil != nil && now.Before(*record.BlockedUntil) {
			l.logger.Warn("request from blocked ip rejected",
				slog.String("ip", ip),
				slog.String("endpoint", endpoint),
				slog.Time("blocked_until", *record.BlockedUntil))
			if l.metrics != nil {
				l.metrics.RateLimitRejected(endpoint)
			}
			httpx.RespondError(w, &httpx.BlockedError{Until: *record.BlockedUntil})
			return
		}

		next.ServeHTTP(w, r)

		// The check above and this update are not atomic: concurrent
		// requests for the same pair can race past the threshold. The
		// limiter is a best-effort deterrent, not an exact bound.
		ctx := context.WithoutCancel(r.Context())
		if err := l.count(ctx, ip, endpoint, policy); err != nil {
			// The response is already on the wire, so this cannot abort
			// the request anymore. Surface it loudly instead.
			l.logger.Error("rate limit update", slog.Any("error", err), slog.String("ip", ip), slog.String("endpoint", endpoint))
		}
	})
}

func (l *Limiter) count(ctx context.Context, ip, endpoint string, policy Policy) error {
	now := l.clock()
	windowFloor := now.Add(-policy.Window)

	count, updated, err := l.store.IncrementInWindow(ctx, ip, endpoint, windowFloor, now)
	if err != nil {
		return err
	}
	if !updated {
		// No record, or the window expired: start fresh.
		return l.store.StartWindow(ctx, ip, endpoint, now)
	}
	if count > policy.Limit {
		until := now.Add(policy.Block)
		l.logger.Warn("ip blocked for exceeding rate limit",
			slog.String("ip", ip),
			slog.String("endpoint", endpoint),
			slog.Int("count", count),
			slog.Time("blocked_until", until))
		return l.store.Block(ctx, ip, endpoint, until, now)
	}
	return nil
}
