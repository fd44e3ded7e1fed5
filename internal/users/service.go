package users

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/taskhive/taskhive/internal/identity"
)

const statsCacheKey = "admin:system_stats"

// Service implements the directory and admin operations.
type Service struct {
	repo  Repository
	cache *StatsCache
	clock func() time.Time
}

// NewService constructs a Service. cache may be nil.
func NewService(repo Repository, cache *StatsCache) *Service {
	return &Service{repo: repo, cache: cache, clock: time.Now}
}

// Assignees lists every user with open task counts.
func (s *Service) Assignees(ctx context.Context) ([]Assignee, error) {
	return s.repo.ListAssignees(ctx)
}

// Summaries lists one admin page of users.
func (s *Service) Summaries(ctx context.Context, limit, offset int) ([]Summary, int, error) {
	return s.repo.ListSummaries(ctx, limit, offset)
}

// ChangeRole updates a user's role and drops the cached dashboard so the
// user totals reflect the change immediately.
func (s *Service) ChangeRole(ctx context.Context, userID int64, role identity.Role) error {
	if err := s.repo.UpdateRole(ctx, userID, role); err != nil {
		return err
	}
	return s.cache.Invalidate(ctx, statsCacheKey)
}

// Stats returns the admin dashboard counters, served from Redis when a
// fresh copy exists. The three aggregate queries run in parallel.
func (s *Service) Stats(ctx context.Context) (SystemStats, error) {
	var stats SystemStats
	err := s.cache.FetchJSON(ctx, statsCacheKey, &stats, func(ctx context.Context) (interface{}, error) {
		return s.collect(ctx)
	})
	if err != nil {
		return SystemStats{}, err
	}
	return stats, nil
}

func (s *Service) collect(ctx context.Context) (SystemStats, error) {
	now := s.clock().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var stats SystemStats
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		total, createdToday, err := s.repo.UserCounts(ctx, dayStart)
		if err != nil {
			return err
		}
		stats.TotalUsers = total
		stats.UsersCreatedToday = createdToday
		return nil
	})

	g.Go(func() error {
		c, err := s.repo.TaskCounts(ctx, dayStart)
		if err != nil {
			return err
		}
		stats.TotalTasks = c.Total
		stats.TasksTodo = c.Todo
		stats.TasksDoing = c.Doing
		stats.TasksDone = c.Done
		stats.TasksLowPriority = c.Low
		stats.TasksMedPriority = c.Med
		stats.TasksHighPriority = c.High
		stats.TasksCreatedToday = c.CreatedToday
		return nil
	})

	g.Go(func() error {
		ok, failed, err := s.repo.LoginCounts(ctx, dayStart)
		if err != nil {
			return err
		}
		stats.LoginsToday = ok
		stats.FailedLoginsToday = failed
		return nil
	})

	if err := g.Wait(); err != nil {
		return SystemStats{}, err
	}
	return stats, nil
}
