package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/taskhive/taskhive/internal/identity"
	"github.com/taskhive/taskhive/internal/platform/httpx"
)

// Lister is the read side used by the admin surface to reuse task
// queries for arbitrary users.
type Lister interface {
	List(ctx context.Context, q Query, viewer identity.RoleAware) ([]Task, int, error)
}

type repository interface {
	Lister
	FindByID(ctx context.Context, id int64, viewer identity.RoleAware) (*Task, error)
	Create(ctx context.Context, userID int64, in CreateInput) (*Task, error)
	Update(ctx context.Context, id int64, in UpdateInput, viewer identity.RoleAware) (*Task, error)
	Delete(ctx context.Context, id int64, viewer identity.RoleAware) error
	StatusStats(ctx context.Context, viewer identity.RoleAware) (StatusStats, error)
}

// Service validates and executes task operations.
type Service struct {
	repo         repository
	allowPastDue bool
	clock        func() time.Time
}

// NewService constructs a service. allowPastDue permits due dates in the
// past, which is useful when importing historical data.
func NewService(repo repository, allowPastDue bool) *Service {
	return &Service{repo: repo, allowPastDue: allowPastDue, clock: time.Now}
}

func validStatus(s string) bool {
	return s == StatusTodo || s == StatusDoing || s == StatusDone
}

func validPriority(p string) bool {
	return p == PriorityLow || p == PriorityMed || p == PriorityHigh
}

func (s *Service) checkDueDate(due *time.Time) error {
	if due == nil || s.allowPastDue {
		return nil
	}
	if due.Before(s.clock()) {
		return fmt.Errorf("%w: due_date must not be in the past", httpx.ErrValidation)
	}
	return nil
}

// hideOwner strips the joined owner columns for non-admin viewers.
func hideOwner(task *Task, viewer identity.RoleAware) {
	if !viewer.IsAdmin() {
		task.OwnerName = nil
		task.OwnerEmail = nil
	}
}

// Create stores a new task owned by the caller. Missing status and
// priority default to todo/med.
func (s *Service) Create(ctx context.Context, userID int64, in CreateInput) (*Task, error) {
	if in.Status == "" {
		in.Status = StatusTodo
	}
	if in.Priority == "" {
		in.Priority = PriorityMed
	}
	if !validStatus(in.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, in.Status)
	}
	if !validPriority(in.Priority) {
		return nil, fmt.Errorf("%w: unknown priority %q", httpx.ErrValidation, in.Priority)
	}
	if err := s.checkDueDate(in.DueDate); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, userID, in)
}

// List returns a page of tasks scoped to the viewer.
func (s *Service) List(ctx context.Context, q Query, viewer identity.RoleAware) ([]Task, int, error) {
	list, total, err := s.repo.List(ctx, q, viewer)
	if err != nil {
		return nil, 0, err
	}
	for i := range list {
		hideOwner(&list[i], viewer)
	}
	return list, total, nil
}

// Get fetches one task scoped to the viewer.
func (s *Service) Get(ctx context.Context, id int64, viewer identity.RoleAware) (*Task, error) {
	task, err := s.repo.FindByID(ctx, id, viewer)
	if err != nil {
		return nil, err
	}
	hideOwner(task, viewer)
	return task, nil
}

// Update patches a task scoped to the viewer.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput, viewer identity.RoleAware) (*Task, error) {
	if in.Status != nil && !validStatus(*in.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, *in.Status)
	}
	if in.Priority != nil && !validPriority(*in.Priority) {
		return nil, fmt.Errorf("%w: unknown priority %q", httpx.ErrValidation, *in.Priority)
	}
	if in.Title != nil && *in.Title == "" {
		return nil, fmt.Errorf("%w: title must not be empty", httpx.ErrValidation)
	}
	if err := s.checkDueDate(in.DueDate); err != nil {
		return nil, err
	}
	task, err := s.repo.Update(ctx, id, in, viewer)
	if err != nil {
		return nil, err
	}
	hideOwner(task, viewer)
	return task, nil
}

// Delete removes a task scoped to the viewer.
func (s *Service) Delete(ctx context.Context, id int64, viewer identity.RoleAware) error {
	return s.repo.Delete(ctx, id, viewer)
}

// Stats aggregates the viewer's task counts by status.
func (s *Service) Stats(ctx context.Context, viewer identity.RoleAware) (StatusStats, error) {
	return s.repo.StatusStats(ctx, viewer)
}
