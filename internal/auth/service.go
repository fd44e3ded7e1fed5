package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/taskhive/taskhive/internal/loginaudit"
	"github.com/taskhive/taskhive/internal/platform/httpx"
	"github.com/taskhive/taskhive/internal/token"
)

// Service wraps authentication business rules.
type Service struct {
	repo     Repository
	tokens   *token.Service
	attempts loginaudit.Recorder
}

// NewService constructs a new Service.
func NewService(repo Repository, tokens *token.Service, attempts loginaudit.Recorder) *Service {
	return &Service{repo: repo, tokens: tokens, attempts: attempts}
}

// LoginInput carries the credentials plus the request metadata recorded in
// the audit trail.
type LoginInput struct {
	Email     string
	Password  string
	IP        string
	UserAgent string
}

// Register creates an account with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, name, email, password string) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}
	return s.repo.Create(ctx, name, email, string(hash))
}

// Login validates credentials and issues a token. Every attempt is
// recorded, and a recorder failure aborts the login: a broken audit path
// is treated as an internal error, not best-effort telemetry. Lookup
// misses and password mismatches are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, in LoginInput) (string, *User, error) {
	user, err := s.repo.FindByEmail(ctx, in.Email)
	if err != nil {
		if !errors.Is(err, httpx.ErrNotFound) {
			return "", nil, err
		}
		if auditErr := s.record(ctx, in, false); auditErr != nil {
			return "", nil, auditErr
		}
		return "", nil, httpx.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		if auditErr := s.record(ctx, in, false); auditErr != nil {
			return "", nil, auditErr
		}
		return "", nil, httpx.ErrInvalidCredentials
	}

	if err := s.record(ctx, in, true); err != nil {
		return "", nil, err
	}

	raw, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", nil, fmt.Errorf("auth: issue token: %w", err)
	}
	return raw, user, nil
}

// CurrentUser fetches the authenticated user's row.
func (s *Service) CurrentUser(ctx context.Context, id int64) (*User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *Service) record(ctx context.Context, in LoginInput, success bool) error {
	var email, agent *string
	if in.Email != "" {
		email = &in.Email
	}
	if in.UserAgent != "" {
		agent = &in.UserAgent
	}
	if err := s.attempts.Record(ctx, in.IP, email, success, agent); err != nil {
		return fmt.Errorf("auth: record login attempt: %w", err)
	}
	return nil
}
