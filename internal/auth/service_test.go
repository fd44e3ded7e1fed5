package auth_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskhive/taskhive/internal/auth"
	"github.com/taskhive/taskhive/internal/platform/httpx"
	"github.com/taskhive/taskhive/internal/token"
)

type stubRepo struct {
	user      *auth.User
	createErr error
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	if s.user == nil || s.user.Email != email {
		return nil, httpx.ErrNotFound
	}
	return s.user, nil
}

func (s *stubRepo) FindByID(ctx context.Context, id int64) (*auth.User, error) {
	if s.user == nil || s.user.ID != id {
		return nil, httpx.ErrNotFound
	}
	return s.user, nil
}

func (s *stubRepo) Create(ctx context.Context, name, email, passwordHash string) (*auth.User, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.user = &auth.User{ID: 1, Name: name, Email: email, Role: "user", PasswordHash: passwordHash}
	return s.user, nil
}

type recordedAttempt struct {
	IP      string
	Email   *string
	Success bool
}

type stubRecorder struct {
	attempts []recordedAttempt
	err      error
}

func (s *stubRecorder) Record(ctx context.Context, ip string, email *string, success bool, userAgent *string) error {
	if s.err != nil {
		return s.err
	}
	s.attempts = append(s.attempts, recordedAttempt{IP: ip, Email: email, Success: success})
	return nil
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestLogin_Success(t *testing.T) {
	t.Parallel()

	repo := &stubRepo{user: &auth.User{ID: 7, Email: "ada@example.com", Role: "user", PasswordHash: hashed(t, "hunter22")}}
	recorder := &stubRecorder{}
	tokens := token.NewService("secret", 1)
	svc := auth.NewService(repo, tokens, recorder)

	raw, user, err := svc.Login(context.Background(), auth.LoginInput{
		Email: "ada@example.com", Password: "hunter22", IP: "203.0.113.5", UserAgent: "cli/1.0",
	})
	require.NoError(t, err)
	require.Equal(t, int64(7), user.ID)

	id, err := tokens.ExtractUserID(raw)
	require.NoError(t, err)
	require.Equal(t, int64(7), id)

	require.Len(t, recorder.attempts, 1)
	require.True(t, recorder.attempts[0].Success)
	require.Equal(t, "203.0.113.5", recorder.attempts[0].IP)
}

func TestLogin_WrongPassword(t *testing.T) {
	t.Parallel()

	repo := &stubRepo{user: &auth.User{ID: 7, Email: "ada@example.com", PasswordHash: hashed(t, "hunter22")}}
	recorder := &stubRecorder{}
	svc := auth.NewService(repo, token.NewService("secret", 1), recorder)

	_, _, err := svc.Login(context.Background(), auth.LoginInput{Email: "ada@example.com", Password: "wrong", IP: "203.0.113.5"})
	require.ErrorIs(t, err, httpx.ErrInvalidCredentials)

	require.Len(t, recorder.attempts, 1)
	require.False(t, recorder.attempts[0].Success)
}

func TestLogin_UnknownEmailLooksIdentical(t *testing.T) {
	t.Parallel()

	recorder := &stubRecorder{}
	svc := auth.NewService(&stubRepo{}, token.NewService("secret", 1), recorder)

	_, _, err := svc.Login(context.Background(), auth.LoginInput{Email: "nobody@example.com", Password: "whatever", IP: "203.0.113.5"})
	require.ErrorIs(t, err, httpx.ErrInvalidCredentials)

	// The failed lookup is still audited, with the attempted email.
	require.Len(t, recorder.attempts, 1)
	require.NotNil(t, recorder.attempts[0].Email)
	require.Equal(t, "nobody@example.com", *recorder.attempts[0].Email)
}

func TestLogin_BrokenAuditPathAborts(t *testing.T) {
	t.Parallel()

	repo := &stubRepo{user: &auth.User{ID: 7, Email: "ada@example.com", PasswordHash: hashed(t, "hunter22")}}
	auditErr := errors.New("disk full")
	svc := auth.NewService(repo, token.NewService("secret", 1), &stubRecorder{err: auditErr})

	_, _, err := svc.Login(context.Background(), auth.LoginInput{Email: "ada@example.com", Password: "hunter22", IP: "203.0.113.5"})
	require.ErrorIs(t, err, auditErr)
	require.NotErrorIs(t, err, httpx.ErrInvalidCredentials)
}

func TestRegister_HashesPassword(t *testing.T) {
	t.Parallel()

	repo := &stubRepo{}
	svc := auth.NewService(repo, token.NewService("secret", 1), &stubRecorder{})

	user, err := svc.Register(context.Background(), "Ada", "ada@example.com", "hunter22")
	require.NoError(t, err)
	require.Equal(t, "user", user.Role)
	require.NotEqual(t, "hunter22", user.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("hunter22")))
}

func TestRegister_DuplicateEmail(t *testing.T) {
	t.Parallel()

	svc := auth.NewService(&stubRepo{createErr: httpx.ErrDuplicate}, token.NewService("secret", 1), &stubRecorder{})

	_, err := svc.Register(context.Background(), "Ada", "ada@example.com", "hunter22")
	require.ErrorIs(t, err, httpx.ErrDuplicate)
}
