package identity_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/taskhive/taskhive/internal/identity"
	"github.com/taskhive/taskhive/internal/platform/httpx"
	"github.com/taskhive/taskhive/internal/token"
)

type stubDirectory struct {
	profiles map[int64]*identity.Profile
	err      error
}

func (s *stubDirectory) FindProfile(ctx context.Context, userID int64) (*identity.Profile, error) {
	if s.err != nil {
		return nil, s.err
	}
	profile, ok := s.profiles[userID]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	return profile, nil
}

func newExtractor(dir *stubDirectory) (*identity.Extractor, *token.Service) {
	tokens := token.NewService("test-secret", 1)
	return identity.NewExtractor(tokens, dir), tokens
}

func authedRequest(t *testing.T, tokens *token.Service, userID int64) *http.Request {
	t.Helper()
	raw, err := tokens.Issue(userID)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	return req
}

func TestBasic_HeaderEdgeCases(t *testing.T) {
	t.Parallel()

	extractor, tokens := newExtractor(&stubDirectory{})

	tests := []struct {
		name   string
		header string
	}{
		{name: "absent header", header: ""},
		{name: "wrong scheme", header: "Basic dXNlcjpwYXNz"},
		{name: "bearer with garbage payload", header: "Bearer not-a-token"},
		{name: "bearer lowercase scheme", header: "bearer sometoken"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			_, err := extractor.Basic(req)
			if !errors.Is(err, httpx.ErrUnauthenticated) {
				t.Fatalf("expected ErrUnauthenticated, got %v", err)
			}
		})
	}

	// A valid token yields the user id from the subject.
	req := authedRequest(t, tokens, 42)
	id, err := extractor.Basic(req)
	if err != nil {
		t.Fatalf("Basic: %v", err)
	}
	if id.UserID != 42 {
		t.Fatalf("user id mismatch: got %d want 42", id.UserID)
	}
}

func TestRoleAware_ReadsRoleLive(t *testing.T) {
	t.Parallel()

	dir := &stubDirectory{profiles: map[int64]*identity.Profile{
		1: {Name: "Ada", Email: "ada@example.com", Role: "user"},
	}}
	extractor, tokens := newExtractor(dir)

	req := authedRequest(t, tokens, 1)
	user, err := extractor.RoleAware(context.Background(), req)
	if err != nil {
		t.Fatalf("RoleAware: %v", err)
	}
	if user.Role != identity.RoleUser || user.IsAdmin() {
		t.Fatalf("expected plain user, got %+v", user)
	}

	// Promote the user in the store; the same token must pass the admin
	// gate on the very next request.
	dir.profiles[1].Role = "admin"

	admin, err := extractor.Admin(context.Background(), authedRequest(t, tokens, 1))
	if err != nil {
		t.Fatalf("Admin after promotion: %v", err)
	}
	if admin.Email != "ada@example.com" || admin.Name != "Ada" {
		t.Fatalf("unexpected admin identity: %+v", admin)
	}
}

func TestRoleAware_DeletedUser(t *testing.T) {
	t.Parallel()

	extractor, tokens := newExtractor(&stubDirectory{profiles: map[int64]*identity.Profile{}})

	_, err := extractor.RoleAware(context.Background(), authedRequest(t, tokens, 9))
	if !errors.Is(err, httpx.ErrUnauthenticated) {
		t.Fatalf("deleted account must be unauthenticated, got %v", err)
	}
}

func TestRoleAware_StoreOutageFailsClosed(t *testing.T) {
	t.Parallel()

	storeErr := errors.New("connection refused")
	extractor, tokens := newExtractor(&stubDirectory{err: storeErr})

	_, err := extractor.RoleAware(context.Background(), authedRequest(t, tokens, 1))
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected store error to propagate, got %v", err)
	}
	if errors.Is(err, httpx.ErrUnauthenticated) {
		t.Fatalf("store outage must not be conflated with a missing user")
	}
}

func TestAdmin_NonAdminIsForbidden(t *testing.T) {
	t.Parallel()

	dir := &stubDirectory{profiles: map[int64]*identity.Profile{
		2: {Name: "Bob", Email: "bob@example.com", Role: "user"},
	}}
	extractor, tokens := newExtractor(dir)

	_, err := extractor.Admin(context.Background(), authedRequest(t, tokens, 2))
	if !errors.Is(err, httpx.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if errors.Is(err, httpx.ErrUnauthenticated) {
		t.Fatalf("valid non-admin identity must never be unauthenticated")
	}
}

func TestRequireAdmin_StatusCodes(t *testing.T) {
	t.Parallel()

	dir := &stubDirectory{profiles: map[int64]*identity.Profile{
		1: {Name: "Ada", Email: "ada@example.com", Role: "admin"},
		2: {Name: "Bob", Email: "bob@example.com", Role: "user"},
	}}
	extractor, tokens := newExtractor(dir)

	var sawAdmin identity.Admin
	handler := extractor.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawAdmin, _ = identity.AdminFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, authedRequest(t, tokens, 1))
	if res.Code != http.StatusOK {
		t.Fatalf("admin request: got status %d", res.Code)
	}
	if sawAdmin.Email != "ada@example.com" {
		t.Fatalf("admin identity missing from context: %+v", sawAdmin)
	}

	res = httptest.NewRecorder()
	handler.ServeHTTP(res, authedRequest(t, tokens, 2))
	if res.Code != http.StatusForbidden {
		t.Fatalf("non-admin request: got status %d, want 403", res.Code)
	}

	res = httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/admin/stats", nil))
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous request: got status %d, want 401", res.Code)
	}
}

func TestParseRole(t *testing.T) {
	t.Parallel()

	if got := identity.ParseRole("ADMIN"); got != identity.RoleAdmin {
		t.Fatalf("ParseRole(ADMIN) = %q", got)
	}
	if got := identity.ParseRole("superuser"); got != identity.RoleUser {
		t.Fatalf("unknown roles must degrade to user, got %q", got)
	}
}
