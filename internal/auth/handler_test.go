package auth_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/taskhive/internal/auth"
	"github.com/taskhive/taskhive/internal/identity"
	"github.com/taskhive/taskhive/internal/token"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRouter(t *testing.T, repo auth.Repository, recorder *stubRecorder) (*chi.Mux, *token.Service) {
	t.Helper()
	tokens := token.NewService("test-secret", 1)
	svc := auth.NewService(repo, tokens, recorder)
	extractor := identity.NewExtractor(tokens, nil)
	handler := auth.NewHandler(discardLogger(), svc, extractor)
	router := chi.NewRouter()
	handler.MountRoutes(router)
	return router, tokens
}

func TestHandleLogin(t *testing.T) {
	t.Parallel()

	repo := &stubRepo{user: &auth.User{ID: 3, Name: "Ada", Email: "ada@example.com", Role: "user", PasswordHash: hashed(t, "hunter22")}}
	recorder := &stubRecorder{}
	router, tokens := newRouter(t, repo, recorder)

	body := `{"email":"ada@example.com","password":"hunter22"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.RemoteAddr = "192.0.2.10:33000"
	req.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code)

	var payload struct {
		Token string `json:"token"`
		User  struct {
			ID    int64  `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &payload))
	require.Equal(t, int64(3), payload.User.ID)

	id, err := tokens.ExtractUserID(payload.Token)
	require.NoError(t, err)
	require.Equal(t, int64(3), id)

	// The audit row uses the proxy-resolved client address.
	require.Len(t, recorder.attempts, 1)
	require.Equal(t, "203.0.113.5", recorder.attempts[0].IP)
}

func TestHandleLogin_InvalidCredentials(t *testing.T) {
	t.Parallel()

	repo := &stubRepo{user: &auth.User{ID: 3, Email: "ada@example.com", PasswordHash: hashed(t, "hunter22")}}
	recorder := &stubRecorder{}
	router, _ := newRouter(t, repo, recorder)

	body := `{"email":"ada@example.com","password":"wrongpass"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.RemoteAddr = "192.0.2.10:33000"
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusUnauthorized, res.Code)
	require.NotContains(t, res.Body.String(), "password")
	require.Len(t, recorder.attempts, 1)
	require.False(t, recorder.attempts[0].Success)
}

func TestHandleRegister_Validation(t *testing.T) {
	t.Parallel()

	router, _ := newRouter(t, &stubRepo{}, &stubRecorder{})

	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "valid", body: `{"name":"Ada","email":"ada@example.com","password":"hunter22"}`, want: http.StatusCreated},
		{name: "short name", body: `{"name":"A","email":"ada@example.com","password":"hunter22"}`, want: http.StatusBadRequest},
		{name: "bad email", body: `{"name":"Ada","email":"not-an-email","password":"hunter22"}`, want: http.StatusBadRequest},
		{name: "short password", body: `{"name":"Ada","email":"ada@example.com","password":"abc"}`, want: http.StatusBadRequest},
		{name: "not json", body: `name=Ada`, want: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(tt.body))
			res := httptest.NewRecorder()
			router.ServeHTTP(res, req)
			require.Equal(t, tt.want, res.Code)
		})
	}
}

func TestHandleMe(t *testing.T) {
	t.Parallel()

	repo := &stubRepo{user: &auth.User{ID: 3, Name: "Ada", Email: "ada@example.com", Role: "user"}}
	router, tokens := newRouter(t, repo, &stubRecorder{})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	require.Equal(t, http.StatusUnauthorized, res.Code)

	raw, err := tokens.Issue(3)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	res = httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	require.Contains(t, res.Body.String(), "ada@example.com")
	require.NotContains(t, res.Body.String(), "password")
}
