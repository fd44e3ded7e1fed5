package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/taskhive/taskhive/internal/identity"
	"github.com/taskhive/taskhive/internal/platform/httpx"
	"github.com/taskhive/taskhive/internal/realip"
)

// FailureCounter observes failed authentication attempts.
type FailureCounter interface {
	AuthFailure(reason string)
}

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	extractor *identity.Extractor
	validator *validator.Validate
	metrics   FailureCounter
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, extractor *identity.Extractor) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		extractor: extractor,
		validator: validator.New(),
	}
}

// WithMetrics attaches a failure counter.
func (h *Handler) WithMetrics(m FailureCounter) *Handler {
	h.metrics = m
	return h
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/auth/register", h.handleRegister)
	r.Post("/auth/login", h.handleLogin)
	r.With(h.extractor.RequireBasic).Get("/me", h.handleMe)
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=100"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type userResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

func toUserResponse(user *User) userResponse {
	return userResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var payload registerRequest
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}

	user, err := h.service.Register(r.Context(), payload.Name, payload.Email, payload.Password)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("user registered", slog.Int64("user_id", user.ID))
	httpx.JSON(w, http.StatusCreated, toUserResponse(user))
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginRequest
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}

	raw, user, err := h.service.Login(r.Context(), LoginInput{
		Email:     payload.Email,
		Password:  payload.Password,
		IP:        realip.FromRequest(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		if h.metrics != nil && errors.Is(err, httpx.ErrInvalidCredentials) {
			h.metrics.AuthFailure("invalid_credentials")
		}
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("login succeeded", slog.Int64("user_id", user.ID))
	httpx.JSON(w, http.StatusOK, loginResponse{Token: raw, User: toUserResponse(user)})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	id, ok := identity.BasicFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthenticated)
		return
	}
	user, err := h.service.CurrentUser(r.Context(), id.UserID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toUserResponse(user))
}
