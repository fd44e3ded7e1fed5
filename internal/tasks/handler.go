package tasks

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/taskhive/taskhive/internal/identity"
	"github.com/taskhive/taskhive/internal/platform/httpx"
	"github.com/taskhive/taskhive/internal/shared"
)

// Handler wires HTTP endpoints for task management.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	extractor *identity.Extractor
	validator *validator.Validate
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

// MountRoutes registers task routes on the provided router. Creation only
// needs the Basic tier; reads and writes that scope by role use RoleAware.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.extractor.RequireBasic).Post("/tasks", h.handleCreate)
	r.Group(func(r chi.Router) {
		r.Use(h.extractor.RequireRoleAware)
		r.Get("/tasks", h.handleList)
		r.Get("/tasks/stats", h.handleStats)
		r.Get("/tasks/{id}", h.handleGet)
		r.Put("/tasks/{id}", h.handleUpdate)
		r.Delete("/tasks/{id}", h.handleDelete)
	})
}

type createRequest struct {
	Title       string     `json:"title" validate:"required,min=1,max=200"`
	Description *string    `json:"description" validate:"omitempty,max=2000"`
	Status      string     `json:"status" validate:"omitempty,oneof=todo doing done"`
	Priority    string     `json:"priority" validate:"omitempty,oneof=low med high"`
	DueDate     *time.Time `json:"due_date"`
	Tags        *string    `json:"tags" validate:"omitempty,max=500"`
	AssignedTo  *string    `json:"assigned_to" validate:"omitempty,max=100"`
}

type updateRequest struct {
	Title       *string    `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string    `json:"description" validate:"omitempty,max=2000"`
	Status      *string    `json:"status" validate:"omitempty,oneof=todo doing done"`
	Priority    *string    `json:"priority" validate:"omitempty,oneof=low med high"`
	DueDate     *time.Time `json:"due_date"`
	Tags        *string    `json:"tags" validate:"omitempty,max=500"`
	AssignedTo  *string    `json:"assigned_to" validate:"omitempty,max=100"`
}

type listResponse struct {
	Tasks      []Task            `json:"tasks"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	id, ok := identity.BasicFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthenticated)
		return
	}

	var payload createRequest
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}

	task, err := h.service.Create(r.Context(), id.UserID, CreateInput{
		Title:       payload.Title,
		Description: payload.Description,
		Status:      payload.Status,
		Priority:    payload.Priority,
		DueDate:     payload.DueDate,
		Tags:        payload.Tags,
		AssignedTo:  payload.AssignedTo,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("task created", slog.Int64("task_id", task.ID), slog.Int64("user_id", id.UserID))
	httpx.JSON(w, http.StatusCreated, task)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	viewer, ok := identity.RoleAwareFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthenticated)
		return
	}

	q := parseQuery(r)
	list, total, err := h.service.List(r.Context(), q, viewer)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if list == nil {
		list = []Task{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{
		Tasks:      list,
		Pagination: shared.NewPagination(q.Page, q.PerPage, total),
	})
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	viewer, ok := identity.RoleAwareFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthenticated)
		return
	}
	stats, err := h.service.Stats(r.Context(), viewer)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	viewer, ok := identity.RoleAwareFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthenticated)
		return
	}
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	task, err := h.service.Get(r.Context(), id, viewer)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, task)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	viewer, ok := identity.RoleAwareFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthenticated)
		return
	}
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	var payload updateRequest
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}

	task, err := h.service.Update(r.Context(), id, UpdateInput{
		Title:       payload.Title,
		Description: payload.Description,
		Status:      payload.Status,
		Priority:    payload.Priority,
		DueDate:     payload.DueDate,
		Tags:        payload.Tags,
		AssignedTo:  payload.AssignedTo,
	}, viewer)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, task)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	viewer, ok := identity.RoleAwareFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthenticated)
		return
	}
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id, viewer); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("task deleted", slog.Int64("task_id", id), slog.Int64("user_id", viewer.UserID))
	w.WriteHeader(http.StatusNoContent)
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, httpx.ErrNotFound
	}
	return id, nil
}

// parseQuery reads the list filters from query parameters. Pagination is
// clamped to the same bounds used for the response metadata.
func parseQuery(r *http.Request) Query {
	params := r.URL.Query()

	var q Query
	q.Page, _ = strconv.Atoi(params.Get("page"))
	q.PerPage, _ = strconv.Atoi(params.Get("per_page"))
	p := shared.NewPagination(q.Page, q.PerPage, 0)
	q.Page, q.PerPage = p.Page, p.PerPage

	q.Search = params.Get("search")
	q.Statuses = splitCSV(params.Get("status"))
	q.Priorities = splitCSV(params.Get("priority"))
	q.Tags = splitCSV(params.Get("tags"))
	q.AssignedTo = params.Get("assigned_to")
	q.SortBy = params.Get("sort_by")
	q.SortOrder = params.Get("sort_order")

	if v := params.Get("due_start"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			q.DueStart = &t
		}
	}
	if v := params.Get("due_end"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			q.DueEnd = &t
		}
	}

	if v := params.Get("user_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			q.UserID = &id
		}
	}
	q.OwnerName = params.Get("owner_name")
	q.OwnerEmail = params.Get("owner_email")

	return q
}

func splitCSV(v string) []string {
	if v == "" {
		return nil
	}
	return strings.Split(v, ",")
}
