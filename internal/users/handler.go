package users

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/taskhive/taskhive/internal/identity"
	"github.com/taskhive/taskhive/internal/platform/httpx"
	"github.com/taskhive/taskhive/internal/shared"
	"github.com/taskhive/taskhive/internal/tasks"
)

// Handler wires the directory and admin HTTP endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	taskList  tasks.Lister
	extractor *identity.Extractor
	validator *validator.Validate
}

// NewHandler constructs a Handler instance. taskList is reused for the
// per-user task listing so the admin surface shares the task filters.
func NewHandler(logger *slog.Logger, service *Service, taskList tasks.Lister, extractor *identity.Extractor) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		taskList:  taskList,
		extractor: extractor,
		validator: validator.New(),
	}
}

// MountRoutes registers user routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.extractor.RequireBasic).Get("/users", h.handleAssignees)
	r.Group(func(r chi.Router) {
		r.Use(h.extractor.RequireAdmin)
		r.Get("/admin/users", h.handleListUsers)
		r.Get("/admin/users/{id}/tasks", h.handleUserTasks)
		r.Put("/admin/users/{id}/role", h.handleChangeRole)
		r.Get("/admin/stats", h.handleStats)
	})
}

type roleRequest struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}

type userListResponse struct {
	Users      []Summary         `json:"users"`
	Pagination shared.Pagination `json:"pagination"`
}

type userTasksResponse struct {
	Tasks      []tasks.Task      `json:"tasks"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) handleAssignees(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.Assignees(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if list == nil {
		list = []Assignee{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	p := shared.NewPagination(page, perPage, 0)

	list, total, err := h.service.Summaries(r.Context(), p.PerPage, p.Offset())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if list == nil {
		list = []Summary{}
	}
	httpx.JSON(w, http.StatusOK, userListResponse{
		Users:      list,
		Pagination: shared.NewPagination(p.Page, p.PerPage, total),
	})
}

// handleUserTasks lists one user's tasks through the shared task query
// path, pinned to the target user id.
func (h *Handler) handleUserTasks(w http.ResponseWriter, r *http.Request) {
	viewer, ok := identity.RoleAwareFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthenticated)
		return
	}
	targetID, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	p := shared.NewPagination(page, perPage, 0)

	q := tasks.Query{Page: p.Page, PerPage: p.PerPage, UserID: &targetID}
	list, total, err := h.taskList.List(r.Context(), q, viewer)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if list == nil {
		list = []tasks.Task{}
	}
	httpx.JSON(w, http.StatusOK, userTasksResponse{
		Tasks:      list,
		Pagination: shared.NewPagination(p.Page, p.PerPage, total),
	})
}

func (h *Handler) handleChangeRole(w http.ResponseWriter, r *http.Request) {
	admin, ok := identity.AdminFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrForbidden)
		return
	}
	targetID, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	var payload roleRequest
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}

	role := identity.ParseRole(payload.Role)
	if err := h.service.ChangeRole(r.Context(), targetID, role); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("role changed",
		slog.Int64("user_id", targetID),
		slog.String("role", string(role)),
		slog.String("changed_by", admin.Email))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, httpx.ErrNotFound
	}
	return id, nil
}
