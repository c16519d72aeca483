package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/shared-calendar/internal/apperror"
	"github.com/sakif/shared-calendar/internal/auth"
	"github.com/sakif/shared-calendar/internal/model"
	"github.com/sakif/shared-calendar/internal/repository"
	"github.com/sakif/shared-calendar/internal/service"
)

// CalendarService is the subset of *service.CalendarService the handler calls.
type CalendarService interface {
	Create(ctx context.Context, token string, in service.CalendarInput) (*model.Calendar, error)
	Manage(ctx context.Context, token, tag string, changes service.CalendarChanges) (*model.Calendar, error)
	Delete(ctx context.Context, token, tag string) error
	AssignRole(ctx context.Context, token, tag, targetTg, role string) (*model.Membership, error)
	List(ctx context.Context, token, filter string, page repository.PageRequest) ([]model.Calendar, error)
}

type CalendarHandler struct {
	calendars CalendarService
	logger    *slog.Logger
}

func NewCalendarHandler(calendars CalendarService, logger *slog.Logger) *CalendarHandler {
	return &CalendarHandler{calendars: calendars, logger: logger}
}

type createCalendarRequest struct {
	Name        string `json:"name"`
	Tag         string `json:"tag"`
	Description string `json:"description"`
	Public      bool   `json:"public"`
}

type manageCalendarRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Public      *bool   `json:"public"`
	Active      *bool   `json:"active"`
}

type assignRoleRequest struct {
	Tg   string `json:"tg"`
	Role string `json:"role"`
}

type calendarListResponse struct {
	Calendars []model.Calendar `json:"calendars"`
	Page      int              `json:"page"`
	Size      int              `json:"size"`
	SortBy    string           `json:"sortBy"`
}

// HandleCreate handles POST /api/v1/calendars.
func (h *CalendarHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createCalendarRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	cal, err := h.calendars.Create(r.Context(), auth.TokenFromContext(r.Context()), service.CalendarInput{
		Name:        req.Name,
		Tag:         req.Tag,
		Description: req.Description,
		Public:      req.Public,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, cal)
}

// HandleList handles GET /api/v1/calendars?type=PUBLIC|ALLOWED|OWN&page=0&size=20&sortBy=id.
func (h *CalendarHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, err := intParam(q.Get("page"), "page")
	if err != nil {
		writeError(w, err)
		return
	}
	size, err := intParam(q.Get("size"), "size")
	if err != nil {
		writeError(w, err)
		return
	}

	req := repository.PageRequest{Page: page, Size: size, SortBy: q.Get("sortBy")}.Normalize()
	cals, err := h.calendars.List(r.Context(), auth.TokenFromContext(r.Context()), q.Get("type"), req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, calendarListResponse{
		Calendars: cals,
		Page:      req.Page,
		Size:      req.Size,
		SortBy:    req.SortBy,
	})
}

// HandleManage handles PUT /api/v1/calendars/{tag}.
func (h *CalendarHandler) HandleManage(w http.ResponseWriter, r *http.Request) {
	var req manageCalendarRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	cal, err := h.calendars.Manage(r.Context(), auth.TokenFromContext(r.Context()), chi.URLParam(r, "tag"),
		service.CalendarChanges{
			Name:        req.Name,
			Description: req.Description,
			Public:      req.Public,
			Active:      req.Active,
		})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cal)
}

// HandleDelete handles DELETE /api/v1/calendars/{tag}.
func (h *CalendarHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.calendars.Delete(r.Context(), auth.TokenFromContext(r.Context()), chi.URLParam(r, "tag")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleAssignRole handles PUT /api/v1/calendars/{tag}/members.
func (h *CalendarHandler) HandleAssignRole(w http.ResponseWriter, r *http.Request) {
	var req assignRoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	m, err := h.calendars.AssignRole(r.Context(), auth.TokenFromContext(r.Context()),
		chi.URLParam(r, "tag"), req.Tg, req.Role)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// intParam parses an optional non-negative integer query parameter.
func intParam(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperror.BadRequest(name, fmt.Sprintf("%s must be a non-negative integer", name))
	}
	return n, nil
}
