package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/shared-calendar/internal/auth"
	"github.com/sakif/shared-calendar/internal/model"
	"github.com/sakif/shared-calendar/internal/service"
)

// EventService is the subset of *service.EventService the handler calls.
type EventService interface {
	CreateEvent(ctx context.Context, token, tag string, in service.EventInput) (*model.Event, error)
	ManageEvent(ctx context.Context, token, tag, eventID string, in service.EventInput) (*model.Event, error)
	React(ctx context.Context, token, tag, eventID string, score float64) (float64, error)
}

type EventHandler struct {
	events EventService
	logger *slog.Logger
}

func NewEventHandler(events EventService, logger *slog.Logger) *EventHandler {
	return &EventHandler{events: events, logger: logger}
}

// eventRequest carries RFC 3339 timestamps, e.g. "2026-05-01T19:00:00Z".
type eventRequest struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Address     string            `json:"address"`
	Start       time.Time         `json:"start"`
	End         time.Time         `json:"end"`
	Status      model.EventStatus `json:"status"`
}

func (req eventRequest) input() service.EventInput {
	return service.EventInput{
		Title:       req.Title,
		Description: req.Description,
		Address:     req.Address,
		Start:       req.Start,
		End:         req.End,
		Status:      req.Status,
	}
}

type reactionRequest struct {
	Score float64 `json:"score"`
}

type reactionResponse struct {
	Score float64 `json:"score"`
}

// HandleCreate handles POST /api/v1/calendars/{tag}/events.
func (h *EventHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	e, err := h.events.CreateEvent(r.Context(), auth.TokenFromContext(r.Context()), chi.URLParam(r, "tag"), req.input())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

// HandleManage handles PUT /api/v1/calendars/{tag}/events/{id}.
func (h *EventHandler) HandleManage(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	e, err := h.events.ManageEvent(r.Context(), auth.TokenFromContext(r.Context()),
		chi.URLParam(r, "tag"), chi.URLParam(r, "id"), req.input())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// HandleReact handles PUT /api/v1/calendars/{tag}/events/{id}/reaction.
func (h *EventHandler) HandleReact(w http.ResponseWriter, r *http.Request) {
	var req reactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	score, err := h.events.React(r.Context(), auth.TokenFromContext(r.Context()),
		chi.URLParam(r, "tag"), chi.URLParam(r, "id"), req.Score)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reactionResponse{Score: score})
}
