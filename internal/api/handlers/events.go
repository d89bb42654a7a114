package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/Togather-Foundation/eventboard/internal/api/middleware"
	"github.com/Togather-Foundation/eventboard/internal/api/problem"
	"github.com/Togather-Foundation/eventboard/internal/domain/events"
	"github.com/Togather-Foundation/eventboard/internal/validation"
)

// EventService is the part of events.Service the HTTP layer needs.
type EventService interface {
	Create(ctx context.Context, ownerID string, params events.CreateParams) (*events.Event, error)
	List(ctx context.Context, filters events.Filters, pagination events.Pagination) ([]events.Event, error)
	Get(ctx context.Context, id string) (*events.Event, error)
	Update(ctx context.Context, id, callerID string, patch events.Patch) (*events.Event, error)
	Delete(ctx context.Context, id, callerID string) error
}

type EventsHandler struct {
	Service EventService
	Env     string
	now     func() time.Time
}

func NewEventsHandler(service EventService, env string) *EventsHandler {
	return &EventsHandler{Service: service, Env: env, now: time.Now}
}

type eventResponse struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Date        string    `json:"date"`
	Place       string    `json:"place"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Author      string    `json:"author"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toEventResponse(e *events.Event) eventResponse {
	return eventResponse{
		ID:          e.ID,
		UserID:      e.OwnerID,
		Title:       e.Title,
		Date:        e.Date,
		Place:       e.Place,
		Category:    e.Category,
		Description: e.Description,
		Author:      e.Author,
		CreatedAt:   e.CreatedAt.UTC(),
		UpdatedAt:   e.UpdatedAt.UTC(),
	}
}

type eventEnvelope struct {
	Success bool          `json:"success"`
	Event   eventResponse `json:"event"`
}

type successResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// List handles GET /api/events. The response is a bare JSON array.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	filters, pagination, err := events.ParseListParams(r.URL.Query(), h.now())
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	h.list(w, r, filters, pagination)
}

// Mine handles GET /api/me/events: the caller's own events, newest first.
func (h *EventsHandler) Mine(w http.ResponseWriter, r *http.Request) {
	identity := middleware.SessionIdentity(r)
	if identity == nil {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", problem.ErrUnauthorized, h.Env)
		return
	}

	filters, pagination, err := events.ParseListParams(r.URL.Query(), h.now())
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	filters.OwnerID = identity.ID
	h.list(w, r, filters, pagination)
}

func (h *EventsHandler) list(w http.ResponseWriter, r *http.Request, filters events.Filters, pagination events.Pagination) {
	list, err := h.Service.List(r.Context(), filters, pagination)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	items := make([]eventResponse, 0, len(list))
	for i := range list {
		items = append(items, toEventResponse(&list[i]))
	}
	writeJSON(w, http.StatusOK, items)
}

// Get handles GET /api/events/{id}.
func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	event, err := h.Service.Get(r.Context(), pathParam(r, "id"))
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, toEventResponse(event))
}

// Create handles POST /api/events. The owner is always the token subject.
func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity := middleware.SessionIdentity(r)
	if identity == nil {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", problem.ErrUnauthorized, h.Env)
		return
	}

	var params events.CreateParams
	if err := decodeJSON(r, &params); err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	event, err := h.Service.Create(r.Context(), identity.ID, params)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	if event.Author == "" {
		event.Author = identity.Firstname + " " + identity.Lastname
	}

	w.Header().Set("Location", "/api/events/"+event.ID)
	writeJSON(w, http.StatusCreated, eventEnvelope{Success: true, Event: toEventResponse(event)})
}

// Update handles PUT /api/events/{id} as a partial update.
func (h *EventsHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity := middleware.SessionIdentity(r)
	if identity == nil {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", problem.ErrUnauthorized, h.Env)
		return
	}

	var patch events.Patch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	if patch.IsEmpty() {
		writeError(w, r, validation.FieldError{Field: "body", Message: "must set at least one field"}, h.Env)
		return
	}

	event, err := h.Service.Update(r.Context(), pathParam(r, "id"), identity.ID, patch)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, eventEnvelope{Success: true, Event: toEventResponse(event)})
}

// Delete handles DELETE /api/events/{id}.
func (h *EventsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity := middleware.SessionIdentity(r)
	if identity == nil {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", problem.ErrUnauthorized, h.Env)
		return
	}

	if err := h.Service.Delete(r.Context(), pathParam(r, "id"), identity.ID); err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true, Message: "event deleted"})
}
