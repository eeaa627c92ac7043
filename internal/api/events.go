package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dnayak/lifelog/internal/domain"
	"github.com/dnayak/lifelog/internal/importer"
	"github.com/dnayak/lifelog/internal/store"
	"github.com/go-chi/chi/v5"
)

// EventStore is the slice of the persistence layer the event handlers use.
type EventStore interface {
	CreateEvent(ctx context.Context, p domain.CreateEventParams) (*domain.Event, error)
	GetEvent(ctx context.Context, ownerID, id string) (*domain.Event, error)
	ListEvents(ctx context.Context, ownerID string, f domain.EventFilter) ([]domain.Event, error)
	UpdateEvent(ctx context.Context, ownerID, id string, p domain.UpdateEventParams) (*domain.Event, error)
	DeleteEvent(ctx context.Context, ownerID, id string) error
	ListDistinctTypes(ctx context.Context, ownerID string) ([]string, error)
}

type EventHandler struct {
	store EventStore
	cache *store.TypeCache
}

func NewEventHandler(s EventStore, cache *store.TypeCache) *EventHandler {
	return &EventHandler{store: s, cache: cache}
}

type createEventRequest struct {
	EventType string            `json:"event_type"`
	Timestamp any               `json:"timestamp"`
	Data      *domain.EventData `json:"data"`
	Tags      []string          `json:"tags"`
	Source    string            `json:"source"`
}

type updateEventRequest struct {
	EventType *string           `json:"event_type"`
	Timestamp any               `json:"timestamp"`
	Data      *domain.EventData `json:"data"`
	Tags      *[]string         `json:"tags"`
}

type listEventsResponse struct {
	Events []domain.Event `json:"events"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)

	var req createEventRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.EventType) == "" {
		respondError(w, http.StatusBadRequest, "event_type is required")
		return
	}

	ts := time.Now().UnixMilli()
	if req.Timestamp != nil {
		var err error
		ts, err = importer.NormalizeTimestamp(req.Timestamp)
		if err != nil {
			respondDomainError(w, err, "failed to create event")
			return
		}
	}

	source := req.Source
	if source == "" {
		source = domain.SourceManual
	}
	if source != domain.SourceManual && source != domain.SourceCSVImport && source != domain.SourceJSONImport {
		respondError(w, http.StatusBadRequest, "invalid source")
		return
	}

	event, err := h.store.CreateEvent(r.Context(), domain.CreateEventParams{
		OwnerID:   owner,
		EventType: strings.TrimSpace(req.EventType),
		Timestamp: ts,
		Data:      req.Data,
		Tags:      req.Tags,
		Source:    source,
	})
	if err != nil {
		respondDomainError(w, err, "failed to create event")
		return
	}

	h.cache.Invalidate(r.Context(), owner)
	respondJSON(w, http.StatusCreated, event)
}

func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	event, err := h.store.GetEvent(r.Context(), ownerID(r), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err, "failed to get event")
		return
	}
	respondJSON(w, http.StatusOK, event)
}

func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseEventFilter(r)
	if err != nil {
		respondDomainError(w, err, "failed to list events")
		return
	}

	events, err := h.store.ListEvents(r.Context(), ownerID(r), filter)
	if err != nil {
		respondDomainError(w, err, "failed to list events")
		return
	}

	respondJSON(w, http.StatusOK, listEventsResponse{
		Events: events,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)

	var req updateEventRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	params := domain.UpdateEventParams{
		Data: req.Data,
		Tags: req.Tags,
	}
	if req.EventType != nil {
		if strings.TrimSpace(*req.EventType) == "" {
			respondError(w, http.StatusBadRequest, "event_type cannot be empty")
			return
		}
		trimmed := strings.TrimSpace(*req.EventType)
		params.EventType = &trimmed
	}
	if req.Timestamp != nil {
		ts, err := importer.NormalizeTimestamp(req.Timestamp)
		if err != nil {
			respondDomainError(w, err, "failed to update event")
			return
		}
		params.Timestamp = &ts
	}

	event, err := h.store.UpdateEvent(r.Context(), owner, chi.URLParam(r, "id"), params)
	if err != nil {
		respondDomainError(w, err, "failed to update event")
		return
	}

	h.cache.Invalidate(r.Context(), owner)
	respondJSON(w, http.StatusOK, event)
}

func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)
	if err := h.store.DeleteEvent(r.Context(), owner, chi.URLParam(r, "id")); err != nil {
		respondDomainError(w, err, "failed to delete event")
		return
	}
	h.cache.Invalidate(r.Context(), owner)
	w.WriteHeader(http.StatusNoContent)
}

// ListTypes serves the distinct event types in use, through the cache when
// one is configured.
func (h *EventHandler) ListTypes(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)

	if types, ok := h.cache.Get(r.Context(), owner); ok {
		respondJSON(w, http.StatusOK, map[string][]string{"event_types": types})
		return
	}

	types, err := h.store.ListDistinctTypes(r.Context(), owner)
	if err != nil {
		respondDomainError(w, err, "failed to list event types")
		return
	}
	h.cache.Set(r.Context(), owner, types)
	respondJSON(w, http.StatusOK, map[string][]string{"event_types": types})
}

func parseEventFilter(r *http.Request) (domain.EventFilter, error) {
	q := r.URL.Query()
	f := domain.EventFilter{EventType: q.Get("event_type")}

	// start/end accept the same encodings as event timestamps: epoch
	// seconds, epoch milliseconds, or a calendar string.
	if raw := q.Get("start"); raw != "" {
		ms, err := importer.NormalizeTimestamp(raw)
		if err != nil {
			return f, domain.Validationf("invalid start: %v", err)
		}
		f.Start = &ms
	}
	if raw := q.Get("end"); raw != "" {
		ms, err := importer.NormalizeTimestamp(raw)
		if err != nil {
			return f, domain.Validationf("invalid end: %v", err)
		}
		f.End = &ms
	}
	if raw := q.Get("tags"); raw != "" {
		f.Tags = strings.Split(raw, ",")
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return f, domain.Validationf("invalid limit %q", raw)
		}
		f.Limit = n
	}
	if raw := q.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return f, domain.Validationf("invalid offset %q", raw)
		}
		f.Offset = n
	}
	return f, nil
}
