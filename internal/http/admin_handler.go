package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/weekly-events/internal/application"
	"github.com/example/weekly-events/internal/schedule"
)

type adminScheduleService interface {
	LoadOrCreate(ctx context.Context) (schedule.Document, error)
	UpsertEvent(ctx context.Context, input application.EventInput) (schedule.Event, error)
	DeleteEvent(ctx context.Context, eventID string) error
	RemoveRegistrantAt(ctx context.Context, eventID string, index int) (schedule.Event, error)
}

type AdminHandler struct {
	service   adminScheduleService
	responder responder
	logger    *slog.Logger
}

func NewAdminHandler(service adminScheduleService, logger *slog.Logger) *AdminHandler {
	base := defaultLogger(logger)
	return &AdminHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *AdminHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AdminHandler", operation, attrs...)
}

// Schedule returns the full week including registration lists.
func (h *AdminHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	doc, err := h.service.LoadOrCreate(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, bootstrapResponse{
		Anchor: doc.Anchor,
		Days:   toDayDTOs(doc.Days),
		Events: toEventBuckets(doc.Events),
	})
}

// UpsertEvent creates or edits an event inside the visible week.
func (h *AdminHandler) UpsertEvent(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "UpsertEvent", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode event request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "UpsertEvent", "event_id", req.ID, "date", req.Date)

	event, err := h.service.UpsertEvent(r.Context(), req.toInput())
	if err != nil {
		logger.ErrorContext(r.Context(), "upsert rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "event saved", "event_id", event.ID)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, eventResponse{Event: toEventDTO(event)})
}

// DeleteEvent removes an event and its registrations.
func (h *AdminHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventID, ok := EventIDFromContext(r.Context())
	if !ok || strings.TrimSpace(eventID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}

	if err := h.service.DeleteEvent(r.Context(), eventID); err != nil {
		h.log(r.Context(), "DeleteEvent", "event_id", eventID).ErrorContext(r.Context(), "delete rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "DeleteEvent", "event_id", eventID).InfoContext(r.Context(), "event deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// RemoveRegistrant drops the registrant at the given position.
func (h *AdminHandler) RemoveRegistrant(w http.ResponseWriter, r *http.Request, rawIndex string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventID, ok := EventIDFromContext(r.Context())
	if !ok || strings.TrimSpace(eventID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}

	index, err := strconv.Atoi(strings.TrimSpace(rawIndex))
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRegistrantIndex)
		return
	}

	event, err := h.service.RemoveRegistrantAt(r.Context(), eventID, index)
	if err != nil {
		h.log(r.Context(), "RemoveRegistrant", "event_id", eventID, "index", index).ErrorContext(r.Context(), "removal rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, eventResponse{Event: toEventDTO(event)})
}

type eventRequest struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Duration string `json:"duration"`
	Host     string `json:"host"`
	Capacity int    `json:"capacity"`
}

func (r eventRequest) toInput() application.EventInput {
	return application.EventInput{
		ID:       strings.TrimSpace(r.ID),
		Name:     strings.TrimSpace(r.Name),
		Date:     strings.TrimSpace(r.Date),
		Time:     strings.TrimSpace(r.Time),
		Duration: strings.TrimSpace(r.Duration),
		Host:     strings.TrimSpace(r.Host),
		Capacity: r.Capacity,
	}
}
