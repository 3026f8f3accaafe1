package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/weekly-events/internal/schedule"
)

type scheduleService interface {
	LoadOrCreate(ctx context.Context) (schedule.Document, error)
	Register(ctx context.Context, eventID string, identity schedule.Registrant) (schedule.Event, error)
	Unregister(ctx context.Context, eventID string, identity schedule.Registrant) (schedule.Event, error)
}

type ScheduleHandler struct {
	service   scheduleService
	responder responder
}

func NewScheduleHandler(service scheduleService, logger *slog.Logger) *ScheduleHandler {
	return &ScheduleHandler{service: service, responder: newResponder(logger)}
}

// Bootstrap returns the visible week together with the caller's identity
// when a valid session accompanies the request.
func (h *ScheduleHandler) Bootstrap(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	doc, err := h.service.LoadOrCreate(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	response := bootstrapResponse{
		Anchor: doc.Anchor,
		Days:   toDayDTOs(doc.Days),
		Events: toEventBuckets(doc.Events),
	}
	if principal, ok := PrincipalFromContext(r.Context()); ok {
		user := toUserDTO(principal)
		response.User = &user
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, response)
}

// Register signs an identity up for an event. Logged-in callers register
// as their account identity; body fields only apply to anonymous callers.
func (h *ScheduleHandler) Register(w http.ResponseWriter, r *http.Request) {
	h.mutateRegistration(w, r, func(ctx context.Context, eventID string, identity schedule.Registrant) (schedule.Event, error) {
		return h.service.Register(ctx, eventID, identity)
	})
}

// Unregister removes an identity from an event's registration list.
func (h *ScheduleHandler) Unregister(w http.ResponseWriter, r *http.Request) {
	h.mutateRegistration(w, r, func(ctx context.Context, eventID string, identity schedule.Registrant) (schedule.Event, error) {
		return h.service.Unregister(ctx, eventID, identity)
	})
}

func (h *ScheduleHandler) mutateRegistration(w http.ResponseWriter, r *http.Request, op func(context.Context, string, schedule.Registrant) (schedule.Event, error)) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventID, ok := EventIDFromContext(r.Context())
	if !ok || strings.TrimSpace(eventID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}

	identity, err := registrantFromRequest(r)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	event, err := op(r.Context(), eventID, identity)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, eventResponse{Event: toEventDTO(event)})
}

// registrantFromRequest resolves the acting identity. The session
// principal takes precedence field by field; body fields only fill in
// when the caller is anonymous or a principal field is blank.
func registrantFromRequest(r *http.Request) (schedule.Registrant, error) {
	var req registrantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return schedule.Registrant{}, err
	}

	identity := schedule.Registrant{
		Name:    strings.TrimSpace(req.Name),
		Surname: strings.TrimSpace(req.Surname),
	}
	if principal, ok := PrincipalFromContext(r.Context()); ok {
		if principal.Username != "" {
			identity.Name = principal.Username
		}
		if principal.Surname != "" {
			identity.Surname = principal.Surname
		}
	}
	return identity, nil
}

type registrantRequest struct {
	Name    string `json:"name"`
	Surname string `json:"surname"`
}

type bootstrapResponse struct {
	Anchor string                `json:"anchor"`
	Days   []dayDTO              `json:"days"`
	Events map[string][]eventDTO `json:"events"`
	User   *userDTO              `json:"user,omitempty"`
}

type eventResponse struct {
	Event eventDTO `json:"event"`
}

type dayDTO struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

type eventDTO struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Date       string          `json:"date"`
	Time       string          `json:"time"`
	Duration   string          `json:"duration"`
	Host       string          `json:"host"`
	Capacity   int             `json:"capacity"`
	Vacant     int             `json:"vacant"`
	Registered []registrantDTO `json:"registered"`
}

type registrantDTO struct {
	Name    string `json:"name"`
	Surname string `json:"surname"`
}

func toDayDTOs(days []schedule.Day) []dayDTO {
	out := make([]dayDTO, 0, len(days))
	for _, day := range days {
		out = append(out, dayDTO{Key: day.Key, Label: day.Label})
	}
	return out
}

func toEventDTO(event schedule.Event) eventDTO {
	registered := make([]registrantDTO, 0, len(event.Registered))
	for _, registrant := range event.Registered {
		registered = append(registered, registrantDTO{Name: registrant.Name, Surname: registrant.Surname})
	}
	return eventDTO{
		ID:         event.ID,
		Name:       event.Name,
		Date:       event.Date,
		Time:       event.Time,
		Duration:   event.Duration,
		Host:       event.Host,
		Capacity:   event.Capacity,
		Vacant:     event.Vacant(),
		Registered: registered,
	}
}

func toEventBuckets(events map[string][]schedule.Event) map[string][]eventDTO {
	out := make(map[string][]eventDTO, len(events))
	for date, bucket := range events {
		dtos := make([]eventDTO, 0, len(bucket))
		for _, event := range bucket {
			dtos = append(dtos, toEventDTO(event))
		}
		out[date] = dtos
	}
	return out
}
