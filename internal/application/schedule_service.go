package application

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/example/weekly-events/internal/persistence"
	"github.com/example/weekly-events/internal/schedule"
)

// ScheduleService owns the weekly schedule document. Every operation runs
// a full load-or-regenerate, mutate, persist sequence under one mutex, so
// concurrent requests can never interleave a read-modify-write on the
// document.
type ScheduleService struct {
	mu        sync.Mutex
	store     persistence.DocumentStore
	templates []schedule.Template
	hosts     []string
	now       func() time.Time
	logger    *slog.Logger
}

// NewScheduleService wires dependencies for schedule operations.
func NewScheduleService(store persistence.DocumentStore, templates []schedule.Template, hosts []string, now func() time.Time) *ScheduleService {
	return NewScheduleServiceWithLogger(store, templates, hosts, now, nil)
}

// NewScheduleServiceWithLogger constructs a ScheduleService with a specified logger.
func NewScheduleServiceWithLogger(store persistence.DocumentStore, templates []schedule.Template, hosts []string, now func() time.Time, logger *slog.Logger) *ScheduleService {
	if now == nil {
		now = time.Now
	}
	return &ScheduleService{
		store:     store,
		templates: templates,
		hosts:     hosts,
		now:       now,
		logger:    defaultLogger(logger),
	}
}

func (s *ScheduleService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ScheduleService", operation, attrs...)
}

// LoadOrCreate returns the current schedule document, regenerating the
// week when the persisted document is absent, malformed, or anchored on a
// past day. Calling it while the anchor is still valid is a no-op apart
// from the read, so a periodic caller cannot clobber same-day mutations.
func (s *ScheduleService) LoadOrCreate(ctx context.Context) (schedule.Document, error) {
	if s == nil {
		return schedule.Document{}, fmt.Errorf("ScheduleService is nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadOrCreateLocked(ctx)
}

func (s *ScheduleService) loadOrCreateLocked(ctx context.Context) (schedule.Document, error) {
	var saved schedule.Document
	readErr := s.store.ReadDocument(ctx, persistence.ScheduleKey, &saved)

	anchor := s.todayKey()
	if readErr == nil && documentCurrent(saved, anchor) {
		return saved, nil
	}

	// Registrations survive regeneration through the stable event ids.
	prevIndex := make(map[string]schedule.Event)
	if readErr == nil {
		for id, event := range schedule.Index(&saved) {
			prevIndex[id] = *event
		}
	}

	fresh, err := schedule.Generate(s.templates, s.hosts, prevIndex, s.now())
	if err != nil {
		return schedule.Document{}, err
	}

	if err := s.store.WriteDocument(ctx, persistence.ScheduleKey, fresh); err != nil {
		return schedule.Document{}, err
	}

	s.loggerWith(ctx, "LoadOrCreate").InfoContext(ctx, "schedule regenerated", "anchor", fresh.Anchor)
	return fresh, nil
}

// Register adds the identity to the event's registration list, subject to
// capacity. Re-registering the same identity replaces the existing entry
// instead of duplicating it, so a registrant never counts twice against
// capacity and the most recent spelling wins.
func (s *ScheduleService) Register(ctx context.Context, eventID string, identity schedule.Registrant) (event schedule.Event, err error) {
	if s == nil {
		return schedule.Event{}, fmt.Errorf("ScheduleService is nil")
	}

	logger := s.loggerWith(ctx, "Register", "event_id", eventID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "registration failed", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	identity, err = normalizeIdentity(identity)
	if err != nil {
		return schedule.Event{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.loadOrCreateLocked(ctx)
	if err != nil {
		return schedule.Event{}, err
	}

	target, ok := schedule.Index(&doc)[eventID]
	if !ok {
		return schedule.Event{}, ErrNotFound
	}

	key := identity.Key()
	already := false
	for _, registrant := range target.Registered {
		if registrant.Key() == key {
			already = true
			break
		}
	}

	if !already && target.Vacant() == 0 {
		return schedule.Event{}, ErrCapacityExceeded
	}

	target.Registered = withoutIdentity(target.Registered, key)
	target.Registered = append(target.Registered, identity)

	if err := s.store.WriteDocument(ctx, persistence.ScheduleKey, doc); err != nil {
		return schedule.Event{}, err
	}
	return *target, nil
}

// Unregister removes the identity from the event's registration list.
// Removing an identity that is not registered is a no-op, not an error:
// the caller's cancel action stays safely retryable.
func (s *ScheduleService) Unregister(ctx context.Context, eventID string, identity schedule.Registrant) (schedule.Event, error) {
	if s == nil {
		return schedule.Event{}, fmt.Errorf("ScheduleService is nil")
	}

	identity, err := normalizeIdentity(identity)
	if err != nil {
		return schedule.Event{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.loadOrCreateLocked(ctx)
	if err != nil {
		return schedule.Event{}, err
	}

	target, ok := schedule.Index(&doc)[eventID]
	if !ok {
		return schedule.Event{}, ErrNotFound
	}

	target.Registered = withoutIdentity(target.Registered, identity.Key())

	if err := s.store.WriteDocument(ctx, persistence.ScheduleKey, doc); err != nil {
		return schedule.Event{}, err
	}
	return *target, nil
}

// RemoveRegistrantAt removes the registrant at the given insertion-order
// position. Bounds are checked strictly; positions are not stable across
// concurrent removals, which callers of this admin operation accept.
func (s *ScheduleService) RemoveRegistrantAt(ctx context.Context, eventID string, index int) (schedule.Event, error) {
	if s == nil {
		return schedule.Event{}, fmt.Errorf("ScheduleService is nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.loadOrCreateLocked(ctx)
	if err != nil {
		return schedule.Event{}, err
	}

	target, ok := schedule.Index(&doc)[eventID]
	if !ok {
		return schedule.Event{}, ErrNotFound
	}

	if index < 0 || index >= len(target.Registered) {
		return schedule.Event{}, ErrIndexOutOfRange
	}

	target.Registered = append(target.Registered[:index], target.Registered[index+1:]...)

	if err := s.store.WriteDocument(ctx, persistence.ScheduleKey, doc); err != nil {
		return schedule.Event{}, err
	}
	return *target, nil
}

// UpsertEvent creates or replaces an event inside the visible week. When
// the input id resolves to an existing event, its registration list is
// preserved and the event is removed from its old day bucket before being
// re-inserted, so an edit that changes the date relocates the event with
// its registrants. Unresolved or missing ids mint a new custom id.
func (s *ScheduleService) UpsertEvent(ctx context.Context, input EventInput) (event schedule.Event, err error) {
	if s == nil {
		return schedule.Event{}, fmt.Errorf("ScheduleService is nil")
	}

	logger := s.loggerWith(ctx, "UpsertEvent", "event_id", input.ID, "date", input.Date)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "upsert failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "event upserted", "event_id", event.ID)
	}()

	if err := validateEventInput(input); err != nil {
		return schedule.Event{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.loadOrCreateLocked(ctx)
	if err != nil {
		return schedule.Event{}, err
	}

	if _, ok := doc.Events[input.Date]; !ok {
		vErr := &ValidationError{}
		vErr.add("date", "date must be inside the 7-day schedule")
		return schedule.Event{}, vErr
	}

	registered := []schedule.Registrant{}
	eventID := ""
	if input.ID != "" {
		if prev, ok := schedule.Index(&doc)[input.ID]; ok {
			eventID = prev.ID
			registered = append(registered, prev.Registered...)
			doc.Events[prev.Date] = withoutEvent(doc.Events[prev.Date], prev.ID)
		}
	}
	if eventID == "" {
		eventID = input.Date + "-custom-" + strconv.FormatInt(s.now().UnixMilli(), 10)
	}

	event = schedule.Event{
		ID:         eventID,
		Name:       input.Name,
		Date:       input.Date,
		Time:       input.Time,
		Duration:   input.Duration,
		Host:       input.Host,
		Capacity:   input.Capacity,
		Registered: registered,
	}
	doc.Events[input.Date] = append(doc.Events[input.Date], event)

	if err := s.store.WriteDocument(ctx, persistence.ScheduleKey, doc); err != nil {
		return schedule.Event{}, err
	}
	return event, nil
}

// DeleteEvent removes the event from its day bucket along with all of its
// registrants.
func (s *ScheduleService) DeleteEvent(ctx context.Context, eventID string) error {
	if s == nil {
		return fmt.Errorf("ScheduleService is nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.loadOrCreateLocked(ctx)
	if err != nil {
		return err
	}

	target, ok := schedule.Index(&doc)[eventID]
	if !ok {
		return ErrNotFound
	}

	doc.Events[target.Date] = withoutEvent(doc.Events[target.Date], eventID)

	if err := s.store.WriteDocument(ctx, persistence.ScheduleKey, doc); err != nil {
		return err
	}
	s.loggerWith(ctx, "DeleteEvent").InfoContext(ctx, "event deleted", "event_id", eventID)
	return nil
}

func (s *ScheduleService) todayKey() string {
	now := s.now()
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location()).Format(schedule.DateLayout)
}

// documentCurrent reports whether the persisted document can be served
// as-is for the given anchor day.
func documentCurrent(doc schedule.Document, anchor string) bool {
	return doc.SchemaVersion == schedule.SchemaVersion &&
		len(doc.Days) == schedule.WindowDays &&
		doc.Events != nil &&
		doc.Anchor == anchor
}

func normalizeIdentity(identity schedule.Registrant) (schedule.Registrant, error) {
	name := strings.TrimSpace(identity.Name)
	surname := strings.TrimSpace(identity.Surname)
	if name == "" || surname == "" {
		vErr := &ValidationError{}
		vErr.add("identity", "name and surname are required")
		return schedule.Registrant{}, vErr
	}
	return schedule.Registrant{Name: name, Surname: surname}, nil
}

// withoutIdentity filters out every registrant whose normalized identity
// matches key, preserving the order of the remaining entries.
func withoutIdentity(registered []schedule.Registrant, key string) []schedule.Registrant {
	kept := registered[:0]
	for _, registrant := range registered {
		if registrant.Key() != key {
			kept = append(kept, registrant)
		}
	}
	return kept
}

func withoutEvent(bucket []schedule.Event, eventID string) []schedule.Event {
	kept := bucket[:0]
	for _, event := range bucket {
		if event.ID != eventID {
			kept = append(kept, event)
		}
	}
	return kept
}

func validateEventInput(input EventInput) error {
	vErr := &ValidationError{}
	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	if strings.TrimSpace(input.Date) == "" {
		vErr.add("date", "date is required")
	}
	if strings.TrimSpace(input.Time) == "" {
		vErr.add("time", "time is required")
	}
	if strings.TrimSpace(input.Duration) == "" {
		vErr.add("duration", "duration is required")
	}
	if strings.TrimSpace(input.Host) == "" {
		vErr.add("host", "host is required")
	}
	if input.Capacity <= 0 {
		vErr.add("capacity", "capacity must be positive")
	}
	if vErr.HasErrors() {
		return vErr
	}
	return nil
}
