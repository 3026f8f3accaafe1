package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/weekly-events/internal/application"
	"github.com/example/weekly-events/internal/testfixtures"
)

type testServer struct {
	router   http.Handler
	auth     *application.AuthService
	users    *application.UserService
	schedule *application.ScheduleService
	clock    *testfixtures.Clock
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := testfixtures.NewMemoryStore()
	clock := testfixtures.NewClock(time.Time{})
	tokens := testfixtures.NewIDGenerator("token")

	hash := func(password string) (string, error) { return "hashed:" + password, nil }
	verify := func(hashedPassword, password string) error {
		if hashedPassword != "hashed:"+password {
			return application.ErrInvalidCredentials
		}
		return nil
	}

	users := application.NewUserServiceWithLogger(store, hash, verify, logger)
	auth := application.NewAuthServiceWithLogger(tokens.NextFunc(), clock.NowFunc(), time.Hour, logger)
	scheduleSvc := application.NewScheduleServiceWithLogger(store, testfixtures.Templates(6), testfixtures.Hosts(4), clock.NowFunc(), logger)

	router := NewRouter(RouterConfig{
		Auth:     NewAuthHandler(users, auth, logger),
		Schedule: NewScheduleHandler(scheduleSvc, logger),
		Admin:    NewAdminHandler(scheduleSvc, logger),
		Sessions: auth,
		Logger:   logger,
	})

	return &testServer{router: router, auth: auth, users: users, schedule: scheduleSvc, clock: clock}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	s.router.ServeHTTP(recorder, req)
	return recorder
}

func (s *testServer) adminToken(t *testing.T) string {
	t.Helper()
	session, err := s.auth.IssueSession(context.Background(), application.Principal{
		Username: "admin",
		Surname:  "Root",
		Role:     application.RoleAdmin,
	})
	if err != nil {
		t.Fatalf("IssueSession returned error: %v", err)
	}
	return session.Token
}

func decodeBody[T any](t *testing.T, recorder *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(recorder.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", recorder.Body.String(), err)
	}
	return out
}

func (s *testServer) firstEventID(t *testing.T) string {
	t.Helper()
	recorder := s.do(t, http.MethodGet, "/api/bootstrap", "", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("bootstrap returned %d: %s", recorder.Code, recorder.Body.String())
	}
	payload := decodeBody[bootstrapResponse](t, recorder)
	bucket := payload.Events[payload.Anchor]
	if len(bucket) == 0 {
		t.Fatalf("no events on anchor day %s", payload.Anchor)
	}
	return bucket[0].ID
}

func TestBootstrapReturnsWeek(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)

	recorder := server.do(t, http.MethodGet, "/api/bootstrap", "", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	payload := decodeBody[bootstrapResponse](t, recorder)
	if len(payload.Days) != 7 {
		t.Fatalf("expected 7 days, got %d", len(payload.Days))
	}
	for _, day := range payload.Days {
		if got := len(payload.Events[day.Key]); got != 4 {
			t.Fatalf("expected 4 events on %s, got %d", day.Key, got)
		}
	}
	if payload.User != nil {
		t.Fatalf("expected no user for anonymous bootstrap, got %+v", payload.User)
	}
}

func TestBootstrapIncludesSessionUser(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)

	session, err := server.auth.IssueSession(context.Background(), application.Principal{Username: "jane", Surname: "Doe", Role: application.RoleUser})
	if err != nil {
		t.Fatalf("IssueSession returned error: %v", err)
	}

	recorder := server.do(t, http.MethodGet, "/api/bootstrap", session.Token, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}

	payload := decodeBody[bootstrapResponse](t, recorder)
	if payload.User == nil || payload.User.Username != "jane" {
		t.Fatalf("expected session user in payload, got %+v", payload.User)
	}
}

func TestRegisterAndLoginFlow(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)

	recorder := server.do(t, http.MethodPost, "/api/auth/register", "", registerRequest{
		Username: "jane", Surname: "Doe", Password: "secret",
	})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", recorder.Code, recorder.Body.String())
	}
	if recorder.Header().Get("X-Session-Token") == "" {
		t.Fatalf("expected session token header")
	}
	cookieFound := false
	for _, cookie := range recorder.Result().Cookies() {
		if cookie.Name == "session_token" && cookie.Value != "" {
			cookieFound = true
		}
	}
	if !cookieFound {
		t.Fatalf("expected session cookie to be set")
	}
	payload := decodeBody[authResponse](t, recorder)
	if payload.User.Role != application.RoleUser {
		t.Fatalf("expected user role, got %s", payload.User.Role)
	}

	recorder = server.do(t, http.MethodPost, "/api/auth/register", "", registerRequest{
		Username: "JANE", Surname: "Other", Password: "secret",
	})
	if recorder.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate username, got %d", recorder.Code)
	}

	recorder = server.do(t, http.MethodPost, "/api/auth/login", "", loginRequest{Username: "jane", Password: "wrong"})
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password, got %d", recorder.Code)
	}

	recorder = server.do(t, http.MethodPost, "/api/auth/login", "", loginRequest{Username: "jane", Password: "secret"})
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200 for login, got %d: %s", recorder.Code, recorder.Body.String())
	}
}

func TestRegisterValidationErrors(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)

	recorder := server.do(t, http.MethodPost, "/api/auth/register", "", registerRequest{})
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", recorder.Code)
	}

	payload := decodeBody[errorResponse](t, recorder)
	if len(payload.Errors) == 0 {
		t.Fatalf("expected field errors, got %+v", payload)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)

	session, err := server.auth.IssueSession(context.Background(), application.Principal{Username: "jane", Role: application.RoleUser})
	if err != nil {
		t.Fatalf("IssueSession returned error: %v", err)
	}

	recorder := server.do(t, http.MethodPost, "/api/auth/logout", session.Token, nil)
	if recorder.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", recorder.Code)
	}

	if _, err := server.auth.ValidateSession(context.Background(), session.Token); err == nil {
		t.Fatalf("expected session to be revoked")
	}

	recorder = server.do(t, http.MethodPost, "/api/auth/logout", "", nil)
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for logout without token, got %d", recorder.Code)
	}
}

func TestEventRegistrationRoundTrip(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)
	eventID := server.firstEventID(t)

	recorder := server.do(t, http.MethodPost, "/api/events/"+eventID+"/register", "", registrantRequest{Name: "Jane", Surname: "Doe"})
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	payload := decodeBody[eventResponse](t, recorder)
	if len(payload.Event.Registered) != 1 || payload.Event.Vacant != 1 {
		t.Fatalf("unexpected event state: %+v", payload.Event)
	}

	recorder = server.do(t, http.MethodPost, "/api/events/"+eventID+"/unregister", "", registrantRequest{Name: "jane", Surname: "doe"})
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	payload = decodeBody[eventResponse](t, recorder)
	if len(payload.Event.Registered) != 0 {
		t.Fatalf("expected empty registration list, got %+v", payload.Event.Registered)
	}
}

func TestEventRegistrationUsesSessionIdentity(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)
	eventID := server.firstEventID(t)

	session, err := server.auth.IssueSession(context.Background(), application.Principal{Username: "jane", Surname: "Doe", Role: application.RoleUser})
	if err != nil {
		t.Fatalf("IssueSession returned error: %v", err)
	}

	recorder := server.do(t, http.MethodPost, "/api/events/"+eventID+"/register", session.Token, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	payload := decodeBody[eventResponse](t, recorder)
	if len(payload.Event.Registered) != 1 || payload.Event.Registered[0].Name != "jane" {
		t.Fatalf("expected session identity to register, got %+v", payload.Event.Registered)
	}
}

func TestEventRegistrationSessionIdentityOverridesBody(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)
	eventID := server.firstEventID(t)

	session, err := server.auth.IssueSession(context.Background(), application.Principal{Username: "jane", Surname: "Doe", Role: application.RoleUser})
	if err != nil {
		t.Fatalf("IssueSession returned error: %v", err)
	}

	recorder := server.do(t, http.MethodPost, "/api/events/"+eventID+"/register", session.Token, registrantRequest{Name: "Eve", Surname: "Mallory"})
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	payload := decodeBody[eventResponse](t, recorder)
	if len(payload.Event.Registered) != 1 {
		t.Fatalf("expected one registrant, got %+v", payload.Event.Registered)
	}
	if got := payload.Event.Registered[0]; got.Name != "jane" || got.Surname != "Doe" {
		t.Fatalf("expected the account identity to register, got %+v", got)
	}
}

func TestEventRegistrationRejectsAnonymousWithoutIdentity(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)
	eventID := server.firstEventID(t)

	recorder := server.do(t, http.MethodPost, "/api/events/"+eventID+"/register", "", nil)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", recorder.Code, recorder.Body.String())
	}
}

func TestEventRegistrationCapacityConflict(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)
	eventID := server.firstEventID(t)

	for _, name := range []string{"First", "Second"} {
		recorder := server.do(t, http.MethodPost, "/api/events/"+eventID+"/register", "", registrantRequest{Name: name, Surname: "Person"})
		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200 for %s, got %d", name, recorder.Code)
		}
	}

	recorder := server.do(t, http.MethodPost, "/api/events/"+eventID+"/register", "", registrantRequest{Name: "Third", Surname: "Person"})
	if recorder.Code != http.StatusConflict {
		t.Fatalf("expected 409 when full, got %d: %s", recorder.Code, recorder.Body.String())
	}
}

func TestEventRegistrationUnknownEvent(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)

	recorder := server.do(t, http.MethodPost, "/api/events/2024-03-14-missing/register", "", registrantRequest{Name: "Jane", Surname: "Doe"})
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", recorder.Code)
	}
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)

	recorder := server.do(t, http.MethodGet, "/api/admin/schedule", "", nil)
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session, got %d", recorder.Code)
	}

	session, err := server.auth.IssueSession(context.Background(), application.Principal{Username: "jane", Role: application.RoleUser})
	if err != nil {
		t.Fatalf("IssueSession returned error: %v", err)
	}
	recorder = server.do(t, http.MethodGet, "/api/admin/schedule", session.Token, nil)
	if recorder.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", recorder.Code)
	}

	recorder = server.do(t, http.MethodGet, "/api/admin/schedule", server.adminToken(t), nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d: %s", recorder.Code, recorder.Body.String())
	}
}

func TestAdminEventLifecycle(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)
	token := server.adminToken(t)

	schedulePayload := decodeBody[bootstrapResponse](t, server.do(t, http.MethodGet, "/api/admin/schedule", token, nil))
	date := schedulePayload.Days[2].Key

	recorder := server.do(t, http.MethodPost, "/api/admin/events", token, eventRequest{
		Name: "Charity Run", Date: date, Time: "18:00", Duration: "90 min", Host: "Guest", Capacity: 30,
	})
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	created := decodeBody[eventResponse](t, recorder)
	if !strings.HasPrefix(created.Event.ID, date+"-custom-") {
		t.Fatalf("unexpected custom event id %s", created.Event.ID)
	}

	recorder = server.do(t, http.MethodPost, "/api/admin/events", token, eventRequest{
		Name: "Bad", Date: "2030-01-01", Time: "10:00", Duration: "60 min", Host: "Guest", Capacity: 5,
	})
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for date outside window, got %d", recorder.Code)
	}

	recorder = server.do(t, http.MethodDelete, "/api/admin/events/"+created.Event.ID, token, nil)
	if recorder.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", recorder.Code)
	}
	recorder = server.do(t, http.MethodDelete, "/api/admin/events/"+created.Event.ID, token, nil)
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for repeated delete, got %d", recorder.Code)
	}
}

func TestAdminRemoveRegistrant(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)
	token := server.adminToken(t)
	eventID := server.firstEventID(t)

	for _, name := range []string{"First", "Second"} {
		recorder := server.do(t, http.MethodPost, "/api/events/"+eventID+"/register", "", registrantRequest{Name: name, Surname: "Person"})
		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200 for %s, got %d", name, recorder.Code)
		}
	}

	recorder := server.do(t, http.MethodDelete, "/api/admin/events/"+eventID+"/registrations/0", token, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	payload := decodeBody[eventResponse](t, recorder)
	if len(payload.Event.Registered) != 1 || payload.Event.Registered[0].Name != "Second" {
		t.Fatalf("expected only the second registrant to remain, got %+v", payload.Event.Registered)
	}

	recorder = server.do(t, http.MethodDelete, "/api/admin/events/"+eventID+"/registrations/9", token, nil)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for out of range index, got %d", recorder.Code)
	}

	recorder = server.do(t, http.MethodDelete, "/api/admin/events/"+eventID+"/registrations/abc", token, nil)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-numeric index, got %d", recorder.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)

	recorder := server.do(t, http.MethodGet, "/api/auth/login", "", nil)
	if recorder.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", recorder.Code)
	}
	if got := recorder.Header().Get("Allow"); got != http.MethodPost {
		t.Fatalf("expected Allow header %s, got %q", http.MethodPost, got)
	}
}
