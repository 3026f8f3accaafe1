package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/weekly-events/internal/application"
)

type stubValidator struct {
	principal application.Principal
	err       error
}

func (s stubValidator) ValidateSession(_ context.Context, _ string) (application.Principal, error) {
	return s.principal, s.err
}

func TestRequireSessionRejectsInvalidTokens(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		cookie         *http.Cookie
		header         string
		validatorErr   error
		expectedStatus int
	}{
		{
			name:           "missing credentials",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "unknown token",
			header:         "Bearer unknown",
			validatorErr:   application.ErrUnauthorized,
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "expired session",
			cookie:         &http.Cookie{Name: "session_token", Value: "stale"},
			validatorErr:   application.ErrSessionExpired,
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tc.cookie != nil {
				req.AddCookie(tc.cookie)
			}
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}

			recorder := httptest.NewRecorder()
			handler := RequireSession(stubValidator{err: tc.validatorErr}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("next handler should not run when authentication fails")
			}))
			handler.ServeHTTP(recorder, req)

			if recorder.Code != tc.expectedStatus {
				t.Fatalf("expected %d, got %d", tc.expectedStatus, recorder.Code)
			}
		})
	}
}

func TestRequireSessionAttachesPrincipal(t *testing.T) {
	t.Parallel()

	want := application.Principal{Username: "jane", Surname: "Doe", Role: application.RoleUser}

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer valid")
	recorder := httptest.NewRecorder()

	called := false
	handler := RequireSession(stubValidator{principal: want}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		got, ok := PrincipalFromContext(r.Context())
		if !ok || got != want {
			t.Fatalf("expected principal %+v in context, got %+v (ok=%v)", want, got, ok)
		}
	}))
	handler.ServeHTTP(recorder, req)

	if !called {
		t.Fatal("expected next handler to run")
	}
}

func TestOptionalSessionPassesAnonymously(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/open", nil)
	req.Header.Set("Authorization", "Bearer stale")
	recorder := httptest.NewRecorder()

	handler := OptionalSession(stubValidator{err: application.ErrUnauthorized})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := PrincipalFromContext(r.Context()); ok {
			t.Fatal("expected no principal for an invalid token")
		}
		w.WriteHeader(http.StatusOK)
	}))
	handler.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
}

func TestRequireAdmin(t *testing.T) {
	t.Parallel()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RequireAdmin(nil)(next)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req = req.WithContext(ContextWithPrincipal(req.Context(), application.Principal{Username: "jane", Role: application.RoleUser}))
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	if recorder.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", recorder.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req = req.WithContext(ContextWithPrincipal(req.Context(), application.Principal{Username: "root", Role: application.RoleAdmin}))
	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", recorder.Code)
	}
}

func TestRequestLoggerAttachesLogger(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/anything", nil)
	recorder := httptest.NewRecorder()

	handler := RequestLogger(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if LoggerFromContext(r.Context()) == nil {
			t.Fatal("expected request logger in context")
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	handler.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", recorder.Code)
	}
}
