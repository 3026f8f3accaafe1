package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/weekly-events/internal/testfixtures"
)

func newAuthService(t *testing.T, ttl time.Duration) (*AuthService, *testfixtures.Clock) {
	t.Helper()
	clock := testfixtures.NewClock(time.Time{})
	tokens := testfixtures.NewIDGenerator("token")
	return NewAuthService(tokens.NextFunc(), clock.NowFunc(), ttl), clock
}

func TestAuthServiceIssueAndValidate(t *testing.T) {
	t.Parallel()

	service, clock := newAuthService(t, time.Hour)
	principal := Principal{Username: "jane", Surname: "Doe", Role: RoleUser}

	session, err := service.IssueSession(context.Background(), principal)
	if err != nil {
		t.Fatalf("IssueSession returned error: %v", err)
	}
	if session.Token != "token-1" {
		t.Fatalf("unexpected token %q", session.Token)
	}
	if !session.ExpiresAt.Equal(clock.Now().Add(time.Hour)) {
		t.Fatalf("unexpected expiry %v", session.ExpiresAt)
	}

	resolved, err := service.ValidateSession(context.Background(), session.Token)
	if err != nil {
		t.Fatalf("ValidateSession returned error: %v", err)
	}
	if resolved != principal {
		t.Fatalf("expected %+v, got %+v", principal, resolved)
	}
}

func TestAuthServiceValidateUnknownToken(t *testing.T) {
	t.Parallel()

	service, _ := newAuthService(t, time.Hour)

	if _, err := service.ValidateSession(context.Background(), "missing"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := service.ValidateSession(context.Background(), "   "); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for blank token, got %v", err)
	}
}

func TestAuthServiceValidateExpiredToken(t *testing.T) {
	t.Parallel()

	service, clock := newAuthService(t, time.Hour)

	session, err := service.IssueSession(context.Background(), Principal{Username: "jane"})
	if err != nil {
		t.Fatalf("IssueSession returned error: %v", err)
	}

	clock.Advance(2 * time.Hour)

	if _, err := service.ValidateSession(context.Background(), session.Token); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
	// Expired sessions are removed on first sight.
	if _, err := service.ValidateSession(context.Background(), session.Token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized after pruning, got %v", err)
	}
}

func TestAuthServiceRevokeSession(t *testing.T) {
	t.Parallel()

	service, _ := newAuthService(t, time.Hour)

	session, err := service.IssueSession(context.Background(), Principal{Username: "jane"})
	if err != nil {
		t.Fatalf("IssueSession returned error: %v", err)
	}

	if err := service.RevokeSession(context.Background(), session.Token); err != nil {
		t.Fatalf("RevokeSession returned error: %v", err)
	}
	if _, err := service.ValidateSession(context.Background(), session.Token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized after revoke, got %v", err)
	}

	// Revoking again stays a no-op.
	if err := service.RevokeSession(context.Background(), session.Token); err != nil {
		t.Fatalf("expected idempotent revoke, got %v", err)
	}
}
