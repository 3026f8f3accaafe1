package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// AuthService issues and validates session tokens. Sessions are held in
// process memory only: the original deployment never persisted them, and a
// restart simply signs everyone out.
type AuthService struct {
	mu             sync.Mutex
	sessions       map[string]Session
	tokenGenerator func() string
	now            func() time.Time
	sessionTTL     time.Duration
	logger         *slog.Logger
}

// NewAuthService constructs an AuthService with the provided dependencies.
func NewAuthService(tokenGenerator func() string, now func() time.Time, sessionTTL time.Duration) *AuthService {
	return NewAuthServiceWithLogger(tokenGenerator, now, sessionTTL, nil)
}

// NewAuthServiceWithLogger constructs an AuthService with a specified logger.
func NewAuthServiceWithLogger(tokenGenerator func() string, now func() time.Time, sessionTTL time.Duration, logger *slog.Logger) *AuthService {
	if tokenGenerator == nil {
		tokenGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &AuthService{
		sessions:       make(map[string]Session),
		tokenGenerator: tokenGenerator,
		now:            now,
		sessionTTL:     sessionTTL,
		logger:         defaultLogger(logger),
	}
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

// IssueSession creates a session for the principal and returns its token.
func (s *AuthService) IssueSession(ctx context.Context, principal Principal) (Session, error) {
	if s == nil {
		return Session{}, fmt.Errorf("AuthService is nil")
	}

	token := s.tokenGenerator()
	if token == "" {
		return Session{}, fmt.Errorf("token generator not configured")
	}

	now := s.now()
	session := Session{
		Token:     token,
		Principal: principal,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}

	s.mu.Lock()
	s.pruneLocked(now)
	s.sessions[token] = session
	s.mu.Unlock()

	s.loggerWith(ctx, "IssueSession", "username", principal.Username).InfoContext(ctx, "session issued")
	return session, nil
}

// ValidateSession resolves a token to its principal. Unknown tokens map to
// ErrUnauthorized, expired ones to ErrSessionExpired.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (Principal, error) {
	if s == nil {
		return Principal{}, fmt.Errorf("AuthService is nil")
	}

	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return Principal{}, ErrUnauthorized
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[trimmed]
	if !ok {
		return Principal{}, ErrUnauthorized
	}
	if !session.ExpiresAt.After(s.now()) {
		delete(s.sessions, trimmed)
		return Principal{}, ErrSessionExpired
	}
	return session.Principal, nil
}

// RevokeSession removes a session. Revoking an unknown token is a no-op
// so a logout can always be retried.
func (s *AuthService) RevokeSession(ctx context.Context, token string) error {
	if s == nil {
		return fmt.Errorf("AuthService is nil")
	}

	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return nil
	}

	s.mu.Lock()
	delete(s.sessions, trimmed)
	s.pruneLocked(s.now())
	s.mu.Unlock()

	s.loggerWith(ctx, "RevokeSession").InfoContext(ctx, "session revoked")
	return nil
}

func (s *AuthService) pruneLocked(reference time.Time) {
	for token, session := range s.sessions {
		if !session.ExpiresAt.After(reference) {
			delete(s.sessions, token)
		}
	}
}
