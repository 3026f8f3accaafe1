package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/example/weekly-events/internal/persistence"
)

// usersSchemaVersion identifies the persisted user list layout.
const usersSchemaVersion = 1

type userListDocument struct {
	SchemaVersion int    `json:"schemaVersion"`
	Users         []User `json:"users"`
}

// UserService manages the persisted user accounts: signup and credential
// verification. Account mutations are serialized by a mutex, matching the
// single-writer assumption of the document store.
type UserService struct {
	mu     sync.Mutex
	store  persistence.DocumentStore
	hash   func(password string) (string, error)
	verify PasswordVerifier
	logger *slog.Logger
}

// NewUserService wires dependencies for user account operations.
func NewUserService(store persistence.DocumentStore) *UserService {
	return NewUserServiceWithLogger(store, nil, nil, nil)
}

// NewUserServiceWithLogger constructs a UserService with explicit hashing
// functions and logger. Nil hash or verify fall back to the argon2id
// implementation.
func NewUserServiceWithLogger(store persistence.DocumentStore, hash func(string) (string, error), verify PasswordVerifier, logger *slog.Logger) *UserService {
	if hash == nil {
		hash = func(password string) (string, error) {
			return CreatePasswordHash(password, DefaultArgon2idParams)
		}
	}
	if verify == nil {
		verify = VerifyPassword
	}
	return &UserService{
		store:  store,
		hash:   hash,
		verify: verify,
		logger: defaultLogger(logger),
	}
}

func (s *UserService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "UserService", operation, attrs...)
}

// Register creates a new account with the default user role. Usernames
// are unique case-insensitively across the store.
func (s *UserService) Register(ctx context.Context, params RegisterUserParams) (principal Principal, err error) {
	if s == nil {
		return Principal{}, fmt.Errorf("UserService is nil")
	}

	username := strings.TrimSpace(params.Username)
	surname := strings.TrimSpace(params.Surname)
	password := strings.TrimSpace(params.Password)

	logger := s.loggerWith(ctx, "Register", "username", username)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "user registration failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "user registered")
	}()

	vErr := &ValidationError{}
	if username == "" {
		vErr.add("username", "username is required")
	}
	if surname == "" {
		vErr.add("surname", "surname is required")
	}
	if password == "" {
		vErr.add("password", "password is required")
	}
	if vErr.HasErrors() {
		return Principal{}, vErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users := s.loadLocked(ctx)
	for _, user := range users {
		if strings.EqualFold(user.Username, username) {
			return Principal{}, ErrAlreadyExists
		}
	}

	hashed, err := s.hash(password)
	if err != nil {
		return Principal{}, fmt.Errorf("hash password: %w", err)
	}

	users = append(users, User{
		Username:     username,
		Surname:      surname,
		PasswordHash: hashed,
		Role:         RoleUser,
	})

	if err := s.saveLocked(ctx, users); err != nil {
		return Principal{}, err
	}

	return Principal{Username: username, Surname: surname, Role: RoleUser}, nil
}

// Login verifies credentials and returns the account's principal.
func (s *UserService) Login(ctx context.Context, params LoginParams) (principal Principal, err error) {
	if s == nil {
		return Principal{}, fmt.Errorf("UserService is nil")
	}

	username := strings.TrimSpace(params.Username)
	password := strings.TrimSpace(params.Password)

	logger := s.loggerWith(ctx, "Login", "username", username)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "login failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "login succeeded")
	}()

	if username == "" || password == "" {
		vErr := &ValidationError{}
		vErr.add("credentials", "username and password are required")
		return Principal{}, vErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, user := range s.loadLocked(ctx) {
		if !strings.EqualFold(user.Username, username) {
			continue
		}
		if err := s.verify(user.PasswordHash, password); err != nil {
			return Principal{}, ErrInvalidCredentials
		}
		return Principal{Username: user.Username, Surname: user.Surname, Role: user.Role}, nil
	}

	return Principal{}, ErrInvalidCredentials
}

// Seed inserts or replaces an account directly, bypassing signup
// validation. Used by the hash-password command to provision the admin
// account; the API never reaches this.
func (s *UserService) Seed(ctx context.Context, username, surname, password, role string) error {
	if s == nil {
		return fmt.Errorf("UserService is nil")
	}

	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		vErr := &ValidationError{}
		vErr.add("credentials", "username and password are required")
		return vErr
	}
	if role != RoleAdmin {
		role = RoleUser
	}

	hashed, err := s.hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users := s.loadLocked(ctx)
	kept := users[:0]
	for _, user := range users {
		if !strings.EqualFold(user.Username, username) {
			kept = append(kept, user)
		}
	}
	kept = append(kept, User{Username: username, Surname: strings.TrimSpace(surname), PasswordHash: hashed, Role: role})

	return s.saveLocked(ctx, kept)
}

// loadLocked reads the user list document, falling back to an empty list
// when the document is absent, unreadable, or from another schema
// version. Roles missing from older data default to user.
func (s *UserService) loadLocked(ctx context.Context) []User {
	var doc userListDocument
	if err := s.store.ReadDocument(ctx, persistence.UsersKey, &doc); err != nil {
		return nil
	}
	if doc.SchemaVersion != usersSchemaVersion {
		return nil
	}
	for i := range doc.Users {
		if doc.Users[i].Role == "" {
			doc.Users[i].Role = RoleUser
		}
	}
	return doc.Users
}

func (s *UserService) saveLocked(ctx context.Context, users []User) error {
	return s.store.WriteDocument(ctx, persistence.UsersKey, userListDocument{
		SchemaVersion: usersSchemaVersion,
		Users:         users,
	})
}
