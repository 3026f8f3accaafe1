package application

import "time"

// Roles assignable to user accounts. Elevation to admin happens out of
// band (seeded data or the hash-password command), never through the API.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	Username string
	Surname  string
	Role     string
}

// IsAdmin reports whether the principal may perform admin operations.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// User is an account persisted in the user list document. Username is the
// identity and must be unique case-insensitively.
type User struct {
	Username     string `json:"username"`
	Surname      string `json:"surname"`
	PasswordHash string `json:"passwordHash"`
	Role         string `json:"role"`
}

// RegisterUserParams captures caller provided signup fields.
type RegisterUserParams struct {
	Username string
	Surname  string
	Password string
}

// LoginParams captures caller provided login fields.
type LoginParams struct {
	Username string
	Password string
}

// EventInput captures caller provided event fields for admin upsert.
type EventInput struct {
	ID       string
	Name     string
	Date     string
	Time     string
	Duration string
	Host     string
	Capacity int
}

// Session represents an authenticated session issued to a user. Sessions
// live only in process memory; a restart signs everyone out.
type Session struct {
	Token     string
	Principal Principal
	CreatedAt time.Time
	ExpiresAt time.Time
}
