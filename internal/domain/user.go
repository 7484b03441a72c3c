package domain

import "time"

// User represents an account holder. The client keeps a denormalized copy as the
// session profile snapshot.
type User struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone,omitempty"`
	Role          string    `json:"role,omitempty"`
	EmailVerified bool      `json:"emailVerified"`
	PasswordHash  string    `json:"-"`
	Status        string    `json:"status,omitempty"`
	CreatedAt     time.Time `json:"createdAt,omitempty"`
	UpdatedAt     time.Time `json:"updatedAt,omitempty"`
}

// Roles accepted at signup.
const (
	RoleReader   = "reader"
	RoleReporter = "reporter"
)

// Session is the long-lived authenticated state of the client.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Valid reports whether the session carries a bearer token.
func (s Session) Valid() bool {
	return s.Token != ""
}
