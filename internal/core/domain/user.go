package domain

import "time"

// Role is the closed set of clinic staff roles. Anything outside this set is
// rejected at registration, token issuance, and token verification alike.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleVet       Role = "vet"
	RoleAssistant Role = "assistant"
)

// ValidRoles lists every role the system accepts, in a stable order.
var ValidRoles = []Role{RoleAdmin, RoleVet, RoleAssistant}

// Valid reports whether r is a member of the closed role set.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleVet, RoleAssistant:
		return true
	}
	return false
}

// User models an authenticated principal in the clinic.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Sanitized returns a copy of the user with the credential hash stripped.
// Every code path that hands a user back to a caller goes through this.
func (u *User) Sanitized() *User {
	if u == nil {
		return nil
	}
	clone := *u
	clone.PasswordHash = ""
	return &clone
}
