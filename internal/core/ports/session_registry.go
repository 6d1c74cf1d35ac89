package ports

import (
	"context"

	"github.com/vetrix/clinic-system/internal/core/domain"
)

// SessionTokens is what a successful login hands back to the client.
type SessionTokens struct {
	AccessToken  string `json:"token"`
	RefreshToken string `json:"refresh_token"`
	SessionID    string `json:"session_id"`
}

// SessionRegistry tracks active login sessions per principal.
type SessionRegistry interface {
	CreateSession(ctx context.Context, user *domain.User, ip, userAgent string) (*SessionTokens, error)

	ListActive(ctx context.Context, userID int64) ([]*domain.LoginSession, error)

	// Terminate blacklists the session's access token, revokes its refresh
	// token, and removes the record. Terminating an unknown or already
	// terminated session is a no-op.
	Terminate(ctx context.Context, sessionID string) error

	// Touch records request activity so the idle sweep spares sessions
	// that are still in use. Unknown ids are ignored.
	Touch(ctx context.Context, sessionID string) error

	// SweepExpired removes sessions idle beyond the configured window and
	// purges dead refresh tokens, bounding store growth.
	SweepExpired(ctx context.Context) error
}
