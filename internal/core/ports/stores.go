package ports

import (
	"context"
	"time"

	"github.com/vetrix/clinic-system/internal/core/domain"
)

// The auth core owns its session/token/two-factor state through these
// capability-scoped stores. Tests inject in-memory fakes; production can
// substitute durable backends without touching call sites.

// RefreshTokenStore maps opaque refresh-token strings to their records.
// Find returns (nil, nil) when the token is unknown.
type RefreshTokenStore interface {
	Save(ctx context.Context, token *domain.RefreshToken) error
	Find(ctx context.Context, token string) (*domain.RefreshToken, error)
	// Revoke atomically transitions the token from live to revoked and
	// reports whether this call won the transition. At most one caller ever
	// sees true for a given token; unknown or already revoked tokens yield
	// false. Rotation relies on this to stay single-use under concurrency.
	Revoke(ctx context.Context, token string) (bool, error)
	// Purge removes tokens that are expired or revoked as of now and
	// returns how many were dropped.
	Purge(ctx context.Context, now time.Time) (int, error)
}

// SessionStore holds login-session records keyed by session id.
// Find returns (nil, nil) when the session is unknown.
type SessionStore interface {
	Save(ctx context.Context, session *domain.LoginSession) error
	Find(ctx context.Context, id string) (*domain.LoginSession, error)
	Delete(ctx context.Context, id string) error
	ListByUser(ctx context.Context, userID int64) ([]*domain.LoginSession, error)
	// Snapshot returns a copy of all sessions so sweeps never mutate while
	// iterating live state.
	Snapshot(ctx context.Context) ([]*domain.LoginSession, error)
}

// TwoFactorStore holds enrollments keyed by principal id.
// Find returns (nil, nil) when the principal has no enrollment.
type TwoFactorStore interface {
	Save(ctx context.Context, enrollment *domain.TwoFactorEnrollment) error
	Find(ctx context.Context, userID int64) (*domain.TwoFactorEnrollment, error)
	// ConsumeBackupCode atomically removes the code (already normalized to
	// the stored form) from the enrollment and reports whether it was
	// present. At most one caller ever consumes a given code.
	ConsumeBackupCode(ctx context.Context, userID int64, code string) (bool, error)
}

// TokenBlacklist is the revocation set checked on every access-token
// verification. Entries are retained until the token would have expired.
type TokenBlacklist interface {
	Add(ctx context.Context, token string, ttl time.Duration) error
	Contains(ctx context.Context, token string) (bool, error)
}
