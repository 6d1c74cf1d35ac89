package ports

import (
	"context"

	"github.com/vetrix/clinic-system/internal/core/domain"
)

// TokenPair is a freshly issued access/refresh token couple.
type TokenPair struct {
	AccessToken  string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

// TokenVerifier is the read side of TokenService, all the request
// middleware needs.
type TokenVerifier interface {
	// VerifyAccessToken returns the embedded principal, or nil when the
	// token is unsigned, expired, malformed, mistyped, carries an invalid
	// role, or has been blacklisted. It never returns an error: callers
	// must branch on nil explicitly.
	VerifyAccessToken(ctx context.Context, token string) *domain.User
}

// TokenService issues and verifies access tokens and manages the opaque
// refresh-token lifecycle.
type TokenService interface {
	TokenVerifier

	// IssueAccessToken fails when the principal's role is outside the
	// valid set. The invariant is enforced at issuance, not just verification.
	IssueAccessToken(user *domain.User) (string, error)

	IssueRefreshToken(ctx context.Context, userID int64) (string, error)

	// RotateRefreshToken revokes the presented token and issues a fresh
	// pair. A token that is unknown, already revoked, or expired yields
	// domain.ErrRefreshInvalid; rotation is strictly single-use.
	RotateRefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error)

	RevokeRefreshToken(ctx context.Context, refreshToken string) error

	// BlacklistAccessToken revokes a still-valid access token until its
	// natural expiry.
	BlacklistAccessToken(ctx context.Context, token string) error
}
