package ports

import (
	"context"

	"github.com/vetrix/clinic-system/internal/core/domain"
)

// RegisterInput carries everything needed to create a principal.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     domain.Role
}

// LoginInput carries the credentials plus client metadata recorded on the
// resulting session. Login may be an email address or a username.
type LoginInput struct {
	Login     string
	Password  string
	IPAddress string
	UserAgent string
}

// LoginResult is the full outcome of a successful login.
type LoginResult struct {
	AccessToken  string       `json:"token"`
	RefreshToken string       `json:"refresh_token"`
	SessionID    string       `json:"session_id"`
	User         *domain.User `json:"user"`
}

// AuthService is the boundary the HTTP layer talks to.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	// Login returns domain.ErrTooManyAttempts with a retry hint once the
	// sliding-window limit for this (ip, login) pair is exhausted.
	Login(ctx context.Context, in LoginInput) (*LoginResult, error)
	Me(ctx context.Context, userID int64) (*domain.User, error)
	Logout(ctx context.Context, sessionID string) error
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	ListUsers(ctx context.Context) ([]*domain.User, error)
}
