package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/vetrix/clinic-system/internal/core/domain"
	"github.com/vetrix/clinic-system/internal/core/ports"
)

const minUsernameLength = 5

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// AuthService implements registration, login, and session-bound logout.
type AuthService struct {
	repo       ports.UserRepository
	tokens     ports.TokenService
	sessions   ports.SessionRegistry
	limiter    *LoginLimiter
	bcryptCost int
}

func NewAuthService(
	repo ports.UserRepository,
	tokens ports.TokenService,
	sessions ports.SessionRegistry,
	limiter *LoginLimiter,
	bcryptCost int,
) *AuthService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = 12
	}
	return &AuthService{
		repo:       repo,
		tokens:     tokens,
		sessions:   sessions,
		limiter:    limiter,
		bcryptCost: bcryptCost,
	}
}

// Register validates the input in full, hashes the password, and creates the
// principal. All rule violations are collected into a single validation
// error rather than reported one at a time.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	var violations []string

	if len(in.Username) < minUsernameLength {
		violations = append(violations, fmt.Sprintf("username must be at least %d characters", minUsernameLength))
	}
	if !emailPattern.MatchString(in.Email) {
		violations = append(violations, "invalid email format")
	}
	if !in.Role.Valid() {
		violations = append(violations, fmt.Sprintf("role must be one of: %v", domain.ValidRoles))
	}
	if pv := domain.ValidatePassword(in.Password); !pv.Valid {
		violations = append(violations, pv.Errors...)
	}
	if len(violations) > 0 {
		return nil, domain.ValidationErrors(violations)
	}

	// Conflicts are checked case-insensitively; the repository stores
	// lowercased lookup keys for the same reason.
	if existing, err := s.repo.FindByEmail(ctx, in.Email); err != nil && err != domain.ErrUserNotFound {
		return nil, err
	} else if existing != nil {
		return nil, domain.ErrUserExists
	}
	if existing, err := s.repo.FindByUsername(ctx, in.Username); err != nil && err != domain.ErrUserNotFound {
		return nil, err
	} else if existing != nil {
		return nil, domain.ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	created, err := s.repo.Create(ctx, &domain.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         in.Role,
	})
	if err != nil {
		return nil, err
	}
	return created.Sanitized(), nil
}

// Login authenticates by email or username, subject to the per-(ip, login)
// rate limit, and opens a tracked session on success.
func (s *AuthService) Login(ctx context.Context, in ports.LoginInput) (*ports.LoginResult, error) {
	if in.Login == "" || in.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	if allowed, retryAfter := s.limiter.Allow(in.IPAddress, strings.ToLower(in.Login)); !allowed {
		return nil, &domain.RateLimitError{RetryAfter: retryAfter}
	}

	user, err := s.findByLogin(ctx, in.Login)
	if err != nil {
		if err == domain.ErrUserNotFound {
			// Indistinguishable from a bad password on purpose.
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	tokens, err := s.sessions.CreateSession(ctx, user, in.IPAddress, in.UserAgent)
	if err != nil {
		return nil, err
	}

	return &ports.LoginResult{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		SessionID:    tokens.SessionID,
		User:         user.Sanitized(),
	}, nil
}

func (s *AuthService) findByLogin(ctx context.Context, login string) (*domain.User, error) {
	if strings.Contains(login, "@") {
		return s.repo.FindByEmail(ctx, login)
	}
	return s.repo.FindByUsername(ctx, login)
}

// Me returns the principal without its credential hash.
func (s *AuthService) Me(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.Sanitized(), nil
}

// Logout terminates the named session: access token blacklisted, refresh
// token revoked, record removed.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Terminate(ctx, sessionID)
}

// Refresh rotates the presented refresh token for a fresh pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*ports.TokenPair, error) {
	return s.tokens.RotateRefreshToken(ctx, refreshToken)
}

// ListUsers returns every principal, hashes stripped. Admin only, enforced
// at the route.
func (s *AuthService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.User, 0, len(users))
	for _, u := range users {
		out = append(out, u.Sanitized())
	}
	return out, nil
}

var _ ports.AuthService = (*AuthService)(nil)
