package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vetrix/clinic-system/internal/core/domain"
	"github.com/vetrix/clinic-system/internal/core/ports"
)

const (
	// tokenTypeAccess discriminates access tokens from anything else signed
	// with the same secret. Verification rejects every other type.
	tokenTypeAccess = "access"

	refreshTokenBytes = 64
)

// TokenService issues HS256 access tokens and manages opaque refresh tokens.
// Access tokens are short-lived and stateless; refresh tokens are random
// strings resolved through the injected store.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	refresh    ports.RefreshTokenStore
	blacklist  ports.TokenBlacklist
	users      ports.UserRepository
	log        zerolog.Logger
}

func NewTokenService(
	secret string,
	accessTTL, refreshTTL time.Duration,
	refresh ports.RefreshTokenStore,
	blacklist ports.TokenBlacklist,
	users ports.UserRepository,
	log zerolog.Logger,
) *TokenService {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &TokenService{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		refresh:    refresh,
		blacklist:  blacklist,
		users:      users,
		log:        log,
	}
}

// AccessTokenTTL exposes the configured access-token lifetime so callers can
// size blacklist entries to the residual token life.
func (s *TokenService) AccessTokenTTL() time.Duration {
	return s.accessTTL
}

// IssueAccessToken signs a short-lived token embedding the principal's
// identity. Issuing for a role outside the valid set fails outright.
func (s *TokenService) IssueAccessToken(user *domain.User) (string, error) {
	if !user.Role.Valid() {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidRole, user.Role)
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"id":       user.ID,
		"username": user.Username,
		"email":    user.Email,
		"role":     string(user.Role),
		"type":     tokenTypeAccess,
		"iat":      now.Unix(),
		"exp":      now.Add(s.accessTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.secret)
}

// VerifyAccessToken returns the embedded principal or nil. It never returns
// an error so callers are forced to branch on the nil sentinel; there is no
// exception path to fall through.
func (s *TokenService) VerifyAccessToken(ctx context.Context, token string) *domain.User {
	blacklisted, err := s.blacklist.Contains(ctx, token)
	if err != nil {
		// Fail closed: an unreachable blacklist must not let revoked
		// tokens back in.
		s.log.Error().Err(err).Msg("blacklist lookup failed, rejecting token")
		return nil
	}
	if blacklisted {
		return nil
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil
	}

	if typ, _ := claims["type"].(string); typ != tokenTypeAccess {
		return nil
	}

	roleStr, _ := claims["role"].(string)
	role := domain.Role(roleStr)
	if !role.Valid() {
		return nil
	}

	id, ok := claims["id"].(float64)
	if !ok {
		return nil
	}
	username, _ := claims["username"].(string)
	email, _ := claims["email"].(string)

	return &domain.User{
		ID:       int64(id),
		Username: username,
		Email:    email,
		Role:     role,
	}
}

// IssueRefreshToken mints an opaque random token and records it server-side.
// The string carries no claims; it must be looked up, never decoded.
func (s *TokenService) IssueRefreshToken(ctx context.Context, userID int64) (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	token := hex.EncodeToString(buf)

	now := time.Now().UTC()
	rec := &domain.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		Token:     token,
		ExpiresAt: now.Add(s.refreshTTL),
		CreatedAt: now,
	}
	if err := s.refresh.Save(ctx, rec); err != nil {
		return "", fmt.Errorf("save refresh token: %w", err)
	}
	return token, nil
}

// RotateRefreshToken exchanges a valid refresh token for a brand-new pair.
// The old token is consumed via the store's atomic revoke before anything is
// issued: of any number of concurrent rotations of the same token, exactly
// one wins and the rest see ErrRefreshInvalid.
func (s *TokenService) RotateRefreshToken(ctx context.Context, refreshToken string) (*ports.TokenPair, error) {
	rec, err := s.refresh.Find(ctx, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	if rec == nil || rec.Revoked || rec.Expired(time.Now()) {
		return nil, domain.ErrRefreshInvalid
	}

	won, err := s.refresh.Revoke(ctx, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("revoke refresh token: %w", err)
	}
	if !won {
		// Lost the race to a concurrent rotation.
		return nil, domain.ErrRefreshInvalid
	}

	user, err := s.users.FindByID(ctx, rec.UserID)
	if err != nil {
		return nil, domain.ErrRefreshInvalid
	}

	access, err := s.IssueAccessToken(user)
	if err != nil {
		return nil, err
	}
	next, err := s.IssueRefreshToken(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &ports.TokenPair{AccessToken: access, RefreshToken: next}, nil
}

func (s *TokenService) RevokeRefreshToken(ctx context.Context, refreshToken string) error {
	_, err := s.refresh.Revoke(ctx, refreshToken)
	return err
}

// BlacklistAccessToken adds the token string to the revocation set for its
// residual lifetime, read from the token's own exp claim. A token whose
// expiry cannot be read is blacklisted for the full access TTL, which always
// covers the residual life.
func (s *TokenService) BlacklistAccessToken(ctx context.Context, token string) error {
	return s.blacklist.Add(ctx, token, s.residualLife(token))
}

func (s *TokenService) residualLife(token string) time.Duration {
	claims := jwt.MapClaims{}
	// Claims validation is skipped: an already-expired token still gets a
	// short entry rather than an error.
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	if _, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}); err != nil {
		return s.accessTTL
	}
	exp, ok := claims["exp"].(float64)
	if !ok {
		return s.accessTTL
	}
	remaining := time.Until(time.Unix(int64(exp), 0))
	if remaining <= 0 {
		return time.Minute
	}
	if remaining > s.accessTTL {
		return s.accessTTL
	}
	return remaining
}

var _ ports.TokenService = (*TokenService)(nil)
