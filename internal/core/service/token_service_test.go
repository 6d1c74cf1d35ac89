package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/vetrix/clinic-system/internal/core/domain"
	"github.com/vetrix/clinic-system/internal/infrastructure/store/memory"
)

func newTokenService(t *testing.T, repo *stubUserRepo, accessTTL time.Duration) *TokenService {
	t.Helper()
	return NewTokenService("test-secret", accessTTL, 7*24*time.Hour,
		memory.NewRefreshTokenStore(), memory.NewTokenBlacklist(), repo, zerolog.Nop())
}

func seedUser(t *testing.T, repo *stubUserRepo, role domain.Role) *domain.User {
	t.Helper()
	user, err := repo.Create(context.Background(), &domain.User{
		Username: "dr.smith",
		Email:    "smith@vetrix.example",
		Role:     role,
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func TestTokenService_AccessTokenRoundTrip(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTokenService(t, repo, 15*time.Minute)
	user := seedUser(t, repo, domain.RoleVet)

	token, err := svc.IssueAccessToken(user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	got := svc.VerifyAccessToken(context.Background(), token)
	if got == nil {
		t.Fatalf("verify returned nil for a fresh token")
	}
	if got.ID != user.ID || got.Username != user.Username || got.Email != user.Email || got.Role != user.Role {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, user)
	}
}

func TestTokenService_IssueRejectsInvalidRole(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTokenService(t, repo, 15*time.Minute)

	_, err := svc.IssueAccessToken(&domain.User{ID: 1, Username: "x", Role: domain.Role("janitor")})
	if !errors.Is(err, domain.ErrInvalidRole) {
		t.Fatalf("expected invalid role error, got %v", err)
	}
}

func TestTokenService_VerifyRejectsInvalidRoleClaim(t *testing.T) {
	svc := newTokenService(t, newStubUserRepo(), 15*time.Minute)

	// Forge a structurally valid token carrying a role outside the set.
	claims := jwt.MapClaims{
		"id": float64(1), "username": "x", "email": "x@y.z",
		"role": "janitor", "type": "access",
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if svc.VerifyAccessToken(context.Background(), forged) != nil {
		t.Fatalf("token with invalid role must not verify")
	}
}

func TestTokenService_VerifyRejectsWrongType(t *testing.T) {
	svc := newTokenService(t, newStubUserRepo(), 15*time.Minute)

	claims := jwt.MapClaims{
		"id": float64(1), "username": "x", "email": "x@y.z",
		"role": "vet", "type": "refresh",
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if svc.VerifyAccessToken(context.Background(), token) != nil {
		t.Fatalf("non-access token type must not verify")
	}
}

func TestTokenService_VerifyRejectsTamperedSignature(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTokenService(t, repo, 15*time.Minute)
	user := seedUser(t, repo, domain.RoleAdmin)

	token, _ := svc.IssueAccessToken(user)
	tampered := token[:len(token)-2] + "xx"

	if svc.VerifyAccessToken(context.Background(), tampered) != nil {
		t.Fatalf("tampered token must not verify")
	}
}

func TestTokenService_VerifyRejectsExpired(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTokenService(t, repo, -time.Minute)
	user := seedUser(t, repo, domain.RoleAdmin)

	token, err := svc.IssueAccessToken(user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if svc.VerifyAccessToken(context.Background(), token) != nil {
		t.Fatalf("expired token must not verify")
	}
}

func TestTokenService_BlacklistDefeatsValidToken(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTokenService(t, repo, 15*time.Minute)
	user := seedUser(t, repo, domain.RoleVet)

	token, _ := svc.IssueAccessToken(user)
	if svc.VerifyAccessToken(context.Background(), token) == nil {
		t.Fatalf("precondition: token should verify before blacklisting")
	}

	if err := svc.BlacklistAccessToken(context.Background(), token); err != nil {
		t.Fatalf("blacklist: %v", err)
	}
	if svc.VerifyAccessToken(context.Background(), token) != nil {
		t.Fatalf("blacklisted token must not verify despite valid signature and expiry")
	}
}

func TestTokenService_RefreshRotationIsSingleUse(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTokenService(t, repo, 15*time.Minute)
	user := seedUser(t, repo, domain.RoleVet)

	refresh, err := svc.IssueRefreshToken(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("issue refresh: %v", err)
	}

	pair, err := svc.RotateRefreshToken(context.Background(), refresh)
	if err != nil {
		t.Fatalf("first rotation failed: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("rotation returned incomplete pair")
	}
	if pair.RefreshToken == refresh {
		t.Fatalf("rotation must mint a new refresh token")
	}

	if _, err := svc.RotateRefreshToken(context.Background(), refresh); !errors.Is(err, domain.ErrRefreshInvalid) {
		t.Fatalf("second rotation of the same token must fail, got %v", err)
	}

	// The replacement token still works.
	if _, err := svc.RotateRefreshToken(context.Background(), pair.RefreshToken); err != nil {
		t.Fatalf("rotating the replacement failed: %v", err)
	}
}

func TestTokenService_RotateUnknownToken(t *testing.T) {
	svc := newTokenService(t, newStubUserRepo(), 15*time.Minute)

	if _, err := svc.RotateRefreshToken(context.Background(), "no-such-token"); !errors.Is(err, domain.ErrRefreshInvalid) {
		t.Fatalf("expected refresh invalid, got %v", err)
	}
}

func TestTokenService_RefreshTokenIsOpaque(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTokenService(t, repo, 15*time.Minute)
	user := seedUser(t, repo, domain.RoleVet)

	refresh, _ := svc.IssueRefreshToken(context.Background(), user.ID)
	// An opaque token must never verify as an access token.
	if svc.VerifyAccessToken(context.Background(), refresh) != nil {
		t.Fatalf("refresh token verified as access token")
	}
}

func TestTokenService_ConcurrentRotationIsSingleUse(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTokenService(t, repo, 15*time.Minute)
	user := seedUser(t, repo, domain.RoleVet)

	const workers = 8
	for trial := 0; trial < 50; trial++ {
		refresh, err := svc.IssueRefreshToken(context.Background(), user.ID)
		if err != nil {
			t.Fatalf("issue refresh: %v", err)
		}

		start := make(chan struct{})
		results := make(chan error, workers)
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				_, err := svc.RotateRefreshToken(context.Background(), refresh)
				results <- err
			}()
		}
		close(start)
		wg.Wait()
		close(results)

		succeeded := 0
		for err := range results {
			if err == nil {
				succeeded++
			} else if !errors.Is(err, domain.ErrRefreshInvalid) {
				t.Fatalf("unexpected rotation error: %v", err)
			}
		}
		if succeeded != 1 {
			t.Fatalf("trial %d: %d concurrent rotations succeeded, want exactly 1", trial, succeeded)
		}
	}
}

// recordingBlacklist remembers the TTL of the most recent Add so tests can
// assert how long entries are kept.
type recordingBlacklist struct {
	inner   *memory.TokenBlacklist
	lastTTL time.Duration
}

func (b *recordingBlacklist) Add(ctx context.Context, token string, ttl time.Duration) error {
	b.lastTTL = ttl
	return b.inner.Add(ctx, token, ttl)
}

func (b *recordingBlacklist) Contains(ctx context.Context, token string) (bool, error) {
	return b.inner.Contains(ctx, token)
}

func TestTokenService_BlacklistUsesResidualLife(t *testing.T) {
	repo := newStubUserRepo()
	blacklist := &recordingBlacklist{inner: memory.NewTokenBlacklist()}
	svc := NewTokenService("test-secret", 15*time.Minute, 7*24*time.Hour,
		memory.NewRefreshTokenStore(), blacklist, repo, zerolog.Nop())
	user := seedUser(t, repo, domain.RoleVet)

	// A freshly issued token carries close to the full TTL.
	token, err := svc.IssueAccessToken(user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := svc.BlacklistAccessToken(context.Background(), token); err != nil {
		t.Fatalf("blacklist: %v", err)
	}
	if blacklist.lastTTL > 15*time.Minute || blacklist.lastTTL < 14*time.Minute {
		t.Fatalf("fresh token: expected near-full ttl, got %v", blacklist.lastTTL)
	}

	// A token near expiry must not outlive its natural death by the full TTL.
	nearExpiry := jwt.MapClaims{
		"id": float64(user.ID), "username": user.Username, "email": user.Email,
		"role": string(user.Role), "type": "access",
		"exp": time.Now().Add(30 * time.Second).Unix(),
	}
	shortToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, nearExpiry).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if err := svc.BlacklistAccessToken(context.Background(), shortToken); err != nil {
		t.Fatalf("blacklist: %v", err)
	}
	if blacklist.lastTTL > 30*time.Second || blacklist.lastTTL <= 0 {
		t.Fatalf("near-expiry token: expected residual ttl, got %v", blacklist.lastTTL)
	}
}
