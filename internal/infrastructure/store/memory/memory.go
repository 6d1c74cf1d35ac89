// Package memory provides process-local implementations of the auth core's
// capability-scoped stores. Each store guards its map with its own RWMutex,
// so every insert/revoke/delete is atomic per key without a global lock.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/vetrix/clinic-system/internal/core/domain"
	"github.com/vetrix/clinic-system/internal/core/ports"
)

// RefreshTokenStore holds refresh-token records keyed by the opaque string.
type RefreshTokenStore struct {
	mu     sync.RWMutex
	tokens map[string]*domain.RefreshToken
}

func NewRefreshTokenStore() *RefreshTokenStore {
	return &RefreshTokenStore{tokens: make(map[string]*domain.RefreshToken)}
}

func (s *RefreshTokenStore) Save(_ context.Context, token *domain.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *token
	s.tokens[token.Token] = &clone
	return nil
}

func (s *RefreshTokenStore) Find(_ context.Context, token string) (*domain.RefreshToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.tokens[token]
	if !ok {
		return nil, nil
	}
	clone := *rec
	return &clone, nil
}

// Revoke flips the token's revoked flag under the store lock. The check and
// the write happen in one critical section, so exactly one of any number of
// concurrent callers observes the live-to-revoked transition.
func (s *RefreshTokenStore) Revoke(_ context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.tokens[token]
	if !ok || rec.Revoked {
		return false, nil
	}
	rec.Revoked = true
	return true, nil
}

func (s *RefreshTokenStore) Purge(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for key, rec := range s.tokens {
		if rec.Revoked || rec.Expired(now) {
			delete(s.tokens, key)
			removed++
		}
	}
	return removed, nil
}

// SessionStore holds login sessions keyed by session id.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.LoginSession
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*domain.LoginSession)}
}

func (s *SessionStore) Save(_ context.Context, session *domain.LoginSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *session
	s.sessions[session.ID] = &clone
	return nil
}

func (s *SessionStore) Find(_ context.Context, id string) (*domain.LoginSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	clone := *sess
	return &clone, nil
}

func (s *SessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *SessionStore) ListByUser(_ context.Context, userID int64) ([]*domain.LoginSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.LoginSession
	for _, sess := range s.sessions {
		if sess.UserID == userID {
			clone := *sess
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (s *SessionStore) Snapshot(_ context.Context) ([]*domain.LoginSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.LoginSession, 0, len(s.sessions))
	for _, sess := range s.sessions {
		clone := *sess
		out = append(out, &clone)
	}
	return out, nil
}

// TwoFactorStore holds enrollments keyed by principal id.
type TwoFactorStore struct {
	mu          sync.RWMutex
	enrollments map[int64]*domain.TwoFactorEnrollment
}

func NewTwoFactorStore() *TwoFactorStore {
	return &TwoFactorStore{enrollments: make(map[int64]*domain.TwoFactorEnrollment)}
}

func (s *TwoFactorStore) Save(_ context.Context, enrollment *domain.TwoFactorEnrollment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *enrollment
	clone.BackupCodes = append([]string(nil), enrollment.BackupCodes...)
	s.enrollments[enrollment.UserID] = &clone
	return nil
}

func (s *TwoFactorStore) Find(_ context.Context, userID int64) (*domain.TwoFactorEnrollment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	enr, ok := s.enrollments[userID]
	if !ok {
		return nil, nil
	}
	clone := *enr
	clone.BackupCodes = append([]string(nil), enr.BackupCodes...)
	return &clone, nil
}

// ConsumeBackupCode searches and removes the code inside one critical
// section, so concurrent attempts on the same code cannot both match it.
func (s *TwoFactorStore) ConsumeBackupCode(_ context.Context, userID int64, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	enr, ok := s.enrollments[userID]
	if !ok {
		return false, nil
	}
	for i, backup := range enr.BackupCodes {
		if backup == code {
			enr.BackupCodes = append(enr.BackupCodes[:i], enr.BackupCodes[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// TokenBlacklist is an in-process revocation set. Entries carry their expiry
// so the set does not grow past the natural life of the tokens in it.
type TokenBlacklist struct {
	mu      sync.RWMutex
	entries map[string]time.Time
}

func NewTokenBlacklist() *TokenBlacklist {
	return &TokenBlacklist{entries: make(map[string]time.Time)}
}

func (b *TokenBlacklist) Add(_ context.Context, token string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[token] = time.Now().Add(ttl)
	return nil
}

func (b *TokenBlacklist) Contains(_ context.Context, token string) (bool, error) {
	b.mu.RLock()
	expiry, ok := b.entries[token]
	b.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if time.Now().After(expiry) {
		b.mu.Lock()
		delete(b.entries, token)
		b.mu.Unlock()
		return false, nil
	}
	return true, nil
}

// Compile-time interface checks.
var (
	_ ports.RefreshTokenStore = (*RefreshTokenStore)(nil)
	_ ports.SessionStore      = (*SessionStore)(nil)
	_ ports.TwoFactorStore    = (*TwoFactorStore)(nil)
	_ ports.TokenBlacklist    = (*TokenBlacklist)(nil)
)
