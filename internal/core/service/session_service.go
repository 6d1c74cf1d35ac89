package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vetrix/clinic-system/internal/core/domain"
	"github.com/vetrix/clinic-system/internal/core/ports"
)

const defaultSessionIdleTimeout = 24 * time.Hour

// SessionService tracks login sessions and owns their termination semantics.
type SessionService struct {
	tokens      ports.TokenService
	sessions    ports.SessionStore
	refresh     ports.RefreshTokenStore
	idleTimeout time.Duration
	log         zerolog.Logger
	now         func() time.Time
}

func NewSessionService(
	tokens ports.TokenService,
	sessions ports.SessionStore,
	refresh ports.RefreshTokenStore,
	idleTimeout time.Duration,
	log zerolog.Logger,
) *SessionService {
	if idleTimeout <= 0 {
		idleTimeout = defaultSessionIdleTimeout
	}
	return &SessionService{
		tokens:      tokens,
		sessions:    sessions,
		refresh:     refresh,
		idleTimeout: idleTimeout,
		log:         log,
		now:         time.Now,
	}
}

// CreateSession issues a fresh access/refresh pair and records the client
// metadata under a new session id.
func (s *SessionService) CreateSession(ctx context.Context, user *domain.User, ip, userAgent string) (*ports.SessionTokens, error) {
	access, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.IssueRefreshToken(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	session := &domain.LoginSession{
		ID:           uuid.NewString(),
		UserID:       user.ID,
		AccessToken:  access,
		RefreshToken: refresh,
		IPAddress:    ip,
		UserAgent:    userAgent,
		CreatedAt:    now,
		LastActivity: now,
		Active:       true,
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	return &ports.SessionTokens{
		AccessToken:  access,
		RefreshToken: refresh,
		SessionID:    session.ID,
	}, nil
}

// ListActive returns the still-active sessions for the principal.
func (s *SessionService) ListActive(ctx context.Context, userID int64) ([]*domain.LoginSession, error) {
	all, err := s.sessions.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	active := make([]*domain.LoginSession, 0, len(all))
	for _, sess := range all {
		if sess.Active {
			active = append(active, sess)
		}
	}
	return active, nil
}

// Terminate blacklists the session's access token, revokes its refresh
// token, and deletes the record. Calling it twice on the same id is a no-op
// the second time.
func (s *SessionService) Terminate(ctx context.Context, sessionID string) error {
	session, err := s.sessions.Find(ctx, sessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return nil
	}

	if err := s.tokens.BlacklistAccessToken(ctx, session.AccessToken); err != nil {
		return fmt.Errorf("blacklist access token: %w", err)
	}
	if err := s.tokens.RevokeRefreshToken(ctx, session.RefreshToken); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return s.sessions.Delete(ctx, sessionID)
}

// SweepExpired removes sessions idle beyond the timeout, blacklisting their
// access tokens, and purges refresh tokens that are expired or revoked.
// It works on a snapshot so sessions created mid-sweep are untouched.
func (s *SessionService) SweepExpired(ctx context.Context) error {
	now := s.now()

	snapshot, err := s.sessions.Snapshot(ctx)
	if err != nil {
		return err
	}

	swept := 0
	for _, sess := range snapshot {
		if now.Sub(sess.LastActivity) <= s.idleTimeout {
			continue
		}
		if err := s.tokens.BlacklistAccessToken(ctx, sess.AccessToken); err != nil {
			s.log.Error().Err(err).Str("session_id", sess.ID).Msg("sweep: blacklist failed")
			continue
		}
		if err := s.sessions.Delete(ctx, sess.ID); err != nil {
			s.log.Error().Err(err).Str("session_id", sess.ID).Msg("sweep: delete failed")
			continue
		}
		swept++
	}

	purged, err := s.refresh.Purge(ctx, now)
	if err != nil {
		return err
	}

	if swept > 0 || purged > 0 {
		s.log.Info().Int("sessions_swept", swept).Int("refresh_tokens_purged", purged).Msg("session sweep complete")
	}
	return nil
}

// StartSweeper runs SweepExpired on a fixed interval until ctx is cancelled.
// It runs off the request path and never blocks handlers.
func (s *SessionService) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.SweepExpired(ctx); err != nil {
					s.log.Error().Err(err).Msg("session sweep failed")
				}
			}
		}
	}()
}

// Touch records request activity on a session so the idle sweep does not
// reap sessions that are still in use.
func (s *SessionService) Touch(ctx context.Context, sessionID string) error {
	session, err := s.sessions.Find(ctx, sessionID)
	if err != nil || session == nil {
		return err
	}
	session.LastActivity = s.now().UTC()
	return s.sessions.Save(ctx, session)
}

var _ ports.SessionRegistry = (*SessionService)(nil)
