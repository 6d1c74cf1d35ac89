package domain

import "time"

// RefreshToken is the server-side record behind an opaque refresh-token
// string. The string itself carries no claims and must be looked up.
type RefreshToken struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	Revoked   bool      `json:"revoked"`
}

// Expired reports whether the token is past its expiry at the given instant.
func (t *RefreshToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// LoginSession tracks one login instance tied to a client, independent of
// the stateless access token.
type LoginSession struct {
	ID           string    `json:"id"`
	UserID       int64     `json:"user_id"`
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	IPAddress    string    `json:"ip_address"`
	UserAgent    string    `json:"user_agent"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
	Active       bool      `json:"active"`
}

// TwoFactorEnrollment holds a principal's TOTP secret and backup codes.
// It stays disabled until the owner proves possession of the secret.
type TwoFactorEnrollment struct {
	UserID      int64     `json:"user_id"`
	Secret      string    `json:"-"`
	Enabled     bool      `json:"enabled"`
	BackupCodes []string  `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}
