package ports

import "context"

// TwoFactorSetup is returned from BeginSetup so the client can provision an
// authenticator app and store backup codes. The secret is shown exactly once.
type TwoFactorSetup struct {
	Secret          string   `json:"secret"`
	ProvisioningURI string   `json:"provisioning_uri"`
	BackupCodes     []string `json:"backup_codes"`
}

// TwoFactorService manages time-based one-time codes per principal.
type TwoFactorService interface {
	// BeginSetup generates a fresh secret and backup codes, stored disabled
	// until the owner verifies a code against them.
	BeginSetup(ctx context.Context, userID int64) (*TwoFactorSetup, error)

	// Verify accepts the current one-time code (within the documented drift
	// window) or an unused backup code, matched case-insensitively and
	// consumed on use.
	Verify(ctx context.Context, userID int64, code string) (bool, error)

	// Enable flips the enrollment on only after Verify succeeds against the
	// freshly generated secret.
	Enable(ctx context.Context, userID int64, code string) (bool, error)

	Enabled(ctx context.Context, userID int64) (bool, error)
}
