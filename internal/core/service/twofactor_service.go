package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/vetrix/clinic-system/internal/core/domain"
	"github.com/vetrix/clinic-system/internal/core/ports"
)

const (
	totpPeriod = 30
	// totpSkew accepts codes one time step either side of now. One step of
	// clock drift is tolerated; anything further is rejected.
	totpSkew = 1

	backupCodeCount = 10
	backupCodeBytes = 4
)

// TwoFactorService manages TOTP enrollments and backup codes per principal.
type TwoFactorService struct {
	issuer string
	store  ports.TwoFactorStore
	now    func() time.Time
}

func NewTwoFactorService(issuer string, store ports.TwoFactorStore) *TwoFactorService {
	if issuer == "" {
		issuer = "Vetrix"
	}
	return &TwoFactorService{issuer: issuer, store: store, now: time.Now}
}

// BeginSetup generates a fresh secret plus single-use backup codes. The
// enrollment stays disabled until Enable verifies a code against it, so a
// lost or mistyped secret never locks the account.
func (s *TwoFactorService) BeginSetup(ctx context.Context, userID int64) (*ports.TwoFactorSetup, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: fmt.Sprintf("%d", userID),
		Period:      totpPeriod,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, fmt.Errorf("generate totp secret: %w", err)
	}

	codes, err := generateBackupCodes(backupCodeCount)
	if err != nil {
		return nil, err
	}

	enrollment := &domain.TwoFactorEnrollment{
		UserID:      userID,
		Secret:      key.Secret(),
		Enabled:     false,
		BackupCodes: codes,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.store.Save(ctx, enrollment); err != nil {
		return nil, fmt.Errorf("save enrollment: %w", err)
	}

	return &ports.TwoFactorSetup{
		Secret:          key.Secret(),
		ProvisioningURI: key.URL(),
		BackupCodes:     codes,
	}, nil
}

// Verify checks the code against the stored secret, tolerating totpSkew
// steps of drift, and falls back to the principal's unused backup codes.
// Backup codes match case-insensitively and are consumed atomically in the
// store, so a code can never be spent twice.
func (s *TwoFactorService) Verify(ctx context.Context, userID int64, code string) (bool, error) {
	enrollment, err := s.store.Find(ctx, userID)
	if err != nil {
		return false, err
	}
	if enrollment == nil {
		return false, nil
	}

	if s.validTOTP(enrollment.Secret, code) {
		return true, nil
	}

	consumed, err := s.store.ConsumeBackupCode(ctx, userID, strings.ToUpper(code))
	if err != nil {
		return false, fmt.Errorf("consume backup code: %w", err)
	}
	return consumed, nil
}

// Enable flips the enrollment on, but only when the supplied code is a
// one-time code from the freshly generated secret. Backup codes do not
// complete setup: they prove possession of the codes, not of the secret.
func (s *TwoFactorService) Enable(ctx context.Context, userID int64, code string) (bool, error) {
	enrollment, err := s.store.Find(ctx, userID)
	if err != nil || enrollment == nil {
		return false, err
	}

	if !s.validTOTP(enrollment.Secret, code) {
		return false, nil
	}

	enrollment.Enabled = true
	if err := s.store.Save(ctx, enrollment); err != nil {
		return false, fmt.Errorf("enable two-factor: %w", err)
	}
	return true, nil
}

func (s *TwoFactorService) validTOTP(secret, code string) bool {
	valid, err := totp.ValidateCustom(code, secret, s.now().UTC(), totp.ValidateOpts{
		Period:    totpPeriod,
		Skew:      totpSkew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && valid
}

// Enabled reports whether the principal has completed two-factor setup.
func (s *TwoFactorService) Enabled(ctx context.Context, userID int64) (bool, error) {
	enrollment, err := s.store.Find(ctx, userID)
	if err != nil {
		return false, err
	}
	return enrollment != nil && enrollment.Enabled, nil
}

func generateBackupCodes(n int) ([]string, error) {
	codes := make([]string, 0, n)
	for i := 0; i < n; i++ {
		buf := make([]byte, backupCodeBytes)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("generate backup code: %w", err)
		}
		codes = append(codes, strings.ToUpper(hex.EncodeToString(buf)))
	}
	return codes, nil
}

var _ ports.TwoFactorService = (*TwoFactorService)(nil)
