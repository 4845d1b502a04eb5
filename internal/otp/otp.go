package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/duchm/foliogate/internal/mail"
	"github.com/duchm/foliogate/model"
	"github.com/duchm/foliogate/params"
	"golang.org/x/crypto/bcrypt"
)

// CredentialStore is the slice of the admin service the issuer needs to
// persist pending otp state.
type CredentialStore interface {
	StoreLoginOTP(ctx context.Context, adminID uint, otpHash string, expiry time.Time) error
	ClearLoginOTP(ctx context.Context, adminID uint) error
}

var (
	// ErrNoPendingOTP and ErrOTPMismatch must render identically to callers;
	// only ErrOTPExpired is allowed to leak as its own message.
	ErrNoPendingOTP   = errors.New("no pending otp")
	ErrOTPExpired     = errors.New("otp expired")
	ErrOTPMismatch    = errors.New("otp mismatch")
	ErrDeliveryFailed = errors.New("failed to deliver otp")
)

// Issuer generates, stores and verifies login one-time passcodes. Codes are
// hashed with the same primitive as passwords; only the hash is persisted.
type Issuer struct {
	credStore  CredentialStore
	mailSender mail.MailSender
}

// generateCode returns a uniformly distributed numeric code, leading
// zeros included.
func generateCode(length int) string {
	var b strings.Builder
	b.Grow(length)
	ten := big.NewInt(10)
	for i := 0; i < length; i++ {
		n, _ := rand.Int(rand.Reader, ten)
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String()
}

// Issue mints a new otp for the account, replacing any pending one, and
// delivers it by mail. If delivery fails the stored hash is rolled back so
// no valid-but-undelivered code stays active.
func (s *Issuer) Issue(ctx context.Context, admin *model.Admin) error {
	code := generateCode(params.LoginOTPLength)
	codeHash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	expiry := time.Now().Add(params.LoginOTPExpiration)
	if err := s.credStore.StoreLoginOTP(ctx, admin.ID, string(codeHash), expiry); err != nil {
		return err
	}

	if err := mail.SendLoginOTP(s.mailSender, admin.Username, code); err != nil {
		if clearErr := s.credStore.ClearLoginOTP(ctx, admin.ID); clearErr != nil {
			slog.Error("Failed to roll back undelivered otp", "adminID", admin.ID, "error", clearErr)
		}
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	return nil
}

// Verify checks the candidate code against the pending otp. The otp is
// single use: both expiry and success clear the stored state.
func (s *Issuer) Verify(ctx context.Context, admin *model.Admin, candidate string) error {
	if admin.LoginOTP == nil || admin.LoginOTPExpiry == nil {
		return ErrNoPendingOTP
	}
	if time.Now().After(*admin.LoginOTPExpiry) {
		if err := s.credStore.ClearLoginOTP(ctx, admin.ID); err != nil {
			return err
		}
		return ErrOTPExpired
	}
	candidate = strings.TrimSpace(candidate)
	if err := bcrypt.CompareHashAndPassword([]byte(*admin.LoginOTP), []byte(candidate)); err != nil {
		return ErrOTPMismatch
	}
	return s.credStore.ClearLoginOTP(ctx, admin.ID)
}

func NewIssuer(credStore CredentialStore, mailSender mail.MailSender) *Issuer {
	return &Issuer{
		credStore:  credStore,
		mailSender: mailSender,
	}
}
