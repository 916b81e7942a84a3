package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"votebyte/internal/apperr"
	"votebyte/internal/metrics"
	"votebyte/internal/model"
)

// Sentinel errors surfaced to callers.
var (
	ErrNoCode        = apperr.New(apperr.NotFound, "no verification code found")
	ErrCodeExpired   = apperr.New(apperr.State, "verification code expired")
	ErrCodeMismatch  = apperr.New(apperr.Validation, "verification code does not match")
	ErrAlreadyActive = apperr.New(apperr.Conflict, "account is already verified")
)

// CodeStore keeps at most one pending code per email. Put overwrites any
// prior entry for the email.
type CodeStore interface {
	Put(ctx context.Context, email, code string, expiresAt time.Time) error
	Get(ctx context.Context, email string) (code string, expiresAt time.Time, err error)
	Delete(ctx context.Context, email string) error
}

// AccountDirectory is the identity slice the verifier needs.
type AccountDirectory interface {
	GetByEmail(ctx context.Context, email string) (model.Account, error)
	Activate(ctx context.Context, email string) error
}

// Sender delivers the code. Issue only succeeds if delivery does.
type Sender interface {
	SendVerificationCode(ctx context.Context, to, code string) error
}

// Verifier issues and checks short-lived numeric activation codes.
type Verifier struct {
	codes    CodeStore
	accounts AccountDirectory
	mail     Sender
	ttl      time.Duration
	now      func() time.Time
}

// NewVerifier creates a verifier. ttl defaults to 5 minutes.
func NewVerifier(codes CodeStore, accounts AccountDirectory, mail Sender, ttl time.Duration) *Verifier {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Verifier{codes: codes, accounts: accounts, mail: mail, ttl: ttl, now: time.Now}
}

// generateCode returns a uniformly random 6-digit code. Leading zeros are
// kept: codes are strings, never numbers.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// Issue generates a code for an INACTIVE account and mails it. If delivery
// fails the stored entry is rolled back so no code exists without a delivery
// attempt behind it.
func (v *Verifier) Issue(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return apperr.New(apperr.Validation, "email is required")
	}

	acct, err := v.accounts.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if acct.Status == model.AccountActive {
		return ErrAlreadyActive
	}

	code, err := generateCode()
	if err != nil {
		return err
	}
	expiresAt := v.now().Add(v.ttl)

	if err := v.codes.Put(ctx, email, code, expiresAt); err != nil {
		return err
	}
	if err := v.mail.SendVerificationCode(ctx, email, code); err != nil {
		_ = v.codes.Delete(ctx, email)
		return apperr.Wrap(apperr.ExternalDependency, "verification mail delivery failed", err)
	}

	metrics.OTPIssued.Inc()
	return nil
}

// Verify checks a submitted code. On a match it activates the account and
// consumes the entry, so a second verify fails with ErrNoCode. A mismatch
// retains the entry for retries until expiry. Comparison is exact string
// equality after trimming; no numeric coercion.
func (v *Verifier) Verify(ctx context.Context, email, submitted string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || submitted == "" {
		return apperr.New(apperr.Validation, "email and code are required")
	}

	code, expiresAt, err := v.codes.Get(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNoCode) {
			metrics.OTPVerified.WithLabelValues("no_code").Inc()
		}
		return err
	}
	if v.now().After(expiresAt) {
		_ = v.codes.Delete(ctx, email)
		metrics.OTPVerified.WithLabelValues("expired").Inc()
		return ErrCodeExpired
	}
	if strings.TrimSpace(submitted) != code {
		metrics.OTPVerified.WithLabelValues("mismatch").Inc()
		return ErrCodeMismatch
	}

	if err := v.accounts.Activate(ctx, email); err != nil {
		// Entry is retained so the caller can retry until expiry.
		return err
	}
	_ = v.codes.Delete(ctx, email)
	metrics.OTPVerified.WithLabelValues("ok").Inc()
	return nil
}
