package otp

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"votebyte/internal/model"
)

type fakeDirectory struct {
	accounts  map[string]model.Account
	activated []string
}

func newFakeDirectory(emails ...string) *fakeDirectory {
	d := &fakeDirectory{accounts: make(map[string]model.Account)}
	for _, e := range emails {
		d.accounts[e] = model.Account{ID: "acct-" + e, Email: e, Status: model.AccountInactive}
	}
	return d
}

func (d *fakeDirectory) GetByEmail(_ context.Context, email string) (model.Account, error) {
	acct, ok := d.accounts[email]
	if !ok {
		return model.Account{}, errors.New("account not found")
	}
	return acct, nil
}

func (d *fakeDirectory) Activate(_ context.Context, email string) error {
	acct, ok := d.accounts[email]
	if !ok {
		return errors.New("account not found")
	}
	acct.Status = model.AccountActive
	d.accounts[email] = acct
	d.activated = append(d.activated, email)
	return nil
}

type fakeSender struct {
	sent []string // codes in send order
	fail error
}

func (s *fakeSender) SendVerificationCode(_ context.Context, _, code string) error {
	if s.fail != nil {
		return s.fail
	}
	s.sent = append(s.sent, code)
	return nil
}

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := newFakeDirectory("ada@campus.edu")
	sender := &fakeSender{}
	v := NewVerifier(NewMemoryStore(), dir, sender, 5*time.Minute)

	if err := v.Issue(ctx, "ada@campus.edu"); err != nil {
		t.Fatalf("issue: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 mail, got %d", len(sender.sent))
	}
	code := sender.sent[0]
	if !regexp.MustCompile(`^\d{6}$`).MatchString(code) {
		t.Fatalf("code %q is not 6 digits", code)
	}

	if err := v.Verify(ctx, "ada@campus.edu", code); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if len(dir.activated) != 1 || dir.activated[0] != "ada@campus.edu" {
		t.Fatalf("account not activated: %v", dir.activated)
	}

	// The entry is consumed: a second verify finds no code.
	if err := v.Verify(ctx, "ada@campus.edu", code); !errors.Is(err, ErrNoCode) {
		t.Fatalf("second verify = %v, want ErrNoCode", err)
	}
}

func TestVerifyExpiredCode(t *testing.T) {
	ctx := context.Background()
	dir := newFakeDirectory("ada@campus.edu")
	sender := &fakeSender{}
	v := NewVerifier(NewMemoryStore(), dir, sender, 5*time.Minute)

	base := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	v.now = func() time.Time { return base }
	if err := v.Issue(ctx, "ada@campus.edu"); err != nil {
		t.Fatalf("issue: %v", err)
	}

	v.now = func() time.Time { return base.Add(5*time.Minute + time.Second) }
	if err := v.Verify(ctx, "ada@campus.edu", sender.sent[0]); !errors.Is(err, ErrCodeExpired) {
		t.Fatalf("verify after expiry = %v, want ErrCodeExpired", err)
	}
	if len(dir.activated) != 0 {
		t.Fatal("expired code must not activate the account")
	}
	// The expired entry is dropped, not retained.
	if err := v.Verify(ctx, "ada@campus.edu", sender.sent[0]); !errors.Is(err, ErrNoCode) {
		t.Fatalf("verify after expiry cleanup = %v, want ErrNoCode", err)
	}
}

func TestVerifyMismatchRetainsCode(t *testing.T) {
	ctx := context.Background()
	dir := newFakeDirectory("ada@campus.edu")
	sender := &fakeSender{}
	v := NewVerifier(NewMemoryStore(), dir, sender, 5*time.Minute)

	if err := v.Issue(ctx, "ada@campus.edu"); err != nil {
		t.Fatalf("issue: %v", err)
	}
	code := sender.sent[0]

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	if err := v.Verify(ctx, "ada@campus.edu", wrong); !errors.Is(err, ErrCodeMismatch) {
		t.Fatalf("wrong code = %v, want ErrCodeMismatch", err)
	}
	// Retry with the right code still works.
	if err := v.Verify(ctx, "ada@campus.edu", code); err != nil {
		t.Fatalf("retry with correct code: %v", err)
	}
}

func TestIssueRollsBackOnMailFailure(t *testing.T) {
	ctx := context.Background()
	dir := newFakeDirectory("ada@campus.edu")
	sender := &fakeSender{fail: errors.New("relay down")}
	codes := NewMemoryStore()
	v := NewVerifier(codes, dir, sender, 5*time.Minute)

	if err := v.Issue(ctx, "ada@campus.edu"); err == nil {
		t.Fatal("issue should fail when delivery fails")
	}
	// No orphaned code survives a failed delivery.
	if _, _, err := codes.Get(ctx, "ada@campus.edu"); !errors.Is(err, ErrNoCode) {
		t.Fatalf("stored code survived mail failure: %v", err)
	}
}

func TestIssueRejectsActiveAccount(t *testing.T) {
	ctx := context.Background()
	dir := newFakeDirectory("ada@campus.edu")
	acct := dir.accounts["ada@campus.edu"]
	acct.Status = model.AccountActive
	dir.accounts["ada@campus.edu"] = acct

	v := NewVerifier(NewMemoryStore(), dir, &fakeSender{}, 5*time.Minute)
	if err := v.Issue(ctx, "ada@campus.edu"); !errors.Is(err, ErrAlreadyActive) {
		t.Fatalf("issue for active account = %v, want ErrAlreadyActive", err)
	}
}

func TestReissueReplacesPendingCode(t *testing.T) {
	ctx := context.Background()
	dir := newFakeDirectory("ada@campus.edu")
	sender := &fakeSender{}
	v := NewVerifier(NewMemoryStore(), dir, sender, 5*time.Minute)

	if err := v.Issue(ctx, "ada@campus.edu"); err != nil {
		t.Fatalf("first issue: %v", err)
	}
	if err := v.Issue(ctx, "ada@campus.edu"); err != nil {
		t.Fatalf("second issue: %v", err)
	}
	first, second := sender.sent[0], sender.sent[1]
	if first != second {
		// Old code no longer verifies once replaced.
		if err := v.Verify(ctx, "ada@campus.edu", first); !errors.Is(err, ErrCodeMismatch) {
			t.Fatalf("stale code = %v, want ErrCodeMismatch", err)
		}
	}
	if err := v.Verify(ctx, "ada@campus.edu", second); err != nil {
		t.Fatalf("latest code: %v", err)
	}
}
