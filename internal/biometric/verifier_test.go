package biometric

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"votebyte/internal/apperr"
)

type fakeDescriptorStore struct {
	mu   sync.Mutex
	data map[string][]float64
}

func newFakeDescriptorStore() *fakeDescriptorStore {
	return &fakeDescriptorStore{data: make(map[string][]float64)}
}

func (s *fakeDescriptorStore) Save(_ context.Context, accountID string, d []float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[accountID]; ok {
		return ErrAlreadyEnrolled
	}
	s.data[accountID] = d
	return nil
}

func (s *fakeDescriptorStore) Replace(_ context.Context, accountID string, d []float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[accountID] = d
	return nil
}

func (s *fakeDescriptorStore) Get(_ context.Context, accountID string) ([]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.data[accountID]
	if !ok {
		return nil, ErrNoEnrollment
	}
	return d, nil
}

func (s *fakeDescriptorStore) Delete(_ context.Context, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, accountID)
	return nil
}

func descriptor(dim int, fill float64) []float64 {
	d := make([]float64, dim)
	for i := range d {
		d[i] = fill
	}
	return d
}

func TestDistance(t *testing.T) {
	a := descriptor(4, 0)
	b := descriptor(4, 0)

	d, err := Distance(a, b)
	if err != nil || d != 0 {
		t.Fatalf("identical descriptors: d=%v err=%v", d, err)
	}

	b[0] = 3
	b[1] = 4
	d, err = Distance(a, b)
	if err != nil || math.Abs(d-5) > 1e-12 {
		t.Fatalf("3-4-5 distance: d=%v err=%v", d, err)
	}

	if _, err := Distance(a, descriptor(5, 0)); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("length mismatch = %v, want ErrDimensionMismatch", err)
	}
}

func TestEnrollAndVerify(t *testing.T) {
	ctx := context.Background()
	v := NewVerifier(newFakeDescriptorStore(), 128, 0.6)

	ref := descriptor(128, 0.1)
	if err := v.Enroll(ctx, "acct-1", ref); err != nil {
		t.Fatalf("enroll: %v", err)
	}

	res, err := v.Verify(ctx, "acct-1", ref, 0)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !res.Match || res.Distance != 0 {
		t.Fatalf("self verify: %+v", res)
	}

	// Far descriptor must not match.
	res, err = v.Verify(ctx, "acct-1", descriptor(128, 0.9), 0)
	if err != nil {
		t.Fatalf("verify far: %v", err)
	}
	if res.Match {
		t.Fatalf("far descriptor matched at distance %v", res.Distance)
	}
}

func TestVerifyThresholdBoundaryIsNonMatch(t *testing.T) {
	ctx := context.Background()
	v := NewVerifier(newFakeDescriptorStore(), 4, 0.6)

	ref := descriptor(4, 0)
	if err := v.Enroll(ctx, "acct-1", ref); err != nil {
		t.Fatalf("enroll: %v", err)
	}

	// live differs in one component by exactly the threshold.
	live := descriptor(4, 0)
	live[0] = 0.5
	res, err := v.Verify(ctx, "acct-1", live, 0.5)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if res.Match {
		t.Fatalf("distance == threshold must be a non-match, got %+v", res)
	}
	// Just inside the threshold matches.
	res, err = v.Verify(ctx, "acct-1", live, 0.5+1e-9)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !res.Match {
		t.Fatalf("distance < threshold should match, got %+v", res)
	}
}

func TestEnrollDimensionGate(t *testing.T) {
	ctx := context.Background()
	v := NewVerifier(newFakeDescriptorStore(), 128, 0.6)

	err := v.Enroll(ctx, "acct-1", descriptor(64, 0.1))
	if apperr.KindOf(err) != apperr.Validation {
		t.Fatalf("wrong-size enroll = %v, want validation error", err)
	}
}

func TestVerifyWithoutEnrollment(t *testing.T) {
	ctx := context.Background()
	v := NewVerifier(newFakeDescriptorStore(), 128, 0.6)

	_, err := v.Verify(ctx, "ghost", descriptor(128, 0.1), 0)
	if !errors.Is(err, ErrNoEnrollment) {
		t.Fatalf("verify without enrollment = %v, want ErrNoEnrollment", err)
	}
}

func TestReEnrollReplacesReference(t *testing.T) {
	ctx := context.Background()
	v := NewVerifier(newFakeDescriptorStore(), 4, 0.6)

	old := descriptor(4, 0.1)
	if err := v.Enroll(ctx, "acct-1", old); err != nil {
		t.Fatalf("enroll: %v", err)
	}
	if err := v.Enroll(ctx, "acct-1", descriptor(4, 0.2)); !errors.Is(err, ErrAlreadyEnrolled) {
		t.Fatalf("second enroll = %v, want ErrAlreadyEnrolled", err)
	}

	next := descriptor(4, 0.9)
	if err := v.ReEnroll(ctx, "acct-1", next); err != nil {
		t.Fatalf("re-enroll: %v", err)
	}
	res, err := v.Verify(ctx, "acct-1", next, 0)
	if err != nil || !res.Match {
		t.Fatalf("verify against new reference: res=%+v err=%v", res, err)
	}
}
