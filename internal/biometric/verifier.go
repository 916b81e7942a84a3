package biometric

import (
	"context"
	"math"

	"votebyte/internal/apperr"
	"votebyte/internal/metrics"
)

// Sentinel errors surfaced to callers.
var (
	ErrNoEnrollment      = apperr.New(apperr.NotFound, "no biometric enrollment for account")
	ErrAlreadyEnrolled   = apperr.New(apperr.Conflict, "account already has an enrolled descriptor")
	ErrDimensionMismatch = apperr.New(apperr.Validation, "descriptor dimensions do not match")
)

// DescriptorStore keeps one reference descriptor per account.
type DescriptorStore interface {
	Save(ctx context.Context, accountID string, descriptor []float64) error
	Replace(ctx context.Context, accountID string, descriptor []float64) error
	Get(ctx context.Context, accountID string) ([]float64, error)
	Delete(ctx context.Context, accountID string) error
}

// Result is the outcome of a verification. A non-match is a normal outcome,
// not an error; the distance is returned so callers can log or display it.
type Result struct {
	Match     bool    `json:"match"`
	Distance  float64 `json:"distance"`
	Threshold float64 `json:"threshold"`
}

// Verifier compares live descriptors against enrolled references using
// Euclidean distance. It does no capture, liveness, or anti-spoof checks —
// those belong to the capture collaborator.
type Verifier struct {
	store            DescriptorStore
	dim              int
	defaultThreshold float64
}

// NewVerifier creates a verifier. dim gates enrollment (128 in the reference
// deployment); defaultThreshold applies when a caller passes 0.
func NewVerifier(store DescriptorStore, dim int, defaultThreshold float64) *Verifier {
	if dim <= 0 {
		dim = 128
	}
	if defaultThreshold <= 0 {
		defaultThreshold = 0.6
	}
	return &Verifier{store: store, dim: dim, defaultThreshold: defaultThreshold}
}

// Distance computes the Euclidean distance between two descriptors of equal
// length.
func Distance(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrDimensionMismatch
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum), nil
}

// Enroll stores the reference descriptor for an account. Fails if one
// already exists; re-enrollment goes through ReEnroll explicitly.
func (v *Verifier) Enroll(ctx context.Context, accountID string, descriptor []float64) error {
	if accountID == "" || len(descriptor) == 0 {
		return apperr.New(apperr.Validation, "account id and descriptor are required")
	}
	if len(descriptor) != v.dim {
		return apperr.Newf(apperr.Validation, "descriptor must have %d dimensions, got %d", v.dim, len(descriptor))
	}
	return v.store.Save(ctx, accountID, descriptor)
}

// ReEnroll replaces an existing enrollment.
func (v *Verifier) ReEnroll(ctx context.Context, accountID string, descriptor []float64) error {
	if accountID == "" || len(descriptor) == 0 {
		return apperr.New(apperr.Validation, "account id and descriptor are required")
	}
	if len(descriptor) != v.dim {
		return apperr.Newf(apperr.Validation, "descriptor must have %d dimensions, got %d", v.dim, len(descriptor))
	}
	return v.store.Replace(ctx, accountID, descriptor)
}

// Verify compares a live descriptor against the enrolled reference. A match
// requires distance strictly below the threshold; the boundary value is a
// non-match.
func (v *Verifier) Verify(ctx context.Context, accountID string, live []float64, threshold float64) (Result, error) {
	if accountID == "" || len(live) == 0 {
		return Result{}, apperr.New(apperr.Validation, "account id and descriptor are required")
	}
	if threshold <= 0 {
		threshold = v.defaultThreshold
	}

	ref, err := v.store.Get(ctx, accountID)
	if err != nil {
		return Result{}, err
	}
	dist, err := Distance(ref, live)
	if err != nil {
		return Result{}, err
	}

	res := Result{Match: dist < threshold, Distance: dist, Threshold: threshold}
	if res.Match {
		metrics.BiometricChecks.WithLabelValues("match").Inc()
	} else {
		metrics.BiometricChecks.WithLabelValues("no_match").Inc()
	}
	return res, nil
}

// Remove deletes an account's biometric data (privacy/cleanup).
func (v *Verifier) Remove(ctx context.Context, accountID string) error {
	return v.store.Delete(ctx, accountID)
}
