package voter

import (
	"context"

	"votebyte/internal/apperr"
	"votebyte/internal/model"
)

// Sentinel errors surfaced to callers.
var (
	ErrNotFound          = apperr.New(apperr.NotFound, "voter not found")
	ErrAlreadyRegistered = apperr.New(apperr.Conflict, "account is already registered as a voter for this election")
)

// Store persists voter rows. (AccountID, ElectionID) is unique.
type Store interface {
	Insert(ctx context.Context, v model.Voter) (model.Voter, error)
	Get(ctx context.Context, voterID string) (model.Voter, error)
	GetByAccount(ctx context.Context, accountID, electionID string) (model.Voter, error)
	SetVerified(ctx context.Context, voterID string) error
	ListByElection(ctx context.Context, electionID string) ([]model.Voter, error)
	// Statistics must come from one consistent snapshot, not separate scans.
	Statistics(ctx context.Context, electionID string) (Stats, error)
}

// ElectionDirectory is the election slice registration needs.
type ElectionDirectory interface {
	Get(ctx context.Context, id string) (model.Election, error)
}

// Stats summarizes a roster. Pending is verified voters who have not voted.
type Stats struct {
	TotalRegistered int `json:"total_registered"`
	Verified        int `json:"verified"`
	Voted           int `json:"voted"`
	Unverified      int `json:"unverified"`
	Pending         int `json:"pending"`
}

// Service handles the UNREGISTERED → REGISTERED → VERIFIED → VOTED
// progression. The VOTED transition belongs to the vote casting engine.
type Service struct {
	store     Store
	elections ElectionDirectory
}

// NewService creates a service.
func NewService(store Store, elections ElectionDirectory) *Service {
	return &Service{store: store, elections: elections}
}

// Register binds an account to an election as an unverified voter. A second
// registration for the same pair fails with ErrAlreadyRegistered; callers
// may treat that as "already in desired state".
func (s *Service) Register(ctx context.Context, accountID, electionID string, authType model.AuthType) (model.Voter, error) {
	if accountID == "" || electionID == "" {
		return model.Voter{}, apperr.New(apperr.Validation, "account and election are required")
	}
	if !model.ValidAuthType(authType) {
		return model.Voter{}, apperr.Newf(apperr.Validation, "unknown auth type %q", authType)
	}
	if _, err := s.elections.Get(ctx, electionID); err != nil {
		return model.Voter{}, err
	}
	return s.store.Insert(ctx, model.Voter{
		AccountID:  accountID,
		ElectionID: electionID,
		AuthType:   authType,
		Verified:   false,
		HasVoted:   false,
	})
}

// Get returns a voter row by id.
func (s *Service) Get(ctx context.Context, voterID string) (model.Voter, error) {
	if voterID == "" {
		return model.Voter{}, apperr.New(apperr.Validation, "voter id is required")
	}
	return s.store.Get(ctx, voterID)
}

// Verify records a passed identity check. Re-verifying an already-verified
// voter is a no-op success. The actual OTP/biometric check happens in the
// calling flow; this only records the outcome.
func (s *Service) Verify(ctx context.Context, voterID string) (model.Voter, error) {
	if voterID == "" {
		return model.Voter{}, apperr.New(apperr.Validation, "voter id is required")
	}
	if _, err := s.store.Get(ctx, voterID); err != nil {
		return model.Voter{}, err
	}
	if err := s.store.SetVerified(ctx, voterID); err != nil {
		return model.Voter{}, err
	}
	return s.store.Get(ctx, voterID)
}

// Status reports an account's registration state for an election.
type Status struct {
	Registered bool         `json:"registered"`
	Voter      *model.Voter `json:"voter,omitempty"`
}

// Status returns the voter row for (account, election), or a not-registered
// status when none exists.
func (s *Service) Status(ctx context.Context, accountID, electionID string) (Status, error) {
	v, err := s.store.GetByAccount(ctx, accountID, electionID)
	if err != nil {
		if apperr.KindOf(err) == apperr.NotFound {
			return Status{Registered: false}, nil
		}
		return Status{}, err
	}
	return Status{Registered: true, Voter: &v}, nil
}

// List returns the roster of an election.
func (s *Service) List(ctx context.Context, electionID string) ([]model.Voter, error) {
	if _, err := s.elections.Get(ctx, electionID); err != nil {
		return nil, err
	}
	return s.store.ListByElection(ctx, electionID)
}

// Statistics returns roster counts from a single consistent snapshot.
func (s *Service) Statistics(ctx context.Context, electionID string) (Stats, error) {
	if _, err := s.elections.Get(ctx, electionID); err != nil {
		return Stats{}, err
	}
	return s.store.Statistics(ctx, electionID)
}
