package election

import (
	"context"
	"time"

	"votebyte/internal/apperr"
	"votebyte/internal/model"
)

// Sentinel errors surfaced to callers.
var (
	ErrNotFound          = apperr.New(apperr.NotFound, "election not found")
	ErrCandidateNotFound = apperr.New(apperr.NotFound, "candidate not found in this election")
	ErrAlreadyCandidate  = apperr.New(apperr.Conflict, "account is already a candidate in this election")
	ErrNotUpcoming       = apperr.New(apperr.State, "election is not accepting candidates")
)

// Store persists elections and their candidate roster.
type Store interface {
	Insert(ctx context.Context, e model.Election) (model.Election, error)
	Get(ctx context.Context, id string) (model.Election, error)
	List(ctx context.Context) ([]model.Election, error)
	ListByPhase(ctx context.Context, phase model.Phase) ([]model.Election, error)
	// UpdatePhases persists the given phase changes as a single atomic
	// batch: all rows update or none do.
	UpdatePhases(ctx context.Context, changes map[string]model.Phase) error
	SetPhase(ctx context.Context, id string, phase model.Phase) error

	InsertCandidate(ctx context.Context, c model.Candidate) (model.Candidate, error)
	GetCandidate(ctx context.Context, electionID, candidateID string) (model.Candidate, error)
	SetCandidateStatus(ctx context.Context, electionID, candidateID string, status model.CandidateStatus) error
	ListCandidates(ctx context.Context, electionID string, status model.CandidateStatus) ([]model.Candidate, error)
}

// Service is the election lifecycle manager. Phases are derived from the
// time window on every read path; CANCELLED is manual and terminal.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a service.
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// CreateParams is the validated input for Create.
type CreateParams struct {
	Title       string
	Description string
	StartTime   time.Time
	EndTime     time.Time
	AuthType    model.AuthType
	CreatedBy   string
}

// Create schedules an election. The window must lie strictly in the future
// and end after it starts.
func (s *Service) Create(ctx context.Context, p CreateParams) (model.Election, error) {
	now := s.now()
	switch {
	case p.Title == "":
		return model.Election{}, apperr.New(apperr.Validation, "title is required")
	case p.StartTime.IsZero() || p.EndTime.IsZero():
		return model.Election{}, apperr.New(apperr.Validation, "start and end time are required")
	case !p.StartTime.After(now):
		return model.Election{}, apperr.New(apperr.Validation, "start time cannot be in the past")
	case !p.EndTime.After(p.StartTime):
		return model.Election{}, apperr.New(apperr.Validation, "end time must be after start time")
	case !model.ValidAuthType(p.AuthType):
		return model.Election{}, apperr.Newf(apperr.Validation, "unknown auth type %q", p.AuthType)
	case p.CreatedBy == "":
		return model.Election{}, apperr.New(apperr.Validation, "creator is required")
	}

	return s.store.Insert(ctx, model.Election{
		Title:       p.Title,
		Description: p.Description,
		CreatedBy:   p.CreatedBy,
		StartTime:   p.StartTime,
		EndTime:     p.EndTime,
		Phase:       model.PhaseUpcoming,
		AuthType:    p.AuthType,
	})
}

// Get returns an election with a freshly derived phase.
func (s *Service) Get(ctx context.Context, id string) (model.Election, error) {
	e, err := s.store.Get(ctx, id)
	if err != nil {
		return model.Election{}, err
	}
	e.Phase = DerivePhase(e.StartTime, e.EndTime, e.Phase, s.now())
	return e, nil
}

// RefreshPhases recomputes every non-cancelled election's phase and persists
// only the ones that changed, as one atomic batch. Runs before listing reads
// so observers never see a phase inconsistent with wall-clock time.
func (s *Service) RefreshPhases(ctx context.Context) error {
	elections, err := s.store.List(ctx)
	if err != nil {
		return err
	}
	now := s.now()
	changes := make(map[string]model.Phase)
	for _, e := range elections {
		if e.Phase == model.PhaseCancelled {
			continue
		}
		if next := DerivePhase(e.StartTime, e.EndTime, e.Phase, now); next != e.Phase {
			changes[e.ID] = next
		}
	}
	if len(changes) == 0 {
		return nil
	}
	return s.store.UpdatePhases(ctx, changes)
}

// List returns all elections after a phase refresh.
func (s *Service) List(ctx context.Context) ([]model.Election, error) {
	if err := s.RefreshPhases(ctx); err != nil {
		return nil, err
	}
	return s.store.List(ctx)
}

// ListByPhase returns elections in the given phase after a refresh.
func (s *Service) ListByPhase(ctx context.Context, phase model.Phase) ([]model.Election, error) {
	switch phase {
	case model.PhaseUpcoming, model.PhaseOngoing, model.PhaseCompleted, model.PhaseCancelled:
	default:
		return nil, apperr.Newf(apperr.Validation, "unknown phase %q", phase)
	}
	if err := s.RefreshPhases(ctx); err != nil {
		return nil, err
	}
	return s.store.ListByPhase(ctx, phase)
}

// Cancel freezes an election in the terminal CANCELLED phase.
func (s *Service) Cancel(ctx context.Context, id string) error {
	if _, err := s.store.Get(ctx, id); err != nil {
		return err
	}
	return s.store.SetPhase(ctx, id, model.PhaseCancelled)
}

// ApplyParams is the input for a candidacy application.
type ApplyParams struct {
	ElectionID string
	AccountID  string
	PartyName  string
	Symbol     string
	Manifesto  string
}

// ApplyCandidate registers a PENDING candidacy. Applications close once the
// election leaves UPCOMING.
func (s *Service) ApplyCandidate(ctx context.Context, p ApplyParams) (model.Candidate, error) {
	if p.ElectionID == "" || p.AccountID == "" || p.PartyName == "" {
		return model.Candidate{}, apperr.New(apperr.Validation, "election, account and party name are required")
	}
	e, err := s.Get(ctx, p.ElectionID)
	if err != nil {
		return model.Candidate{}, err
	}
	if e.Phase != model.PhaseUpcoming {
		return model.Candidate{}, ErrNotUpcoming
	}
	return s.store.InsertCandidate(ctx, model.Candidate{
		ElectionID: p.ElectionID,
		AccountID:  p.AccountID,
		PartyName:  p.PartyName,
		Symbol:     p.Symbol,
		Manifesto:  p.Manifesto,
		Status:     model.CandidatePending,
	})
}

// ReviewCandidate approves or rejects a pending candidacy.
func (s *Service) ReviewCandidate(ctx context.Context, electionID, candidateID string, approve bool) (model.Candidate, error) {
	if _, err := s.store.GetCandidate(ctx, electionID, candidateID); err != nil {
		return model.Candidate{}, err
	}
	status := model.CandidateRejected
	if approve {
		status = model.CandidateApproved
	}
	if err := s.store.SetCandidateStatus(ctx, electionID, candidateID, status); err != nil {
		return model.Candidate{}, err
	}
	return s.store.GetCandidate(ctx, electionID, candidateID)
}

// ApprovedCandidates lists the approved candidates of an election, ordered
// by registration time.
func (s *Service) ApprovedCandidates(ctx context.Context, electionID string) ([]model.Candidate, error) {
	if _, err := s.store.Get(ctx, electionID); err != nil {
		return nil, err
	}
	return s.store.ListCandidates(ctx, electionID, model.CandidateApproved)
}
