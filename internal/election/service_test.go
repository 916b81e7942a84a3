package election

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"votebyte/internal/apperr"
	"votebyte/internal/model"
)

type fakeStore struct {
	elections    map[string]model.Election
	candidates   map[string]model.Candidate
	phaseBatches []map[string]model.Phase
	nextID       int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		elections:  make(map[string]model.Election),
		candidates: make(map[string]model.Candidate),
	}
}

func (s *fakeStore) Insert(_ context.Context, e model.Election) (model.Election, error) {
	s.nextID++
	e.ID = fmt.Sprintf("el-%d", s.nextID)
	e.CreatedAt = time.Now().UTC()
	s.elections[e.ID] = e
	return e, nil
}

func (s *fakeStore) Get(_ context.Context, id string) (model.Election, error) {
	e, ok := s.elections[id]
	if !ok {
		return model.Election{}, ErrNotFound
	}
	return e, nil
}

func (s *fakeStore) List(_ context.Context) ([]model.Election, error) {
	var res []model.Election
	for _, e := range s.elections {
		res = append(res, e)
	}
	return res, nil
}

func (s *fakeStore) ListByPhase(_ context.Context, phase model.Phase) ([]model.Election, error) {
	var res []model.Election
	for _, e := range s.elections {
		if e.Phase == phase {
			res = append(res, e)
		}
	}
	return res, nil
}

func (s *fakeStore) UpdatePhases(_ context.Context, changes map[string]model.Phase) error {
	s.phaseBatches = append(s.phaseBatches, changes)
	for id, phase := range changes {
		e := s.elections[id]
		e.Phase = phase
		s.elections[id] = e
	}
	return nil
}

func (s *fakeStore) SetPhase(_ context.Context, id string, phase model.Phase) error {
	e, ok := s.elections[id]
	if !ok {
		return ErrNotFound
	}
	e.Phase = phase
	s.elections[id] = e
	return nil
}

func (s *fakeStore) InsertCandidate(_ context.Context, c model.Candidate) (model.Candidate, error) {
	for _, existing := range s.candidates {
		if existing.ElectionID == c.ElectionID && existing.AccountID == c.AccountID {
			return model.Candidate{}, ErrAlreadyCandidate
		}
	}
	s.nextID++
	c.ID = fmt.Sprintf("cand-%d", s.nextID)
	c.RegisteredAt = time.Now().UTC()
	s.candidates[c.ID] = c
	return c, nil
}

func (s *fakeStore) GetCandidate(_ context.Context, electionID, candidateID string) (model.Candidate, error) {
	c, ok := s.candidates[candidateID]
	if !ok || c.ElectionID != electionID {
		return model.Candidate{}, ErrCandidateNotFound
	}
	return c, nil
}

func (s *fakeStore) SetCandidateStatus(_ context.Context, electionID, candidateID string, status model.CandidateStatus) error {
	c, ok := s.candidates[candidateID]
	if !ok || c.ElectionID != electionID {
		return ErrCandidateNotFound
	}
	c.Status = status
	s.candidates[candidateID] = c
	return nil
}

func (s *fakeStore) ListCandidates(_ context.Context, electionID string, status model.CandidateStatus) ([]model.Candidate, error) {
	var res []model.Candidate
	for _, c := range s.candidates {
		if c.ElectionID == electionID && c.Status == status {
			res = append(res, c)
		}
	}
	return res, nil
}

var _ Store = (*fakeStore)(nil)

var testNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func newService(store *fakeStore) *Service {
	svc := NewService(store)
	svc.now = func() time.Time { return testNow }
	return svc
}

func validParams() CreateParams {
	return CreateParams{
		Title:     "Student Council 2026",
		StartTime: testNow.Add(24 * time.Hour),
		EndTime:   testNow.Add(32 * time.Hour),
		AuthType:  model.AuthOTP,
		CreatedBy: "acct-creator",
	}
}

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()
	svc := newService(newFakeStore())

	cases := []struct {
		name   string
		mutate func(*CreateParams)
	}{
		{"missing title", func(p *CreateParams) { p.Title = "" }},
		{"start in the past", func(p *CreateParams) { p.StartTime = testNow.Add(-time.Hour) }},
		{"start equals now", func(p *CreateParams) { p.StartTime = testNow }},
		{"end before start", func(p *CreateParams) { p.EndTime = p.StartTime.Add(-time.Hour) }},
		{"end equals start", func(p *CreateParams) { p.EndTime = p.StartTime }},
		{"unknown auth type", func(p *CreateParams) { p.AuthType = "CARRIER_PIGEON" }},
		{"missing creator", func(p *CreateParams) { p.CreatedBy = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := validParams()
			tc.mutate(&p)
			_, err := svc.Create(ctx, p)
			if apperr.KindOf(err) != apperr.Validation {
				t.Fatalf("got %v, want validation error", err)
			}
		})
	}

	e, err := svc.Create(ctx, validParams())
	if err != nil {
		t.Fatalf("valid create: %v", err)
	}
	if e.Phase != model.PhaseUpcoming {
		t.Fatalf("new election phase = %s, want UPCOMING", e.Phase)
	}
}

func TestGetDerivesPhase(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := newService(store)

	e, err := svc.Create(ctx, validParams())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Move the clock inside the window; the stored row still says UPCOMING.
	svc.now = func() time.Time { return testNow.Add(25 * time.Hour) }
	got, err := svc.Get(ctx, e.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Phase != model.PhaseOngoing {
		t.Fatalf("derived phase = %s, want ONGOING", got.Phase)
	}
	// Get alone does not persist the derivation.
	if store.elections[e.ID].Phase != model.PhaseUpcoming {
		t.Fatalf("stored phase changed on read: %s", store.elections[e.ID].Phase)
	}
}

func TestRefreshPhasesPersistsOnlyChanges(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := newService(store)

	open, err := svc.Create(ctx, validParams())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	p := validParams()
	p.StartTime = testNow.Add(200 * time.Hour)
	p.EndTime = testNow.Add(208 * time.Hour)
	future, err := svc.Create(ctx, p)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	cancelled, err := svc.Create(ctx, validParams())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Cancel(ctx, cancelled.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	svc.now = func() time.Time { return testNow.Add(25 * time.Hour) }
	if err := svc.RefreshPhases(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	if len(store.phaseBatches) != 1 {
		t.Fatalf("refresh wrote %d batches, want 1", len(store.phaseBatches))
	}
	batch := store.phaseBatches[0]
	if len(batch) != 1 || batch[open.ID] != model.PhaseOngoing {
		t.Fatalf("batch = %v", batch)
	}
	if store.elections[future.ID].Phase != model.PhaseUpcoming {
		t.Fatalf("future election phase = %s", store.elections[future.ID].Phase)
	}
	if store.elections[cancelled.ID].Phase != model.PhaseCancelled {
		t.Fatalf("cancelled election phase = %s", store.elections[cancelled.ID].Phase)
	}

	// A second refresh at the same instant is a no-op.
	if err := svc.RefreshPhases(ctx); err != nil {
		t.Fatalf("second refresh: %v", err)
	}
	if len(store.phaseBatches) != 1 {
		t.Fatalf("no-op refresh wrote a batch")
	}
}

func TestCancelSurvivesWindowEnd(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := newService(store)

	e, err := svc.Create(ctx, validParams())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Cancel(ctx, e.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	svc.now = func() time.Time { return testNow.Add(100 * time.Hour) }
	got, err := svc.Get(ctx, e.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Phase != model.PhaseCancelled {
		t.Fatalf("phase after window end = %s, want CANCELLED", got.Phase)
	}
}

func TestApplyCandidateWindow(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := newService(store)

	e, err := svc.Create(ctx, validParams())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	apply := ApplyParams{ElectionID: e.ID, AccountID: "acct-1", PartyName: "Unity"}
	cand, err := svc.ApplyCandidate(ctx, apply)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if cand.Status != model.CandidatePending {
		t.Fatalf("new candidacy status = %s, want PENDING", cand.Status)
	}

	if _, err := svc.ApplyCandidate(ctx, apply); !errors.Is(err, ErrAlreadyCandidate) {
		t.Fatalf("duplicate apply = %v, want ErrAlreadyCandidate", err)
	}

	// Applications close once the election starts.
	svc.now = func() time.Time { return testNow.Add(25 * time.Hour) }
	apply.AccountID = "acct-2"
	if _, err := svc.ApplyCandidate(ctx, apply); !errors.Is(err, ErrNotUpcoming) {
		t.Fatalf("apply after start = %v, want ErrNotUpcoming", err)
	}
}

func TestReviewCandidate(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := newService(store)

	e, err := svc.Create(ctx, validParams())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	cand, err := svc.ApplyCandidate(ctx, ApplyParams{ElectionID: e.ID, AccountID: "acct-1", PartyName: "Unity"})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	approved, err := svc.ReviewCandidate(ctx, e.ID, cand.ID, true)
	if err != nil || approved.Status != model.CandidateApproved {
		t.Fatalf("approve: %+v err=%v", approved, err)
	}

	list, err := svc.ApprovedCandidates(ctx, e.ID)
	if err != nil || len(list) != 1 {
		t.Fatalf("approved list: %v err=%v", list, err)
	}

	rejected, err := svc.ReviewCandidate(ctx, e.ID, cand.ID, false)
	if err != nil || rejected.Status != model.CandidateRejected {
		t.Fatalf("reject: %+v err=%v", rejected, err)
	}

	if _, err := svc.ReviewCandidate(ctx, e.ID, "cand-404", true); !errors.Is(err, ErrCandidateNotFound) {
		t.Fatalf("review unknown candidate = %v, want ErrCandidateNotFound", err)
	}
}
