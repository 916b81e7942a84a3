package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"votebyte/internal/auth"
	"votebyte/internal/config"
	"votebyte/internal/model"
	"votebyte/internal/vote"
)

// voteStore is a minimal in-memory vote.Store for exercising the cast route.
type voteStore struct {
	mu        sync.Mutex
	election  model.Election
	candidate model.Candidate
	voter     model.Voter
	votes     []model.Vote
}

func (s *voteStore) GetElection(_ context.Context, id string) (model.Election, error) {
	if id != s.election.ID {
		return model.Election{}, vote.ErrElectionNotFound
	}
	return s.election, nil
}

func (s *voteStore) GetCandidate(_ context.Context, electionID, candidateID string) (model.Candidate, error) {
	if electionID != s.election.ID || candidateID != s.candidate.ID {
		return model.Candidate{}, vote.ErrCandidateNotFound
	}
	return s.candidate, nil
}

func (s *voteStore) GetVoter(_ context.Context, accountID, electionID string) (model.Voter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if accountID != s.voter.AccountID || electionID != s.voter.ElectionID {
		return model.Voter{}, vote.ErrNotRegistered
	}
	return s.voter, nil
}

func (s *voteStore) RecordVote(_ context.Context, v model.Vote, _ string) (model.Vote, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.voter.HasVoted {
		return model.Vote{}, 0, vote.ErrAlreadyVoted
	}
	s.voter.HasVoted = true
	v.ID = "vote-1"
	s.votes = append(s.votes, v)
	s.candidate.TotalVotes++
	return v, s.candidate.TotalVotes, nil
}

func (s *voteStore) CountVotes(_ context.Context, _ string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.votes), nil
}

func (s *voteStore) CountRegistered(_ context.Context, _ string) (int, error) {
	return 1, nil
}

func (s *voteStore) CandidatesByTally(_ context.Context, _ string) ([]model.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return []model.Candidate{s.candidate}, nil
}

var _ vote.Store = (*voteStore)(nil)

func testConfig() config.App {
	return config.App{
		JWTIssuer:     "votebyte-test",
		JWTSigningKey: "test-signing-key",
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	}
}

func newVoteRouter(t *testing.T) (*gin.Engine, *voteStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	now := time.Now().UTC()
	store := &voteStore{
		election: model.Election{
			ID: "el-1", Title: "Student Council 2026",
			StartTime: now.Add(-time.Hour), EndTime: now.Add(time.Hour),
			Phase: model.PhaseOngoing,
		},
		candidate: model.Candidate{
			ID: "cand-1", ElectionID: "el-1", PartyName: "Unity",
			Status: model.CandidateApproved,
		},
		voter: model.Voter{
			ID: "voter-1", AccountID: "acct-1", ElectionID: "el-1",
			AuthType: model.AuthOTP, Verified: true,
		},
	}

	h := New(testConfig(), nil, nil, nil, nil, nil, vote.NewEngine(store), nil, nil)
	r := gin.New()
	h.Routes(r)
	return r, store
}

func bearerToken(t *testing.T, accountID string) string {
	return roleToken(t, accountID, model.RoleVoter)
}

func roleToken(t *testing.T, accountID string, role model.Role) string {
	t.Helper()
	cfg := testConfig()
	pair, err := auth.Issue(accountID, string(role), cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL, cfg.RefreshTTL)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return pair.AccessToken
}

func castVote(r *gin.Engine, token, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/elections/el-1/votes", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestCastVoteRoute(t *testing.T) {
	r, store := newVoteRouter(t)
	token := bearerToken(t, "acct-1")

	w := castVote(r, token, `{"candidate_id":"cand-1"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("cast = %d body=%s", w.Code, w.Body.String())
	}
	var res vote.CastResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.TotalVotes != 1 || res.CandidateName != "Unity" {
		t.Fatalf("result = %+v", res)
	}
	if len(store.votes) != 1 {
		t.Fatalf("ledger has %d entries", len(store.votes))
	}
}

func TestCastVoteRouteDoubleCastConflicts(t *testing.T) {
	r, _ := newVoteRouter(t)
	token := bearerToken(t, "acct-1")

	if w := castVote(r, token, `{"candidate_id":"cand-1"}`); w.Code != http.StatusCreated {
		t.Fatalf("first cast = %d", w.Code)
	}
	w := castVote(r, token, `{"candidate_id":"cand-1"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("second cast = %d, want 409", w.Code)
	}
}

func TestCastVoteRouteRequiresAuth(t *testing.T) {
	r, _ := newVoteRouter(t)

	if w := castVote(r, "", `{"candidate_id":"cand-1"}`); w.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated cast = %d, want 401", w.Code)
	}
}

func TestCastVoteRouteValidatesBody(t *testing.T) {
	r, _ := newVoteRouter(t)
	token := bearerToken(t, "acct-1")

	if w := castVote(r, token, `{}`); w.Code != http.StatusBadRequest {
		t.Fatalf("missing candidate_id = %d, want 400", w.Code)
	}
}

func TestCastVoteRouteUnknownCandidate(t *testing.T) {
	r, _ := newVoteRouter(t)
	token := bearerToken(t, "acct-1")

	if w := castVote(r, token, `{"candidate_id":"cand-404"}`); w.Code != http.StatusNotFound {
		t.Fatalf("unknown candidate = %d, want 404", w.Code)
	}
}

func TestResultsRouteIsPublic(t *testing.T) {
	r, _ := newVoteRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/elections/el-1/results", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("results = %d body=%s", w.Code, w.Body.String())
	}
	var res vote.Results
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Phase != model.PhaseOngoing || res.Winner != nil {
		t.Fatalf("results = %+v", res)
	}
}
