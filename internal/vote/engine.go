package vote

import (
	"context"
	"math"
	"time"

	"votebyte/internal/apperr"
	"votebyte/internal/election"
	"votebyte/internal/metrics"
	"votebyte/internal/model"
)

// Sentinel errors for the ordered precondition checks.
var (
	ErrElectionNotFound     = apperr.New(apperr.NotFound, "election not found")
	ErrElectionNotActive    = apperr.New(apperr.State, "election is not currently active")
	ErrCandidateNotFound    = apperr.New(apperr.NotFound, "candidate not found in this election")
	ErrCandidateNotApproved = apperr.New(apperr.State, "candidate is not approved for voting")
	ErrNotRegistered        = apperr.New(apperr.NotFound, "voter is not registered for this election")
	ErrNotVerified          = apperr.New(apperr.State, "voter is not verified")
	ErrAlreadyVoted         = apperr.New(apperr.Conflict, "vote already cast in this election")
)

// Store is the persistence slice the engine owns. RecordVote is the only
// writer of votes, voter has-voted flags, and candidate tallies.
type Store interface {
	GetElection(ctx context.Context, id string) (model.Election, error)
	GetCandidate(ctx context.Context, electionID, candidateID string) (model.Candidate, error)
	GetVoter(ctx context.Context, accountID, electionID string) (model.Voter, error)

	// RecordVote atomically inserts the vote, flips the voter's has_voted
	// flag via a conditional update, and increments the candidate tally.
	// All three commit or none do. Returns ErrAlreadyVoted when the
	// conditional update affects no row, so N concurrent casts for one
	// voter yield exactly one success.
	RecordVote(ctx context.Context, v model.Vote, candidateID string) (model.Vote, int64, error)

	CountVotes(ctx context.Context, electionID string) (int, error)
	CountRegistered(ctx context.Context, electionID string) (int, error)
	// CandidatesByTally returns approved candidates ordered by descending
	// tally, then earliest registration, then id — a total order, so ties
	// resolve deterministically.
	CandidatesByTally(ctx context.Context, electionID string) ([]model.Candidate, error)
}

// Engine validates eligibility and records votes exactly once per voter per
// election.
type Engine struct {
	store Store
	now   func() time.Time
}

// NewEngine creates an engine.
func NewEngine(store Store) *Engine {
	return &Engine{store: store, now: time.Now}
}

// CastResult is returned after a successful cast.
type CastResult struct {
	Vote          model.Vote `json:"vote"`
	CandidateName string     `json:"candidate_name"`
	TotalVotes    int64      `json:"total_votes"`
}

// CastVote runs the ordered precondition checks and, if all pass, commits
// the vote transaction. The phase is derived fresh from wall-clock time,
// never trusted from the stored value.
func (e *Engine) CastVote(ctx context.Context, electionID, candidateID, accountID string) (CastResult, error) {
	if electionID == "" || candidateID == "" || accountID == "" {
		return CastResult{}, apperr.New(apperr.Validation, "election, candidate and account are required")
	}
	now := e.now()

	el, err := e.store.GetElection(ctx, electionID)
	if err != nil {
		return CastResult{}, err
	}
	phase := election.DerivePhase(el.StartTime, el.EndTime, el.Phase, now)
	if phase != model.PhaseOngoing || now.Before(el.StartTime) || now.After(el.EndTime) {
		metrics.VoteRejected.WithLabelValues("not_active").Inc()
		return CastResult{}, ErrElectionNotActive
	}

	cand, err := e.store.GetCandidate(ctx, electionID, candidateID)
	if err != nil {
		metrics.VoteRejected.WithLabelValues("candidate").Inc()
		return CastResult{}, err
	}
	if cand.Status != model.CandidateApproved {
		metrics.VoteRejected.WithLabelValues("candidate").Inc()
		return CastResult{}, ErrCandidateNotApproved
	}

	v, err := e.store.GetVoter(ctx, accountID, electionID)
	if err != nil {
		metrics.VoteRejected.WithLabelValues("not_registered").Inc()
		return CastResult{}, err
	}
	if !v.Verified {
		metrics.VoteRejected.WithLabelValues("not_verified").Inc()
		return CastResult{}, ErrNotVerified
	}
	if v.HasVoted {
		metrics.VoteRejected.WithLabelValues("already_voted").Inc()
		return CastResult{}, ErrAlreadyVoted
	}

	vote, tally, err := e.store.RecordVote(ctx, model.Vote{
		ElectionID:  electionID,
		CandidateID: candidateID,
		VoterID:     v.ID,
		CastAt:      now,
	}, candidateID)
	if err != nil {
		if apperr.KindOf(err) == apperr.Conflict || apperr.KindOf(err) == apperr.Integrity {
			metrics.VoteRejected.WithLabelValues("already_voted").Inc()
		}
		return CastResult{}, err
	}

	metrics.VotesCast.Inc()
	return CastResult{Vote: vote, CandidateName: cand.PartyName, TotalVotes: tally}, nil
}

// HasVoted reports whether the account has voted in the election.
func (e *Engine) HasVoted(ctx context.Context, accountID, electionID string) (bool, error) {
	v, err := e.store.GetVoter(ctx, accountID, electionID)
	if err != nil {
		if apperr.KindOf(err) == apperr.NotFound {
			return false, nil
		}
		return false, err
	}
	return v.HasVoted, nil
}

// CandidateResult is one row of a results board.
type CandidateResult struct {
	CandidateID string  `json:"candidate_id"`
	Name        string  `json:"name,omitempty"`
	PartyName   string  `json:"party_name"`
	Symbol      string  `json:"symbol,omitempty"`
	TotalVotes  int64   `json:"total_votes"`
	VoteShare   float64 `json:"vote_share"`
}

// Results is the aggregate for an election. Winner is set only once the
// derived phase is COMPLETED.
type Results struct {
	ElectionID      string            `json:"election_id"`
	Title           string            `json:"title"`
	Phase           model.Phase       `json:"phase"`
	TotalRegistered int               `json:"total_registered_voters"`
	TotalVotesCast  int               `json:"total_votes_cast"`
	Turnout         float64           `json:"voter_turnout"`
	Candidates      []CandidateResult `json:"candidates"`
	Winner          *CandidateResult  `json:"winner,omitempty"`
}

// Results recomputes the aggregate on demand. Safe to call mid-election as
// a live leaderboard; values reflect provisional totals. Ties break by
// earliest candidate registration, then id.
func (e *Engine) Results(ctx context.Context, electionID string) (Results, error) {
	el, err := e.store.GetElection(ctx, electionID)
	if err != nil {
		return Results{}, err
	}
	phase := election.DerivePhase(el.StartTime, el.EndTime, el.Phase, e.now())

	candidates, err := e.store.CandidatesByTally(ctx, electionID)
	if err != nil {
		return Results{}, err
	}
	totalCast, err := e.store.CountVotes(ctx, electionID)
	if err != nil {
		return Results{}, err
	}
	registered, err := e.store.CountRegistered(ctx, electionID)
	if err != nil {
		return Results{}, err
	}

	res := Results{
		ElectionID:      electionID,
		Title:           el.Title,
		Phase:           phase,
		TotalRegistered: registered,
		TotalVotesCast:  totalCast,
	}
	if registered > 0 {
		res.Turnout = round2(float64(totalCast) / float64(registered) * 100)
	}
	for _, c := range candidates {
		cr := CandidateResult{
			CandidateID: c.ID,
			Name:        c.Name,
			PartyName:   c.PartyName,
			Symbol:      c.Symbol,
			TotalVotes:  c.TotalVotes,
		}
		if totalCast > 0 {
			cr.VoteShare = round2(float64(c.TotalVotes) / float64(totalCast) * 100)
		}
		res.Candidates = append(res.Candidates, cr)
	}
	if phase == model.PhaseCompleted && len(res.Candidates) > 0 {
		winner := res.Candidates[0]
		res.Winner = &winner
	}
	return res, nil
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
