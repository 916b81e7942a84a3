package vote

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"votebyte/internal/model"
)

const uniqueViolation = "23505"

// Repository is the engine's Postgres store.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// GetElection returns the election row for precondition checks.
func (r *Repository) GetElection(ctx context.Context, id string) (model.Election, error) {
	var e model.Election
	err := r.db.QueryRowContext(ctx, `
		SELECT id, title, description, created_by, start_time, end_time, phase, auth_type, created_at
		FROM elections WHERE id = $1
	`, id).Scan(&e.ID, &e.Title, &e.Description, &e.CreatedBy, &e.StartTime,
		&e.EndTime, &e.Phase, &e.AuthType, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Election{}, ErrElectionNotFound
	}
	return e, err
}

// GetCandidate returns a candidate scoped to its election.
func (r *Repository) GetCandidate(ctx context.Context, electionID, candidateID string) (model.Candidate, error) {
	var c model.Candidate
	err := r.db.QueryRowContext(ctx, `
		SELECT c.id, c.election_id, c.account_id, a.fullname, c.party_name, c.symbol,
		       c.manifesto, c.status, c.total_votes, c.registered_at
		FROM candidates c JOIN accounts a ON a.id = c.account_id
		WHERE c.id = $1 AND c.election_id = $2
	`, candidateID, electionID).Scan(&c.ID, &c.ElectionID, &c.AccountID, &c.Name,
		&c.PartyName, &c.Symbol, &c.Manifesto, &c.Status, &c.TotalVotes, &c.RegisteredAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Candidate{}, ErrCandidateNotFound
	}
	return c, err
}

// GetVoter returns the voter row for (account, election).
func (r *Repository) GetVoter(ctx context.Context, accountID, electionID string) (model.Voter, error) {
	var v model.Voter
	err := r.db.QueryRowContext(ctx, `
		SELECT id, account_id, election_id, auth_type, verified, has_voted, voted_at, registered_at
		FROM voters WHERE account_id = $1 AND election_id = $2
	`, accountID, electionID).Scan(&v.ID, &v.AccountID, &v.ElectionID, &v.AuthType,
		&v.Verified, &v.HasVoted, &v.VotedAt, &v.RegisteredAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Voter{}, ErrNotRegistered
	}
	return v, err
}

// RecordVote commits the vote triple in one transaction. The conditional
// update on has_voted is the serialization point: under concurrency only
// one transaction sees has_voted=FALSE, every other one aborts before
// touching the ledger or the tally. The UNIQUE constraint on votes.voter_id
// backs this up structurally.
func (r *Repository) RecordVote(ctx context.Context, v model.Vote, candidateID string) (model.Vote, int64, error) {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if v.CastAt.IsZero() {
		v.CastAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Vote{}, 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE voters SET has_voted = TRUE, voted_at = $2
		WHERE id = $1 AND has_voted = FALSE
	`, v.VoterID, v.CastAt)
	if err != nil {
		return model.Vote{}, 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.Vote{}, 0, err
	}
	if n != 1 {
		return model.Vote{}, 0, ErrAlreadyVoted
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO votes (id, election_id, candidate_id, voter_id, cast_at)
		VALUES ($1,$2,$3,$4,$5)
	`, v.ID, v.ElectionID, v.CandidateID, v.VoterID, v.CastAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return model.Vote{}, 0, ErrAlreadyVoted
		}
		return model.Vote{}, 0, err
	}

	var tally int64
	if err := tx.QueryRowContext(ctx, `
		UPDATE candidates SET total_votes = total_votes + 1
		WHERE id = $1 AND election_id = $2
		RETURNING total_votes
	`, candidateID, v.ElectionID).Scan(&tally); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Vote{}, 0, ErrCandidateNotFound
		}
		return model.Vote{}, 0, err
	}

	if err := tx.Commit(); err != nil {
		return model.Vote{}, 0, err
	}
	return v, tally, nil
}

// CountVotes counts the vote ledger for an election. Turnout derives from
// this count, never from a separately maintained counter.
func (r *Repository) CountVotes(ctx context.Context, electionID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM votes WHERE election_id = $1`, electionID).Scan(&n)
	return n, err
}

// CountRegistered counts the voter roster.
func (r *Repository) CountRegistered(ctx context.Context, electionID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM voters WHERE election_id = $1`, electionID).Scan(&n)
	return n, err
}

// CandidatesByTally returns approved candidates ordered by tally, with a
// deterministic tie-break on registration time then id.
func (r *Repository) CandidatesByTally(ctx context.Context, electionID string) ([]model.Candidate, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.election_id, c.account_id, a.fullname, c.party_name, c.symbol,
		       c.manifesto, c.status, c.total_votes, c.registered_at
		FROM candidates c JOIN accounts a ON a.id = c.account_id
		WHERE c.election_id = $1 AND c.status = $2
		ORDER BY c.total_votes DESC, c.registered_at ASC, c.id ASC
	`, electionID, model.CandidateApproved)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []model.Candidate
	for rows.Next() {
		var c model.Candidate
		if err := rows.Scan(&c.ID, &c.ElectionID, &c.AccountID, &c.Name,
			&c.PartyName, &c.Symbol, &c.Manifesto, &c.Status, &c.TotalVotes, &c.RegisteredAt); err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

var _ Store = (*Repository)(nil)
