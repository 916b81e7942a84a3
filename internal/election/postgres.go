package election

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

// Repository persists elections and candidates in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const electionColumns = `
	e.id, e.title, e.description, e.created_by, e.start_time, e.end_time,
	e.phase, e.auth_type, e.created_at,
	(SELECT COUNT(*) FROM voters v WHERE v.election_id = e.id),
	(SELECT COUNT(*) FROM candidates c WHERE c.election_id = e.id)`

func scanElection(row interface{ Scan(...any) error }) (model.Election, error) {
	var e model.Election
	err := row.Scan(&e.ID, &e.Title, &e.Description, &e.CreatedBy, &e.StartTime,
		&e.EndTime, &e.Phase, &e.AuthType, &e.CreatedAt, &e.TotalVoters, &e.TotalCandidates)
	return e, err
}

// Insert writes a new election.
func (r *Repository) Insert(ctx context.Context, e model.Election) (model.Election, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO elections (id, title, description, created_by, start_time, end_time, phase, auth_type, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, e.ID, e.Title, e.Description, e.CreatedBy, e.StartTime, e.EndTime, e.Phase, e.AuthType, e.CreatedAt)
	if err != nil {
		return model.Election{}, err
	}
	return e, nil
}

// Get returns an election with voter/candidate counts.
func (r *Repository) Get(ctx context.Context, id string) (model.Election, error) {
	e, err := scanElection(r.db.QueryRowContext(ctx,
		`SELECT`+electionColumns+` FROM elections e WHERE e.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Election{}, ErrNotFound
	}
	return e, err
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]model.Election, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []model.Election
	for rows.Next() {
		e, err := scanElection(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

// List returns all elections, newest first.
func (r *Repository) List(ctx context.Context) ([]model.Election, error) {
	return r.list(ctx, `SELECT`+electionColumns+` FROM elections e ORDER BY e.created_at DESC`)
}

// ListByPhase returns elections in a phase, ordered by start time.
func (r *Repository) ListByPhase(ctx context.Context, phase model.Phase) ([]model.Election, error) {
	return r.list(ctx,
		`SELECT`+electionColumns+` FROM elections e WHERE e.phase = $1 ORDER BY e.start_time ASC`, phase)
}

// UpdatePhases applies phase changes in one transaction so observers never
// see a partially refreshed listing.
func (r *Repository) UpdatePhases(ctx context.Context, changes map[string]model.Phase) error {
	if len(changes) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for id, phase := range changes {
		if _, err := tx.ExecContext(ctx,
			`UPDATE elections SET phase = $2 WHERE id = $1`, id, phase); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// SetPhase stores a phase directly (manual cancellation).
func (r *Repository) SetPhase(ctx context.Context, id string, phase model.Phase) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE elections SET phase = $2 WHERE id = $1`, id, phase)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// InsertCandidate writes a pending candidacy.
func (r *Repository) InsertCandidate(ctx context.Context, c model.Candidate) (model.Candidate, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.RegisteredAt.IsZero() {
		c.RegisteredAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO candidates (id, election_id, account_id, party_name, symbol, manifesto, status, total_votes, registered_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,0,$8)
	`, c.ID, c.ElectionID, c.AccountID, c.PartyName, c.Symbol, c.Manifesto, c.Status, c.RegisteredAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return model.Candidate{}, ErrAlreadyCandidate
		}
		return model.Candidate{}, err
	}
	return c, nil
}

const candidateColumns = `
	c.id, c.election_id, c.account_id, a.fullname, c.party_name, c.symbol,
	c.manifesto, c.status, c.total_votes, c.registered_at`

// GetCandidate returns a candidate scoped to its election.
func (r *Repository) GetCandidate(ctx context.Context, electionID, candidateID string) (model.Candidate, error) {
	var c model.Candidate
	err := r.db.QueryRowContext(ctx, `
		SELECT`+candidateColumns+`
		FROM candidates c JOIN accounts a ON a.id = c.account_id
		WHERE c.id = $1 AND c.election_id = $2
	`, candidateID, electionID).Scan(&c.ID, &c.ElectionID, &c.AccountID, &c.Name,
		&c.PartyName, &c.Symbol, &c.Manifesto, &c.Status, &c.TotalVotes, &c.RegisteredAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Candidate{}, ErrCandidateNotFound
	}
	return c, err
}

// SetCandidateStatus stores an approval decision.
func (r *Repository) SetCandidateStatus(ctx context.Context, electionID, candidateID string, status model.CandidateStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE candidates SET status = $3 WHERE id = $1 AND election_id = $2
	`, candidateID, electionID, status)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCandidateNotFound
	}
	return nil
}

// ListCandidates returns candidates of an election with the given status
// (or all when status is empty), ordered by registration time.
func (r *Repository) ListCandidates(ctx context.Context, electionID string, status model.CandidateStatus) ([]model.Candidate, error) {
	query := `
		SELECT` + candidateColumns + `
		FROM candidates c JOIN accounts a ON a.id = c.account_id
		WHERE c.election_id = $1`
	args := []any{electionID}
	if status != "" {
		query += ` AND c.status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY c.registered_at ASC, c.id ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
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
