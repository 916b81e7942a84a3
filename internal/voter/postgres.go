package voter

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

// Repository persists voters in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const voterColumns = `id, account_id, election_id, auth_type, verified, has_voted, voted_at, registered_at`

func scanVoter(row interface{ Scan(...any) error }) (model.Voter, error) {
	var v model.Voter
	err := row.Scan(&v.ID, &v.AccountID, &v.ElectionID, &v.AuthType,
		&v.Verified, &v.HasVoted, &v.VotedAt, &v.RegisteredAt)
	return v, err
}

// Insert writes a new voter row. The (account_id, election_id) unique
// constraint is the registration gate under concurrency.
func (r *Repository) Insert(ctx context.Context, v model.Voter) (model.Voter, error) {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if v.RegisteredAt.IsZero() {
		v.RegisteredAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO voters (id, account_id, election_id, auth_type, verified, has_voted, registered_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, v.ID, v.AccountID, v.ElectionID, v.AuthType, v.Verified, v.HasVoted, v.RegisteredAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return model.Voter{}, ErrAlreadyRegistered
		}
		return model.Voter{}, err
	}
	return v, nil
}

// Get returns a voter by id.
func (r *Repository) Get(ctx context.Context, voterID string) (model.Voter, error) {
	v, err := scanVoter(r.db.QueryRowContext(ctx,
		`SELECT `+voterColumns+` FROM voters WHERE id = $1`, voterID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Voter{}, ErrNotFound
	}
	return v, err
}

// GetByAccount returns the voter row for (account, election).
func (r *Repository) GetByAccount(ctx context.Context, accountID, electionID string) (model.Voter, error) {
	v, err := scanVoter(r.db.QueryRowContext(ctx,
		`SELECT `+voterColumns+` FROM voters WHERE account_id = $1 AND election_id = $2`,
		accountID, electionID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Voter{}, ErrNotFound
	}
	return v, err
}

// SetVerified marks a voter verified. Idempotent by construction.
func (r *Repository) SetVerified(ctx context.Context, voterID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE voters SET verified = TRUE WHERE id = $1`, voterID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByElection returns the roster ordered by registration time.
func (r *Repository) ListByElection(ctx context.Context, electionID string) ([]model.Voter, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+voterColumns+` FROM voters WHERE election_id = $1 ORDER BY registered_at ASC`, electionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []model.Voter
	for rows.Next() {
		v, err := scanVoter(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, v)
	}
	return res, rows.Err()
}

// Statistics counts the roster in one statement so verified and voted come
// from the same snapshot.
func (r *Repository) Statistics(ctx context.Context, electionID string) (Stats, error) {
	var st Stats
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE verified),
		       COUNT(*) FILTER (WHERE has_voted)
		FROM voters WHERE election_id = $1
	`, electionID).Scan(&st.TotalRegistered, &st.Verified, &st.Voted)
	if err != nil {
		return Stats{}, err
	}
	st.Unverified = st.TotalRegistered - st.Verified
	st.Pending = st.Verified - st.Voted
	return st, nil
}

var _ Store = (*Repository)(nil)
