package identity

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

// Repository persists accounts in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Insert writes a new account.
func (r *Repository) Insert(ctx context.Context, acct model.Account) (model.Account, error) {
	if acct.ID == "" {
		acct.ID = uuid.NewString()
	}
	if acct.JoinedAt.IsZero() {
		acct.JoinedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (id, fullname, email, password_hash, role, status, photo_url, joined_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, acct.ID, acct.FullName, acct.Email, acct.PasswordHash, acct.Role, acct.Status, acct.PhotoURL, acct.JoinedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return model.Account{}, ErrEmailTaken
		}
		return model.Account{}, err
	}
	return acct, nil
}

func (r *Repository) scanAccount(row *sql.Row) (model.Account, error) {
	var acct model.Account
	err := row.Scan(&acct.ID, &acct.FullName, &acct.Email, &acct.PasswordHash,
		&acct.Role, &acct.Status, &acct.PhotoURL, &acct.JoinedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Account{}, ErrNotFound
	}
	return acct, err
}

// GetByID returns an account by id.
func (r *Repository) GetByID(ctx context.Context, id string) (model.Account, error) {
	return r.scanAccount(r.db.QueryRowContext(ctx, `
		SELECT id, fullname, email, password_hash, role, status, photo_url, joined_at
		FROM accounts WHERE id = $1
	`, id))
}

// GetByEmail returns an account by email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (model.Account, error) {
	return r.scanAccount(r.db.QueryRowContext(ctx, `
		SELECT id, fullname, email, password_hash, role, status, photo_url, joined_at
		FROM accounts WHERE email = $1
	`, email))
}

// Activate marks the account ACTIVE, checking the affected-row count so a
// missing account is reported instead of silently ignored.
func (r *Repository) Activate(ctx context.Context, email string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET status = $2 WHERE email = $1`, email, model.AccountActive)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetPhotoURL records an uploaded photo URL.
func (r *Repository) SetPhotoURL(ctx context.Context, id, url string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET photo_url = $2 WHERE id = $1`, id, url)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Store = (*Repository)(nil)
