package biometric

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// Repository persists descriptors in Postgres, one JSONB vector per account.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Save stores a descriptor, failing if one exists for the account.
func (r *Repository) Save(ctx context.Context, accountID string, descriptor []float64) error {
	raw, err := json.Marshal(descriptor)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO face_descriptors (account_id, descriptor, enrolled_at)
		VALUES ($1, $2, $3)
	`, accountID, raw, time.Now().UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrAlreadyEnrolled
		}
		return err
	}
	return nil
}

// Replace overwrites the descriptor for an account, creating it if absent.
func (r *Repository) Replace(ctx context.Context, accountID string, descriptor []float64) error {
	raw, err := json.Marshal(descriptor)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO face_descriptors (account_id, descriptor, enrolled_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (account_id) DO UPDATE SET
			descriptor = EXCLUDED.descriptor,
			enrolled_at = EXCLUDED.enrolled_at
	`, accountID, raw, time.Now().UTC())
	return err
}

// Get returns the enrolled descriptor.
func (r *Repository) Get(ctx context.Context, accountID string) ([]float64, error) {
	var raw []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT descriptor FROM face_descriptors WHERE account_id = $1`, accountID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoEnrollment
	}
	if err != nil {
		return nil, err
	}
	var descriptor []float64
	if err := json.Unmarshal(raw, &descriptor); err != nil {
		return nil, err
	}
	return descriptor, nil
}

// Delete removes the enrollment.
func (r *Repository) Delete(ctx context.Context, accountID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM face_descriptors WHERE account_id = $1`, accountID)
	return err
}

var _ DescriptorStore = (*Repository)(nil)
