package store

import (
	"context"
	"database/sql"
	"fmt"
)

// EnsureSchema creates the tables the core needs. Statements are idempotent
// so startup can run this unconditionally.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS accounts (
		id             UUID PRIMARY KEY,
		fullname       TEXT NOT NULL,
		email          TEXT NOT NULL UNIQUE,
		password_hash  TEXT NOT NULL,
		role           TEXT NOT NULL DEFAULT 'VOTER',
		status         TEXT NOT NULL DEFAULT 'INACTIVE',
		photo_url      TEXT NOT NULL DEFAULT '',
		joined_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS elections (
		id           UUID PRIMARY KEY,
		title        TEXT NOT NULL,
		description  TEXT NOT NULL DEFAULT '',
		created_by   UUID NOT NULL REFERENCES accounts(id),
		start_time   TIMESTAMPTZ NOT NULL,
		end_time     TIMESTAMPTZ NOT NULL,
		phase        TEXT NOT NULL DEFAULT 'UPCOMING',
		auth_type    TEXT NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CHECK (end_time > start_time)
	);

	CREATE INDEX IF NOT EXISTS idx_elections_phase ON elections(phase);

	CREATE TABLE IF NOT EXISTS candidates (
		id            UUID PRIMARY KEY,
		election_id   UUID NOT NULL REFERENCES elections(id),
		account_id    UUID NOT NULL REFERENCES accounts(id),
		party_name    TEXT NOT NULL,
		symbol        TEXT NOT NULL DEFAULT '',
		manifesto     TEXT NOT NULL DEFAULT '',
		status        TEXT NOT NULL DEFAULT 'PENDING',
		total_votes   BIGINT NOT NULL DEFAULT 0 CHECK (total_votes >= 0),
		registered_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (account_id, election_id)
	);

	CREATE INDEX IF NOT EXISTS idx_candidates_election ON candidates(election_id);

	CREATE TABLE IF NOT EXISTS voters (
		id            UUID PRIMARY KEY,
		account_id    UUID NOT NULL REFERENCES accounts(id),
		election_id   UUID NOT NULL REFERENCES elections(id),
		auth_type     TEXT NOT NULL,
		verified      BOOLEAN NOT NULL DEFAULT FALSE,
		has_voted     BOOLEAN NOT NULL DEFAULT FALSE,
		voted_at      TIMESTAMPTZ,
		registered_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (account_id, election_id)
	);

	CREATE INDEX IF NOT EXISTS idx_voters_election ON voters(election_id);

	CREATE TABLE IF NOT EXISTS votes (
		id           UUID PRIMARY KEY,
		election_id  UUID NOT NULL REFERENCES elections(id),
		candidate_id UUID NOT NULL REFERENCES candidates(id),
		voter_id     UUID NOT NULL UNIQUE REFERENCES voters(id),
		cast_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_votes_election ON votes(election_id);
	CREATE INDEX IF NOT EXISTS idx_votes_candidate ON votes(candidate_id);

	CREATE TABLE IF NOT EXISTS face_descriptors (
		account_id  UUID PRIMARY KEY REFERENCES accounts(id),
		descriptor  JSONB NOT NULL,
		enrolled_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
