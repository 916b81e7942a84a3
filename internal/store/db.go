package store

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// DB wraps the shared sql.DB handle every repository runs on. The driver is
// pgx through database/sql so repositories stay on plain QueryRowContext and
// transactions.
type DB struct {
	Client *sql.DB
}

// NewDB opens a Postgres pool and verifies connectivity. Pool limits come
// from config; connections recycle hourly so failovers are picked up.
func NewDB(connString string, maxOpen, maxIdle int) (*DB, error) {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(time.Hour)
	return &DB{Client: db}, db.PingContext(context.Background())
}

// Close closes the underlying connection.
func (d *DB) Close() error {
	if d == nil || d.Client == nil {
		return nil
	}
	return d.Client.Close()
}
