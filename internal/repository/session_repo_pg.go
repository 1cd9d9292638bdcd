package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Domenick1991/travelstore/internal/session"
)

const createClientSessionsTable = `CREATE TABLE IF NOT EXISTS client_sessions (
	client_id  TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (client_id, key)
)`

// PGSessionRepository keeps each client's session entries as rows of
// client_sessions.
type PGSessionRepository struct {
	db *pgxpool.Pool
}

func NewSessionRepository(db *pgxpool.Pool) *PGSessionRepository {
	return &PGSessionRepository{db: db}
}

func (r *PGSessionRepository) Migrate(ctx context.Context) error {
	_, err := r.db.Exec(ctx, createClientSessionsTable)
	return err
}

func (r *PGSessionRepository) Load(ctx context.Context, clientID string) (map[string]string, error) {
	rows, err := r.db.Query(ctx, `SELECT key, value FROM client_sessions WHERE client_id=$1`, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		entries[key] = value
	}
	return entries, rows.Err()
}

// Save replaces the client's entries inside one transaction.
func (r *PGSessionRepository) Save(ctx context.Context, clientID string, entries map[string]string) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM client_sessions WHERE client_id=$1`, clientID); err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for key, value := range entries {
		batch.Queue(`INSERT INTO client_sessions (client_id, key, value) VALUES ($1, $2, $3)`, clientID, key, value)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *PGSessionRepository) Delete(ctx context.Context, clientID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM client_sessions WHERE client_id=$1`, clientID)
	return err
}

var _ session.Storage = (*PGSessionRepository)(nil)
