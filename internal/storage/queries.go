package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

const getEntry = `SELECT value FROM kv_entries WHERE key = ?`

func (q *Queries) GetEntry(ctx context.Context, key string) (string, error) {
	row := q.db.QueryRowContext(ctx, getEntry, key)
	var value string
	err := row.Scan(&value)
	return value, err
}

const upsertEntry = `INSERT INTO kv_entries (key, value, updated_at)
VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

func (q *Queries) UpsertEntry(ctx context.Context, key, value string) error {
	_, err := q.db.ExecContext(ctx, upsertEntry, key, value)
	return err
}

const countEntries = `SELECT COUNT(*) FROM kv_entries`

func (q *Queries) CountEntries(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countEntries)
	var count int64
	err := row.Scan(&count)
	return count, err
}
