package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/kiryu-dev/scoreboard-sync/internal/domain"
	"github.com/kiryu-dev/scoreboard-sync/pkg/utils"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS scoreboard (
	id         INTEGER PRIMARY KEY CHECK (id = 1),
	payload    TEXT    NOT NULL,
	updated_at TEXT    NOT NULL
);`

// repository keeps the scoreboard as a single JSON row.
type repository struct {
	db *sql.DB
}

func New(ctx context.Context, path string) (*repository, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.WithMessagef(err, "create directory '%s'", dir)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.WithMessage(err, "open sqlite database")
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, `PRAGMA journal_mode=WAL;`); err != nil {
		_ = db.Close()
		return nil, errors.WithMessage(err, "enable wal")
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, errors.WithMessage(err, "create schema")
	}
	return &repository{db: db}, nil
}

func (r *repository) Load(ctx context.Context) (*domain.Scoreboard, error) {
	var payload string
	err := r.db.QueryRowContext(ctx, `SELECT payload FROM scoreboard WHERE id = 1`).Scan(&payload)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, errors.WithMessage(err, "select scoreboard")
	}
	board, err := utils.UnmarshalJson[domain.Scoreboard]([]byte(payload))
	if err != nil {
		return nil, errors.WithMessage(err, "decode scoreboard payload")
	}
	return &board, nil
}

func (r *repository) Save(ctx context.Context, board domain.Scoreboard) error {
	payload, err := utils.MarshalJson(board)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
INSERT INTO scoreboard (id, payload, updated_at) VALUES (1, ?, ?)
ON CONFLICT(id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		string(payload), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return errors.WithMessage(err, "upsert scoreboard")
	}
	return nil
}

func (r *repository) Close() error {
	return r.db.Close()
}
