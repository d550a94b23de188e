package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shaharia-lab/notifier/internal/config"
)

// SQLiteTransportStore implements TransportStore backed by a SQLite database.
type SQLiteTransportStore struct {
	db *sql.DB
}

// NewSQLiteTransportStore returns a new SQLiteTransportStore.
func NewSQLiteTransportStore(db *sql.DB) *SQLiteTransportStore {
	return &SQLiteTransportStore{db: db}
}

const insertTransportSQL = `
	INSERT INTO transports (channel, dsn, position, created_at, updated_at)
	VALUES (?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM transports), ?, ?)`

// List returns all transport entries ordered by position.
func (s *SQLiteTransportStore) List(ctx context.Context) ([]config.TransportConfig, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT channel, dsn FROM transports ORDER BY position ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing transports: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	entries := make([]config.TransportConfig, 0)
	for rows.Next() {
		var c config.TransportConfig
		if err := rows.Scan(&c.Channel, &c.DSN); err != nil {
			return nil, fmt.Errorf("scanning transport: %w", err)
		}
		entries = append(entries, c)
	}
	return entries, rows.Err()
}

// Get returns the entry for channel, or nil if not found.
func (s *SQLiteTransportStore) Get(ctx context.Context, channel string) (*config.TransportConfig, error) {
	c := &config.TransportConfig{}
	err := s.db.QueryRowContext(ctx,
		`SELECT channel, dsn FROM transports WHERE channel = ?`, channel,
	).Scan(&c.Channel, &c.DSN)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting transport %q: %w", channel, err)
	}
	return c, nil
}

// Save persists the entry (upsert). New channels are appended at the end.
func (s *SQLiteTransportStore) Save(ctx context.Context, cfg config.TransportConfig) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, insertTransportSQL+`
		ON CONFLICT(channel) DO UPDATE SET
			dsn = excluded.dsn,
			updated_at = excluded.updated_at`,
		cfg.Channel, cfg.DSN, now, now,
	)
	if err != nil {
		return fmt.Errorf("saving transport %q: %w", cfg.Channel, err)
	}
	return nil
}

// Delete removes the entry for channel.
func (s *SQLiteTransportStore) Delete(ctx context.Context, channel string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM transports WHERE channel = ?`, channel)
	if err != nil {
		return fmt.Errorf("deleting transport %q: %w", channel, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("channel %q: %w", channel, ErrTransportNotFound)
	}
	return nil
}

// Import inserts the entries whose channel is not stored yet. It is
// idempotent: running it twice with the same entries inserts nothing the
// second time.
func (s *SQLiteTransportStore) Import(ctx context.Context, entries []config.TransportConfig) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	imported := 0
	for _, e := range entries {
		res, err := tx.ExecContext(ctx, insertTransportSQL+` ON CONFLICT(channel) DO NOTHING`,
			e.Channel, e.DSN, now, now)
		if err != nil {
			return 0, fmt.Errorf("importing transport %q: %w", e.Channel, err)
		}
		n, _ := res.RowsAffected()
		imported += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import transaction: %w", err)
	}
	return imported, nil
}
