package pgstore

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"astra-msgdb/internal/archive"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

const schema = `
CREATE TABLE IF NOT EXISTS message_archives (
	name     TEXT PRIMARY KEY,
	position INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS message_entries (
	archive TEXT NOT NULL REFERENCES message_archives(name) ON DELETE CASCADE,
	key     TEXT NOT NULL,
	value   TEXT NOT NULL,
	PRIMARY KEY (archive, key)
);
`

var entryColumns = []string{"archive", "key", "value"}

// Store keeps message archives in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a store on pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// EnsureSchema creates the archive tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure message schema: %w", err)
	}
	log.Info().Msg("Message schema ensured")
	return nil
}

// Load reads every archive ordered by position, then name.
func (s *Store) Load(ctx context.Context) ([]*archive.Archive, error) {
	rows, err := s.pool.Query(ctx, `SELECT name FROM message_archives ORDER BY position, name`)
	if err != nil {
		return nil, fmt.Errorf("query archives: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan archives: %w", err)
	}

	archives := make([]*archive.Archive, 0, len(names))
	for _, name := range names {
		data, err := s.loadEntries(ctx, name)
		if err != nil {
			return nil, err
		}
		archives = append(archives, archive.New(name, data))
		log.Debug().Str("archive", name).Int("keys", len(data)).Msg("Archive loaded")
	}

	log.Info().Int("archives", len(archives)).Msg("Loaded archives from PostgreSQL")
	return archives, nil
}

func (s *Store) loadEntries(ctx context.Context, name string) (map[string]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT key, value FROM message_entries WHERE archive = $1`, name)
	if err != nil {
		return nil, fmt.Errorf("query entries of %s: %w", name, err)
	}
	defer rows.Close()

	data := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan entry of %s: %w", name, err)
		}
		data[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read entries of %s: %w", name, err)
	}
	return data, nil
}

// Save replaces the stored contents of a with its current snapshot in one
// transaction. An archive not yet known is appended after the existing ones.
func (s *Store) Save(ctx context.Context, a *archive.Archive) (err error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin save of %s: %w", a.Name(), err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				log.Warn().Err(rbErr).Str("archive", a.Name()).Msg("Rollback failed")
			}
		}
	}()

	_, err = tx.Exec(ctx, `
		INSERT INTO message_archives (name, position)
		VALUES ($1, (SELECT COALESCE(MAX(position) + 1, 0) FROM message_archives))
		ON CONFLICT (name) DO NOTHING`, a.Name())
	if err != nil {
		return fmt.Errorf("register archive %s: %w", a.Name(), err)
	}

	if _, err = tx.Exec(ctx, `DELETE FROM message_entries WHERE archive = $1`, a.Name()); err != nil {
		return fmt.Errorf("clear entries of %s: %w", a.Name(), err)
	}

	rows := entryRows(a.Name(), a.Snapshot())
	n, err := tx.CopyFrom(ctx, pgx.Identifier{"message_entries"}, entryColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("copy entries of %s: %w", a.Name(), err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit save of %s: %w", a.Name(), err)
	}

	log.Info().Str("archive", a.Name()).Int64("rows", n).Msg("Archive saved to PostgreSQL")
	return nil
}

// entryRows lays out data as copy rows sorted by key.
func entryRows(name string, data map[string]string) [][]any {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	rows := make([][]any, len(keys))
	for i, k := range keys {
		rows[i] = []any{name, k, data[k]}
	}
	return rows
}
