package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/nutrinow/internal/client/migrations"
	"github.com/dmitrijs2005/nutrinow/internal/dbx"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps keys in the local_storage table.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// busyTimeoutMillis is how long a connection waits for another process's
// write lock before failing with SQLITE_BUSY.
const busyTimeoutMillis = 5000

// Open opens (creating if needed) the SQLite database at dsn and applies the
// embedded migrations.
func Open(ctx context.Context, dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", sharedDSN(dsn))
	if err != nil {
		return nil, fmt.Errorf("open local database: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate local database: %w", err)
	}
	return NewSQLiteStore(db), nil
}

// sharedDSN makes every connection wait on a locked database and take the
// write lock when a transaction begins, so concurrent GetOrSet calls from
// several processes queue instead of failing.
func sharedDSN(dsn string) string {
	var params []string
	if !strings.Contains(dsn, "busy_timeout") {
		params = append(params, fmt.Sprintf("_pragma=busy_timeout(%d)", busyTimeoutMillis))
	}
	if !strings.Contains(dsn, "_txlock=") {
		params = append(params, "_txlock=immediate")
	}
	if len(params) == 0 {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return goose.UpContext(ctx, db, ".")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (string, bool, error) {
	return get(ctx, s.db, key)
}

func get(ctx context.Context, q dbx.DBTX, key string) (string, bool, error) {
	var value string
	err := q.QueryRowContext(ctx, `SELECT value FROM local_storage WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO local_storage (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Remove(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM local_storage WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

// GetOrSet is safe across processes sharing the database file. The
// transaction takes the write lock up front (see sharedDSN), so a second
// process waits and then reads the value the first one stored.
func (s *SQLiteStore) GetOrSet(ctx context.Context, key string, create func() string) (string, error) {
	var value string
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		existing, ok, err := get(ctx, tx, key)
		if err != nil {
			return err
		}
		if ok {
			value = existing
			return nil
		}
		value = create()
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO local_storage (key, value) VALUES (?, ?) ON CONFLICT(key) DO NOTHING`,
			key, value); err != nil {
			return fmt.Errorf("failed to insert %s: %w", key, err)
		}
		stored, _, err := get(ctx, tx, key)
		if err != nil {
			return err
		}
		value = stored
		return nil
	})
	if err != nil {
		return "", err
	}
	return value, nil
}
