// Package state persists failure streak counters between runs in a sqlite database.
// The whole map is read at the start of a run and replaced at the end of it.
package state

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/ludviglundgren/torrent-reconcile/internal/domain"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

var ErrLocked = errors.New("state is locked by another process")

const schema = `
CREATE TABLE IF NOT EXISTS failure_records (
	downloader TEXT NOT NULL,
	hash       TEXT NOT NULL,
	name       TEXT NOT NULL DEFAULT '',
	size       INTEGER NOT NULL DEFAULT 0,
	failures   INTEGER NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	PRIMARY KEY (downloader, hash)
);`

type Store struct {
	db   *sql.DB
	path string
	lock *flock.Flock
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrapf(err, "could not create state dir for %s", path)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open state db: %s", path)
	}

	// single writer, keeps sqlite from returning SQLITE_BUSY on our own connections
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, errors.Wrapf(err, "could not apply pragma %q", pragma)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "could not create schema")
	}

	return &Store{
		db:   db,
		path: path,
		lock: flock.New(path + ".lock"),
	}, nil
}

func (s *Store) Path() string {
	return s.path
}

// Lock takes the writer lock. Only one process may run jobs against a state file.
func (s *Store) Lock() error {
	ok, err := s.lock.TryLock()
	if err != nil {
		return errors.Wrap(err, "could not acquire state lock")
	}
	if !ok {
		return errors.Wrap(ErrLocked, s.lock.Path())
	}
	return nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	if s.lock.Locked() {
		_ = s.lock.Unlock()
	}

	return s.db.Close()
}

// Load reads every record.
func (s *Store) Load(ctx context.Context) (map[domain.RecordKey]domain.FailureRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT downloader, hash, name, size, failures, updated_at FROM failure_records`)
	if err != nil {
		return nil, errors.Wrap(err, "could not load failure records")
	}
	defer rows.Close()

	records := map[domain.RecordKey]domain.FailureRecord{}
	for rows.Next() {
		var r domain.FailureRecord
		if err := rows.Scan(&r.Downloader, &r.Hash, &r.Name, &r.Size, &r.Failures, &r.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "could not scan failure record")
		}
		records[r.Key()] = r
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "could not load failure records")
	}

	return records, nil
}

// List returns every record ordered by downloader and failure count.
func (s *Store) List(ctx context.Context) ([]domain.FailureRecord, error) {
	records, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]domain.FailureRecord, 0, len(records))
	for _, r := range records {
		out = append(out, r)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Downloader != out[j].Downloader {
			return out[i].Downloader < out[j].Downloader
		}
		if out[i].Failures != out[j].Failures {
			return out[i].Failures > out[j].Failures
		}
		return out[i].Hash < out[j].Hash
	})

	return out, nil
}

// Replace overwrites the stored map with records in one transaction.
func (s *Store) Replace(ctx context.Context, records map[domain.RecordKey]domain.FailureRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "could not begin transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM failure_records`); err != nil {
		return errors.Wrap(err, "could not clear failure records")
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO failure_records (downloader, hash, name, size, failures, updated_at) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "could not prepare insert")
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, r := range records {
		updated := r.UpdatedAt
		if updated.IsZero() {
			updated = now
		}
		if _, err := stmt.ExecContext(ctx, r.Downloader, r.Hash, r.Name, r.Size, r.Failures, updated); err != nil {
			return errors.Wrapf(err, "could not insert failure record %s", r.Hash)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "could not commit failure records")
	}

	return nil
}

// Forget removes the records of hash on every downloader and returns how many were removed.
func (s *Store) Forget(ctx context.Context, hash string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM failure_records WHERE lower(hash) = lower(?)`, hash)
	if err != nil {
		return 0, errors.Wrapf(err, "could not forget %s", hash)
	}

	return res.RowsAffected()
}

// Snapshot writes a consistent copy of the database to dst, which must not exist.
func (s *Store) Snapshot(ctx context.Context, dst string) error {
	if _, err := s.db.ExecContext(ctx, `VACUUM INTO ?`, dst); err != nil {
		return errors.Wrapf(err, "could not snapshot state to %s", dst)
	}
	return nil
}
