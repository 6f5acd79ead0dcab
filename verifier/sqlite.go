// Copyright 2026 Contributors to the Veraison project.
// SPDX-License-Identifier: Apache-2.0

package verifier

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps issued values in a SQLite database so that they survive
// a verifier restart.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path. Use ":memory:" for a
// throwaway database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}

	// a single connection keeps ":memory:" databases alive and serializes
	// writers
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "set WAL mode")
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "migrate")
	}

	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS issued (
		kind TEXT NOT NULL,
		value TEXT NOT NULL,
		issued_at INTEGER NOT NULL,
		PRIMARY KEY (kind, value)
	)`)
	return err
}

func (s *SQLiteStore) Put(ctx context.Context, kind Kind, value string, issued time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO issued (kind, value, issued_at) VALUES (?, ?, ?)`,
		string(kind), value, issued.UnixMilli(),
	)
	if err != nil {
		return errors.Wrapf(err, "failed to store %s", kind)
	}

	return nil
}

func (s *SQLiteStore) Take(ctx context.Context, kind Kind, value string) (time.Time, error) {
	var ms int64

	err := s.db.QueryRowContext(ctx,
		`DELETE FROM issued WHERE kind = ? AND value = ? RETURNING issued_at`,
		string(kind), value,
	).Scan(&ms)
	if err != nil {
		if err == sql.ErrNoRows {
			return time.Time{}, ErrNotFound
		}
		return time.Time{}, errors.Wrapf(err, "failed to take %s", kind)
	}

	return time.UnixMilli(ms), nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
