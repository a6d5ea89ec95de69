// Package store persists the maintenance registry in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// timestampLayout is how created_at and similar columns are written.
const timestampLayout = "2006-01-02 15:04:05"

// Store wraps the database handle. All methods are safe for concurrent use.
type Store struct {
	DB  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the database at path and applies
// migrations. ":memory:" is supported and pinned to a single connection.
func Open(path string) (*Store, error) {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	db, err := sql.Open("sqlite", path+sep+"_pragma=busy_timeout(10000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, err
	}

	if strings.HasPrefix(path, ":memory:") {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	} else {
		// SQLite in WAL mode handles one writer and many readers.
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(0)
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &Store{DB: db, now: time.Now}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.DB.Close()
}

// SetClock overrides the time source used for generated ids and timestamps.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Store) timestamp() string {
	return s.now().Format(timestampLayout)
}

// nextID returns the next PREFIX-YYYY-NNN id for table, continuing from the
// highest existing id of the current year.
func (s *Store) nextID(ctx context.Context, prefix, table string, digits int) (string, error) {
	year := s.now().Format("2006")
	pattern := prefix + "-" + year + "-%"
	var maxID sql.NullString
	err := s.DB.QueryRowContext(ctx, "SELECT id FROM "+table+" WHERE id LIKE ? ORDER BY length(id) DESC, id DESC LIMIT 1", pattern).Scan(&maxID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}

	next := 1
	if maxID.Valid {
		parts := strings.Split(maxID.String, "-")
		if n, err := strconv.Atoi(parts[len(parts)-1]); err == nil {
			next = n + 1
		}
	}
	return fmt.Sprintf("%s-%s-%0*d", prefix, year, digits, next), nil
}

// nextSerial returns PREFIX-NNN, one past the highest existing serial.
func (s *Store) nextSerial(ctx context.Context, prefix, table string) (string, error) {
	var maxID sql.NullString
	err := s.DB.QueryRowContext(ctx, "SELECT id FROM "+table+" WHERE id LIKE ? ORDER BY length(id) DESC, id DESC LIMIT 1", prefix+"-%").Scan(&maxID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}
	next := 1
	if maxID.Valid {
		if n, err := strconv.Atoi(strings.TrimPrefix(maxID.String, prefix+"-")); err == nil {
			next = n + 1
		}
	}
	return fmt.Sprintf("%s-%03d", prefix, next), nil
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func ns(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func sp(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func checkAffected(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
