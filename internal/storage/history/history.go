// Package history persists the log of applied operations in a relational
// database. The engine itself stores only current record state; the log is
// what answers "what happened at sequence N" after the fact.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"           // postgres driver
	_ "modernc.org/sqlite"          // sqlite driver, pure Go

	"github.com/LeJamon/goswapd/internal/core/ledger/record"
	"github.com/LeJamon/goswapd/internal/core/op"
)

// Entry is one applied operation as stored in the log.
type Entry struct {
	Seq       uint64
	Tag       op.Tag
	Result    op.Result
	Signer    record.Address
	Metadata  []byte
	AppliedAt time.Time
}

// NewEntry builds a log entry from an applied submission. The signer column
// records the first signing slot; metadata is the CBOR-encoded change set.
func NewEntry(sub op.Submission, result op.ApplyResult) (*Entry, error) {
	if !result.Applied {
		return nil, fmt.Errorf("history: refusing to log an unapplied operation")
	}
	metadata, err := EncodeMetadata(result.Metadata)
	if err != nil {
		return nil, err
	}
	entry := &Entry{
		Seq:       result.Seq,
		Tag:       result.Tag,
		Result:    result.Result,
		Metadata:  metadata,
		AppliedAt: time.Now().UTC(),
	}
	for _, ref := range sub.Accounts {
		if ref.Signer {
			entry.Signer = ref.Key
			break
		}
	}
	return entry, nil
}

// Store is the operations log over a database/sql connection.
type Store struct {
	db     *sql.DB
	config Config
}

// Open connects to the configured database and creates the schema when it
// is missing.
func Open(config Config) (*Store, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Driver == DriverSQLite && config.MaxOpenConns == 0 {
		config.MaxOpenConns = 1
	}

	db, err := sql.Open(config.Driver, config.DSN)
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", config.Driver, err)
	}
	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)

	s := &Store{db: db, config: config}

	ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: ping: %w", err)
	}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) initSchema(ctx context.Context) error {
	var ddl []string
	switch s.config.Driver {
	case DriverPostgres:
		ddl = []string{
			`CREATE TABLE IF NOT EXISTS operations (
				seq        BIGINT PRIMARY KEY,
				kind       SMALLINT NOT NULL,
				result     INTEGER NOT NULL,
				signer     BYTEA NOT NULL,
				metadata   BYTEA,
				applied_at BIGINT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS operations_kind_idx ON operations (kind, seq)`,
		}
	default:
		ddl = []string{
			`CREATE TABLE IF NOT EXISTS operations (
				seq        INTEGER PRIMARY KEY,
				kind       INTEGER NOT NULL,
				result     INTEGER NOT NULL,
				signer     BLOB NOT NULL,
				metadata   BLOB,
				applied_at INTEGER NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS operations_kind_idx ON operations (kind, seq)`,
		}
	}
	for _, q := range ddl {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("history: init schema: %w", err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders to the postgres $n form.
func (s *Store) rebind(query string) string {
	if s.config.Driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.config.Timeout)
}

// Record inserts one applied operation. Sequences are unique; inserting a
// sequence twice fails.
func (s *Store) Record(ctx context.Context, entry *Entry) error {
	if s.db == nil {
		return ErrClosed
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := s.rebind(`INSERT INTO operations (seq, kind, result, signer, metadata, applied_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, query,
		int64(entry.Seq), int64(entry.Tag), int64(entry.Result),
		entry.Signer[:], entry.Metadata, entry.AppliedAt.Unix())
	if err != nil {
		return fmt.Errorf("history: record seq %d: %w", entry.Seq, err)
	}
	return nil
}

// BySequence returns the entry applied at the given sequence.
func (s *Store) BySequence(ctx context.Context, seq uint64) (*Entry, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := s.rebind(`SELECT seq, kind, result, signer, metadata, applied_at
		FROM operations WHERE seq = ?`)
	entry, err := scanEntry(s.db.QueryRowContext(ctx, query, int64(seq)))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("history: seq %d: %w", seq, err)
	}
	return entry, nil
}

// Range returns entries with from <= seq <= to in ascending order, capped
// at limit when limit is positive.
func (s *Store) Range(ctx context.Context, from, to uint64, limit int) ([]Entry, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := `SELECT seq, kind, result, signer, metadata, applied_at
		FROM operations WHERE seq >= ? AND seq <= ? ORDER BY seq ASC`
	args := []interface{}{int64(from), int64(to)}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, int64(limit))
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("history: range %d..%d: %w", from, to, err)
	}
	defer rows.Close()
	return collectEntries(rows)
}

// ByTag returns the most recent entries of one operation type, newest
// first.
func (s *Store) ByTag(ctx context.Context, tag op.Tag, limit int) ([]Entry, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := `SELECT seq, kind, result, signer, metadata, applied_at
		FROM operations WHERE kind = ? ORDER BY seq DESC`
	args := []interface{}{int64(tag)}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, int64(limit))
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("history: by tag %s: %w", tag, err)
	}
	defer rows.Close()
	return collectEntries(rows)
}

// Latest returns the most recent entries, newest first.
func (s *Store) Latest(ctx context.Context, limit int) ([]Entry, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := `SELECT seq, kind, result, signer, metadata, applied_at
		FROM operations ORDER BY seq DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, int64(limit))
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("history: latest: %w", err)
	}
	defer rows.Close()
	return collectEntries(rows)
}

// Count returns the number of logged operations.
func (s *Store) Count(ctx context.Context) (int64, error) {
	if s.db == nil {
		return 0, ErrClosed
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM operations`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("history: count: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var (
		seq, kind, result, appliedAt int64
		signer, metadata             []byte
	)
	if err := row.Scan(&seq, &kind, &result, &signer, &metadata, &appliedAt); err != nil {
		return nil, err
	}
	entry := &Entry{
		Seq:       uint64(seq),
		Tag:       op.Tag(kind),
		Result:    op.Result(result),
		Metadata:  metadata,
		AppliedAt: time.Unix(appliedAt, 0).UTC(),
	}
	copy(entry.Signer[:], signer)
	return entry, nil
}

func collectEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}
