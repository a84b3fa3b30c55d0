/*
Package sqlite provides a SQLite-backed ledger.Journal.

PURPOSE:
  Captures the ledger's operation log on disk so a new process can rebuild
  the ledger with ledger.Restore. The ledger itself stays in memory; this
  table is only ever appended to and read back in full.

APPEND-ONLY ENFORCEMENT:
  - No UPDATE statements on the operations table
  - No DELETE statements except in ReplaceAll(), which swaps the whole log
    inside one SQL transaction
  - The primary key is the OperationID, so a repeated id is rejected by
    the database and a skipped id is rejected before the insert
  - kind is CHECKed against the four operation kinds

KEY TABLES:
  operations: One row per logged operation, keyed by OperationID

CONCURRENCY:
  Uses sync.RWMutex for thread-safety, same as the in-memory journal.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Readers don't block the writer
  - Better crash recovery

USAGE:
  journal, err := sqlite.New("./data/ledger.db")
  if err != nil {
      log.Fatal(err)
  }
  defer journal.Close()

  recorder, err := ledger.OpenRecorder(ctx, journal)

SEE ALSO:
  - ledger/journal.go: Interface definition
  - store/memory: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/opledger/ledger"
)

// Store implements ledger.Journal using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite journal with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Operations (append-only log)
	CREATE TABLE IF NOT EXISTS operations (
		id INTEGER PRIMARY KEY,
		kind TEXT NOT NULL
			CHECK (kind IN ('create_account', 'credit', 'debit', 'transfer')),
		account TEXT NOT NULL,
		target TEXT,
		amount INTEGER NOT NULL DEFAULT 0
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// JOURNAL (ledger.Journal interface)
// =============================================================================

// Append records an operation at its log position.
func (s *Store) Append(ctx context.Context, id ledger.OperationID, op ledger.Operation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.count(ctx)
	if err != nil {
		return err
	}
	if int64(id) > next {
		return fmt.Errorf("%w: got %d, want %d", ledger.ErrJournalGap, id, next)
	}
	return insertOperation(ctx, s.db, id, op)
}

// ReplaceAll deletes the journal and writes ops in its place, all in one
// transaction. If any insert fails the old log is left untouched.
func (s *Store) ReplaceAll(ctx context.Context, ops []ledger.Operation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if _, err := sqlTx.ExecContext(ctx, "DELETE FROM operations"); err != nil {
		return fmt.Errorf("failed to clear journal: %w", err)
	}
	for i, op := range ops {
		if err := insertOperation(ctx, sqlTx, ledger.OperationID(i), op); err != nil {
			return err
		}
	}

	return sqlTx.Commit()
}

// Load returns every operation ordered by id. The ids must run 0, 1, 2, ...
// so the result can be handed to ledger.Restore.
func (s *Store) Load(ctx context.Context) ([]ledger.Operation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, account, target, amount
		FROM operations
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query operations: %w", err)
	}
	defer rows.Close()

	var (
		ops  []ledger.Operation
		want int64
	)
	for rows.Next() {
		id, op, err := scanOperation(rows)
		if err != nil {
			return nil, err
		}
		if id != want {
			return nil, fmt.Errorf("%w: found %d, want %d", ledger.ErrJournalGap, id, want)
		}
		want++
		ops = append(ops, op)
	}

	return ops, rows.Err()
}

// Len returns the number of journaled operations.
func (s *Store) Len(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, err := s.count(ctx)
	return int(n), err
}

func (s *Store) count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM operations").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count operations: %w", err)
	}
	return n, nil
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertOperation(ctx context.Context, db execer, id ledger.OperationID, op ledger.Operation) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO operations (id, kind, account, target, amount)
		VALUES (?, ?, ?, ?, ?)
	`,
		int64(id),
		string(op.Kind),
		op.Account,
		nullString(op.Target),
		op.Amount,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: %d", ledger.ErrJournalConflict, id)
		}
		return fmt.Errorf("failed to append operation %d: %w", id, err)
	}
	return nil
}

func scanOperation(rows *sql.Rows) (int64, ledger.Operation, error) {
	var (
		id     int64
		kind   string
		op     ledger.Operation
		target sql.NullString
	)
	if err := rows.Scan(&id, &kind, &op.Account, &target, &op.Amount); err != nil {
		return 0, op, fmt.Errorf("failed to scan operation: %w", err)
	}
	op.Kind = ledger.OpKind(kind)
	op.Target = target.String
	return id, op, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "PRIMARY KEY"))
}
