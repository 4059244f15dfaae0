package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"relmap/internal/schema"
)

// Options controls how a store is opened
type Options struct {
	// ForeignKeys turns on foreign key enforcement for every connection.
	// SQLite leaves it off by default.
	ForeignKeys bool
	// SharedConnection caps the pool at one connection that all goroutines
	// share. Required for ":memory:" databases.
	SharedConnection bool
	Logger           *zerolog.Logger
}

// Store is an open SQLite database with a materialized schema
type Store struct {
	db    *sql.DB
	path  string
	model *schema.Model
	log   zerolog.Logger
}

// querier is satisfied by *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open opens or creates the database at path and materializes model.
// Stale files must be removed with Reset before calling Open.
func Open(path string, model *schema.Model, opts Options) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if model == nil {
		return nil, fmt.Errorf("schema model is required")
	}

	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	logger = logger.With().Str("component", "sqlite").Str("schema", model.Name()).Logger()

	db, err := sql.Open("sqlite", dsn(path, opts))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if opts.SharedConnection {
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db, path: path, model: model, log: logger}
	if err := s.Materialize(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logger.Debug().
		Str("path", path).
		Bool("foreign_keys", opts.ForeignKeys).
		Bool("shared_connection", opts.SharedConnection).
		Msg("database opened")
	return s, nil
}

func dsn(path string, opts Options) string {
	params := []string{"_pragma=busy_timeout(5000)", "_txlock=immediate"}
	if opts.ForeignKeys {
		params = append(params, "_pragma=foreign_keys(1)")
	}
	if path != ":memory:" {
		params = append(params, "_pragma=journal_mode(WAL)")
	}
	return path + "?" + strings.Join(params, "&")
}

// Materialize creates every table and index of the model. Running it again
// against an existing database changes nothing.
func (s *Store) Materialize(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range s.model.DDL() {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply %q: %w", firstLine(stmt), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	s.log.Debug().Int("statements", len(s.model.DDL())).Msg("schema materialized")
	return nil
}

// Model returns the compiled schema the store was opened with
func (s *Store) Model() *schema.Model {
	return s.model
}

// Path returns the database path
func (s *Store) Path() string {
	return s.path
}

// Close releases the database handle
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Reset removes a database file left by a previous run, together with its
// WAL and shared-memory files. A missing file is not an error.
func Reset(path string) error {
	if path == "" || path == ":memory:" {
		return nil
	}
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove %s: %w", p, err)
		}
	}
	return nil
}

// Session is a unit of work. Writes made through a session become visible
// to other sessions only after Commit. With SharedConnection the session
// holds the only connection, so the store must not be used outside the
// session until it ends.
type Session struct {
	tx    *sql.Tx
	store *Store
}

// Begin starts a session
func (s *Store) Begin(ctx context.Context) (*Session, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &Session{tx: tx, store: s}, nil
}

// Commit makes the session's writes durable
func (ss *Session) Commit() error {
	if err := ss.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", classify(err))
	}
	return nil
}

// Rollback discards the session's writes. Rolling back a finished session
// is a no-op.
func (ss *Session) Rollback() error {
	if err := ss.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("failed to roll back transaction: %w", err)
	}
	return nil
}

// WithSession runs fn in a new session, committing when fn returns nil and
// rolling back otherwise
func (s *Store) WithSession(ctx context.Context, fn func(*Session) error) error {
	sess, err := s.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			sess.Rollback()
			panic(p)
		}
	}()

	if err := fn(sess); err != nil {
		if rbErr := sess.Rollback(); rbErr != nil {
			s.log.Warn().Err(rbErr).Msg("rollback failed")
		}
		return err
	}
	return sess.Commit()
}

// within runs fn inside sess when bound, otherwise in a session of its own
func (s *Store) within(ctx context.Context, sess *Session, fn func(q querier) error) error {
	if sess != nil {
		return fn(sess.tx)
	}
	return s.WithSession(ctx, func(own *Session) error {
		return fn(own.tx)
	})
}

// reader returns the session transaction when bound, else the pool
func (s *Store) reader(sess *Session) querier {
	if sess != nil {
		return sess.tx
	}
	return s.db
}

func firstLine(stmt string) string {
	line, _, _ := strings.Cut(stmt, "\n")
	return strings.TrimSpace(line)
}
