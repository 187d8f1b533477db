// Package store persists vendors, purchase orders and performance history
// in PostgreSQL. Every purchase order mutation recalculates the owning
// vendor's metrics inside the same transaction.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"vendor-management-api/internal/performance"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// ErrNotFound is returned when an identifier does not match an existing row.
var ErrNotFound = errors.New("not found")

// querier is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

type Store struct {
	db     *sql.DB
	recalc *performance.Recalculator
	now    func() time.Time
}

// Open connects to Postgres through the pgx database/sql driver and pings it.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

func New(db *sql.DB, recalc *performance.Recalculator) *Store {
	if recalc == nil {
		recalc = performance.NewRecalculator(nil)
	}
	return &Store{db: db, recalc: recalc, now: time.Now}
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

// inTx runs fn in a transaction, committing only when fn succeeds.
func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return withTx(ctx, s.db, fn)
}

func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// recalculate refreshes a vendor's metrics within tx.
func (s *Store) recalculate(ctx context.Context, tx *sql.Tx, vendorID int64) error {
	_, err := s.recalc.Recalculate(ctx, txRepo{q: tx}, vendorID)
	return err
}

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// pgError returns the Postgres error code and constraint behind err, if any.
func pgError(err error) (code, constraint string, ok bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.ConstraintName, true
	}
	return "", "", false
}

// buildOrderBy builds a safe ORDER BY clause using a whitelist of allowed keys.
// allowed maps incoming sort keys (e.g., "name") to actual column identifiers.
// Input sort is comma-separated; prefix with '-' for DESC.
func buildOrderBy(sortParam string, allowed map[string]string) string {
	def := " ORDER BY id ASC"
	if col, ok := allowed["id"]; ok {
		def = " ORDER BY " + col + " ASC"
	}
	if sortParam == "" {
		return def
	}

	parts := strings.Split(sortParam, ",")
	clauses := make([]string, 0, len(parts))
	for _, raw := range parts {
		s := strings.TrimSpace(raw)
		if s == "" {
			continue
		}
		desc := strings.HasPrefix(s, "-")
		s = strings.TrimPrefix(s, "-")
		col, ok := allowed[s]
		if !ok {
			continue
		}
		if desc {
			clauses = append(clauses, col+" DESC")
		} else {
			clauses = append(clauses, col+" ASC")
		}
	}
	if len(clauses) == 0 {
		return def
	}
	return " ORDER BY " + strings.Join(clauses, ", ")
}

func nullIfEmpty(s *string) any {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return *s
}

// setClause accumulates "col = $n" fragments for partial updates.
type setClause struct {
	parts []string
	args  []any
}

func (c *setClause) add(col string, val any) {
	c.args = append(c.args, val)
	c.parts = append(c.parts, fmt.Sprintf("%s = $%d", col, len(c.args)))
}

func (c *setClause) empty() bool { return len(c.parts) == 0 }

// sql renders the SET list and the positional index of the next argument.
func (c *setClause) sql() (string, int) {
	return strings.Join(c.parts, ", "), len(c.args) + 1
}
