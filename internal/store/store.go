package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"intranet/api/internal/codegen"
	"intranet/api/internal/policy"
)

var ErrNotFound = errors.New("not found")

// conn holds the queries shared by Store and Tx. Every statement is written
// with ? placeholders and rebound for the active driver.
type conn struct {
	ext sqlx.ExtContext
}

func (c conn) get(ctx context.Context, dest any, query string, args ...any) error {
	err := sqlx.GetContext(ctx, c.ext, dest, c.ext.Rebind(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (c conn) selectAll(ctx context.Context, dest any, query string, args ...any) error {
	return sqlx.SelectContext(ctx, c.ext, dest, c.ext.Rebind(query), args...)
}

func (c conn) exec(ctx context.Context, query string, args ...any) error {
	_, err := c.ext.ExecContext(ctx, c.ext.Rebind(query), args...)
	return err
}

// in expands slice arguments with sqlx.In. The result still uses ? and is
// rebound by get, selectAll and exec.
func (c conn) in(query string, args ...any) (string, []any, error) {
	return sqlx.In(query, args...)
}

type Store struct {
	conn
	db *sqlx.DB
}

func New(db *sqlx.DB) *Store {
	return &Store{conn: conn{ext: db}, db: db}
}

func (s *Store) DB() *sqlx.DB {
	return s.db
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type Tx struct {
	conn
	tx *sqlx.Tx
}

// WithTx runs fn in a transaction. The transaction commits when fn returns
// nil and rolls back otherwise.
func (s *Store) WithTx(ctx context.Context, fn func(*Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(&Tx{conn: conn{ext: tx}, tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *Store) WithinSequenceTx(ctx context.Context, fn func(codegen.Sequences) error) error {
	return s.WithTx(ctx, func(tx *Tx) error { return fn(tx) })
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

var (
	_ policy.Lookup     = (*Store)(nil)
	_ codegen.Sequences = (*Tx)(nil)
	_ codegen.TxRunner  = (*Store)(nil)
)
