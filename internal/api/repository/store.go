package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("api.repository")

// ErrConflict is returned when a write violates a uniqueness constraint.
var ErrConflict = errors.New("unique constraint violated")

// SQLite extended result codes for uniqueness violations.
const (
	sqliteConstraintPrimaryKey = 1555
	sqliteConstraintUnique     = 2067
)

// DBTX is satisfied by both *sqlx.DB and *sqlx.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

// TxFunc runs against repositories bound to a single transaction.
type TxFunc func(users UserRepository, tasks TaskRepository) error

// Store groups the repositories over one database and runs transactions.
type Store struct {
	db    *sqlx.DB
	Users UserRepository
	Tasks TaskRepository
}

// NewStore creates a new SQLite-backed Store.
func NewStore(db *sqlx.DB) *Store {
	return &Store{
		db:    db,
		Users: NewUserRepository(db),
		Tasks: NewTaskRepository(db),
	}
}

// WithinTx runs fn in a transaction. The transaction commits only if fn
// returns nil; an error, a panic or a cancelled ctx rolls it back.
func (s *Store) WithinTx(ctx context.Context, fn TxFunc) error {
	ctx, span := tracer.Start(ctx, "Store.WithinTx")
	defer span.End()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(NewUserRepository(tx), NewTaskRepository(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, fmt.Errorf("failed to roll back transaction: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var coder interface{ Code() int }
	if errors.As(err, &coder) {
		switch coder.Code() {
		case sqliteConstraintUnique, sqliteConstraintPrimaryKey:
			return true
		}
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
