package sqlite

import (
	"context"
	"database/sql"
	"io"
	"time"

	"log/slog"

	"github.com/garnizeh/worklog/internal/db"
	"github.com/garnizeh/worklog/pkg/repository"
)

// dbtx is the statement surface shared by db.DB and db.Tx.
type dbtx interface {
	Exec(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRow(ctx context.Context, query string, args ...any) *sql.Row
	QueryRows(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// SQLiteRepo implements repository.Store using the internal DB wrapper.
type SQLiteRepo struct {
	conn   *db.DB // nil when bound to a transaction
	h      dbtx
	logger *slog.Logger
}

// Ensure SQLiteRepo implements the public contract.
var _ repository.Store = (*SQLiteRepo)(nil)

func New(conn *db.DB, logger *slog.Logger) *SQLiteRepo {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &SQLiteRepo{conn: conn, h: conn, logger: logger}
}

// WithinTx runs fn against a Store bound to one transaction. Calling it on an
// already transaction-bound repo reuses the open transaction.
func (r *SQLiteRepo) WithinTx(ctx context.Context, fn func(repository.Store) error) error {
	if r.conn == nil {
		return fn(r)
	}
	tx, err := r.conn.BeginTx(ctx)
	if err != nil {
		return err
	}
	bound := &SQLiteRepo{h: tx, logger: r.logger}
	if err := fn(bound); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			r.logger.Error("tx rollback failed", "err", rbErr)
		}
		return err
	}
	return tx.Commit()
}

func now() int64 {
	return time.Now().UTC().Unix()
}
