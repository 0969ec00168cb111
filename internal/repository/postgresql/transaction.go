package postgresql

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/annam-hrm/attendance-ingest-go/internal/pkg/database"
)

// GetQuerier returns the transaction carried on the context when one is
// present, otherwise the pool. Every repository goes through this so the
// same code serves both transactional and standalone calls.
func GetQuerier(ctx context.Context, db *database.DB) database.Querier {
	if tx, ok := database.TxFrom(ctx); ok {
		return tx
	}
	return db
}

// TxManager runs functions inside a transaction carried on the context.
type TxManager struct {
	db       *database.DB
	attempts int
}

func NewTxManager(db *database.DB, attempts int) *TxManager {
	if attempts < 1 {
		attempts = 1
	}
	return &TxManager{db: db, attempts: attempts}
}

// WithTransaction begins a transaction, places it on the context and
// runs fn. Serialization failures, deadlocks and lock timeouts are
// retried with a short backoff; anything else rolls back and returns.
func (m *TxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt < m.attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * 100 * time.Millisecond):
			}
		}

		lastErr = m.runOnce(ctx, fn)
		if lastErr == nil || !retryable(lastErr) {
			return lastErr
		}
	}
	return lastErr
}

func (m *TxManager) runOnce(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := m.db.BeginTx(ctx)
	if err != nil {
		return err
	}

	if err := fn(database.WithTx(ctx, tx)); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// retryable reports whether the error is a transient concurrency
// failure: serialization_failure, deadlock_detected or lock_not_available.
func retryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case "40001", "40P01", "55P03":
		return true
	}
	return false
}
