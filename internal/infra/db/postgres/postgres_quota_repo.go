package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"notification-hub/internal/domain"
	"notification-hub/internal/domain/ports/repository"
)

var _ repository.QuotaRepository = (*PostgresQuotaRepo)(nil)

// PostgresQuotaRepo backs the daily send counter with the
// daily_message_counts table, UNIQUE on (user_id, day). The upsert makes the
// first-send-of-the-day creation idempotent under concurrent requests, and
// the FOR UPDATE lock held for the rest of the dispatch transaction
// serializes the check-then-increment sequence of same-user sends.
type PostgresQuotaRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresQuotaRepo(pool *pgxpool.Pool) *PostgresQuotaRepo {
	return &PostgresQuotaRepo{pool: pool}
}

func (r *PostgresQuotaRepo) CountForUpdate(ctx context.Context, tx repository.Tx, userID string, day time.Time) (int, error) {
	// The row lock is only meaningful inside a transaction.
	handle, ok := tx.(pgx.Tx)
	if !ok {
		return 0, domain.ErrTxRequired
	}

	const ensure = `
INSERT INTO daily_message_counts (user_id, day, count)
VALUES ($1, $2, 0)
ON CONFLICT (user_id, day) DO NOTHING;`
	if _, err := handle.Exec(ctx, ensure, userID, day); err != nil {
		return 0, fmt.Errorf("ensure daily counter: %w", err)
	}

	const lock = `
SELECT count FROM daily_message_counts
 WHERE user_id=$1 AND day=$2
   FOR UPDATE;`
	var count int
	if err := handle.QueryRow(ctx, lock, userID, day).Scan(&count); err != nil {
		return 0, fmt.Errorf("lock daily counter: %w", err)
	}
	return count, nil
}

func (r *PostgresQuotaRepo) Increment(ctx context.Context, tx repository.Tx, userID string, day time.Time) error {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	// Atomic in-place add; never read-modify-write.
	const q = `
INSERT INTO daily_message_counts (user_id, day, count)
VALUES ($1, $2, 1)
ON CONFLICT (user_id, day) DO UPDATE
   SET count = daily_message_counts.count + 1;`
	if _, err := ex.Exec(ctx, q, userID, day); err != nil {
		return fmt.Errorf("increment daily counter: %w", err)
	}
	return nil
}

func (r *PostgresQuotaRepo) Count(ctx context.Context, tx repository.Tx, userID string, day time.Time) (int, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return 0, err
	}
	var count int
	err = ex.QueryRow(ctx, `SELECT count FROM daily_message_counts WHERE user_id=$1 AND day=$2;`, userID, day).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return count, nil
}
