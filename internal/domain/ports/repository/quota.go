package repository

import (
	"context"
	"time"
)

// QuotaRepository is the persistent per-user per-day send counter.
//
// CountForUpdate and Increment are the write path: both must run inside the
// dispatch transaction so the row lock taken by CountForUpdate serializes
// concurrent sends from the same user across the whole check-then-increment
// sequence. Count is the lock-free read used for reporting.
type QuotaRepository interface {
	// CountForUpdate lazily creates the (user, day) row (idempotent upsert)
	// and returns its count with a row-level write lock held until the
	// transaction ends. Fails with domain.ErrTxRequired outside a tx.
	CountForUpdate(ctx context.Context, tx Tx, userID string, day time.Time) (int, error)
	// Increment atomically adds 1 to the (user, day) row.
	Increment(ctx context.Context, tx Tx, userID string, day time.Time) error
	// Count reads the current count without locking; an absent row is 0.
	Count(ctx context.Context, tx Tx, userID string, day time.Time) (int, error)
}
