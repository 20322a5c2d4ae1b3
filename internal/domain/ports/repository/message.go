package repository

import (
	"context"
	"time"

	"notification-hub/internal/domain/model"
)

// MessageFilter narrows message queries. Zero values mean "no constraint".
// Limit caps the page size (0 = unpaginated); Offset skips rows of the
// newest-first ordering.
type MessageFilter struct {
	Status   model.DeliveryStatus
	Platform model.Platform
	From     time.Time
	To       time.Time
	Limit    int
	Offset   int
}

func (f MessageFilter) IsZero() bool {
	return f.Status == "" && f.Platform == "" && f.From.IsZero() && f.To.IsZero() &&
		f.Limit == 0 && f.Offset == 0
}

type MessageRepository interface {
	// Save persists a message together with all of its deliveries. Callers
	// that need all-or-nothing semantics pass the surrounding transaction.
	Save(ctx context.Context, tx Tx, m *model.Message) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Message, error)
	// FindByOwner returns the user's messages, newest first, with deliveries
	// attached in request order.
	FindByOwner(ctx context.Context, tx Tx, userID string, f MessageFilter) ([]*model.Message, error)
	// FindAll is the unrestricted listing used by the admin surface.
	FindAll(ctx context.Context, tx Tx, f MessageFilter) ([]*model.Message, error)
	// CountByOwner is the lifetime total, independent of the daily counter.
	CountByOwner(ctx context.Context, tx Tx, userID string) (int64, error)
}
