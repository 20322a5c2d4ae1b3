package repository

import (
	"context"

	"notification-hub/internal/domain/model"
)

type UserRepository interface {
	Save(ctx context.Context, tx Tx, u *model.User) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.User, error)
	FindByUsername(ctx context.Context, tx Tx, username string) (*model.User, error)
	List(ctx context.Context, tx Tx) ([]*model.User, error)
	// UpdateDailyLimit adjusts a user's daily send quota (admin operation).
	UpdateDailyLimit(ctx context.Context, tx Tx, id string, limit int) error
}
