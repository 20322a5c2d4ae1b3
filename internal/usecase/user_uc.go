package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"notification-hub/internal/domain"
	"notification-hub/internal/domain/model"
	"notification-hub/internal/domain/ports/repository"
)

// Compile-time check
var _ UserUseCase = (*userUC)(nil)

// UserUseCase covers administrator-only user management.
type UserUseCase interface {
	// UpdateDailyLimit changes a user's daily message quota. Non-admin
	// callers get ErrAdminOnly; the change takes effect on the user's next
	// send and their cached remaining figure is evicted.
	UpdateDailyLimit(ctx context.Context, caller *model.User, username string, limit int) (*model.User, error)
}

type userUC struct {
	users repository.UserRepository
	cache RemainingCache
	log   *zerolog.Logger
}

func NewUserUseCase(users repository.UserRepository, cache RemainingCache, logger *zerolog.Logger) *userUC {
	return &userUC{users: users, cache: cache, log: logger}
}

func (u *userUC) UpdateDailyLimit(ctx context.Context, caller *model.User, username string, limit int) (*model.User, error) {
	if caller.IsZero() || !caller.IsAdmin {
		return nil, domain.ErrAdminOnly
	}
	if limit < 0 {
		return nil, fmt.Errorf("%w: daily limit must not be negative", domain.ErrInvalidArgument)
	}

	target, err := u.users.FindByUsername(ctx, repository.NoTX, username)
	if err != nil {
		return nil, err
	}
	if err := u.users.UpdateDailyLimit(ctx, repository.NoTX, target.ID, limit); err != nil {
		return nil, err
	}
	target.DailyLimit = limit

	// The cached remaining figure is derived from the old limit.
	if u.cache != nil {
		if err := u.cache.Invalidate(ctx, target.ID, model.Today()); err != nil {
			u.log.Warn().Err(err).Str("user_id", target.ID).Msg("quota cache eviction failed")
		}
	}

	u.log.Info().Str("admin", caller.Username).Str("username", target.Username).
		Int("daily_limit", limit).Msg("daily limit updated")
	return target, nil
}
