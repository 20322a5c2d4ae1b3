package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"notification-hub/internal/domain"
	"notification-hub/internal/domain/model"
	"notification-hub/internal/domain/ports/repository"
)

// RemainingCache caches the remaining-quota figure on the read path.
// Satisfied by redis.QuotaCache; nil disables caching.
type RemainingCache interface {
	Get(ctx context.Context, userID string, day time.Time) (int, bool)
	Set(ctx context.Context, userID string, day time.Time, remaining int) error
	Invalidate(ctx context.Context, userID string, day time.Time) error
}

// Compile-time check
var _ RateLimitUseCase = (*rateLimitUC)(nil)

// RateLimitUseCase gates sends against the per-user daily quota. Check and
// Increment run inside the dispatch transaction; Remaining is the lock-free
// reporting path.
type RateLimitUseCase interface {
	// Check fails with domain.ErrRateLimitExceeded once today's count has
	// reached the user's limit. The counter row stays write-locked until the
	// surrounding transaction ends.
	Check(ctx context.Context, tx repository.Tx, user *model.User) error
	// Increment adds exactly 1 to today's counter and evicts the cached
	// remaining figure.
	Increment(ctx context.Context, tx repository.Tx, user *model.User) error
	// Remaining reports how many messages the user may still send today.
	Remaining(ctx context.Context, user *model.User) (int, error)
}

type rateLimitUC struct {
	quota repository.QuotaRepository
	cache RemainingCache
	log   *zerolog.Logger
}

func NewRateLimitUseCase(quota repository.QuotaRepository, cache RemainingCache, logger *zerolog.Logger) *rateLimitUC {
	return &rateLimitUC{quota: quota, cache: cache, log: logger}
}

func (r *rateLimitUC) Check(ctx context.Context, tx repository.Tx, user *model.User) error {
	day := model.Today()
	count, err := r.quota.CountForUpdate(ctx, tx, user.ID, day)
	if err != nil {
		return fmt.Errorf("check quota: %w", err)
	}
	c := model.DailyMessageCount{UserID: user.ID, Day: day, Count: count}
	if c.ReachedLimit(user.DailyLimit) {
		r.log.Warn().Str("username", user.Username).Int("count", count).Int("limit", user.DailyLimit).
			Msg("user has reached daily limit")
		return fmt.Errorf("%w: user %s, limit %d", domain.ErrRateLimitExceeded, user.Username, user.DailyLimit)
	}
	return nil
}

func (r *rateLimitUC) Increment(ctx context.Context, tx repository.Tx, user *model.User) error {
	day := model.Today()
	if err := r.quota.Increment(ctx, tx, user.ID, day); err != nil {
		return err
	}
	if r.cache != nil {
		if err := r.cache.Invalidate(ctx, user.ID, day); err != nil {
			r.log.Warn().Err(err).Str("user_id", user.ID).Msg("quota cache eviction failed")
		}
	}
	return nil
}

func (r *rateLimitUC) Remaining(ctx context.Context, user *model.User) (int, error) {
	day := model.Today()
	if r.cache != nil {
		if n, ok := r.cache.Get(ctx, user.ID, day); ok {
			return n, nil
		}
	}
	count, err := r.quota.Count(ctx, repository.NoTX, user.ID, day)
	if err != nil {
		return 0, err
	}
	c := model.DailyMessageCount{UserID: user.ID, Day: day, Count: count}
	remaining := c.Remaining(user.DailyLimit)
	if r.cache != nil {
		if err := r.cache.Set(ctx, user.ID, day, remaining); err != nil {
			r.log.Warn().Err(err).Str("user_id", user.ID).Msg("quota cache fill failed")
		}
	}
	return remaining, nil
}
