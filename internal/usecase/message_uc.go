package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"notification-hub/internal/domain"
	"notification-hub/internal/domain/model"
	"notification-hub/internal/domain/ports/repository"
)

// UserMetrics is the per-user reporting row consumed by the admin surface.
type UserMetrics struct {
	Username       string `json:"username"`
	TotalMessages  int64  `json:"total_messages_sent"`
	SentToday      int    `json:"messages_sent_today"`
	RemainingToday int    `json:"remaining_messages_today"`
	DailyLimit     int    `json:"daily_limit"`
}

// Compile-time check
var _ MessageQueryUseCase = (*messageQueryUC)(nil)

type MessageQueryUseCase interface {
	// ListForUser returns the caller's own messages, optionally filtered by
	// delivery status, platform and date range.
	ListForUser(ctx context.Context, user *model.User, f repository.MessageFilter) ([]*model.Message, error)
	// ListAll is the unrestricted listing; non-admin callers get ErrAdminOnly.
	ListAll(ctx context.Context, caller *model.User, f repository.MessageFilter) ([]*model.Message, error)
	// Metrics reports lifetime and daily counters for every user.
	Metrics(ctx context.Context, caller *model.User) ([]UserMetrics, error)
}

type messageQueryUC struct {
	messages repository.MessageRepository
	users    repository.UserRepository
	quota    repository.QuotaRepository
	log      *zerolog.Logger
}

func NewMessageQueryUseCase(
	messages repository.MessageRepository,
	users repository.UserRepository,
	quota repository.QuotaRepository,
	logger *zerolog.Logger,
) *messageQueryUC {
	return &messageQueryUC{messages: messages, users: users, quota: quota, log: logger}
}

func (m *messageQueryUC) ListForUser(ctx context.Context, user *model.User, f repository.MessageFilter) ([]*model.Message, error) {
	if user.IsZero() {
		return nil, domain.ErrInvalidArgument
	}
	msgs, err := m.messages.FindByOwner(ctx, repository.NoTX, user.ID, f)
	if err != nil {
		return nil, err
	}
	m.log.Info().Str("username", user.Username).Int("messages", len(msgs)).Msg("retrieved user messages")
	return msgs, nil
}

func (m *messageQueryUC) ListAll(ctx context.Context, caller *model.User, f repository.MessageFilter) ([]*model.Message, error) {
	if caller.IsZero() || !caller.IsAdmin {
		return nil, domain.ErrAdminOnly
	}
	return m.messages.FindAll(ctx, repository.NoTX, f)
}

func (m *messageQueryUC) Metrics(ctx context.Context, caller *model.User) ([]UserMetrics, error) {
	if caller.IsZero() || !caller.IsAdmin {
		return nil, domain.ErrAdminOnly
	}
	users, err := m.users.List(ctx, repository.NoTX)
	if err != nil {
		return nil, err
	}

	day := model.Today()
	out := make([]UserMetrics, 0, len(users))
	for _, u := range users {
		total, err := m.messages.CountByOwner(ctx, repository.NoTX, u.ID)
		if err != nil {
			return nil, fmt.Errorf("metrics for %s: %w", u.Username, err)
		}
		sentToday, err := m.quota.Count(ctx, repository.NoTX, u.ID, day)
		if err != nil {
			return nil, fmt.Errorf("metrics for %s: %w", u.Username, err)
		}
		c := model.DailyMessageCount{UserID: u.ID, Day: day, Count: sentToday}
		out = append(out, UserMetrics{
			Username:       u.Username,
			TotalMessages:  total,
			SentToday:      sentToday,
			RemainingToday: c.Remaining(u.DailyLimit),
			DailyLimit:     u.DailyLimit,
		})
	}
	return out, nil
}
