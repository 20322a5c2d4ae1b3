package model

import (
	"time"

	"notification-hub/internal/domain"

	"github.com/google/uuid"
)

// User is a domain entity representing a registered sender.
// DailyLimit caps how many messages (not deliveries) the user may
// successfully send per calendar day.
type User struct {
	ID         string
	Username   string
	DailyLimit int
	IsAdmin    bool
	CreatedAt  time.Time
}

func NewUser(id, username string, dailyLimit int) (*User, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if username == "" {
		return nil, domain.ErrInvalidArgument
	}
	if dailyLimit < 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &User{
		ID:         id,
		Username:   username,
		DailyLimit: dailyLimit,
		IsAdmin:    false,
		CreatedAt:  time.Now(),
	}, nil
}

func (u *User) IsZero() bool { return u == nil || u.ID == "" }
