package model

import (
	"fmt"
	"strings"
	"time"

	"notification-hub/internal/domain"
)

// MaxContentLength bounds message content, matching the messages.content
// column definition.
const MaxContentLength = 4000

type Platform string

const (
	PlatformTelegram Platform = "TELEGRAM"
	PlatformDiscord  Platform = "DISCORD"
	PlatformSlack    Platform = "SLACK"
)

// ParsePlatform normalizes a wire-level platform tag. Unknown tags are
// returned as-is with ErrPlatformNotSupported so callers can still record
// which platform was requested.
func ParsePlatform(s string) (Platform, error) {
	p := Platform(strings.ToUpper(strings.TrimSpace(s)))
	switch p {
	case PlatformTelegram, PlatformDiscord, PlatformSlack:
		return p, nil
	default:
		return p, fmt.Errorf("%w: %s", domain.ErrPlatformNotSupported, s)
	}
}

type DeliveryStatus string

const (
	DeliveryStatusPending DeliveryStatus = "PENDING"
	DeliveryStatusSuccess DeliveryStatus = "SUCCESS"
	DeliveryStatusFailed  DeliveryStatus = "FAILED"
)

// ParseDeliveryStatus normalizes a wire-level status tag.
func ParseDeliveryStatus(s string) (DeliveryStatus, error) {
	st := DeliveryStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case DeliveryStatusPending, DeliveryStatusSuccess, DeliveryStatusFailed:
		return st, nil
	default:
		return st, fmt.Errorf("%w: unknown delivery status %s", domain.ErrInvalidArgument, s)
	}
}

// Destination identifies where one delivery of a message should go.
// Target may be empty, in which case the platform adapter substitutes its
// configured default.
type Destination struct {
	Platform Platform
	Target   string
}

// Delivery is the durable record of one attempt to send a Message to one
// Destination. Status moves PENDING -> SUCCESS or PENDING -> FAILED and is
// then terminal; rows are created once and never updated afterwards.
type Delivery struct {
	ID               string
	MessageID        string
	Platform         Platform
	Destination      string
	Status           DeliveryStatus
	ProviderResponse map[string]any
	ErrorMessage     string
	SentAt           time.Time
	CreatedAt        time.Time
}

func NewDelivery(id, messageID string, platform Platform, destination string) *Delivery {
	return &Delivery{
		ID:          id,
		MessageID:   messageID,
		Platform:    platform,
		Destination: destination,
		Status:      DeliveryStatusPending,
		CreatedAt:   time.Now(),
	}
}

// MarkSuccess records the terminal SUCCESS state with the provider's reply.
// A no-op once the delivery already left PENDING.
func (d *Delivery) MarkSuccess(response map[string]any) {
	if d.Status != DeliveryStatusPending {
		return
	}
	d.Status = DeliveryStatusSuccess
	d.ProviderResponse = response
	d.ErrorMessage = ""
	d.SentAt = time.Now()
}

// MarkFailed records the terminal FAILED state with a human-readable cause.
func (d *Delivery) MarkFailed(errMsg string) {
	if d.Status != DeliveryStatusPending {
		return
	}
	d.Status = DeliveryStatusFailed
	d.ErrorMessage = errMsg
	d.SentAt = time.Now()
}

// Message is one user-authored send. Deliveries keep the order of the
// requested destinations.
type Message struct {
	ID         string
	UserID     string
	Content    string
	CreatedAt  time.Time
	Deliveries []*Delivery
}

func NewMessage(id, userID, content string) (*Message, error) {
	if id == "" || userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: empty content", domain.ErrInvalidArgument)
	}
	if len(content) > MaxContentLength {
		return nil, fmt.Errorf("%w: content exceeds %d chars", domain.ErrInvalidArgument, MaxContentLength)
	}
	return &Message{
		ID:        id,
		UserID:    userID,
		Content:   content,
		CreatedAt: time.Now(),
	}, nil
}

func (m *Message) AddDelivery(d *Delivery) {
	d.MessageID = m.ID
	m.Deliveries = append(m.Deliveries, d)
}

func (m *Message) HasSuccessfulDelivery() bool {
	for _, d := range m.Deliveries {
		if d.Status == DeliveryStatusSuccess {
			return true
		}
	}
	return false
}

func (m *Message) SuccessfulDeliveries() int {
	n := 0
	for _, d := range m.Deliveries {
		if d.Status == DeliveryStatusSuccess {
			n++
		}
	}
	return n
}
