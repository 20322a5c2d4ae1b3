package adapter

import (
	"context"

	"notification-hub/internal/domain/model"
)

// SendOutcome is the per-destination result of one adapter invocation.
// Delivery failures are data, not errors: adapters fold transport errors,
// non-2xx statuses and provider-reported failures into ErrorMessage instead
// of returning an error, so one bad destination can never abort its siblings.
type SendOutcome struct {
	Platform     model.Platform
	Destination  string // destination actually used (default substituted if needed)
	Response     map[string]any
	ErrorMessage string
}

func (o SendOutcome) Delivered() bool { return o.ErrorMessage == "" }

// Failed builds a failed outcome for a destination that never produced a
// provider response (registry rejection, panic, timeout).
func Failed(platform model.Platform, destination, errMsg string) SendOutcome {
	return SendOutcome{Platform: platform, Destination: destination, ErrorMessage: errMsg}
}

// PlatformAdapter translates one generic send into one outbound call against
// a specific external API. Implementations make exactly one network call per
// Send invocation and never retry.
type PlatformAdapter interface {
	// Send delivers content to destination (or the adapter's configured
	// default when destination is empty), signing it with the sender's
	// display name.
	Send(ctx context.Context, content, destination, sender string) SendOutcome
	// PlatformType returns the tag the registry keys this adapter under.
	PlatformType() model.Platform
	// IsConfigured reports whether required credentials/URLs are present and
	// superficially well-formed. Cheap; called on every dispatch.
	IsConfigured() bool
}

// PlatformRegistry resolves a platform tag to its configured adapter.
type PlatformRegistry interface {
	// Get fails with domain.ErrPlatformNotSupported when no adapter is
	// registered for p, and domain.ErrPlatformNotConfigured when the adapter
	// exists but is missing configuration. Both reject the destination before
	// any network call.
	Get(p model.Platform) (PlatformAdapter, error)
	// IsAvailable combines existence and configuration into one predicate.
	IsAvailable(p model.Platform) bool
}
