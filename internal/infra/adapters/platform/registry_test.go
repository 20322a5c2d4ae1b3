package platform

import (
	"context"
	"errors"
	"testing"

	"notification-hub/internal/domain"
	"notification-hub/internal/domain/model"
	"notification-hub/internal/domain/ports/adapter"
)

type stubAdapter struct {
	platform   model.Platform
	configured bool
}

func (s *stubAdapter) Send(ctx context.Context, content, destination, sender string) adapter.SendOutcome {
	return adapter.SendOutcome{Platform: s.platform, Destination: destination}
}
func (s *stubAdapter) PlatformType() model.Platform { return s.platform }
func (s *stubAdapter) IsConfigured() bool           { return s.configured }

func TestRegistryGet(t *testing.T) {
	reg, err := NewRegistry(
		&stubAdapter{platform: model.PlatformTelegram, configured: true},
		&stubAdapter{platform: model.PlatformSlack, configured: false},
	)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	if _, err := reg.Get(model.PlatformTelegram); err != nil {
		t.Errorf("configured platform: %v", err)
	}
	if _, err := reg.Get(model.PlatformSlack); !errors.Is(err, domain.ErrPlatformNotConfigured) {
		t.Errorf("unconfigured platform: err = %v, want ErrPlatformNotConfigured", err)
	}
	if _, err := reg.Get(model.PlatformDiscord); !errors.Is(err, domain.ErrPlatformNotSupported) {
		t.Errorf("unknown platform: err = %v, want ErrPlatformNotSupported", err)
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	_, err := NewRegistry(
		&stubAdapter{platform: model.PlatformTelegram, configured: true},
		&stubAdapter{platform: model.PlatformTelegram, configured: true},
	)
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("err = %v, want ErrAlreadyExists", err)
	}
}

func TestRegistryIsAvailable(t *testing.T) {
	reg, err := NewRegistry(
		&stubAdapter{platform: model.PlatformTelegram, configured: true},
		&stubAdapter{platform: model.PlatformSlack, configured: false},
	)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	if !reg.IsAvailable(model.PlatformTelegram) {
		t.Error("IsAvailable(TELEGRAM) = false")
	}
	if reg.IsAvailable(model.PlatformSlack) {
		t.Error("IsAvailable(SLACK) = true for unconfigured adapter")
	}
	if reg.IsAvailable(model.PlatformDiscord) {
		t.Error("IsAvailable(DISCORD) = true for unregistered platform")
	}
}
