package platform

import (
	"fmt"

	"notification-hub/internal/domain"
	"notification-hub/internal/domain/model"
	"notification-hub/internal/domain/ports/adapter"
)

var _ adapter.PlatformRegistry = (*Registry)(nil)

// Registry maps platform tags to their adapters. Built once at startup; a
// duplicate tag among the given adapters is a configuration error.
type Registry struct {
	services map[model.Platform]adapter.PlatformAdapter
}

func NewRegistry(adapters ...adapter.PlatformAdapter) (*Registry, error) {
	services := make(map[model.Platform]adapter.PlatformAdapter, len(adapters))
	for _, a := range adapters {
		tag := a.PlatformType()
		if _, dup := services[tag]; dup {
			return nil, fmt.Errorf("%w: duplicate adapter for platform %s", domain.ErrAlreadyExists, tag)
		}
		services[tag] = a
	}
	return &Registry{services: services}, nil
}

// Get resolves the adapter for p, rejecting unknown and unconfigured
// platforms before any network call is attempted.
func (r *Registry) Get(p model.Platform) (adapter.PlatformAdapter, error) {
	svc, ok := r.services[p]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrPlatformNotSupported, p)
	}
	if !svc.IsConfigured() {
		return nil, fmt.Errorf("%w: %s", domain.ErrPlatformNotConfigured, p)
	}
	return svc, nil
}

func (r *Registry) IsAvailable(p model.Platform) bool {
	svc, ok := r.services[p]
	return ok && svc.IsConfigured()
}
