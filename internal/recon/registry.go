package recon

import (
	"context"
	"time"
)

// Pass is one reconciliation sweep with its own cadence. Passes are
// registered by the composition root; nothing self-registers.
type Pass interface {
	Name() string
	Interval() time.Duration
	Run(ctx context.Context) error
}

// Registry tracks registered reconciliation passes.
type Registry struct {
	passes []Pass
}

// NewRegistry builds a registry preloaded with the provided passes.
func NewRegistry(passes ...Pass) *Registry {
	registry := &Registry{}
	for _, pass := range passes {
		if pass == nil {
			continue
		}
		registry.passes = append(registry.passes, pass)
	}
	return registry
}

// Register adds a pass to the registry.
func (r *Registry) Register(pass Pass) {
	if pass == nil {
		return
	}
	r.passes = append(r.passes, pass)
}

// Passes returns the registered passes in the order they were added.
func (r *Registry) Passes() []Pass {
	passes := make([]Pass, len(r.passes))
	copy(passes, r.passes)
	return passes
}
