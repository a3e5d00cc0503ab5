// Agenda Cultural Ingestor
// Copyright 2026 Agenda Cultural contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agendacultural/ingestor

// Package registry is the process-wide source catalog (spec §4.1): a
// read-after-init lookup table over bundled source configs, keyed by slug,
// tier, and region.
package registry

import (
	"strings"
	"sync"

	"github.com/agendacultural/ingestor/internal/models"
)

// Registry is initialized once at startup and is read-only for the
// lifetime of a pipeline run. Re-registering a slug overwrites the prior
// entry, which is only expected to happen during construction.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]*models.SourceConfig
}

// New builds an empty Registry. Call Register for each bundled source
// config, then treat the Registry as frozen.
func New() *Registry {
	return &Registry{sources: make(map[string]*models.SourceConfig)}
}

// NewFromConfigs builds a Registry pre-populated from a bundled config
// list, as used at process startup.
func NewFromConfigs(configs []*models.SourceConfig) *Registry {
	r := New()
	for _, cfg := range configs {
		r.Register(cfg)
	}
	return r
}

// Register adds or overwrites the entry for cfg.Slug.
func (r *Registry) Register(cfg *models.SourceConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[cfg.Slug] = cfg
}

// Get looks up a source by slug.
func (r *Registry) Get(slug string) (*models.SourceConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.sources[slug]
	return cfg, ok
}

// ByTier returns every registered source of the given tier.
func (r *Registry) ByTier(tier models.Tier) []*models.SourceConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.SourceConfig, 0, len(r.sources))
	for _, cfg := range r.sources {
		if cfg.Tier == tier {
			out = append(out, cfg)
		}
	}
	return out
}

// ByRegion returns every registered source whose Region matches name,
// case-insensitively.
func (r *Registry) ByRegion(name string) []*models.SourceConfig {
	target := strings.ToLower(strings.TrimSpace(name))
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.SourceConfig, 0)
	for _, cfg := range r.sources {
		if strings.ToLower(cfg.Region) == target {
			out = append(out, cfg)
		}
	}
	return out
}

// Active returns every registered source with IsActive set.
func (r *Registry) Active() []*models.SourceConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.SourceConfig, 0, len(r.sources))
	for _, cfg := range r.sources {
		if cfg.IsActive {
			out = append(out, cfg)
		}
	}
	return out
}

// All returns every registered source, in no particular order.
func (r *Registry) All() []*models.SourceConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.SourceConfig, 0, len(r.sources))
	for _, cfg := range r.sources {
		out = append(out, cfg)
	}
	return out
}

// CountByTier tallies registered sources per tier.
func (r *Registry) CountByTier() map[models.Tier]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[models.Tier]int, 3)
	for _, cfg := range r.sources {
		counts[cfg.Tier]++
	}
	return counts
}

// Len reports the total number of registered sources.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sources)
}
