// Agenda Cultural Ingestor
// Copyright 2026 Agenda Cultural contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agendacultural/ingestor

// Package fetch implements the three fetcher adapter variants (GOLD,
// SILVER, BRONZE) behind one narrow contract, discriminated by
// models.SourceConfig.Tier rather than an inheritance hierarchy (spec §9).
package fetch

import (
	"context"

	"github.com/agendacultural/ingestor/internal/models"
)

// Raw is an untyped raw record as produced by an adapter, keyed by the
// source's own field names. The Parser maps it into a models.Event.
type Raw map[string]any

// Adapter is the common contract every tier implements.
type Adapter interface {
	// Fetch retrieves up to maxPages of raw records for cfg. Transport,
	// rate-limit, and remote-server errors are retried internally per
	// spec §5/§7; a non-nil error here is always stage-fatal for this
	// source.
	Fetch(ctx context.Context, cfg *models.SourceConfig, maxPages int) ([]Raw, error)
}

// ForTier returns the Adapter implementation for cfg's tier.
func ForTier(cfg *models.SourceConfig, deps Deps) (Adapter, error) {
	switch cfg.Tier {
	case models.TierGold:
		return NewGoldAdapter(deps), nil
	case models.TierSilver:
		return NewSilverAdapter(deps), nil
	case models.TierBronze:
		return NewBronzeAdapter(deps), nil
	default:
		return nil, models.NewConfigError("fetch", cfg.Slug, errUnknownTier(cfg.Tier))
	}
}

type unknownTierError string

func (e unknownTierError) Error() string { return "unknown source tier: " + string(e) }

func errUnknownTier(t models.Tier) error { return unknownTierError(string(t)) }
