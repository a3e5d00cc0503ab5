// Agenda Cultural Ingestor
// Copyright 2026 Agenda Cultural contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agendacultural/ingestor

package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/agendacultural/ingestor/internal/models"
	"github.com/agendacultural/ingestor/internal/registry"
)

var (
	sourcesTier   string
	sourcesRegion string
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the sources in the catalog, optionally filtered by tier or region",
	RunE:  runSources,
}

func init() {
	sourcesCmd.Flags().StringVar(&sourcesTier, "tier", "", "filter by tier (gold, silver, bronze)")
	sourcesCmd.Flags().StringVar(&sourcesRegion, "region", "", "filter by region name")
}

func runSources(cmd *cobra.Command, args []string) error {
	if sourcesTier != "" {
		switch models.Tier(sourcesTier) {
		case models.TierGold, models.TierSilver, models.TierBronze:
		default:
			return misuseError("unknown tier %q", sourcesTier)
		}
	}

	reg, err := registry.LoadFromFile(catalogPath)
	if err != nil {
		return internalError(err)
	}

	selected := selectSources(reg, "", sourcesTier, sourcesRegion)
	sort.Slice(selected, func(i, j int) bool { return selected[i].Slug < selected[j].Slug })

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%-28s %-8s %-24s %s\n", "SLUG", "TIER", "REGION", "ACTIVE")
	for _, cfg := range selected {
		fmt.Fprintf(w, "%-28s %-8s %-24s %v\n", cfg.Slug, cfg.Tier, cfg.Region, cfg.IsActive)
	}
	return nil
}

// selectSources narrows reg down to one slug, or the intersection of tier
// and region filters when slug is empty.
func selectSources(reg *registry.Registry, slug, tier, region string) []*models.SourceConfig {
	if slug != "" {
		if cfg, ok := reg.Get(slug); ok {
			return []*models.SourceConfig{cfg}
		}
		return nil
	}

	candidates := reg.All()
	if tier != "" {
		candidates = filterByTier(candidates, models.Tier(tier))
	}
	if region != "" {
		candidates = filterByRegion(candidates, region)
	}
	return candidates
}

func filterByTier(in []*models.SourceConfig, tier models.Tier) []*models.SourceConfig {
	out := make([]*models.SourceConfig, 0, len(in))
	for _, cfg := range in {
		if cfg.Tier == tier {
			out = append(out, cfg)
		}
	}
	return out
}

func filterByRegion(in []*models.SourceConfig, region string) []*models.SourceConfig {
	out := make([]*models.SourceConfig, 0, len(in))
	for _, cfg := range in {
		if cfg.Region == region {
			out = append(out, cfg)
		}
	}
	return out
}
