// Agenda Cultural Ingestor
// Copyright 2026 Agenda Cultural contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agendacultural/ingestor

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agendacultural/ingestor/internal/models"
	"github.com/agendacultural/ingestor/internal/registry"
)

func testRegistry() *registry.Registry {
	return registry.NewFromConfigs([]*models.SourceConfig{
		{Slug: "madrid-cultura", Region: "Comunidad de Madrid", Tier: models.TierGold, IsActive: true},
		{Slug: "vigo-concellos", Region: "Galicia", Tier: models.TierSilver, IsActive: true},
		{Slug: "leon-feria", Region: "Castilla y Leon", Tier: models.TierGold, IsActive: false},
	})
}

func TestSelectSourcesBySlug(t *testing.T) {
	reg := testRegistry()
	got := selectSources(reg, "vigo-concellos", "", "")
	assert.Len(t, got, 1)
	assert.Equal(t, "vigo-concellos", got[0].Slug)
}

func TestSelectSourcesUnknownSlug(t *testing.T) {
	reg := testRegistry()
	got := selectSources(reg, "does-not-exist", "", "")
	assert.Empty(t, got)
}

func TestSelectSourcesByTier(t *testing.T) {
	reg := testRegistry()
	got := selectSources(reg, "", "gold", "")
	assert.Len(t, got, 2)
}

func TestSelectSourcesByTierAndRegion(t *testing.T) {
	reg := testRegistry()
	got := selectSources(reg, "", "gold", "Comunidad de Madrid")
	assert.Len(t, got, 1)
	assert.Equal(t, "madrid-cultura", got[0].Slug)
}

func TestFilterByRegion(t *testing.T) {
	reg := testRegistry()
	got := filterByRegion(reg.All(), "Galicia")
	assert.Len(t, got, 1)
	assert.Equal(t, "vigo-concellos", got[0].Slug)
}
