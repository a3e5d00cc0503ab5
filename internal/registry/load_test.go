// Agenda Cultural Ingestor
// Copyright 2026 Agenda Cultural contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agendacultural/ingestor

package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agendacultural/ingestor/internal/models"
)

const sampleCatalog = `
sources:
  - slug: madrid-cultura
    name: Madrid Cultura Abierta
    region: Comunidad de Madrid
    region_code: MD
    tier: gold
    is_active: true
    gold:
      endpoint: https://datos.madrid.es/egob/catalogo/cultura.json
      pagination: none
      field_mapping:
        title: title
        start_date: start
        city: address.locality
        external_id: id
  - slug: vigo-concellos
    name: Concello de Vigo Axenda
    region: Galicia
    region_code: GA
    tier: silver
    is_active: true
    silver:
      feed_url: https://vigo.org/agenda.rss
      feed_type: rss
`

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleCatalog), 0o600))

	r, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, r.Len())

	cfg, ok := r.Get("madrid-cultura")
	require.True(t, ok)
	assert.Equal(t, models.TierGold, cfg.Tier)
	require.NotNil(t, cfg.Gold)
	assert.Equal(t, models.PaginationNone, cfg.Gold.Pagination)
	assert.Equal(t, "start", cfg.Gold.FieldMapping["start_date"])

	silver, ok := r.Get("vigo-concellos")
	require.True(t, ok)
	require.NotNil(t, silver.Silver)
	assert.Equal(t, models.FeedRSS, silver.Silver.FeedType)
}

func TestLoadFromFileMissingPath(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	assert.Error(t, err)
}
