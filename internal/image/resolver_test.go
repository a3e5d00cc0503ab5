// Agenda Cultural Ingestor
// Copyright 2026 Agenda Cultural contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agendacultural/ingestor

package image

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agendacultural/ingestor/internal/config"
)

func memDedupCache(t *testing.T) *DedupCache {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return &DedupCache{db: db}
}

func providerServer(t *testing.T, urls ...string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := searchResponse{}
		for _, u := range urls {
			resp.Results = append(resp.Results, struct {
				URL       string `json:"url"`
				URLSmall  string `json:"url_small"`
				URLThumb  string `json:"url_thumb"`
				Author    string `json:"author"`
				SourceURL string `json:"source_url"`
			}{URL: u})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestResolveKeepsSourceImage(t *testing.T) {
	r := NewResolver(config.ImageConfig{}, memDedupCache(t), nil)
	c, err := r.Resolve(context.Background(), "https://source.example/image.jpg", nil, "cultural")
	require.NoError(t, err)
	assert.Equal(t, "https://source.example/image.jpg", c.URL)
	assert.Equal(t, "source", c.ProviderID)
}

func TestResolveFallsThroughToCuratedWhenProvidersEmpty(t *testing.T) {
	primary := providerServer(t)
	defer primary.Close()
	secondary := providerServer(t)
	defer secondary.Close()

	cfg := config.ImageConfig{
		Primary:        config.ImageProviderConfig{Name: "p", Endpoint: primary.URL},
		Secondary:      config.ImageProviderConfig{Name: "s", Endpoint: secondary.URL},
		TopNCandidates: 5,
	}
	r := NewResolver(cfg, memDedupCache(t), nil)
	c, err := r.Resolve(context.Background(), "", []string{"jazz"}, "cultural")
	require.NoError(t, err)
	assert.Contains(t, c.URL, "curated/cultural")
}

func TestResolvePrefersUnusedURLAcrossCalls(t *testing.T) {
	primary := providerServer(t, "https://img.example/a.jpg", "https://img.example/b.jpg")
	defer primary.Close()

	cfg := config.ImageConfig{
		Primary:        config.ImageProviderConfig{Name: "p", Endpoint: primary.URL},
		TopNCandidates: 2,
	}
	cache := memDedupCache(t)
	r := NewResolver(cfg, cache, nil)

	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		c, err := r.Resolve(context.Background(), "", []string{"jazz"}, "cultural")
		require.NoError(t, err)
		seen[c.URL] = true
	}
	assert.Len(t, seen, 2, "both candidates must be used before any repeats")
}
