// Agenda Cultural Ingestor
// Copyright 2026 Agenda Cultural contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agendacultural/ingestor

// Package image guarantees every event surfaces one image URL via a
// source→provider-A→provider-B→curated cascade with a persistent dedup
// cache (spec §4.8).
package image

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/agendacultural/ingestor/internal/config"
	"github.com/agendacultural/ingestor/internal/models"
	"github.com/agendacultural/ingestor/internal/ratelimit"
)

// Candidate is one image search result, attribution included.
type Candidate struct {
	URL        string
	URLSmall   string
	URLThumb   string
	Author     string
	SourceURL  string
	ProviderID string
}

type searchResponse struct {
	Results []struct {
		URL       string `json:"url"`
		URLSmall  string `json:"url_small"`
		URLThumb  string `json:"url_thumb"`
		Author    string `json:"author"`
		SourceURL string `json:"source_url"`
	} `json:"results"`
}

// providerClient queries one image-search provider.
type providerClient struct {
	name    string
	cfg     config.ImageProviderConfig
	client  *http.Client
	limiter *ratelimit.Limiter
	domain  string
}

func newProviderClient(cfg config.ImageProviderConfig, client *http.Client, limiter *ratelimit.Limiter) *providerClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &providerClient{name: cfg.Name, cfg: cfg, client: client, limiter: limiter, domain: models.HostOf(cfg.Endpoint)}
}

// search requests up to perPage results for query, optionally constrained
// by an orientation hint ("landscape", "portrait", "" for unconstrained).
func (p *providerClient) search(ctx context.Context, query string, perPage int, orientation string) ([]Candidate, error) {
	if p.cfg.Endpoint == "" {
		return nil, nil
	}

	body, err := json.Marshal(map[string]any{
		"query":       query,
		"per_page":    perPage,
		"orientation": orientation,
	})
	if err != nil {
		return nil, models.NewConfigError("image", "", fmt.Errorf("encode search request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, models.NewConfigError("image", "", fmt.Errorf("build search request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if p.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	}

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx, p.domain); err != nil {
			return nil, err
		}
	}

	resp, err := p.client.Do(req)
	if err != nil {
		if p.limiter != nil {
			p.limiter.ReportFailure(p.domain)
		}
		return nil, models.NewTransportError("image", "", fmt.Errorf("%s search failed: %w", p.name, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		if p.limiter != nil {
			p.limiter.ReportFailure(p.domain)
		}
		if resp.StatusCode >= 500 {
			return nil, models.NewRemoteServerError("image", "", fmt.Errorf("%s status %d", p.name, resp.StatusCode))
		}
		return nil, models.NewRateLimitError("image", "", fmt.Errorf("%s status %d", p.name, resp.StatusCode))
	}
	if resp.StatusCode >= 400 {
		return nil, models.NewRemoteServerError("image", "", fmt.Errorf("%s status %d", p.name, resp.StatusCode))
	}

	if p.limiter != nil {
		p.limiter.ReportSuccess(p.domain)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, models.NewContentError("image", "", fmt.Errorf("decode %s response: %w", p.name, err))
	}

	out := make([]Candidate, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		out = append(out, Candidate{
			URL: r.URL, URLSmall: r.URLSmall, URLThumb: r.URLThumb,
			Author: r.Author, SourceURL: r.SourceURL, ProviderID: p.name,
		})
	}
	return out, nil
}
