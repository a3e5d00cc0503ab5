// Agenda Cultural Ingestor
// Copyright 2026 Agenda Cultural contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agendacultural/ingestor

// Package geocode resolves (venue, address, city, province, region) into
// coordinates and a confidence score via a Nominatim-compatible endpoint,
// and reconciles the declared region against a CCAA registry (spec §4.9).
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/agendacultural/ingestor/internal/config"
	"github.com/agendacultural/ingestor/internal/models"
	"github.com/agendacultural/ingestor/internal/ratelimit"
)

type nominatimResult struct {
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	DisplayName string  `json:"display_name"`
	Type        string  `json:"type"`
	Importance  float64 `json:"importance"`
}

// typeBoost mirrors the original pipeline's place-type confidence
// adjustment: specific venues score higher than generic streets/cities.
var typeBoost = map[string]float64{
	"theatre":          0.2,
	"arts_centre":      0.2,
	"community_centre": 0.2,
	"museum":           0.2,
	"library":          0.15,
	"venue":            0.15,
	"building":         0.1,
	"street":           0.05,
	"city":             0.0,
	"town":             0.0,
}

// Geocoder performs rate-limited forward geocoding with a specific-to-
// general strategy cascade and in-memory query caching.
type Geocoder struct {
	cfg     config.GeocoderConfig
	client  *http.Client
	limiter *ratelimit.Limiter
	domain  string
	ccaa    *CCAARegistry

	mu    sync.Mutex
	cache map[string]*models.GeoResult
}

// New constructs a Geocoder. client may be nil to use http.DefaultClient.
func New(cfg config.GeocoderConfig, client *http.Client, ccaa *CCAARegistry) *Geocoder {
	if client == nil {
		client = http.DefaultClient
	}
	limiterCfg := ratelimit.DefaultConfig()
	if cfg.MinInterval > 0 {
		limiterCfg.Base = cfg.MinInterval
	}
	host := "nominatim"
	if u, err := url.Parse(cfg.Endpoint); err == nil && u.Host != "" {
		host = u.Host
	}
	return &Geocoder{
		cfg:     cfg,
		client:  client,
		limiter: ratelimit.New(limiterCfg),
		domain:  host,
		ccaa:    ccaa,
		cache:   make(map[string]*models.GeoResult),
	}
}

// Geocode resolves a location using the specific-to-general strategy
// cascade. declaredRegion is the source's claimed region, used only to
// detect a mismatch against the CCAA registry; it is never included in a
// search query (spec §4.9: avoids false matches).
func (g *Geocoder) Geocode(ctx context.Context, venue, address, city, province, declaredRegion string) (*models.GeoResult, error) {
	reconciled := declaredRegion
	wasReconciled := false
	if g.ccaa != nil && city != "" {
		if resolved, ok := g.ccaa.RegionForCity(city); ok {
			if declaredRegion == "" || !strings.EqualFold(resolved, declaredRegion) {
				reconciled = resolved
				wasReconciled = true
			}
		}
	}

	for _, query := range strategies(venue, address, city, province) {
		result, err := g.search(ctx, query)
		if err != nil {
			return nil, err
		}
		if result == nil {
			continue
		}
		result.Region = reconciled
		result.Province = province
		result.City = city
		result.Reconciled = wasReconciled
		return result, nil
	}
	return nil, nil
}

// strategies builds the specific-to-general query cascade (spec §4.9).
func strategies(venue, address, city, province string) []string {
	var out []string
	if venue != "" && city != "" && province != "" {
		out = append(out, fmt.Sprintf("%s, %s, %s, España", venue, city, province))
	}
	if address != "" && city != "" && province != "" {
		out = append(out, fmt.Sprintf("%s, %s, %s, España", address, city, province))
	}
	if address != "" && city != "" {
		out = append(out, fmt.Sprintf("%s, %s, España", address, city))
	}
	if venue != "" && city != "" {
		out = append(out, fmt.Sprintf("%s, %s, España", venue, city))
	}
	if city != "" && province != "" {
		out = append(out, fmt.Sprintf("%s, %s, España", city, province))
	}
	if city != "" {
		out = append(out, fmt.Sprintf("%s, España", city))
	}
	return out
}

func (g *Geocoder) search(ctx context.Context, query string) (*models.GeoResult, error) {
	key := strings.ToLower(strings.TrimSpace(query))
	g.mu.Lock()
	if cached, ok := g.cache[key]; ok {
		g.mu.Unlock()
		return cached, nil
	}
	g.mu.Unlock()

	if err := g.limiter.Wait(ctx, g.domain); err != nil {
		return nil, err
	}

	countryCode := g.cfg.CountryCode
	if countryCode == "" {
		countryCode = "es"
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("limit", "1")
	q.Set("countrycodes", countryCode)
	q.Set("addressdetails", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.cfg.Endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, models.NewConfigError("geocode", "", fmt.Errorf("build request: %w", err))
	}
	if g.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", g.cfg.UserAgent)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		g.limiter.ReportFailure(g.domain)
		return nil, models.NewTransportError("geocode", "", fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusForbidden {
		g.limiter.ReportFailure(g.domain)
		return nil, models.NewRateLimitError("geocode", "", fmt.Errorf("status %d", resp.StatusCode))
	}
	if resp.StatusCode >= 500 {
		g.limiter.ReportFailure(g.domain)
		return nil, models.NewRemoteServerError("geocode", "", fmt.Errorf("status %d", resp.StatusCode))
	}
	if resp.StatusCode >= 400 {
		g.limiter.ReportFailure(g.domain)
		return nil, models.NewRemoteServerError("geocode", "", fmt.Errorf("status %d", resp.StatusCode))
	}
	g.limiter.ReportSuccess(g.domain)

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, models.NewContentError("geocode", "", fmt.Errorf("decode response: %w", err))
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if len(results) == 0 {
		g.cache[key] = nil
		return nil, nil
	}

	r := results[0]
	lat, _ := strconv.ParseFloat(r.Lat, 64)
	lon, _ := strconv.ParseFloat(r.Lon, 64)
	importance := r.Importance
	if importance == 0 {
		importance = 0.5
	}
	confidence := importance + typeBoost[r.Type]
	if confidence > 1.0 {
		confidence = 1.0
	}

	result := &models.GeoResult{Latitude: lat, Longitude: lon, Confidence: confidence}
	g.cache[key] = result
	return result, nil
}
