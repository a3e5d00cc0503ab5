// Agenda Cultural Ingestor
// Copyright 2026 Agenda Cultural contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agendacultural/ingestor

// Package parse implements the deterministic raw-to-Event mapping (spec
// §4.4): dotted-path field extraction, Spanish date/time parsing,
// HTML-entity unescape, whitespace normalization, URL absolutization, and
// synthetic external_id hashing.
package parse

import (
	"crypto/sha1" //nolint:gosec // non-cryptographic content fingerprint, not a security boundary
	"encoding/hex"
	"html"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/agendacultural/ingestor/internal/fetch"
	"github.com/agendacultural/ingestor/internal/models"
)

// Parser maps one adapter's raw records into normalized Events using its
// source-specific field-mapping table.
type Parser struct{}

// New constructs a Parser.
func New() *Parser { return &Parser{} }

// Parse converts one raw record into an Event, or returns ok=false when a
// required field is missing (spec §4.4).
func (p *Parser) Parse(cfg *models.SourceConfig, raw fetch.Raw, scrapedAt time.Time) (*models.Event, bool) {
	mapping := fieldMappingFor(cfg)

	title := normalizeText(stringAt(raw, path(mapping, "title")))
	if title == "" {
		return nil, false
	}

	startRaw := stringAt(raw, path(mapping, "start_date"))
	startDate, ok := ParseDate(startRaw)
	if !ok {
		return nil, false
	}

	ev := &models.Event{
		Title:      title,
		StartDate:  startDate,
		SourceSlug: cfg.Slug,
		SourceTier: cfg.Tier,
		ScrapedAt:  scrapedAt,
	}

	ev.Description = normalizeText(stringAt(raw, path(mapping, "description")))
	ev.VenueName = normalizeText(stringAt(raw, path(mapping, "venue_name")))
	ev.Address = normalizeText(stringAt(raw, path(mapping, "address")))
	ev.City = normalizeText(stringAt(raw, path(mapping, "city")))
	ev.Province = normalizeText(stringAt(raw, path(mapping, "province")))
	ev.Region = firstNonEmptyStr(normalizeText(stringAt(raw, path(mapping, "region"))), cfg.Region)
	ev.PostalCode = normalizeText(stringAt(raw, path(mapping, "postal_code")))
	ev.Country = firstNonEmptyStr(normalizeText(stringAt(raw, path(mapping, "country"))), "ES")
	ev.ExternalURL = absolutize(stringAt(raw, path(mapping, "external_url")), imageURLPrefix(cfg))
	ev.SourceImageURL = absolutize(stringAt(raw, path(mapping, "image_url")), imageURLPrefix(cfg))

	if endRaw := stringAt(raw, path(mapping, "end_date")); endRaw != "" {
		if endDate, ok := ParseDate(endRaw); ok {
			ev.EndDate = &endDate
		}
	}

	if h, m, had := ParseTime(stringAt(raw, path(mapping, "start_time"))); had {
		ev.StartTime = CombineDateTime(startDate, h, m, had)
	}
	if ev.EndDate != nil {
		if h, m, had := ParseTime(stringAt(raw, path(mapping, "end_time"))); had {
			ev.EndTime = CombineDateTime(*ev.EndDate, h, m, had)
		}
	}

	if freeMarker := freeMarkerFor(cfg); freeMarker != "" {
		text := strings.ToLower(ev.Description + " " + stringAt(raw, path(mapping, "price_info")))
		if strings.Contains(text, strings.ToLower(freeMarker)) {
			ev.IsFree = models.True
		}
	}
	ev.PriceInfo = normalizeText(stringAt(raw, path(mapping, "price_info")))

	ev.ExternalID = strings.TrimSpace(stringAt(raw, path(mapping, "external_id")))
	if ev.ExternalID == "" {
		ev.ExternalID = SyntheticExternalID(ev.Title, ev.StartDate, ev.VenueName)
		ev.Synthetic = true
	}

	return ev, true
}

// SyntheticExternalID derives a stable external_id from title+date+venue
// when the source did not supply one (spec §4.4).
func SyntheticExternalID(title string, startDate time.Time, venue string) string {
	key := strings.ToLower(strings.TrimSpace(title)) + "|" +
		startDate.Format("2006-01-02") + "|" +
		strings.ToLower(strings.TrimSpace(venue))
	sum := sha1.Sum([]byte(key)) //nolint:gosec // fingerprint only
	return "syn-" + hex.EncodeToString(sum[:8])
}

// normalizeText unescapes HTML entities and collapses whitespace.
func normalizeText(s string) string {
	s = html.UnescapeString(s)
	fields := strings.Fields(s)
	return strings.TrimSpace(strings.Join(fields, " "))
}

// absolutize resolves a possibly-relative URL against prefix.
func absolutize(raw, prefix string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || prefix == "" {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.IsAbs() {
		return raw
	}
	base, err := url.Parse(prefix)
	if err != nil {
		return raw
	}
	return base.ResolveReference(u).String()
}

func fieldMappingFor(cfg *models.SourceConfig) models.FieldMapping {
	switch cfg.Tier {
	case models.TierGold:
		if cfg.Gold != nil {
			return cfg.Gold.FieldMapping
		}
	case models.TierSilver:
		if cfg.Silver != nil {
			return cfg.Silver.FieldSelectors
		}
	case models.TierBronze:
		if cfg.Bronze != nil {
			return cfg.Bronze.FieldSelectors
		}
	}
	return nil
}

func imageURLPrefix(cfg *models.SourceConfig) string {
	if cfg.Tier == models.TierGold && cfg.Gold != nil {
		return cfg.Gold.ImageURLPrefix
	}
	return ""
}

func freeMarkerFor(cfg *models.SourceConfig) string {
	if cfg.Tier == models.TierGold && cfg.Gold != nil {
		return cfg.Gold.FreeMarker
	}
	return "gratis"
}

func path(mapping models.FieldMapping, field string) string {
	if mapping == nil {
		return field
	}
	if p, ok := mapping[field]; ok {
		return p
	}
	return field
}

// stringAt resolves a dotted path (e.g. "address.locality") against raw,
// coercing a string, number or boolean leaf to a string; any other leaf
// yields "".
func stringAt(raw fetch.Raw, dotted string) string {
	var node any = map[string]any(raw)
	for _, part := range strings.Split(dotted, ".") {
		m, ok := node.(map[string]any)
		if !ok {
			return ""
		}
		node = m[part]
	}
	switch v := node.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case nil:
		return ""
	default:
		return ""
	}
}

func firstNonEmptyStr(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
