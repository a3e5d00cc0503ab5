// Agenda Cultural Ingestor
// Copyright 2026 Agenda Cultural contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agendacultural/ingestor

package models

import "net/url"

// Tier classifies a source's data quality, selecting fetcher style and
// enrichment model (spec GLOSSARY).
type Tier string

const (
	TierGold   Tier = "gold"
	TierSilver Tier = "silver"
	TierBronze Tier = "bronze"
)

// Pagination enumerates the GOLD adapter's pagination schemes (spec §4.3).
type Pagination string

const (
	PaginationNone       Pagination = "none"
	PaginationOffsetLimit Pagination = "offset_limit"
	PaginationPageNumber Pagination = "page_number"
	PaginationSocrata    Pagination = "socrata"
)

// FeedType enumerates the SILVER adapter's feed formats.
type FeedType string

const (
	FeedRSS  FeedType = "rss"
	FeedAtom FeedType = "atom"
	FeedICal FeedType = "ical"
)

// FieldMapping maps a normalized Event field name to a dotted path into the
// adapter's raw record (e.g. "address.locality").
type FieldMapping map[string]string

// GoldConfig is the GOLD-tier variant of SourceConfig.
type GoldConfig struct {
	Endpoint       string       `yaml:"endpoint"`
	Pagination     Pagination   `yaml:"pagination"`
	PageSize       int          `yaml:"page_size"`
	OffsetParam    string       `yaml:"offset_param"` // defaults to "offset", Socrata uses "$offset"
	LimitParam     string       `yaml:"limit_param"`  // defaults to "limit", Socrata uses "$limit"
	PageParam      string       `yaml:"page_param"`
	ItemsPath      string       `yaml:"items_path"` // JSON pointer; empty means the response root is the array
	TotalCountPath string       `yaml:"total_count_path"`
	FieldMapping   FieldMapping `yaml:"field_mapping"`
	DateFormat     string       `yaml:"date_format"`
	DateTimeFormat string       `yaml:"datetime_format"`
	DefaultRegion  string       `yaml:"default_region"`
	FreeMarker     string       `yaml:"free_marker"`
	ImageURLPrefix string       `yaml:"image_url_prefix"`
}

// SilverConfig is the SILVER-tier variant of SourceConfig.
type SilverConfig struct {
	FeedURL        string       `yaml:"feed_url"`
	FeedType       FeedType     `yaml:"feed_type"`
	DetailFetch    bool         `yaml:"detail_fetch"`
	FieldSelectors FieldMapping `yaml:"field_selectors"`
}

// BronzeConfig is the BRONZE-tier variant of SourceConfig.
type BronzeConfig struct {
	ListingURL          string       `yaml:"listing_url"`
	HeadlessRender      bool         `yaml:"headless_render"`
	WaitForSelector     string       `yaml:"wait_for_selector"`
	ListingCardSelector string       `yaml:"listing_card_selector"`
	FieldSelectors      FieldMapping `yaml:"field_selectors"`
	MaxPages            int          `yaml:"max_pages"`
	DetailFetch         bool         `yaml:"detail_fetch"`
	MinContentLength    int          `yaml:"min_content_length"` // below this, a render is treated as retryable content error
}

// SourceConfig is an immutable per-process catalog entry. Exactly one of
// Gold/Silver/Bronze is populated, discriminated by Tier — a tagged variant,
// not an inheritance hierarchy (spec §9 Design Notes).
type SourceConfig struct {
	Slug       string `yaml:"slug"`
	Name       string `yaml:"name"`
	Region     string `yaml:"region"`
	RegionCode string `yaml:"region_code"`
	Tier       Tier   `yaml:"tier"`
	IsActive   bool   `yaml:"is_active"`

	Gold   *GoldConfig   `yaml:"gold,omitempty"`
	Silver *SilverConfig `yaml:"silver,omitempty"`
	Bronze *BronzeConfig `yaml:"bronze,omitempty"`
}

// Domain returns the host the rate limiter should key on for this source.
func (s *SourceConfig) Domain() string {
	switch s.Tier {
	case TierGold:
		if s.Gold != nil {
			return hostOf(s.Gold.Endpoint)
		}
	case TierSilver:
		if s.Silver != nil {
			return hostOf(s.Silver.FeedURL)
		}
	case TierBronze:
		if s.Bronze != nil {
			return hostOf(s.Bronze.ListingURL)
		}
	}
	return ""
}

// HostOf returns the host component of rawURL, or "" if it doesn't parse.
// Shared by every collaborator that keys the rate limiter per outbound host.
func HostOf(rawURL string) string {
	return hostOf(rawURL)
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}
