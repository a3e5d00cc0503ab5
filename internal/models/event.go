// Agenda Cultural Ingestor
// Copyright 2026 Agenda Cultural contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agendacultural/ingestor

// Package models defines the canonical event schema produced by the
// ingestion pipeline and the per-process source catalog it is built from.
package models

import "time"

// LocationType describes how an event is held.
type LocationType string

const (
	LocationPhysical LocationType = "physical"
	LocationOnline   LocationType = "online"
	LocationHybrid   LocationType = "hybrid"
)

// Tristate models is_free: true, false, or genuinely unknown.
type Tristate int

const (
	Unknown Tristate = iota
	True
	False
)

// Event is the normalized entity the pipeline produces. Identity is
// (SourceSlug, ExternalID) until first persistence, after which ID is the
// durable primary key.
type Event struct {
	ID string

	// Temporal. StartTime/EndTime are nil when the source gave no time,
	// never a sentinel midnight value (see DESIGN.md open-question note).
	StartDate time.Time
	EndDate   *time.Time
	StartTime *time.Time
	EndTime   *time.Time
	AllDay    bool

	// Content.
	Title          string
	Description    string
	Summary        string
	ImageURL       string
	SourceImageURL string
	ExternalURL    string

	// Classification. CategorySlugs[0] is primary when non-empty.
	CategorySlugs []string

	// Pricing.
	IsFree    Tristate
	Price     *float64
	PriceInfo string

	// Location.
	VenueName    string
	Address      string
	City         string
	Province     string
	Region       string
	PostalCode   string
	Country      string
	Latitude     *float64
	Longitude    *float64
	LocationType LocationType

	// Provenance.
	SourceSlug string
	SourceTier Tier
	ExternalID string
	Synthetic  bool // true when ExternalID was synthesized by the parser
	ScrapedAt  time.Time

	// Relations.
	Organizer      *Organizer
	Contact        *Contact
	Registration   *Registration
	Accessibility  *Accessibility
	OnlineDetails  *OnlineDetails
	Contributions  []SourceContribution
}

// Organizer identifies who runs an event.
type Organizer struct {
	Name    string
	URL     string
	Email   string
	Phone   string
}

// Contact carries public-facing contact details distinct from the organizer.
type Contact struct {
	Email string
	Phone string
	URL   string
}

// Registration describes how attendees sign up.
type Registration struct {
	Required bool
	URL      string
	Deadline *time.Time
}

// Accessibility captures venue accessibility notes.
type Accessibility struct {
	WheelchairAccessible Tristate
	Notes                string
}

// OnlineDetails carries the joining details for online/hybrid events.
type OnlineDetails struct {
	Platform string
	JoinURL  string
}

// SourceContribution records that a given source supplied specific fields
// of a persisted event. Append-only per (EventID, SourceSlug).
type SourceContribution struct {
	EventID          string
	SourceSlug       string
	ExternalID       string
	FieldsContributed []string
	QualityScore     int
	IsPrimary        bool
	ContributedAt    time.Time
}

// Enrichment is the generative model's per-event output (spec §4.6). It
// never carries an image URL and is never persisted directly; its fields
// flow into Event through the enricher and classifier stages.
type Enrichment struct {
	EventKey       string // caller-assigned batch key, not persisted
	Summary        string
	CategorySlugs  []string
	IsFree         Tristate
	Price          *float64
	PriceDetails   string
	ImageKeywords  []string // capped at 3, English noun phrases
	NormalizedText string
}

// Classification is the hybrid classifier's verdict for one event.
type Classification struct {
	CategorySlugs []string // ordered, primary first, capped at top-K
	Scores        map[string]float64
	FellBack      bool // true when the embedding path cleared no threshold
}

// GeoResult is a resolved geocode for one event.
type GeoResult struct {
	Latitude   float64
	Longitude  float64
	Confidence float64
	Region     string
	Province   string
	City       string
	Reconciled bool // true when the region was corrected against the registry
}

// PipelineResult summarizes one orchestrator run over a single source.
type PipelineResult struct {
	SourceSlug       string
	RawCount         int
	ParsedCount      int
	PastFilteredCount int
	LimitApplied     int
	EnrichedCount    int
	ImagesResolved   int
	Inserted         int
	Updated          int
	Skipped          int
	Failed           int
	CategoryHistogram map[string]int
	RegionHistogram   map[string]int
	Success          bool
	Error            string
	Duration         time.Duration
}
