// Agenda Cultural Ingestor
// Copyright 2026 Agenda Cultural contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agendacultural/ingestor

// Package dedup resolves cross-source duplicate events into insert, merge,
// or skip actions, and tracks which source contributed which fields
// (spec §4.10).
package dedup

import (
	"reflect"
	"time"

	"github.com/agendacultural/ingestor/internal/config"
	"github.com/agendacultural/ingestor/internal/models"
)

// defaultThresholds mirror spec §4.10's default match rule and are used
// whenever a zero-value config.DedupConfig is supplied.
const (
	defaultTitleSimilarityThreshold     = 0.85
	defaultVenueSimilarityThreshold     = 0.70
	defaultTitleOnlySimilarityThreshold = 0.95
	defaultMinImprovement               = 5
)

// Deduplicator resolves a new event against same-day, same-place
// candidates using the configured similarity thresholds (spec §4.10).
type Deduplicator struct {
	cfg config.DedupConfig
}

// New constructs a Deduplicator, filling in spec-default thresholds for
// any zero-valued field of cfg.
func New(cfg config.DedupConfig) *Deduplicator {
	if cfg.TitleSimilarityThreshold == 0 {
		cfg.TitleSimilarityThreshold = defaultTitleSimilarityThreshold
	}
	if cfg.VenueSimilarityThreshold == 0 {
		cfg.VenueSimilarityThreshold = defaultVenueSimilarityThreshold
	}
	if cfg.TitleOnlySimilarityThreshold == 0 {
		cfg.TitleOnlySimilarityThreshold = defaultTitleOnlySimilarityThreshold
	}
	if cfg.MinImprovement == 0 {
		cfg.MinImprovement = defaultMinImprovement
	}
	return &Deduplicator{cfg: cfg}
}

// Action is the outcome of resolving a new event against existing
// candidates for the same day and city.
type Action int

const (
	ActionInsert Action = iota
	ActionMerge
	ActionSkip
)

func (a Action) String() string {
	switch a {
	case ActionInsert:
		return "insert"
	case ActionMerge:
		return "merge"
	default:
		return "skip"
	}
}

// qualityWeights mirrors cross_source_dedup.py's QUALITY_WEIGHTS exactly.
var qualityWeights = map[string]int{
	"description":    10,
	"image_url":      8,
	"coordinates":    7,
	"end_date":       5,
	"price_info":     5,
	"organizer_name": 4,
	"start_time":     3,
	"end_time":       3,
	"category_id":    3,
	"external_url":   2,
}

// mergeableFields is the set of fields merge can fill in or replace on an
// existing event, mirroring cross_source_dedup.py's MERGEABLE_FIELDS.
var mergeableFields = []string{
	"description", "summary", "image_url", "end_date", "start_time",
	"end_time", "price_info", "price", "is_free", "venue_name", "address",
	"postal_code", "latitude", "longitude", "organizer_name", "contact",
	"registration", "accessibility", "external_url",
}

// calculateQualityScore scores the completeness of ev's mergeable fields,
// the same weighting the original pipeline used to decide which source's
// data should win a field-level conflict.
func calculateQualityScore(ev *models.Event) int {
	score := 0
	if len(ev.Description) > 50 {
		score += qualityWeights["description"]
	}
	if ev.ImageURL != "" || ev.SourceImageURL != "" {
		score += qualityWeights["image_url"]
	}
	if ev.Latitude != nil && ev.Longitude != nil {
		score += qualityWeights["coordinates"]
	}
	if ev.EndDate != nil {
		score += qualityWeights["end_date"]
	}
	if ev.PriceInfo != "" {
		score += qualityWeights["price_info"]
	}
	if ev.Organizer != nil && ev.Organizer.Name != "" {
		score += qualityWeights["organizer_name"]
	}
	if ev.StartTime != nil {
		score += qualityWeights["start_time"]
	}
	if ev.EndTime != nil {
		score += qualityWeights["end_time"]
	}
	if len(ev.CategorySlugs) > 0 {
		score += qualityWeights["category_id"]
	}
	if ev.ExternalURL != "" {
		score += qualityWeights["external_url"]
	}
	return score
}

// IsMatch tests whether candidate is the same real-world event as newEv
// (spec §4.10): exact start_date, title similarity above the configured
// threshold, and either the same normalized city or venue similarity
// above threshold — falling back to a stricter title-only match when
// neither city nor venue line up.
func (d *Deduplicator) IsMatch(newEv, candidate *models.Event) bool {
	if !newEv.StartDate.Equal(candidate.StartDate) {
		return false
	}

	titleSim := titleSimilarity(newEv.Title, candidate.Title)
	sameCity := newEv.City != "" && normalizeCity(newEv.City) == normalizeCity(candidate.City)
	venueSim := titleSimilarity(newEv.VenueName, candidate.VenueName)

	if titleSim >= d.cfg.TitleSimilarityThreshold && (sameCity || venueSim >= d.cfg.VenueSimilarityThreshold) {
		return true
	}
	return titleSim >= d.cfg.TitleOnlySimilarityThreshold
}

// FindCandidate returns the first event among candidates that matches
// newEv, or nil if none do.
func (d *Deduplicator) FindCandidate(newEv *models.Event, candidates []*models.Event) *models.Event {
	for _, c := range candidates {
		if d.IsMatch(newEv, c) {
			return c
		}
	}
	return nil
}

// MergeEvents merges newEv's fields into existing wherever existing is
// empty and newEv has a value, plus the description-prefer-longer rule and
// the category_slugs union, returning the updated event and the names of
// fields that changed (for contribution bookkeeping and the
// improvement-score gate).
func MergeEvents(existing, newEv *models.Event) (*models.Event, []string) {
	merged := *existing
	var updated []string

	// A field counts as updated only when apply actually changed it, i.e.
	// newEv supplied a value for a field existing lacked.
	setIfEmpty := func(field string, emptyCheck func() bool, apply func()) {
		if emptyCheck() {
			before := merged
			apply()
			if !reflect.DeepEqual(before, merged) {
				updated = append(updated, field)
			}
		}
	}

	if len(newEv.Description) > len(existing.Description)+50 {
		merged.Description = newEv.Description
		updated = append(updated, "description")
	} else {
		setIfEmpty("description", func() bool { return existing.Description == "" }, func() { merged.Description = newEv.Description })
	}
	setIfEmpty("summary", func() bool { return existing.Summary == "" }, func() { merged.Summary = newEv.Summary })
	setIfEmpty("image_url", func() bool { return existing.ImageURL == "" }, func() { merged.ImageURL = newEv.ImageURL })
	setIfEmpty("end_date", func() bool { return existing.EndDate == nil }, func() { merged.EndDate = newEv.EndDate })
	setIfEmpty("start_time", func() bool { return existing.StartTime == nil }, func() { merged.StartTime = newEv.StartTime })
	setIfEmpty("end_time", func() bool { return existing.EndTime == nil }, func() { merged.EndTime = newEv.EndTime })
	setIfEmpty("price_info", func() bool { return existing.PriceInfo == "" }, func() { merged.PriceInfo = newEv.PriceInfo })
	setIfEmpty("price", func() bool { return existing.Price == nil }, func() { merged.Price = newEv.Price })
	setIfEmpty("venue_name", func() bool { return existing.VenueName == "" }, func() { merged.VenueName = newEv.VenueName })
	setIfEmpty("address", func() bool { return existing.Address == "" }, func() { merged.Address = newEv.Address })
	setIfEmpty("postal_code", func() bool { return existing.PostalCode == "" }, func() { merged.PostalCode = newEv.PostalCode })
	setIfEmpty("latitude", func() bool { return existing.Latitude == nil }, func() { merged.Latitude = newEv.Latitude; merged.Longitude = newEv.Longitude })
	setIfEmpty("organizer_name", func() bool {
		return (existing.Organizer == nil || existing.Organizer.Name == "") && newEv.Organizer != nil && newEv.Organizer.Name != ""
	}, func() { merged.Organizer = newEv.Organizer })
	setIfEmpty("contact", func() bool { return existing.Contact == nil }, func() { merged.Contact = newEv.Contact })
	setIfEmpty("registration", func() bool { return existing.Registration == nil }, func() { merged.Registration = newEv.Registration })
	setIfEmpty("accessibility", func() bool { return existing.Accessibility == nil }, func() { merged.Accessibility = newEv.Accessibility })
	setIfEmpty("external_url", func() bool { return existing.ExternalURL == "" }, func() { merged.ExternalURL = newEv.ExternalURL })

	if existing.IsFree == models.Unknown && newEv.IsFree != models.Unknown {
		merged.IsFree = newEv.IsFree
		updated = append(updated, "is_free")
	}

	merged.CategorySlugs = unionSlugs(existing.CategorySlugs, newEv.CategorySlugs)
	if len(merged.CategorySlugs) > len(existing.CategorySlugs) {
		updated = append(updated, "category_slugs")
	}

	return &merged, updated
}

func unionSlugs(a, b []string) []string {
	seen := make(map[string]bool, len(a))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range a {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, s := range b {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// EstimatedImprovement sums the quality weight of each updated field,
// matching cross_source_dedup.py's merge-benefit calculation.
func EstimatedImprovement(fieldsUpdated []string) int {
	total := 0
	for _, f := range fieldsUpdated {
		total += qualityWeights[f]
	}
	return total
}

// Resolution is the outcome of Resolve: the action taken, the resulting
// event (nil on skip), and the contribution record to persist alongside
// it (nil on skip, since a skip contributes nothing new).
type Resolution struct {
	Action       Action
	Event        *models.Event
	Contribution *models.SourceContribution
}

// Resolve decides whether newEv should be inserted as a new event, merged
// into an existing candidate, or skipped as a low-value duplicate
// (spec §4.10). candidates should already be narrowed to events sharing
// newEv's start_date and normalized city.
func (d *Deduplicator) Resolve(newEv *models.Event, candidates []*models.Event, scrapedAt time.Time) Resolution {
	existing := d.FindCandidate(newEv, candidates)
	if existing == nil {
		return Resolution{Action: ActionInsert, Event: newEv, Contribution: primaryContribution(newEv, scrapedAt)}
	}

	merged, fieldsUpdated := MergeEvents(existing, newEv)
	if EstimatedImprovement(fieldsUpdated) < d.cfg.MinImprovement {
		return Resolution{Action: ActionSkip}
	}

	contribution := &models.SourceContribution{
		EventID:           existing.ID,
		SourceSlug:        newEv.SourceSlug,
		ExternalID:        newEv.ExternalID,
		FieldsContributed: fieldsUpdated,
		QualityScore:      calculateQualityScore(newEv),
		IsPrimary:         false,
		ContributedAt:     scrapedAt,
	}
	return Resolution{Action: ActionMerge, Event: merged, Contribution: contribution}
}

func primaryContribution(ev *models.Event, scrapedAt time.Time) *models.SourceContribution {
	return &models.SourceContribution{
		EventID:           ev.ID,
		SourceSlug:        ev.SourceSlug,
		ExternalID:        ev.ExternalID,
		FieldsContributed: mergeableFields,
		QualityScore:      calculateQualityScore(ev),
		IsPrimary:         true,
		ContributedAt:     scrapedAt,
	}
}
