// Agenda Cultural Ingestor
// Copyright 2026 Agenda Cultural contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agendacultural/ingestor

package dedup

import (
	"github.com/agendacultural/ingestor/internal/models"
)

// Index groups known events by start_date so Resolve only has to scan
// same-day candidates rather than the whole event set (spec §4.10
// candidate lookup). City is deliberately not part of the bucket key:
// cross_source_dedup.py's find_candidates queries the DB by start_date
// alone and only uses city to build its cache key, never to filter out
// rows. A cross-source duplicate with a different or missing city must
// still reach IsMatch so its venue-similarity fallback can fire.
type Index struct {
	buckets map[string][]*models.Event
}

// NewIndex builds an Index from events already known to the pipeline
// (typically the current day's persisted events for the region being
// ingested).
func NewIndex(events []*models.Event) *Index {
	idx := &Index{buckets: make(map[string][]*models.Event)}
	for _, ev := range events {
		idx.Add(ev)
	}
	return idx
}

// Add inserts ev into the index.
func (idx *Index) Add(ev *models.Event) {
	key := bucketKey(ev)
	idx.buckets[key] = append(idx.buckets[key], ev)
}

// Candidates returns every event sharing ev's start_date, the full pool
// IsMatch should be run against. City is not pre-filtered here; IsMatch
// itself decides whether same city, venue similarity, or title-only
// similarity carries the match.
func (idx *Index) Candidates(ev *models.Event) []*models.Event {
	return idx.buckets[bucketKey(ev)]
}

func bucketKey(ev *models.Event) string {
	return ev.StartDate.Format("2006-01-02")
}
