// Agenda Cultural Ingestor
// Copyright 2026 Agenda Cultural contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agendacultural/ingestor

package enrich

import (
	"strings"
	"sync"

	"github.com/agendacultural/ingestor/internal/cache"
	"github.com/agendacultural/ingestor/internal/models"
)

// freeVenueKeywords lists venue-name substrings that, in practice, almost
// always host free-to-attend public programming. This supplements the
// generative enricher for the cases where it leaves is_free unknown.
var freeVenueKeywords = []string{
	"biblioteca",
	"centro civico",
	"centro cívico",
	"casa de cultura",
	"casa de la cultura",
	"centro cultural municipal",
	"centro de interpretacion",
	"centro de interpretación",
	"plaza mayor",
	"plaza del ayuntamiento",
	"ayuntamiento",
	"centro de mayores",
	"centro juvenil",
}

var (
	freeVenueMatcherOnce sync.Once
	freeVenueMatcher     *cache.AhoCorasick
)

func venueMatcher() *cache.AhoCorasick {
	freeVenueMatcherOnce.Do(func() {
		ac := cache.NewAhoCorasick()
		for _, kw := range freeVenueKeywords {
			ac.AddPattern(kw, true)
		}
		ac.Build()
		freeVenueMatcher = ac
	})
	return freeVenueMatcher
}

// InferFreeFromVenue sets IsFree=True on events whose venue name matches a
// known free-admission keyword and whose is_free is still Unknown after
// enrichment. It runs after the enricher batch and before the classifier.
func InferFreeFromVenue(events []*models.Event) {
	ac := venueMatcher()
	for _, ev := range events {
		if ev.IsFree != models.Unknown {
			continue
		}
		if ev.VenueName == "" {
			continue
		}
		if ac.Contains(strings.ToLower(ev.VenueName)) {
			ev.IsFree = models.True
		}
	}
}
