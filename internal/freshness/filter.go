// Agenda Cultural Ingestor
// Copyright 2026 Agenda Cultural contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agendacultural/ingestor

// Package freshness drops events whose last meaningful date has already
// passed (spec §4.5).
package freshness

import (
	"time"

	"github.com/agendacultural/ingestor/internal/models"
	"github.com/agendacultural/ingestor/internal/parse"
)

// Filter returns the events that are not stale in a new slice; the input
// slice is left unchanged.
// Civil "today" is computed in Europe/Madrid (DESIGN.md open-question
// resolution).
func Filter(events []*models.Event, now time.Time) []*models.Event {
	today := civilDate(now.In(parse.Madrid))

	kept := make([]*models.Event, 0, len(events))
	for _, ev := range events {
		latest := ev.StartDate
		if ev.EndDate != nil {
			latest = *ev.EndDate
		}
		if civilDate(latest).Before(today) {
			continue
		}
		kept = append(kept, ev)
	}
	return kept
}

func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, parse.Madrid)
}
