// Agenda Cultural Ingestor
// Copyright 2026 Agenda Cultural contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agendacultural/ingestor

package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agendacultural/ingestor/internal/models"
)

func TestInferFreeFromVenueMatchesKnownKeyword(t *testing.T) {
	events := []*models.Event{
		{Title: "Cuentacuentos", VenueName: "Biblioteca Municipal de Alcala"},
		{Title: "Exposicion", VenueName: "Centro Cultural Municipal Norte"},
	}
	InferFreeFromVenue(events)
	assert.Equal(t, models.True, events[0].IsFree)
	assert.Equal(t, models.True, events[1].IsFree)
}

func TestInferFreeFromVenueLeavesUnmatchedUnknown(t *testing.T) {
	events := []*models.Event{
		{Title: "Concierto", VenueName: "Sala Apolo"},
	}
	InferFreeFromVenue(events)
	assert.Equal(t, models.Unknown, events[0].IsFree)
}

func TestInferFreeFromVenueDoesNotOverwriteKnownValue(t *testing.T) {
	events := []*models.Event{
		{Title: "Feria", VenueName: "Biblioteca Central", IsFree: models.False},
	}
	InferFreeFromVenue(events)
	assert.Equal(t, models.False, events[0].IsFree, "enricher's explicit answer must not be overridden")
}
