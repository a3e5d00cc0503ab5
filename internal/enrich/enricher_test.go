// Agenda Cultural Ingestor
// Copyright 2026 Agenda Cultural contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agendacultural/ingestor

package enrich

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agendacultural/ingestor/internal/config"
	"github.com/agendacultural/ingestor/internal/models"
	"github.com/agendacultural/ingestor/internal/resilience"
)

func testRetryConfig() resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	cfg.MaxAttempts = 1
	return cfg
}

func TestEnrichBatchHappyPath(t *testing.T) {
	fenced := "```json\n" + `{"0":{"summary":"Resumen","category_slugs":["musica"],` +
		`"is_free":true,"price":null,"price_details":"",` +
		`"image_keywords":["concert","stage","crowd","extra"],` +
		`"normalized_text":"concierto de jazz en madrid"}}` + "\n```"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := json.Marshal(chatResponse{Choices: []struct {
			Message chatMessage `json:"message"`
		}{{Message: chatMessage{Role: "assistant", Content: fenced}}}})
		require.NoError(t, err)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	e := New(config.EnrichmentConfig{Endpoint: srv.URL, ModelOro: "m-oro", BatchSize: 10}, srv.Client(), testRetryConfig(), nil)
	events := []*models.Event{
		{Title: "Concierto de Jazz", ExternalID: "m1", VenueName: "Sala Apolo", City: "Madrid"},
	}
	out := e.Enrich(context.Background(), models.TierGold, events)
	require.Contains(t, out, "m1")
	enr := out["m1"]
	assert.Equal(t, "m1", enr.EventKey)
	assert.Equal(t, models.True, enr.IsFree)
	assert.Equal(t, []string{"concert", "stage", "crowd"}, enr.ImageKeywords, "image_keywords must be capped at 3")
	assert.Equal(t, "concierto de jazz en madrid", enr.NormalizedText)
}

func TestEnrichReturnsPartialMapOnMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"not json at all"}}]}`))
	}))
	defer srv.Close()

	e := New(config.EnrichmentConfig{Endpoint: srv.URL, ModelOro: "m-oro", BatchSize: 10}, srv.Client(), testRetryConfig(), nil)
	events := []*models.Event{
		{Title: "Evento", ExternalID: "m1"},
	}
	out := e.Enrich(context.Background(), models.TierGold, events)
	assert.Empty(t, out, "malformed response must leave the event absent from the result, not error the caller")
}

func TestEnrichSelectsModelByTier(t *testing.T) {
	var gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotModel = req.Model
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{}"}}]}`))
	}))
	defer srv.Close()

	e := New(config.EnrichmentConfig{Endpoint: srv.URL, ModelOro: "oro", ModelPlata: "plata", ModelBronce: "bronce", BatchSize: 10}, srv.Client(), testRetryConfig(), nil)
	_ = e.Enrich(context.Background(), models.TierBronze, []*models.Event{{Title: "X", ExternalID: "1"}})
	assert.Equal(t, "bronce", gotModel)
}
