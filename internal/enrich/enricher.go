// Agenda Cultural Ingestor
// Copyright 2026 Agenda Cultural contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agendacultural/ingestor

// Package enrich calls the tiered generative model to produce per-event
// summaries, categories, pricing hints, and image keywords (spec §4.6). It
// never assigns an image URL and never writes to the database; a failed or
// malformed response simply leaves that event absent from the result map.
package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/agendacultural/ingestor/internal/config"
	"github.com/agendacultural/ingestor/internal/models"
	"github.com/agendacultural/ingestor/internal/ratelimit"
	"github.com/agendacultural/ingestor/internal/resilience"
)

// item is one event's slimmed-down request payload.
type item struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Venue       string `json:"venue"`
	Location    string `json:"location"`
	TypeHint    string `json:"type_hint"`
	Audience    string `json:"audience"`
	PriceInfo   string `json:"price_info"`
}

// resultEntry is one id's enrichment as returned by the model.
type resultEntry struct {
	Summary        string   `json:"summary"`
	CategorySlugs  []string `json:"category_slugs"`
	IsFree         *bool    `json:"is_free"`
	Price          *float64 `json:"price"`
	PriceDetails   string   `json:"price_details"`
	ImageKeywords  []string `json:"image_keywords"`
	NormalizedText string   `json:"normalized_text"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Enricher batches events to the tiered generative model.
type Enricher struct {
	cfg     config.EnrichmentConfig
	client  *http.Client
	retry   resilience.RetryConfig
	limiter *ratelimit.Limiter
	domain  string
}

// New constructs an Enricher. Every call to the model endpoint is gated
// through limiter, keyed on the endpoint's host (spec §4.2/§5: the limiter
// "MUST be consulted before every outbound request").
func New(cfg config.EnrichmentConfig, client *http.Client, retry resilience.RetryConfig, limiter *ratelimit.Limiter) *Enricher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Enricher{cfg: cfg, client: client, retry: retry, limiter: limiter, domain: models.HostOf(cfg.Endpoint)}
}

// modelFor selects model_ORO/PLATA/BRONCE by source tier (spec §4.6).
func (e *Enricher) modelFor(tier models.Tier) string {
	switch tier {
	case models.TierGold:
		return e.cfg.ModelOro
	case models.TierSilver:
		return e.cfg.ModelPlata
	default:
		return e.cfg.ModelBronce
	}
}

// Enrich batches events (grouped by the caller per source tier) and returns
// a map from the caller's id to the model's Enrichment. Missing ids mean the
// model failed or returned malformed output for that event; the caller must
// tolerate gaps.
func (e *Enricher) Enrich(ctx context.Context, tier models.Tier, events []*models.Event) map[string]*models.Enrichment {
	out := make(map[string]*models.Enrichment, len(events))
	batchSize := e.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 10
	}

	for start := 0; start < len(events); start += batchSize {
		end := start + batchSize
		if end > len(events) {
			end = len(events)
		}
		batch := events[start:end]
		res, err := e.enrichBatch(ctx, tier, batch)
		if err != nil {
			if len(batch) > 1 {
				// Split and retry individually so one malformed event does
				// not sink the whole batch (spec §4.6: "on response
				// truncation the batch is split and retried").
				for _, ev := range batch {
					if r, err := e.enrichBatch(ctx, tier, []*models.Event{ev}); err == nil {
						for _, v := range r {
							out[v.EventKey] = v
						}
					}
				}
			}
			continue
		}
		for _, v := range res {
			out[v.EventKey] = v
		}
	}
	return out
}

func (e *Enricher) enrichBatch(ctx context.Context, tier models.Tier, batch []*models.Event) (map[string]*models.Enrichment, error) {
	items := make([]item, len(batch))
	for i, ev := range batch {
		items[i] = item{
			ID:          fmt.Sprintf("%d", i),
			Title:       truncate(ev.Title, e.charBudgetPerField()),
			Description: truncate(ev.Description, e.charBudgetPerField()),
			Venue:       ev.VenueName,
			Location:    ev.City,
			PriceInfo:   ev.PriceInfo,
		}
	}

	prompt, err := buildPrompt(items)
	if err != nil {
		return nil, err
	}

	var raw string
	callErr := resilience.Do(ctx, e.retry, func(ctx context.Context) error {
		resp, err := e.call(ctx, e.modelFor(tier), prompt)
		if err != nil {
			return err
		}
		raw = resp
		return nil
	})
	if callErr != nil {
		return nil, callErr
	}

	cleaned := stripCodeFence(raw)
	var entries map[string]resultEntry
	if err := json.Unmarshal([]byte(cleaned), &entries); err != nil {
		return nil, models.NewContentError("enrich", "", fmt.Errorf("malformed enrichment response: %w", err))
	}

	out := make(map[string]*models.Enrichment, len(entries))
	for id, entry := range entries {
		idx := 0
		if _, err := fmt.Sscanf(id, "%d", &idx); err != nil || idx < 0 || idx >= len(batch) {
			continue
		}
		enr := &models.Enrichment{
			EventKey:       batch[idx].ExternalID,
			Summary:        entry.Summary,
			CategorySlugs:  entry.CategorySlugs,
			PriceDetails:   entry.PriceDetails,
			ImageKeywords:  capKeywords(entry.ImageKeywords, 3),
			NormalizedText: entry.NormalizedText,
			Price:          entry.Price,
		}
		if entry.IsFree != nil {
			if *entry.IsFree {
				enr.IsFree = models.True
			} else {
				enr.IsFree = models.False
			}
		}
		out[id] = enr
	}
	return out, nil
}

func (e *Enricher) charBudgetPerField() int {
	if e.cfg.CharBudget <= 0 {
		return 600
	}
	return e.cfg.CharBudget
}

func (e *Enricher) call(ctx context.Context, model, prompt string) (string, error) {
	reqBody := chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", models.NewConfigError("enrich", "", fmt.Errorf("encode request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", models.NewConfigError("enrich", "", fmt.Errorf("build request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if e.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+e.cfg.APIKey)
	}

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx, e.domain); err != nil {
			return "", err
		}
	}

	resp, err := e.client.Do(httpReq)
	if err != nil {
		if e.limiter != nil {
			e.limiter.ReportFailure(e.domain)
		}
		return "", models.NewTransportError("enrich", "", fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		if e.limiter != nil {
			e.limiter.ReportFailure(e.domain)
		}
		if resp.StatusCode >= 500 {
			return "", models.NewRemoteServerError("enrich", "", fmt.Errorf("status %d", resp.StatusCode))
		}
		return "", models.NewRateLimitError("enrich", "", fmt.Errorf("status %d", resp.StatusCode))
	}
	if resp.StatusCode >= 400 {
		return "", models.NewRemoteServerError("enrich", "", fmt.Errorf("status %d", resp.StatusCode))
	}

	if e.limiter != nil {
		e.limiter.ReportSuccess(e.domain)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", models.NewContentError("enrich", "", fmt.Errorf("decode response: %w", err))
	}
	if len(parsed.Choices) == 0 {
		return "", models.NewContentError("enrich", "", fmt.Errorf("empty choices"))
	}
	return parsed.Choices[0].Message.Content, nil
}

func buildPrompt(items []item) (string, error) {
	payload, err := json.Marshal(items)
	if err != nil {
		return "", models.NewConfigError("enrich", "", fmt.Errorf("encode items: %w", err))
	}
	return fmt.Sprintf(enrichmentPromptTemplate, string(payload)), nil
}

const enrichmentPromptTemplate = `Analiza estos eventos culturales y devuelve SOLO un JSON (sin explicaciones)
que mapee el indice de cada evento (como texto, ej. "0") a un objeto con:
summary, category_slugs (lista), is_free (bool o null), price (numero o null),
price_details, image_keywords (hasta 3 frases nominales en ingles), normalized_text.

EVENTOS:
%s`

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n]
}

func capKeywords(kw []string, n int) []string {
	if len(kw) <= n {
		return kw
	}
	return kw[:n]
}
