// Agenda Cultural Ingestor
// Copyright 2026 Agenda Cultural contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agendacultural/ingestor

package fetch

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/goccy/go-json"

	"github.com/agendacultural/ingestor/internal/logging"
	"github.com/agendacultural/ingestor/internal/models"
	"github.com/agendacultural/ingestor/internal/resilience"
)

// renderRequest is the contract §6 names for the rendering service.
type renderRequest struct {
	URL      string            `json:"url"`
	Formats  []string          `json:"formats"`
	WaitFor  string            `json:"wait_for,omitempty"`
	TimeoutS int               `json:"timeout"`
	Headers  map[string]string `json:"headers,omitempty"`
	Actions  []renderAction    `json:"actions,omitempty"`
}

// renderAction models one of {click, wait, scroll, type, keypress}.
type renderAction struct {
	Type     string `json:"type"`
	Selector string `json:"selector,omitempty"`
	Value    string `json:"value,omitempty"`
}

type renderResponse struct {
	HTML     string `json:"html"`
	Markdown string `json:"markdown"`
}

// BronzeAdapter retrieves listing pages through the headless-render
// collaborator and extracts cards by CSS selector (spec §4.3 BRONZE).
type BronzeAdapter struct {
	deps Deps
}

// NewBronzeAdapter constructs a BronzeAdapter.
func NewBronzeAdapter(deps Deps) *BronzeAdapter { return &BronzeAdapter{deps: deps} }

// Fetch implements Adapter.
func (a *BronzeAdapter) Fetch(ctx context.Context, cfg *models.SourceConfig, maxPages int) ([]Raw, error) {
	if cfg.Bronze == nil {
		return nil, models.NewConfigError("fetch.bronze", cfg.Slug, fmt.Errorf("source %s has no bronze config", cfg.Slug))
	}
	b := cfg.Bronze

	pages := b.MaxPages
	if maxPages > 0 && (pages <= 0 || maxPages < pages) {
		pages = maxPages
	}
	if pages <= 0 {
		pages = 1
	}

	var all []Raw
	for p := 1; p <= pages; p++ {
		listingURL := b.ListingURL
		if p > 1 {
			sep := "?"
			if strings.Contains(listingURL, "?") {
				sep = "&"
			}
			listingURL = fmt.Sprintf("%s%spage=%d", listingURL, sep, p)
		}

		html, err := a.render(ctx, cfg, listingURL)
		if err != nil {
			// A listing failure is fatal for the page (spec §4.3).
			return nil, err
		}

		cards, err := extractCards(html, b.ListingCardSelector, b.FieldSelectors)
		if err != nil {
			return nil, models.NewContentError("fetch.bronze", cfg.Slug, err)
		}
		if len(cards) == 0 {
			break
		}

		if b.DetailFetch {
			for i := range cards {
				if link, ok := cards[i]["external_url"].(string); ok && link != "" {
					detailHTML, derr := a.render(ctx, cfg, link)
					if derr != nil {
						// A single item's render failure is logged and
						// skipped, not fatal for the page (spec §4.3).
						logging.Logger().Warn().Str("source_slug", cfg.Slug).Str("url", link).Err(derr).Msg("bronze detail render failed")
						continue
					}
					cards[i]["detail_html"] = detailHTML
				}
			}
		}

		all = append(all, cards...)
	}

	return all, nil
}

func (a *BronzeAdapter) render(ctx context.Context, cfg *models.SourceConfig, targetURL string) (string, error) {
	b := cfg.Bronze
	domain := cfg.Domain()

	reqBody := renderRequest{
		URL:      targetURL,
		Formats:  []string{"html"},
		WaitFor:  b.WaitForSelector,
		TimeoutS: int(a.deps.Render.Timeout.Seconds()),
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", models.NewConfigError("fetch.bronze.render", cfg.Slug, err)
	}

	var rendered renderResponse
	err = resilience.Do(ctx, a.deps.Retry, func(ctx context.Context) error {
		if err := a.deps.Limiter.Wait(ctx, domain); err != nil {
			return err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.deps.Render.Endpoint, bytes.NewReader(payload))
		if err != nil {
			return models.NewConfigError("fetch.bronze.render", cfg.Slug, err)
		}
		req.Header.Set("Content-Type", "application/json")
		if a.deps.Render.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+a.deps.Render.APIKey)
		}

		resp, err := a.deps.Client.Do(req)
		if err != nil {
			a.deps.Limiter.ReportFailure(domain)
			return models.NewTransportError("fetch.bronze.render", cfg.Slug, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusForbidden {
			a.deps.Limiter.ReportFailure(domain)
			return models.NewRateLimitError("fetch.bronze.render", cfg.Slug, fmt.Errorf("status %d", resp.StatusCode))
		}
		if resp.StatusCode >= 500 {
			a.deps.Limiter.ReportFailure(domain)
			return models.NewRemoteServerError("fetch.bronze.render", cfg.Slug, fmt.Errorf("status %d", resp.StatusCode))
		}
		if resp.StatusCode >= 400 {
			return models.NewConfigError("fetch.bronze.render", cfg.Slug, fmt.Errorf("fatal status %d", resp.StatusCode))
		}
		a.deps.Limiter.ReportSuccess(domain)

		if decErr := json.NewDecoder(resp.Body).Decode(&rendered); decErr != nil {
			return models.NewContentError("fetch.bronze.render", cfg.Slug, decErr)
		}

		minLen := b.MinContentLength
		if minLen <= 0 {
			minLen = 200
		}
		if len(rendered.HTML) < minLen {
			// Partial-content render: retryable, not terminal (DESIGN.md
			// open-question resolution for Bronze partial content).
			return models.NewRetryableContentError("fetch.bronze.render", cfg.Slug, fmt.Errorf("rendered content too short (%d bytes)", len(rendered.HTML)))
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return rendered.HTML, nil
}

// extractCards parses html, selects listing cards by cardSelector, and
// extracts each configured field by its CSS selector relative to the card.
func extractCards(html, cardSelector string, selectors models.FieldMapping) ([]Raw, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var cards []Raw
	doc.Find(cardSelector).Each(func(_ int, s *goquery.Selection) {
		r := Raw{}
		for field, sel := range selectors {
			target := s
			if sel != "" {
				target = s.Find(sel)
			}
			if href, ok := target.Attr("href"); ok && strings.HasSuffix(field, "_url") {
				r[field] = href
				continue
			}
			if src, ok := target.Attr("src"); ok && strings.Contains(field, "image") {
				r[field] = src
				continue
			}
			r[field] = strings.TrimSpace(target.Text())
		}
		cards = append(cards, r)
	})
	return cards, nil
}
