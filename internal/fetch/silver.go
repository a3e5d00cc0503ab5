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

	ics "github.com/arran4/golang-ical"
	"github.com/mmcdole/gofeed"

	"github.com/agendacultural/ingestor/internal/logging"
	"github.com/agendacultural/ingestor/internal/models"
	"github.com/agendacultural/ingestor/internal/resilience"
)

// SilverAdapter retrieves RSS/Atom/iCal feeds (spec §4.3 SILVER).
type SilverAdapter struct {
	deps   Deps
	parser *gofeed.Parser
}

// NewSilverAdapter constructs a SilverAdapter.
func NewSilverAdapter(deps Deps) *SilverAdapter {
	fp := gofeed.NewParser()
	fp.Client = deps.Client
	return &SilverAdapter{deps: deps, parser: fp}
}

// Fetch implements Adapter. maxPages is ignored: feeds are not paginated
// by the spec's contract, one fetch returns every entry in the feed.
func (a *SilverAdapter) Fetch(ctx context.Context, cfg *models.SourceConfig, maxPages int) ([]Raw, error) {
	if cfg.Silver == nil {
		return nil, models.NewConfigError("fetch.silver", cfg.Slug, fmt.Errorf("source %s has no silver config", cfg.Slug))
	}
	s := cfg.Silver
	domain := cfg.Domain()

	var body []byte
	err := resilience.Do(ctx, a.deps.Retry, func(ctx context.Context) error {
		if err := a.deps.Limiter.Wait(ctx, domain); err != nil {
			return err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.FeedURL, http.NoBody)
		if err != nil {
			return models.NewConfigError("fetch.silver", cfg.Slug, err)
		}
		resp, err := a.deps.Client.Do(req)
		if err != nil {
			a.deps.Limiter.ReportFailure(domain)
			return models.NewTransportError("fetch.silver", cfg.Slug, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusForbidden {
			a.deps.Limiter.ReportFailure(domain)
			return models.NewRateLimitError("fetch.silver", cfg.Slug, fmt.Errorf("status %d", resp.StatusCode))
		}
		if resp.StatusCode >= 500 {
			a.deps.Limiter.ReportFailure(domain)
			return models.NewRemoteServerError("fetch.silver", cfg.Slug, fmt.Errorf("status %d", resp.StatusCode))
		}
		if resp.StatusCode >= 400 {
			return models.NewConfigError("fetch.silver", cfg.Slug, fmt.Errorf("fatal status %d", resp.StatusCode))
		}
		a.deps.Limiter.ReportSuccess(domain)

		buf, err := readAll(resp)
		if err != nil {
			return models.NewTransportError("fetch.silver", cfg.Slug, err)
		}
		body = buf
		return nil
	})
	if err != nil {
		return nil, err
	}

	switch s.FeedType {
	case models.FeedICal:
		return a.parseICal(cfg, body)
	default:
		return a.parseRSSAtom(cfg, body)
	}
}

func (a *SilverAdapter) parseRSSAtom(cfg *models.SourceConfig, body []byte) ([]Raw, error) {
	feed, err := a.parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, models.NewContentError("fetch.silver", cfg.Slug, fmt.Errorf("parse feed: %w", err))
	}

	out := make([]Raw, 0, len(feed.Items))
	domain := cfg.Domain()
	for _, item := range feed.Items {
		r := Raw{
			"title":       item.Title,
			"description": item.Description,
			"link":        item.Link,
			"guid":        item.GUID,
		}
		if item.PublishedParsed != nil {
			r["published"] = item.PublishedParsed.Format("2006-01-02T15:04:05Z07:00")
		}
		if item.Image != nil {
			r["image_url"] = item.Image.URL
		}
		if cfg.Silver.DetailFetch && item.Link != "" {
			if html, err := a.fetchDetail(context.Background(), cfg, domain, item.Link); err == nil {
				r["detail_html"] = html
			} else {
				logging.Logger().Warn().Str("source_slug", cfg.Slug).Str("url", item.Link).Err(err).Msg("silver detail fetch failed")
			}
		}
		out = append(out, r)
	}
	return out, nil
}

// fetchDetail retrieves one item's listing page for sources whose feed
// entries only summarize the event (spec §4.3 SILVER detail-fetch flag).
// A failure here is logged by the caller and the entry proceeds without
// the detail page rather than aborting the whole feed.
func (a *SilverAdapter) fetchDetail(ctx context.Context, cfg *models.SourceConfig, domain, link string) (string, error) {
	var body []byte
	err := resilience.Do(ctx, a.deps.Retry, func(ctx context.Context) error {
		if err := a.deps.Limiter.Wait(ctx, domain); err != nil {
			return err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, http.NoBody)
		if err != nil {
			return models.NewConfigError("fetch.silver.detail", cfg.Slug, err)
		}
		resp, err := a.deps.Client.Do(req)
		if err != nil {
			a.deps.Limiter.ReportFailure(domain)
			return models.NewTransportError("fetch.silver.detail", cfg.Slug, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 500 {
			a.deps.Limiter.ReportFailure(domain)
			return models.NewRemoteServerError("fetch.silver.detail", cfg.Slug, fmt.Errorf("status %d", resp.StatusCode))
		}
		a.deps.Limiter.ReportSuccess(domain)
		buf, err := readAll(resp)
		if err != nil {
			return models.NewTransportError("fetch.silver.detail", cfg.Slug, err)
		}
		body = buf
		return nil
	})
	return string(body), err
}

func (a *SilverAdapter) parseICal(cfg *models.SourceConfig, body []byte) ([]Raw, error) {
	cal, err := ics.ParseCalendar(strings.NewReader(string(body)))
	if err != nil {
		return nil, models.NewContentError("fetch.silver", cfg.Slug, fmt.Errorf("parse ical: %w", err))
	}

	out := make([]Raw, 0, len(cal.Events()))
	for _, ev := range cal.Events() {
		r := Raw{}
		if p := ev.GetProperty(ics.ComponentPropertySummary); p != nil {
			r["title"] = p.Value
		}
		if p := ev.GetProperty(ics.ComponentPropertyDescription); p != nil {
			r["description"] = p.Value
		}
		if p := ev.GetProperty(ics.ComponentPropertyLocation); p != nil {
			r["venue_name"] = p.Value
		}
		if p := ev.GetProperty(ics.ComponentPropertyDtStart); p != nil {
			r["start"] = p.Value
		}
		if p := ev.GetProperty(ics.ComponentPropertyDtEnd); p != nil {
			r["end"] = p.Value
		}
		if p := ev.GetProperty(ics.ComponentPropertyUid); p != nil {
			r["uid"] = p.Value
		}
		out = append(out, r)
	}
	return out, nil
}
