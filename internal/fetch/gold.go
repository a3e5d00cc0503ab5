// Agenda Cultural Ingestor
// Copyright 2026 Agenda Cultural contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agendacultural/ingestor

package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/agendacultural/ingestor/internal/logging"
	"github.com/agendacultural/ingestor/internal/models"
	"github.com/agendacultural/ingestor/internal/resilience"
)

// GoldAdapter retrieves paginated JSON API sources (spec §4.3 GOLD).
type GoldAdapter struct {
	deps Deps
}

// NewGoldAdapter constructs a GoldAdapter.
func NewGoldAdapter(deps Deps) *GoldAdapter { return &GoldAdapter{deps: deps} }

// Fetch implements Adapter.
func (a *GoldAdapter) Fetch(ctx context.Context, cfg *models.SourceConfig, maxPages int) ([]Raw, error) {
	if cfg.Gold == nil {
		return nil, models.NewConfigError("fetch.gold", cfg.Slug, fmt.Errorf("source %s has no gold config", cfg.Slug))
	}
	g := cfg.Gold
	domain := cfg.Domain()

	var all []Raw
	switch g.Pagination {
	case models.PaginationNone:
		page, err := a.fetchOnce(ctx, cfg, domain, url.Values{})
		if err != nil {
			return nil, err
		}
		all = append(all, page...)

	case models.PaginationOffsetLimit, models.PaginationSocrata:
		offsetParam := firstNonEmpty(g.OffsetParam, "offset")
		limitParam := firstNonEmpty(g.LimitParam, "limit")
		if g.Pagination == models.PaginationSocrata {
			offsetParam = firstNonEmpty(g.OffsetParam, "$offset")
			limitParam = firstNonEmpty(g.LimitParam, "$limit")
		}
		pageSize := g.PageSize
		if pageSize <= 0 {
			pageSize = 50
		}
		for p := 0; maxPages <= 0 || p < maxPages; p++ {
			q := url.Values{}
			q.Set(offsetParam, strconv.Itoa(p*pageSize))
			q.Set(limitParam, strconv.Itoa(pageSize))
			page, err := a.fetchOnce(ctx, cfg, domain, q)
			if err != nil {
				return nil, err
			}
			all = append(all, page...)
			if len(page) < pageSize {
				break
			}
		}

	case models.PaginationPageNumber:
		pageParam := firstNonEmpty(g.PageParam, "page")
		for p := 1; maxPages <= 0 || p <= maxPages; p++ {
			q := url.Values{}
			q.Set(pageParam, strconv.Itoa(p))
			page, err := a.fetchOnce(ctx, cfg, domain, q)
			if err != nil {
				return nil, err
			}
			if len(page) == 0 {
				break
			}
			all = append(all, page...)
		}

	default:
		return nil, models.NewConfigError("fetch.gold", cfg.Slug, fmt.Errorf("unknown pagination scheme %q", g.Pagination))
	}

	return all, nil
}

func (a *GoldAdapter) fetchOnce(ctx context.Context, cfg *models.SourceConfig, domain string, q url.Values) ([]Raw, error) {
	g := cfg.Gold
	var body []byte

	err := resilience.Do(ctx, a.deps.Retry, func(ctx context.Context) error {
		if err := a.deps.Limiter.Wait(ctx, domain); err != nil {
			return err
		}

		reqURL := g.Endpoint
		if len(q) > 0 {
			sep := "?"
			if strings.Contains(reqURL, "?") {
				sep = "&"
			}
			reqURL = reqURL + sep + q.Encode()
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
		if err != nil {
			return models.NewConfigError("fetch.gold", cfg.Slug, err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := a.deps.Client.Do(req)
		if err != nil {
			a.deps.Limiter.ReportFailure(domain)
			return models.NewTransportError("fetch.gold", cfg.Slug, err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusForbidden:
			a.deps.Limiter.ReportFailure(domain)
			return models.NewRateLimitError("fetch.gold", cfg.Slug, fmt.Errorf("status %d", resp.StatusCode))
		case resp.StatusCode >= 500:
			a.deps.Limiter.ReportFailure(domain)
			return models.NewRemoteServerError("fetch.gold", cfg.Slug, fmt.Errorf("status %d", resp.StatusCode))
		case resp.StatusCode >= 400:
			return models.NewConfigError("fetch.gold", cfg.Slug, fmt.Errorf("fatal status %d", resp.StatusCode))
		}

		a.deps.Limiter.ReportSuccess(domain)

		buf, err := readAll(resp)
		if err != nil {
			return models.NewTransportError("fetch.gold", cfg.Slug, err)
		}
		body = buf
		return nil
	})
	if err != nil {
		return nil, err
	}

	items, err := extractItems(body, g.ItemsPath)
	if err != nil {
		logging.Logger().Warn().Str("source_slug", cfg.Slug).Err(err).Msg("gold response parse failed")
		return nil, models.NewContentError("fetch.gold", cfg.Slug, err)
	}
	return items, nil
}

// extractItems pulls the array at itemsPath out of a JSON body. itemsPath is
// a JSON pointer ("/data/items"); a path without a leading slash is read as
// dotted ("data.items"). An empty path means the body root is the array.
func extractItems(body []byte, itemsPath string) ([]Raw, error) {
	var root any
	if err := json.Unmarshal(body, &root); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}

	node := root
	if itemsPath != "" {
		parts := strings.Split(itemsPath, ".")
		if strings.HasPrefix(itemsPath, "/") {
			parts = strings.Split(itemsPath[1:], "/")
			for i, p := range parts {
				parts[i] = strings.ReplaceAll(strings.ReplaceAll(p, "~1", "/"), "~0", "~")
			}
		}
		for _, part := range parts {
			m, ok := node.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("items_path %q: not an object at %q", itemsPath, part)
			}
			node = m[part]
		}
	}

	arr, ok := node.([]any)
	if !ok {
		return nil, fmt.Errorf("items_path %q did not resolve to an array", itemsPath)
	}

	out := make([]Raw, 0, len(arr))
	for _, el := range arr {
		m, ok := el.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, Raw(m))
	}
	return out, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
