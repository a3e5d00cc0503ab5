// Agenda Cultural Ingestor
// Copyright 2026 Agenda Cultural contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agendacultural/ingestor

package image

import (
	"context"
	"math/rand"

	"github.com/agendacultural/ingestor/internal/config"
	"github.com/agendacultural/ingestor/internal/ratelimit"
)

// Resolver runs the source→primary→secondary→curated cascade and applies
// the dedup cache (spec §4.8).
type Resolver struct {
	cfg       config.ImageConfig
	primary   *providerClient
	secondary *providerClient
	cache     *DedupCache
	rng       *rand.Rand
}

// NewResolver constructs a Resolver. Every provider search is gated through
// limiter, keyed on that provider's configured host (spec §4.2/§5).
func NewResolver(cfg config.ImageConfig, cache *DedupCache, limiter *ratelimit.Limiter) *Resolver {
	return &Resolver{
		cfg:       cfg,
		primary:   newProviderClient(cfg.Primary, nil, limiter),
		secondary: newProviderClient(cfg.Secondary, nil, limiter),
		cache:     cache,
		rng:       rand.New(rand.NewSource(1)),
	}
}

// Resolve returns the image URL and attribution to assign. When the source
// already supplies an image, it returns that URL with ProviderID "source"
// and makes no provider search.
func (r *Resolver) Resolve(ctx context.Context, sourceImageURL string, keywords []string, primaryCategory string) (Candidate, error) {
	if sourceImageURL != "" {
		return Candidate{URL: sourceImageURL, ProviderID: "source"}, nil
	}

	topN := r.cfg.TopNCandidates
	if topN <= 0 {
		topN = 5
	}

	query := keywordQuery(keywords)
	candidates, err := r.primary.search(ctx, query, topN, "landscape")
	if err != nil {
		candidates = nil
	}
	if len(candidates) == 0 {
		candidates, err = r.secondary.search(ctx, query, topN, "landscape")
		if err != nil {
			candidates = nil
		}
	}
	if len(candidates) == 0 {
		candidates = curatedFor(primaryCategory)
	}
	if len(candidates) == 0 {
		return Candidate{}, nil
	}

	return r.pick(candidates, keywords)
}

// pick selects among the first N candidates, preferring an unused URL;
// every selection marks the chosen URL used (spec §4.8 steps 3-4).
func (r *Resolver) pick(candidates []Candidate, keywords []string) (Candidate, error) {
	topN := r.cfg.TopNCandidates
	if topN <= 0 || topN > len(candidates) {
		topN = len(candidates)
	}
	pool := candidates[:topN]

	keywordKey := KeywordKey(keywords)

	if r.cache != nil {
		unused := make([]Candidate, 0, len(pool))
		for _, c := range pool {
			used, err := r.cache.IsUsed(c.URL)
			if err != nil {
				return Candidate{}, err
			}
			if !used {
				unused = append(unused, c)
			}
		}
		if len(unused) > 0 {
			chosen := unused[r.rng.Intn(len(unused))]
			if err := r.cache.MarkUsed(keywordKey, chosen.URL); err != nil {
				return Candidate{}, err
			}
			return chosen, nil
		}
		// Pool exhausted: reuse a previously returned URL for this
		// keyword key if one exists, otherwise fall through to a random
		// pick from the current pool.
		if prior, err := r.cache.URLsForKeywordKey(keywordKey); err == nil && len(prior) > 0 {
			return Candidate{URL: prior[r.rng.Intn(len(prior))], ProviderID: pool[0].ProviderID}, nil
		}
	}

	chosen := pool[r.rng.Intn(len(pool))]
	if r.cache != nil {
		if err := r.cache.MarkUsed(keywordKey, chosen.URL); err != nil {
			return Candidate{}, err
		}
	}
	return chosen, nil
}

func keywordQuery(keywords []string) string {
	if len(keywords) == 0 {
		return "event"
	}
	q := keywords[0]
	for _, k := range keywords[1:] {
		q += " " + k
	}
	return q
}
