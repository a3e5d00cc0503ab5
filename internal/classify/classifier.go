// Agenda Cultural Ingestor
// Copyright 2026 Agenda Cultural contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agendacultural/ingestor

// Package classify assigns category slugs to events by cosine-similarity
// matching an embedding against a fixed category vocabulary, falling back
// to the enricher's own guess when nothing clears the confidence threshold
// (spec §4.7).
package classify

import (
	"context"
	"sort"

	"github.com/agendacultural/ingestor/internal/config"
	"github.com/agendacultural/ingestor/internal/models"
)

// Classifier holds the reference category embeddings and threshold/top-K
// policy for one vocabulary version.
type Classifier struct {
	cfg        config.ClassifierConfig
	embedder   *Embedder
	cache      *EmbeddingCache
	categories map[string][]float64
}

// New loads (or rebuilds) the category embedding table for cfg's
// vocabulary version and constructs a Classifier.
func New(ctx context.Context, cfg config.ClassifierConfig, embedder *Embedder, vocabulary []string) (*Classifier, error) {
	cache := NewEmbeddingCache(cfg.EmbeddingCachePath)

	if cached, ok := cache.Load(cfg.VocabularyVersion); ok {
		return &Classifier{cfg: cfg, embedder: embedder, cache: cache, categories: cached}, nil
	}

	categories := make(map[string][]float64, len(vocabulary))
	for _, slug := range vocabulary {
		vec, err := embedder.Embed(ctx, slug)
		if err != nil {
			return nil, err
		}
		categories[slug] = vec
	}
	if err := cache.Save(cfg.VocabularyVersion, categories); err != nil {
		return nil, models.NewConfigError("classify", "", err)
	}
	return &Classifier{cfg: cfg, embedder: embedder, cache: cache, categories: categories}, nil
}

type scoredSlug struct {
	slug  string
	score float64
}

// Classify assigns category_slugs to ev. text is the normalized_text from
// enrichment, or title + truncated description when enrichment is absent.
// fallback is the enricher's own category guess, used when nothing clears
// the confidence threshold (spec §4.7 step 4).
func (c *Classifier) Classify(ctx context.Context, text string, fallback []string) (*models.Classification, error) {
	vec, err := c.embedder.Embed(ctx, text)
	if err != nil {
		// Embedding endpoint unreachable: fall back entirely to the
		// enricher's categories (spec S6), never surface an error.
		return fallbackClassification(fallback), nil
	}

	scored := make([]scoredSlug, 0, len(c.categories))
	for slug, ref := range c.categories {
		scored = append(scored, scoredSlug{slug: slug, score: cosineSimilarity(vec, ref)})
	}
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].slug < scored[j].slug
	})

	topK := c.cfg.TopK
	if topK <= 0 {
		topK = 3
	}

	slugs := make([]string, 0, topK)
	scores := make(map[string]float64, topK)
	for _, s := range scored {
		if s.score < c.cfg.Threshold {
			break
		}
		slugs = append(slugs, s.slug)
		scores[s.slug] = s.score
		if len(slugs) >= topK {
			break
		}
	}

	if len(slugs) == 0 {
		return fallbackClassification(fallback), nil
	}
	return &models.Classification{CategorySlugs: slugs, Scores: scores}, nil
}

func fallbackClassification(fallback []string) *models.Classification {
	if len(fallback) == 0 {
		return &models.Classification{CategorySlugs: []string{OtherSlug}, FellBack: true}
	}
	return &models.Classification{CategorySlugs: fallback, FellBack: true}
}

// cosineSimilarity computes cosine similarity between two vectors.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (sqrt(normA) * sqrt(normB))
}

// sqrt returns the square root using Newton's method.
// This avoids importing math for a simple operation.
func sqrt(x float64) float64 {
	if x <= 0 {
		return 0
	}

	z := x
	for i := 0; i < 2000; i++ {
		next := (z + x/z) / 2
		// After the first step the iterates decrease towards the root;
		// stop once they no longer do.
		if i > 0 && next >= z {
			break
		}
		z = next
	}
	return z
}
