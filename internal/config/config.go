// Agenda Cultural Ingestor
// Copyright 2026 Agenda Cultural contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agendacultural/ingestor

// Package config loads the ingestor's ambient configuration: service
// endpoints for the enrichment/embedding/image/geocoder/render
// collaborators, rate-limiter and retry defaults, and persistence/logging
// settings. Layering order is defaults -> YAML file -> environment
// variables, highest-priority last.
package config

import "time"

// RateLimitConfig mirrors internal/ratelimit.Config with koanf tags.
type RateLimitConfig struct {
	BaseSeconds   float64 `koanf:"base_seconds"`
	Multiplier    float64 `koanf:"multiplier"`
	MaxSeconds    float64 `koanf:"max_seconds"`
	JitterSeconds float64 `koanf:"jitter_seconds"`
	MaxLevel      int     `koanf:"max_level"`
}

// RetryConfig mirrors internal/resilience.RetryConfig with koanf tags.
type RetryConfig struct {
	MaxAttempts int     `koanf:"max_attempts"`
	InitialMS   int     `koanf:"initial_ms"`
	Base        float64 `koanf:"base"`
	MaxMS       int     `koanf:"max_ms"`
	JitterMS    int     `koanf:"jitter_ms"`
}

// TimeoutConfig holds the per-call deadlines spec §5 names.
type TimeoutConfig struct {
	Default      time.Duration `koanf:"default"`
	RenderedPage time.Duration `koanf:"rendered_page"`
	BatchEnrich  time.Duration `koanf:"batch_enrich"`
}

// EnrichmentConfig configures the tiered generative-model endpoint (spec §6).
type EnrichmentConfig struct {
	Endpoint    string `koanf:"endpoint"`
	APIKey      string `koanf:"api_key"`
	ModelOro    string `koanf:"model_oro"`
	ModelPlata  string `koanf:"model_plata"`
	ModelBronce string `koanf:"model_bronce"`
	FilterModel string `koanf:"filter_model"`
	BatchSize   int    `koanf:"batch_size"`
	CharBudget  int    `koanf:"char_budget"`
}

// EmbeddingConfig configures the embedding endpoint (spec §6).
type EmbeddingConfig struct {
	Endpoint  string `koanf:"endpoint"`
	APIKey    string `koanf:"api_key"`
	Dimension int    `koanf:"dimension"`
}

// ImageProviderConfig is one of the two configured image-search providers.
type ImageProviderConfig struct {
	Name     string `koanf:"name"`
	Endpoint string `koanf:"endpoint"`
	APIKey   string `koanf:"api_key"`
}

// ImageConfig configures the image resolver cascade (spec §4.8).
type ImageConfig struct {
	Primary        ImageProviderConfig `koanf:"primary"`
	Secondary      ImageProviderConfig `koanf:"secondary"`
	TopNCandidates int                 `koanf:"top_n_candidates"`
	DedupCachePath string              `koanf:"dedup_cache_path"`
}

// GeocoderConfig configures the Nominatim-compatible endpoint (spec §4.9).
type GeocoderConfig struct {
	Endpoint    string        `koanf:"endpoint"`
	UserAgent   string        `koanf:"user_agent"`
	CountryCode string        `koanf:"country_code"`
	MinInterval time.Duration `koanf:"min_interval"`
	CachePath   string        `koanf:"cache_path"`
}

// RenderConfig configures the headless-rendering collaborator (spec §6).
type RenderConfig struct {
	Endpoint string `koanf:"endpoint"`
	APIKey   string `koanf:"api_key"`
}

// PersistenceConfig configures the embedded-store persister.
type PersistenceConfig struct {
	Path string `koanf:"path"`
}

// LoggingConfig mirrors internal/logging.Config with koanf tags.
type LoggingConfig struct {
	Level     string `koanf:"level"`
	Format    string `koanf:"format"`
	Caller    bool   `koanf:"caller"`
	Timestamp bool   `koanf:"timestamp"`
}

// ClassifierConfig configures the hybrid classifier (spec §4.7).
type ClassifierConfig struct {
	Threshold          float64 `koanf:"threshold"`
	TopK               int     `koanf:"top_k"`
	VocabularyVersion  string  `koanf:"vocabulary_version"`
	EmbeddingCachePath string  `koanf:"embedding_cache_path"`
}

// DedupConfig configures the cross-source deduplicator (spec §4.10).
type DedupConfig struct {
	TitleSimilarityThreshold     float64 `koanf:"title_similarity_threshold"`
	VenueSimilarityThreshold     float64 `koanf:"venue_similarity_threshold"`
	TitleOnlySimilarityThreshold float64 `koanf:"title_only_similarity_threshold"`
	MinImprovement               int     `koanf:"min_improvement"`
}

// PipelineConfig bounds one orchestrator run over a single source: how
// many adapter pages to fetch, and an optional cap on events carried past
// the freshness filter (spec §2's bracketed "[Limit]" stage — zero means
// unlimited).
type PipelineConfig struct {
	MaxPages           int `koanf:"max_pages"`
	MaxEventsPerSource int `koanf:"max_events_per_source"`
}

// Config aggregates the ingestor's ambient configuration.
type Config struct {
	RateLimit   RateLimitConfig   `koanf:"rate_limit"`
	Retry       RetryConfig       `koanf:"retry"`
	Timeouts    TimeoutConfig     `koanf:"timeouts"`
	Enrichment  EnrichmentConfig  `koanf:"enrichment"`
	Embedding   EmbeddingConfig   `koanf:"embedding"`
	Image       ImageConfig       `koanf:"image"`
	Geocoder    GeocoderConfig    `koanf:"geocoder"`
	Render      RenderConfig      `koanf:"render"`
	Persistence PersistenceConfig `koanf:"persistence"`
	Logging     LoggingConfig     `koanf:"logging"`
	Classifier  ClassifierConfig  `koanf:"classifier"`
	Dedup       DedupConfig       `koanf:"dedup"`
	Pipeline    PipelineConfig    `koanf:"pipeline"`
}
