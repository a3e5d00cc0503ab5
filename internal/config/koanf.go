// Agenda Cultural Ingestor
// Copyright 2026 Agenda Cultural contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agendacultural/ingestor

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched, in
// order of priority. The first file found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/ingestor/config.yaml",
	"/etc/ingestor/config.yml",
}

// ConfigPathEnvVar overrides the config file search with an explicit path.
const ConfigPathEnvVar = "INGESTOR_CONFIG"

// defaultConfig returns a Config with every numeric default spec.md names
// explicitly (rate-limiter §4.2, retry §5, timeouts §5).
func defaultConfig() *Config {
	return &Config{
		RateLimit: RateLimitConfig{
			BaseSeconds:   2,
			Multiplier:    2,
			MaxSeconds:    60,
			JitterSeconds: 2,
			MaxLevel:      5,
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialMS:   1000,
			Base:        2,
			MaxMS:       30000,
			JitterMS:    1000,
		},
		Timeouts: TimeoutConfig{
			Default:      30 * time.Second,
			RenderedPage: 60 * time.Second,
			BatchEnrich:  90 * time.Second,
		},
		Enrichment: EnrichmentConfig{
			ModelOro:    "model-oro",
			ModelPlata:  "model-plata",
			ModelBronce: "model-bronce",
			FilterModel: "model-filter",
			BatchSize:   10,
			CharBudget:  6000,
		},
		Embedding: EmbeddingConfig{
			Dimension: 1024,
		},
		Image: ImageConfig{
			TopNCandidates: 5,
			DedupCachePath: "/data/ingestor/image-dedup",
		},
		Geocoder: GeocoderConfig{
			UserAgent:   "agendacultural-ingestor/1.0 (contact: ops@agendacultural.example)",
			CountryCode: "es",
			MinInterval: 1100 * time.Millisecond,
			CachePath:   "/data/ingestor/geocode-cache.json",
		},
		Persistence: PersistenceConfig{
			Path: "/data/ingestor/events.duckdb",
		},
		Logging: LoggingConfig{
			Level:     "info",
			Format:    "console",
			Caller:    false,
			Timestamp: true,
		},
		Classifier: ClassifierConfig{
			Threshold:          0.55,
			TopK:               3,
			VocabularyVersion:  "v1",
			EmbeddingCachePath: "/data/ingestor/category-embeddings.json",
		},
		Dedup: DedupConfig{
			TitleSimilarityThreshold:     0.85,
			VenueSimilarityThreshold:     0.70,
			TitleOnlySimilarityThreshold: 0.95,
			MinImprovement:               5,
		},
	}
}

// Load builds the final Config by layering defaults, then an optional YAML
// file, then environment variables, matching the teacher's koanf
// provider-chaining order.
func Load() (*Config, error) {
	k := koanf.New(".")

	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// Map each environment name onto the loaded key it spells, so keys that
	// themselves contain underscores (enrichment.api_key) stay reachable.
	known := make(map[string]string)
	for _, key := range k.Keys() {
		known[strings.ReplaceAll(key, ".", "_")] = key
	}
	envProvider := env.Provider("INGESTOR_", ".", func(s string) string {
		if key, ok := known[strings.ToLower(strings.TrimPrefix(s, "INGESTOR_"))]; ok {
			return key
		}
		return envTransformFunc(s)
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}
	return cfg, nil
}

// envTransformFunc maps INGESTOR_LOGGING_LEVEL -> logging.level by turning
// every underscore into a dot. Load uses it for names that match no loaded
// key.
func envTransformFunc(s string) string {
	s = strings.TrimPrefix(s, "INGESTOR_")
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, "_", ".")
}

// findConfigFile searches ConfigPathEnvVar then DefaultConfigPaths.
func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
