// Agenda Cultural Ingestor
// Copyright 2026 Agenda Cultural contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agendacultural/ingestor

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/agendacultural/ingestor/internal/classify"
	"github.com/agendacultural/ingestor/internal/config"
	"github.com/agendacultural/ingestor/internal/dedup"
	"github.com/agendacultural/ingestor/internal/enrich"
	"github.com/agendacultural/ingestor/internal/fetch"
	"github.com/agendacultural/ingestor/internal/geocode"
	"github.com/agendacultural/ingestor/internal/image"
	"github.com/agendacultural/ingestor/internal/logging"
	"github.com/agendacultural/ingestor/internal/models"
	"github.com/agendacultural/ingestor/internal/parse"
	"github.com/agendacultural/ingestor/internal/persist"
	"github.com/agendacultural/ingestor/internal/pipeline"
	"github.com/agendacultural/ingestor/internal/ratelimit"
	"github.com/agendacultural/ingestor/internal/registry"
	"github.com/agendacultural/ingestor/internal/resilience"
)

var (
	insertSource         string
	insertTier           string
	insertRegion         string
	insertLimit          int
	insertDryRun         bool
	insertUpsert         bool
	insertSkipEnrichment bool
	insertSkipImages     bool
)

var insertCmd = &cobra.Command{
	Use:   "insert",
	Short: "Fetch, enrich, and persist events from one or more catalog sources",
	RunE:  runInsert,
}

func init() {
	insertCmd.Flags().StringVar(&insertSource, "source", "", "a single source slug to ingest (mutually exclusive with --tier)")
	insertCmd.Flags().StringVar(&insertTier, "tier", "", "ingest every active source of this tier (mutually exclusive with --source)")
	insertCmd.Flags().StringVar(&insertRegion, "region", "", "restrict the selected sources to this region")
	insertCmd.Flags().IntVar(&insertLimit, "limit", 0, "cap events carried past the freshness filter per source (0 = unlimited)")
	insertCmd.Flags().BoolVar(&insertDryRun, "dry-run", false, "run the pipeline without writing to the store")
	insertCmd.Flags().BoolVar(&insertUpsert, "upsert", false, "update matching existing rows instead of skipping them")
	insertCmd.Flags().BoolVar(&insertSkipEnrichment, "skip-enrichment", false, "skip the enrichment and classification stages")
	insertCmd.Flags().BoolVar(&insertSkipImages, "skip-images", false, "skip image resolution")
}

func runInsert(cmd *cobra.Command, args []string) error {
	if insertSource != "" && insertTier != "" {
		return misuseError("--source and --tier are mutually exclusive")
	}

	cfg, err := config.Load()
	if err != nil {
		return internalError(fmt.Errorf("load config: %w", err))
	}
	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: cfg.Logging.Timestamp,
		Output:    os.Stderr,
	})

	reg, err := registry.LoadFromFile(catalogPath)
	if err != nil {
		return internalError(fmt.Errorf("load source catalog: %w", err))
	}

	var sources []*models.SourceConfig
	if insertSource != "" {
		cfgSrc, ok := reg.Get(insertSource)
		if !ok {
			return misuseError("unknown source %q", insertSource)
		}
		sources = []*models.SourceConfig{cfgSrc}
	} else {
		tier := insertTier
		if tier != "" {
			switch models.Tier(tier) {
			case models.TierGold, models.TierSilver, models.TierBronze:
			default:
				return misuseError("unknown tier %q", tier)
			}
		}
		sources = selectSources(reg, "", tier, insertRegion)
		if tier != "" {
			active := sources[:0]
			for _, s := range sources {
				if s.IsActive {
					active = append(active, s)
				}
			}
			sources = active
		}
	}
	if insertRegion != "" && insertSource != "" {
		sources = filterByRegion(sources, insertRegion)
	}
	if len(sources) == 0 {
		return misuseError("no sources matched the given selection")
	}

	if insertLimit > 0 {
		cfg.Pipeline.MaxEventsPerSource = insertLimit
	}

	orch, closeStore, err := buildOrchestrator(cfg)
	if err != nil {
		return internalError(err)
	}
	defer closeStore()

	opts := pipeline.RunOptions{
		DryRun:         insertDryRun,
		SkipExisting:   !insertUpsert,
		SkipEnrichment: insertSkipEnrichment,
		SkipImages:     insertSkipImages,
	}

	anySucceeded := false
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	for _, src := range sources {
		result := orch.Run(ctx, src, opts)
		printResult(cmd, result)
		if result.Success {
			anySucceeded = true
		}
	}
	if !anySucceeded {
		return internalError(fmt.Errorf("every selected source failed"))
	}
	return nil
}

func printResult(cmd *cobra.Command, r models.PipelineResult) {
	w := cmd.OutOrStdout()
	status := "ok"
	if !r.Success {
		status = "FAILED: " + r.Error
	}
	fmt.Fprintf(w, "%-28s raw=%-4d parsed=%-4d inserted=%-4d updated=%-4d skipped=%-4d failed=%-4d images=%-4d %-6s %s\n",
		r.SourceSlug, r.RawCount, r.ParsedCount, r.Inserted, r.Updated, r.Skipped, r.Failed, r.ImagesResolved, r.Duration.Round(time.Millisecond), status)
}

// buildOrchestrator wires every pipeline collaborator from cfg, grounded on
// the same construction order internal/pipeline.New expects: fetch deps,
// parser, enricher, classifier, images, geocoder, deduplicator, store.
func buildOrchestrator(cfg *config.Config) (*pipeline.Orchestrator, func(), error) {
	httpClient := &http.Client{Timeout: cfg.Timeouts.Default}
	limiter := ratelimit.New(toRatelimitConfig(cfg.RateLimit))
	retry := toRetryConfig(cfg.Retry)

	fetchDeps := fetch.Deps{
		Client:         httpClient,
		Limiter:        limiter,
		Retry:          retry,
		DefaultTimeout: cfg.Timeouts.Default,
		Render: fetch.RenderConfig{
			Endpoint: cfg.Render.Endpoint,
			APIKey:   cfg.Render.APIKey,
			Timeout:  cfg.Timeouts.RenderedPage,
		},
	}

	store, err := persist.Open(cfg.Persistence)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	closeStore := func() {
		if cerr := store.Close(); cerr != nil {
			logging.Warn().Err(cerr).Msg("store close failed")
		}
	}

	var enricher *enrich.Enricher
	var classifier *classify.Classifier
	var imageResolver *image.Resolver
	if !insertSkipEnrichment {
		enricher = enrich.New(cfg.Enrichment, httpClient, retry, limiter)
		embedder := classify.NewEmbedder(cfg.Embedding, httpClient)
		classifier, err = classify.New(context.Background(), cfg.Classifier, embedder, classify.DefaultVocabulary)
		if err != nil {
			closeStore()
			return nil, nil, fmt.Errorf("build classifier: %w", err)
		}
	}
	if !insertSkipImages {
		dedupCache, derr := image.OpenDedupCache(cfg.Image.DedupCachePath)
		if derr != nil {
			closeStore()
			return nil, nil, fmt.Errorf("open image dedup cache: %w", derr)
		}
		imageResolver = image.NewResolver(cfg.Image, dedupCache, limiter)
	}

	ccaa := geocode.NewCCAARegistry(geocode.DefaultMunicipioRegions, geocode.DefaultProvinciaRegions)
	geocoder := geocode.New(cfg.Geocoder, httpClient, ccaa)

	deduplicator := dedup.New(cfg.Dedup)

	orch := pipeline.New(fetchDeps, parse.New(), enricher, classifier, imageResolver, geocoder, deduplicator, store, cfg.Pipeline)
	return orch, closeStore, nil
}

func toRetryConfig(c config.RetryConfig) resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts: c.MaxAttempts,
		Initial:     time.Duration(c.InitialMS) * time.Millisecond,
		Base:        c.Base,
		Max:         time.Duration(c.MaxMS) * time.Millisecond,
		Jitter:      time.Duration(c.JitterMS) * time.Millisecond,
	}
}

func toRatelimitConfig(c config.RateLimitConfig) ratelimit.Config {
	return ratelimit.Config{
		Base:       time.Duration(c.BaseSeconds * float64(time.Second)),
		Multiplier: c.Multiplier,
		Max:        time.Duration(c.MaxSeconds * float64(time.Second)),
		Jitter:     time.Duration(c.JitterSeconds * float64(time.Second)),
		MaxLevel:   c.MaxLevel,
	}
}
