// Agenda Cultural Ingestor
// Copyright 2026 Agenda Cultural contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agendacultural/ingestor

// Package pipeline composes §4.1-4.11's narrow, pure-ish collaborators into
// one per-source run: fetch, parse, freshness filter, enrich, classify,
// resolve images, geocode, deduplicate, persist. The Orchestrator is the
// only component in the module that is allowed to know about all the
// others (spec §4.12).
package pipeline

import (
	"context"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/agendacultural/ingestor/internal/classify"
	"github.com/agendacultural/ingestor/internal/config"
	"github.com/agendacultural/ingestor/internal/dedup"
	"github.com/agendacultural/ingestor/internal/enrich"
	"github.com/agendacultural/ingestor/internal/fetch"
	"github.com/agendacultural/ingestor/internal/freshness"
	"github.com/agendacultural/ingestor/internal/geocode"
	"github.com/agendacultural/ingestor/internal/image"
	"github.com/agendacultural/ingestor/internal/logging"
	"github.com/agendacultural/ingestor/internal/metrics"
	"github.com/agendacultural/ingestor/internal/models"
	"github.com/agendacultural/ingestor/internal/parse"
	"github.com/agendacultural/ingestor/internal/persist"
)

// Orchestrator bundles every stage collaborator needed to run one source
// end to end. Construct one per process; it holds no per-run state.
type Orchestrator struct {
	FetchDeps  fetch.Deps
	Parser     *parse.Parser
	Enricher   *enrich.Enricher
	Classifier *classify.Classifier
	Images     *image.Resolver
	Geocoder   *geocode.Geocoder
	Dedup      *dedup.Deduplicator
	Store      *persist.Store
	Cfg        config.PipelineConfig

	// Now defaults to time.Now; overridable in tests for deterministic
	// freshness comparisons.
	Now func() time.Time
}

// New constructs an Orchestrator from its collaborators.
func New(fetchDeps fetch.Deps, parser *parse.Parser, enricher *enrich.Enricher, classifier *classify.Classifier, images *image.Resolver, geocoder *geocode.Geocoder, deduplicator *dedup.Deduplicator, store *persist.Store, cfg config.PipelineConfig) *Orchestrator {
	return &Orchestrator{
		FetchDeps:  fetchDeps,
		Parser:     parser,
		Enricher:   enricher,
		Classifier: classifier,
		Images:     images,
		Geocoder:   geocoder,
		Dedup:      deduplicator,
		Store:      store,
		Cfg:        cfg,
		Now:        time.Now,
	}
}

// RunOptions controls one Run call, mirroring the CLI's insert flags.
type RunOptions struct {
	SkipExisting   bool
	DryRun         bool
	SkipEnrichment bool
	SkipImages     bool
}

// Run drives one source through the full chain and returns its result.
// Only configuration errors unwind from Run; everything else degrades
// into the returned PipelineResult's counts (spec §7).
func (o *Orchestrator) Run(ctx context.Context, cfg *models.SourceConfig, opts RunOptions) models.PipelineResult {
	started := time.Now()
	result := models.PipelineResult{
		SourceSlug:        cfg.Slug,
		CategoryHistogram: map[string]int{},
		RegionHistogram:   map[string]int{},
	}

	defer func() {
		result.Duration = time.Since(started)
		metrics.RecordPipelineRun(cfg.Slug, string(cfg.Tier), result.Duration, result.Success)
		metrics.RecordPersistCounts(cfg.Slug, result.Inserted, result.Updated, result.Skipped, result.Failed)
	}()

	now := time.Now
	if o.Now != nil {
		now = o.Now
	}

	adapter, err := fetch.ForTier(cfg, o.FetchDeps)
	if err != nil {
		result.Error = err.Error()
		logging.Error().Err(err).Str("source_slug", cfg.Slug).Str("stage", "fetch").Msg("cannot build adapter")
		return result
	}

	maxPages := o.Cfg.MaxPages
	raws, err := adapter.Fetch(ctx, cfg, maxPages)
	if err != nil {
		result.Error = err.Error()
		logging.Error().Err(err).Str("source_slug", cfg.Slug).Str("stage", "fetch").Msg("fetch failed")
		return result
	}
	result.RawCount = len(raws)
	logging.Info().Str("source_slug", cfg.Slug).Str("stage", "fetch").Int("raw_count", result.RawCount).Msg("fetched raw records")

	scrapedAt := now()
	events := make([]*models.Event, 0, len(raws))
	for _, raw := range raws {
		ev, ok := o.Parser.Parse(cfg, raw, scrapedAt)
		if !ok {
			continue
		}
		events = append(events, ev)
	}
	result.ParsedCount = len(events)
	logging.Info().Str("source_slug", cfg.Slug).Str("stage", "parse").Int("parsed_count", result.ParsedCount).Msg("parsed records")

	events = freshness.Filter(events, now())
	result.PastFilteredCount = len(events)

	if o.Cfg.MaxEventsPerSource > 0 && len(events) > o.Cfg.MaxEventsPerSource {
		result.LimitApplied = len(events) - o.Cfg.MaxEventsPerSource
		events = events[:o.Cfg.MaxEventsPerSource]
	}

	if !opts.SkipEnrichment && o.Enricher != nil && len(events) > 0 {
		enrichments := o.Enricher.Enrich(ctx, cfg.Tier, events)
		for _, ev := range events {
			enr, ok := enrichments[ev.ExternalID]
			if !ok {
				continue
			}
			applyEnrichment(ev, enr)
			result.EnrichedCount++
		}
	}
	enrich.InferFreeFromVenue(events)

	for _, ev := range events {
		o.classifyOne(ctx, ev)
		if !opts.SkipImages && o.Images != nil {
			if o.resolveImage(ctx, ev) {
				result.ImagesResolved++
			}
		}
		o.geocodeOne(ctx, ev, cfg)
	}

	o.persistAll(ctx, cfg, events, opts, &result)

	for _, ev := range events {
		if len(ev.CategorySlugs) > 0 {
			result.CategoryHistogram[ev.CategorySlugs[0]]++
		}
		if ev.Region != "" {
			result.RegionHistogram[ev.Region]++
		}
	}

	result.Success = result.Error == ""
	logging.Info().Str("source_slug", cfg.Slug).Str("stage", "persist").
		Int("inserted", result.Inserted).Int("updated", result.Updated).
		Int("skipped", result.Skipped).Int("failed", result.Failed).
		Dur("elapsed", time.Since(started)).Msg("run complete")
	return result
}

// applyEnrichment folds the model's output into an event without
// overwriting fields the source already supplied.
func applyEnrichment(ev *models.Event, enr *models.Enrichment) {
	if ev.Summary == "" {
		ev.Summary = enr.Summary
	}
	if ev.IsFree == models.Unknown {
		ev.IsFree = enr.IsFree
	}
	if ev.Price == nil {
		ev.Price = enr.Price
	}
	if ev.PriceInfo == "" {
		ev.PriceInfo = enr.PriceDetails
	}
	if len(ev.CategorySlugs) == 0 {
		ev.CategorySlugs = enr.CategorySlugs
	}
}

func (o *Orchestrator) classifyOne(ctx context.Context, ev *models.Event) {
	if o.Classifier == nil {
		return
	}
	text := ev.Summary
	if text == "" {
		text = ev.Title + " " + ev.Description
	}
	fallback := ev.CategorySlugs
	classification, err := o.Classifier.Classify(ctx, text, fallback)
	if err != nil {
		logging.Warn().Err(err).Str("source_slug", ev.SourceSlug).Str("stage", "classify").Msg("classification failed, leaving prior categories")
		return
	}
	ev.CategorySlugs = classification.CategorySlugs
}

func (o *Orchestrator) resolveImage(ctx context.Context, ev *models.Event) bool {
	candidate, err := o.Images.Resolve(ctx, ev.SourceImageURL, imageKeywordsFor(ev), primaryCategory(ev))
	if err != nil {
		logging.Warn().Err(err).Str("source_slug", ev.SourceSlug).Str("stage", "image").Msg("image resolution failed")
		return false
	}
	if candidate.URL == "" {
		return false
	}
	ev.ImageURL = candidate.URL
	return true
}

func imageKeywordsFor(ev *models.Event) []string {
	if ev.Title == "" {
		return nil
	}
	return []string{ev.Title}
}

func primaryCategory(ev *models.Event) string {
	if len(ev.CategorySlugs) == 0 {
		return ""
	}
	return ev.CategorySlugs[0]
}

func (o *Orchestrator) geocodeOne(ctx context.Context, ev *models.Event, cfg *models.SourceConfig) {
	if o.Geocoder == nil {
		return
	}
	declaredRegion := ev.Region
	if declaredRegion == "" {
		declaredRegion = cfg.Region
	}
	geo, err := o.Geocoder.Geocode(ctx, ev.VenueName, ev.Address, ev.City, ev.Province, declaredRegion)
	if err != nil {
		logging.Warn().Err(err).Str("source_slug", ev.SourceSlug).Str("stage", "geocode").Msg("geocoding failed")
		return
	}
	if geo == nil {
		return
	}
	lat, lon := geo.Latitude, geo.Longitude
	ev.Latitude = &lat
	ev.Longitude = &lon
	if geo.Region != "" {
		ev.Region = geo.Region
	}
}

// persistAll looks up same-day candidates from other sources once per
// calendar day touched by this run (spec §4.10 excludes same-source rows,
// so a source's own events never dedup-match each other; cross-run
// ordering is enforced by each run committing to the store before the
// next source's run queries it) and writes the outcome of each event to
// the store.
func (o *Orchestrator) persistAll(ctx context.Context, cfg *models.SourceConfig, events []*models.Event, opts RunOptions, result *models.PipelineResult) {
	if o.Store == nil || o.Dedup == nil {
		return
	}

	dailyIndexes := map[string]*dedup.Index{}
	scrapedAt := time.Now()
	if o.Now != nil {
		scrapedAt = o.Now()
	}

	for _, ev := range events {
		dayKey := ev.StartDate.Format("2006-01-02")
		idx, ok := dailyIndexes[dayKey]
		if !ok {
			existing, err := o.Store.EventsOnDate(ctx, ev.StartDate)
			if err != nil {
				logging.Warn().Err(err).Str("source_slug", cfg.Slug).Str("stage", "dedup").Msg("candidate lookup failed, treating as no candidates")
				existing = nil
			}
			idx = dedup.NewIndex(filterOtherSources(existing, cfg.Slug))
			dailyIndexes[dayKey] = idx
		}

		resolution := o.Dedup.Resolve(ev, idx.Candidates(ev), scrapedAt)
		if resolution.Action == dedup.ActionSkip {
			result.Skipped++
			continue
		}
		if resolution.Contribution != nil {
			resolution.Event.Contributions = append(resolution.Event.Contributions, *resolution.Contribution)
		}

		if opts.DryRun {
			continue
		}

		counts := o.Store.SaveBatch(ctx, []*models.Event{resolution.Event}, opts.SkipExisting && resolution.Action == dedup.ActionInsert)
		result.Inserted += counts.Inserted
		result.Updated += counts.Updated
		result.Skipped += counts.Skipped
		result.Failed += counts.Failed
	}
}

// filterOtherSources drops same-source rows from a candidate set (spec
// §4.10: "exclude rows from the same source_slug").
func filterOtherSources(events []*models.Event, sourceSlug string) []*models.Event {
	out := make([]*models.Event, 0, len(events))
	for _, ev := range events {
		if ev.SourceSlug == sourceSlug {
			continue
		}
		out = append(out, ev)
	}
	return out
}

// RunAll runs every source concurrently under a suture supervisor (spec
// §4.12: "concurrent across sources, sequential within a source"),
// isolating one source's crash from the rest, and returns each source's
// result once all have finished.
func (o *Orchestrator) RunAll(ctx context.Context, sources []*models.SourceConfig, opts RunOptions) []models.PipelineResult {
	if len(sources) == 0 {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sup := suture.New("ingest-batch", suture.Spec{})
	results := make(chan models.PipelineResult, len(sources))
	for _, cfg := range sources {
		sup.Add(&sourceRun{orch: o, cfg: cfg, opts: opts, out: results})
	}

	supDone := make(chan error, 1)
	go func() { supDone <- sup.Serve(runCtx) }()

	collected := make([]models.PipelineResult, 0, len(sources))
	for range sources {
		collected = append(collected, <-results)
	}

	cancel()
	<-supDone
	return collected
}

// sourceRun wraps one source's Run as a suture.Service: it does the work
// once, reports the result, then blocks for shutdown like the teacher's
// one-shot service wrappers (internal/supervisor/services/import_service.go)
// so the supervisor never restarts a completed run.
type sourceRun struct {
	orch *Orchestrator
	cfg  *models.SourceConfig
	opts RunOptions
	out  chan<- models.PipelineResult
}

func (s *sourceRun) Serve(ctx context.Context) error {
	s.out <- s.orch.Run(ctx, s.cfg, s.opts)
	<-ctx.Done()
	return ctx.Err()
}

func (s *sourceRun) String() string {
	return "ingest:" + s.cfg.Slug
}
