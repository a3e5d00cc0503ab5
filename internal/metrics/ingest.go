// Agenda Cultural Ingestor
// Copyright 2026 Agenda Cultural contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agendacultural/ingestor

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline orchestrator metrics: one run per source, one histogram
// observation and a handful of counters per stage per run.
var (
	PipelineRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ingest_pipeline_run_duration_seconds",
			Help:    "Duration of one per-source pipeline run",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source_slug", "tier"},
	)

	PipelineRunResult = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_pipeline_runs_total",
			Help: "Total pipeline runs by outcome",
		},
		[]string{"source_slug", "result"},
	)

	PersistOutcome = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_persist_events_total",
			Help: "Events persisted by outcome (inserted, updated, skipped, failed)",
		},
		[]string{"source_slug", "outcome"},
	)

	EnrichBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ingest_enrich_batch_size",
			Help:    "Number of events per enrichment batch call",
			Buckets: []float64{1, 5, 10, 20, 30, 50},
		},
	)
)

// RecordPipelineRun publishes a completed run's duration and outcome.
func RecordPipelineRun(sourceSlug, tier string, duration time.Duration, success bool) {
	PipelineRunDuration.WithLabelValues(sourceSlug, tier).Observe(duration.Seconds())
	result := "success"
	if !success {
		result = "failure"
	}
	PipelineRunResult.WithLabelValues(sourceSlug, result).Inc()
}

// RecordPersistCounts publishes one run's persistence outcome counts.
func RecordPersistCounts(sourceSlug string, inserted, updated, skipped, failed int) {
	PersistOutcome.WithLabelValues(sourceSlug, "inserted").Add(float64(inserted))
	PersistOutcome.WithLabelValues(sourceSlug, "updated").Add(float64(updated))
	PersistOutcome.WithLabelValues(sourceSlug, "skipped").Add(float64(skipped))
	PersistOutcome.WithLabelValues(sourceSlug, "failed").Add(float64(failed))
}
