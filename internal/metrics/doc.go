// Agenda Cultural Ingestor
// Copyright 2026 Agenda Cultural contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agendacultural/ingestor

// Package metrics exposes the Prometheus instrumentation for the ingestion
// pipeline: per-source run duration and outcome, and per-source persistence
// counts (inserted/updated/skipped/failed), recorded once per
// Orchestrator.Run call.
package metrics
