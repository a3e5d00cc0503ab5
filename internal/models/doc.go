// Agenda Cultural Ingestor
// Copyright 2026 Agenda Cultural contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agendacultural/ingestor

// Package models defines the ingestion pipeline's data structures: the
// canonical Event record and its contributions/categories/images, the
// per-tier SourceConfig variants that describe how to reach a source, the
// per-run PipelineResult summary, and the IngestError taxonomy shared by
// every stage.
package models
