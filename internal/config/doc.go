// Agenda Cultural Ingestor
// Copyright 2026 Agenda Cultural contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agendacultural/ingestor

// Package config loads the ingestor's configuration: rate-limiter and
// retry defaults, per-stage timeouts, enrichment/embedding/image/geocoder/
// render endpoint settings, persistence, logging, classifier, dedup, and
// pipeline bounds. Load layers defaults, then an optional YAML file, then
// environment variables, highest priority last.
package config
