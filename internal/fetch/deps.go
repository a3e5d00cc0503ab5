// Agenda Cultural Ingestor
// Copyright 2026 Agenda Cultural contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agendacultural/ingestor

package fetch

import (
	"net/http"
	"time"

	"github.com/agendacultural/ingestor/internal/ratelimit"
	"github.com/agendacultural/ingestor/internal/resilience"
)

// RenderConfig names the headless-render collaborator (spec §6).
type RenderConfig struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

// Deps bundles everything adapters share: an HTTP client, the process-wide
// rate limiter, the retry policy, and (for BRONZE) the render service
// location.
type Deps struct {
	Client      *http.Client
	Limiter     *ratelimit.Limiter
	Retry       resilience.RetryConfig
	DefaultTimeout time.Duration
	Render      RenderConfig
}
