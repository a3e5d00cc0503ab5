// Agenda Cultural Ingestor
// Copyright 2026 Agenda Cultural contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agendacultural/ingestor

package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoffEscalationAndDecay(t *testing.T) {
	l := New(DefaultConfig())

	require.Equal(t, 0, l.BackoffLevel("api.example.es"))

	l.ReportFailure("api.example.es")
	l.ReportFailure("api.example.es")
	assert.Equal(t, 2, l.BackoffLevel("api.example.es"))

	l.ReportSuccess("api.example.es")
	assert.Equal(t, 1, l.BackoffLevel("api.example.es"))
}

func TestBackoffLevelCappedAtMax(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxLevel = 2
	l := New(cfg)

	for i := 0; i < 10; i++ {
		l.ReportFailure("host")
	}
	assert.Equal(t, 2, l.BackoffLevel("host"))

	for i := 0; i < 10; i++ {
		l.ReportSuccess("host")
	}
	assert.Equal(t, 0, l.BackoffLevel("host"))
}

func TestWaitRespectsMinimumInterval(t *testing.T) {
	cfg := Config{Base: 20 * time.Millisecond, Multiplier: 2, Max: time.Second, Jitter: 0, MaxLevel: 5}
	l := New(cfg)
	ctx := context.Background()

	require.NoError(t, l.Wait(ctx, "host"))
	start := time.Now()
	require.NoError(t, l.Wait(ctx, "host"))
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, cfg.Base-2*time.Millisecond)
}

func TestWaitHonorsCancellation(t *testing.T) {
	cfg := Config{Base: time.Second, Multiplier: 2, Max: 10 * time.Second, Jitter: 0, MaxLevel: 5}
	l := New(cfg)
	ctx := context.Background()
	require.NoError(t, l.Wait(ctx, "slow-host"))

	cctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := l.Wait(cctx, "slow-host")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPerDomainIsolation(t *testing.T) {
	l := New(DefaultConfig())
	l.ReportFailure("a.example.es")
	assert.Equal(t, 1, l.BackoffLevel("a.example.es"))
	assert.Equal(t, 0, l.BackoffLevel("b.example.es"))
}
