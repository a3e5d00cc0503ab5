// Agenda Cultural Ingestor
// Copyright 2026 Agenda Cultural contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agendacultural/ingestor

// Package resilience wraps outbound calls with the retry discipline and
// circuit breaker the spec requires of every fetcher, enricher, image,
// and geocoder call (spec §5, §7).
package resilience

import (
	"context"
	"math/rand"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/agendacultural/ingestor/internal/models"
)

// RetryConfig controls the exponential-backoff-with-jitter retry loop
// (spec §5: delay_n = min(max, initial*base^(n-1)) + U(0,jitter)).
type RetryConfig struct {
	MaxAttempts int
	Initial     time.Duration
	Base        float64
	Max         time.Duration
	Jitter      time.Duration
}

// DefaultRetryConfig matches the spec's default attempts (3).
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxAttempts: 3, Initial: time.Second, Base: 2, Max: 30 * time.Second, Jitter: time.Second}
}

func (c RetryConfig) delay(attempt int) time.Duration {
	d := float64(c.Initial)
	for i := 0; i < attempt-1; i++ {
		d *= c.Base
	}
	if d > float64(c.Max) {
		d = float64(c.Max)
	}
	jitter := time.Duration(0)
	if c.Jitter > 0 {
		jitter = time.Duration(rand.Int63n(int64(c.Jitter) + 1))
	}
	return time.Duration(d) + jitter
}

// retryable is implemented by models.IngestError.
type retryable interface {
	error
	Retryable() bool
}

// Do executes fn under the retry loop, passing ctx unchanged to every
// attempt; Do sets no per-attempt deadline of its own. Non-retryable errors (implementing retryable with
// Retryable()==false, or any error not implementing retryable) return
// immediately.
func Do(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		var re retryable
		if rr, ok := lastErr.(retryable); ok { //nolint:errorlint // IngestError is always the concrete retry signal
			re = rr
		}
		if re == nil || !re.Retryable() {
			return lastErr
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		timer := time.NewTimer(cfg.delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return lastErr
}

// Breaker wraps a single per-source operation behind a gobreaker circuit
// breaker, grounded on internal/sync/circuit_breaker.go's Settings shape.
type Breaker struct {
	cb *gobreaker.CircuitBreaker[any]
}

// NewBreaker builds a breaker named for the given source slug with the
// teacher's 60%-failure-ratio/min-10-requests trip settings.
func NewBreaker(sourceSlug string, onStateChange func(name string, from, to gobreaker.State)) *Breaker {
	settings := gobreaker.Settings{
		Name:        sourceSlug,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 10 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if onStateChange != nil {
				onStateChange(name, from, to)
			}
		},
	}
	return &Breaker{cb: gobreaker.NewCircuitBreaker[any](settings)}
}

// Execute runs fn behind the breaker, converting a trip into a
// models.IngestError of kind transport (not retryable at this layer — the
// caller's own retry loop in Do already ran inside fn).
func (b *Breaker) Execute(sourceSlug string, fn func() (any, error)) (any, error) {
	result, err := b.cb.Execute(fn)
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, models.NewTransportError("circuit_breaker", sourceSlug, err)
		}
		return nil, err
	}
	return result, nil
}
