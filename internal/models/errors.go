// Agenda Cultural Ingestor
// Copyright 2026 Agenda Cultural contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agendacultural/ingestor

package models

import "fmt"

// Kind classifies an ingestion-time error so stage boundaries can decide
// whether to retry, drop a record, or abort a source.
type Kind string

const (
	KindConfiguration Kind = "configuration"
	KindTransport     Kind = "transport"
	KindRateLimit     Kind = "rate_limit"
	KindRemoteServer  Kind = "remote_server"
	KindContent       Kind = "content"
	KindEnrichment    Kind = "enrichment"
	KindPersistence   Kind = "persistence"
)

// IngestError wraps an error with a taxonomy Kind and whether a caller
// should retry it under the shared backoff policy.
type IngestError struct {
	Kind    Kind
	Stage   string
	Source  string
	Err     error
	retry   bool
}

func (e *IngestError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s (source=%s)", e.Kind, e.Stage, e.Source)
	}
	return fmt.Sprintf("%s: %s (source=%s): %v", e.Kind, e.Stage, e.Source, e.Err)
}

func (e *IngestError) Unwrap() error { return e.Err }

// Retryable reports whether the retry loop in internal/resilience should
// re-attempt the operation that produced this error.
func (e *IngestError) Retryable() bool { return e.retry }

// NewConfigError builds a fatal, non-retryable configuration error.
func NewConfigError(stage, source string, err error) *IngestError {
	return &IngestError{Kind: KindConfiguration, Stage: stage, Source: source, Err: err, retry: false}
}

// NewTransportError builds a retryable transport-layer error.
func NewTransportError(stage, source string, err error) *IngestError {
	return &IngestError{Kind: KindTransport, Stage: stage, Source: source, Err: err, retry: true}
}

// NewRateLimitError builds a retryable rate-limit-signal error (HTTP 429/403).
func NewRateLimitError(stage, source string, err error) *IngestError {
	return &IngestError{Kind: KindRateLimit, Stage: stage, Source: source, Err: err, retry: true}
}

// NewRemoteServerError builds a retryable remote-5xx error.
func NewRemoteServerError(stage, source string, err error) *IngestError {
	return &IngestError{Kind: KindRemoteServer, Stage: stage, Source: source, Err: err, retry: true}
}

// NewContentError builds a non-retryable per-record content error; the
// caller drops the offending record and continues the run.
func NewContentError(stage, source string, err error) *IngestError {
	return &IngestError{Kind: KindContent, Stage: stage, Source: source, Err: err, retry: false}
}

// NewRetryableContentError marks a content error as retryable. Used for
// Bronze partial-render responses, which the original pipeline treats as
// transient rather than terminal.
func NewRetryableContentError(stage, source string, err error) *IngestError {
	return &IngestError{Kind: KindContent, Stage: stage, Source: source, Err: err, retry: true}
}

// NewEnrichmentError builds a non-retryable-at-the-record-level enrichment
// failure; the event proceeds without enrichment.
func NewEnrichmentError(stage, source string, err error) *IngestError {
	return &IngestError{Kind: KindEnrichment, Stage: stage, Source: source, Err: err, retry: false}
}

// NewPersistenceError builds a per-event persistence failure.
func NewPersistenceError(stage, source string, err error) *IngestError {
	return &IngestError{Kind: KindPersistence, Stage: stage, Source: source, Err: err, retry: false}
}
