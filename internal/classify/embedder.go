// Agenda Cultural Ingestor
// Copyright 2026 Agenda Cultural contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agendacultural/ingestor

package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/agendacultural/ingestor/internal/config"
	"github.com/agendacultural/ingestor/internal/models"
)

type embedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

// Embedder requests a fixed-dimensional vector for one input string from
// the embedding endpoint (spec §6: one string ≤ 8000 chars, one request per
// input — no batch semantics are assumed).
type Embedder struct {
	cfg    config.EmbeddingConfig
	client *http.Client
}

// NewEmbedder constructs an Embedder.
func NewEmbedder(cfg config.EmbeddingConfig, client *http.Client) *Embedder {
	if client == nil {
		client = http.DefaultClient
	}
	return &Embedder{cfg: cfg, client: client}
}

// Embed truncates text to 8000 characters and returns its embedding vector.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if runes := []rune(text); len(runes) > 8000 {
		text = string(runes[:8000])
	}

	payload, err := json.Marshal(embedRequest{Input: text})
	if err != nil {
		return nil, models.NewConfigError("classify", "", fmt.Errorf("encode embed request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, models.NewConfigError("classify", "", fmt.Errorf("build embed request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if e.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.cfg.APIKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, models.NewTransportError("classify", "", fmt.Errorf("embed request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, models.NewRateLimitError("classify", "", fmt.Errorf("status %d", resp.StatusCode))
	}
	if resp.StatusCode >= 500 {
		return nil, models.NewRemoteServerError("classify", "", fmt.Errorf("status %d", resp.StatusCode))
	}
	if resp.StatusCode >= 400 {
		return nil, models.NewRemoteServerError("classify", "", fmt.Errorf("status %d", resp.StatusCode))
	}

	var parsed embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, models.NewContentError("classify", "", fmt.Errorf("decode embed response: %w", err))
	}
	if len(parsed.Data) == 0 {
		return nil, models.NewContentError("classify", "", fmt.Errorf("empty embedding response"))
	}
	return parsed.Data[0].Embedding, nil
}
