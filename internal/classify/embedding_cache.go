// Agenda Cultural Ingestor
// Copyright 2026 Agenda Cultural contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agendacultural/ingestor

package classify

import (
	"encoding/json"
	"os"
	"sync"
)

// embeddingCacheFile is the on-disk shape of a category-embedding cache
// artifact, keyed by vocabulary version so a vocabulary change invalidates
// it automatically (spec §4.7 step 5).
type embeddingCacheFile struct {
	VocabularyVersion string               `json:"vocabulary_version"`
	Embeddings        map[string][]float64 `json:"embeddings"`
}

// EmbeddingCache persists category embeddings to a local JSON file so the
// embedding endpoint is not re-queried for the fixed category vocabulary on
// every process start.
type EmbeddingCache struct {
	mu   sync.Mutex
	path string
}

// NewEmbeddingCache constructs a cache backed by path.
func NewEmbeddingCache(path string) *EmbeddingCache {
	return &EmbeddingCache{path: path}
}

// Load returns the cached embeddings if the file exists and its recorded
// vocabulary version matches; otherwise it returns ok=false.
func (c *EmbeddingCache) Load(vocabularyVersion string) (map[string][]float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.path == "" {
		return nil, false
	}
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, false
	}
	var file embeddingCacheFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, false
	}
	if file.VocabularyVersion != vocabularyVersion {
		return nil, false
	}
	return file.Embeddings, true
}

// Save writes embeddings atomically (write temp, rename) for vocabularyVersion.
func (c *EmbeddingCache) Save(vocabularyVersion string, embeddings map[string][]float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.path == "" {
		return nil
	}
	data, err := json.Marshal(embeddingCacheFile{VocabularyVersion: vocabularyVersion, Embeddings: embeddings})
	if err != nil {
		return err
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, c.path)
}
