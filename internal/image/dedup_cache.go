// Agenda Cultural Ingestor
// Copyright 2026 Agenda Cultural contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agendacultural/ingestor

package image

import (
	"crypto/sha1" //nolint:gosec // fingerprint only, not a security boundary
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

const (
	usedURLKeyPrefix  = "image:used:"
	keywordKeyPrefix  = "image:keywords:"
)

// DedupCache maps URL -> used, and hash(sorted(keywords)) -> list of URLs
// already returned for that key, durable across runs (spec §4.8 step 4).
type DedupCache struct {
	db *badger.DB
}

// OpenDedupCache opens (creating if absent) a badger store at path.
func OpenDedupCache(path string) (*DedupCache, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open image dedup cache: %w", err)
	}
	return &DedupCache{db: db}, nil
}

// Close releases the underlying store.
func (c *DedupCache) Close() error {
	return c.db.Close()
}

// KeywordKey derives the stable lookup key for a set of image keywords.
func KeywordKey(keywords []string) string {
	sorted := append([]string(nil), keywords...)
	sort.Strings(sorted)
	sum := sha1.Sum([]byte(strings.Join(sorted, "|"))) //nolint:gosec // fingerprint only
	return hex.EncodeToString(sum[:])
}

// IsUsed reports whether url has already been assigned to an event.
func (c *DedupCache) IsUsed(url string) (bool, error) {
	var used bool
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(usedURLKeyPrefix + url))
		if errors.Is(err, badger.ErrKeyNotFound) {
			used = false
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			used = len(val) > 0
			return nil
		})
	})
	return used, err
}

// URLsForKeywordKey returns the URLs previously returned for a given
// keyword-set key.
func (c *DedupCache) URLsForKeywordKey(key string) ([]string, error) {
	var urls []string
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keywordKeyPrefix + key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &urls)
		})
	})
	return urls, err
}

// MarkUsed records url as used and appends it to the keyword-set key's
// history, within a single transaction (write temp semantics are badger's
// own write-ahead log; no separate rename step is needed here).
func (c *DedupCache) MarkUsed(keywordKey, url string) error {
	return c.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(usedURLKeyPrefix+url), []byte{1}); err != nil {
			return fmt.Errorf("mark url used: %w", err)
		}

		var urls []string
		item, err := txn.Get([]byte(keywordKeyPrefix + keywordKey))
		if err == nil {
			if getErr := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &urls)
			}); getErr != nil {
				return getErr
			}
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		urls = append(urls, url)
		data, err := json.Marshal(urls)
		if err != nil {
			return fmt.Errorf("marshal keyword urls: %w", err)
		}
		return txn.Set([]byte(keywordKeyPrefix+keywordKey), data)
	})
}
