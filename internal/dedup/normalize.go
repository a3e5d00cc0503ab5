// Agenda Cultural Ingestor
// Copyright 2026 Agenda Cultural contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agendacultural/ingestor

package dedup

import (
	"regexp"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

var punctuation = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)

// normalizeText lowercases, strips punctuation, and collapses whitespace
// for similarity comparison (distinct from internal/parse's HTML-unescape
// normalization — this one is purpose-built for fuzzy matching).
func normalizeText(s string) string {
	s = strings.ToLower(s)
	s = punctuation.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

var comarcaSuffixes = []*regexp.Regexp{
	regexp.MustCompile(`\s+y\s+comarca.*$`),
	regexp.MustCompile(`\s+y\s+campi.a.*$`),
	regexp.MustCompile(`\s+y\s+alfoz.*$`),
	regexp.MustCompile(`\s+y\s+.rea\s+metropolitana.*$`),
	regexp.MustCompile(`\s+y\s+entorno.*$`),
	regexp.MustCompile(`\s+metropolitano.*$`),
}

var accentFold = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u",
	"à", "a", "è", "e", "ì", "i", "ò", "o", "ù", "u",
	"ñ", "n", "ü", "u",
)

// normalizeCity lowercases, strips comarca/metropolitan-area suffixes,
// folds diacritics, and collapses whitespace (spec §4.10).
func normalizeCity(city string) string {
	if city == "" {
		return ""
	}
	c := strings.ToLower(strings.TrimSpace(city))
	for _, pat := range comarcaSuffixes {
		c = pat.ReplaceAllString(c, "")
	}
	c = accentFold.Replace(c)
	return strings.Join(strings.Fields(c), " ")
}

// titleSimilarity is the Go equivalent of Python's
// difflib.SequenceMatcher(None, a, b).ratio(), used after normalizeText.
func titleSimilarity(a, b string) float64 {
	na, nb := normalizeText(a), normalizeText(b)
	if na == "" || nb == "" {
		return 0
	}
	return difflib.NewMatcher(splitChars(na), splitChars(nb)).Ratio()
}

// splitChars turns a string into a rune-based slice, matching Python's
// character-sequence SequenceMatcher rather than a token-based diff.
func splitChars(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

