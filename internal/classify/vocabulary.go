// Agenda Cultural Ingestor
// Copyright 2026 Agenda Cultural contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agendacultural/ingestor

package classify

// DefaultVocabulary is the controlled category-slug list (spec §4.7). A
// deployment may override this with its own embeddings at load time; the
// slug set itself is stable across the pipeline's lifetime.
var DefaultVocabulary = []string{
	"cultural",
	"social",
	"economic",
	"technology",
	"health",
	"political",
	"sports",
	"educational",
	"environmental",
	"other",
}

// OtherSlug is the primary category assigned when no category clears the
// threshold and the enricher offered none either (spec §4.7 step 4).
const OtherSlug = "other"
