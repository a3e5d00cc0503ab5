// Agenda Cultural Ingestor
// Copyright 2026 Agenda Cultural contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agendacultural/ingestor

package image

// curatedByCategory is the last-resort static image set, indexed by
// primary category, used when both providers return nothing (spec §4.8
// step 2).
var curatedByCategory = map[string][]Candidate{
	"cultural": {
		{URL: "https://static.agendacultural.example/curated/cultural-1.jpg", Author: "agendacultural", ProviderID: "curated"},
		{URL: "https://static.agendacultural.example/curated/cultural-2.jpg", Author: "agendacultural", ProviderID: "curated"},
	},
	"social": {
		{URL: "https://static.agendacultural.example/curated/social-1.jpg", Author: "agendacultural", ProviderID: "curated"},
	},
	"other": {
		{URL: "https://static.agendacultural.example/curated/generic-1.jpg", Author: "agendacultural", ProviderID: "curated"},
	},
}

func curatedFor(primaryCategory string) []Candidate {
	if set, ok := curatedByCategory[primaryCategory]; ok {
		return set
	}
	return curatedByCategory["other"]
}
