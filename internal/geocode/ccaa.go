// Agenda Cultural Ingestor
// Copyright 2026 Agenda Cultural contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agendacultural/ingestor

package geocode

import "strings"

// CCAARegistry resolves the authoritative Comunidad Autónoma (region) for
// a Spanish city or province name (spec §4.9 region reconciliation). It
// mirrors the original pipeline's municipio → provincia → partial-match
// priority order, but is populated from a static, in-process table rather
// than a remote lookup API: it initializes once at process start and is
// never invalidated during a run (spec §9 "Shared mutable resources").
type CCAARegistry struct {
	byMunicipio map[string]string
	byProvincia map[string]string
}

// NewCCAARegistry builds a registry from municipio→region and
// provincia→region tables. Keys are matched case-insensitively.
func NewCCAARegistry(municipios, provincias map[string]string) *CCAARegistry {
	r := &CCAARegistry{
		byMunicipio: make(map[string]string, len(municipios)),
		byProvincia: make(map[string]string, len(provincias)),
	}
	for k, v := range municipios {
		r.byMunicipio[strings.ToLower(k)] = v
	}
	for k, v := range provincias {
		r.byProvincia[strings.ToLower(k)] = v
	}
	return r
}

// RegionForCity resolves the region for city, trying an exact municipio
// match, then an exact provincia match, then a substring match against
// known municipios (spec §4.9 / original_source fix_ccaa_locations.py
// priority order).
func (r *CCAARegistry) RegionForCity(city string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(city))
	if key == "" {
		return "", false
	}

	if region, ok := r.byMunicipio[key]; ok {
		return region, true
	}
	if region, ok := r.byProvincia[key]; ok {
		return region, true
	}
	for name, region := range r.byMunicipio {
		if strings.Contains(name, key) || strings.Contains(key, name) {
			return region, true
		}
	}
	return "", false
}

// DefaultMunicipioRegions is a representative seed of the Spain municipio/CCAA
// registry; deployments extend it from the full bundled dataset.
var DefaultMunicipioRegions = map[string]string{
	"madrid":               "Comunidad de Madrid",
	"barcelona":            "Cataluña",
	"vigo":                 "Galicia",
	"a coruna":             "Galicia",
	"santiago de compostela": "Galicia",
	"sevilla":              "Andalucía",
	"valencia":             "Comunidad Valenciana",
	"bilbao":               "País Vasco",
	"zaragoza":             "Aragón",
	"malaga":               "Andalucía",
	"murcia":               "Región de Murcia",
	"palma":                "Illes Balears",
	"las palmas de gran canaria": "Canarias",
}

// DefaultProvinciaRegions maps province names to their region.
var DefaultProvinciaRegions = map[string]string{
	"pontevedra": "Galicia",
	"a coruna":   "Galicia",
	"lugo":       "Galicia",
	"ourense":    "Galicia",
	"madrid":     "Comunidad de Madrid",
}
