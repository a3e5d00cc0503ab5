// Agenda Cultural Ingestor
// Copyright 2026 Agenda Cultural contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agendacultural/ingestor

package registry

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/agendacultural/ingestor/internal/models"
)

// sourcesFile is the on-disk shape of a bundled source catalog file.
type sourcesFile struct {
	Sources []*models.SourceConfig `yaml:"sources"`
}

// LoadFromFile reads a YAML source catalog (a top-level `sources:` list,
// one entry per SourceConfig) and returns a Registry populated from it.
func LoadFromFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read source catalog %s: %w", path, err)
	}

	var doc sourcesFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse source catalog %s: %w", path, err)
	}

	return NewFromConfigs(doc.Sources), nil
}
