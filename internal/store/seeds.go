/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package store

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TourSeed is one entry in the tours seed file.
type TourSeed struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// DefaultSeeds returns the tours registered when no seed file is configured.
func DefaultSeeds() []TourSeed {
	return []TourSeed{
		{
			Name: "Coliseo, Foro y Palatino",
			URL:  "https://www.civitatis.com/es/roma/visita-guiada-roma-antigua/",
		},
		{
			Name: "Museos Vaticanos y Capilla Sixtina",
			URL:  "https://www.civitatis.com/es/roma/visita-guiada-vaticano/",
		},
		{
			Name: "Coliseo + Arena de Gladiadores",
			URL:  "https://www.civitatis.com/es/roma/tour-coliseo-arena-gladiadores/",
		},
	}
}

// LoadSeeds reads a YAML seed file of tours. An empty path or a missing
// file falls back to the defaults.
func LoadSeeds(path string) ([]TourSeed, error) {
	if path == "" {
		return DefaultSeeds(), nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultSeeds(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read tours seed file: %w", err)
	}
	var seeds []TourSeed
	if err := yaml.Unmarshal(data, &seeds); err != nil {
		return nil, fmt.Errorf("parse tours seed file: %w", err)
	}
	for i, seed := range seeds {
		if seed.Name == "" || seed.URL == "" {
			return nil, fmt.Errorf("tours seed entry %d is missing name or url", i)
		}
	}
	return seeds, nil
}
