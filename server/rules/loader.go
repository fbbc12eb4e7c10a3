// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/riftlab/arena/server/world"
)

// catalogueFile is the on-disk yaml shape of a catalogue.
type catalogueFile struct {
	Champions []ChampionSpec   `yaml:"champions"`
	Items     []world.ItemSpec `yaml:"items"`
	Wave      world.WaveSpec   `yaml:"wave"`
	Camps     []world.CampSpec `yaml:"camps"`
	Rewards   world.RewardSpec `yaml:"rewards"`
	Script    string           `yaml:"script"` // inline Lua for ability hooks
}

// Parse builds a catalogue from yaml bytes. An inline script is compiled
// once here to surface syntax errors at load time, then retained as source;
// each match compiles its own interpreter through ForMatch.
func Parse(data []byte) (*Catalogue, error) {
	var file catalogueFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalogue: %w", err)
	}
	cat, err := NewCatalogue(file.Champions, file.Items, file.Wave, file.Camps, file.Rewards)
	if err != nil {
		return nil, err
	}
	if file.Script != "" {
		engine, err := NewScriptEngine(file.Script, nil)
		if err != nil {
			return nil, err
		}
		engine.Close()
		cat.script = file.Script
	}
	return cat, nil
}

// Load reads a catalogue from a yaml file.
func Load(path string) (*Catalogue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalogue: %w", err)
	}
	cat, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalogue %s: %w", path, err)
	}
	return cat, nil
}
