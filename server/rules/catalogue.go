// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package rules holds the data-driven match catalogue: champions, abilities,
// items, minion waves, jungle camps and reward tables. The simulation core
// consumes it through the world.Rules contract; nothing here ticks.
package rules

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/riftlab/arena/server/world"
)

type (
	// ChampionSpec bundles a champion's stats with its ability slots.
	ChampionSpec struct {
		ID        string              `yaml:"id"`
		Stats     world.ChampionStats `yaml:"stats"`
		Abilities []world.AbilitySpec `yaml:"abilities"`
	}

	// Catalogue is an immutable rules set shared by every match that uses
	// it. The Lua interpreter is not, so the shared catalogue carries only
	// the script source; ForMatch binds a fresh engine for each match
	// worker and the shared copy keeps scripts == nil.
	Catalogue struct {
		champions map[string]*ChampionSpec
		items     map[string]world.ItemSpec
		wave      world.WaveSpec
		camps     []world.CampSpec
		rewards   world.RewardSpec
		script    string
		scripts   *ScriptEngine
	}
)

var _ world.Rules = (*Catalogue)(nil)

// NewCatalogue assembles a catalogue from parts. Champion and item ids must
// be unique and non-empty.
func NewCatalogue(
	champions []ChampionSpec,
	items []world.ItemSpec,
	wave world.WaveSpec,
	camps []world.CampSpec,
	rewards world.RewardSpec,
) (*Catalogue, error) {
	cat := &Catalogue{
		champions: make(map[string]*ChampionSpec, len(champions)),
		items:     make(map[string]world.ItemSpec, len(items)),
		wave:      wave,
		camps:     camps,
		rewards:   rewards,
	}

	for i := range champions {
		champ := champions[i]
		if champ.ID == "" {
			return nil, fmt.Errorf("champion %d has no id", i)
		}
		if _, dup := cat.champions[champ.ID]; dup {
			return nil, fmt.Errorf("duplicate champion %q", champ.ID)
		}
		if champ.Stats.Health <= 0 || champ.Stats.MoveSpeed <= 0 {
			return nil, fmt.Errorf("champion %q has degenerate stats", champ.ID)
		}
		for slot, ability := range champ.Abilities {
			if ability.ID == "" {
				return nil, fmt.Errorf("champion %q ability %d has no id", champ.ID, slot)
			}
			if ability.MaxLevel == 0 {
				return nil, fmt.Errorf("champion %q ability %q has max level 0", champ.ID, ability.ID)
			}
		}
		cat.champions[champ.ID] = &champ
	}

	for _, item := range items {
		if item.ID == "" {
			return nil, fmt.Errorf("item with no id")
		}
		if _, dup := cat.items[item.ID]; dup {
			return nil, fmt.Errorf("duplicate item %q", item.ID)
		}
		cat.items[item.ID] = item
	}

	return cat, nil
}

// AttachScripts binds a script engine for ability hooks. One engine serves
// exactly one match worker; a nil engine means every ability uses the
// built-in behavior.
func (cat *Catalogue) AttachScripts(engine *ScriptEngine) {
	cat.scripts = engine
}

// ForMatch returns the rules view one match worker uses. A catalogue with
// scripted abilities yields a shallow copy bound to its own interpreter;
// done releases it when the match ends. Without a script the shared
// catalogue itself is returned.
func (cat *Catalogue) ForMatch(log *zap.Logger) (world.Rules, func(), error) {
	if cat.script == "" {
		return cat, func() {}, nil
	}
	engine, err := NewScriptEngine(cat.script, log)
	if err != nil {
		return nil, nil, err
	}
	view := *cat
	view.scripts = engine
	return &view, engine.Close, nil
}

// ChampionIDs lists the playable champion ids.
func (cat *Catalogue) ChampionIDs() []string {
	ids := make([]string, 0, len(cat.champions))
	for id := range cat.champions {
		ids = append(ids, id)
	}
	return ids
}

func (cat *Catalogue) Champion(id string) (world.ChampionStats, bool) {
	champ, ok := cat.champions[id]
	if !ok {
		return world.ChampionStats{}, false
	}
	return champ.Stats, true
}

func (cat *Catalogue) Abilities(champ string) []world.AbilitySpec {
	spec, ok := cat.champions[champ]
	if !ok {
		return nil
	}
	return spec.Abilities
}

func (cat *Catalogue) Item(id string) (world.ItemSpec, bool) {
	item, ok := cat.items[id]
	return item, ok
}

func (cat *Catalogue) Wave() world.WaveSpec      { return cat.wave }
func (cat *Catalogue) Camps() []world.CampSpec   { return cat.camps }
func (cat *Catalogue) Rewards() world.RewardSpec { return cat.rewards }

// CastHook resolves the scripted hook for one ability slot, or nil for the
// built-in projectile/instant behavior.
func (cat *Catalogue) CastHook(champ string, slot int) world.CastHook {
	if cat.scripts == nil {
		return nil
	}
	spec, ok := cat.champions[champ]
	if !ok || slot < 0 || slot >= len(spec.Abilities) {
		return nil
	}
	script := spec.Abilities[slot].Script
	if script == "" {
		return nil
	}
	return cat.scripts.Hook(script)
}
