// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package rules

import (
	"testing"

	"github.com/riftlab/arena/server/world"
)

func TestDefaultCatalogueValid(t *testing.T) {
	cat := Default()

	ids := cat.ChampionIDs()
	if len(ids) < 2 {
		t.Fatalf("default catalogue has %d champions", len(ids))
	}
	for _, id := range ids {
		stats, ok := cat.Champion(id)
		if !ok {
			t.Fatalf("champion %q listed but not resolvable", id)
		}
		if stats.Health <= 0 || stats.MoveSpeed <= 0 {
			t.Errorf("champion %q has degenerate stats", id)
		}
		if len(cat.Abilities(id)) == 0 {
			t.Errorf("champion %q has no abilities", id)
		}
	}

	if _, ok := cat.Champion("nonexistent"); ok {
		t.Errorf("unknown champion resolved")
	}
	if cat.Abilities("nonexistent") != nil {
		t.Errorf("unknown champion has abilities")
	}
	if _, ok := cat.Item("longsword"); !ok {
		t.Errorf("longsword missing")
	}
	if cat.Wave().PerWave == 0 {
		t.Errorf("default wave spawns nothing")
	}
	if cat.Rewards().KillGold == 0 {
		t.Errorf("kills are worthless")
	}
}

func TestNewCatalogueRejectsDuplicates(t *testing.T) {
	champ := ChampionSpec{
		ID: "twin",
		Stats: world.ChampionStats{Health: 500, MoveSpeed: 300},
		Abilities: []world.AbilitySpec{{ID: "poke", MaxLevel: 5}},
	}
	if _, err := NewCatalogue([]ChampionSpec{champ, champ}, nil,
		world.WaveSpec{}, nil, world.RewardSpec{}); err == nil {
		t.Errorf("duplicate champion accepted")
	}

	item := world.ItemSpec{ID: "ring", Cost: 100}
	if _, err := NewCatalogue(nil, []world.ItemSpec{item, item},
		world.WaveSpec{}, nil, world.RewardSpec{}); err == nil {
		t.Errorf("duplicate item accepted")
	}
}

func TestNewCatalogueRejectsDegenerate(t *testing.T) {
	for _, test := range []struct {
		name  string
		champ ChampionSpec
	}{
		{"no id", ChampionSpec{Stats: world.ChampionStats{Health: 1, MoveSpeed: 1}}},
		{"no health", ChampionSpec{ID: "x", Stats: world.ChampionStats{MoveSpeed: 1}}},
		{"ability without id", ChampionSpec{
			ID:        "x",
			Stats:     world.ChampionStats{Health: 1, MoveSpeed: 1},
			Abilities: []world.AbilitySpec{{MaxLevel: 1}},
		}},
		{"ability max level zero", ChampionSpec{
			ID:        "x",
			Stats:     world.ChampionStats{Health: 1, MoveSpeed: 1},
			Abilities: []world.AbilitySpec{{ID: "y"}},
		}},
	} {
		if _, err := NewCatalogue([]ChampionSpec{test.champ}, nil,
			world.WaveSpec{}, nil, world.RewardSpec{}); err == nil {
			t.Errorf("%s accepted", test.name)
		}
	}
}

func TestCastHookResolution(t *testing.T) {
	cat := Default()

	// No engine attached: everything is built-in.
	if cat.CastHook("warden", 1) != nil {
		t.Errorf("hook resolved without a script engine")
	}

	engine, err := NewScriptEngine(DefaultScript, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer engine.Close()
	cat.AttachScripts(engine)

	if cat.CastHook("warden", 1) == nil {
		t.Errorf("scripted slot has no hook")
	}
	if cat.CastHook("warden", 0) != nil {
		t.Errorf("unscripted slot resolved a hook")
	}
	if cat.CastHook("warden", 9) != nil {
		t.Errorf("out of range slot resolved a hook")
	}
	if cat.CastHook("nonexistent", 0) != nil {
		t.Errorf("unknown champion resolved a hook")
	}
}
