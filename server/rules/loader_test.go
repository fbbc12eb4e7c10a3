// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package rules

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testCatalogueYAML = `
champions:
  - id: brute
    stats:
      health: 700
      health_per_level: 110
      attack_damage: 70
      attack_range: 150
      attack_speed: 0.7
      move_speed: 340
      sight_radius: 1100
    abilities:
      - id: smash
        max_level: 5
        cost: 40
        cooldown: 8
        range: 300
        base_damage: 90
        damage_per_level: 45
      - id: rage
        max_level: 3
        cost: 60
        cooldown: 20
        script: brute_rage
items:
  - id: club
    cost: 400
    damage: 12
wave:
  period: 25
  first_spawn: 10
  per_wave: 4
  health: 200
  damage: 10
  attack_range: 100
  move_speed: 320
  sight_radius: 700
  gold_bounty: 18
  xp_bounty: 14
camps:
  - id: boar
    position: {x: 500, y: -700}
    health: 1000
    damage: 30
    respawn: 90
    gold_bounty: 60
    xp_bounty: 80
rewards:
  kill_gold: 250
  kill_xp: 100
  xp_per_level: 150
  max_level: 18
  multi_kill_window: 10
script: |
  function brute_rage(level, x, y, target_id)
    arena.shield(50 * level)
  end
`

func TestParseCatalogue(t *testing.T) {
	cat, err := Parse([]byte(testCatalogueYAML))
	if err != nil {
		t.Fatal(err)
	}

	stats, ok := cat.Champion("brute")
	if !ok {
		t.Fatalf("brute not loaded")
	}
	if stats.Health != 700 || stats.HealthPerLevel != 110 {
		t.Errorf("stats %+v", stats)
	}

	abilities := cat.Abilities("brute")
	if len(abilities) != 2 {
		t.Fatalf("got %d abilities, want 2", len(abilities))
	}
	if abilities[1].Script != "brute_rage" {
		t.Errorf("script hook name %q", abilities[1].Script)
	}

	if item, ok := cat.Item("club"); !ok || item.Damage != 12 {
		t.Errorf("club not loaded: %+v ok=%v", item, ok)
	}
	if cat.Wave().PerWave != 4 {
		t.Errorf("wave %+v", cat.Wave())
	}
	if len(cat.Camps()) != 1 || cat.Camps()[0].ID != "boar" {
		t.Errorf("camps %+v", cat.Camps())
	}
	if cat.Rewards().KillGold != 250 {
		t.Errorf("rewards %+v", cat.Rewards())
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse([]byte("champions: {not: [valid")); err == nil {
		t.Errorf("malformed yaml accepted")
	}
	if _, err := Parse([]byte("champions:\n  - id: ghost\n")); err == nil {
		t.Errorf("champion with no stats accepted")
	}
}

func TestLoadCatalogueFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalogue.yml")
	if err := os.WriteFile(path, []byte(testCatalogueYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	cat, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := cat.Champion("brute"); !ok {
		t.Errorf("brute missing after file load")
	}
	if cat.script == "" {
		t.Errorf("inline script lost")
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Errorf("missing file accepted")
	}
}

func TestParseRejectsBrokenScript(t *testing.T) {
	broken := testCatalogueYAML + "\n"
	broken = strings.Replace(broken, "function brute_rage", "function brute_rage((", 1)
	if _, err := Parse([]byte(broken)); err == nil {
		t.Errorf("catalogue with a lua syntax error accepted")
	}
}
