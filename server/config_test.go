// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "arena.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadConfigEmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Match.TickRate != DefaultConfig().Match.TickRate {
		t.Errorf("empty path did not return defaults")
	}
}

func TestLoadConfigOverlay(t *testing.T) {
	path := writeConfig(t, `
[server]
addr = ":9000"

[match]
tick_rate = 60
max_players = 4

[input]
reorder_window = 10
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("addr = %s", cfg.Server.Addr)
	}
	if cfg.Match.TickRate != 60 || cfg.Match.MaxPlayers != 4 {
		t.Errorf("match = %+v", cfg.Match)
	}
	if cfg.Input.ReorderWindow != 10 {
		t.Errorf("reorder_window = %d", cfg.Input.ReorderWindow)
	}
	// Untouched sections keep their defaults.
	if cfg.Reliable.MaxAttempts != DefaultConfig().Reliable.MaxAttempts {
		t.Errorf("overlay clobbered reliable defaults")
	}
}

func TestLoadConfigSimKnobs(t *testing.T) {
	path := writeConfig(t, `
[match]
visibility_cell = 250.0
assist_window = 5.0
grid_cell_size = 500.0
ward_sight = 650.0
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	sim := cfg.simConfig()
	if sim.VisibilityCell != 250 || sim.AssistWindow != 5 ||
		sim.GridCellSize != 500 || sim.WardSight != 650 {
		t.Errorf("sim knobs not forwarded: %+v", sim)
	}
	// Knobs the file omits keep the simulation defaults.
	if sim.RespawnBase != DefaultConfig().Match.RespawnBase {
		t.Errorf("respawn_base default lost: %f", sim.RespawnBase)
	}
}

func TestLoadConfigUnknownKey(t *testing.T) {
	path := writeConfig(t, `
[match]
tick_rat = 60
`)
	if _, err := LoadConfig(path); err == nil {
		t.Errorf("misspelled key accepted")
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	for _, contents := range []string{
		"[match]\ntick_rate = 0\n",
		"[match]\ntick_rate = 2000\n",
		"[match]\nmax_players = 3\n",
		"[snapshot]\nmid_interval = 4\nfar_interval = 2\n",
		"[reliable]\nretry_factor = 0.5\n",
		"[reliable]\nmax_attempts = 0\n",
		"[input]\nrate_per_second = 0.0\n",
		"[match]\nvisibility_cell = 0.0\n",
		"[match]\nassist_window = -1.0\n",
	} {
		path := writeConfig(t, contents)
		if _, err := LoadConfig(path); err == nil {
			t.Errorf("accepted invalid config %q", contents)
		}
	}
}
