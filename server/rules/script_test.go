// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package rules

import (
	"sync"
	"testing"

	"github.com/riftlab/arena/server/world"
)

func scriptedSim(t *testing.T) (*world.Simulation, *ScriptEngine) {
	t.Helper()
	cat := Default()
	engine, err := NewScriptEngine(DefaultScript, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(engine.Close)
	cat.AttachScripts(engine)

	cfg := world.DefaultSimConfig()
	cfg.TickRate = 25
	sim := world.NewSimulation(cfg, world.DefaultMap(), cat, 7, nil)
	if err := sim.SpawnWorld(); err != nil {
		t.Fatal(err)
	}
	return sim, engine
}

func TestShieldHook(t *testing.T) {
	sim, _ := scriptedSim(t)
	if _, err := sim.SpawnChampion(1, "warden", world.SideA); err != nil {
		t.Fatal(err)
	}
	if err := sim.CommandLevelUp(1, 1); err != nil {
		t.Fatal(err)
	}

	champion := sim.ChampionOf(1)
	if err := sim.CommandCast(1, 1, champion.Position, world.EntityIDInvalid); err != nil {
		t.Fatal(err)
	}
	// bulwark grants 80 + 40 * level.
	if champion.Shield != 120 {
		t.Errorf("shield = %f after bulwark, want 120", champion.Shield)
	}
}

func TestZoneHook(t *testing.T) {
	sim, _ := scriptedSim(t)
	if _, err := sim.SpawnChampion(2, "tempest", world.SideB); err != nil {
		t.Fatal(err)
	}
	if err := sim.CommandLevelUp(2, 1); err != nil {
		t.Fatal(err)
	}

	champion := sim.ChampionOf(2)
	aim := champion.Position.Add(world.Vec2f{X: 400})
	if err := sim.CommandCast(2, 1, aim, world.EntityIDInvalid); err != nil {
		t.Fatal(err)
	}

	zones := sim.Registry().ByKind(world.KindZone)
	if len(zones) != 1 {
		t.Fatalf("got %d zones after storm, want 1", len(zones))
	}
	if zones[0].Side != world.SideB {
		t.Errorf("zone side %s", zones[0].Side)
	}
	if zones[0].Lifespan == 0 {
		t.Errorf("zone has no lifespan")
	}
}

func TestForMatchIsolatesEngines(t *testing.T) {
	cat := Default()

	viewA, doneA, err := cat.ForMatch(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer doneA()
	viewB, doneB, err := cat.ForMatch(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer doneB()

	if cat.scripts != nil {
		t.Fatalf("shared catalogue gained an engine")
	}
	if viewA.(*Catalogue).scripts == viewB.(*Catalogue).scripts {
		t.Fatalf("two match views share one interpreter")
	}

	// Two match workers casting scripted abilities at the same time must
	// never touch each other's interpreter.
	var wg sync.WaitGroup
	for worker, view := range []world.Rules{viewA, viewB} {
		worker, view := worker, view
		wg.Add(1)
		go func() {
			defer wg.Done()
			cfg := world.DefaultSimConfig()
			cfg.TickRate = 25
			sim := world.NewSimulation(cfg, world.DefaultMap(), view, int64(worker+1), nil)
			if err := sim.SpawnWorld(); err != nil {
				t.Error(err)
				return
			}
			if _, err := sim.SpawnChampion(1, "warden", world.SideA); err != nil {
				t.Error(err)
				return
			}
			if err := sim.CommandLevelUp(1, 1); err != nil {
				t.Error(err)
				return
			}
			champion := sim.ChampionOf(1)
			for i := 0; i < 50; i++ {
				champion.Abilities[1].Cooldown = 0
				champion.Resource = champion.MaxResource
				if err := sim.CommandCast(1, 1, champion.Position, world.EntityIDInvalid); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestHookMissingFunction(t *testing.T) {
	engine, err := NewScriptEngine("x = 1", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer engine.Close()
	if engine.Hook("no_such_function") != nil {
		t.Errorf("undefined function resolved to a hook")
	}
	if engine.Hook("x") != nil {
		t.Errorf("non-function global resolved to a hook")
	}
}

func TestScriptCompileError(t *testing.T) {
	if _, err := NewScriptEngine("function broken(", nil); err == nil {
		t.Errorf("syntax error accepted")
	}
}

func TestScriptRuntimeErrorContained(t *testing.T) {
	engine, err := NewScriptEngine(`
function exploding(level, x, y, target_id)
	error("boom")
end
`, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer engine.Close()

	cfg := world.DefaultSimConfig()
	cfg.TickRate = 25
	cat := Default()
	cat.AttachScripts(engine)
	sim := world.NewSimulation(cfg, world.DefaultMap(), cat, 7, nil)
	if err := sim.SpawnWorld(); err != nil {
		t.Fatal(err)
	}
	if _, err := sim.SpawnChampion(1, "warden", world.SideA); err != nil {
		t.Fatal(err)
	}

	hook := engine.Hook("exploding")
	if hook == nil {
		t.Fatal("hook not resolved")
	}
	champion := sim.ChampionOf(1)
	spec := cat.Abilities("warden")[1]
	// Must not panic; the error is logged and swallowed.
	hook(sim, champion, &spec, champion.Position, world.EntityIDInvalid)
}
