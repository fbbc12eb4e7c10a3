// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package rules

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/riftlab/arena/server/world"
)

// ScriptEngine runs Lua ability hooks. One engine belongs to one match
// worker; the interpreter is not safe for concurrent use and hooks only run
// from inside the simulation's command handling.
//
// Scripts see a global `arena` table:
//
//	arena.damage(target_id, amount)
//	arena.heal(amount)               -- heals the caster
//	arena.shield(amount)             -- grants the caster a decaying shield
//	arena.zone(x, y, radius, dps, duration)
//	arena.caster_pos()               -- returns x, y
//
// A hook is any global function taking (level, x, y, target_id).
type ScriptEngine struct {
	state *lua.LState
	log   *zap.Logger

	// Call context, valid only while a hook executes.
	sim    *world.Simulation
	caster *world.Entity
}

// NewScriptEngine compiles source and registers the arena API. Source may be
// empty, in which case every Hook lookup returns nil.
func NewScriptEngine(source string, log *zap.Logger) (*ScriptEngine, error) {
	if log == nil {
		log = zap.NewNop()
	}
	engine := &ScriptEngine{
		state: lua.NewState(lua.Options{SkipOpenLibs: false}),
		log:   log,
	}
	engine.registerAPI()

	if source != "" {
		if err := engine.state.DoString(source); err != nil {
			engine.state.Close()
			return nil, fmt.Errorf("ability script: %w", err)
		}
	}
	return engine, nil
}

// Close releases the interpreter. The engine is unusable afterwards.
func (engine *ScriptEngine) Close() {
	engine.state.Close()
}

func (engine *ScriptEngine) registerAPI() {
	api := engine.state.NewTable()

	engine.state.SetField(api, "damage", engine.state.NewFunction(func(L *lua.LState) int {
		targetID := world.EntityID(L.CheckInt64(1))
		amount := float32(L.CheckNumber(2))
		if engine.sim == nil {
			return 0
		}
		if target := engine.sim.Registry().Get(targetID); target != nil {
			engine.sim.ApplyDamage(engine.caster.Owner, target, amount)
		}
		return 0
	}))

	engine.state.SetField(api, "heal", engine.state.NewFunction(func(L *lua.LState) int {
		amount := float32(L.CheckNumber(1))
		if engine.caster != nil && amount > 0 {
			engine.caster.Health = min(engine.caster.Health+amount, engine.caster.MaxHealth)
		}
		return 0
	}))

	engine.state.SetField(api, "shield", engine.state.NewFunction(func(L *lua.LState) int {
		amount := float32(L.CheckNumber(1))
		if engine.caster != nil && amount > 0 {
			engine.caster.Shield += amount
		}
		return 0
	}))

	engine.state.SetField(api, "zone", engine.state.NewFunction(func(L *lua.LState) int {
		x := float32(L.CheckNumber(1))
		y := float32(L.CheckNumber(2))
		radius := float32(L.CheckNumber(3))
		dps := float32(L.CheckNumber(4))
		duration := float32(L.CheckNumber(5))
		if engine.sim != nil && engine.caster != nil {
			engine.sim.SpawnZone(engine.caster.Owner, engine.caster.Side,
				world.Vec2f{X: x, Y: y}, radius, dps, duration)
		}
		return 0
	}))

	engine.state.SetField(api, "caster_pos", engine.state.NewFunction(func(L *lua.LState) int {
		if engine.caster == nil {
			return 0
		}
		L.Push(lua.LNumber(engine.caster.Position.X))
		L.Push(lua.LNumber(engine.caster.Position.Y))
		return 2
	}))

	engine.state.SetGlobal("arena", api)
}

// Hook returns a cast hook invoking the named global Lua function, or nil
// when no such function is defined.
func (engine *ScriptEngine) Hook(name string) world.CastHook {
	fn, ok := engine.state.GetGlobal(name).(*lua.LFunction)
	if !ok {
		return nil
	}

	return func(sim *world.Simulation, caster *world.Entity, spec *world.AbilitySpec, target world.Vec2f, targetID world.EntityID) {
		engine.sim = sim
		engine.caster = caster
		defer func() {
			engine.sim = nil
			engine.caster = nil
		}()

		level := 1
		// The caster's slot level for the cast ability; scripts scale on it.
		for slot := range caster.Abilities {
			if slot < len(sim.Rules().Abilities(caster.Champion)) &&
				sim.Rules().Abilities(caster.Champion)[slot].ID == spec.ID {
				level = int(caster.Abilities[slot].Level)
				break
			}
		}

		err := engine.state.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true},
			lua.LNumber(level),
			lua.LNumber(target.X),
			lua.LNumber(target.Y),
			lua.LNumber(targetID),
		)
		if err != nil {
			engine.log.Error("ability script failed",
				zap.String("hook", name),
				zap.Error(err),
			)
		}
	}
}
