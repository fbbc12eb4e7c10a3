// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"testing"

	"github.com/riftlab/arena/server/rules"
	"github.com/riftlab/arena/server/world"
)

// duelSim is a bare map with two champions standing in sight of each other:
// player 1 "warden" on side A, player 2 "tempest" on side B.
func duelSim(t *testing.T) *world.Simulation {
	t.Helper()
	cfg := world.DefaultSimConfig()
	cfg.TickRate = 25
	sim := world.NewSimulation(cfg, world.DefaultMap(), rules.Default(), 1, nil)

	if _, err := sim.SpawnChampion(1, "warden", world.SideA); err != nil {
		t.Fatal(err)
	}
	if _, err := sim.SpawnChampion(2, "tempest", world.SideB); err != nil {
		t.Fatal(err)
	}

	// Pull the enemy into sight range.
	enemy := sim.ChampionOf(2)
	enemy.Position = sim.ChampionOf(1).Position.Add(world.Vec2f{X: 400})
	sim.Registry().Moved(enemy)
	sim.Visibility().Update(sim.Registry())
	return sim
}

// flatSnapshot is a serializer config with thinning disabled.
func flatSnapshot() SnapshotConfig {
	return SnapshotConfig{
		NearRadius:  10000,
		MidRadius:   20000,
		MidInterval: 1,
		FarInterval: 1,
	}
}

func deltaFor(out []EntityDelta, id world.EntityID) (EntityDelta, bool) {
	for _, delta := range out {
		if delta.ID == id {
			return delta, true
		}
	}
	return EntityDelta{}, false
}

func TestSerializerFirstContactIsFull(t *testing.T) {
	sim := duelSim(t)
	serializer := NewSerializer(flatSnapshot())
	own := sim.ChampionOf(1)

	out := serializer.BuildDeltas(sim, world.SideA, own, 0, nil)
	if len(out) != 2 {
		t.Fatalf("first build produced %d deltas, want 2", len(out))
	}
	for _, delta := range out {
		if delta.Mask&world.MaskAll != world.MaskAll {
			t.Errorf("first contact mask %#x for %s, want full", delta.Mask, delta.ID)
		}
	}
	if serializer.Tracked() != 2 {
		t.Errorf("tracked = %d, want 2", serializer.Tracked())
	}
}

func TestSerializerSuppressesUnchanged(t *testing.T) {
	sim := duelSim(t)
	serializer := NewSerializer(flatSnapshot())
	own := sim.ChampionOf(1)

	serializer.BuildDeltas(sim, world.SideA, own, 0, nil)
	out := serializer.BuildDeltas(sim, world.SideA, own, 1, nil)
	if len(out) != 0 {
		t.Fatalf("unchanged world produced %d deltas", len(out))
	}
}

func TestSerializerDeltaCarriesOnlyChangedFields(t *testing.T) {
	sim := duelSim(t)
	serializer := NewSerializer(flatSnapshot())
	own := sim.ChampionOf(1)
	enemy := sim.ChampionOf(2)

	serializer.BuildDeltas(sim, world.SideA, own, 0, nil)
	sim.ApplyDamage(1, enemy, 50)

	out := serializer.BuildDeltas(sim, world.SideA, own, 1, nil)
	delta, ok := deltaFor(out, enemy.ID)
	if !ok {
		t.Fatalf("damaged enemy missing from deltas")
	}
	if delta.Mask&world.MaskHealth == 0 {
		t.Errorf("mask %#x lacks the health bit", delta.Mask)
	}
	if delta.Mask&world.MaskPosition != 0 {
		t.Errorf("mask %#x carries an unchanged position", delta.Mask)
	}
	if delta.Mask&world.MaskAll == world.MaskAll {
		t.Errorf("incremental delta went out as a full snapshot")
	}
}

func TestSerializerFogExitAndReentry(t *testing.T) {
	sim := duelSim(t)
	serializer := NewSerializer(flatSnapshot())
	own := sim.ChampionOf(1)
	enemy := sim.ChampionOf(2)
	home := enemy.Position

	serializer.BuildDeltas(sim, world.SideA, own, 0, nil)

	// The enemy walks into the fog.
	enemy.Position = world.Vec2f{X: 2800}
	sim.Registry().Moved(enemy)
	sim.Visibility().Update(sim.Registry())

	out := serializer.BuildDeltas(sim, world.SideA, own, 1, nil)
	delta, ok := deltaFor(out, enemy.ID)
	if !ok {
		t.Fatalf("no removal delta for the fogged enemy")
	}
	if delta.Mask != world.MaskRemoved {
		t.Errorf("fog exit mask %#x, want removal", delta.Mask)
	}
	if serializer.Tracked() != 1 {
		t.Errorf("tracked = %d after fog exit, want 1", serializer.Tracked())
	}

	// Back into sight: a fresh full snapshot, not a diff against the old
	// forgotten baseline.
	enemy.Position = home
	sim.Registry().Moved(enemy)
	sim.Visibility().Update(sim.Registry())

	out = serializer.BuildDeltas(sim, world.SideA, own, 2, nil)
	delta, ok = deltaFor(out, enemy.ID)
	if !ok {
		t.Fatalf("no delta for the returning enemy")
	}
	if delta.Mask&world.MaskAll != world.MaskAll {
		t.Errorf("re-entry mask %#x, want full", delta.Mask)
	}
}

func TestSerializerDeltaDetachedFromEntity(t *testing.T) {
	sim := duelSim(t)
	serializer := NewSerializer(flatSnapshot())
	own := sim.ChampionOf(1)

	own.Abilities[0].Cooldown = 99
	own.Items = append(own.Items, "longsword")
	own.Effects = append(own.Effects, world.EffectState{ID: "haste", Remaining: 50})

	out := serializer.BuildDeltas(sim, world.SideA, own, 0, nil)
	delta, ok := deltaFor(out, own.ID)
	if !ok {
		t.Fatalf("own champion missing from deltas")
	}

	// The entity keeps ticking while the delta sits on the write pump; the
	// built delta must not follow.
	own.Abilities[0].Cooldown = 42
	own.Items[0] = "greatblade"
	own.Effects[0].Remaining = 1

	if got := delta.Snap.Abilities[0].Cooldown; got != 99 {
		t.Errorf("queued delta cooldown = %d, want 99 (aliases live entity slice)", got)
	}
	if got := delta.Snap.Items[0]; got != "longsword" {
		t.Errorf("queued delta item = %s, want longsword", got)
	}
	if got := delta.Snap.Effects[0].Remaining; got != 50 {
		t.Errorf("queued delta effect = %d, want 50", got)
	}
}

func TestSerializerResetForcesFullSnapshot(t *testing.T) {
	sim := duelSim(t)
	serializer := NewSerializer(flatSnapshot())
	own := sim.ChampionOf(1)

	serializer.BuildDeltas(sim, world.SideA, own, 0, nil)
	serializer.Reset()

	out := serializer.BuildDeltas(sim, world.SideA, own, 1, nil)
	if len(out) != 2 {
		t.Fatalf("post-reset build produced %d deltas, want 2", len(out))
	}
	for _, delta := range out {
		if delta.Mask&world.MaskAll != world.MaskAll {
			t.Errorf("post-reset mask %#x for %s, want full", delta.Mask, delta.ID)
		}
	}
}

func TestSerializerThinningDelaysButKeepsChanges(t *testing.T) {
	sim := duelSim(t)
	cfg := flatSnapshot()
	cfg.NearRadius = 100 // the enemy at 400 units falls in the mid band
	cfg.MidRadius = 1000
	cfg.MidInterval = 4
	cfg.FarInterval = 8
	serializer := NewSerializer(cfg)
	own := sim.ChampionOf(1)
	enemy := sim.ChampionOf(2)

	serializer.BuildDeltas(sim, world.SideA, own, 0, nil)

	// Nudge the enemy every tick for one full cadence period. Exactly one
	// tick in the period lines up with the entity's phase.
	sent := 0
	var mask world.ChangeMask
	for tick := world.Ticks(1); tick <= 4; tick++ {
		enemy.Position = enemy.Position.Add(world.Vec2f{X: 1})
		sim.Registry().Moved(enemy)
		sim.Visibility().Update(sim.Registry())
		out := serializer.BuildDeltas(sim, world.SideA, own, tick, nil)
		if delta, ok := deltaFor(out, enemy.ID); ok {
			sent++
			mask = delta.Mask
		}
	}
	if sent != 1 {
		t.Fatalf("mid-band entity sent %d times over one period, want 1", sent)
	}
	if mask&world.MaskPosition == 0 {
		t.Errorf("accumulated delta lost the position change")
	}
}

func TestSerializerCriticalBypassesThinning(t *testing.T) {
	sim := duelSim(t)
	cfg := flatSnapshot()
	cfg.NearRadius = 100
	cfg.MidRadius = 1000
	cfg.MidInterval = 1000 // would otherwise starve the enemy for ages
	cfg.FarInterval = 1000
	serializer := NewSerializer(cfg)
	own := sim.ChampionOf(1)
	enemy := sim.ChampionOf(2)

	serializer.BuildDeltas(sim, world.SideA, own, 0, nil)

	// A kill is a state transition; it cannot wait for the cadence.
	enemy.Alive = false
	enemy.Deaths++
	out := serializer.BuildDeltas(sim, world.SideA, own, 1, nil)
	delta, ok := deltaFor(out, enemy.ID)
	if !ok {
		t.Fatalf("state transition thinned away")
	}
	if delta.Mask&world.MaskState == 0 {
		t.Errorf("mask %#x lacks the state bit", delta.Mask)
	}
}

func TestPrioritizerOwnEntitiesAlwaysPass(t *testing.T) {
	prio := prioritizer{cfg: SnapshotConfig{
		NearRadius:  10,
		MidRadius:   100,
		MidInterval: 1000,
		FarInterval: 1000,
	}}
	viewer := &world.Entity{ID: 1, Owner: 7}
	pet := &world.Entity{ID: 2, Owner: 7, Position: world.Vec2f{X: 5000}}

	if !prio.include(3, pet, viewer, world.MaskPosition) {
		t.Errorf("own distant entity thinned")
	}
}

func TestPrioritizerPhaseSpread(t *testing.T) {
	prio := prioritizer{cfg: SnapshotConfig{
		NearRadius:  10,
		MidRadius:   100,
		MidInterval: 4,
		FarInterval: 8,
	}}
	viewer := &world.Entity{ID: 1, Owner: 7}
	distant := &world.Entity{ID: 3, Position: world.Vec2f{X: 50}}

	included := 0
	for tick := world.Ticks(0); tick < 4; tick++ {
		if prio.include(tick, distant, viewer, world.MaskPosition) {
			included++
		}
	}
	if included != 1 {
		t.Errorf("mid-band entity included %d times per period, want 1", included)
	}
}
