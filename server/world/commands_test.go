// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package world

import (
	"errors"
	"testing"
)

func TestCommandsWithoutChampion(t *testing.T) {
	sim := testSim(t, newTestRules())
	if err := sim.CommandMove(99, Vec2f{}); !errors.Is(err, ErrNoChampion) {
		t.Errorf("move: got %v, want ErrNoChampion", err)
	}
	if err := sim.CommandRecall(99); !errors.Is(err, ErrNoChampion) {
		t.Errorf("recall: got %v, want ErrNoChampion", err)
	}
}

func TestCommandMoveClampsToMap(t *testing.T) {
	sim := testSim(t, newTestRules())
	sim.SpawnChampion(1, "warden", SideA)
	if err := sim.CommandMove(1, Vec2f{X: 99999, Y: -99999}); err != nil {
		t.Fatal(err)
	}
	champion := sim.ChampionOf(1)
	extent := sim.Map().HalfExtent
	if champion.MoveTarget.X > extent || champion.MoveTarget.Y < -extent {
		t.Errorf("move target %+v not clamped to ±%f", champion.MoveTarget, extent)
	}
}

func TestCommandTargetInvisibleBecomesStop(t *testing.T) {
	sim := testSim(t, newTestRules())
	sim.SpawnChampion(1, "warden", SideA)
	enemyID, _ := sim.SpawnChampion(2, "warden", SideB)
	sim.Visibility().Update(sim.Registry())

	// Enemy spawn is far outside sight; the order degrades to a stop.
	if err := sim.CommandTarget(1, enemyID); err != nil {
		t.Fatal(err)
	}
	champion := sim.ChampionOf(1)
	if champion.Target != EntityIDInvalid {
		t.Errorf("invisible enemy accepted as target")
	}
}

func TestCommandTargetVisibleEnemy(t *testing.T) {
	sim := testSim(t, newTestRules())
	sim.SpawnChampion(1, "warden", SideA)
	enemyID, _ := sim.SpawnChampion(2, "warden", SideB)

	enemy := sim.Registry().Get(enemyID)
	enemy.Position = sim.ChampionOf(1).Position.Add(Vec2f{X: 400})
	sim.Registry().Moved(enemy)
	sim.Visibility().Update(sim.Registry())

	if err := sim.CommandTarget(1, enemyID); err != nil {
		t.Fatal(err)
	}
	if sim.ChampionOf(1).Target != enemyID {
		t.Errorf("visible enemy rejected as target")
	}
}

func TestCommandCastValidation(t *testing.T) {
	sim := testSim(t, newTestRules())
	sim.SpawnChampion(1, "warden", SideA)
	champion := sim.ChampionOf(1)

	if err := sim.CommandCast(1, 3, Vec2f{}, EntityIDInvalid); !errors.Is(err, ErrRuleRejected) {
		t.Errorf("bad slot: got %v, want ErrRuleRejected", err)
	}
	// Slot exists but is not leveled yet.
	if err := sim.CommandCast(1, 0, Vec2f{}, EntityIDInvalid); !errors.Is(err, ErrRuleRejected) {
		t.Errorf("unleveled ability: got %v, want ErrRuleRejected", err)
	}

	if err := sim.CommandLevelUp(1, 0); err != nil {
		t.Fatal(err)
	}
	if champion.SkillPoints != 0 {
		t.Errorf("skill points = %d after spending, want 0", champion.SkillPoints)
	}
	if err := sim.CommandLevelUp(1, 0); !errors.Is(err, ErrRuleRejected) {
		t.Errorf("level up without points: got %v, want ErrRuleRejected", err)
	}

	// Out of range point cast.
	far := champion.Position.Add(Vec2f{X: 2000})
	if err := sim.CommandCast(1, 0, far, EntityIDInvalid); !errors.Is(err, ErrRuleRejected) {
		t.Errorf("out of range: got %v, want ErrRuleRejected", err)
	}

	near := champion.Position.Add(Vec2f{X: 300})
	if err := sim.CommandCast(1, 0, near, EntityIDInvalid); err != nil {
		t.Fatal(err)
	}
	if champion.Resource != 300-40 {
		t.Errorf("resource = %f after cast, want 260", champion.Resource)
	}
	if champion.Abilities[0].Cooldown == 0 {
		t.Errorf("cooldown not started")
	}
	if err := sim.CommandCast(1, 0, near, EntityIDInvalid); !errors.Is(err, ErrRuleRejected) {
		t.Errorf("cast during cooldown: got %v, want ErrRuleRejected", err)
	}
}

func TestCommandCastDamagesUnit(t *testing.T) {
	sim := testSim(t, newTestRules())
	sim.SpawnChampion(1, "warden", SideA)
	enemyID, _ := sim.SpawnChampion(2, "warden", SideB)
	sim.CommandLevelUp(1, 0)

	enemy := sim.Registry().Get(enemyID)
	enemy.Position = sim.ChampionOf(1).Position.Add(Vec2f{X: 500})
	sim.Registry().Moved(enemy)
	sim.Visibility().Update(sim.Registry())

	before := enemy.Health
	if err := sim.CommandCast(1, 0, Vec2f{}, enemyID); err != nil {
		t.Fatal(err)
	}
	if enemy.Health != before-80 {
		t.Errorf("enemy health %f, want %f", enemy.Health, before-80)
	}
}

func TestCommandBuySell(t *testing.T) {
	sim := testSim(t, newTestRules())
	sim.SpawnChampion(1, "warden", SideA)
	champion := sim.ChampionOf(1)

	if err := sim.CommandBuy(1, "longsword"); !errors.Is(err, ErrRuleRejected) {
		t.Errorf("broke purchase: got %v, want ErrRuleRejected", err)
	}

	champion.Gold = 500
	baseDamage := champion.AttackDamage
	if err := sim.CommandBuy(1, "longsword"); err != nil {
		t.Fatal(err)
	}
	if champion.Gold != 150 {
		t.Errorf("gold = %d after purchase, want 150", champion.Gold)
	}
	if champion.AttackDamage != baseDamage+10 {
		t.Errorf("attack damage %f, want %f", champion.AttackDamage, baseDamage+10)
	}

	// Away from the shop, purchases are refused.
	champion.Position = Vec2f{}
	sim.Registry().Moved(champion)
	if err := sim.CommandBuy(1, "longsword"); !errors.Is(err, ErrRuleRejected) {
		t.Errorf("remote purchase: got %v, want ErrRuleRejected", err)
	}

	if err := sim.CommandSell(1, "longsword"); err != nil {
		t.Fatal(err)
	}
	if len(champion.Items) != 0 {
		t.Errorf("item not removed on sale")
	}
	if champion.Gold != 150+350*7/10 {
		t.Errorf("gold = %d after sale, want %d", champion.Gold, 150+350*7/10)
	}
	if err := sim.CommandSell(1, "longsword"); !errors.Is(err, ErrRuleRejected) {
		t.Errorf("selling unowned item: got %v, want ErrRuleRejected", err)
	}
}

func TestCommandPlaceWard(t *testing.T) {
	sim := testSim(t, newTestRules())
	sim.SpawnChampion(1, "warden", SideA)
	champion := sim.ChampionOf(1)

	far := champion.Position.Add(Vec2f{X: 2000})
	if err := sim.CommandPlaceWard(1, far); !errors.Is(err, ErrRuleRejected) {
		t.Errorf("out of range ward: got %v, want ErrRuleRejected", err)
	}

	spot := champion.Position.Add(Vec2f{X: 300})
	if err := sim.CommandPlaceWard(1, spot); err != nil {
		t.Fatal(err)
	}
	if champion.Trinket.Charges != 1 {
		t.Errorf("charges = %d after placing, want 1", champion.Trinket.Charges)
	}

	wards := sim.Registry().ByKind(KindWard)
	if len(wards) != 1 {
		t.Fatalf("got %d wards, want 1", len(wards))
	}
	ward := wards[0]
	if !ward.RequireTrueSight {
		t.Errorf("ward not stealthed")
	}
	if ward.Side != SideA || ward.Owner != 1 {
		t.Errorf("ward side/owner %s/%d", ward.Side, ward.Owner)
	}

	// Wards expire after their lifespan.
	for i := Ticks(0); i < ward.Lifespan+2; i++ {
		step(sim)
	}
	if len(sim.Registry().ByKind(KindWard)) != 0 {
		t.Errorf("ward survived its lifespan")
	}

	champion.Trinket.Charges = 0
	if err := sim.CommandPlaceWard(1, spot); !errors.Is(err, ErrRuleRejected) {
		t.Errorf("ward with no charges: got %v, want ErrRuleRejected", err)
	}
}
