// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package world

import "testing"

func TestVisibilityBasic(t *testing.T) {
	reg := NewRegistry(400)
	vis := NewVisibility(1000, 100)

	reg.Add(&Entity{
		Kind:        KindChampion,
		Side:        SideA,
		Alive:       true,
		SightRadius: 300,
	})
	vis.Update(reg)

	if !vis.IsVisible(SideA, Vec2f{}) {
		t.Errorf("cell under the entity not visible to its side")
	}
	if vis.IsVisible(SideB, Vec2f{}) {
		t.Errorf("enemy side sees an unlit cell")
	}
	if vis.IsVisible(SideA, Vec2f{X: 900, Y: 900}) {
		t.Errorf("cell far outside sight radius is visible")
	}
	if vis.IsVisible(SideNone, Vec2f{}) {
		t.Errorf("neutral side has vision")
	}
}

func TestVisibilityBoundaryInclusive(t *testing.T) {
	reg := NewRegistry(400)
	vis := NewVisibility(1000, 100)

	// Cell centers sit at ±50, ±150, ... An entity at a cell center with
	// radius exactly 100 must light the center one cell over.
	reg.Add(&Entity{
		Kind:        KindWard,
		Side:        SideA,
		Alive:       true,
		Position:    Vec2f{X: 50, Y: 50},
		SightRadius: 100,
	})
	vis.Update(reg)

	if !vis.IsVisible(SideA, Vec2f{X: 150, Y: 50}) {
		t.Errorf("cell center at exactly sight radius not visible")
	}
	if vis.IsVisible(SideA, Vec2f{X: 250, Y: 50}) {
		t.Errorf("cell center beyond sight radius visible")
	}
}

func TestExploredMonotonic(t *testing.T) {
	reg := NewRegistry(400)
	vis := NewVisibility(1000, 100)

	scout := &Entity{
		Kind:        KindChampion,
		Side:        SideA,
		Alive:       true,
		SightRadius: 200,
	}
	reg.Add(scout)
	vis.Update(reg)

	ix, iy := vis.cellOf(Vec2f{})
	if state := vis.CellStateAt(SideA, ix, iy); state != CellVisible {
		t.Fatalf("occupied cell state %d, want visible", state)
	}

	scout.Position = Vec2f{X: 800, Y: 800}
	reg.Moved(scout)
	vis.Update(reg)

	if state := vis.CellStateAt(SideA, ix, iy); state != CellExplored {
		t.Errorf("abandoned cell state %d, want explored", state)
	}
	if state := vis.CellStateAt(SideB, ix, iy); state != CellUnexplored {
		t.Errorf("enemy side inherited exploration")
	}
}

func TestDeadEntityContributesNoSight(t *testing.T) {
	reg := NewRegistry(400)
	vis := NewVisibility(1000, 100)

	reg.Add(&Entity{
		Kind:        KindChampion,
		Side:        SideA,
		Alive:       false,
		SightRadius: 300,
	})
	vis.Update(reg)

	if vis.IsVisible(SideA, Vec2f{}) {
		t.Errorf("dead entity grants vision")
	}
}

func TestStealthNeedsTrueSight(t *testing.T) {
	reg := NewRegistry(400)
	vis := NewVisibility(1000, 100)

	ward := &Entity{
		Kind:             KindWard,
		Side:             SideA,
		Alive:            true,
		Position:         Vec2f{X: 100, Y: 0},
		SightRadius:      200,
		RequireTrueSight: true,
	}
	reg.Add(ward)

	scout := &Entity{
		Kind:        KindChampion,
		Side:        SideB,
		Alive:       true,
		Position:    Vec2f{X: 200, Y: 0},
		SightRadius: 400,
	}
	reg.Add(scout)
	vis.Update(reg)

	if !vis.IsVisible(SideB, ward.Position) {
		t.Fatalf("ward cell not even visible; test setup broken")
	}
	if vis.EntityVisible(SideB, ward) {
		t.Errorf("stealth ward observable without true sight")
	}
	if !vis.EntityVisible(SideA, ward) {
		t.Errorf("own team cannot observe own ward")
	}

	scout.TrueSight = true
	vis.Update(reg)
	if !vis.EntityVisible(SideB, ward) {
		t.Errorf("stealth ward hidden from collocated true sight")
	}
}

func TestEntityVisibleOutsideLitCells(t *testing.T) {
	reg := NewRegistry(400)
	vis := NewVisibility(1000, 100)

	reg.Add(&Entity{
		Kind:        KindChampion,
		Side:        SideA,
		Alive:       true,
		SightRadius: 150,
	})
	lurker := &Entity{
		Kind:     KindChampion,
		Side:     SideB,
		Alive:    true,
		Position: Vec2f{X: 600, Y: 0},
	}
	reg.Add(lurker)
	vis.Update(reg)

	if vis.EntityVisible(SideA, lurker) {
		t.Errorf("entity in fog observable")
	}
}
