// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package world

// MapDef is the match's static geometry: bounds, spawn points, structure
// positions and lane waypoints. The core never generates topology; this is
// configuration.
type MapDef struct {
	// HalfExtent bounds the navigable square [-HalfExtent, HalfExtent]².
	HalfExtent float32

	SpawnA Vec2f
	SpawnB Vec2f
	NexusA Vec2f
	NexusB Vec2f

	TowersA []Vec2f
	TowersB []Vec2f

	// Lanes are waypoint chains from side A's base towards side B's.
	// Side B minions walk them in reverse.
	Lanes [][]Vec2f

	// ShopRange is how far from the own spawn buying still works.
	ShopRange float32
}

// DefaultMap is a single-lane arena sized for tests and small matches.
func DefaultMap() MapDef {
	return MapDef{
		HalfExtent: 3000,
		SpawnA:     Vec2f{X: -2800, Y: 0},
		SpawnB:     Vec2f{X: 2800, Y: 0},
		NexusA:     Vec2f{X: -2600, Y: 0},
		NexusB:     Vec2f{X: 2600, Y: 0},
		TowersA:    []Vec2f{{X: -1800, Y: 0}, {X: -900, Y: 0}},
		TowersB:    []Vec2f{{X: 1800, Y: 0}, {X: 900, Y: 0}},
		Lanes: [][]Vec2f{
			{{X: -2400, Y: 0}, {X: 0, Y: 0}, {X: 2400, Y: 0}},
		},
		ShopRange: 500,
	}
}

// Clamp pulls a point back inside the navigable square.
func (def MapDef) Clamp(position Vec2f) Vec2f {
	position.X = clamp(position.X, -def.HalfExtent, def.HalfExtent)
	position.Y = clamp(position.Y, -def.HalfExtent, def.HalfExtent)
	return position
}

// SpawnOf returns the spawn point for a side.
func (def MapDef) SpawnOf(side Side) Vec2f {
	if side == SideB {
		return def.SpawnB
	}
	return def.SpawnA
}

// NexusOf returns the nexus position for a side.
func (def MapDef) NexusOf(side Side) Vec2f {
	if side == SideB {
		return def.NexusB
	}
	return def.NexusA
}

// TowersOf returns the tower positions for a side.
func (def MapDef) TowersOf(side Side) []Vec2f {
	if side == SideB {
		return def.TowersB
	}
	return def.TowersA
}
