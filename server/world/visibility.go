// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package world

import "github.com/chewxy/math32"

// CellState is the fog-of-war state of one visibility cell.
type CellState uint8

const (
	CellUnexplored CellState = iota
	CellExplored
	CellVisible
)

type (
	// Visibility holds one fog-of-war grid per side. Cells are recomputed
	// each tick from sighted-entity positions; once explored, a cell never
	// returns to unexplored for the remainder of the match.
	Visibility struct {
		sides    [SideCount]sideGrid
		cellSize float32
		origin   Vec2f // world position of cell (0,0) corner
		width    int
		height   int
	}

	sideGrid struct {
		visible  []uint64
		explored []uint64
		// True-sight sources collected during the last update, used to
		// resolve stealth without touching the registry again.
		trueSight []sightSource
	}

	sightSource struct {
		position Vec2f
		radius   float32
	}
)

// NewVisibility covers the square [-halfExtent, halfExtent]² with cells of
// cellSize units.
func NewVisibility(halfExtent, cellSize float32) *Visibility {
	if cellSize <= 0 {
		cellSize = 100
	}
	width := int(math32.Ceil(halfExtent*2/cellSize)) + 1
	vis := &Visibility{
		cellSize: cellSize,
		origin:   Vec2f{X: -halfExtent, Y: -halfExtent},
		width:    width,
		height:   width,
	}
	words := (width*width + 63) / 64
	for i := range vis.sides {
		vis.sides[i].visible = make([]uint64, words)
		vis.sides[i].explored = make([]uint64, words)
	}
	return vis
}

func (vis *Visibility) cellIndex(ix, iy int) (int, bool) {
	if ix < 0 || iy < 0 || ix >= vis.width || iy >= vis.height {
		return 0, false
	}
	return iy*vis.width + ix, true
}

func (vis *Visibility) cellOf(position Vec2f) (int, int) {
	local := position.Sub(vis.origin)
	return int(local.X / vis.cellSize), int(local.Y / vis.cellSize)
}

func (vis *Visibility) cellCenter(ix, iy int) Vec2f {
	return vis.origin.Add(Vec2f{
		X: (float32(ix) + 0.5) * vis.cellSize,
		Y: (float32(iy) + 0.5) * vis.cellSize,
	})
}

// Update recomputes the visible set for both sides from every living sighted
// entity, then folds it into the explored set. Cost is linear in sighted
// entities times cells per sight radius, not total cells.
func (vis *Visibility) Update(reg *Registry) {
	for s := range vis.sides {
		grid := &vis.sides[s]
		for i := range grid.visible {
			grid.visible[i] = 0
		}
		grid.trueSight = grid.trueSight[:0]
	}

	reg.ForEach(func(entity *Entity) (_ bool) {
		if !entity.Alive || entity.SightRadius <= 0 || !entity.Side.Valid() {
			return
		}
		grid := &vis.sides[entity.Side]
		vis.stamp(grid, entity.Position, entity.SightRadius)
		if entity.TrueSight {
			grid.trueSight = append(grid.trueSight, sightSource{
				position: entity.Position,
				radius:   entity.SightRadius,
			})
		}
		return
	})

	for s := range vis.sides {
		grid := &vis.sides[s]
		for i, word := range grid.visible {
			grid.explored[i] |= word
		}
	}
}

// stamp marks every cell whose center lies within radius of position,
// boundary inclusive.
func (vis *Visibility) stamp(grid *sideGrid, position Vec2f, radius float32) {
	minX, minY := vis.cellOf(position.Sub(Vec2f{X: radius, Y: radius}))
	maxX, maxY := vis.cellOf(position.Add(Vec2f{X: radius, Y: radius}))
	r2 := radius * radius

	for iy := minY; iy <= maxY; iy++ {
		for ix := minX; ix <= maxX; ix++ {
			idx, ok := vis.cellIndex(ix, iy)
			if !ok {
				continue
			}
			if vis.cellCenter(ix, iy).DistanceSquared(position) <= r2 {
				grid.visible[idx/64] |= 1 << (idx % 64)
			}
		}
	}
}

// IsVisible reports whether the cell containing position is currently
// visible to side.
func (vis *Visibility) IsVisible(side Side, position Vec2f) bool {
	if !side.Valid() {
		return false
	}
	ix, iy := vis.cellOf(position)
	idx, ok := vis.cellIndex(ix, iy)
	if !ok {
		return false
	}
	return vis.sides[side].visible[idx/64]&(1<<(idx%64)) != 0
}

// CellStateAt returns the three-state fog value for one cell.
func (vis *Visibility) CellStateAt(side Side, ix, iy int) CellState {
	if !side.Valid() {
		return CellUnexplored
	}
	idx, ok := vis.cellIndex(ix, iy)
	if !ok {
		return CellUnexplored
	}
	grid := &vis.sides[side]
	if grid.visible[idx/64]&(1<<(idx%64)) != 0 {
		return CellVisible
	}
	if grid.explored[idx/64]&(1<<(idx%64)) != 0 {
		return CellExplored
	}
	return CellUnexplored
}

// EntityVisible reports whether side may currently observe the entity.
// Friendly entities are always observable. Stealthed entities need a
// collocated true-sight source in addition to a visible cell.
func (vis *Visibility) EntityVisible(side Side, entity *Entity) bool {
	if entity.Side == side {
		return true
	}
	if !vis.IsVisible(side, entity.Position) {
		return false
	}
	if !entity.RequireTrueSight && !entity.Stealthed {
		return true
	}
	if !side.Valid() {
		return false
	}
	for _, source := range vis.sides[side].trueSight {
		if source.position.DistanceSquared(entity.Position) <= square(source.radius) {
			return true
		}
	}
	return false
}

// VisibleEntities calls fn for every registered entity side may observe,
// in kind update order.
func (vis *Visibility) VisibleEntities(side Side, reg *Registry, fn func(entity *Entity) (stop bool)) {
	reg.ForEach(func(entity *Entity) bool {
		if !vis.EntityVisible(side, entity) {
			return false
		}
		return fn(entity)
	})
}
