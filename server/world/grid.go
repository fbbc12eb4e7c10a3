// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package world

import "math"

// spatialGrid is a uniform-grid spatial hash over entity positions.
// Cell size is chosen to match typical query radii so most queries touch a
// 3x3 neighbourhood. Entities are rewired in place when they cross a cell
// boundary; the grid is never rebuilt wholesale.
type spatialGrid struct {
	cells map[gridCell][]*Entity
	size  float32
}

type gridCell struct {
	x, y int32
}

func newSpatialGrid(cellSize float32) *spatialGrid {
	if cellSize <= 0 {
		cellSize = 400
	}
	return &spatialGrid{
		cells: make(map[gridCell][]*Entity),
		size:  cellSize,
	}
}

func (grid *spatialGrid) cellAt(position Vec2f) gridCell {
	return gridCell{
		x: int32(math.Floor(float64(position.X / grid.size))),
		y: int32(math.Floor(float64(position.Y / grid.size))),
	}
}

func (grid *spatialGrid) insert(entity *Entity) {
	cell := grid.cellAt(entity.Position)
	entity.cell = cell
	grid.cells[cell] = append(grid.cells[cell], entity)
}

func (grid *spatialGrid) remove(entity *Entity) {
	bucket := grid.cells[entity.cell]
	for i, e := range bucket {
		if e == entity {
			bucket[i] = bucket[len(bucket)-1]
			bucket = bucket[:len(bucket)-1]
			break
		}
	}
	if len(bucket) == 0 {
		delete(grid.cells, entity.cell)
	} else {
		grid.cells[entity.cell] = bucket
	}
}

// rewire moves the entity to its current cell if it crossed a boundary.
func (grid *spatialGrid) rewire(entity *Entity) {
	cell := grid.cellAt(entity.Position)
	if cell == entity.cell {
		return
	}
	grid.remove(entity)
	entity.cell = cell
	grid.cells[cell] = append(grid.cells[cell], entity)
}

// forInRadius calls fn for every entity within radius of position
// (boundary inclusive). Iteration order within a cell is insertion order.
func (grid *spatialGrid) forInRadius(position Vec2f, radius float32, fn func(distanceSquared float32, entity *Entity) (stop bool)) bool {
	minCell := grid.cellAt(position.Sub(Vec2f{X: radius, Y: radius}))
	maxCell := grid.cellAt(position.Add(Vec2f{X: radius, Y: radius}))
	r2 := radius * radius

	for y := minCell.y; y <= maxCell.y; y++ {
		for x := minCell.x; x <= maxCell.x; x++ {
			for _, entity := range grid.cells[gridCell{x: x, y: y}] {
				d2 := position.DistanceSquared(entity.Position)
				if d2 > r2 {
					continue
				}
				if fn(d2, entity) {
					return true
				}
			}
		}
	}
	return false
}
