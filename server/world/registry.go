// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package world

import (
	"errors"
	"fmt"
)

var ErrDuplicateID = errors.New("duplicate entity id")

// Registry stores entities keyed by opaque ids. Ids are allocated
// monotonically and never reused within a match. Iteration by kind is
// insertion ordered and stable within a tick.
type Registry struct {
	entities map[EntityID]*Entity
	byKind   [KindCount][]*Entity
	grid     *spatialGrid
	nextID   EntityID
}

func NewRegistry(gridCellSize float32) *Registry {
	return &Registry{
		entities: make(map[EntityID]*Entity),
		grid:     newSpatialGrid(gridCellSize),
		nextID:   1,
	}
}

func (reg *Registry) Count() int {
	return len(reg.entities)
}

// Add registers the entity, assigning the next id unless one is pre-assigned.
// A pre-assigned id that is already in use fails with ErrDuplicateID.
func (reg *Registry) Add(entity *Entity) (EntityID, error) {
	if entity.ID == EntityIDInvalid {
		entity.ID = reg.nextID
		reg.nextID++
	} else {
		if _, used := reg.entities[entity.ID]; used {
			return EntityIDInvalid, fmt.Errorf("%w: %s", ErrDuplicateID, entity.ID)
		}
		if entity.ID >= reg.nextID {
			reg.nextID = entity.ID + 1
		}
	}

	reg.entities[entity.ID] = entity
	reg.byKind[entity.Kind] = append(reg.byKind[entity.Kind], entity)
	reg.grid.insert(entity)
	return entity.ID, nil
}

// Remove drops the entity. Idempotent; removing an unknown id is a no-op.
func (reg *Registry) Remove(id EntityID) {
	entity, ok := reg.entities[id]
	if !ok {
		return
	}
	delete(reg.entities, id)
	reg.grid.remove(entity)

	kindList := reg.byKind[entity.Kind]
	for i, e := range kindList {
		if e == entity {
			// Preserve insertion order for deterministic iteration.
			copy(kindList[i:], kindList[i+1:])
			kindList[len(kindList)-1] = nil
			reg.byKind[entity.Kind] = kindList[:len(kindList)-1]
			break
		}
	}
}

// Get returns the entity or nil. Nil is a legitimate result; callers handle it.
func (reg *Registry) Get(id EntityID) *Entity {
	return reg.entities[id]
}

// ByKind returns the entities of one kind in insertion order.
// The slice is owned by the registry; callers must not retain it.
func (reg *Registry) ByKind(kind EntityKind) []*Entity {
	return reg.byKind[kind]
}

// ForEach visits every entity in kind update order.
func (reg *Registry) ForEach(fn func(entity *Entity) (stop bool)) {
	for _, kind := range UpdateOrder {
		for _, entity := range reg.byKind[kind] {
			if fn(entity) {
				return
			}
		}
	}
}

// ForInRadius visits every entity within radius of position, boundary
// inclusive. Backed by the uniform-grid spatial hash.
func (reg *Registry) ForInRadius(position Vec2f, radius float32, fn func(distanceSquared float32, entity *Entity) (stop bool)) bool {
	return reg.grid.forInRadius(position, radius, fn)
}

// Moved rewires the entity's spatial cell after a position change.
func (reg *Registry) Moved(entity *Entity) {
	reg.grid.rewire(entity)
}
