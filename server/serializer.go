// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"sort"

	"github.com/riftlab/arena/server/world"
)

type (
	// Serializer tracks one viewer's baselines and produces the minimal
	// entity deltas for each tick. An entity entering vision gets a full
	// snapshot; one leaving vision (fog, death or despawn) gets a removal
	// delta. Owned by the match goroutine.
	Serializer struct {
		prio      prioritizer
		baselines map[world.EntityID]*baseline
		// Scratch set reused across ticks to detect departures.
		seen map[world.EntityID]struct{}
	}

	baseline struct {
		snap *world.Snapshot
		kind world.EntityKind
		side world.Side
	}
)

func NewSerializer(cfg SnapshotConfig) *Serializer {
	return &Serializer{
		prio:      prioritizer{cfg: cfg},
		baselines: make(map[world.EntityID]*baseline),
		seen:      make(map[world.EntityID]struct{}),
	}
}

// Reset drops every baseline. The next BuildDeltas emits full snapshots for
// everything visible; used on reconnect.
func (serializer *Serializer) Reset() {
	clear(serializer.baselines)
}

// BuildDeltas appends this tick's deltas for the viewer to out. side is the
// viewer's fog side and viewerChampion its champion entity (nil while dead).
func (serializer *Serializer) BuildDeltas(
	sim *world.Simulation,
	side world.Side,
	viewerChampion *world.Entity,
	tick world.Ticks,
	out []EntityDelta,
) []EntityDelta {
	clear(serializer.seen)

	sim.Visibility().VisibleEntities(side, sim.Registry(), func(entity *world.Entity) (_ bool) {
		serializer.seen[entity.ID] = struct{}{}

		snap := entity.Snapshot()
		base := serializer.baselines[entity.ID]

		var mask world.ChangeMask
		if base == nil {
			mask = world.MaskAll
		} else {
			mask = snap.Diff(base.snap)
		}
		if mask == 0 {
			return
		}
		if !serializer.prio.include(tick, entity, viewerChampion, mask) {
			// Skipped, not lost: the baseline stays stale and the change
			// rides a later delta.
			return
		}

		// The delta is marshaled on the socket write pump after this tick is
		// long gone, so it must not alias the entity's live slices. One
		// clone serves as both the wire copy and the new baseline; neither
		// is mutated after this point.
		clone := snap.Clone()
		out = append(out, EntityDelta{
			ID:   entity.ID,
			Kind: entity.Kind,
			Side: entity.Side,
			Mask: mask,
			Snap: *clone,
		})
		if base == nil {
			serializer.baselines[entity.ID] = &baseline{
				snap: clone,
				kind: entity.Kind,
				side: entity.Side,
			}
		} else {
			base.snap = clone
		}
		return
	})

	// Anything with a baseline that was not seen this tick left the
	// viewer's world; one removal delta and the baseline is gone, so a
	// later re-entry is a fresh full snapshot.
	var removed []world.EntityID
	for id := range serializer.baselines {
		if _, ok := serializer.seen[id]; ok {
			continue
		}
		removed = append(removed, id)
		delete(serializer.baselines, id)
	}
	sort.Slice(removed, func(i, j int) bool { return removed[i] < removed[j] })
	for _, id := range removed {
		out = append(out, EntityDelta{ID: id, Mask: world.MaskRemoved})
	}
	return out
}

// Tracked is the number of entities the viewer currently has baselines for.
func (serializer *Serializer) Tracked() int { return len(serializer.baselines) }
