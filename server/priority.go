// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import "github.com/riftlab/arena/server/world"

// criticalMask marks the field families that must never be thinned: state
// transitions (death, KDA) reach every viewer the tick they happen.
const criticalMask = world.MaskState

// prioritizer decides whether a changed entity makes it into this tick's
// update for one viewer, based on distance to the viewer's champion.
// Distant entities update on a reduced cadence; the deltas accumulate
// against the stale baseline, nothing is lost.
type prioritizer struct {
	cfg SnapshotConfig
}

// interval returns the update cadence in ticks for an entity at squared
// distance d2 from the viewer.
func (prio *prioritizer) interval(d2 float32) world.Ticks {
	switch {
	case d2 <= prio.cfg.NearRadius*prio.cfg.NearRadius:
		return 1
	case d2 <= prio.cfg.MidRadius*prio.cfg.MidRadius:
		return world.Ticks(prio.cfg.MidInterval)
	default:
		return world.Ticks(prio.cfg.FarInterval)
	}
}

// include reports whether an entity with pending changes is sent this tick.
// Own entities, first contacts and critical changes always pass; the rest
// pass on their cadence, phase-spread by entity id so tiers don't burst.
func (prio *prioritizer) include(tick world.Ticks, entity *world.Entity, viewer *world.Entity, mask world.ChangeMask) bool {
	if mask&world.MaskAll == world.MaskAll {
		return true
	}
	if mask&criticalMask != 0 {
		return true
	}
	if viewer == nil {
		return true
	}
	if entity.Owner != 0 && entity.Owner == viewer.Owner {
		return true
	}
	interval := prio.interval(entity.Position.DistanceSquared(viewer.Position))
	if interval <= 1 {
		return true
	}
	return (tick+world.Ticks(entity.ID))%interval == 0
}
