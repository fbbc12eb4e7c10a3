// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package world

// EntityKind is the variant tag of an Entity. Kind-specific logic lives in
// the simulation's rule functions keyed by this tag.
type EntityKind uint8

const (
	KindTower EntityKind = iota
	KindNexus
	KindChampion
	KindMinion
	KindJungleCreature
	KindProjectile
	KindWard
	KindZone

	KindCount
)

// UpdateOrder is the deterministic per-tick iteration order:
// structures first, then champions, minions, jungle, projectiles,
// wards and zones last.
var UpdateOrder = [...]EntityKind{
	KindTower,
	KindNexus,
	KindChampion,
	KindMinion,
	KindJungleCreature,
	KindProjectile,
	KindWard,
	KindZone,
}

var kindNames = [KindCount]string{
	KindTower:          "tower",
	KindNexus:          "nexus",
	KindChampion:       "champion",
	KindMinion:         "minion",
	KindJungleCreature: "jungle",
	KindProjectile:     "projectile",
	KindWard:           "ward",
	KindZone:           "zone",
}

func (kind EntityKind) String() string {
	if kind >= KindCount {
		return "invalid"
	}
	return kindNames[kind]
}

func (kind EntityKind) MarshalText() ([]byte, error) {
	return []byte(kind.String()), nil
}
