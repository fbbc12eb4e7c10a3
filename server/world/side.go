// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package world

// Side is a team identifier. The simulation is two-sided; neutral entities
// (jungle camps) own no visibility grid.
type Side int8

const (
	SideA    Side = 0
	SideB    Side = 1
	SideNone Side = -1

	// SideCount is the number of sides that own a visibility grid.
	SideCount = 2
)

func (side Side) Valid() bool {
	return side == SideA || side == SideB
}

// Enemy returns the opposing side. Neutral has no enemy.
func (side Side) Enemy() Side {
	switch side {
	case SideA:
		return SideB
	case SideB:
		return SideA
	}
	return SideNone
}

func (side Side) String() string {
	switch side {
	case SideA:
		return "a"
	case SideB:
		return "b"
	}
	return "none"
}
