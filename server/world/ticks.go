// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package world

import "time"

const (
	// DefaultTickRate is the simulation rate in Hz when the config doesn't
	// override it.
	DefaultTickRate = 125
)

// Ticks is a match-local tick counter starting at 0.
// At 125 Hz a uint32 lasts over a year, so wrapping is not a concern.
type Ticks uint32

// TickPeriodOf returns the wall duration of one tick at the given rate.
func TickPeriodOf(rate int) time.Duration {
	if rate <= 0 {
		rate = DefaultTickRate
	}
	return time.Second / time.Duration(rate)
}

// Seconds converts a tick count to game seconds given the per-tick delta.
func (ticks Ticks) Seconds(dt float32) float32 {
	return float32(ticks) * dt
}

// ToTicks converts seconds to a tick count, rounding down.
func ToTicks(seconds float32, dt float32) Ticks {
	if seconds <= 0 || dt <= 0 {
		return 0
	}
	return Ticks(seconds / dt)
}
