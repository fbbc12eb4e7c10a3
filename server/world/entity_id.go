// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package world

import (
	"errors"
	"strconv"
)

const EntityIDInvalid = EntityID(0)

// EntityID is opaque, stable within a match, monotonically allocated by the
// registry, and never reused.
type EntityID uint32

// EventID is a per-match monotonically increasing identifier attached to
// events that require reliable delivery. Zero means unreliable.
type EventID uint32

// PlayerID identifies a participant within the process.
type PlayerID uint32

func (entityID EntityID) String() string {
	buf, err := entityID.MarshalText()
	if err != nil {
		return "invalid"
	}
	return string(buf)
}

func (entityID EntityID) MarshalText() ([]byte, error) {
	return entityID.AppendText(make([]byte, 0, 8)), nil
}

func (entityID EntityID) AppendText(buf []byte) []byte {
	// Short hex ids save bytes on the wire
	return strconv.AppendUint(buf, uint64(entityID), 16)
}

var entityIDInvalidErr = errors.New("invalid entity id")

func (entityID *EntityID) UnmarshalText(text []byte) error {
	i, err := strconv.ParseUint(string(text), 16, 32)
	*entityID = EntityID(i)
	if err == nil && *entityID == EntityIDInvalid {
		err = entityIDInvalidErr
	}
	return err
}
