// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import "github.com/riftlab/arena/server/world"

// SendFunc delivers one outbound message to a connection. It must not
// block; implementations buffer internally and drop on overflow. The
// message is owned by the callee, which calls Pool when done.
type SendFunc func(out outbound)

// Viewer is one seat of a match: the player's identity plus everything the
// server tracks to feed their connection. Fields are owned by the match
// goroutine once the match is running; sockets only read PlayerID.
type Viewer struct {
	PlayerID world.PlayerID
	Name     string
	Side     world.Side
	Champion string

	send      SendFunc
	connected bool
	ready     bool

	reliable    *ReliableQueue
	serializer  *Serializer
	chatHistory ChatHistory
}

// Send forwards to the connection, or pools the message while disconnected.
func (viewer *Viewer) Send(out outbound) {
	if viewer.connected && viewer.send != nil {
		viewer.send(out)
		return
	}
	out.Pool()
}

// Connected reports whether a connection currently backs this seat.
func (viewer *Viewer) Connected() bool { return viewer.connected }
