// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"math/rand"
	"strings"

	"github.com/riftlab/arena/server/world"
)

// Bot fills an empty seat and plays a crude lane game: shove towards the
// enemy nexus, spend skill points, acknowledge what must be acknowledged.
// All of its logic runs inline in its SendFunc, on the match goroutine.
type Bot struct {
	match  *Match
	viewer *Viewer
	r      *rand.Rand

	seq        uint32
	side       world.Side
	lastAck    world.EventID
	updates    int
	aggression float64 // how often the bot re-issues orders
}

var botNames = [...]string{
	"avalanche", "breaker", "cinder", "drift", "ember", "fable",
	"gale", "hollow", "iris", "jinx", "karma", "lumen",
	"mirage", "nomad", "onyx", "pyre", "quill", "raven",
	"sable", "tundra", "umbra", "vesper", "wisp", "zephyr",
}

func randomBotName(r *rand.Rand) string {
	name := botNames[r.Intn(len(botNames))]
	if prob(r, 0.1) {
		name = strings.ToUpper(name)
	}
	return name
}

// FillBots seats bots in every open slot of a waiting match. Champions are
// picked uniformly from the given ids.
func FillBots(match *Match, champions []string) {
	if len(champions) == 0 {
		return
	}
	r := getRand()
	defer poolRand(r)

	for {
		bot := &Bot{
			match:      match,
			r:          rand.New(rand.NewSource(r.Int63())),
			aggression: 0.5 + 0.5*r.Float64(),
		}
		viewer, err := match.Join(randomBotName(r), champions[r.Intn(len(champions))], bot.Send)
		if err != nil {
			return // full or already started
		}
		bot.viewer = viewer
	}
}

// Send is the bot's SendFunc. It reacts to what a real client would see.
func (bot *Bot) Send(out outbound) {
	switch data := out.(type) {
	case GameStart:
		bot.side = data.Side
		bot.match.Submit(bot.viewer, Ready{})
	case *StateUpdate:
		bot.observe(data)
	}
	out.Pool()
}

func (bot *Bot) observe(update *StateUpdate) {
	// Reliable events pile up unacknowledged otherwise.
	var highest world.EventID
	for _, event := range update.Events {
		if event.ID > highest {
			highest = event.ID
		}
	}
	if highest > bot.lastAck {
		bot.lastAck = highest
		bot.match.Submit(bot.viewer, EventAck{EventID: highest})
	}

	bot.updates++
	if bot.updates%30 == 0 && prob(bot.r, bot.aggression) {
		bot.seq++
		bot.match.Submit(bot.viewer, AttackMove{
			Command: Command{Seq: bot.seq},
			Target:  bot.objective(),
		})
	}
	if bot.updates%120 == 0 {
		// Harmless when no skill point is banked.
		bot.seq++
		bot.match.Submit(bot.viewer, LevelUp{
			Command: Command{Seq: bot.seq},
			Slot:    bot.r.Intn(3),
		})
	}
}

// objective is the enemy nexus with some wander, so bots don't stack on one
// pixel.
func (bot *Bot) objective() world.Vec2f {
	goal := bot.match.sim.Map().NexusOf(bot.side.Enemy())
	return goal.Add(world.Vec2f{
		X: float32(bot.r.Intn(601) - 300),
		Y: float32(bot.r.Intn(601) - 300),
	})
}
