// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"

	"github.com/riftlab/arena/server/world"
)

type matchState uint8

const (
	matchWaiting matchState = iota
	matchStarting
	matchPlaying
	matchEnded
)

const (
	inboundBacklog = 256
	// startTimeout bounds how long a match waits on slow loaders before
	// ticking anyway.
	startTimeout = 10 * time.Second
	// invariantPeriod is how often the core invariants are validated.
	invariantPeriod = 10 * time.Second
)

var (
	ErrMatchStarted = errors.New("match already started")
	ErrMatchFull    = errors.New("match full")
)

type (
	// Match owns one game: a simulation, its seats, and the loop that
	// drives both. All mutable state belongs to the match goroutine once
	// Start is called; other goroutines talk to it through channels.
	Match struct {
		ID  uuid.UUID
		cfg Config
		log *zap.Logger

		// Guards state and seats until the loop owns them.
		mu           sync.Mutex
		state        matchState
		viewers      map[world.PlayerID]*Viewer
		order        []world.PlayerID // join order, also broadcast order
		nextPlayerID world.PlayerID

		sim         *world.Simulation
		pipeline    *InputPipeline
		nextEventID world.EventID

		// Chats are buffered until next update.
		chats     []Chat
		teamChats [world.SideCount][]Chat

		inbound     chan signedInbound
		reconnects  chan reconnectRequest
		disconnects chan world.PlayerID
		done        chan struct{}
		stopOnce    sync.Once
		fillOnce    sync.Once // lobby bot fill scheduling
		onEnd       func(*Match)
		closeRules  func() // releases the per-match script engine

		startedAt  time.Time
		updateTime time.Time
		overruns   uint64
		dropped    uint64 // inbound channel overflow
	}

	reconnectRequest struct {
		playerID world.PlayerID
		send     SendFunc
	}
)

// NewMatch builds a match around a rules set. onEnd runs on the match
// goroutine after the final broadcast; the registry uses it to delist.
func NewMatch(cfg Config, rulesSet world.Rules, log *zap.Logger, onEnd func(*Match)) *Match {
	if log == nil {
		log = zap.NewNop()
	}
	id := uuid.Must(uuid.NewV4())
	log = log.With(zap.Stringer("match", id))

	seed := cfg.Match.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	simCfg := cfg.simConfig()

	// A scripted rules set holds a single-threaded Lua interpreter, so each
	// match binds its own view of the shared catalogue.
	closeRules := func() {}
	if scoped, ok := rulesSet.(interface {
		ForMatch(*zap.Logger) (world.Rules, func(), error)
	}); ok {
		matchRules, done, err := scoped.ForMatch(log)
		if err != nil {
			// The source compiled at load time; a failure here leaves the
			// match on the built-in ability behavior.
			log.Error("ability scripts disabled", zap.Error(err))
		} else {
			rulesSet = matchRules
			closeRules = done
		}
	}

	return &Match{
		ID:          id,
		cfg:         cfg,
		log:         log,
		state:       matchWaiting,
		viewers:     make(map[world.PlayerID]*Viewer),
		sim:         world.NewSimulation(simCfg, world.DefaultMap(), rulesSet, seed, log),
		pipeline:    NewInputPipeline(cfg.Input, cfg.Match.TickRate),
		inbound:     make(chan signedInbound, inboundBacklog),
		reconnects:  make(chan reconnectRequest, 8),
		disconnects: make(chan world.PlayerID, 8),
		done:        make(chan struct{}),
		onEnd:       onEnd,
		closeRules:  closeRules,
	}
}

// Join seats a player before the match starts. Sides are filled
// alternately; the returned viewer is the connection's handle for Submit.
func (m *Match) Join(name, champion string, send SendFunc) (*Viewer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != matchWaiting {
		return nil, ErrMatchStarted
	}
	if len(m.viewers) >= m.cfg.Match.MaxPlayers {
		return nil, ErrMatchFull
	}
	if _, ok := m.sim.Rules().Champion(champion); !ok {
		return nil, fmt.Errorf("unknown champion %q", champion)
	}

	clean, ok := sanitize(name, true, 1, 16)
	if !ok {
		clean = fmt.Sprintf("player-%d", m.nextPlayerID+1)
	}

	m.nextPlayerID++
	side := world.SideA
	if len(m.viewers)%2 == 1 {
		side = world.SideB
	}

	viewer := &Viewer{
		PlayerID:   m.nextPlayerID,
		Name:       clean,
		Side:       side,
		Champion:   champion,
		send:       send,
		connected:  true,
		reliable:   NewReliableQueue(m.cfg.Reliable, m.cfg.Match.TickRate),
		serializer: NewSerializer(m.cfg.Snapshot),
	}
	m.viewers[viewer.PlayerID] = viewer
	m.order = append(m.order, viewer.PlayerID)
	m.pipeline.AddPlayer(viewer.PlayerID)
	return viewer, nil
}

// Start spawns the world and the match goroutine. Ticking begins once every
// seat is ready or the start timeout expires.
func (m *Match) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.beginLocked(); err != nil {
		return err
	}
	go m.run()
	return nil
}

// beginLocked spawns the world and every seated champion, then broadcasts
// the initial GameStart. Callers hold mu.
func (m *Match) beginLocked() error {
	if m.state != matchWaiting {
		return ErrMatchStarted
	}
	if len(m.viewers) == 0 {
		return errors.New("no players")
	}

	if err := m.sim.SpawnWorld(); err != nil {
		return err
	}
	for _, playerID := range m.order {
		viewer := m.viewers[playerID]
		if _, err := m.sim.SpawnChampion(playerID, viewer.Champion, viewer.Side); err != nil {
			return err
		}
	}
	m.sim.Visibility().Update(m.sim.Registry())

	m.state = matchStarting
	m.startedAt = time.Now()

	for _, playerID := range m.order {
		m.viewers[playerID].Send(m.gameStart(playerID))
	}

	m.log.Info("match starting",
		zap.Int("players", len(m.viewers)),
		zap.Int("tickRate", m.cfg.Match.TickRate),
	)
	return nil
}

func (m *Match) gameStart(playerID world.PlayerID) GameStart {
	roster := make([]RosterEntry, 0, len(m.order))
	for _, pid := range m.order {
		viewer := m.viewers[pid]
		roster = append(roster, RosterEntry{
			PlayerID: pid,
			Name:     viewer.Name,
			Side:     viewer.Side,
			Champion: viewer.Champion,
		})
	}
	return GameStart{
		MatchID:    m.ID.String(),
		PlayerID:   playerID,
		Side:       m.viewers[playerID].Side,
		TickRate:   m.cfg.Match.TickRate,
		HalfExtent: m.sim.Map().HalfExtent,
		Roster:     roster,
		EntityID:   m.sim.ChampionID(playerID),
	}
}

// Submit routes one decoded inbound from a connection. Never blocks; when
// the match is drowning, inputs are dropped and the seq mechanism recovers.
func (m *Match) Submit(viewer *Viewer, in inbound) {
	select {
	case m.inbound <- signedInbound{Viewer: viewer, inbound: in}:
	default:
		m.dropped++
	}
}

// Disconnect detaches the connection. The champion keeps standing and the
// seat stays reserved for a reconnect.
func (m *Match) Disconnect(playerID world.PlayerID) {
	select {
	case m.disconnects <- playerID:
	case <-m.done:
	}
}

// Reconnect reattaches a connection to its seat. The viewer's baselines are
// reset so the next update is a full snapshot.
func (m *Match) Reconnect(playerID world.PlayerID, send SendFunc) {
	select {
	case m.reconnects <- reconnectRequest{playerID: playerID, send: send}:
	case <-m.done:
	}
}

// Stop tears the match down without a winner.
func (m *Match) Stop() {
	m.stopOnce.Do(func() { close(m.done) })
}

// Playing reports whether the match loop is consuming inputs.
func (m *Match) Playing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == matchPlaying || m.state == matchStarting
}

func (m *Match) run() {
	period := world.TickPeriodOf(m.cfg.Match.TickRate)
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	// No hook can run once the loop exits, so the interpreter goes with it.
	defer m.closeRules()

	m.updateTime = time.Now()

	for {
		select {
		case in := <-m.inbound:
			// Read all messages currently in the channel
			n := len(m.inbound)
			for {
				in.Inbound(m, in.Viewer)
				if n--; n <= 0 {
					break
				}
				in = <-m.inbound
			}
		case playerID := <-m.disconnects:
			if viewer := m.viewers[playerID]; viewer != nil {
				viewer.connected = false
				viewer.send = nil
				// Buffered orders must not fire minutes later on reconnect.
				m.pipeline.ClearPending(playerID)
				m.log.Info("player disconnected", zap.Uint32("player", uint32(playerID)))
			}
		case req := <-m.reconnects:
			viewer := m.viewers[req.playerID]
			if viewer == nil {
				break
			}
			viewer.send = req.send
			viewer.connected = true
			viewer.serializer.Reset()
			viewer.Send(m.gameStart(req.playerID))
			m.log.Info("player reconnected", zap.Uint32("player", uint32(req.playerID)))
		case <-ticker.C:
			now := time.Now()
			behind := now.Sub(m.updateTime)
			m.updateTime = now

			// Falling behind skip tick; the simulation never catches up by
			// running extra ticks.
			if behind > period*2 {
				m.overruns++
				break
			}

			if m.state == matchStarting {
				if !m.allReady() && now.Sub(m.startedAt) < startTimeout {
					break
				}
				m.setState(matchPlaying)
				m.log.Info("match playing")
			}
			if !m.tick() {
				// A broken invariant already ended the match in fail.
				if _, ended := m.sim.Winner(); ended {
					m.finish()
				}
				return
			}
		case <-m.done:
			m.log.Info("match stopped", zap.Uint64("overruns", m.overruns))
			m.setState(matchEnded)
			if m.onEnd != nil {
				m.onEnd(m)
			}
			return
		}
	}
}

func (m *Match) allReady() bool {
	for _, viewer := range m.viewers {
		if !viewer.ready {
			return false
		}
	}
	return true
}

func (m *Match) setState(state matchState) {
	m.mu.Lock()
	m.state = state
	m.mu.Unlock()
}

// tick advances one fixed step and broadcasts per-viewer updates. Returns
// false once the match has a winner.
func (m *Match) tick() bool {
	for _, queued := range m.pipeline.Drain(m.sim.Tick()) {
		if err := queued.Command.apply(m.sim, queued.PlayerID); err != nil {
			m.log.Debug("command rejected",
				zap.Uint32("player", uint32(queued.PlayerID)),
				zap.Error(err),
			)
		}
	}

	executed := m.sim.Update()
	m.sim.Visibility().Update(m.sim.Registry())

	events := m.sim.Bus().Drain()
	for i := range events {
		if !events[i].Type.Reliable() {
			continue
		}
		m.nextEventID++
		events[i].ID = m.nextEventID
		for _, playerID := range m.order {
			viewer := m.viewers[playerID]
			if !viewer.reliable.Push(events[i], executed) && viewer.connected {
				// An unacknowledged backlog this deep is unrecoverable.
				m.log.Warn("reliable queue overflow, dropping connection",
					zap.Uint32("player", uint32(playerID)),
				)
				viewer.connected = false
				viewer.send = nil
			}
		}
	}

	wallTime := float64(unixMillis())
	gameTime := executed.Seconds(m.sim.Dt())
	for _, playerID := range m.order {
		viewer := m.viewers[playerID]
		if !viewer.connected {
			continue
		}

		update := NewStateUpdate()
		update.Tick = executed
		update.WallTime = wallTime
		update.GameTime = gameTime
		update.Ack = m.pipeline.Ack(playerID)
		update.Entities = viewer.serializer.BuildDeltas(
			m.sim, viewer.Side, m.sim.ChampionOf(playerID), executed, update.Entities)

		for _, event := range events {
			if event.Type.Reliable() {
				continue // delivered through the reliable queue
			}
			if event.Type == world.EventPing && event.Payload["side"] != viewer.Side.String() {
				continue
			}
			update.Events = append(update.Events, event)
		}
		update.Events = viewer.reliable.Due(executed, update.Events)
		for _, event := range update.Events {
			if event.Type.Reliable() && event.ID > update.LastEventID {
				update.LastEventID = event.ID
			}
		}

		if len(m.chats) > 0 {
			update.Chats = append(update.Chats, m.chats...)
		}
		if team := m.teamChats[viewer.Side]; len(team) > 0 {
			update.Chats = append(update.Chats, team...)
		}

		viewer.Send(update)
	}

	m.chats = m.chats[:0]
	for side := range m.teamChats {
		m.teamChats[side] = m.teamChats[side][:0]
	}

	if executed%world.Ticks(float64(m.cfg.Match.TickRate)*invariantPeriod.Seconds()) == 0 {
		if err := m.sim.CheckInvariants(); err != nil {
			m.fail(err)
			return false
		}
	}

	_, ended := m.sim.Winner()
	return !ended
}

// fail ends the match on a broken core invariant. Unlike a normal finish
// there is no winner; every viewer gets an Error instead of a GameEnd.
func (m *Match) fail(err error) {
	m.log.Error("invariant violated, ending match",
		zap.Error(err),
		zap.Uint64("faults", m.sim.Faults()),
	)
	failure := Error{Kind: "invariant-violation", Detail: err.Error()}
	for _, playerID := range m.order {
		m.viewers[playerID].Send(failure)
	}
	m.setState(matchEnded)
	m.Stop()
	if m.onEnd != nil {
		m.onEnd(m)
	}
}

// finish broadcasts the outcome and delists the match.
func (m *Match) finish() {
	winner, _ := m.sim.Winner()

	scoreboard := make([]ScoreEntry, 0, len(m.order))
	for _, playerID := range m.order {
		viewer := m.viewers[playerID]
		level, kills, deaths, assists, gold, _ := m.sim.Progression(playerID)
		scoreboard = append(scoreboard, ScoreEntry{
			PlayerID: playerID,
			Name:     viewer.Name,
			Champion: viewer.Champion,
			Kills:    kills,
			Deaths:   deaths,
			Assists:  assists,
			Level:    level,
			Gold:     gold,
		})
	}

	end := GameEnd{Winner: winner, Tick: m.sim.Tick(), Scoreboard: scoreboard}
	for _, playerID := range m.order {
		m.viewers[playerID].Send(end)
	}

	m.setState(matchEnded)
	m.log.Info("match ended",
		zap.Stringer("winner", winner),
		zap.Uint64("overruns", m.overruns),
		zap.Uint64("faults", m.sim.Faults()),
	)
	m.Stop()
	if m.onEnd != nil {
		m.onEnd(m)
	}
}

// queueCommand feeds a sequenced input into the pipeline. Inputs before the
// match plays are discarded.
func (m *Match) queueCommand(viewer *Viewer, command playerCommand) {
	if m.state != matchPlaying {
		return
	}
	m.pipeline.Submit(viewer.PlayerID, command)
}

func (m *Match) handleChat(viewer *Viewer, data SendChat) {
	if len(data.Message) > 128 {
		return
	}

	// Allow spamming ones own team, since it is a small audience
	msg, ok := viewer.chatHistory.Update(data.Message, data.Team)
	if !ok {
		return
	}
	msg, ok = sanitize(msg, false, 1, 128)
	if !ok {
		return
	}

	chat := Chat{
		PlayerID: viewer.PlayerID,
		Name:     viewer.Name,
		Message:  msg,
		Team:     data.Team,
	}
	if data.Team {
		m.teamChats[viewer.Side] = append(m.teamChats[viewer.Side], chat)
	} else {
		m.chats = append(m.chats, chat)
	}
}

func (m *Match) handleReady(viewer *Viewer) {
	viewer.ready = true
}
