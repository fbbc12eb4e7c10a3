// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"net/http"
	"time"

	"github.com/gofrs/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/riftlab/arena/server/world"
)

// API serves the process's HTTP surface: a status endpoint and the
// websocket entry point that seats players into matches.
type API struct {
	cfg      Config
	registry *MatchRegistry
	log      *zap.Logger
}

func NewAPI(cfg Config, registry *MatchRegistry, log *zap.Logger) *API {
	if log == nil {
		log = zap.NewNop()
	}
	return &API{cfg: cfg, registry: registry, log: log}
}

// Handler returns the route table.
func (api *API) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", api.serveStatus)
	mux.HandleFunc("/play", api.servePlay)
	return mux
}

type statusJSON struct {
	Matches int `json:"matches"`
}

func (api *API) serveStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Content-Type", "application/json")
	buf, err := json.Marshal(statusJSON{Matches: api.registry.Len()})
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	_, _ = w.Write(buf)
}

// servePlay upgrades the connection and seats the player. Query parameters:
// name and champion pick the seat; match targets a specific match id and
// player reconnects an existing seat in it.
func (api *API) servePlay(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	name := query.Get("name")
	champion := query.Get("champion")

	var match *Match
	if rawID := query.Get("match"); rawID != "" {
		id, err := uuid.FromString(rawID)
		if err != nil {
			http.Error(w, "bad match id", http.StatusBadRequest)
			return
		}
		if match = api.registry.Get(id); match == nil {
			http.Error(w, "no such match", http.StatusNotFound)
			return
		}
	}

	if rawPlayer := query.Get("player"); rawPlayer != "" {
		api.reconnect(w, r, match, rawPlayer)
		return
	}

	if match == nil {
		match = api.registry.FindWaiting()
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		api.log.Info("upgrade error", zap.Error(err))
		return
	}

	// The send func goes in through Join so the seat is never retouched
	// after the match can broadcast to it.
	client := NewSocketClient(conn, match, api.cfg.Server.CompressMin, api.log)
	viewer, err := match.Join(name, champion, client.Send)
	if err != nil {
		api.log.Info("join refused", zap.Error(err))
		_ = conn.WriteMessage(websocket.CloseMessage, nil)
		_ = conn.Close()
		return
	}
	client.register(viewer)
	client.Init()

	// A full lobby starts playing immediately; a partial one fills with
	// bots after the lobby wait.
	match.mu.Lock()
	full := len(match.viewers) >= match.cfg.Match.MaxPlayers && match.state == matchWaiting
	match.mu.Unlock()
	if full {
		if err := match.Start(); err != nil {
			api.log.Error("start failed", zap.Error(err))
		}
		return
	}
	api.scheduleBotFill(match)
}

// lobbyWait is how long a partially filled match waits for humans before
// bots take the remaining seats.
const lobbyWait = 15 * time.Second

func (api *API) scheduleBotFill(match *Match) {
	lister, ok := api.registry.rules.(interface{ ChampionIDs() []string })
	if !ok {
		return
	}
	match.fillOnce.Do(func() {
		go func() {
			select {
			case <-time.After(lobbyWait):
			case <-match.done:
				return
			}
			FillBots(match, lister.ChampionIDs())
			if err := match.Start(); err != nil && err != ErrMatchStarted {
				api.log.Error("start failed", zap.Error(err))
			}
		}()
	})
}

func (api *API) reconnect(w http.ResponseWriter, r *http.Request, match *Match, rawPlayer string) {
	if match == nil {
		http.Error(w, "reconnect needs a match id", http.StatusBadRequest)
		return
	}
	var playerID world.PlayerID
	for i := 0; i < len(rawPlayer); i++ {
		c := rawPlayer[i]
		if c < '0' || c > '9' {
			http.Error(w, "bad player id", http.StatusBadRequest)
			return
		}
		playerID = playerID*10 + world.PlayerID(c-'0')
	}

	match.mu.Lock()
	viewer := match.viewers[playerID]
	match.mu.Unlock()
	if viewer == nil {
		http.Error(w, "no such seat", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		api.log.Info("upgrade error", zap.Error(err))
		return
	}

	client := NewSocketClient(conn, match, api.cfg.Server.CompressMin, api.log)
	client.register(viewer)
	client.Init()
	match.Reconnect(playerID, client.Send)
}
