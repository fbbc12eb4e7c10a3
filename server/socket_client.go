// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/golang/snappy"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 5 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 8) / 10

	// If more than this many messages are queued for sending, the
	// socket is congested and messages may be dropped
	socketCongestionThreshold = 5

	// Allows a short backlog of updates before the socket is considered
	// unresponsive and closed.
	socketBufferSize = 16

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // TODO: enforce the configured origin
	},
	HandshakeTimeout: time.Second,
	ReadBufferSize:   maxMessageSize,
	WriteBufferSize:  2048,
}

// SocketClient is a middleman between one websocket connection and a match
// seat. Its Send method is the viewer's SendFunc: it never blocks the match
// goroutine, dropping state updates under congestion instead.
type SocketClient struct {
	match       *Match
	viewer      *Viewer
	conn        *websocket.Conn
	log         *zap.Logger
	compressMin int
	send        chan outbound
	once        sync.Once
	counter     int // counts up every send
}

func NewSocketClient(conn *websocket.Conn, match *Match, compressMin int, log *zap.Logger) *SocketClient {
	if log == nil {
		log = zap.NewNop()
	}
	return &SocketClient{
		match:       match,
		conn:        conn,
		log:         log,
		compressMin: compressMin,
		send:        make(chan outbound, socketBufferSize),
	}
}

// register binds the seat. Send may already be queuing (it is handed to
// Join as the viewer's SendFunc); register must happen before Init starts
// the pumps.
func (client *SocketClient) register(viewer *Viewer) {
	client.viewer = viewer
	client.log = client.log.With(zap.Uint32("player", uint32(viewer.PlayerID)))
}

// Init starts the pumps.
func (client *SocketClient) Init() {
	go client.writePump()
	go client.readPump()
}

// Destroy closes the connection and detaches the seat. Safe to call from
// anywhere, any number of times; the seat survives for a reconnect.
func (client *SocketClient) Destroy() {
	client.once.Do(func() {
		client.match.Disconnect(client.viewer.PlayerID)
		// The send channel stays open; the match stops feeding it once the
		// disconnect lands and the write pump exits on the dead connection.
		_ = client.conn.Close()
	})
}

// Send queues one outbound message. State updates are droppable: the next
// tick supersedes them and the delta baselines resynchronize on their own.
func (client *SocketClient) Send(out outbound) {
	// How many messages there are in excess of a reasonable amount
	congestion := len(client.send) - socketCongestionThreshold

	client.counter++
	if congestion > 1 && client.counter%congestion != 0 {
		// Drop the message on the floor to let the socket catch up.
		// Reliable events ride the retry queue, so nothing is lost for good.
		client.log.Debug("dropping message due to congestion")
		out.Pool()
		return
	}

	select {
	case client.send <- out:
	default:
		client.log.Warn("socket not responsive, closing")
		out.Pool()
		client.Destroy()
	}
}

func (client *SocketClient) readPump() {
	defer client.Destroy()
	client.conn.SetReadLimit(maxMessageSize)
	_ = client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		_ = client.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, r, err := client.conn.NextReader()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				client.log.Info("close error", zap.Error(err))
			}
			break
		}

		var message Message
		err = json.NewDecoder(r).Decode(&message)
		if err != nil {
			client.log.Info("unmarshal error", zap.Error(err))
			break
		}

		if invalidMessage, ok := message.Data.(InvalidInbound); ok {
			client.log.Info("invalid message type received",
				zap.String("type", string(invalidMessage.messageType)))
		} else {
			client.match.Submit(client.viewer, message.Data.(inbound))
		}
	}
}

func (client *SocketClient) writePump() {
	pingTicker := time.NewTicker(pingPeriod)

	defer func() {
		if err := recover(); err != nil {
			client.log.Debug("send error", zap.Any("err", err))
		}
		pingTicker.Stop()
		client.Destroy()
	}()

	for {
		select {
		case out := <-client.send:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))

			// Wrap with Message to marshal type
			buf, err := json.Marshal(Message{Data: out})
			out.Pool()
			if err != nil {
				panic(err)
			}

			// Large frames go out snappy-compressed as binary; small ones
			// as plain text.
			if client.compressMin > 0 && len(buf) >= client.compressMin {
				err = client.conn.WriteMessage(websocket.BinaryMessage, snappy.Encode(nil, buf))
			} else {
				err = client.conn.WriteMessage(websocket.TextMessage, buf)
			}
			if err != nil {
				panic(err)
			}
		case <-pingTicker.C:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
