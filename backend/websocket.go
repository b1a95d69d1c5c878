// Copyright (c) 2026 TTBT Enterprises LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package backend

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512 * 1024

	// Time allowed for one event to be applied.
	dispatchWait = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	},
}

// Message types for WebSocket communication
const (
	MsgTypeState = "STATE"
	MsgTypeEvent = "EVENT"
	MsgTypePing  = "PING"
	MsgTypePong  = "PONG"
	MsgTypeError = "ERROR"
)

// Message represents a WebSocket message. The server sends STATE after every
// change; clients send EVENT to dispatch and PING to check the connection.
type Message struct {
	Type  string     `json:"type"`
	Event *Event     `json:"event,omitempty"`
	State *GameState `json:"state,omitempty"`
	Error string     `json:"error,omitempty"`
}

// wsClient is a middleman between the websocket connection and the session.
type wsClient struct {
	session *Session
	ac      *AccessControl
	sub     *Subscription

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of replies to this client only.
	send chan Message

	userId string
	debugf func(string, ...any)
}

// readPump pumps messages from the websocket connection to the session.
func (c *wsClient) readPump() {
	defer func() {
		c.session.Unsubscribe(c.sub)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		var msg Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("error: %v", err)
			}
			break
		}

		switch msg.Type {
		case MsgTypeEvent:
			c.handleEvent(msg)
		case MsgTypePing:
			c.sendJSON(Message{Type: MsgTypePong})
		default:
			log.Printf("Unknown message type: %s", msg.Type)
			c.sendJSON(Message{Type: MsgTypeError, Error: "Unknown message type"})
		}
	}
}

func (c *wsClient) handleEvent(msg Message) {
	if ok, reason := c.ac.CanWrite(c.userId); !ok {
		c.sendJSON(Message{Type: MsgTypeError, Error: reason})
		return
	}
	if msg.Event == nil {
		c.sendJSON(Message{Type: MsgTypeError, Error: "Malformed event: missing event"})
		return
	}
	if err := ValidateEvent(*msg.Event); err != nil {
		log.Printf("Invalid event from user %s: %v", maskEmail(c.userId), err)
		c.sendJSON(Message{Type: MsgTypeError, Error: "Malformed event: " + err.Error()})
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), dispatchWait)
	defer cancel()
	// The resulting state reaches every client, this one included, through
	// its subscription.
	if _, changed, err := c.session.Dispatch(ctx, *msg.Event); err != nil {
		c.sendJSON(Message{Type: MsgTypeError, Error: "Server error applying event: " + err.Error()})
	} else if !changed {
		c.debugf("%s from %s had no effect", msg.Event.Type, maskEmail(c.userId))
	}
}

// writePump pumps state updates and replies to the websocket connection.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case state, ok := <-c.sub.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The session closed the subscription.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(Message{Type: MsgTypeState, State: &state}); err != nil {
				return
			}

		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *wsClient) sendJSON(msg Message) {
	select {
	case c.send <- msg:
	default:
		// Channel full; the client is too slow to need this reply.
	}
}

// ServeWS handles websocket requests from the peer.
func ServeWS(session *Session, ac *AccessControl, w http.ResponseWriter, r *http.Request, debugf func(string, ...any)) {
	sub, err := session.Subscribe(r.Context())
	if err != nil {
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println(err)
		session.Unsubscribe(sub)
		return
	}

	client := &wsClient{
		session: session,
		ac:      ac,
		sub:     sub,
		conn:    conn,
		send:    make(chan Message, 256),
		userId:  getUserID(r),
		debugf:  debugf,
	}
	debugf("websocket connected: %s", maskEmail(client.userId))

	go client.writePump()
	go client.readPump()
}
