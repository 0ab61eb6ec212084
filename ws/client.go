package ws

import (
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"memory-match-server/game"
	"memory-match-server/wsutil"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096
)

// Client is a middleman between the websocket connection and its session.
type Client struct {
	Hub  *Hub
	Conn *websocket.Conn
	Send chan []byte

	mu      sync.Mutex
	session *game.Session

	closeOnce sync.Once
	dropped   atomic.Bool
}

// dropSlow closes the connection of a client whose send buffer overflowed.
// The read pump then unregisters it and its session waits for a resume.
func (c *Client) dropSlow() {
	c.closeOnce.Do(func() {
		c.dropped.Store(true)
		slog.Warn("send buffer full, closing slow client", "tag", "ws", "buffered", len(c.Send))
		if c.Conn != nil {
			c.Conn.Close()
		}
	})
}

// Session returns the session the client currently plays, or nil.
func (c *Client) Session() *game.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// SetSession binds the client to s.
func (c *Client) SetSession(s *game.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = s
}

// Release unbinds c from s if c still plays it and tells the peer why.
// Later input from c no longer reaches s.
func (c *Client) Release(s *game.Session, reason string) {
	c.mu.Lock()
	if c.session != s {
		c.mu.Unlock()
		return
	}
	c.session = nil
	c.mu.Unlock()
	c.sendError(reason)
}

// ReadPump pumps messages from the websocket connection to the session.
// It runs in its own goroutine per connection.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("websocket read error", "tag", "ws", "err", err)
			}
			break
		}

		c.handleMessage(message)
	}
}

// WritePump pumps messages from the send channel to the websocket connection.
// It runs in its own goroutine per connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(data []byte) {
	var envelope InboundEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		c.sendError("Invalid message format.")
		return
	}

	switch envelope.Type {
	case "click":
		var msg ClickMsg
		if err := json.Unmarshal(envelope.Raw, &msg); err != nil {
			c.sendError("Invalid click message.")
			return
		}
		c.post(game.Action{Type: game.ActionClick, Index: msg.Index})
	case "switch_mode":
		c.post(game.Action{Type: game.ActionSwitchMode})
	case "restart":
		c.post(game.Action{Type: game.ActionRestart})
	case "frame_ack":
		var msg FrameAckMsg
		if err := json.Unmarshal(envelope.Raw, &msg); err != nil {
			c.sendError("Invalid frame_ack message.")
			return
		}
		c.post(game.Action{Type: game.ActionFrameAck, FrameID: msg.FrameID})
	case "resume":
		c.handleResume(envelope.Raw)
	default:
		c.sendError("Unknown message type: " + envelope.Type)
	}
}

func (c *Client) post(a game.Action) {
	s := c.Session()
	if s == nil {
		c.sendError("You have no active session.")
		return
	}
	if !s.Post(a) {
		c.sendError("Session has ended.")
	}
}

func (c *Client) handleResume(raw json.RawMessage) {
	var msg ResumeMsg
	if err := json.Unmarshal(raw, &msg); err != nil || msg.SessionID == "" {
		c.sendError("Invalid resume message.")
		return
	}
	if _, err := c.Hub.Sessions.Resume(msg.SessionID, c); err != nil {
		slog.Info("resume rejected", "tag", "ws", "session", msg.SessionID, "err", err)
		c.sendError("Could not resume session.")
	}
}

func (c *Client) sendError(message string) {
	data, _ := json.Marshal(ErrorMsg{Type: "error", Message: message})
	wsutil.SafeSend(c.Send, data)
}
