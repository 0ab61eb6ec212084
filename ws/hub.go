package ws

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"memory-match-server/config"
	"memory-match-server/game"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow all origins for development; restrict in production.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// SessionManager defines what the Hub needs from the session manager.
type SessionManager interface {
	Start(c *Client, variant string) (*game.Session, error)
	Resume(sessionID string, c *Client) (*game.Session, error)
	Detach(c *Client)
}

// Hub maintains the set of active clients and hands them to sessions.
type Hub struct {
	Clients    map[*Client]bool
	Register   chan *Client
	Unregister chan *Client
	Sessions   SessionManager
	Config     *config.Config
}

// NewHub creates a new Hub.
func NewHub(cfg *config.Config, sm SessionManager) *Hub {
	return &Hub{
		Clients:    make(map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Sessions:   sm,
		Config:     cfg,
	}
}

// Run starts the hub's main loop. Should be run as a goroutine.
// When ctx is cancelled (e.g. on server shutdown), Run returns and no longer accepts new registrations.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			slog.Info("shutdown signal received, stopping hub", "tag", "ws")
			return
		case client := <-h.Register:
			h.Clients[client] = true
			slog.Info("client connected", "tag", "ws", "clients", len(h.Clients))

		case client := <-h.Unregister:
			if _, ok := h.Clients[client]; ok {
				delete(h.Clients, client)
				close(client.Send)
				slog.Info("client disconnected", "tag", "ws", "clients", len(h.Clients))

				// Keep the session for a resume; the manager expires it later.
				h.Sessions.Detach(client)
			}
		}
	}
}

// ServeWS handles WebSocket upgrade requests, creates a new Client and deals
// it a fresh session. The optional "variant" query parameter picks the card
// catalog.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "tag", "ws", "err", err)
		return
	}

	client := &Client{
		Hub:  h,
		Conn: conn,
		Send: make(chan []byte, 256),
	}

	if _, err := h.Sessions.Start(client, r.URL.Query().Get("variant")); err != nil {
		slog.Warn("session start failed", "tag", "ws", "err", err)
		client.sendError(err.Error())
	}

	h.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
