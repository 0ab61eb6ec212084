package ws

import (
	"encoding/json"
	"log/slog"

	"memory-match-server/confetti"
	"memory-match-server/game"
	"memory-match-server/wsutil"
)

// ClientRenderer draws a session onto a websocket client by queueing JSON
// messages on its send channel.
type ClientRenderer struct {
	c *Client
}

var (
	_ game.Renderer      = (*ClientRenderer)(nil)
	_ confetti.FrameSink = (*ClientRenderer)(nil)
)

// NewClientRenderer returns a renderer writing to c.
func NewClientRenderer(c *Client) *ClientRenderer {
	return &ClientRenderer{c: c}
}

func (r *ClientRenderer) Render(view game.RoundView) {
	r.send(view)
}

func (r *ClientRenderer) Notice(message string) {
	r.send(NoticeMsg{Type: "notice", Message: message})
}

func (r *ClientRenderer) RequestFrame(id uint64) {
	r.send(RequestFrameMsg{Type: "request_frame", FrameID: id})
}

// ConfettiFrame queues a particle snapshot. Frames are shed once the send
// buffer is half full so state and frame requests always find room.
func (r *ClientRenderer) ConfettiFrame(f confetti.Frame) {
	if 2*len(r.c.Send) >= cap(r.c.Send) {
		slog.Debug("send buffer backed up, skipping confetti frame", "tag", "ws", "buffered", len(r.c.Send))
		return
	}
	r.send(ConfettiFrameMsg{
		Type:      "confetti_frame",
		ElapsedMS: f.Elapsed.Milliseconds(),
		Particles: f.Particles,
	})
}

// SendSession announces the session id to the client.
func (r *ClientRenderer) SendSession(id, variant string) {
	r.send(SessionMsg{Type: "session", SessionID: id, Variant: variant})
}

// send queues v. A client that cannot take a message is disconnected rather
// than left with a gap in its state.
func (r *ClientRenderer) send(v any) {
	if r.c.dropped.Load() {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("marshal outbound message", "tag", "ws", "err", err)
		return
	}
	if !wsutil.SafeSend(r.c.Send, data) {
		r.c.dropSlow()
	}
}

