package ws

import (
	"encoding/json"

	"memory-match-server/confetti"
)

// InboundEnvelope is the generic envelope for all client-to-server messages.
// The Type field is used for routing; Raw holds the full JSON payload.
type InboundEnvelope struct {
	Type string          `json:"type"`
	Raw  json.RawMessage `json:"-"`
}

// UnmarshalJSON implements custom unmarshaling to capture the raw payload.
func (e *InboundEnvelope) UnmarshalJSON(data []byte) error {
	type typeOnly struct {
		Type string `json:"type"`
	}
	var t typeOnly
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	e.Type = t.Type
	e.Raw = json.RawMessage(data)
	return nil
}

// --- Client-to-Server message payloads ---

// ClickMsg is sent by the client when a card is clicked.
type ClickMsg struct {
	Type  string `json:"type"`
	Index int    `json:"index"`
}

// FrameAckMsg acknowledges that the frame requested with FrameID is on screen.
type FrameAckMsg struct {
	Type    string `json:"type"`
	FrameID uint64 `json:"frameId"`
}

// ResumeMsg reattaches the connection to a session after a reconnect or
// page refresh.
type ResumeMsg struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
}

// switch_mode and restart carry no payload.

// --- Server-to-Client messages ---

// SessionMsg tells the client which session it is playing, for a later resume.
type SessionMsg struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
	Variant   string `json:"variant"`
}

// NoticeMsg is a short message shown to the player, such as the time-up alert.
type NoticeMsg struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// RequestFrameMsg asks the client to answer with frame_ack once everything
// sent before it has been painted.
type RequestFrameMsg struct {
	Type    string `json:"type"`
	FrameID uint64 `json:"frameId"`
}

// ConfettiFrameMsg carries one frame of the win celebration.
type ConfettiFrameMsg struct {
	Type      string              `json:"type"`
	ElapsedMS int64               `json:"elapsedMs"`
	Particles []confetti.Particle `json:"particles"`
}

// ErrorMsg is sent when a client action is invalid.
type ErrorMsg struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
