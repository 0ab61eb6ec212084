package wsutil

import "log/slog"

// SafeSend sends data to a channel without panicking if the channel is closed.
// If the channel is full or closed, the send is skipped.
func SafeSend(ch chan []byte, data []byte) bool {
	sent := false
	defer func() {
		if r := recover(); r != nil {
			slog.Debug("send on closed channel", "tag", "wsutil", "panic", r)
		}
	}()
	select {
	case ch <- data:
		sent = true
	default:
		slog.Debug("send buffer full, dropping message", "tag", "wsutil", "bytes", len(data))
	}
	return sent
}
