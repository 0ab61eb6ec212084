package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memory-match-server/config"
	"memory-match-server/sessions"
	"memory-match-server/storage"
	"memory-match-server/ws"
)

// testConfig returns a small, fast board: two pairs and short animations.
func testConfig() *config.Config {
	cfg := config.Defaults()
	cfg.PairCount = 2
	cfg.Animation = config.AnimationConfig{FlipMS: 10, ShakeDelayMS: 10, MismatchMS: 30, OpenMismatchMS: 20, SwitchSettleMS: 10}
	cfg.Celebration = config.CelebrationConfig{DurationMS: 50, GraceMS: 50, FrameMS: 5, ViewportWidth: 400, ViewportHeight: 300}
	cfg.ResumeWindowSec = 5
	return cfg
}

// setupTestServer creates a test HTTP server with the full server stack.
func setupTestServer(t *testing.T) (*httptest.Server, *storage.MemoryStore) {
	t.Helper()
	cfg := testConfig()
	history := storage.NewMemoryStore(0)
	mgr := sessions.NewManager(cfg, history, nil)

	ctx, cancel := context.WithCancel(context.Background())
	hub := ws.NewHub(cfg, mgr)
	go hub.Run(ctx)

	server := httptest.NewServer(newRouter(cfg, hub, history, mgr))
	t.Cleanup(func() {
		server.Close()
		mgr.Shutdown()
		cancel()
	})
	return server, history
}

// connectWS creates a WebSocket connection to the test server.
func connectWS(t *testing.T, server *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readMsg reads a JSON message from the WebSocket and returns it as a map.
// Frame requests are acknowledged on the way.
func readMsg(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg map[string]any
	require.NoError(t, json.Unmarshal(data, &msg), "data: %s", data)
	if msg["type"] == "request_frame" {
		sendMsg(t, conn, map[string]any{"type": "frame_ack", "frameId": msg["frameId"]})
	}
	return msg
}

// readUntil reads messages until match accepts one, and returns it.
func readUntil(t *testing.T, conn *websocket.Conn, match func(map[string]any) bool) map[string]any {
	t.Helper()
	for i := 0; i < 2000; i++ {
		if msg := readMsg(t, conn); match(msg) {
			return msg
		}
	}
	t.Fatal("message never arrived")
	return nil
}

func ofType(typ string) func(map[string]any) bool {
	return func(m map[string]any) bool { return m["type"] == typ }
}

// sendMsg sends a JSON message over the WebSocket.
func sendMsg(t *testing.T, conn *websocket.Conn, msg any) {
	t.Helper()
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

func unlockedRound(mode string) func(map[string]any) bool {
	return func(m map[string]any) bool {
		return m["type"] == "round_state" && m["mode"] == mode && m["locked"] == false
	}
}

// pairsByHint groups the open board's card indices by displayed value.
func pairsByHint(t *testing.T, state map[string]any) [][2]int {
	t.Helper()
	groups := make(map[string][]int)
	var order []string
	for _, raw := range state["cards"].([]any) {
		card := raw.(map[string]any)
		hint, _ := card["hint"].(string)
		require.NotEmpty(t, hint, "open fraction cards show their value")
		if _, ok := groups[hint]; !ok {
			order = append(order, hint)
		}
		groups[hint] = append(groups[hint], int(card["index"].(float64)))
	}
	var pairs [][2]int
	for _, h := range order {
		require.Len(t, groups[h], 2)
		pairs = append(pairs, [2]int{groups[h][0], groups[h][1]})
	}
	return pairs
}

func TestIntegration_OpenModeWin(t *testing.T) {
	server, history := setupTestServer(t)
	conn := connectWS(t, server, "?variant=fraction")

	session := readUntil(t, conn, ofType("session"))
	assert.Equal(t, "fraction", session["variant"])
	readUntil(t, conn, unlockedRound("closed"))

	sendMsg(t, conn, map[string]any{"type": "switch_mode"})
	state := readUntil(t, conn, unlockedRound("open"))
	assert.Equal(t, "Attempts", state["counterLabel"])
	assert.Equal(t, float64(120), state["timeLeft"])

	firstRound := state["roundId"]
	pairs := pairsByHint(t, state)
	require.Len(t, pairs, 2)
	for _, p := range pairs {
		sendMsg(t, conn, map[string]any{"type": "click", "index": p[0]})
		sendMsg(t, conn, map[string]any{"type": "click", "index": p[1]})
	}

	won := readUntil(t, conn, func(m map[string]any) bool {
		return m["type"] == "round_state" && m["matchedPairs"] == float64(2)
	})
	assert.Equal(t, float64(2), won["counter"])
	assert.Equal(t, true, won["locked"])

	readUntil(t, conn, ofType("confetti_frame"))

	next := readUntil(t, conn, func(m map[string]any) bool {
		return unlockedRound("open")(m) && m["roundId"] != firstRound
	})
	assert.Equal(t, float64(0), next["matchedPairs"])
	assert.Equal(t, float64(0), next["counter"])
	assert.Equal(t, true, next["boardOpen"])

	require.Eventually(t, func() bool {
		recs, _ := history.ListRecent(context.Background(), 10)
		return len(recs) == 1 && recs[0].Outcome == "won"
	}, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Get(server.URL + "/api/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	var stats struct {
		Modes []storage.ModeStats `json:"modes"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	require.Len(t, stats.Modes, 1)
	assert.Equal(t, "open", stats.Modes[0].Mode)
	assert.Equal(t, 1, stats.Modes[0].Won)
}

func TestIntegration_ClosedMismatch(t *testing.T) {
	server, _ := setupTestServer(t)
	conn := connectWS(t, server, "")
	state := readUntil(t, conn, unlockedRound("closed"))

	// Faces stay hidden until clicked.
	for _, raw := range state["cards"].([]any) {
		card := raw.(map[string]any)
		assert.Nil(t, card["payload"])
	}

	sendMsg(t, conn, map[string]any{"type": "click", "index": 0})
	first := readUntil(t, conn, func(m map[string]any) bool {
		return m["type"] == "round_state" && m["phase"] == "one_selected"
	})
	payload0 := first["cards"].([]any)[0].(map[string]any)["payload"]
	require.NotNil(t, payload0)

	// Find a card with a different face by flipping card 1; if it matches,
	// the two-pair board still leaves a mismatch to try with card 2.
	sendMsg(t, conn, map[string]any{"type": "click", "index": 1})
	second := readUntil(t, conn, func(m map[string]any) bool {
		return m["type"] == "round_state" && m["counter"] == float64(2)
	})
	card1 := second["cards"].([]any)[1].(map[string]any)
	if card1["state"] == "matched" {
		return
	}
	assert.Equal(t, "mismatched", card1["state"])
	assert.Equal(t, true, second["locked"])

	back := readUntil(t, conn, unlockedRound("closed"))
	assert.Equal(t, "hidden", back["cards"].([]any)[1].(map[string]any)["state"])
	assert.Equal(t, float64(2), back["counter"])
}

func TestIntegration_Resume(t *testing.T) {
	server, _ := setupTestServer(t)
	conn1 := connectWS(t, server, "")
	id := readUntil(t, conn1, ofType("session"))["sessionId"]
	readUntil(t, conn1, unlockedRound("closed"))
	sendMsg(t, conn1, map[string]any{"type": "click", "index": 3})
	readUntil(t, conn1, func(m map[string]any) bool { return m["phase"] == "one_selected" })
	conn1.Close()

	conn2 := connectWS(t, server, "")
	readUntil(t, conn2, ofType("session"))
	sendMsg(t, conn2, map[string]any{"type": "resume", "sessionId": id})

	resumed := readUntil(t, conn2, func(m map[string]any) bool {
		return m["type"] == "session" && m["sessionId"] == id
	})
	assert.Equal(t, "image", resumed["variant"])
	state := readUntil(t, conn2, func(m map[string]any) bool {
		return m["type"] == "round_state" && m["phase"] == "one_selected"
	})
	assert.Equal(t, float64(1), state["counter"])
}

func TestIntegration_ResumeUnknownSession(t *testing.T) {
	server, _ := setupTestServer(t)
	conn := connectWS(t, server, "")
	sendMsg(t, conn, map[string]any{"type": "resume", "sessionId": "missing"})
	msg := readUntil(t, conn, ofType("error"))
	assert.Equal(t, "Could not resume session.", msg["message"])
}

func TestIntegration_UnknownMessage(t *testing.T) {
	server, _ := setupTestServer(t)
	conn := connectWS(t, server, "")
	sendMsg(t, conn, map[string]any{"type": "set_name", "name": "Alice"})
	msg := readUntil(t, conn, ofType("error"))
	assert.Equal(t, "Unknown message type: set_name", msg["message"])
}

func TestIntegration_UnknownVariant(t *testing.T) {
	server, _ := setupTestServer(t)
	conn := connectWS(t, server, "?variant=emoji")
	msg := readUntil(t, conn, ofType("error"))
	assert.Contains(t, msg["message"], "unknown card variant")

	sendMsg(t, conn, map[string]any{"type": "click", "index": 0})
	msg = readUntil(t, conn, ofType("error"))
	assert.Equal(t, "You have no active session.", msg["message"])
}

func TestIntegration_Health(t *testing.T) {
	server, _ := setupTestServer(t)
	connectWS(t, server, "")

	require.Eventually(t, func() bool {
		resp, err := http.Get(server.URL + "/healthz")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		var body map[string]any
		if json.NewDecoder(resp.Body).Decode(&body) != nil {
			return false
		}
		return body["sessions"] == float64(1)
	}, 2*time.Second, 10*time.Millisecond)
}
