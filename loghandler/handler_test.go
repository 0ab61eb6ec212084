package loghandler

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompactHandler_Format(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewCompactHandler(&buf, slog.LevelInfo))

	log.Info("round won", "tag", "session", "counter", 16)

	line := buf.String()
	assert.Regexp(t, `^\d{4}/\d{2}/\d{2} \d{2}:\d{2}:\d{2} \[session\] round won counter=16\n$`, line)
}

func TestCompactHandler_Level(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewCompactHandler(&buf, slog.LevelInfo))

	log.Debug("hidden")
	assert.Empty(t, buf.String())

	log.Warn("careful", "tag", "storage")
	assert.Contains(t, buf.String(), "[WARN] [storage] careful")
}

func TestCompactHandler_WithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewCompactHandler(&buf, slog.LevelDebug)).
		With("tag", "ws", "client", 7).
		WithGroup("msg")

	log.Info("received", "type", "click")

	line := strings.TrimSpace(buf.String())
	assert.True(t, strings.HasSuffix(line, "[ws] received client=7 msg.type=click"), line)
}

func TestCompactHandler_DynamicLevel(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	lvl.Set(slog.LevelError)
	log := slog.New(NewCompactHandler(&buf, lvl))

	log.Info("quiet")
	assert.Empty(t, buf.String())

	lvl.Set(slog.LevelInfo)
	log.Info("loud")
	assert.Contains(t, buf.String(), "loud")
}
