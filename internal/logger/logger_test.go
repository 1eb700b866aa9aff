package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_FormatAutoDetection(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		want        string
	}{
		{name: "production uses json", environment: "production", want: `"msg":"hello"`},
		{name: "development uses pretty", environment: "development", want: "INF"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := New(Config{Writer: &buf, Environment: tt.environment, Level: slog.LevelInfo})
			log.Info("hello")
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestPrettyHandler_AttrsAndGroups(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Format: formatPretty, Level: slog.LevelDebug})

	log.With(Component, ComponentStore).WithGroup("req").Debug("listing", OwnerID, "u1")

	out := buf.String()
	assert.Contains(t, out, "DBG")
	assert.Contains(t, out, "listing")
	assert.Contains(t, out, "component=store")
	assert.Contains(t, out, "req.owner_id=u1")
}

func TestPrettyHandler_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Format: formatPretty, Level: slog.LevelWarn})

	log.Info("quiet")
	assert.Empty(t, buf.String())

	log.Warn("loud")
	assert.Contains(t, buf.String(), "WRN")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}
