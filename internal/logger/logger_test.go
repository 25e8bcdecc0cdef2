package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONFormat(t *testing.T) {
	prev := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(prev) })

	var buf bytes.Buffer
	log := New(&buf, "info", "json")

	log.Debug().Msg("hidden")
	log.Info().Str("session_id", "s1").Msg("Session created")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line), "expected exactly one JSON line, got %q", buf.String())
	assert.Equal(t, "Session created", line["message"])
	assert.Equal(t, "s1", line["session_id"])
	assert.Equal(t, "info", line["level"])
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, parseLogLevel("DEBUG"))
	assert.Equal(t, zerolog.Disabled, parseLogLevel("off"))
	assert.Equal(t, zerolog.InfoLevel, parseLogLevel("nonsense"))
}
