package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWriter_JSON(t *testing.T) {
	t.Cleanup(func() { InitWriter(&bytes.Buffer{}, false, FormatConsole) })

	var buf bytes.Buffer
	InitWriter(&buf, true, FormatJSON)
	assert.True(t, DebugEnabled())
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())

	log.Debug().Str("run_id", "r1").Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["message"])
	assert.Equal(t, "r1", entry["run_id"])
	assert.Equal(t, "debug", entry["level"])
}

func TestInitWriter_InfoLevelDropsDebug(t *testing.T) {
	t.Cleanup(func() { InitWriter(&bytes.Buffer{}, false, FormatConsole) })

	var buf bytes.Buffer
	InitWriter(&buf, false, FormatConsole)
	assert.False(t, DebugEnabled())

	log.Debug().Msg("hidden")
	assert.Empty(t, buf.String())

	log.Info().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}
