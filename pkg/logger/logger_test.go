package logx

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicecv-core/server/internal/core"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "", Truncate("hello", 0))
	assert.Equal(t, "hello", Truncate("  hello  ", 10))
	assert.Equal(t, "hel...", Truncate("hello", 3))
	assert.Equal(t, "नम...", Truncate("नमस्ते", 2))
}

func TestInitProduction(t *testing.T) {
	saved := log.Logger
	t.Cleanup(func() { log.Logger = saved })

	var buf bytes.Buffer
	Init(LoggerOpts{Environment: core.Production, Service: "voicecv", Output: &buf})

	Debug().Msg("dropped")
	Info().Str("session_id", "s-1").Msg("turn handled")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "turn handled", line["message"])
	assert.Equal(t, "voicecv", line["service"])
	assert.Equal(t, "production", line["env"])
	assert.Equal(t, "s-1", line["session_id"])
}

func TestInitTestingSuppressesInfo(t *testing.T) {
	saved := log.Logger
	t.Cleanup(func() { log.Logger = saved })

	var buf bytes.Buffer
	Init(LoggerOpts{Environment: core.Testing, Output: &buf})

	Info().Msg("quiet")
	assert.Empty(t, buf.String())
	Warn().Msg("loud")
	assert.Contains(t, buf.String(), "loud")
}
