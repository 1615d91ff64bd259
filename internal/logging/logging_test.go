package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "warn", Out: &buf})

	logger.Info().Msg("hidden")
	logger.Warn().Str("tool", "sauceswap_get_pools").Msg("visible")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"tool":"sauceswap_get_pools"`)
	assert.Contains(t, out, `"level":"warn"`)
}

func TestNewFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "loud", Out: &buf})
	logger.Debug().Msg("debug line")
	logger.Info().Msg("info line")

	assert.NotContains(t, buf.String(), "debug line")
	assert.Contains(t, buf.String(), "info line")
}

func TestNewRedactsSecrets(t *testing.T) {
	var buf bytes.Buffer
	secret := "302e020100300506032b6570042204201111"
	logger := New(Config{Level: "debug", Out: &buf, Secrets: []string{secret, "abc"}})

	logger.Debug().Str("key", secret).Str("short", "abc").Msg("loaded operator")

	out := buf.String()
	require.NotContains(t, out, secret)
	assert.Contains(t, out, "[REDACTED]")
	assert.Contains(t, out, `"short":"abc"`)
}
