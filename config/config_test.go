package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	config, err := Load(filepath.Join("testdata", "config.toml"))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9000/tideapi.php", config.API.Endpoint)
	assert.Equal(t, "debug", config.Logging.Level)
	assert.Equal(t, "json", config.Logging.Format)
	assert.Equal(t, []string{"secret-token"}, config.Server.Tokens)
	assert.Equal(t, 50.0, config.Correction.FallbackDistanceKm)
	assert.Equal(t, "Depth", config.Correction.DepthColumn)

	// unset keys keep their defaults
	assert.Equal(t, "nb", config.API.Language)
	assert.Equal(t, "Latitude", config.Correction.LatitudeColumn)
	assert.Equal(t, "CD", config.Correction.RefCode)

	timeout, err := config.APITimeout()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, timeout)

	delay, err := config.CorrectionDelay()
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, delay)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "missing.toml"))
	assert.ErrorIs(t, err, ErrConfigNotFound)

	_, err = Load(filepath.Join("testdata", "invalid.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "correction.delay")
}

func TestLoadWithFallback(t *testing.T) {
	config, err := LoadWithFallback(filepath.Join("testdata", "config.toml"))
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9090", config.Server.Addr)

	_, err = LoadWithFallback(filepath.Join("testdata", "missing.toml"))
	assert.ErrorIs(t, err, ErrConfigNotFound)
}

func TestLoadOrDefault(t *testing.T) {
	t.Setenv("TIDE_SERVER_ADDR", ":7070")

	config, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, ":7070", config.Server.Addr)
	assert.Equal(t, "https://vannstand.kartverket.no/tideapi.php", config.API.Endpoint)

	// an explicit path that does not exist is an error
	_, err = LoadOrDefault(filepath.Join("testdata", "missing.toml"))
	assert.ErrorIs(t, err, ErrConfigNotFound)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"TIDE_API_ENDPOINT": "http://example.test/tideapi.php",
		"TIDE_LOG_LEVEL":    "warn",
		"TIDE_SQLITE_PATH":  "/tmp/archive.db",
		"TIDE_API_TOKENS":   "a, b,,c",
		"TIDE_FALLBACK_KM":  "25",
	}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}

	config := Default()
	require.NoError(t, config.ApplyEnv(lookup))

	assert.Equal(t, "http://example.test/tideapi.php", config.API.Endpoint)
	assert.Equal(t, "warn", config.Logging.Level)
	assert.Equal(t, "/tmp/archive.db", config.Storage.SqlitePath)
	assert.Equal(t, []string{"a", "b", "c"}, config.Server.Tokens)
	assert.Equal(t, 25.0, config.Correction.FallbackDistanceKm)

	env["TIDE_FALLBACK_KM"] = "far"
	assert.Error(t, Default().ApplyEnv(lookup))
}
