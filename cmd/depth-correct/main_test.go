package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/timgluz/tidevann/config"
)

func TestApplyFlags(t *testing.T) {
	cfg := config.Default()
	cfg.Correction.FallbackDistanceKm = 10

	applyFlags(cfg, options{fallbackKm: -1})
	assert.Equal(t, 10.0, cfg.Correction.FallbackDistanceKm)
	assert.Equal(t, "Dyp", cfg.Correction.DepthColumn)

	applyFlags(cfg, options{
		debug:      true,
		depthCol:   "Depth",
		timeZone:   "UTC",
		fallbackKm: 0,
		delay:      "PT1S",
	})
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "Depth", cfg.Correction.DepthColumn)
	assert.Equal(t, "UTC", cfg.Correction.TimeZone)
	assert.Equal(t, 0.0, cfg.Correction.FallbackDistanceKm)
	assert.Equal(t, "PT1S", cfg.Correction.Delay)
	assert.NoError(t, cfg.Validate())
}
