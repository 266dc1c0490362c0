package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Setenv("TEST_REDIS_ADDR", "localhost:6379")

	path := writeFile(t, "config.yaml", `
api:
  port: 8081
redis:
  address: "${TEST_REDIS_ADDR}"
  cache_ttl_seconds: 30
engine:
  days_ahead: 5
  status_interval_seconds: 120
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.API.Port)
	assert.Equal(t, "localhost:6379", cfg.Redis.Address)
	assert.Equal(t, 5, cfg.Engine.DaysAhead)
	assert.Equal(t, 2*time.Minute, cfg.StatusInterval())
	assert.Equal(t, 30*time.Second, cfg.CacheTTL())
	assert.Equal(t, "configs/lots.yaml", cfg.LotsConfigPath)
}

func TestLoad_Defaults(t *testing.T) {
	path := writeFile(t, "config.yaml", "api:\n  port: 8080\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, time.Minute, cfg.StatusInterval())
	assert.Equal(t, time.Duration(0), cfg.CacheTTL())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadLotsConfig(t *testing.T) {
	path := writeFile(t, "lots.yaml", `
lots:
  - id: lot1
    name: Test Garage
    capacity:
      normal: 10
    floors: [F1]
    supported_types: [normal]
    schedule:
      - open: "0 8 * * 1-5"
        close: "0 20 * * 1-5"
`)

	cfg, err := LoadLotsConfig(path)
	require.NoError(t, err)
	require.Len(t, cfg.Lots, 1)

	lots := cfg.ToModel()
	require.Len(t, lots, 1)
	assert.Equal(t, "lot1", lots[0].ID)
	assert.Equal(t, 10, lots[0].Capacity.Normal)
	require.Len(t, lots[0].Schedule, 1)
}

func TestLoadLotsConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty catalog", "lots: []\n"},
		{"missing id", "lots:\n  - name: X\n    supported_types: [normal]\n"},
		{"duplicate id", `
lots:
  - id: a
    name: X
    supported_types: [normal]
  - id: a
    name: Y
    supported_types: [normal]
`},
		{"missing name", "lots:\n  - id: a\n    supported_types: [normal]\n"},
		{"no vehicle types", "lots:\n  - id: a\n    name: X\n"},
		{"unknown vehicle type", "lots:\n  - id: a\n    name: X\n    supported_types: [hovercraft]\n"},
		{"malformed schedule", `
lots:
  - id: a
    name: X
    supported_types: [normal]
    schedule:
      - open: "bad"
        close: "worse"
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "lots.yaml", tt.yaml)
			_, err := LoadLotsConfig(path)
			assert.Error(t, err)
		})
	}
}
