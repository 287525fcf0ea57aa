package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "urftunes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefault(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 80.0, cfg.Tempo.Base)
	assert.Equal(t, 1.5, cfg.Tempo.Weight)
	assert.Equal(t, 1, cfg.Playback.IntroBars)
	assert.Equal(t, uint16(480), cfg.MIDI.TicksPerQuarter)
	assert.Equal(t, ":8080", cfg.Addr())
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
tempo:
  base: 100
  weight: 2
playback:
  intro_bars: 2
server:
  port: 9000
log_level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 100.0, cfg.Tempo.Base)
	assert.Equal(t, 2.0, cfg.Tempo.Weight)
	assert.Equal(t, 2, cfg.Playback.IntroBars)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Len(t, cfg.Session().TempoKeys, 4)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvPort, "7000")
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvTempoBase, "120")

	cfg, err := Load(writeConfig(t, "server:\n  port: 9000\n"))
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 120.0, cfg.Session().TempoBase)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		env  map[string]string
	}{
		{"bad yaml", "tempo: [", nil},
		{"zero base", "tempo:\n  base: 0\n", nil},
		{"bad port", "server:\n  port: 70000\n", nil},
		{"bad level", "log_level: loud\n", nil},
		{"bad env port", "", map[string]string{EnvPort: "eighty"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
