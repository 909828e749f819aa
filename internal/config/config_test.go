package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rsframe-go/internal/kind"
)

func TestDefaultsAreValid(t *testing.T) {
	require.NoError(t, Defaults().Validate())
}

func TestLoadFromFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rsframe.yaml")
	body := "port: 9000\nsimulate: true\nstreams: [depth, points]\nui_rate: 250ms\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Port)
	assert.True(t, cfg.Simulate)
	assert.Equal(t, 250*time.Millisecond, cfg.UIRate)
	assert.Equal(t, Defaults().Workers, cfg.Workers)
	assert.Error(t, cfg.Validate(), "points is not a stream kind")

	cfg.Streams = []string{"depth", "Accel"}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, []kind.StreamKind{kind.StreamDepth, kind.StreamAccel}, cfg.StreamKinds())
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(*AppConfig){
		"port":      func(c *AppConfig) { c.Port = 0 },
		"endpoint":  func(c *AppConfig) { c.Endpoint = "" },
		"workers":   func(c *AppConfig) { c.Workers = 0 },
		"log level": func(c *AppConfig) { c.LogLevel = "loud" },
		"odd width": func(c *AppConfig) { c.SimWidth = 63 },
		"streams":   func(c *AppConfig) { c.Streams = nil },
		"log every": func(c *AppConfig) { c.IngestLogEvery = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Defaults()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
