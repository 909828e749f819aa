// Package config holds the viewer configuration. Values start from Defaults, may be loaded from
// a YAML file, and are then overridden by command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"rsframe-go/internal/kind"
)

type AppConfig struct {
	Port     int    `yaml:"port"`
	Endpoint string `yaml:"endpoint"`
	Workers  int    `yaml:"workers"`
	LogLevel string `yaml:"log_level"`

	// Simulate replaces the ZMQ source with the built-in frame generator.
	Simulate  bool     `yaml:"simulate"`
	SimRate   float64  `yaml:"sim_rate"`
	SimWidth  int      `yaml:"sim_width"`
	SimHeight int      `yaml:"sim_height"`
	Streams   []string `yaml:"streams"`

	UIRate         time.Duration `yaml:"ui_rate"`
	OutputDir      string        `yaml:"output_dir"`
	RawLogEnabled  bool          `yaml:"raw_log"`
	RawLogDir      string        `yaml:"raw_log_dir"`
	IngestLogEvery int           `yaml:"ingest_log_every"`
	IngestFallback bool          `yaml:"ingest_fallback"`
}

func Defaults() AppConfig {
	return AppConfig{
		Port:           8888,
		Endpoint:       "tcp://localhost:31001",
		Workers:        4,
		LogLevel:       "info",
		SimRate:        30,
		SimWidth:       64,
		SimHeight:      48,
		Streams:        []string{"color", "depth", "infrared", "gyro"},
		UIRate:         time.Second,
		OutputDir:      "output",
		RawLogDir:      "rawlog",
		IngestLogEvery: 100,
		IngestFallback: true,
	}
}

// LoadFromFile reads a YAML file over Defaults. Keys missing from the file keep their default.
func LoadFromFile(path string) (AppConfig, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

func (c AppConfig) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return errors.New("port must be between 1 and 65535")
	}
	if !c.Simulate && c.Endpoint == "" {
		return errors.New("endpoint cannot be empty unless simulating")
	}
	if c.Workers < 1 {
		return errors.New("workers must be at least 1")
	}
	validLogLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("unsupported log level %q", c.LogLevel)
	}
	if c.SimRate <= 0 {
		return errors.New("sim_rate must be positive")
	}
	if c.SimWidth < 2 || c.SimHeight < 2 {
		return errors.New("simulated frames must be at least 2x2")
	}
	if c.SimWidth%2 != 0 {
		return errors.New("sim_width must be even for packed chroma formats")
	}
	if len(c.Streams) == 0 {
		return errors.New("streams cannot be empty")
	}
	for _, s := range c.Streams {
		if _, err := kind.ParseStreamKind(s); err != nil {
			return err
		}
	}
	if c.IngestLogEvery < 1 {
		return errors.New("ingest_log_every must be at least 1")
	}
	return nil
}

// StreamKinds returns Streams parsed. Call Validate first.
func (c AppConfig) StreamKinds() []kind.StreamKind {
	out := make([]kind.StreamKind, 0, len(c.Streams))
	for _, s := range c.Streams {
		if k, err := kind.ParseStreamKind(s); err == nil {
			out = append(out, k)
		}
	}
	return out
}
