// Package config loads urftunes settings from a YAML file, a .env file and
// the environment, in that order of increasing precedence.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/james-see/urftunes/pkg/scheduler"
	"github.com/james-see/urftunes/pkg/seed"
	"github.com/james-see/urftunes/pkg/session"
)

// Environment variables that override the file.
const (
	EnvPort      = "URFTUNES_PORT"
	EnvLogLevel  = "URFTUNES_LOG_LEVEL"
	EnvTempoBase = "URFTUNES_TEMPO_BASE"
)

// Config holds the application configuration.
type Config struct {
	Tempo    TempoConfig       `yaml:"tempo"`
	Playback scheduler.Options `yaml:"playback"`
	MIDI     MIDIConfig        `yaml:"midi"`
	Server   ServerConfig      `yaml:"server"`
	LogLevel string            `yaml:"log_level"`
}

// TempoConfig is the tempo formula: base + weight * sum(keys).
type TempoConfig struct {
	Base   float64  `yaml:"base"`
	Weight float64  `yaml:"weight"`
	Keys   []string `yaml:"keys"`
}

type MIDIConfig struct {
	TicksPerQuarter uint16 `yaml:"ticks_per_quarter"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Tempo: TempoConfig{
			Base:   scheduler.DefaultTempoBase,
			Weight: scheduler.DefaultTempoWeight,
			Keys:   append([]string(nil), seed.TempoKeys...),
		},
		Playback: scheduler.DefaultOptions(),
		MIDI:     MIDIConfig{TicksPerQuarter: 480},
		Server:   ServerConfig{Port: 8080},
		LogLevel: "info",
	}
}

// Load reads path over the defaults, then applies the environment. An empty
// path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("config file not found: %s", path)
			}
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads a .env file into the environment when one exists.
func LoadDotEnv(files ...string) {
	if err := godotenv.Load(files...); err != nil {
		log.Debug("No .env file found, using environment variables")
	}
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPort, err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvTempoBase); v != "" {
		base, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTempoBase, err)
		}
		c.Tempo.Base = base
	}
	return nil
}

// Validate rejects settings that would make the scheduler fail.
func (c *Config) Validate() error {
	if c.Tempo.Base <= 0 {
		return fmt.Errorf("tempo base must be positive, got %v", c.Tempo.Base)
	}
	if c.Tempo.Weight < 0 {
		return fmt.Errorf("tempo weight must not be negative, got %v", c.Tempo.Weight)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.MIDI.TicksPerQuarter == 0 {
		return fmt.Errorf("midi ticks per quarter must be positive")
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ApplyLogLevel sets the logrus level from the config.
func (c *Config) ApplyLogLevel() {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

// Session returns the session settings the config describes.
func (c *Config) Session() session.Settings {
	keys := c.Tempo.Keys
	if len(keys) == 0 {
		keys = seed.TempoKeys
	}
	return session.Settings{
		TempoBase:   c.Tempo.Base,
		TempoWeight: c.Tempo.Weight,
		TempoKeys:   keys,
		Playback:    c.Playback,
	}
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
