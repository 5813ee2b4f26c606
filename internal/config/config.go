package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/lightswitch/switchboard/internal/hardware"
	"github.com/lightswitch/switchboard/internal/output"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	WS       WSConfig       `yaml:"ws"`
	Hardware HardwareConfig `yaml:"hardware"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

type ServerConfig struct {
	Port           int      `yaml:"port"`
	Host           string   `yaml:"host"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	MaxConnections int      `yaml:"max_connections"`
}

type WSConfig struct {
	SendBuffer   int           `yaml:"send_buffer"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	PingInterval time.Duration `yaml:"ping_interval"`
	PongTimeout  time.Duration `yaml:"pong_timeout"`
	// ResyncInterval pushes a fresh snapshot to every session on this
	// period. Zero keeps the one-snapshot-per-session protocol.
	ResyncInterval time.Duration `yaml:"resync_interval"`
	// MaxPendingToggles caps the toggles one session may have in flight.
	// Requests past the cap are dropped.
	MaxPendingToggles int `yaml:"max_pending_toggles"`
}

type HardwareConfig struct {
	Driver string `yaml:"driver"`
	// Pins lists BCM pin numbers, most significant line first.
	Pins []int `yaml:"pins"`
	// Initial seeds the memory driver.
	Initial []int `yaml:"initial"`
}

type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 3000,
			Host: "0.0.0.0",
		},
		WS: WSConfig{
			SendBuffer:   64,
			WriteTimeout: 10 * time.Second,
			PingInterval: 30 * time.Second,
			PongTimeout:  60 * time.Second,

			MaxPendingToggles: 16,
		},
		Hardware: HardwareConfig{
			Driver: hardware.DriverMemory,
			Pins:   append([]int(nil), hardware.DefaultPins...),
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "switchboard",
		},
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	return defaultConfig()
}

// Load reads a YAML config over the defaults. A missing file yields the
// defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.MaxConnections < 0 {
		return fmt.Errorf("server.max_connections must not be negative")
	}

	switch c.Hardware.Driver {
	case hardware.DriverGPIO, hardware.DriverMemory:
	default:
		return fmt.Errorf("hardware.driver %q: want %q or %q", c.Hardware.Driver, hardware.DriverGPIO, hardware.DriverMemory)
	}
	if len(c.Hardware.Pins) != output.Lines {
		return fmt.Errorf("hardware.pins needs %d entries, got %d", output.Lines, len(c.Hardware.Pins))
	}
	seen := make(map[int]bool, len(c.Hardware.Pins))
	for _, p := range c.Hardware.Pins {
		if seen[p] {
			return fmt.Errorf("hardware.pins: pin %d listed twice", p)
		}
		seen[p] = true
	}
	if n := len(c.Hardware.Initial); n != 0 && n != output.Lines {
		return fmt.Errorf("hardware.initial needs %d entries, got %d", output.Lines, n)
	}
	for i, b := range c.Hardware.Initial {
		if b != 0 && b != 1 {
			return fmt.Errorf("hardware.initial[%d]: invalid bit %d", i, b)
		}
	}

	if c.WS.SendBuffer < 1 {
		return fmt.Errorf("ws.send_buffer must be at least 1")
	}
	if c.WS.WriteTimeout <= 0 || c.WS.PingInterval <= 0 || c.WS.PongTimeout <= 0 {
		return fmt.Errorf("ws timeouts must be positive")
	}
	if c.WS.PingInterval >= c.WS.PongTimeout {
		return fmt.Errorf("ws.ping_interval (%v) must be shorter than ws.pong_timeout (%v)", c.WS.PingInterval, c.WS.PongTimeout)
	}
	if c.WS.ResyncInterval < 0 {
		return fmt.Errorf("ws.resync_interval must not be negative")
	}
	if c.WS.MaxPendingToggles < 1 {
		return fmt.Errorf("ws.max_pending_toggles must be at least 1")
	}
	return nil
}

// HardwareOptions converts the hardware section for hardware.New.
func (c *Config) HardwareOptions() hardware.Options {
	opts := hardware.Options{
		Driver: c.Hardware.Driver,
		Pins:   c.Hardware.Pins,
	}
	for _, b := range c.Hardware.Initial {
		opts.Initial = append(opts.Initial, output.Bit(b))
	}
	return opts
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
