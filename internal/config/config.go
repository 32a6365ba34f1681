package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "weft.json"

	// DefaultAddr is the default live server listen address.
	DefaultAddr = ":8480"
)

// Config represents the complete weft.json configuration.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty"`

	// Version is the project version.
	Version string `json:"version,omitempty"`

	// Server contains live server settings.
	Server ServerConfig `json:"server,omitempty"`

	// Runtime contains update scheduling settings.
	Runtime RuntimeConfig `json:"runtime,omitempty"`

	// Telemetry contains metrics and tracing settings.
	Telemetry TelemetryConfig `json:"telemetry,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains live server settings.
type ServerConfig struct {
	// Addr is the listen address (default ":8480").
	Addr string `json:"addr,omitempty"`

	// ReadTimeoutSec is the client read deadline in seconds.
	ReadTimeoutSec int `json:"readTimeoutSec,omitempty"`

	// WriteTimeoutSec is the frame write deadline in seconds.
	WriteTimeoutSec int `json:"writeTimeoutSec,omitempty"`

	// PingIntervalSec is the heartbeat interval in seconds.
	PingIntervalSec int `json:"pingIntervalSec,omitempty"`

	// EventQueueSize buffers incoming events per session.
	EventQueueSize int `json:"eventQueueSize,omitempty"`

	// AllowedOrigins restricts WebSocket upgrades.
	AllowedOrigins []string `json:"allowedOrigins,omitempty"`
}

// RuntimeConfig contains update scheduling settings.
type RuntimeConfig struct {
	// FlushCap bounds consecutive re-flush rounds before a flush is
	// abandoned as an update storm.
	FlushCap int `json:"flushCap,omitempty"`
}

// TelemetryConfig contains metrics and tracing settings.
type TelemetryConfig struct {
	// Metrics enables the Prometheus endpoint.
	Metrics bool `json:"metrics,omitempty"`

	// Tracing enables OpenTelemetry spans.
	Tracing bool `json:"tracing,omitempty"`

	// Namespace prefixes metric names (default "weft").
	Namespace string `json:"namespace,omitempty"`
}

// New returns a config with defaults applied.
func New() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads weft.json from dir.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from path. A missing file yields the
// defaults rather than an error.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.configPath = path
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration back to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return fmt.Errorf("config: no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	c.configPath = path
	return nil
}

// Path returns the path the config was loaded from, empty for defaults.
func (c *Config) Path() string {
	return c.configPath
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.ReadTimeoutSec == 0 {
		c.Server.ReadTimeoutSec = 60
	}
	if c.Server.WriteTimeoutSec == 0 {
		c.Server.WriteTimeoutSec = 10
	}
	if c.Server.PingIntervalSec == 0 {
		c.Server.PingIntervalSec = 30
	}
	if c.Server.EventQueueSize == 0 {
		c.Server.EventQueueSize = 256
	}
	if c.Runtime.FlushCap == 0 {
		c.Runtime.FlushCap = 32
	}
	if c.Telemetry.Namespace == "" {
		c.Telemetry.Namespace = "weft"
	}
}

// Validate checks field ranges.
func (c *Config) Validate() error {
	if c.Runtime.FlushCap < 1 {
		return fmt.Errorf("config: runtime.flushCap must be positive")
	}
	if c.Server.EventQueueSize < 1 {
		return fmt.Errorf("config: server.eventQueueSize must be positive")
	}
	return nil
}

// ReadTimeout returns the server read deadline as a duration.
func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.Server.ReadTimeoutSec) * time.Second
}

// WriteTimeout returns the frame write deadline as a duration.
func (c *Config) WriteTimeout() time.Duration {
	return time.Duration(c.Server.WriteTimeoutSec) * time.Second
}

// PingInterval returns the heartbeat interval as a duration.
func (c *Config) PingInterval() time.Duration {
	return time.Duration(c.Server.PingIntervalSec) * time.Second
}

// Exists reports whether dir holds a weft.json.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}
