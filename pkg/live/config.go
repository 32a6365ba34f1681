package live

import "time"

// Config holds server and per-session settings.
type Config struct {
	// Addr is the listen address.
	// Default: ":8480".
	Addr string

	// ReadTimeout is the maximum time to wait for a client message.
	// Default: 60 seconds.
	ReadTimeout time.Duration

	// WriteTimeout is the maximum time to wait when sending a frame.
	// Default: 10 seconds.
	WriteTimeout time.Duration

	// PingInterval is the time between heartbeat pings.
	// Default: 30 seconds.
	PingInterval time.Duration

	// MaxMessageSize caps incoming WebSocket messages.
	// Default: 64KB.
	MaxMessageSize int64

	// EventQueueSize is the per-session event channel buffer. Events
	// arriving on a full queue are dropped.
	// Default: 256.
	EventQueueSize int

	// FlushCap overrides the scheduler's re-flush cap when positive.
	FlushCap int

	// AllowedOrigins restricts WebSocket upgrades. Empty allows
	// same-origin only; "*" allows any.
	AllowedOrigins []string
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() *Config {
	return &Config{
		Addr:           ":8480",
		ReadTimeout:    60 * time.Second,
		WriteTimeout:   10 * time.Second,
		PingInterval:   30 * time.Second,
		MaxMessageSize: 64 * 1024,
		EventQueueSize: 256,
	}
}

// Clone returns a copy of the config.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	clone.AllowedOrigins = append([]string(nil), c.AllowedOrigins...)
	return &clone
}
