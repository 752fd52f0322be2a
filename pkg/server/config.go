package server

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cohis-dev/cohis/pkg/overlay"
)

// Config holds configuration for the HTTP server.
type Config struct {
	// Addr is the TCP address to listen on.
	// Default: ":8080".
	Addr string

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	// Default: 15 seconds.
	ShutdownTimeout time.Duration

	// AllowedOrigins lists extra origins accepted for /live. The request's own
	// host is always accepted. "*" accepts any origin.
	AllowedOrigins []string

	// MetricsPath is where the Prometheus handler is mounted.
	// Default: "/metrics".
	MetricsPath string

	Session SessionConfig

	// Overlay holds widget defaults for every session's layer. Zero fields
	// fall back to overlay.DefaultConfig.
	Overlay overlay.Config

	Logger *slog.Logger
}

// SessionConfig holds per-connection settings for live sessions.
type SessionConfig struct {
	// EventsPerSecond limits pointer events per session. Zero or less
	// disables the limit.
	EventsPerSecond float64

	// Burst is the number of pointer events allowed at once.
	Burst int

	// SendBuffer is the outbound frame queue length. A session whose queue
	// fills up is closed.
	SendBuffer int

	// ReadTimeout closes connections that send nothing, not even a pong,
	// for this long.
	ReadTimeout time.Duration

	// WriteTimeout bounds each WebSocket write.
	WriteTimeout time.Duration

	// PingInterval is how often the server sends a heartbeat ping. It must be
	// shorter than ReadTimeout.
	PingInterval time.Duration

	// MaxMessageSize is the largest client message accepted.
	MaxMessageSize int64
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Addr:            ":8080",
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 15 * time.Second,
		MetricsPath:     "/metrics",
		Session:         DefaultSessionConfig(),
		Overlay:         overlay.DefaultConfig(),
	}
}

// DefaultSessionConfig returns a SessionConfig with sensible defaults.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		EventsPerSecond: 60,
		Burst:           20,
		SendBuffer:      64,
		ReadTimeout:     60 * time.Second,
		WriteTimeout:    10 * time.Second,
		PingInterval:    25 * time.Second,
		MaxMessageSize:  64 * 1024,
	}
}

// fill replaces zero values with defaults.
func (c *Config) fill() {
	defaults := DefaultConfig()
	if c.Addr == "" {
		c.Addr = defaults.Addr
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = defaults.ShutdownTimeout
	}
	if c.MetricsPath == "" {
		c.MetricsPath = defaults.MetricsPath
	}
	c.Session.fill()
}

func (c *SessionConfig) fill() {
	defaults := DefaultSessionConfig()
	if c.SendBuffer <= 0 {
		c.SendBuffer = defaults.SendBuffer
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = defaults.ReadTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = defaults.WriteTimeout
	}
	if c.PingInterval <= 0 || c.PingInterval >= c.ReadTimeout {
		c.PingInterval = c.ReadTimeout * 9 / 10
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = defaults.MaxMessageSize
	}
	if c.Burst <= 0 {
		c.Burst = defaults.Burst
	}
}

// SameOriginCheck validates that the WebSocket request origin matches the host.
// Requests without an Origin header (curl, native clients) are accepted.
func SameOriginCheck(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return r.Host != "" && strings.EqualFold(u.Host, r.Host)
}

// originChecker returns a CheckOrigin function accepting same-origin requests
// plus the listed origins.
func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return SameOriginCheck
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[strings.ToLower(strings.TrimRight(o, "/"))] = struct{}{}
	}
	return func(r *http.Request) bool {
		if SameOriginCheck(r) {
			return true
		}
		_, ok := set[strings.ToLower(r.Header.Get("Origin"))]
		return ok
	}
}
