package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cohis-dev/cohis/internal/errors"
	"github.com/cohis-dev/cohis/pkg/overlay"
	"github.com/cohis-dev/cohis/pkg/placement"
)

const (
	// ConfigFileName is the name of the JSON configuration file.
	ConfigFileName = "cohis.json"

	// YAMLConfigFileName is the name of the YAML configuration file.
	YAMLConfigFileName = "cohis.yaml"

	DefaultHost = "localhost"
	DefaultPort = 8080

	DefaultMetricsPath = "/metrics"
	DefaultNamespace   = "cohis"

	// DefaultMaxUploadSize is 32 MiB.
	DefaultMaxUploadSize = 32 << 20
)

// configFiles are tried in order by Load.
var configFiles = []string{ConfigFileName, YAMLConfigFileName, "cohis.yml"}

// Config represents the complete cohis configuration.
type Config struct {
	Server  ServerConfig  `json:"server" yaml:"server"`
	Session SessionConfig `json:"session" yaml:"session"`
	Overlay OverlayConfig `json:"overlay" yaml:"overlay"`
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`
	Tracing TracingConfig `json:"tracing" yaml:"tracing"`
	Storage StorageConfig `json:"storage" yaml:"storage"`
	Log     LogConfig     `json:"log" yaml:"log"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains HTTP listener settings.
type ServerConfig struct {
	Host string `json:"host,omitempty" yaml:"host,omitempty"`
	Port int    `json:"port,omitempty" yaml:"port,omitempty"`

	ReadTimeout  Duration `json:"readTimeout,omitempty" yaml:"readTimeout,omitempty"`
	WriteTimeout Duration `json:"writeTimeout,omitempty" yaml:"writeTimeout,omitempty"`
	IdleTimeout  Duration `json:"idleTimeout,omitempty" yaml:"idleTimeout,omitempty"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout Duration `json:"shutdownTimeout,omitempty" yaml:"shutdownTimeout,omitempty"`

	// AllowedOrigins lists origins accepted for the live WebSocket. Empty
	// means same-origin only.
	AllowedOrigins []string `json:"allowedOrigins,omitempty" yaml:"allowedOrigins,omitempty"`
}

// SessionConfig contains per-connection limits for live sessions.
type SessionConfig struct {
	// EventsPerSecond limits pointer events per session.
	EventsPerSecond float64 `json:"eventsPerSecond,omitempty" yaml:"eventsPerSecond,omitempty"`
	Burst           int     `json:"burst,omitempty" yaml:"burst,omitempty"`

	// SendBuffer is the outbound frame queue length.
	SendBuffer int `json:"sendBuffer,omitempty" yaml:"sendBuffer,omitempty"`

	// ReadTimeout closes idle connections that stop answering pings.
	ReadTimeout Duration `json:"readTimeout,omitempty" yaml:"readTimeout,omitempty"`

	MaxMessageSize int64 `json:"maxMessageSize,omitempty" yaml:"maxMessageSize,omitempty"`
}

// OverlayConfig contains widget defaults.
type OverlayConfig struct {
	TooltipSide  string  `json:"tooltipSide,omitempty" yaml:"tooltipSide,omitempty"`
	TooltipGap   float64 `json:"tooltipGap,omitempty" yaml:"tooltipGap,omitempty"`
	TooltipArrow float64 `json:"tooltipArrow,omitempty" yaml:"tooltipArrow,omitempty"`

	PopconfirmSide  string  `json:"popconfirmSide,omitempty" yaml:"popconfirmSide,omitempty"`
	PopconfirmGap   float64 `json:"popconfirmGap,omitempty" yaml:"popconfirmGap,omitempty"`
	PopconfirmArrow float64 `json:"popconfirmArrow,omitempty" yaml:"popconfirmArrow,omitempty"`

	DrawerSide   string  `json:"drawerSide,omitempty" yaml:"drawerSide,omitempty"`
	DrawerExtent float64 `json:"drawerExtent,omitempty" yaml:"drawerExtent,omitempty"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled   bool   `json:"enabled" yaml:"enabled"`
	Path      string `json:"path,omitempty" yaml:"path,omitempty"`
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
}

// TracingConfig controls OpenTelemetry request spans. The tracer provider is
// whatever the process installed globally.
type TracingConfig struct {
	Enabled    bool   `json:"enabled" yaml:"enabled"`
	TracerName string `json:"tracerName,omitempty" yaml:"tracerName,omitempty"`

	// Exporter is "none" (spans go to whatever provider is installed) or
	// "stdout".
	Exporter string `json:"exporter,omitempty" yaml:"exporter,omitempty"`
}

// StorageConfig selects and configures the upload store.
type StorageConfig struct {
	// Driver is "disk" or "s3".
	Driver string `json:"driver,omitempty" yaml:"driver,omitempty"`

	// Dir is the disk store root, relative to the config file.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`

	Bucket          string `json:"bucket,omitempty" yaml:"bucket,omitempty"`
	Prefix          string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Region          string `json:"region,omitempty" yaml:"region,omitempty"`
	Endpoint        string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	AccessKeyID     string `json:"accessKeyId,omitempty" yaml:"accessKeyId,omitempty"`
	SecretAccessKey string `json:"secretAccessKey,omitempty" yaml:"secretAccessKey,omitempty"`
	UsePathStyle    bool   `json:"usePathStyle,omitempty" yaml:"usePathStyle,omitempty"`

	MaxSize      int64    `json:"maxSize,omitempty" yaml:"maxSize,omitempty"`
	AllowedTypes []string `json:"allowedTypes,omitempty" yaml:"allowedTypes,omitempty"`

	// Retention is the age after which uploads are removed. Zero keeps them.
	Retention Duration `json:"retention,omitempty" yaml:"retention,omitempty"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `json:"level,omitempty" yaml:"level,omitempty"`
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// DefaultAllowedTypes are the data file types the dashboard accepts.
var DefaultAllowedTypes = []string{
	"text/csv",
	"text/plain",
	"application/json",
	"application/vnd.ms-excel",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// New creates a new Config with default values.
func New() *Config {
	cfg := &Config{
		Metrics: MetricsConfig{Enabled: true},
	}
	cfg.applyDefaults()
	return cfg
}

// Load reads configuration from dir, trying cohis.json then cohis.yaml.
func Load(dir string) (*Config, error) {
	for _, name := range configFiles {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return nil, errors.New("E100").
		WithSource(dir).
		WithSuggestion("Create cohis.json or cohis.yaml, or run without --config to use defaults")
}

// LoadFile reads configuration from the specified file path. Files ending in
// .yaml or .yml are decoded as YAML, everything else as JSON.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E100").WithSource(path)
		}
		return nil, errors.New("E101").WithSource(path).Wrap(err)
	}

	cfg := New()
	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.New("E101").
			WithSource(path).
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error())
	}

	cfg.configPath = path
	cfg.applyDefaults()
	return cfg, nil
}

// Exists reports whether dir contains a configuration file.
func Exists(dir string) bool {
	for _, name := range configFiles {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to path in the format its extension names.
func (c *Config) SaveTo(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return errors.New("E101").WithSource(path).Wrap(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.New("E101").WithSource(path).Wrap(err)
	}
	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

func (c *Config) applyDefaults() {
	s := &c.Server
	if s.Host == "" {
		s.Host = DefaultHost
	}
	if s.Port == 0 {
		s.Port = DefaultPort
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = Duration(15 * time.Second)
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = Duration(15 * time.Second)
	}
	if s.IdleTimeout == 0 {
		s.IdleTimeout = Duration(60 * time.Second)
	}
	if s.ShutdownTimeout == 0 {
		s.ShutdownTimeout = Duration(10 * time.Second)
	}

	ss := &c.Session
	if ss.EventsPerSecond == 0 {
		ss.EventsPerSecond = 30
	}
	if ss.Burst == 0 {
		ss.Burst = 60
	}
	if ss.SendBuffer == 0 {
		ss.SendBuffer = 64
	}
	if ss.ReadTimeout == 0 {
		ss.ReadTimeout = Duration(60 * time.Second)
	}
	if ss.MaxMessageSize == 0 {
		ss.MaxMessageSize = 64 * 1024
	}

	d := overlay.DefaultConfig()
	o := &c.Overlay
	if o.TooltipSide == "" {
		o.TooltipSide = d.TooltipSide.String()
	}
	if o.TooltipGap == 0 && o.TooltipArrow == 0 {
		o.TooltipGap = d.TooltipOffsets.Gap
		o.TooltipArrow = d.TooltipOffsets.ArrowLength
	}
	if o.PopconfirmSide == "" {
		o.PopconfirmSide = d.PopconfirmSide.String()
	}
	if o.PopconfirmGap == 0 && o.PopconfirmArrow == 0 {
		o.PopconfirmGap = d.PopconfirmOffsets.Gap
		o.PopconfirmArrow = d.PopconfirmOffsets.ArrowLength
	}
	if o.DrawerSide == "" {
		o.DrawerSide = d.DrawerSide.String()
	}
	if o.DrawerExtent == 0 {
		o.DrawerExtent = d.DrawerExtent
	}

	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Tracing.TracerName == "" {
		c.Tracing.TracerName = DefaultNamespace
	}
	if c.Tracing.Exporter == "" {
		c.Tracing.Exporter = "none"
	}

	st := &c.Storage
	if st.Driver == "" {
		st.Driver = "disk"
	}
	if st.Dir == "" {
		st.Dir = "uploads"
	}
	if st.MaxSize == 0 {
		st.MaxSize = DefaultMaxUploadSize
	}
	if st.AllowedTypes == nil {
		st.AllowedTypes = append([]string(nil), DefaultAllowedTypes...)
	}
	if st.Driver == "s3" && st.Region == "" {
		st.Region = "us-east-1"
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return errors.New("E102").
			WithSource("server.port").
			WithDetail(fmt.Sprintf("Port %d is outside 1-65535", c.Server.Port))
	}

	for field, side := range map[string]string{
		"overlay.tooltipSide":    c.Overlay.TooltipSide,
		"overlay.popconfirmSide": c.Overlay.PopconfirmSide,
		"overlay.drawerSide":     c.Overlay.DrawerSide,
	} {
		if !placement.ParseSide(side).Valid() {
			return errors.New("E104").
				WithSource(field).
				WithDetail(fmt.Sprintf("Got %q; use top, bottom, left or right", side))
		}
	}
	if c.Overlay.TooltipGap < 0 || c.Overlay.PopconfirmGap < 0 || c.Overlay.DrawerExtent < 0 {
		return errors.New("E104").
			WithSource("overlay").
			WithDetail("Gaps and the drawer extent must not be negative")
	}

	if c.Session.EventsPerSecond <= 0 || c.Session.Burst <= 0 || c.Session.SendBuffer <= 0 || c.Session.MaxMessageSize <= 0 {
		return errors.New("E105").WithSource("session")
	}

	if c.Tracing.Exporter != "none" && c.Tracing.Exporter != "stdout" {
		return errors.New("E107").
			WithSource("tracing.exporter").
			WithDetail(fmt.Sprintf("Unknown exporter %q; use none or stdout", c.Tracing.Exporter))
	}

	switch c.Storage.Driver {
	case "disk":
		if c.Storage.Dir == "" {
			return errors.New("E103").WithSource("storage.dir")
		}
	case "s3":
		if c.Storage.Bucket == "" {
			return errors.New("E103").
				WithSource("storage.bucket").
				WithSuggestion("Set storage.bucket when storage.driver is s3")
		}
	default:
		return errors.New("E103").
			WithSource("storage.driver").
			WithDetail(fmt.Sprintf("Unknown driver %q; use disk or s3", c.Storage.Driver))
	}
	if c.Storage.MaxSize < 0 {
		return errors.New("E103").WithSource("storage.maxSize")
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return errors.New("E106").WithSource("log.level")
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return errors.New("E106").WithSource("log.format")
	}
	return nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + strconv.Itoa(c.Server.Port)
}

// OverlayDefaults converts the overlay section into widget defaults.
func (c *Config) OverlayDefaults() overlay.Config {
	o := c.Overlay
	return overlay.Config{
		TooltipSide:       placement.ParseSide(o.TooltipSide),
		TooltipOffsets:    placement.Offsets{Gap: o.TooltipGap, ArrowLength: o.TooltipArrow},
		PopconfirmSide:    placement.ParseSide(o.PopconfirmSide),
		PopconfirmOffsets: placement.Offsets{Gap: o.PopconfirmGap, ArrowLength: o.PopconfirmArrow},
		DrawerSide:        placement.ParseSide(o.DrawerSide),
		DrawerExtent:      o.DrawerExtent,
	}
}

// StorageDir returns the disk store root, resolved against the config
// file's directory when relative.
func (c *Config) StorageDir() string {
	if filepath.IsAbs(c.Storage.Dir) {
		return c.Storage.Dir
	}
	return filepath.Join(c.Dir(), c.Storage.Dir)
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
