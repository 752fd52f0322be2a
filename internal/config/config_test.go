package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cohis-dev/cohis/internal/errors"
	"github.com/cohis-dev/cohis/pkg/overlay"
	"github.com/cohis-dev/cohis/pkg/placement"
)

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Server.Port != DefaultPort {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, DefaultPort)
	}
	if cfg.Server.Host != DefaultHost {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, DefaultHost)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Path != DefaultMetricsPath {
		t.Errorf("Metrics = %+v", cfg.Metrics)
	}
	if cfg.Storage.Driver != "disk" || cfg.Storage.MaxSize != DefaultMaxUploadSize {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	if cfg.Server.ShutdownTimeout.Std() != 10*time.Second {
		t.Errorf("ShutdownTimeout = %v", cfg.Server.ShutdownTimeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestNewOverlayDefaultsMatchWidgets(t *testing.T) {
	if got, want := New().OverlayDefaults(), overlay.DefaultConfig(); got != want {
		t.Errorf("OverlayDefaults() = %+v, want %+v", got, want)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(t.TempDir())
	if !errors.HasCode(err, "E100") {
		t.Errorf("Load(empty dir) err = %v, want E100", err)
	}
	if Exists(t.TempDir()) {
		t.Error("Exists() on empty dir")
	}
}

func TestLoadJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configJSON := `{
  "server": {
    "host": "0.0.0.0",
    "port": 9090,
    "shutdownTimeout": "3s",
    "allowedOrigins": ["https://dash.example.com"]
  },
  "session": {"eventsPerSecond": 5},
  "overlay": {"tooltipSide": "bottom"},
  "metrics": {"enabled": false}
}
`
	if err := os.WriteFile(filepath.Join(tmpDir, ConfigFileName), []byte(configJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	if !Exists(tmpDir) {
		t.Fatal("Exists() = false")
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Addr() != "0.0.0.0:9090" {
		t.Errorf("Addr() = %q", cfg.Addr())
	}
	if cfg.Server.ShutdownTimeout.Std() != 3*time.Second {
		t.Errorf("ShutdownTimeout = %v", cfg.Server.ShutdownTimeout)
	}
	if len(cfg.Server.AllowedOrigins) != 1 {
		t.Errorf("AllowedOrigins = %v", cfg.Server.AllowedOrigins)
	}
	if cfg.Session.EventsPerSecond != 5 || cfg.Session.Burst != 60 {
		t.Errorf("Session = %+v", cfg.Session)
	}
	if cfg.Metrics.Enabled {
		t.Error("explicit metrics.enabled=false was overridden")
	}
	if cfg.OverlayDefaults().TooltipSide != placement.SideBottom {
		t.Errorf("TooltipSide = %q", cfg.Overlay.TooltipSide)
	}
	if cfg.Dir() != tmpDir {
		t.Errorf("Dir() = %q, want %q", cfg.Dir(), tmpDir)
	}
}

func TestLoadYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configYAML := `
server:
  port: 7000
  readTimeout: 20
storage:
  driver: s3
  bucket: cohis-uploads
  endpoint: http://minio:9000
  usePathStyle: true
  retention: 72h
log:
  level: debug
  format: json
`
	if err := os.WriteFile(filepath.Join(tmpDir, YAMLConfigFileName), []byte(configYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 7000 {
		t.Errorf("Port = %d", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout.Std() != 20*time.Second {
		t.Errorf("bare integer duration = %v, want 20s", cfg.Server.ReadTimeout)
	}
	if cfg.Storage.Region != "us-east-1" {
		t.Errorf("Region default = %q", cfg.Storage.Region)
	}
	if cfg.Storage.Retention.Std() != 72*time.Hour {
		t.Errorf("Retention = %v", cfg.Storage.Retention)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestLoadFileParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadFile(path)
	if !errors.HasCode(err, "E101") {
		t.Fatalf("err = %v, want E101", err)
	}
	if !strings.Contains(err.Error(), "E101") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestSaveRoundTrip(t *testing.T) {
	for _, name := range []string{"out.json", "out.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			cfg := New()
			cfg.Server.Port = 4321
			cfg.Server.IdleTimeout = Duration(2 * time.Minute)
			cfg.Storage.Prefix = "data/"
			if err := cfg.SaveTo(path); err != nil {
				t.Fatalf("SaveTo() = %v", err)
			}
			if cfg.Path() != path {
				t.Errorf("Path() = %q", cfg.Path())
			}

			loaded, err := LoadFile(path)
			if err != nil {
				t.Fatalf("LoadFile() = %v", err)
			}
			if loaded.Server.Port != 4321 || loaded.Server.IdleTimeout.Std() != 2*time.Minute || loaded.Storage.Prefix != "data/" {
				t.Errorf("loaded = %+v", loaded.Server)
			}
		})
	}
}

func TestSaveWithoutPath(t *testing.T) {
	if err := New().Save(); err == nil {
		t.Error("Save() without a path should fail")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		code   string
	}{
		{"port zero", func(c *Config) { c.Server.Port = 0 }, "E102"},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, "E102"},
		{"bad tooltip side", func(c *Config) { c.Overlay.TooltipSide = "north" }, "E104"},
		{"bad drawer side", func(c *Config) { c.Overlay.DrawerSide = "middle" }, "E104"},
		{"negative gap", func(c *Config) { c.Overlay.PopconfirmGap = -1 }, "E104"},
		{"zero rate", func(c *Config) { c.Session.EventsPerSecond = 0 }, "E105"},
		{"unknown driver", func(c *Config) { c.Storage.Driver = "ftp" }, "E103"},
		{"s3 without bucket", func(c *Config) { c.Storage.Driver = "s3" }, "E103"},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "E106"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "E106"},
		{"bad exporter", func(c *Config) { c.Tracing.Exporter = "jaeger" }, "E107"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.HasCode(err, tt.code) {
				t.Errorf("Validate() = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestSideCaseInsensitive(t *testing.T) {
	cfg := New()
	cfg.Overlay.PopconfirmSide = " Right "
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	if cfg.OverlayDefaults().PopconfirmSide != placement.SideRight {
		t.Errorf("PopconfirmSide = %q", cfg.OverlayDefaults().PopconfirmSide)
	}
}

func TestStorageDir(t *testing.T) {
	cfg := New()
	cfg.configPath = filepath.Join("/etc/cohis", ConfigFileName)
	if got := cfg.StorageDir(); got != filepath.Join("/etc/cohis", "uploads") {
		t.Errorf("StorageDir() = %q", got)
	}
	cfg.Storage.Dir = "/var/lib/cohis"
	if got := cfg.StorageDir(); got != "/var/lib/cohis" {
		t.Errorf("StorageDir() = %q", got)
	}
}
