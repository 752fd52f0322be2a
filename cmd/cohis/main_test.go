package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cohis-dev/cohis/internal/config"
	"github.com/cohis-dev/cohis/internal/errors"
	"github.com/cohis-dev/cohis/pkg/dom"
	"github.com/cohis-dev/cohis/pkg/overlay"
	"github.com/cohis-dev/cohis/pkg/placement"
	"github.com/cohis-dev/cohis/pkg/upload"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestPlaceCommand(t *testing.T) {
	out, err := execute(t, "place",
		"--side=right", "--anchor=950,100,40,20", "--floating=100,30",
		"--viewport=1000,800", "--gap=5")
	require.NoError(t, err)

	var got placement.Placement
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, placement.Placement{
		Side:  placement.SideRight,
		Point: placement.Point{X: 995, Y: 95},
		Arrow: placement.Point{X: 995, Y: 110},
	}, got)
}

func TestPlaceCommandRejects(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		source string
	}{
		{"unknown side", []string{"--side=up", "--anchor=0,0,1,1", "--floating=1,1"}, "--side"},
		{"short anchor", []string{"--anchor=0,0,1", "--floating=1,1"}, "--anchor"},
		{"negative size", []string{"--anchor=0,0,1,1", "--floating=-1,1"}, "--floating"},
		{"not a number", []string{"--anchor=0,0,1,1", "--floating=1,1", "--viewport=wide,1"}, "--viewport"},
		{"negative gap", []string{"--anchor=0,0,1,1", "--floating=1,1", "--gap=-2"}, "--gap"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, append([]string{"place"}, tt.args...)...)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, "E120"), "err = %v", err)

			var e *errors.Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, tt.source, e.Source)
		})
	}
}

func TestPlaceAllowsNegativeAnchorOrigin(t *testing.T) {
	p, err := placeOptions{
		side: "bottom", anchor: "-20,10,40,10", floating: "10,10", viewport: "100,100", gap: 0,
	}.place()
	require.NoError(t, err)
	// The corner starts off-screen and is clamped to the margin.
	assert.Equal(t, placement.Point{X: placement.EdgeMargin, Y: 20}, p.Point)
}

func TestInitCommand(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, "init", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "cohis.json")

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.NoError(t, cfg.Validate())

	_, err = execute(t, "init", dir)
	assert.True(t, errors.HasCode(err, "E122"), "err = %v", err)

	_, err = execute(t, "init", dir, "--force", "--format=yaml")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, config.YAMLConfigFileName))
	assert.NoError(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, version+"\n", out)
}

func TestServeRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := config.New()
	cfg.Storage.Driver = "tape"
	require.NoError(t, cfg.SaveTo(filepath.Join(dir, config.ConfigFileName)))

	_, err := execute(t, "serve", "--config", dir)
	assert.True(t, errors.HasCode(err, "E103"), "err = %v", err)
}

func TestServeOptionsOverrideConfig(t *testing.T) {
	cfg := config.New()
	serveOptions{port: 9191, host: "0.0.0.0", logLevel: "debug", storageDriver: "s3", noMetrics: true}.apply(cfg)

	assert.Equal(t, "0.0.0.0:9191", cfg.Addr())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "s3", cfg.Storage.Driver)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestServerConfigMapping(t *testing.T) {
	cfg := config.New()
	cfg.Server.AllowedOrigins = []string{"https://admin.example.com"}
	cfg.Overlay.TooltipSide = "bottom"

	sc := serverConfig(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Equal(t, cfg.Addr(), sc.Addr)
	assert.Equal(t, cfg.Server.ShutdownTimeout.Std(), sc.ShutdownTimeout)
	assert.Equal(t, cfg.Session.Burst, sc.Session.Burst)
	assert.Equal(t, []string{"https://admin.example.com"}, sc.AllowedOrigins)
	assert.Equal(t, placement.SideBottom, sc.Overlay.TooltipSide)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, config.LogConfig{Level: "warn", Format: "json"})
	logger.Info("hidden")
	logger.Warn("shown", "k", 1)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "shown", rec["msg"])
	assert.EqualValues(t, 1, rec["k"])
}

func TestOpenStoreDisk(t *testing.T) {
	dir := t.TempDir()
	cfg := config.New()
	cfg.Storage.Dir = filepath.Join(dir, "files")

	store, err := openStore(cfg)
	require.NoError(t, err)
	assert.IsType(t, &upload.DiskStore{}, store)
	_, err = os.Stat(cfg.Storage.Dir)
	assert.NoError(t, err)
}

func TestOpenStoreS3(t *testing.T) {
	cfg := config.New()
	cfg.Storage.Driver = "s3"
	cfg.Storage.Bucket = "cohis"
	cfg.Storage.Region = ""

	store, err := openStore(cfg)
	require.NoError(t, err)
	assert.IsType(t, &upload.S3Store{}, store)
}

type countingStore struct {
	upload.Store
	cleanups atomic.Int32
	maxAge   atomic.Int64
}

func (s *countingStore) Cleanup(_ context.Context, maxAge time.Duration) error {
	s.maxAge.Store(int64(maxAge))
	s.cleanups.Add(1)
	return nil
}

func TestJanitorCleansOnStart(t *testing.T) {
	store := &countingStore{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		runJanitor(ctx, store, time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil)))
		close(done)
	}()

	require.Eventually(t, func() bool { return store.cleanups.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(time.Hour), store.maxAge.Load())

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}

func TestDashboardPage(t *testing.T) {
	var updates []overlay.Update
	layer := overlay.NewLayer(dom.NewDocument(), func(u overlay.Update) { updates = append(updates, u) })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	require.NoError(t, dashboardPage(logger)(layer))

	ids := make([]string, 0)
	for _, w := range layer.Widgets() {
		ids = append(ids, w.ID())
	}
	assert.Equal(t, []string{"mobile-nav", "disable-user", "enable-user", "check-passed", "check-failed"}, ids)

	require.NoError(t, layer.Activate("disable-user"))
	require.NotEmpty(t, updates)
	assert.Equal(t, overlay.KindPopconfirm, updates[len(updates)-1].Kind)
	assert.True(t, updates[len(updates)-1].Open)
}
