package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/cohis-dev/cohis/internal/config"
	"github.com/cohis-dev/cohis/internal/errors"
	"github.com/cohis-dev/cohis/internal/telemetry"
	"github.com/cohis-dev/cohis/pkg/middleware"
	"github.com/cohis-dev/cohis/pkg/server"
	"github.com/cohis-dev/cohis/pkg/upload"
)

type serveOptions struct {
	port          int
	host          string
	logLevel      string
	logFormat     string
	storageDriver string
	noMetrics     bool
}

func serveCmd(configPath *string) *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the overlay server",
		Long: `Start the HTTP and WebSocket server.

Flags override the matching config values.

Examples:
  cohis serve
  cohis serve --port=9090 --log-level=debug
  cohis serve --config=deploy/cohis.yaml --storage=s3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			opts.apply(cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd.OutOrStdout(), cfg)
		},
	}

	cmd.Flags().IntVarP(&opts.port, "port", "p", 0, "Port to listen on (default from config)")
	cmd.Flags().StringVarP(&opts.host, "host", "H", "", "Host to bind to (default from config)")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&opts.logFormat, "log-format", "", "Log format (text, json)")
	cmd.Flags().StringVar(&opts.storageDriver, "storage", "", "Upload storage driver (disk, s3)")
	cmd.Flags().BoolVar(&opts.noMetrics, "no-metrics", false, "Disable the Prometheus endpoint")

	return cmd
}

func (o serveOptions) apply(cfg *config.Config) {
	if o.port > 0 {
		cfg.Server.Port = o.port
	}
	if o.host != "" {
		cfg.Server.Host = o.host
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Log.Format = o.logFormat
	}
	if o.storageDriver != "" {
		cfg.Storage.Driver = o.storageDriver
	}
	if o.noMetrics {
		cfg.Metrics.Enabled = false
	}
}

func runServe(ctx context.Context, out io.Writer, cfg *config.Config) error {
	logger := newLogger(os.Stderr, cfg.Log)
	slog.SetDefault(logger)

	printBanner(out)
	info(out, "Listening on http://%s", cfg.Addr())
	if cfg.Metrics.Enabled {
		info(out, "Metrics at %s", cfg.Metrics.Path)
	}
	if cfg.Storage.Driver == "s3" && cfg.Storage.AccessKeyID == "" {
		warn(out, "No S3 access key configured; requests are sent unsigned")
	}

	shutdownTracing, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    "cohis",
		ServiceVersion: version,
		Exporter:       cfg.Tracing.Exporter,
	})
	if err != nil {
		return errors.New("E107").WithSource("tracing.exporter").Wrap(err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Warn("trace flush failed", "error", err)
		}
	}()

	store, err := openStore(cfg)
	if err != nil {
		return err
	}

	opts := []server.Option{
		server.WithPage(dashboardPage(logger.With("component", "page"))),
		server.WithUploads(store, &upload.Config{
			MaxFileSize:  cfg.Storage.MaxSize,
			AllowedTypes: cfg.Storage.AllowedTypes,
			Logger:       logger.With("component", "upload"),
		}),
	}
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		m := middleware.NewMetrics(
			middleware.WithRegistry(reg),
			middleware.WithNamespace(cfg.Metrics.Namespace),
		)
		opts = append(opts, server.WithMetrics(m, reg))
	}
	if cfg.Tracing.Enabled {
		opts = append(opts, server.WithTracing(middleware.WithTracerName(cfg.Tracing.TracerName)))
	}

	srv := server.New(serverConfig(cfg, logger), opts...)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})
	if retention := cfg.Storage.Retention.Std(); retention > 0 {
		g.Go(func() error {
			runJanitor(gctx, store, retention, logger.With("component", "janitor"))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	success(out, "Server stopped")
	return nil
}

// serverConfig maps the file config onto the server's.
func serverConfig(cfg *config.Config, logger *slog.Logger) *server.Config {
	sc := server.DefaultConfig()
	sc.Addr = cfg.Addr()
	sc.ReadTimeout = cfg.Server.ReadTimeout.Std()
	sc.WriteTimeout = cfg.Server.WriteTimeout.Std()
	sc.IdleTimeout = cfg.Server.IdleTimeout.Std()
	sc.ShutdownTimeout = cfg.Server.ShutdownTimeout.Std()
	sc.AllowedOrigins = cfg.Server.AllowedOrigins
	sc.MetricsPath = cfg.Metrics.Path
	sc.Session.EventsPerSecond = cfg.Session.EventsPerSecond
	sc.Session.Burst = cfg.Session.Burst
	sc.Session.SendBuffer = cfg.Session.SendBuffer
	sc.Session.ReadTimeout = cfg.Session.ReadTimeout.Std()
	sc.Session.PingInterval = 0
	sc.Session.MaxMessageSize = cfg.Session.MaxMessageSize
	sc.Overlay = cfg.OverlayDefaults()
	sc.Logger = logger
	return sc
}

// newLogger builds the process logger from the log section.
func newLogger(w io.Writer, lc config.LogConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(lc.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(lc.Format) == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// openStore opens the configured upload store.
func openStore(cfg *config.Config) (upload.Store, error) {
	st := cfg.Storage
	switch st.Driver {
	case "s3":
		region := st.Region
		if region == "" {
			region = "us-east-1"
		}
		s3cfg := upload.S3Config{
			Bucket:          st.Bucket,
			Prefix:          st.Prefix,
			Region:          region,
			Endpoint:        st.Endpoint,
			AccessKeyID:     st.AccessKeyID,
			SecretAccessKey: st.SecretAccessKey,
			UsePathStyle:    st.UsePathStyle,
			MaxSize:         st.MaxSize,
		}
		return upload.NewS3Store(upload.NewS3Client(s3cfg), s3cfg), nil
	default:
		store, err := upload.NewDiskStore(cfg.StorageDir(), st.MaxSize)
		if err != nil {
			return nil, errors.New("E183").WithSource(cfg.StorageDir()).Wrap(err)
		}
		return store, nil
	}
}

// runJanitor removes expired uploads once at start and then every tenth of
// the retention period, until ctx ends.
func runJanitor(ctx context.Context, store upload.Store, retention time.Duration, logger *slog.Logger) {
	interval := retention / 10
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := store.Cleanup(ctx, retention); err != nil && ctx.Err() == nil {
			logger.Error("upload cleanup failed", "error", err)
		} else {
			logger.Debug("upload cleanup done", "retention", retention)
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}
