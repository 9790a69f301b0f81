package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"accidentscli/internal/config"
	apperrors "accidentscli/internal/errors"
	"accidentscli/internal/files"
	"accidentscli/internal/infrastructure"
)

// Options are the command line overrides applied on top of the loaded
// configuration.
type Options struct {
	ConfigPath string
	BaseDir    string
	Years      []int
	Output     string // consolidated CSV, read by report and written by consolidate
	SQLitePath string
}

// Application holds the components shared by the batch commands
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Logger        *slog.Logger
	Files         *files.Manager
	OTelProviders *infrastructure.OTelProviders

	startTime time.Time
}

// NewApplication loads configuration, resolves paths and initializes
// logging and telemetry.
func NewApplication(opts Options) (*Application, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := applyOverrides(cfg, opts); err != nil {
		return nil, err
	}

	paths, err := config.NewPaths(cfg.Paths)
	if err != nil {
		return nil, fmt.Errorf("failed to get paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	if cfg.Logging.FilePath != "" {
		cfg.Logging.FilePath = paths.GetLogPath(cfg.Logging.FilePath)
	}
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	otelCfg := infrastructure.OTelConfigFrom(cfg.Telemetry)
	if otelCfg.TraceFile != "" {
		otelCfg.TraceFile = paths.GetLogPath(otelCfg.TraceFile)
	}
	providers, err := infrastructure.InitializeOTel(otelCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion))
	paths.LogPathResolution(logger)

	return &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		Files:         files.NewManager(logger),
		OTelProviders: providers,
		startTime:     time.Now(),
	}, nil
}

// applyOverrides copies the flag values onto cfg and revalidates it
func applyOverrides(cfg *config.Config, opts Options) error {
	if opts.BaseDir != "" {
		cfg.Paths.BaseDir = opts.BaseDir
	}
	if len(opts.Years) > 0 {
		cfg.Years = append([]int(nil), opts.Years...)
	}
	if opts.Output != "" {
		cfg.Paths.ConsolidatedCSV = opts.Output
	}
	if opts.SQLitePath != "" {
		cfg.Store.SQLitePath = opts.SQLitePath
	}
	if err := cfg.Validate(); err != nil {
		return apperrors.InvalidConfig("config validation failed", err)
	}
	return nil
}

// Stop records process gauges, writes the metrics textfile and flushes
// telemetry.
func (a *Application) Stop(ctx context.Context) error {
	if a.OTelProviders.Meter != nil {
		sys, err := infrastructure.NewSystemMetrics(a.OTelProviders.Meter)
		if err != nil {
			a.Logger.WarnContext(ctx, "System metrics unavailable", slog.String("error", err.Error()))
		}
		stats := sys.Collect(ctx, a.startTime)
		a.Logger.InfoContext(ctx, "Run resources",
			slog.Duration("duration", stats.RunDuration),
			slog.Int64("memory_allocated", stats.MemoryAllocated),
			slog.Int64("goroutines", stats.GoRoutines))
	}

	if path := a.Config.Telemetry.MetricsFile; path != "" {
		if !filepath.IsAbs(path) {
			path = a.Paths.GetReportPath(path)
		}
		if err := a.OTelProviders.WriteMetricsFile(path); err != nil {
			a.Logger.ErrorContext(ctx, "Failed to write metrics file", slog.String("error", err.Error()))
		} else {
			a.Logger.InfoContext(ctx, "Metrics file written", slog.String("path", path))
		}
	}

	if err := a.OTelProviders.Shutdown(ctx); err != nil {
		a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return infrastructure.CloseLogFile()
}

// SignalContext returns a run context carrying a fresh run ID that is
// cancelled on interrupt or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	return infrastructure.EnsureRunID(ctx), stop
}

// ParseYears parses a comma-separated year list; empty means all years
func ParseYears(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var years []int
	for _, part := range strings.Split(s, ",") {
		y, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || y <= 0 {
			return nil, fmt.Errorf("invalid year %q", part)
		}
		years = append(years, y)
	}
	return years, nil
}
