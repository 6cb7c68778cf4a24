package app

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dori/tasknest/internal/aggregate"
	"github.com/dori/tasknest/internal/cascade"
	"github.com/dori/tasknest/internal/config"
	"github.com/dori/tasknest/internal/docstore"
	"github.com/dori/tasknest/internal/notify"
	"github.com/dori/tasknest/internal/reconcile"
	"github.com/dori/tasknest/internal/service"
)

// App holds the application state and dependencies
type App struct {
	Config     *config.Config
	Logger     *log.Logger
	Store      *docstore.SQLite
	Counters   *aggregate.Service
	Cascade    *cascade.Engine
	Service    *service.Service
	Reconciler *reconcile.Reconciler
	Notifier   *notify.Notifier
}

// Options adjusts wiring for one invocation
type Options struct {
	// LogOutput receives log lines; defaults to stderr
	LogOutput io.Writer
	// Progress is called after every committed cascade batch
	Progress func(cascade.Progress)
}

// NewLogger builds the process logger from config
func NewLogger(cfg *config.Config, w io.Writer) *log.Logger {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}

	formatter := log.TextFormatter
	switch strings.ToLower(cfg.LogFormat) {
	case "json":
		formatter = log.JSONFormatter
	case "logfmt":
		formatter = log.LogfmtFormatter
	}

	return log.NewWithOptions(w, log.Options{
		Level:           level,
		Formatter:       formatter,
		ReportTimestamp: true,
		Prefix:          "tasknest",
	})
}

// New creates a new application instance
func New(cfg *config.Config, opts Options) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Finalize(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	// Ensure data directory exists
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	out := opts.LogOutput
	if out == nil {
		out = os.Stderr
	}
	logger := NewLogger(cfg, out)

	store, err := docstore.Open(cfg.DBPath, docstore.WithLogger(logger.WithPrefix("docstore")))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	counters := aggregate.New(store, logger.WithPrefix("aggregate"))

	cascadeOpts := []cascade.Option{
		cascade.WithBatchSize(cfg.BatchSize),
		cascade.WithLogger(logger.WithPrefix("cascade")),
	}
	if opts.Progress != nil {
		cascadeOpts = append(cascadeOpts, cascade.WithProgress(opts.Progress))
	}
	engine := cascade.New(store, counters, cascadeOpts...)

	svc := service.New(store, counters, engine,
		service.WithLogger(logger.WithPrefix("service")),
		service.WithListLimit(cfg.ListLimit),
	)

	reconciler := reconcile.New(store,
		reconcile.WithLogger(logger.WithPrefix("reconcile")),
		reconcile.WithLockFile(cfg.LockPath()),
	)

	notifier := notify.New(
		notify.WithEnabled(cfg.Notify),
		notify.WithLogger(logger.WithPrefix("notify")),
	)

	return &App{
		Config:     cfg,
		Logger:     logger,
		Store:      store,
		Counters:   counters,
		Cascade:    engine,
		Service:    svc,
		Reconciler: reconciler,
		Notifier:   notifier,
	}, nil
}

// Close cleans up application resources
func (a *App) Close() error {
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
	}
	return nil
}
