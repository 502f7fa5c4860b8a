package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/starford/cravetown/internal/catalog"
	"github.com/starford/cravetown/internal/commands"
	"github.com/starford/cravetown/internal/storage"
	"github.com/starford/cravetown/internal/versions"
	"github.com/starford/cravetown/internal/versionservice"
)

// Backend is the wired set of components every entrypoint shares.
type Backend struct {
	Config   *Config
	Logger   *slog.Logger
	Store    storage.Provider
	DB       *catalog.DB
	Service  *versionservice.Service
	Registry *commands.Registry
	version  string
}

// Open builds the backend described by opts. The caller must Close it.
func Open(opts ...Option) (*Backend, error) {
	app := &application{version: "dev", logOutput: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := app.config

	logger := slog.New(slog.NewJSONHandler(app.logOutput, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	store := storage.NewFS()
	mgr := versions.NewManager(store, cfg.Versions.CreatePolicy, logger)

	svcOpts := []versionservice.Option{versionservice.WithLogger(logger)}
	var db *catalog.DB
	if cfg.Catalog.Enabled() {
		var err error
		db, err = catalog.Open(cfg.Catalog.Path)
		if err != nil {
			return nil, fmt.Errorf("init catalog: %w", err)
		}
		svcOpts = append(svcOpts, versionservice.WithCatalog(db))
	}

	svc := versionservice.NewService(cfg.Data.Resolver(), store, mgr, svcOpts...)

	return &Backend{
		Config:   cfg,
		Logger:   logger,
		Store:    store,
		DB:       db,
		Service:  svc,
		Registry: commands.New(svc),
		version:  app.version,
	}, nil
}

// Close releases the catalog.
func (b *Backend) Close() error {
	if b.DB == nil {
		return nil
	}
	return b.DB.Close()
}

// Prepare resolves the data directory, creates it when missing and
// brings the catalog in line with disk. Long-running entrypoints call it
// once at startup.
func (b *Backend) Prepare(ctx context.Context) (string, error) {
	dataDir, err := b.Service.DataDir(ctx)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}

	b.Logger.Info("Configuration loaded",
		slog.String("data_dir", dataDir),
		slog.String("data_mode", b.Config.Data.Mode),
		slog.String("create_policy", string(b.Config.Versions.CreatePolicy)),
		slog.String("catalog_path", b.Config.Catalog.Path),
		slog.String("log_level", b.Config.App.LogLevel.String()))

	if b.DB != nil {
		if err := catalog.Sync(b.DB, b.Store, dataDir, b.Logger); err != nil {
			b.Logger.Warn("initial sync failed", slog.String("error", err.Error()))
		}
	}
	return dataDir, nil
}
