package internal

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/starford/stencil/internal/docservice"
	"github.com/starford/stencil/internal/index"
	"github.com/starford/stencil/internal/logging"
	"github.com/starford/stencil/internal/markdown"
	"github.com/starford/stencil/internal/storage"
)

// components is everything both front ends share.
type components struct {
	cfg    *Config
	logger *slog.Logger
	codec  *markdown.Codec
	store  *storage.FS
	db     *index.DB
	svc    *docservice.Service
}

func (c *components) Close() error {
	return c.db.Close()
}

// setup applies the options, opens the store and the index and runs the
// initial sync. extra options are appended to the service options.
func setup(opts []Option, extra ...docservice.Option) (*components, error) {
	app := &application{logWriter: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := app.config

	logger, err := logging.New(app.logWriter, cfg.App.LogLevel, cfg.App.LogFormat)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("store_path", cfg.Store.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	codec, err := cfg.Editor.Codec()
	if err != nil {
		return nil, fmt.Errorf("init codec: %w", err)
	}

	if err := os.MkdirAll(cfg.Store.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	store, err := storage.NewFS(cfg.Store.Path, storage.WithExclude(cfg.Store.Exclude...))
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.SQLite.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	if err := index.Sync(db, store, codec, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	svcOpts := append([]docservice.Option{
		docservice.WithCodec(codec),
		docservice.WithLogger(logger),
		docservice.WithSessionTTL(cfg.Sessions.TTL, cfg.Sessions.CleanupInterval),
	}, extra...)

	return &components{
		cfg:    cfg,
		logger: logger,
		codec:  codec,
		store:  store,
		db:     db,
		svc:    docservice.New(store, db, svcOpts...),
	}, nil
}
