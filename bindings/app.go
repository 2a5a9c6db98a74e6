// Package bindings holds the structs bound into the Wails window. Their
// exported methods are what the frontend can call.
package bindings

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/MJE43/everything-launcher/internal/catalog"
	"github.com/MJE43/everything-launcher/internal/config"
	"github.com/MJE43/everything-launcher/internal/livehttp"
	"github.com/MJE43/everything-launcher/internal/search"
	"github.com/MJE43/everything-launcher/internal/secrets"
)

// Version is reported to the frontend's About view.
const Version = "0.1.0"

// App owns the application lifecycle and fans Startup/Shutdown out to the
// other modules.
type App struct {
	ctx      context.Context
	cfg      config.Config
	logger   zerolog.Logger
	store    *catalog.Store
	shuffle  *ShuffleModule
	launcher *LauncherModule
	live     *livehttp.Module
}

// Modules are the bound services created by New.
type Modules struct {
	Shuffle  *ShuffleModule
	Launcher *LauncherModule
	Live     *livehttp.Module
}

// New opens the catalog under cfg.DataDir and wires every module.
func New(cfg config.Config, logger zerolog.Logger) (*App, Modules, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, Modules{}, fmt.Errorf("create data dir: %w", err)
	}
	cfg = resolveAPIToken(cfg, newTokenStore(cfg), logger)
	store, err := catalog.New(cfg.CatalogPath())
	if err != nil {
		return nil, Modules{}, err
	}

	shuffle := NewShuffleModule(ShuffleOptions(cfg), logger)
	launcher := NewLauncherModule(store, logger)
	live := livehttp.NewModule(shuffle, store, cfg.HTTPPort, cfg.HTTPToken, logger)

	a := &App{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		shuffle:  shuffle,
		launcher: launcher,
		live:     live,
	}
	return a, Modules{Shuffle: shuffle, Launcher: launcher, Live: live}, nil
}

// newTokenStore returns the keychain-backed store for the loopback API
// token, falling back to a file in the data directory.
func newTokenStore(cfg config.Config) *secrets.TokenStore {
	return secrets.NewTokenStore(secrets.DefaultService, filepath.Join(cfg.DataDir, "secrets.json"))
}

// resolveAPIToken fills cfg.HTTPToken from the keychain when the loopback
// API is enabled and no token was configured. A configured token wins. If
// no token can be loaded or stored the API is disabled.
func resolveAPIToken(cfg config.Config, store *secrets.TokenStore, logger zerolog.Logger) config.Config {
	if cfg.HTTPPort == 0 || cfg.TokenEnabled() {
		return cfg
	}
	token, created, err := store.LoadOrCreate()
	if err != nil {
		logger.Warn().Err(err).Msg("no api token available; loopback api disabled")
		cfg.HTTPPort = 0
		return cfg
	}
	if created {
		logger.Info().Msg("generated loopback api token")
	}
	cfg.HTTPToken = token
	return cfg
}

// ShuffleOptions maps configuration onto search options.
func ShuffleOptions(cfg config.Config) search.Options {
	return search.Options{
		BatchSize:     cfg.BatchSize,
		FrameInterval: cfg.FrameInterval,
		Algorithm:     cfg.Shuffle,
	}
}

// Startup is called by Wails on application startup. A loopback API that
// fails to bind is logged and the app keeps running without it.
func (a *App) Startup(ctx context.Context) {
	a.ctx = ctx
	a.shuffle.Startup(ctx)
	a.launcher.Startup(ctx)

	if err := a.live.Startup(ctx); err != nil {
		a.logger.Warn().Err(err).Msg("loopback api failed to start")
		return
	}
	if info := a.live.Info(); info.Enabled {
		a.logger.Info().Str("url", info.URL).Bool("token", info.TokenEnabled).Msg("loopback api ready")
	}
}

// Shutdown stops the search and the loopback API, then closes the catalog.
func (a *App) Shutdown(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.shuffle.Stop()
		return nil
	})
	g.Go(func() error {
		return a.live.Shutdown(gctx)
	})
	err := errors.Join(g.Wait(), a.store.Close())
	if err != nil {
		a.logger.Error().Err(err).Msg("shutdown")
	}
	return err
}

// GetVersion returns the application version.
func (a *App) GetVersion() string {
	return Version
}

// GetConfig returns the resolved configuration. The API token is omitted.
func (a *App) GetConfig() config.Config {
	return a.cfg
}

// GetAPIToken returns the token loopback API clients must send in
// X-Launcher-Token.
func (a *App) GetAPIToken() string {
	return a.cfg.HTTPToken
}
