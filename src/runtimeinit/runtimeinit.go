package runtimeinit

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"selection-translate/src/clipboard"
	"selection-translate/src/config"
	"selection-translate/src/llm"
	"selection-translate/src/logutil"
)

type Options struct {
	LoadOptions config.LoadOptions
	// SetupLogging installs the global logger and returns its flush func.
	SetupLogging func(enableFileLogging bool) func()
	// InitClipboard is set by entry points that capture selections.
	InitClipboard bool
	// PingTimeout bounds the startup reachability check of the local model
	// server. Zero skips the check.
	PingTimeout time.Duration
}

// Runtime is everything an entry point needs after startup.
type Runtime struct {
	Config   *config.Config
	Store    *config.Store
	Settings config.Settings
	Backend  *llm.Router
	Models   *llm.ModelManager
	// Close flushes the logger.
	Close func()
}

func Bootstrap(ctx context.Context, opts Options) (*Runtime, error) {
	cfg, err := config.LoadWithOptions(opts.LoadOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	closeLog := func() {}
	if opts.SetupLogging != nil {
		closeLog = opts.SetupLogging(cfg.EnableFileLogging)
	}

	store := config.NewStore(cfg.ProfilePath)
	settings := store.Load()
	settings.Mode = config.ModeLocal
	settings.Model = cfg.DefaultModel
	zap.S().Infof("runtime: profile %s, API key %s, base URL %s", store.Path(), logutil.RedactKey(settings.APIKey), settings.APIBaseURL)

	rt := &Runtime{
		Config:   cfg,
		Store:    store,
		Settings: settings,
		Backend:  llm.NewRouter(cfg.OllamaHost, cfg.RequestTimeout()),
		Models:   llm.NewModelManager(cfg.OllamaHost, cfg.RequestTimeout()),
		Close:    closeLog,
	}

	if opts.PingTimeout > 0 {
		pingCtx, cancel := context.WithTimeout(ctx, opts.PingTimeout)
		if v, err := rt.Models.Ping(pingCtx); err != nil {
			zap.S().Warnf("runtime: local model server not reachable: %v", err)
		} else {
			zap.S().Infof("runtime: local model server %s version %s", cfg.OllamaHost, v)
		}
		cancel()
	}

	if opts.InitClipboard {
		if err := clipboard.Init(); err != nil {
			closeLog()
			return nil, fmt.Errorf("failed to initialize clipboard: %w", err)
		}
	}

	return rt, nil
}
