package runtimeinit

import (
	"context"
	"fmt"
	"log"
	"time"

	"learning-persona/src/backend"
	"learning-persona/src/clipboard"
	"learning-persona/src/config"
	"learning-persona/src/dispatch"
	"learning-persona/src/document"
	"learning-persona/src/notification"
	"learning-persona/src/progress"
	"learning-persona/src/screenshot"
	"learning-persona/src/store"
)

type Options struct {
	LoadOptions  config.LoadOptions
	SetupLogging func(bool)
	// RequireBackend fails startup when GET /debug does not answer.
	RequireBackend bool
	// ShowBlockingError also reports a failed ping through the notifier.
	ShowBlockingError bool
	// Store replaces the file store, e.g. with store.NewMemory in tests.
	Store store.Store
}

// Runtime is everything a front end needs, built from one configuration.
type Runtime struct {
	Config     *config.Config
	Backend    *backend.Client
	Store      store.Store
	Progress   *progress.Tracker
	Dispatcher *dispatch.Dispatcher
	Capturer   *screenshot.Capturer
	Renderer   *document.PopplerRenderer
	BackendUp  bool
}

func Bootstrap(ctx context.Context, opts Options) (*Runtime, error) {
	cfg, err := config.LoadWithOptions(opts.LoadOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if opts.SetupLogging != nil {
		opts.SetupLogging(cfg.EnableFileLogging)
	}
	log.Printf("Config: api=%s store=%s capture=%s viewport=%dx%d", cfg.APIURL, cfg.StorePath, cfg.CaptureFormat, cfg.ViewportWidth, cfg.ViewportHeight)

	timeout := time.Duration(cfg.RequestTimeoutSec) * time.Second
	client := backend.New(backend.Config{BaseURL: cfg.APIURL, Timeout: timeout})

	rt := &Runtime{
		Config:     cfg,
		Backend:    client,
		Dispatcher: dispatch.New(client, timeout),
		Capturer:   screenshot.NewCapturer(cfg.CaptureFormat, cfg.JPEGQuality),
		Renderer:   document.NewPopplerRenderer(cfg.PdftoppmPath, cfg.RenderDPI),
	}

	rt.Store = opts.Store
	if rt.Store == nil {
		rt.Store = store.NewFile(cfg.StorePath)
	}
	rt.Progress = progress.New(rt.Store)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx); err != nil {
		if opts.ShowBlockingError {
			notification.ShowError("Backend unavailable", fmt.Sprintf("Startup check against %s failed: %v\n\nIs the persona server running?", cfg.APIURL, err))
		}
		if opts.RequireBackend {
			return nil, fmt.Errorf("startup check failed: %w", err)
		}
		log.Printf("Backend ping failed, continuing: %v", err)
	} else {
		rt.BackendUp = true
		log.Printf("Backend ping succeeded")
	}

	if !rt.Renderer.Available() {
		log.Printf("pdftoppm not found at %q; PDF pages cannot be rendered", cfg.PdftoppmPath)
	}
	if err := clipboard.Init(); err != nil {
		log.Printf("Clipboard disabled: %v", err)
	}

	return rt, nil
}
