// Package fetch orchestrates page acquisition. The Engine is built once
// with a backend mode and shared infrastructure (HTTP client, browser
// manager, cache, AI bridge) and produces one PageResponse per Fetch call.
package fetch

import (
	"context"
	"net/http"

	"github.com/go-rod/rod"
	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/page-engine/pkg/ai"
	"github.com/Sriram-PR/page-engine/pkg/browser"
	"github.com/Sriram-PR/page-engine/pkg/cache"
	"github.com/Sriram-PR/page-engine/pkg/challenge"
	"github.com/Sriram-PR/page-engine/pkg/config"
	"github.com/Sriram-PR/page-engine/pkg/models"
	"github.com/Sriram-PR/page-engine/pkg/waitfor"
)

// Options carries the per-fetch knobs a caller may supply alongside the URL.
type Options struct {
	WaitFor    *waitfor.WaitFor
	Screenshot *browser.ScreenShotConfig
	// AI overrides the bridge's default augmentation config for this
	// fetch. Nil keeps the bridge's own config.
	AI *ai.Config
	// Page is an existing tab to read instead of opening a fresh one. The
	// caller keeps ownership; the engine never closes it.
	Page *rod.Page
	// StaticHTML, when non-empty, is assigned to the page directly instead
	// of navigating to the URL. Used to re-render previously fetched
	// content.
	StaticHTML string
	// PageSet marks Page as already holding the document; navigation is
	// skipped and the page is read as-is. Requires Page.
	PageSet bool
}

// Engine is the page-acquisition orchestrator.
type Engine struct {
	backend        config.BackendMode
	client         *http.Client
	userAgent      string
	maxBytes       int64
	spillThreshold int

	browser      *browser.Manager
	waitEngine   *waitfor.Engine
	resolver     *challenge.Resolver
	store        *cache.Store
	bridge       *ai.Bridge
	keepPage     bool
	navTimeout   config.BrowserConfig
	shotDefaults config.ScreenshotDefaults

	log *logrus.Entry
}

// NewEngine builds an Engine from cfg. The browser manager, cache store,
// and AI bridge are optional; nil disables the corresponding behavior.
func NewEngine(cfg *config.AppConfig, client *http.Client, mgr *browser.Manager, store *cache.Store, bridge *ai.Bridge, logger *logrus.Entry) *Engine {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	waitEngine := waitfor.NewEngine(logger)

	return &Engine{
		backend:        config.GetEffectiveBackend(cfg),
		client:         client,
		userAgent:      cfg.DefaultUserAgent,
		maxBytes:       config.ResolveMaxSizeBytes(cfg.MaxSizeBytes),
		spillThreshold: config.GetEffectiveSpillThreshold(cfg),
		browser:        mgr,
		waitEngine:     waitEngine,
		resolver:       challenge.NewResolver(waitEngine, logger),
		store:          store,
		bridge:         bridge,
		keepPage:       cfg.Browser.KeepPageOpen,
		navTimeout:     cfg.Browser,
		shotDefaults:   cfg.Screenshot,
		log:            logger,
	}
}

// Fetch acquires targetURL with the engine's backend. The browser backend
// falls back to a raw HTTP fetch when the browser layer fails; the returned
// response is never nil.
func (e *Engine) Fetch(ctx context.Context, targetURL string, opts *Options) *models.PageResponse {
	if opts == nil {
		opts = &Options{}
	}

	switch e.backend {
	case config.BackendBrowser:
		resp, err := e.fetchBrowser(ctx, targetURL, opts)
		if err != nil {
			e.log.WithError(err).WithField("url", targetURL).Error("Browser fetch failed, defaulting to raw HTTP request")
			return e.fetchRaw(ctx, targetURL, false)
		}
		return resp
	case config.BackendSpill:
		return e.fetchRaw(ctx, targetURL, true)
	default:
		return e.fetchRaw(ctx, targetURL, false)
	}
}

// Backend reports the mode the engine was built with.
func (e *Engine) Backend() config.BackendMode { return e.backend }
