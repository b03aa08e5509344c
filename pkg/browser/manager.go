// Package browser manages a headless Chrome through rod: launch or remote
// attach, stealth page creation, navigation with HTTP metadata capture,
// and screenshots.
package browser

import (
	"context"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	log "github.com/sirupsen/logrus"

	"github.com/Sriram-PR/page-engine/pkg/config"
	"github.com/Sriram-PR/page-engine/pkg/utils"
)

// Manager owns a single Chrome connection shared by all fetches.
type Manager struct {
	cfg config.BrowserConfig
	log *log.Entry

	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	closed  bool
}

// NewManager creates a browser Manager. Call Start to launch or attach.
func NewManager(cfg config.BrowserConfig, logger *log.Entry) *Manager {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	return &Manager{cfg: cfg, log: logger}
}

// Start launches a local Chrome, or attaches to cfg.RemoteURL when set,
// and connects the rod client. Idempotent until Close.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return utils.WrapErrorf(utils.ErrBrowserNavigation, "browser manager is closed")
	}
	if m.browser != nil {
		return nil
	}

	var wsURL string
	if m.cfg.RemoteURL != "" {
		wsURL = m.cfg.RemoteURL
		m.log.WithField("url", wsURL).Info("Connecting to remote browser")
	} else {
		l := launcher.New().
			Headless(m.cfg.GetEffectiveHeadless()).
			Set("disable-blink-features", "AutomationControlled")
		u, err := l.Launch()
		if err != nil {
			return utils.WrapErrorf(utils.ErrBrowserNavigation, "launching chrome: %v", err)
		}
		wsURL = u
		m.lnch = l
		m.log.WithField("url", wsURL).Info("Launched local chrome")
	}

	b := rod.New().Context(ctx).ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		return utils.WrapErrorf(utils.ErrBrowserNavigation, "connecting to chrome: %v", err)
	}
	if err := b.IgnoreCertErrors(true); err != nil {
		m.log.WithError(err).Warn("Could not ignore certificate errors")
	}

	m.browser = b
	return nil
}

// NewPage opens a fresh page, with the stealth evasions injected unless
// disabled in the config.
func (m *Manager) NewPage() (*rod.Page, error) {
	m.mu.Lock()
	b := m.browser
	m.mu.Unlock()

	if b == nil {
		return nil, utils.WrapErrorf(utils.ErrBrowserNavigation, "browser not started")
	}

	var page *rod.Page
	var err error
	if m.cfg.GetEffectiveStealth() {
		page, err = stealth.Page(b)
	} else {
		page, err = b.Page(proto.TargetCreateTarget{URL: ""})
	}
	if err != nil {
		return nil, utils.WrapErrorf(utils.ErrBrowserNavigation, "creating page: %v", err)
	}
	return page, nil
}

// Close shuts down the connection and any locally launched Chrome.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	if m.browser != nil {
		if err := m.browser.Close(); err != nil {
			m.log.WithError(err).Debug("Browser close reported an error")
		}
		m.browser = nil
	}
	if m.lnch != nil {
		m.lnch.Cleanup()
		m.lnch = nil
	}
}
