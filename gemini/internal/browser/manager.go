// Package browser manages the Chrome lifecycle for the agent session:
// launch with a persistent user profile, connect via Rod, tear down at
// process shutdown. One Manager per process; the profile directory is the
// only durable artifact.
package browser

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"
)

// Config configures the browser manager.
type Config struct {
	// UserDataDir is the Chrome user-data directory. Created if missing.
	UserDataDir string

	// ProfileDir is the profile name inside UserDataDir. Default: "Default".
	ProfileDir string

	// Headless toggles headless Chrome.
	Headless bool

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.ProfileDir == "" {
		c.ProfileDir = "Default"
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Manager owns one Chrome process.
type Manager struct {
	cfg     Config
	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	closed  bool
}

// NewManager creates a browser Manager. Call Start to launch Chrome.
func NewManager(cfg Config) *Manager {
	cfg.defaults()
	return &Manager{cfg: cfg}
}

// Start launches Chrome with the persistent profile and returns the Rod
// browser handle. Failure to create the profile directory is fatal to the
// caller: it is the one precondition the process cannot run without.
func (m *Manager) Start() (*rod.Browser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, fmt.Errorf("browser: manager is closed")
	}
	if m.browser != nil {
		return m.browser, nil
	}

	if m.cfg.UserDataDir != "" {
		if err := os.MkdirAll(m.cfg.UserDataDir, 0o755); err != nil {
			return nil, fmt.Errorf("browser: profile dir: %w", err)
		}
	}

	l := launcher.New().
		Headless(m.cfg.Headless).
		NoSandbox(true).
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-popup-blocking").
		Set("no-first-run").
		Set("no-default-browser-check").
		Set("window-size", "1920,1080")

	if m.cfg.UserDataDir != "" {
		l = l.UserDataDir(m.cfg.UserDataDir)
	}
	if m.cfg.ProfileDir != "" {
		l = l.ProfileDir(m.cfg.ProfileDir)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("browser: launch: %w", err)
	}
	m.lnch = l

	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("browser: connect: %w", err)
	}

	m.cfg.Logger.Info("browser: launched chrome",
		"headless", m.cfg.Headless, "user_data_dir", m.cfg.UserDataDir)

	m.browser = b
	return b, nil
}

// NewPage opens a stealth page on the running browser.
func (m *Manager) NewPage() (*rod.Page, error) {
	m.mu.Lock()
	b := m.browser
	m.mu.Unlock()

	if b == nil {
		return nil, fmt.Errorf("browser: not started")
	}
	page, err := stealth.Page(b)
	if err != nil {
		return nil, fmt.Errorf("browser: create page: %w", err)
	}
	return page, nil
}

// Close shuts down Chrome.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true

	if m.browser != nil {
		m.browser.Close()
		m.browser = nil
	}
	if m.lnch != nil {
		m.lnch.Cleanup()
		m.lnch = nil
	}
	return nil
}
