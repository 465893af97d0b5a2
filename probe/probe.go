// Package probe measures the runtime behaviour of a web page: dynamic-code
// evaluation, network activity, DOM churn, timing and memory. Counters are
// installed by wrapping the relevant global primitives before any page
// script runs, so load-time code cannot bypass them.
//
// Each probed URL gets its own Session inside a fresh incognito browser
// context, so one page's monkey-patches or leaked timers cannot contaminate
// another concurrent session's counters.
package probe

import (
	"log/slog"
	"time"

	"github.com/hazyhaar/phishsense/probe/internal/browser"
)

// Config configures a Prober.
type Config struct {
	// RemoteURL connects to an external Chrome instead of launching one.
	RemoteURL string

	// Headful disables headless mode for debugging.
	Headful bool

	// NavTimeout bounds navigation plus the page load event. Default: 20s.
	NavTimeout time.Duration

	// ObserveWindow is the fixed wall-clock window during which DOM
	// mutations are accumulated. Default: 5s.
	ObserveWindow time.Duration

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.NavTimeout <= 0 {
		c.NavTimeout = 20 * time.Second
	}
	if c.ObserveWindow <= 0 {
		c.ObserveWindow = 5 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Prober owns the shared browser and opens isolated sessions on it.
type Prober struct {
	cfg Config
	mgr *browser.Manager
}

// New creates a Prober. Call Start before opening sessions.
func New(cfg Config) *Prober {
	cfg.defaults()
	return &Prober{
		cfg: cfg,
		mgr: browser.NewManager(browser.Config{
			RemoteURL: cfg.RemoteURL,
			Headful:   cfg.Headful,
			Logger:    cfg.Logger,
		}),
	}
}

// Start launches (or connects to) the browser.
func (p *Prober) Start() error {
	return p.mgr.Start()
}

// Close shuts the browser down. Open sessions become unusable.
func (p *Prober) Close() error {
	return p.mgr.Close()
}
