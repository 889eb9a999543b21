package rodpage

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"go.uber.org/zap"

	"github.com/xkilldash9x/stepwise/api/schemas"
	"github.com/xkilldash9x/stepwise/internal/config"
)

// Manager launches one browser through the rod launcher and opens a page per
// run.
type Manager struct {
	logger   *zap.Logger
	cfg      config.BrowserConfig
	launcher *launcher.Launcher
	browser  *rod.Browser

	wg sync.WaitGroup
}

var _ schemas.PageProvider = (*Manager)(nil)

// NewLauncher builds the rod launcher for cfg without starting it.
func NewLauncher(cfg config.BrowserConfig) *launcher.Launcher {
	l := launcher.New().
		Leakless(true).
		Headless(cfg.Headless).
		NoSandbox(true).
		Set("window-size", fmt.Sprintf("%d,%d", cfg.Viewport.Width, cfg.Viewport.Height)).
		Set("disable-features", "BackForwardCache")
	if cfg.IgnoreTLSErrors {
		l = l.Set("ignore-certificate-errors")
	}
	if cfg.ExecPath != "" {
		l = l.Bin(cfg.ExecPath)
	}
	for _, arg := range cfg.Args {
		parts := strings.SplitN(arg, "=", 2)
		name := flags.Flag(strings.TrimPrefix(parts[0], "--"))
		if len(parts) == 2 {
			l = l.Set(name, parts[1])
		} else {
			l = l.Set(name)
		}
	}
	return l
}

// NewManager starts the browser and connects to it.
func NewManager(ctx context.Context, logger *zap.Logger, cfg config.BrowserConfig) (*Manager, error) {
	m := &Manager{
		logger:   logger.Named("rod_manager"),
		cfg:      cfg,
		launcher: NewLauncher(cfg),
	}

	launchCtx, cancel := context.WithTimeout(ctx, cfg.LaunchTimeout)
	defer cancel()

	controlURL, err := m.launcher.Context(launchCtx).Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	// The browser connection outlives ctx; it ends with Shutdown.
	m.browser = rod.New().ControlURL(controlURL)
	if err := m.browser.Connect(); err != nil {
		m.launcher.Kill()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}
	m.logger.Info("Browser launched successfully and is responsive.", zap.Bool("headless", cfg.Headless))
	return m, nil
}

// NewPage opens a tab, in stealth mode when configured.
func (m *Manager) NewPage(ctx context.Context) (schemas.Page, func(), error) {
	var (
		p   *rod.Page
		err error
	)
	b := m.browser.Context(ctx)
	if m.cfg.Stealth {
		p, err = stealth.Page(b)
	} else {
		p, err = b.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open page: %w", err)
	}
	// Detach the page from ctx; each operation binds its own context.
	p = p.Context(context.Background())

	if err := p.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             m.cfg.Viewport.Width,
		Height:            m.cfg.Viewport.Height,
		DeviceScaleFactor: 1,
	}); err != nil {
		m.logger.Warn("Failed to set viewport.", zap.Error(err))
	}

	m.wg.Add(1)
	var once sync.Once
	release := func() {
		once.Do(func() {
			if err := p.Close(); err != nil {
				m.logger.Debug("Error closing page.", zap.Error(err))
			}
			m.wg.Done()
		})
	}
	return New(p, m.logger.With(zap.String("driver", "rod"))), release, nil
}

// Shutdown waits for released pages up to the ctx deadline and then closes
// the browser.
func (m *Manager) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		m.logger.Warn("Shutdown deadline exceeded. Forcing browser termination.", zap.Error(ctx.Err()))
	}

	err := m.browser.Close()
	m.launcher.Kill()
	m.launcher.Cleanup()
	if err != nil {
		return fmt.Errorf("closing browser: %w", err)
	}
	return nil
}
