// internal/browser/manager.go
package browser

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/stepwise/api/schemas"
	"github.com/xkilldash9x/stepwise/internal/browser/session"
	"github.com/xkilldash9x/stepwise/internal/browser/stealth"
	"github.com/xkilldash9x/stepwise/internal/config"
)

const shutdownGracePeriod = 15 * time.Second

// Manager owns one chromedp-controlled Chrome process and hands out tabs from
// it. Each tab is an isolated session.Session.
type Manager struct {
	logger *zap.Logger
	cfg    config.BrowserConfig

	// allocatorCtx manages the browser process; browserCtx is the first tab,
	// kept open so the browser lives between runs. New tabs derive from it.
	allocatorCtx    context.Context
	allocatorCancel context.CancelFunc
	browserCtx      context.Context
	browserCancel   context.CancelFunc

	sessions map[string]*session.Session
	mu       sync.Mutex
	// wg tracks open tabs for a graceful shutdown.
	wg sync.WaitGroup
}

var _ schemas.PageProvider = (*Manager)(nil)

// NewManager launches the browser and verifies it responds.
func NewManager(ctx context.Context, logger *zap.Logger, cfg config.BrowserConfig) (*Manager, error) {
	m := &Manager{
		logger:   logger.Named("browser_manager"),
		cfg:      cfg,
		sessions: make(map[string]*session.Session),
	}
	if err := m.launchBrowser(ctx); err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	return m, nil
}

// launchBrowser prepares allocator options and starts the browser process.
func (m *Manager) launchBrowser(ctx context.Context) error {
	m.logger.Info("Initializing browser allocator...", zap.Bool("headless", m.cfg.Headless))

	// The allocator outlives ctx; only the launch check is bounded by it.
	m.allocatorCtx, m.allocatorCancel = chromedp.NewExecAllocator(context.Background(), m.buildAllocatorOptions()...)
	m.browserCtx, m.browserCancel = chromedp.NewContext(m.allocatorCtx)

	launched := make(chan error, 1)
	go func() { launched <- chromedp.Run(m.browserCtx, chromedp.Navigate("about:blank")) }()

	timer := time.NewTimer(m.cfg.LaunchTimeout)
	defer timer.Stop()
	select {
	case err := <-launched:
		if err != nil {
			m.terminate()
			return fmt.Errorf("browser failed to start or respond: %w", err)
		}
	case <-timer.C:
		m.terminate()
		return fmt.Errorf("browser did not respond within %v", m.cfg.LaunchTimeout)
	case <-ctx.Done():
		m.terminate()
		return ctx.Err()
	}

	m.logger.Info("Browser launched successfully and is responsive.")
	return nil
}

// buildAllocatorOptions assembles the Chrome flags for the configured browser.
func (m *Manager) buildAllocatorOptions() []chromedp.ExecAllocatorOption {
	// Later flags replace earlier ones of the same name and false drops a flag,
	// so the defaults can be overridden in place.
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", m.cfg.Headless),
		chromedp.Flag("ignore-certificate-errors", m.cfg.IgnoreTLSErrors),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-gpu", m.cfg.Headless),
		// Pages restored from the back/forward cache emit no lifecycle events.
		chromedp.Flag("disable-features", "BackForwardCache"),
		chromedp.WindowSize(m.cfg.Viewport.Width, m.cfg.Viewport.Height),
	)
	if m.cfg.Stealth {
		opts = append(opts,
			chromedp.Flag("enable-automation", false),
			chromedp.Flag("disable-blink-features", "AutomationControlled"),
			chromedp.UserAgent(stealth.DefaultPersona.UserAgent),
		)
	}
	if m.cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(m.cfg.ExecPath))
	}

	// Custom arguments from the config file, "--name=value" or "--name".
	for _, arg := range m.cfg.Args {
		parts := strings.SplitN(arg, "=", 2)
		name := strings.TrimPrefix(parts[0], "--")
		if len(parts) == 2 {
			opts = append(opts, chromedp.Flag(name, parts[1]))
		} else {
			opts = append(opts, chromedp.Flag(name, true))
		}
	}

	// Flags required for running inside containers.
	if runtime.GOOS == "linux" {
		opts = append(opts,
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("disable-setuid-sandbox", true),
		)
	}
	return opts
}

// NewPage opens a new tab. The returned release function closes it.
func (m *Manager) NewPage(ctx context.Context) (schemas.Page, func(), error) {
	tabCtx, cancel := chromedp.NewContext(m.browserCtx)
	s := session.NewSession(tabCtx, cancel, m.logger)

	var setup []chromedp.Action
	if m.cfg.Stealth {
		setup = append(setup, stealth.Apply(stealth.DefaultPersona, m.logger))
	}
	setup = append(setup, chromedp.EmulateViewport(int64(m.cfg.Viewport.Width), int64(m.cfg.Viewport.Height)))

	m.wg.Add(1)
	s.OnClose(func() {
		m.mu.Lock()
		delete(m.sessions, s.ID())
		m.mu.Unlock()
		m.wg.Done()
		m.logger.Debug("Session removed from manager.", zap.String("session_id", s.ID()))
	})

	if err := s.Initialize(ctx, setup...); err != nil {
		_ = s.Close(context.Background())
		return nil, nil, fmt.Errorf("failed to initialize session: %w", err)
	}

	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()
	m.logger.Debug("New session created.", zap.String("session_id", s.ID()))

	release := func() {
		if err := s.Close(context.Background()); err != nil {
			m.logger.Warn("Error closing session.", zap.String("session_id", s.ID()), zap.Error(err))
		}
	}
	return s, release, nil
}

// Shutdown closes any open tabs, waits for them up to the ctx deadline, then
// terminates the browser process.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.logger.Info("Browser manager shutdown initiated.")

	m.mu.Lock()
	open := make([]*session.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		open = append(open, s)
	}
	m.mu.Unlock()
	for _, s := range open {
		go func(s *session.Session) {
			if err := s.Close(ctx); err != nil {
				m.logger.Warn("Error during session close in shutdown.", zap.String("session_id", s.ID()), zap.Error(err))
			}
		}(s)
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	grace := time.NewTimer(shutdownGracePeriod)
	defer grace.Stop()
	select {
	case <-done:
		m.logger.Info("All sessions have completed.")
	case <-ctx.Done():
		m.logger.Warn("Shutdown deadline exceeded. Forcing browser termination.", zap.Error(ctx.Err()))
	case <-grace.C:
		m.logger.Warn("Sessions did not close within the grace period. Forcing browser termination.")
	}

	m.terminate()
	return nil
}

func (m *Manager) terminate() {
	if m.browserCancel != nil {
		m.browserCancel()
	}
	if m.allocatorCancel != nil {
		m.logger.Info("Shutting down main browser process...")
		m.allocatorCancel()
		<-m.allocatorCtx.Done()
	}
}
