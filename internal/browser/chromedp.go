// internal/browser/chromedp.go
package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
)

// ChromeSession implements Session using chromedp
type ChromeSession struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	config      *Config
	navigated   bool
	navMu       sync.RWMutex
}

// NewChromeSession starts a headless Chrome tab
func NewChromeSession(config *Config) (*ChromeSession, error) {
	if config == nil {
		config = DefaultConfig()
	}

	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.DisableGPU,
		chromedp.NoSandbox, // Required for Docker environments
	}

	if config.Headless {
		opts = append(opts, chromedp.Headless)
	}
	if config.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(config.UserDataDir))
	}
	if config.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(config.UserAgent))
	}
	if config.DisableImages {
		opts = append(opts, chromedp.Flag("blink-settings", "imagesEnabled=false"))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	ctx, cancel := chromedp.NewContext(allocCtx)

	session := &ChromeSession{
		ctx:         ctx,
		cancel:      cancel,
		allocCancel: allocCancel,
		config:      config,
	}

	if err := chromedp.Run(ctx, chromedp.EmulateViewport(int64(config.ViewportWidth), int64(config.ViewportHeight))); err != nil {
		session.Close()
		return nil, fmt.Errorf("failed to initialize browser: %w", err)
	}

	return session, nil
}

// Navigate loads a URL and waits for the document body to be ready
func (s *ChromeSession) Navigate(ctx context.Context, url string) error {
	runCtx, cancel := s.runContext(ctx, s.config.Timeout)
	defer cancel()

	tasks := []chromedp.Action{
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
	}
	if s.config.WaitDelay > 0 {
		tasks = append(tasks, chromedp.Sleep(s.config.WaitDelay))
	}

	if err := chromedp.Run(runCtx, tasks...); err != nil {
		s.setNavigated(false)
		return fmt.Errorf("navigation failed: %w", err)
	}

	s.setNavigated(true)
	return nil
}

// HTML returns the current page serialized as HTML
func (s *ChromeSession) HTML(ctx context.Context) (string, error) {
	if !s.hasNavigated() {
		return "", fmt.Errorf("cannot snapshot DOM: no successful navigation yet")
	}

	runCtx, cancel := s.runContext(ctx, s.config.Timeout)
	defer cancel()

	var html string
	if err := chromedp.Run(runCtx, chromedp.OuterHTML("html", &html)); err != nil {
		return "", fmt.Errorf("failed to get HTML: %w", err)
	}
	return html, nil
}

// activationProbe classifies the first element matching a selector:
// "missing", "disabled", or "ready".
const activationProbe = `(() => {
	const el = document.querySelector(%q);
	if (!el) return "missing";
	if (el.disabled || el.getAttribute("aria-disabled") === "true") return "disabled";
	const style = window.getComputedStyle(el);
	if (style.display === "none" || style.visibility === "hidden") return "missing";
	return "ready";
})()`

// Activate clicks the element matching selector. An absent or disabled
// control is the normal end of pagination, so it reports false without an
// error. A native click that fails on an existing element falls back to a
// synthetic JavaScript click, which handles controls covered by overlays.
func (s *ChromeSession) Activate(ctx context.Context, selector string) (bool, error) {
	runCtx, cancel := s.runContext(ctx, 10*time.Second)
	defer cancel()

	var state string
	if err := chromedp.Run(runCtx, chromedp.Evaluate(fmt.Sprintf(activationProbe, selector), &state)); err != nil {
		return false, fmt.Errorf("activation probe failed: %w", err)
	}
	if state != "ready" {
		return false, nil
	}

	if err := chromedp.Run(runCtx, chromedp.Click(selector, chromedp.ByQuery)); err == nil {
		return true, nil
	}

	// Native click can fail on elements behind cookie banners or sticky
	// headers; a synthetic click ignores hit testing.
	click := fmt.Sprintf(`(() => { const el = document.querySelector(%q); if (!el) return false; el.click(); return true; })()`, selector)
	var clicked bool
	if err := chromedp.Run(runCtx, chromedp.Evaluate(click, &clicked)); err != nil {
		return false, fmt.Errorf("activation failed: %w", err)
	}
	return clicked, nil
}

// WaitSettled waits for in-flight rendering to finish after an activation.
// It polls document.readyState and then grants the configured grace delay
// for late XHR-driven inserts.
func (s *ChromeSession) WaitSettled(ctx context.Context, timeout time.Duration) error {
	runCtx, cancel := s.runContext(ctx, timeout)
	defer cancel()

	poll := `document.readyState === "complete" || document.readyState === "interactive"`
	deadline := time.Now().Add(timeout)
	for {
		var ready bool
		if err := chromedp.Run(runCtx, chromedp.Evaluate(poll, &ready)); err != nil {
			return fmt.Errorf("settle poll failed: %w", err)
		}
		if ready {
			break
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("page did not settle within %s", timeout)
		}
		select {
		case <-runCtx.Done():
			return runCtx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}

	if s.config.WaitDelay > 0 {
		select {
		case <-runCtx.Done():
			return runCtx.Err()
		case <-time.After(s.config.WaitDelay):
		}
	}
	return nil
}

// Screenshot captures the full page as PNG
func (s *ChromeSession) Screenshot(ctx context.Context) ([]byte, error) {
	runCtx, cancel := s.runContext(ctx, s.config.Timeout)
	defer cancel()

	var buf []byte
	if err := chromedp.Run(runCtx, chromedp.FullScreenshot(&buf, 90)); err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}
	return buf, nil
}

// Close releases the tab and the Chrome process
func (s *ChromeSession) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.allocCancel != nil {
		s.allocCancel()
	}
	return nil
}

// runContext ties a chromedp run to both the caller's context and a timeout.
// chromedp actions run on the tab context, so caller cancellation is bridged
// by cancelling the derived context.
func (s *ChromeSession) runContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	var runCtx context.Context
	var cancel context.CancelFunc
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(s.ctx, timeout)
	} else {
		runCtx, cancel = context.WithCancel(s.ctx)
	}
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

func (s *ChromeSession) setNavigated(ok bool) {
	s.navMu.Lock()
	s.navigated = ok
	s.navMu.Unlock()
}

func (s *ChromeSession) hasNavigated() bool {
	s.navMu.RLock()
	defer s.navMu.RUnlock()
	return s.navigated
}

// NormalizeURL rejects obviously unusable product URLs before a session is
// spent on them, and defaults the scheme to https.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty URL")
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	return raw, nil
}
