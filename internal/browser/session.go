// Package browser implements the page-fetch capability on chromedp. One
// Session owns one exclusive browser process, reused for every account in a
// run and closed on every exit path.
package browser

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/numerus/internal/common"
	"github.com/ternarybob/numerus/internal/interfaces"
)

// fallbackChromePaths are tried, in order, when the default launch fails
// and no explicit chrome_path is configured.
var fallbackChromePaths = []string{
	"google-chrome",
	"chromium",
	"chromium-browser",
}

// lastResortChromePath is the final fixed location tried before giving up.
const lastResortChromePath = "/usr/bin/google-chrome-stable"

// Session is the single browser session behind interfaces.Page.
type Session struct {
	config common.BrowserConfig
	logger arbor.ILogger

	browserCtx      context.Context
	browserCancel   context.CancelFunc
	allocatorCancel context.CancelFunc

	throttle *Throttle
	closed   bool
}

// NewSession launches a browser, trying the documented fallback sequence:
// default launch, then configured or well-known chrome binaries, then a
// last-resort fixed path. Every candidate must pass an about:blank startup
// probe. All candidates failing is fatal for the run.
func NewSession(ctx context.Context, config common.BrowserConfig, logger arbor.ILogger) (*Session, error) {
	session := &Session{
		config:   config,
		logger:   logger,
		throttle: NewThrottle(config.RequestDelay),
	}

	candidates := session.execPathCandidates()

	var lastErr error
	for i, execPath := range candidates {
		if err := session.launch(ctx, execPath); err != nil {
			lastErr = err
			logger.Warn().
				Int("candidate", i+1).
				Int("candidates", len(candidates)).
				Str("exec_path", displayPath(execPath)).
				Err(err).
				Msg("Browser launch failed, trying next candidate")
			continue
		}

		logger.Info().
			Str("exec_path", displayPath(execPath)).
			Bool("headless", config.Headless).
			Str("user_agent", config.UserAgent).
			Msg("Browser session initialized")
		return session, nil
	}

	return nil, fmt.Errorf("failed to launch browser after %d candidates: %w", len(candidates), lastErr)
}

// execPathCandidates returns the launch sequence: empty string means let
// chromedp locate the browser itself.
func (s *Session) execPathCandidates() []string {
	candidates := []string{""}

	if s.config.ChromePath != "" {
		candidates = append(candidates, s.config.ChromePath)
	} else {
		for _, name := range fallbackChromePaths {
			if path, err := exec.LookPath(name); err == nil {
				candidates = append(candidates, path)
			}
		}
	}

	return append(candidates, lastResortChromePath)
}

// launch starts one browser candidate and runs the startup probe.
func (s *Session) launch(ctx context.Context, execPath string) error {
	opts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", s.config.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-software-rasterizer", true),
		chromedp.Flag("disable-webgl", true),
		chromedp.WindowSize(s.config.WindowWidth, s.config.WindowHeight),
		chromedp.UserAgent(s.config.UserAgent),
	)
	if execPath != "" {
		opts = append(opts, chromedp.ExecPath(execPath))
	}

	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			s.logger.Debug().Msgf("chromedp: "+format, args...)
		}),
	)

	probeCtx, probeCancel := context.WithTimeout(browserCtx, s.config.NavTimeout)
	defer probeCancel()

	if err := chromedp.Run(probeCtx, chromedp.Navigate("about:blank")); err != nil {
		browserCancel()
		allocatorCancel()
		return fmt.Errorf("startup probe failed: %w", err)
	}

	s.browserCtx = browserCtx
	s.browserCancel = browserCancel
	s.allocatorCancel = allocatorCancel
	return nil
}

// opContext derives a per-operation context bound to both the caller's
// context and the browser session.
func (s *Session) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	opCtx, cancel := context.WithTimeout(s.browserCtx, s.config.OpTimeout)

	// Propagate caller cancellation without detaching from the browser.
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-opCtx.Done():
		}
	}()

	return opCtx, cancel
}

// Navigate loads the URL, honoring the per-host politeness throttle.
func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := s.throttle.Wait(ctx, url); err != nil {
		return err
	}

	navCtx, cancel := context.WithTimeout(s.browserCtx, s.config.NavTimeout)
	defer cancel()

	if err := chromedp.Run(navCtx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

// Location returns the current page URL.
func (s *Session) Location(ctx context.Context) (string, error) {
	opCtx, cancel := s.opContext(ctx)
	defer cancel()

	var location string
	err := chromedp.Run(opCtx, chromedp.Location(&location))
	return location, err
}

// FindElements returns handles for all elements matching the CSS selector.
// No matches is a normal, empty result.
func (s *Session) FindElements(ctx context.Context, selector string) ([]interfaces.Element, error) {
	opCtx, cancel := s.opContext(ctx)
	defer cancel()

	var nodes []*cdp.Node
	err := chromedp.Run(opCtx,
		chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0)),
	)
	if err != nil {
		return nil, fmt.Errorf("find %q: %w", selector, err)
	}

	elements := make([]interfaces.Element, 0, len(nodes))
	for _, node := range nodes {
		elements = append(elements, &element{session: s, node: node})
	}
	return elements, nil
}

// EvaluateScript executes JavaScript in the page and unmarshals the result.
func (s *Session) EvaluateScript(ctx context.Context, script string, out interface{}) error {
	opCtx, cancel := s.opContext(ctx)
	defer cancel()

	return chromedp.Run(opCtx, chromedp.Evaluate(script, out))
}

// OuterHTML returns the full rendered document HTML.
func (s *Session) OuterHTML(ctx context.Context) (string, error) {
	opCtx, cancel := s.opContext(ctx)
	defer cancel()

	var html string
	err := chromedp.Run(opCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

// WaitVisible blocks until the selector is visible or the timeout elapses.
func (s *Session) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(s.browserCtx, timeout)
	defer cancel()

	if err := chromedp.Run(waitCtx, chromedp.WaitVisible(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("wait for %q: %w", selector, err)
	}
	return nil
}

// Click clicks the first visible element matching the selector.
func (s *Session) Click(ctx context.Context, selector string, timeout time.Duration) error {
	clickCtx, cancel := context.WithTimeout(s.browserCtx, timeout)
	defer cancel()

	return chromedp.Run(clickCtx, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible))
}

// Settle blocks for the given duration, honoring cancellation.
func (s *Session) Settle(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.browserCtx.Done():
		return s.browserCtx.Err()
	case <-timer.C:
		return nil
	}
}

// Close releases the browser session. Safe to call more than once.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	if s.browserCancel != nil {
		s.browserCancel()
	}
	if s.allocatorCancel != nil {
		s.allocatorCancel()
	}

	s.logger.Info().Msg("Browser session closed")
	return nil
}

func displayPath(path string) string {
	if path == "" {
		return "(default)"
	}
	return path
}
