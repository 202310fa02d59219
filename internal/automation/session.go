// Package automation provides one isolated browser context per platform
// submission attempt, with resilient element interaction, file attachment,
// and confirmation extraction primitives.
package automation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/nikkiricks/forgotten/internal/config"
	"github.com/nikkiricks/forgotten/internal/logging"
)

// Session owns one incognito browser context used for exactly one platform
// submission attempt. Sessions are never shared across attempts.
type Session struct {
	cfg      config.BrowserConfig
	log      *zap.SugaredLogger
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
}

// Open launches an isolated browser context with a normalized identity.
func Open(cfg config.BrowserConfig) (*Session, error) {
	log := logging.Get(logging.CategoryBrowser)

	l := launcher.New().Headless(cfg.Headless)
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionLaunch, err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("%w: connect: %v", ErrSessionLaunch, err)
	}

	incognito, err := browser.Incognito()
	if err != nil {
		_ = browser.Close()
		l.Cleanup()
		return nil, fmt.Errorf("%w: incognito context: %v", ErrSessionLaunch, err)
	}

	page, err := incognito.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = browser.Close()
		l.Cleanup()
		return nil, fmt.Errorf("%w: create page: %v", ErrSessionLaunch, err)
	}

	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      cfg.UserAgent,
		AcceptLanguage: "en-US,en;q=0.9",
	}); err != nil {
		log.Warnw("failed to set user agent", "error", err)
	}

	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             cfg.GetViewportWidth(),
		Height:            cfg.GetViewportHeight(),
		DeviceScaleFactor: 1.0,
		Mobile:            false,
	}).Call(page); err != nil {
		log.Warnw("failed to set viewport", "error", err)
	}

	return &Session{cfg: cfg, log: log, launcher: l, browser: browser, page: page}, nil
}

// Navigate loads a page and waits for it to settle.
func (s *Session) Navigate(ctx context.Context, url string) error {
	p := s.page.Context(ctx).Timeout(s.cfg.GetNavigationTimeout())
	if err := p.Navigate(url); err != nil {
		return navErr(url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return navErr(url, err)
	}
	// Best-effort network quiescence; slow third-party assets must not hang us.
	_ = s.page.Timeout(2 * time.Second).WaitIdle(2 * time.Second)
	return nil
}

func navErr(url string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", ErrNavigationTimeout, url)
	}
	return fmt.Errorf("navigate %s: %w", url, err)
}

// find resolves a selector without waiting. Forms are heterogeneous; a miss
// on one candidate locator is expected, not an error. The scan itself is
// bounded by the probe timeout so a wedged page cannot stall the attempt.
func (s *Session) find(selector string) (*rod.Element, bool) {
	has, el, err := s.page.Timeout(s.cfg.GetProbeTimeout()).Has(selector)
	if err != nil || !has {
		return nil, false
	}
	return el.CancelTimeout(), true
}

// FillField tries each candidate locator in priority order and writes the
// value into the first interactable match. A miss on every candidate is
// non-fatal: the skip is logged and the submission continues.
func (s *Session) FillField(locators []string, value string) bool {
	for _, loc := range locators {
		el, ok := s.find(loc)
		if !ok {
			continue
		}
		if visible, _ := el.Visible(); !visible {
			continue
		}
		_ = el.SelectAllText()
		if err := el.Input(value); err != nil {
			s.log.Debugw("input rejected", "locator", loc, "error", err)
			continue
		}
		return true
	}
	s.log.Infow("field skipped, no candidate locator resolved", "locators", locators)
	return false
}

// SelectOption tries each locator/value combination until one is accepted by
// the underlying select control. Silently exhausts if none succeed.
func (s *Session) SelectOption(locators []string, values []string) bool {
	const js = `(v) => {
		const opts = Array.from(this.options || []);
		const match = opts.find(o => o.value === v || o.textContent.trim().toLowerCase() === v.toLowerCase());
		if (!match) return false;
		this.value = match.value;
		this.dispatchEvent(new Event('change', { bubbles: true }));
		return true;
	}`
	for _, loc := range locators {
		el, ok := s.find(loc)
		if !ok {
			continue
		}
		for _, v := range values {
			res, err := el.Eval(js, v)
			if err == nil && res.Value.Bool() {
				return true
			}
		}
	}
	s.log.Infow("select skipped, no accepted locator/value", "locators", locators, "values", values)
	return false
}

// Click tries each candidate locator and clicks the first visible match.
func (s *Session) Click(locators []string) bool {
	for _, loc := range locators {
		el, ok := s.find(loc)
		if !ok {
			continue
		}
		if visible, _ := el.Visible(); !visible {
			continue
		}
		if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
			continue
		}
		return true
	}
	return false
}

// ClickByVisibleText best-effort clicks the first visible element whose text
// contains the given string. No-ops silently if nothing matches.
func (s *Session) ClickByVisibleText(text string) bool {
	els, err := s.page.Timeout(s.cfg.GetProbeTimeout()).Elements("button, a, label, span[role=button]")
	if err != nil {
		return false
	}
	needle := strings.ToLower(text)
	for _, el := range els {
		t, err := el.Text()
		if err != nil || !strings.Contains(strings.ToLower(t), needle) {
			continue
		}
		if visible, _ := el.Visible(); !visible {
			continue
		}
		if err := el.CancelTimeout().Click(proto.InputMouseButtonLeft, 1); err == nil {
			return true
		}
	}
	return false
}

// Upload is one document staged for a file input.
type Upload struct {
	Filename string
	Data     []byte
}

// AttachFiles materializes the byte buffers to a transient location, tries
// each candidate file-input locator (optionally clicking a browse trigger
// first), and hands all paths to the first input that accepts them in a
// single call. SetFiles replaces an input's file list, so documents sharing
// one input must arrive together. A bounded wait then looks for an upload
// indicator; missing confirmation is a warning, not a failure: many platforms
// accept files without visible feedback. Transient files are removed on all
// exit paths.
func (s *Session) AttachFiles(locators []string, triggers []string, uploads []Upload) error {
	if len(uploads) == 0 {
		return nil
	}
	tmpDir, err := os.MkdirTemp("", "forgotten-upload-")
	if err != nil {
		return fmt.Errorf("stage attachments: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	paths := make([]string, 0, len(uploads))
	for i, u := range uploads {
		// One subdirectory per document keeps identical filenames apart.
		dir := filepath.Join(tmpDir, strconv.Itoa(i))
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("stage attachments: %w", err)
		}
		path := filepath.Join(dir, filepath.Base(u.Filename))
		if err := os.WriteFile(path, u.Data, 0o600); err != nil {
			return fmt.Errorf("stage attachments: %w", err)
		}
		paths = append(paths, path)
	}

	for _, trigger := range triggers {
		if s.Click([]string{trigger}) {
			break
		}
	}

	attached := false
	for _, loc := range locators {
		el, ok := s.find(loc)
		if !ok {
			continue
		}
		// File inputs are frequently hidden behind styled triggers; do not
		// require visibility here.
		if err := el.SetFiles(paths); err != nil {
			s.log.Debugw("file input rejected attachments", "locator", loc, "error", err)
			continue
		}
		attached = true
		break
	}
	if !attached {
		s.log.Warnw("no file input accepted the attachments", "count", len(uploads))
		return nil
	}

	if !s.waitUploadIndicator(uploads) {
		s.log.Warnw("upload confirmation not observed within bound", "count", len(uploads))
	}
	return nil
}

// waitUploadIndicator polls the page for any of several upload success
// indicators until the configured bound elapses.
func (s *Session) waitUploadIndicator(uploads []Upload) bool {
	deadline := time.Now().Add(s.cfg.GetUploadWait())
	indicators := []string{"uploaded", "attached", "file received", "upload complete"}
	for _, u := range uploads {
		indicators = append(indicators, strings.ToLower(filepath.Base(u.Filename)))
	}
	for time.Now().Before(deadline) {
		res, err := s.page.Eval(`() => (document.body && document.body.innerText || "").slice(0, 5000)`)
		if err == nil {
			text := strings.ToLower(res.Value.String())
			for _, ind := range indicators {
				if strings.Contains(text, ind) {
					return true
				}
			}
		}
		time.Sleep(500 * time.Millisecond)
	}
	return false
}

// Submit tries explicit submit-control locators first, then falls back to
// scanning all buttons for submit-like text. Failure here is fatal for the
// platform attempt.
func (s *Session) Submit(locators []string) error {
	if s.Click(locators) {
		return nil
	}

	heuristics := []string{"submit", "send", "continue", "report"}
	els, err := s.page.Timeout(s.cfg.GetProbeTimeout()).Elements(`button, input[type="submit"]`)
	if err != nil {
		return fmt.Errorf("%w: scan buttons: %v", ErrSubmitControlNotFound, err)
	}
	for _, el := range els {
		label, err := el.Text()
		if err != nil || strings.TrimSpace(label) == "" {
			if v, aerr := el.Attribute("value"); aerr == nil && v != nil {
				label = *v
			}
		}
		lower := strings.ToLower(label)
		matched := false
		for _, h := range heuristics {
			if strings.Contains(lower, h) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		if visible, _ := el.Visible(); !visible {
			continue
		}
		if err := el.CancelTimeout().Click(proto.InputMouseButtonLeft, 1); err == nil {
			return nil
		}
	}
	return ErrSubmitControlNotFound
}

// Close releases the browser context. Safe to call after partial failures.
func (s *Session) Close() {
	if s.page != nil {
		_ = s.page.Close()
	}
	if s.browser != nil {
		_ = s.browser.Close()
	}
	if s.launcher != nil {
		s.launcher.Cleanup()
	}
}
