package automation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/forge-automation/pkg/failure"
	"github.com/entrhq/forge-automation/pkg/logging"
	"github.com/entrhq/forge-automation/pkg/types"
)

var debugLog *logging.Logger

func init() {
	var err error
	debugLog, err = logging.NewLogger("automation")
	if err != nil {
		debugLog.Warnf("Failed to initialize automation logger, using stderr fallback: %v", err)
	}
}

// ErrClosed is returned by a Browser after Close.
var ErrClosed = errors.New("automation platform is closed")

// LaunchOptions configures the Playwright-backed platform.
type LaunchOptions struct {
	Headless    bool
	SkipInstall bool
	StartURL    string
	Width       int
	Height      int
	Timeout     time.Duration
}

// Browser is a Platform driving a single Chromium page through Playwright.
// DOM activity on the page is reported to subscribers through an EventHub.
type Browser struct {
	mu      sync.Mutex
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
	hub     *EventHub
	timeout time.Duration
	now     func() time.Time
	closed  bool
}

var _ Platform = (*Browser)(nil)

// Launch installs (unless skipped) and starts Playwright, opens a Chromium
// page and wires event capture into it. Any failure leaves nothing running.
func Launch(opts LaunchOptions) (*Browser, error) {
	if opts.Width <= 0 {
		opts.Width = DefaultViewportWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultViewportHeight
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	// Playwright's driver output must never reach stdout, which carries responses
	runOpts := &playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  false,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}

	if !opts.SkipInstall {
		if err := playwright.Install(runOpts); err != nil {
			return nil, fmt.Errorf("failed to install playwright: %w", err)
		}
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	bctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  opts.Width,
			Height: opts.Height,
		},
	})
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	b := &Browser{
		pw:      pw,
		browser: browser,
		context: bctx,
		hub:     NewEventHub(),
		timeout: opts.Timeout,
		now:     time.Now,
	}

	if err := b.installCapture(); err != nil {
		_ = b.Close()
		return nil, err
	}

	page, err := bctx.NewPage()
	if err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	page.SetDefaultTimeout(float64(opts.Timeout.Milliseconds()))
	page.OnLoad(func(p playwright.Page) {
		e := types.NewEvent(types.EventTypeStructureChanged)
		e.Name = p.URL()
		e.ControlType = "document"
		b.hub.Publish(e)
	})
	b.page = page

	if opts.StartURL != "" {
		if _, err := page.Goto(opts.StartURL); err != nil {
			_ = b.Close()
			return nil, fmt.Errorf("failed to open start URL %s: %w", opts.StartURL, err)
		}
	}

	debugLog.Infof("Browser platform started (headless=%v, viewport=%dx%d)", opts.Headless, opts.Width, opts.Height)
	return b, nil
}

func (b *Browser) installCapture() error {
	err := b.context.ExposeFunction(bindingName, func(args ...interface{}) interface{} {
		if e, ok := eventFromBinding(args, b.now()); ok {
			b.hub.Publish(e)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to expose event binding: %w", err)
	}

	script := captureScript
	if err := b.context.AddInitScript(playwright.Script{Content: &script}); err != nil {
		return fmt.Errorf("failed to install event capture: %w", err)
	}
	return nil
}

// Subscribe registers fn for page events matching filter.
func (b *Browser) Subscribe(filter types.EventFilter, fn func(types.Event)) (types.Subscription, error) {
	if err := b.ready(); err != nil {
		return nil, err
	}
	return b.hub.Subscribe(filter, fn)
}

// Hub exposes the event hub so callers can publish synthetic events.
func (b *Browser) Hub() *EventHub {
	return b.hub
}

func (b *Browser) ready() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed || b.page == nil {
		return failure.Wrap(failure.KindInvalidOperation, ErrClosed, "Automation platform is not available")
	}
	return nil
}

func (b *Browser) timeoutMillis(timeout time.Duration) *float64 {
	if timeout <= 0 {
		timeout = b.timeout
	}
	ms := float64(timeout.Milliseconds())
	return &ms
}

func (b *Browser) effectiveTimeout(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return b.timeout
	}
	return timeout
}

// resolve returns the first element matching target, honouring ControlType.
func (b *Browser) resolve(ctx context.Context, target Target) (playwright.Locator, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := b.ready(); err != nil {
		return nil, err
	}

	css, err := target.CSS()
	if err != nil {
		return nil, failure.InvalidArgument("%v", err)
	}

	candidates := b.page.Locator(css)
	count, err := candidates.Count()
	if err != nil {
		return nil, translateError(err, target, 0)
	}
	if count == 0 {
		return nil, failure.NotFound(target.Describe())
	}
	if target.ControlType == "" {
		return candidates.First(), nil
	}

	for i := 0; i < count; i++ {
		loc := candidates.Nth(i)
		info, err := describe(loc)
		if err != nil {
			continue
		}
		if strings.EqualFold(info.ControlType, target.ControlType) {
			return loc, nil
		}
	}
	return nil, failure.NotFound(target.Describe())
}

// FindElements returns up to max elements matching target.
func (b *Browser) FindElements(ctx context.Context, target Target, max int) ([]ElementInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := b.ready(); err != nil {
		return nil, err
	}

	css, err := target.CSS()
	if err != nil {
		return nil, failure.InvalidArgument("%v", err)
	}

	candidates := b.page.Locator(css)
	count, err := candidates.Count()
	if err != nil {
		return nil, translateError(err, target, 0)
	}

	elements := make([]ElementInfo, 0)
	for i := 0; i < count; i++ {
		if max > 0 && len(elements) >= max {
			break
		}
		info, err := describe(candidates.Nth(i))
		if err != nil {
			debugLog.Debugf("Skipping element %d of %q: %v", i, css, err)
			continue
		}
		if target.ControlType != "" && !strings.EqualFold(info.ControlType, target.ControlType) {
			continue
		}
		elements = append(elements, info)
	}
	return elements, nil
}

// Invoke clicks the first element matching target.
func (b *Browser) Invoke(ctx context.Context, target Target, timeout time.Duration) error {
	loc, err := b.resolve(ctx, target)
	if err != nil {
		return err
	}

	if err := loc.Click(playwright.LocatorClickOptions{Timeout: b.timeoutMillis(timeout)}); err != nil {
		return translateError(err, target, b.effectiveTimeout(timeout))
	}
	return nil
}

// SetValue fills the first element matching target with value.
func (b *Browser) SetValue(ctx context.Context, target Target, value string, timeout time.Duration) error {
	loc, err := b.resolve(ctx, target)
	if err != nil {
		return err
	}

	if err := loc.Fill(value, playwright.LocatorFillOptions{Timeout: b.timeoutMillis(timeout)}); err != nil {
		return translateError(err, target, b.effectiveTimeout(timeout))
	}
	return nil
}

// GetText returns the rendered text of the first element matching target,
// or its value for form fields.
func (b *Browser) GetText(ctx context.Context, target Target, timeout time.Duration) (string, error) {
	loc, err := b.resolve(ctx, target)
	if err != nil {
		return "", err
	}

	value, err := loc.Evaluate(textScript, nil, playwright.LocatorEvaluateOptions{Timeout: b.timeoutMillis(timeout)})
	if err != nil {
		return "", translateError(err, target, b.effectiveTimeout(timeout))
	}
	text, _ := value.(string)
	return text, nil
}

// WaitFor blocks until an element matching target reaches state.
func (b *Browser) WaitFor(ctx context.Context, target Target, state WaitState, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := b.ready(); err != nil {
		return err
	}

	css, err := target.CSS()
	if err != nil {
		return failure.InvalidArgument("%v", err)
	}

	waitState := playwright.WaitForSelectorState(state)
	err = b.page.Locator(css).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   &waitState,
		Timeout: b.timeoutMillis(timeout),
	})
	if err != nil {
		return translateError(err, target, b.effectiveTimeout(timeout))
	}
	return nil
}

// GetHTML returns the outer markup of target, or the page content.
func (b *Browser) GetHTML(ctx context.Context, target *Target) (string, error) {
	if target == nil {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if err := b.ready(); err != nil {
			return "", err
		}
		content, err := b.page.Content()
		if err != nil {
			return "", translateError(err, Target{}, 0)
		}
		return content, nil
	}

	loc, err := b.resolve(ctx, *target)
	if err != nil {
		return "", err
	}
	value, err := loc.Evaluate(`el => el.outerHTML`, nil)
	if err != nil {
		return "", translateError(err, *target, 0)
	}
	markup, _ := value.(string)
	return markup, nil
}

// Screenshot captures target, or the visible page, as PNG.
func (b *Browser) Screenshot(ctx context.Context, target *Target) ([]byte, error) {
	if target == nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := b.ready(); err != nil {
			return nil, err
		}
		data, err := b.page.Screenshot(playwright.PageScreenshotOptions{
			Type: playwright.ScreenshotTypePng,
		})
		if err != nil {
			return nil, translateError(err, Target{}, 0)
		}
		return data, nil
	}

	loc, err := b.resolve(ctx, *target)
	if err != nil {
		return nil, err
	}
	data, err := loc.Screenshot(playwright.LocatorScreenshotOptions{
		Type: playwright.ScreenshotTypePng,
	})
	if err != nil {
		return nil, translateError(err, *target, 0)
	}
	return data, nil
}

// Navigate loads url in the page.
func (b *Browser) Navigate(ctx context.Context, url string, waitUntil string, timeout time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := b.ready(); err != nil {
		return "", err
	}

	opts := playwright.PageGotoOptions{Timeout: b.timeoutMillis(timeout)}
	if waitUntil != "" {
		state := playwright.WaitUntilState(waitUntil)
		opts.WaitUntil = &state
	}

	if _, err := b.page.Goto(url, opts); err != nil {
		return "", translateError(err, Target{Selector: url}, b.effectiveTimeout(timeout))
	}
	return b.page.URL(), nil
}

// Close shuts down the page, browser and Playwright driver. Safe to call
// more than once.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	var errs []error
	if b.page != nil {
		_ = b.page.Close() // closed with the context below
	}
	if b.context != nil {
		if err := b.context.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close context: %w", err))
		}
	}
	if b.browser != nil {
		if err := b.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
	}
	if b.pw != nil {
		if err := b.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop playwright: %w", err))
		}
	}

	debugLog.Infof("Browser platform closed")
	return errors.Join(errs...)
}

const textScript = `el => {
  if (el.type === 'checkbox' || el.type === 'radio') return String(!!el.checked);
  if ('value' in el && typeof el.value === 'string' && el.tagName !== 'BUTTON' && el.tagName !== 'LI') return el.value;
  return (el.innerText || el.textContent || '').trim();
}`

const describeScript = `el => {
  const r = el.getBoundingClientRect();
  const label = el.labels && el.labels.length ? el.labels[0].innerText : '';
  return {
    automationId: el.getAttribute('data-automation-id') || el.id || '',
    name: el.getAttribute('aria-label') || el.getAttribute('name') || el.getAttribute('title') || label || '',
    role: el.getAttribute('role') || '',
    tag: el.tagName.toLowerCase(),
    type: el.getAttribute('type') || '',
    text: ((el.innerText || el.value || '') + '').trim().slice(0, 200),
    enabled: !el.disabled && el.getAttribute('aria-disabled') !== 'true',
    visible: !!(el.offsetWidth || el.offsetHeight || el.getClientRects().length),
    x: r.x, y: r.y, width: r.width, height: r.height,
  };
}`

type describedElement struct {
	AutomationID string  `json:"automationId"`
	Name         string  `json:"name"`
	Role         string  `json:"role"`
	Tag          string  `json:"tag"`
	Type         string  `json:"type"`
	Text         string  `json:"text"`
	Enabled      bool    `json:"enabled"`
	Visible      bool    `json:"visible"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Width        float64 `json:"width"`
	Height       float64 `json:"height"`
}

func describe(loc playwright.Locator) (ElementInfo, error) {
	raw, err := loc.Evaluate(describeScript, nil)
	if err != nil {
		return ElementInfo{}, err
	}
	return decodeDescription(raw)
}

func decodeDescription(raw interface{}) (ElementInfo, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return ElementInfo{}, fmt.Errorf("failed to encode element description: %w", err)
	}
	var d describedElement
	if err := json.Unmarshal(data, &d); err != nil {
		return ElementInfo{}, fmt.Errorf("failed to decode element description: %w", err)
	}

	return ElementInfo{
		AutomationID: d.AutomationID,
		Name:         d.Name,
		ControlType:  ControlTypeFor(d.Tag, d.Type, d.Role),
		Text:         d.Text,
		IsEnabled:    d.Enabled,
		IsVisible:    d.Visible,
		BoundingRectangle: Rect{
			X:      d.X,
			Y:      d.Y,
			Width:  d.Width,
			Height: d.Height,
		},
	}, nil
}

// translateError maps Playwright failures onto the failure taxonomy.
func translateError(err error, target Target, timeout time.Duration) error {
	if err == nil {
		return nil
	}
	if _, ok := failure.As(err); ok {
		return err
	}

	switch {
	case errors.Is(err, playwright.ErrTimeout):
		return failure.TimedOut(target.Describe(), timeout, err)
	case errors.Is(err, playwright.ErrTargetClosed):
		return failure.Wrap(failure.KindInvalidOperation, err, "Target page or browser has been closed")
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "not an <input>"), strings.Contains(msg, "not editable"):
		fe := failure.Wrap(failure.KindInvalidOperation, err, "Element %s does not accept a value", target.Describe())
		fe.ElementID = target.Describe()
		return fe
	case strings.Contains(msg, "Unexpected token"), strings.Contains(msg, "is not a valid selector"):
		return failure.Wrap(failure.KindInvalidArgument, err, "Invalid selector: %s", target.Describe())
	case strings.Contains(msg, "Cannot navigate to invalid URL"):
		return failure.Wrap(failure.KindInvalidArgument, err, "Invalid URL: %s", target.Describe())
	}
	return err
}
