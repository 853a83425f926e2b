// Package automationtest provides an in-memory automation.Platform for tests.
package automationtest

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"time"

	"github.com/entrhq/forge-automation/pkg/automation"
	"github.com/entrhq/forge-automation/pkg/failure"
	"github.com/entrhq/forge-automation/pkg/types"
)

// Platform is a scripted Platform. Actions on known elements publish the
// matching events through Hub the way a real page would.
type Platform struct {
	mu       sync.Mutex
	Hub      *automation.EventHub
	Elements []automation.ElementInfo
	HTML     string
	PNG      []byte
	URL      string

	// Err, when set, is returned by every element action.
	Err error

	// OnNavigate, when set, runs at the start of Navigate.
	OnNavigate func()

	Invoked []string
	closed  bool
}

var _ automation.Platform = (*Platform)(nil)

// New creates a fake platform holding elements.
func New(elements ...automation.ElementInfo) *Platform {
	return &Platform{
		Hub:      automation.NewEventHub(),
		Elements: elements,
		URL:      "about:blank",
	}
}

// Button returns a visible, enabled button element.
func Button(id, name string) automation.ElementInfo {
	return automation.ElementInfo{
		AutomationID: id,
		Name:         name,
		ControlType:  "button",
		Text:         name,
		IsEnabled:    true,
		IsVisible:    true,
		BoundingRectangle: automation.Rect{
			Width:  80,
			Height: 24,
		},
	}
}

// TextBox returns a visible, enabled text box element.
func TextBox(id, name, value string) automation.ElementInfo {
	return automation.ElementInfo{
		AutomationID: id,
		Name:         name,
		ControlType:  "textbox",
		Text:         value,
		IsEnabled:    true,
		IsVisible:    true,
	}
}

// Closed reports whether Close was called.
func (p *Platform) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func matches(e automation.ElementInfo, t automation.Target) bool {
	if t.Selector != "" && t.Selector != "#"+e.AutomationID {
		return false
	}
	if t.AutomationID != "" && t.AutomationID != e.AutomationID {
		return false
	}
	if t.Name != "" && !strings.EqualFold(t.Name, e.Name) {
		return false
	}
	if t.ControlType != "" && !strings.EqualFold(t.ControlType, e.ControlType) {
		return false
	}
	return true
}

func (p *Platform) find(ctx context.Context, t automation.Target) (int, error) {
	if err := ctx.Err(); err != nil {
		return -1, err
	}
	if err := t.Validate(); err != nil {
		return -1, failure.InvalidArgument("%v", err)
	}
	if p.Err != nil {
		return -1, p.Err
	}
	for i, e := range p.Elements {
		if matches(e, t) {
			return i, nil
		}
	}
	return -1, failure.NotFound(t.Describe())
}

func (p *Platform) publish(eventType types.EventType, e automation.ElementInfo) {
	ev := types.NewEvent(eventType)
	ev.AutomationID = e.AutomationID
	ev.Name = e.Name
	ev.ControlType = e.ControlType
	ev.Value = e.Text
	p.Hub.Publish(ev)
}

// Subscribe registers fn with the hub.
func (p *Platform) Subscribe(filter types.EventFilter, fn func(types.Event)) (types.Subscription, error) {
	return p.Hub.Subscribe(filter, fn)
}

// FindElements returns matching elements.
func (p *Platform) FindElements(ctx context.Context, t automation.Target, max int) ([]automation.ElementInfo, error) {
	if err := t.Validate(); err != nil {
		return nil, failure.InvalidArgument("%v", err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return nil, p.Err
	}

	out := make([]automation.ElementInfo, 0)
	for _, e := range p.Elements {
		if max > 0 && len(out) >= max {
			break
		}
		if matches(e, t) {
			out = append(out, e)
		}
	}
	return out, nil
}

// Invoke records the invocation and publishes an Invoke event.
func (p *Platform) Invoke(ctx context.Context, t automation.Target, timeout time.Duration) error {
	p.mu.Lock()
	i, err := p.find(ctx, t)
	if err != nil {
		p.mu.Unlock()
		return err
	}
	e := p.Elements[i]
	if !e.IsEnabled {
		p.mu.Unlock()
		return failure.InvalidOperation("Element %s is disabled", t.Describe())
	}
	p.Invoked = append(p.Invoked, e.AutomationID)
	p.mu.Unlock()

	p.publish(types.EventTypeInvoke, e)
	return nil
}

// SetValue updates the element text and publishes a ValueChanged event.
func (p *Platform) SetValue(ctx context.Context, t automation.Target, value string, timeout time.Duration) error {
	p.mu.Lock()
	i, err := p.find(ctx, t)
	if err != nil {
		p.mu.Unlock()
		return err
	}
	if p.Elements[i].ControlType != "textbox" {
		p.mu.Unlock()
		return failure.InvalidOperation("Element %s does not accept a value", t.Describe())
	}
	p.Elements[i].Text = value
	e := p.Elements[i]
	p.mu.Unlock()

	p.publish(types.EventTypeValueChanged, e)
	return nil
}

// GetText returns the element text.
func (p *Platform) GetText(ctx context.Context, t automation.Target, timeout time.Duration) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	i, err := p.find(ctx, t)
	if err != nil {
		return "", err
	}
	return p.Elements[i].Text, nil
}

// WaitFor succeeds immediately when the element's presence already matches
// state, and times out otherwise.
func (p *Platform) WaitFor(ctx context.Context, t automation.Target, state automation.WaitState, timeout time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	i, err := p.find(ctx, t)

	present := err == nil
	visible := present && p.Elements[i].IsVisible
	if err != nil && failure.Classify(err) != failure.KindElementNotFound {
		return err
	}

	var ok bool
	switch state {
	case automation.WaitStateAttached:
		ok = present
	case automation.WaitStateDetached:
		ok = !present
	case automation.WaitStateHidden:
		ok = !visible
	default:
		ok = visible
	}
	if !ok {
		if timeout <= 0 {
			timeout = automation.DefaultTimeout
		}
		return failure.TimedOut(t.Describe(), timeout, context.DeadlineExceeded)
	}
	return nil
}

// GetHTML returns the configured markup.
func (p *Platform) GetHTML(ctx context.Context, t *automation.Target) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if t != nil {
		if _, err := p.find(ctx, *t); err != nil {
			return "", err
		}
	}
	return p.HTML, nil
}

// Screenshot returns the configured PNG, or a 4x3 image.
func (p *Platform) Screenshot(ctx context.Context, t *automation.Target) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if t != nil {
		if _, err := p.find(ctx, *t); err != nil {
			return nil, err
		}
	}
	if p.PNG != nil {
		return p.PNG, nil
	}

	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Navigate records url and publishes a StructureChanged event.
func (p *Platform) Navigate(ctx context.Context, url string, waitUntil string, timeout time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if p.OnNavigate != nil {
		p.OnNavigate()
	}
	p.mu.Lock()
	if p.Err != nil {
		p.mu.Unlock()
		return "", p.Err
	}
	p.URL = url
	p.mu.Unlock()

	ev := types.NewEvent(types.EventTypeStructureChanged)
	ev.Name = url
	ev.ControlType = "document"
	p.Hub.Publish(ev)
	return url, nil
}

// Close marks the platform closed.
func (p *Platform) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}
