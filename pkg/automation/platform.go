package automation

import (
	"context"
	"fmt"
	"time"

	"github.com/entrhq/forge-automation/pkg/types"
)

// Platform is the automation surface operations act on. Implementations
// report domain failures as *failure.Error.
type Platform interface {
	types.EventSource

	// FindElements returns up to max elements matching target.
	FindElements(ctx context.Context, target Target, max int) ([]ElementInfo, error)

	// Invoke activates the first element matching target.
	Invoke(ctx context.Context, target Target, timeout time.Duration) error

	// SetValue replaces the value of the first editable element matching target.
	SetValue(ctx context.Context, target Target, value string, timeout time.Duration) error

	// GetText returns the visible text (or value) of the first element matching target.
	GetText(ctx context.Context, target Target, timeout time.Duration) (string, error)

	// WaitFor blocks until an element matching target reaches state.
	WaitFor(ctx context.Context, target Target, state WaitState, timeout time.Duration) error

	// GetHTML returns the markup of target, or of the whole page when target is nil.
	GetHTML(ctx context.Context, target *Target) (string, error)

	// Screenshot captures target, or the whole page when target is nil, as PNG.
	Screenshot(ctx context.Context, target *Target) ([]byte, error)

	// Navigate loads url and returns the resulting location.
	Navigate(ctx context.Context, url string, waitUntil string, timeout time.Duration) (string, error)

	// Close releases every platform resource.
	Close() error
}

// ElementInfo describes one located element.
type ElementInfo struct {
	AutomationID      string `json:"automationId"`
	Name              string `json:"name"`
	ControlType       string `json:"controlType"`
	Text              string `json:"text,omitempty"`
	IsEnabled         bool   `json:"isEnabled"`
	IsVisible         bool   `json:"isVisible"`
	BoundingRectangle Rect   `json:"boundingRectangle"`
}

// Rect is an element's position in page coordinates.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// WaitState is the element state WaitFor blocks on.
type WaitState string

const (
	WaitStateAttached WaitState = "attached" // WaitStateAttached waits for the element to be present in the tree.
	WaitStateDetached WaitState = "detached" // WaitStateDetached waits for the element to leave the tree.
	WaitStateVisible  WaitState = "visible"  // WaitStateVisible waits for the element to be rendered and visible.
	WaitStateHidden   WaitState = "hidden"   // WaitStateHidden waits for the element to be hidden or absent.
)

// ParseWaitState validates a wire state name. Empty selects WaitStateVisible.
func ParseWaitState(s string) (WaitState, error) {
	switch WaitState(s) {
	case "":
		return WaitStateVisible, nil
	case WaitStateAttached, WaitStateDetached, WaitStateVisible, WaitStateHidden:
		return WaitState(s), nil
	}
	return "", fmt.Errorf("invalid state %q (must be attached, detached, visible or hidden)", s)
}

// Default timing and geometry
const (
	DefaultTimeout        = 30 * time.Second
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 720
)
