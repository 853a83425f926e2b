package desktop

import (
	"errors"

	"github.com/entrhq/forge-automation/pkg/automation"
	"github.com/entrhq/forge-automation/pkg/operation"
)

// Operation names
const (
	NavigateName         = "Navigate"
	TakeScreenshotName   = "TakeScreenshot"
	GetClipboardTextName = "GetClipboardText"
	SetClipboardTextName = "SetClipboardText"
)

// Register adds the desktop operations to reg. A nil clipboard selects the
// system clipboard.
func Register(reg *operation.Registry, platform automation.Platform, cb Clipboard) error {
	if cb == nil {
		cb = SystemClipboard()
	}
	return errors.Join(
		reg.Register(NavigateName, operation.Typed(NavigateName,
			func() operation.Handler[NavigateRequest, NavigateResponse] { return NewNavigateTool(platform) })),
		reg.Register(TakeScreenshotName, operation.Typed(TakeScreenshotName,
			func() operation.Handler[ScreenshotRequest, ScreenshotResponse] { return NewScreenshotTool(platform) })),
		reg.Register(GetClipboardTextName, operation.Typed(GetClipboardTextName,
			func() operation.Handler[GetClipboardRequest, ClipboardResponse] { return NewGetClipboardTool(cb) })),
		reg.Register(SetClipboardTextName, operation.Typed(SetClipboardTextName,
			func() operation.Handler[SetClipboardRequest, ClipboardResponse] { return NewSetClipboardTool(cb) })),
	)
}
