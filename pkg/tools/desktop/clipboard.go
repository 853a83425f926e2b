package desktop

import (
	"context"

	"github.com/atotto/clipboard"

	"github.com/entrhq/forge-automation/pkg/failure"
	"github.com/entrhq/forge-automation/pkg/operation"
)

// Clipboard is the system clipboard.
type Clipboard interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

// SystemClipboard returns the host clipboard.
func SystemClipboard() Clipboard {
	return systemClipboard{}
}

type systemClipboard struct{}

func (systemClipboard) ReadAll() (string, error) {
	if clipboard.Unsupported {
		return "", errClipboardUnsupported()
	}
	return clipboard.ReadAll()
}

func (systemClipboard) WriteAll(text string) error {
	if clipboard.Unsupported {
		return errClipboardUnsupported()
	}
	return clipboard.WriteAll(text)
}

func errClipboardUnsupported() error {
	return failure.InvalidOperation("Clipboard is not available on this system (install xclip, xsel or wl-clipboard)")
}

// GetClipboardTool reads the clipboard.
type GetClipboardTool struct {
	clipboard Clipboard
}

// NewGetClipboardTool creates a new clipboard read tool.
func NewGetClipboardTool(cb Clipboard) *GetClipboardTool {
	return &GetClipboardTool{clipboard: cb}
}

// Name returns the operation name.
func (t *GetClipboardTool) Name() string {
	return GetClipboardTextName
}

// Description returns the operation description.
func (t *GetClipboardTool) Description() string {
	return "Read the text currently on the system clipboard."
}

// Schema returns the operation's parameter schema.
func (t *GetClipboardTool) Schema() map[string]interface{} {
	return operation.ObjectSchema(map[string]interface{}{}, nil)
}

// GetClipboardRequest takes no parameters.
type GetClipboardRequest struct{}

// ClipboardResponse is the clipboard operations' result.
type ClipboardResponse struct {
	Text   string `json:"text"`
	Length int    `json:"length"`
}

// ExecuteOperation reads the clipboard.
func (t *GetClipboardTool) ExecuteOperation(ctx context.Context, req *GetClipboardRequest) (ClipboardResponse, error) {
	text, err := t.clipboard.ReadAll()
	if err != nil {
		return ClipboardResponse{}, clipboardError(err)
	}
	return ClipboardResponse{Text: text, Length: len([]rune(text))}, nil
}

// SetClipboardTool writes the clipboard.
type SetClipboardTool struct {
	clipboard Clipboard
}

// NewSetClipboardTool creates a new clipboard write tool.
func NewSetClipboardTool(cb Clipboard) *SetClipboardTool {
	return &SetClipboardTool{clipboard: cb}
}

// Name returns the operation name.
func (t *SetClipboardTool) Name() string {
	return SetClipboardTextName
}

// Description returns the operation description.
func (t *SetClipboardTool) Description() string {
	return "Replace the system clipboard contents with text."
}

// Schema returns the operation's parameter schema.
func (t *SetClipboardTool) Schema() map[string]interface{} {
	return operation.ObjectSchema(
		map[string]interface{}{
			"text": map[string]interface{}{
				"type":        "string",
				"description": "Text to place on the clipboard",
			},
		},
		[]string{"text"},
	)
}

// SetClipboardRequest are the SetClipboardText parameters.
type SetClipboardRequest struct {
	Text string `json:"text"`
}

// ExecuteOperation writes the clipboard.
func (t *SetClipboardTool) ExecuteOperation(ctx context.Context, req *SetClipboardRequest) (ClipboardResponse, error) {
	if err := t.clipboard.WriteAll(req.Text); err != nil {
		return ClipboardResponse{}, clipboardError(err)
	}
	return ClipboardResponse{Text: req.Text, Length: len([]rune(req.Text))}, nil
}

// clipboardError keeps domain failures and reports helper-program failures
// as InvalidOperation.
func clipboardError(err error) error {
	if _, ok := failure.As(err); ok {
		return err
	}
	return failure.Wrap(failure.KindInvalidOperation, err, "Clipboard access failed: %v", err)
}
