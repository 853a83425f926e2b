package element

import (
	"context"
	"unicode/utf8"

	"github.com/entrhq/forge-automation/pkg/automation"
	"github.com/entrhq/forge-automation/pkg/operation"
)

// GetTextTool reads an element's text.
type GetTextTool struct {
	platform automation.Platform
}

// NewGetTextTool creates a new get-text tool.
func NewGetTextTool(platform automation.Platform) *GetTextTool {
	return &GetTextTool{platform: platform}
}

// Name returns the operation name.
func (t *GetTextTool) Name() string {
	return GetElementTextName
}

// Description returns the operation description.
func (t *GetTextTool) Description() string {
	return "Read the visible text of an element, or the current value of an input. Use maxLength to cap long content."
}

// Schema returns the operation's parameter schema.
func (t *GetTextTool) Schema() map[string]interface{} {
	return operation.ObjectSchema(targetProperties(map[string]interface{}{
		"maxLength": map[string]interface{}{
			"type":        "integer",
			"minimum":     1,
			"description": "Maximum number of characters to return",
		},
		"timeoutSeconds": timeoutProperty(),
	}), nil)
}

// GetTextRequest are the GetElementText parameters.
type GetTextRequest struct {
	TargetParams
	MaxLength      int      `json:"maxLength"`
	TimeoutSeconds *float64 `json:"timeoutSeconds"`
}

// GetTextResponse is the GetElementText result.
type GetTextResponse struct {
	Element   string `json:"element"`
	Text      string `json:"text"`
	Length    int    `json:"length"`
	Truncated bool   `json:"truncated"`
}

// ValidateRequest checks the target.
func (t *GetTextTool) ValidateRequest(req *GetTextRequest) operation.ValidationResult {
	return validateTarget(req.TargetParams)
}

// ExecuteOperation reads the text. Length is the full length in characters
// even when the returned text is truncated.
func (t *GetTextTool) ExecuteOperation(ctx context.Context, req *GetTextRequest) (GetTextResponse, error) {
	target := req.Target()
	text, err := t.platform.GetText(ctx, target, timeoutOf(req.TimeoutSeconds))
	if err != nil {
		return GetTextResponse{}, err
	}

	resp := GetTextResponse{
		Element: target.Describe(),
		Text:    text,
		Length:  utf8.RuneCountInString(text),
	}
	if req.MaxLength > 0 && resp.Length > req.MaxLength {
		resp.Text = string([]rune(text)[:req.MaxLength])
		resp.Truncated = true
	}
	return resp, nil
}
