package desktop

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/png" // register the PNG decoder for image.DecodeConfig

	"github.com/entrhq/forge-automation/pkg/automation"
	"github.com/entrhq/forge-automation/pkg/operation"
)

// ScreenshotTool captures the page or one element as PNG.
type ScreenshotTool struct {
	platform automation.Platform
}

// NewScreenshotTool creates a new screenshot tool.
func NewScreenshotTool(platform automation.Platform) *ScreenshotTool {
	return &ScreenshotTool{platform: platform}
}

// Name returns the operation name.
func (t *ScreenshotTool) Name() string {
	return TakeScreenshotName
}

// Description returns the operation description.
func (t *ScreenshotTool) Description() string {
	return "Capture the page, or one element when a target is given, as a base64-encoded PNG with its pixel dimensions."
}

// Schema returns the operation's parameter schema.
func (t *ScreenshotTool) Schema() map[string]interface{} {
	return operation.ObjectSchema(
		map[string]interface{}{
			"automationId": map[string]interface{}{
				"type":        "string",
				"description": "Automation id of the element to capture",
			},
			"name": map[string]interface{}{
				"type":        "string",
				"description": "Accessible name of the element to capture",
			},
			"controlType": map[string]interface{}{
				"type":        "string",
				"description": "Control type to narrow the match",
			},
			"selector": map[string]interface{}{
				"type":        "string",
				"description": "CSS selector of the element to capture",
			},
		},
		nil,
	)
}

// ScreenshotRequest are the TakeScreenshot parameters. An empty target
// captures the whole page.
type ScreenshotRequest struct {
	AutomationID string `json:"automationId"`
	Name         string `json:"name"`
	ControlType  string `json:"controlType"`
	Selector     string `json:"selector"`
}

// ScreenshotResponse is the TakeScreenshot result.
type ScreenshotResponse struct {
	Format string `json:"format"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Base64 string `json:"base64"`
}

// ExecuteOperation captures and encodes the image.
func (t *ScreenshotTool) ExecuteOperation(ctx context.Context, req *ScreenshotRequest) (ScreenshotResponse, error) {
	var target *automation.Target
	tg := automation.Target{
		AutomationID: req.AutomationID,
		Name:         req.Name,
		ControlType:  req.ControlType,
		Selector:     req.Selector,
	}
	if !tg.IsEmpty() {
		target = &tg
	}

	data, err := t.platform.Screenshot(ctx, target)
	if err != nil {
		return ScreenshotResponse{}, err
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return ScreenshotResponse{}, fmt.Errorf("failed to read screenshot: %w", err)
	}
	return ScreenshotResponse{
		Format: format,
		Width:  cfg.Width,
		Height: cfg.Height,
		Base64: base64.StdEncoding.EncodeToString(data),
	}, nil
}
