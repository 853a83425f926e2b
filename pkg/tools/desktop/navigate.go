package desktop

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/entrhq/forge-automation/pkg/automation"
	"github.com/entrhq/forge-automation/pkg/operation"
)

// NavigateTool loads a URL in the automated page.
type NavigateTool struct {
	platform automation.Platform
}

// NewNavigateTool creates a new navigate tool.
func NewNavigateTool(platform automation.Platform) *NavigateTool {
	return &NavigateTool{platform: platform}
}

// Name returns the operation name.
func (t *NavigateTool) Name() string {
	return NavigateName
}

// Description returns the operation description.
func (t *NavigateTool) Description() string {
	return "Navigate the automated page to a URL and wait for it to be ready. Monitoring sessions see a StructureChanged event when the page loads."
}

// Schema returns the operation's parameter schema.
func (t *NavigateTool) Schema() map[string]interface{} {
	return operation.ObjectSchema(
		map[string]interface{}{
			"url": map[string]interface{}{
				"type":        "string",
				"minLength":   1,
				"description": "URL to navigate to (must include the scheme, e.g. https://example.com)",
			},
			"waitUntil": map[string]interface{}{
				"type":        "string",
				"enum":        []string{"load", "domcontentloaded", "networkidle", "commit"},
				"description": "When to consider navigation complete: 'load' (default), 'domcontentloaded', 'networkidle' or 'commit'",
			},
			"timeoutSeconds": map[string]interface{}{
				"type":        "number",
				"minimum":     0,
				"maximum":     300,
				"description": "Maximum wait in seconds (default 30)",
			},
		},
		[]string{"url"},
	)
}

// NavigateRequest are the Navigate parameters.
type NavigateRequest struct {
	URL            string   `json:"url"`
	WaitUntil      string   `json:"waitUntil"`
	TimeoutSeconds *float64 `json:"timeoutSeconds"`
}

// NavigateResponse is the Navigate result.
type NavigateResponse struct {
	URL string `json:"url"`
}

// ValidateRequest checks that the URL is absolute.
func (t *NavigateTool) ValidateRequest(req *NavigateRequest) operation.ValidationResult {
	v := operation.Valid()
	u, err := url.Parse(req.URL)
	switch {
	case err != nil:
		v.Check(false, fmt.Sprintf("invalid url: %v", err))
	case u.Scheme == "":
		v.Check(false, "url must include a scheme (e.g. https://)")
	}
	return v
}

// ExecuteOperation navigates and reports the resulting location.
func (t *NavigateTool) ExecuteOperation(ctx context.Context, req *NavigateRequest) (NavigateResponse, error) {
	var timeout time.Duration
	if req.TimeoutSeconds != nil && *req.TimeoutSeconds > 0 {
		timeout = time.Duration(*req.TimeoutSeconds * float64(time.Second))
	}

	location, err := t.platform.Navigate(ctx, req.URL, req.WaitUntil, timeout)
	if err != nil {
		return NavigateResponse{}, err
	}
	return NavigateResponse{URL: location}, nil
}
