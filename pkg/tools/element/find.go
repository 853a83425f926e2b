package element

import (
	"context"

	"github.com/entrhq/forge-automation/pkg/automation"
	"github.com/entrhq/forge-automation/pkg/operation"
)

// Result paging
const (
	DefaultMaxResults = 50
	MaxMaxResults     = 500
)

// FindTool locates elements matching a target.
type FindTool struct {
	platform automation.Platform
}

// NewFindTool creates a new find-elements tool.
func NewFindTool(platform automation.Platform) *FindTool {
	return &FindTool{platform: platform}
}

// Name returns the operation name.
func (t *FindTool) Name() string {
	return FindElementsName
}

// Description returns the operation description.
func (t *FindTool) Description() string {
	return "Find elements by automationId, name, controlType or CSS selector. Returns each element's identity, state and bounding rectangle. No match is not an error."
}

// Schema returns the operation's parameter schema.
func (t *FindTool) Schema() map[string]interface{} {
	return operation.ObjectSchema(targetProperties(map[string]interface{}{
		"maxResults": map[string]interface{}{
			"type":        "integer",
			"minimum":     1,
			"maximum":     MaxMaxResults,
			"description": "Maximum number of elements to return (default 50)",
		},
	}), nil)
}

// FindRequest are the FindElements parameters.
type FindRequest struct {
	TargetParams
	MaxResults *int `json:"maxResults"`
}

// FindResponse is the FindElements result.
type FindResponse struct {
	Elements []automation.ElementInfo `json:"elements"`
	Count    int                      `json:"count"`
}

// ValidateRequest checks the target.
func (t *FindTool) ValidateRequest(req *FindRequest) operation.ValidationResult {
	return validateTarget(req.TargetParams)
}

// ExecuteOperation queries the platform.
func (t *FindTool) ExecuteOperation(ctx context.Context, req *FindRequest) (FindResponse, error) {
	max := DefaultMaxResults
	if req.MaxResults != nil {
		max = *req.MaxResults
	}

	elements, err := t.platform.FindElements(ctx, req.Target(), max)
	if err != nil {
		return FindResponse{}, err
	}
	if elements == nil {
		elements = []automation.ElementInfo{}
	}
	return FindResponse{Elements: elements, Count: len(elements)}, nil
}
