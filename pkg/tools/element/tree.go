package element

import (
	"context"

	"github.com/entrhq/forge-automation/pkg/automation"
	"github.com/entrhq/forge-automation/pkg/operation"
)

// MaxTreeDepth bounds the maxDepth parameter.
const MaxTreeDepth = 32

// TreeTool describes the element tree of the page or of one element.
type TreeTool struct {
	platform automation.Platform
}

// NewTreeTool creates a new element tree tool.
func NewTreeTool(platform automation.Platform) *TreeTool {
	return &TreeTool{platform: platform}
}

// Name returns the operation name.
func (t *TreeTool) Name() string {
	return GetElementTreeName
}

// Description returns the operation description.
func (t *TreeTool) Description() string {
	return "Describe the element tree below a target, or the whole page when no target is given. Scripts, styles and layout-only wrappers are left out."
}

// Schema returns the operation's parameter schema.
func (t *TreeTool) Schema() map[string]interface{} {
	return operation.ObjectSchema(targetProperties(map[string]interface{}{
		"maxDepth": map[string]interface{}{
			"type":        "integer",
			"minimum":     1,
			"maximum":     MaxTreeDepth,
			"description": "Maximum tree depth (default 8)",
		},
	}), nil)
}

// TreeRequest are the GetElementTree parameters. The target is optional.
type TreeRequest struct {
	TargetParams
	MaxDepth int `json:"maxDepth"`
}

// ExecuteOperation reads the markup and builds the tree.
func (t *TreeTool) ExecuteOperation(ctx context.Context, req *TreeRequest) (*automation.ElementTree, error) {
	var target *automation.Target
	if tg := req.Target(); !tg.IsEmpty() {
		target = &tg
	}

	markup, err := t.platform.GetHTML(ctx, target)
	if err != nil {
		return nil, err
	}
	return automation.BuildTree(markup, req.MaxDepth, automation.DefaultTreeNodes)
}
