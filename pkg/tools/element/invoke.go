package element

import (
	"context"

	"github.com/entrhq/forge-automation/pkg/automation"
	"github.com/entrhq/forge-automation/pkg/operation"
)

// InvokeTool activates an element.
type InvokeTool struct {
	platform automation.Platform
}

// NewInvokeTool creates a new invoke tool.
func NewInvokeTool(platform automation.Platform) *InvokeTool {
	return &InvokeTool{platform: platform}
}

// Name returns the operation name.
func (t *InvokeTool) Name() string {
	return InvokeElementName
}

// Description returns the operation description.
func (t *InvokeTool) Description() string {
	return "Invoke (click) the first element matching the target. Waits up to timeoutSeconds for the element to become actionable."
}

// Schema returns the operation's parameter schema.
func (t *InvokeTool) Schema() map[string]interface{} {
	return operation.ObjectSchema(targetProperties(map[string]interface{}{
		"timeoutSeconds": timeoutProperty(),
	}), nil)
}

// InvokeRequest are the InvokeElement parameters.
type InvokeRequest struct {
	TargetParams
	TimeoutSeconds *float64 `json:"timeoutSeconds"`
}

// InvokeResponse is the InvokeElement result.
type InvokeResponse struct {
	Element string `json:"element"`
	Invoked bool   `json:"invoked"`
}

// ValidateRequest checks the target.
func (t *InvokeTool) ValidateRequest(req *InvokeRequest) operation.ValidationResult {
	return validateTarget(req.TargetParams)
}

// ExecuteOperation invokes the element.
func (t *InvokeTool) ExecuteOperation(ctx context.Context, req *InvokeRequest) (InvokeResponse, error) {
	target := req.Target()
	if err := t.platform.Invoke(ctx, target, timeoutOf(req.TimeoutSeconds)); err != nil {
		return InvokeResponse{}, err
	}
	return InvokeResponse{Element: target.Describe(), Invoked: true}, nil
}
