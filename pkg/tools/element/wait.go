package element

import (
	"context"
	"time"

	"github.com/entrhq/forge-automation/pkg/automation"
	"github.com/entrhq/forge-automation/pkg/operation"
)

// WaitTool waits for an element to reach a state.
type WaitTool struct {
	platform automation.Platform
}

// NewWaitTool creates a new wait tool.
func NewWaitTool(platform automation.Platform) *WaitTool {
	return &WaitTool{platform: platform}
}

// Name returns the operation name.
func (t *WaitTool) Name() string {
	return WaitForElementName
}

// Description returns the operation description.
func (t *WaitTool) Description() string {
	return "Wait for an element to reach a state. Useful for waiting on dynamic content, loading indicators, or dialogs to appear or disappear."
}

// Schema returns the operation's parameter schema.
func (t *WaitTool) Schema() map[string]interface{} {
	return operation.ObjectSchema(targetProperties(map[string]interface{}{
		"state": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"attached", "detached", "visible", "hidden"},
			"description": "State to wait for: 'attached' (in the tree), 'detached' (removed), 'visible' (default), or 'hidden'",
		},
		"timeoutSeconds": timeoutProperty(),
	}), nil)
}

// WaitRequest are the WaitForElement parameters.
type WaitRequest struct {
	TargetParams
	State          string   `json:"state"`
	TimeoutSeconds *float64 `json:"timeoutSeconds"`
}

// WaitResponse is the WaitForElement result.
type WaitResponse struct {
	Element        string  `json:"element"`
	State          string  `json:"state"`
	ElapsedSeconds float64 `json:"elapsedSeconds"`
}

// ValidateRequest checks the target and state.
func (t *WaitTool) ValidateRequest(req *WaitRequest) operation.ValidationResult {
	v := validateTarget(req.TargetParams)
	if _, err := automation.ParseWaitState(req.State); err != nil {
		v.Check(false, err.Error())
	}
	return v
}

// ExecuteOperation blocks until the state is reached or the timeout passes.
func (t *WaitTool) ExecuteOperation(ctx context.Context, req *WaitRequest) (WaitResponse, error) {
	state, err := automation.ParseWaitState(req.State)
	if err != nil {
		return WaitResponse{}, err
	}

	target := req.Target()
	start := time.Now()
	if err := t.platform.WaitFor(ctx, target, state, timeoutOf(req.TimeoutSeconds)); err != nil {
		return WaitResponse{}, err
	}
	return WaitResponse{
		Element:        target.Describe(),
		State:          string(state),
		ElapsedSeconds: time.Since(start).Seconds(),
	}, nil
}
