package element

import (
	"context"

	"github.com/entrhq/forge-automation/pkg/automation"
	"github.com/entrhq/forge-automation/pkg/operation"
)

// SetValueTool replaces the value of an editable element.
type SetValueTool struct {
	platform automation.Platform
}

// NewSetValueTool creates a new set-value tool.
func NewSetValueTool(platform automation.Platform) *SetValueTool {
	return &SetValueTool{platform: platform}
}

// Name returns the operation name.
func (t *SetValueTool) Name() string {
	return SetElementValueName
}

// Description returns the operation description.
func (t *SetValueTool) Description() string {
	return "Replace the value of an editable element (text box, text area or content-editable region). An empty value clears the element."
}

// Schema returns the operation's parameter schema.
func (t *SetValueTool) Schema() map[string]interface{} {
	return operation.ObjectSchema(targetProperties(map[string]interface{}{
		"value": map[string]interface{}{
			"type":        "string",
			"description": "New value",
		},
		"timeoutSeconds": timeoutProperty(),
	}), []string{"value"})
}

// SetValueRequest are the SetElementValue parameters.
type SetValueRequest struct {
	TargetParams
	Value          string   `json:"value"`
	TimeoutSeconds *float64 `json:"timeoutSeconds"`
}

// SetValueResponse is the SetElementValue result.
type SetValueResponse struct {
	Element string `json:"element"`
	Value   string `json:"value"`
}

// ValidateRequest checks the target.
func (t *SetValueTool) ValidateRequest(req *SetValueRequest) operation.ValidationResult {
	return validateTarget(req.TargetParams)
}

// ExecuteOperation sets the value.
func (t *SetValueTool) ExecuteOperation(ctx context.Context, req *SetValueRequest) (SetValueResponse, error) {
	target := req.Target()
	if err := t.platform.SetValue(ctx, target, req.Value, timeoutOf(req.TimeoutSeconds)); err != nil {
		return SetValueResponse{}, err
	}
	return SetValueResponse{Element: target.Describe(), Value: req.Value}, nil
}
