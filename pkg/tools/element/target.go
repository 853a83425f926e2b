package element

import (
	"time"

	"github.com/entrhq/forge-automation/pkg/automation"
	"github.com/entrhq/forge-automation/pkg/operation"
)

// MaxTimeoutSeconds bounds every timeoutSeconds parameter.
const MaxTimeoutSeconds = 300

// TargetParams are the element-addressing fields shared by every request.
type TargetParams struct {
	AutomationID string `json:"automationId"`
	Name         string `json:"name"`
	ControlType  string `json:"controlType"`
	Selector     string `json:"selector"`
}

// Target converts the parameters into a platform target.
func (p TargetParams) Target() automation.Target {
	return automation.Target{
		AutomationID: p.AutomationID,
		Name:         p.Name,
		ControlType:  p.ControlType,
		Selector:     p.Selector,
	}
}

// targetProperties returns the schema properties for TargetParams merged
// with extra.
func targetProperties(extra map[string]interface{}) map[string]interface{} {
	props := map[string]interface{}{
		"automationId": map[string]interface{}{
			"type":        "string",
			"description": "Automation id of the element (data-automation-id or id attribute)",
		},
		"name": map[string]interface{}{
			"type":        "string",
			"description": "Accessible name of the element (aria-label, name or title attribute)",
		},
		"controlType": map[string]interface{}{
			"type":        "string",
			"description": "Control type to narrow the match (button, textbox, checkbox, link, ...)",
		},
		"selector": map[string]interface{}{
			"type":        "string",
			"description": "CSS selector; takes precedence over automationId and name",
		},
	}
	for k, v := range extra {
		props[k] = v
	}
	return props
}

func timeoutProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "number",
		"minimum":     0,
		"maximum":     MaxTimeoutSeconds,
		"description": "Maximum wait in seconds (default 30)",
	}
}

// timeoutOf converts an optional seconds value. Zero leaves the choice to the
// platform default.
func timeoutOf(seconds *float64) time.Duration {
	if seconds == nil || *seconds <= 0 {
		return 0
	}
	return time.Duration(*seconds * float64(time.Second))
}

// validateTarget is shared by the request validators.
func validateTarget(p TargetParams) operation.ValidationResult {
	v := operation.Valid()
	if err := p.Target().Validate(); err != nil {
		v.Check(false, err.Error())
	}
	return v
}
