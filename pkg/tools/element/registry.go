package element

import (
	"errors"

	"github.com/entrhq/forge-automation/pkg/automation"
	"github.com/entrhq/forge-automation/pkg/operation"
)

// Operation names
const (
	FindElementsName    = "FindElements"
	InvokeElementName   = "InvokeElement"
	SetElementValueName = "SetElementValue"
	GetElementTextName  = "GetElementText"
	WaitForElementName  = "WaitForElement"
	GetElementTreeName  = "GetElementTree"
)

// Register adds the element operations to reg.
func Register(reg *operation.Registry, platform automation.Platform) error {
	return errors.Join(
		reg.Register(FindElementsName, operation.Typed(FindElementsName,
			func() operation.Handler[FindRequest, FindResponse] { return NewFindTool(platform) })),
		reg.Register(InvokeElementName, operation.Typed(InvokeElementName,
			func() operation.Handler[InvokeRequest, InvokeResponse] { return NewInvokeTool(platform) })),
		reg.Register(SetElementValueName, operation.Typed(SetElementValueName,
			func() operation.Handler[SetValueRequest, SetValueResponse] { return NewSetValueTool(platform) })),
		reg.Register(GetElementTextName, operation.Typed(GetElementTextName,
			func() operation.Handler[GetTextRequest, GetTextResponse] { return NewGetTextTool(platform) })),
		reg.Register(WaitForElementName, operation.Typed(WaitForElementName,
			func() operation.Handler[WaitRequest, WaitResponse] { return NewWaitTool(platform) })),
		reg.Register(GetElementTreeName, operation.Typed(GetElementTreeName,
			func() operation.Handler[TreeRequest, *automation.ElementTree] { return NewTreeTool(platform) })),
	)
}
