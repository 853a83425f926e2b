// Package element provides the element operations: locating elements on the
// automation platform, acting on them, reading them and waiting for them.
//
// Every operation addresses its element with a target made of automationId,
// name, controlType and selector fields. At least one of automationId, name
// or selector must be given; controlType only narrows a match.
//
// # Operations
//
//   - FindElements: list elements matching a target
//   - InvokeElement: click or otherwise activate an element
//   - SetElementValue: replace the value of an editable element
//   - GetElementText: read an element's text or value
//   - WaitForElement: block until an element is attached, detached, visible or hidden
//   - GetElementTree: describe the element tree below a target or the whole page
package element
