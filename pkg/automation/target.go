package automation

import (
	"fmt"
	"strings"
)

// Target identifies the element an operation acts on. AutomationID matches
// an element's data-automation-id or id attribute; Name matches its
// accessible name (aria-label, name or title). Selector is a raw selector
// used as-is. ControlType narrows any of the above by role.
type Target struct {
	AutomationID string `json:"automationId,omitempty"`
	Name         string `json:"name,omitempty"`
	ControlType  string `json:"controlType,omitempty"`
	Selector     string `json:"selector,omitempty"`
}

// IsEmpty reports whether no locating field is set.
func (t Target) IsEmpty() bool {
	return t.AutomationID == "" && t.Name == "" && t.Selector == ""
}

// Validate checks that the target can locate something.
func (t Target) Validate() error {
	if t.IsEmpty() {
		return fmt.Errorf("one of automationId, name or selector is required")
	}
	return nil
}

// Describe returns a short identifier for error payloads and logs.
func (t Target) Describe() string {
	switch {
	case t.AutomationID != "":
		return t.AutomationID
	case t.Name != "":
		return t.Name
	case t.Selector != "":
		return t.Selector
	}
	return ""
}

// CSS builds the selector that locates the target's candidates. ControlType
// is not part of the selector; it is applied to the candidates afterwards.
func (t Target) CSS() (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	if t.Selector != "" {
		return t.Selector, nil
	}

	var parts []string
	if t.AutomationID != "" {
		v := cssString(t.AutomationID)
		parts = append(parts, fmt.Sprintf(`:is([data-automation-id=%s],[id=%s])`, v, v))
	}
	if t.Name != "" {
		v := cssString(t.Name)
		parts = append(parts, fmt.Sprintf(`:is([aria-label=%s],[name=%s],[title=%s])`, v, v, v))
	}
	return strings.Join(parts, ""), nil
}

// cssString quotes s as a CSS string literal.
func cssString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"', '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '\n':
			b.WriteString(`\a `)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// ControlTypeFor derives an element's control type from its explicit role,
// falling back to the role implied by its tag and input type.
func ControlTypeFor(tag, inputType, role string) string {
	if role = strings.TrimSpace(strings.ToLower(role)); role != "" {
		if i := strings.IndexByte(role, ' '); i > 0 {
			role = role[:i]
		}
		return role
	}

	switch strings.ToLower(tag) {
	case "button", "summary":
		return "button"
	case "a":
		return "link"
	case "textarea":
		return "textbox"
	case "select":
		return "combobox"
	case "option":
		return "option"
	case "img":
		return "image"
	case "h1", "h2", "h3", "h4", "h5", "h6":
		return "heading"
	case "ul", "ol":
		return "list"
	case "li":
		return "listitem"
	case "table":
		return "table"
	case "tr":
		return "row"
	case "td", "th":
		return "cell"
	case "form":
		return "form"
	case "fieldset":
		return "group"
	case "nav":
		return "navigation"
	case "dialog":
		return "dialog"
	case "label", "p", "span":
		return "text"
	case "input":
		return inputControlType(inputType)
	}
	return "group"
}

func inputControlType(inputType string) string {
	switch strings.ToLower(inputType) {
	case "checkbox":
		return "checkbox"
	case "radio":
		return "radio"
	case "button", "submit", "reset", "image":
		return "button"
	case "range":
		return "slider"
	case "number":
		return "spinbutton"
	case "search":
		return "searchbox"
	}
	return "textbox"
}
