package types

import (
	"fmt"
	"strings"
	"time"
)

// EventType identifies the kind of UI automation event raised by the host
// platform.
type EventType string

const (
	EventTypeInvoke           EventType = "Invoke"           // EventTypeInvoke indicates an element was activated (clicked, pressed).
	EventTypeValueChanged     EventType = "ValueChanged"     // EventTypeValueChanged indicates an element's value changed.
	EventTypeFocusChanged     EventType = "FocusChanged"     // EventTypeFocusChanged indicates keyboard focus moved to an element.
	EventTypeSelectionChanged EventType = "SelectionChanged" // EventTypeSelectionChanged indicates a selection or checked state changed.
	EventTypeStructureChanged EventType = "StructureChanged" // EventTypeStructureChanged indicates the element tree was reloaded or restructured.
)

// AllEventTypes returns every supported event type.
func AllEventTypes() []EventType {
	return []EventType{
		EventTypeInvoke,
		EventTypeValueChanged,
		EventTypeFocusChanged,
		EventTypeSelectionChanged,
		EventTypeStructureChanged,
	}
}

// ParseEventType resolves a wire name to an EventType, ignoring case.
func ParseEventType(name string) (EventType, error) {
	name = strings.TrimSpace(name)
	for _, t := range AllEventTypes() {
		if strings.EqualFold(string(t), name) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown event type %q", name)
}

// Event is a single captured automation event.
type Event struct {
	// Type indicates the kind of event.
	Type EventType `json:"eventType"`

	// Timestamp is when the platform observed the event.
	Timestamp time.Time `json:"timestamp"`

	// AutomationID identifies the source element, when it has one.
	AutomationID string `json:"automationId,omitempty"`

	// Name is the accessible name of the source element.
	Name string `json:"name,omitempty"`

	// ControlType is the role of the source element (button, textbox, ...).
	ControlType string `json:"controlType,omitempty"`

	// Value holds the new value for value and selection events.
	Value string `json:"value,omitempty"`
}

// NewEvent creates an event of the given type stamped with the current time.
func NewEvent(eventType EventType) Event {
	return Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
	}
}

// TargetDescriptor narrows a filter to events raised by matching elements.
// Empty fields match anything.
type TargetDescriptor struct {
	AutomationID string `json:"automationId,omitempty"`
	Name         string `json:"name,omitempty"`
	ControlType  string `json:"controlType,omitempty"`
}

// IsEmpty reports whether the descriptor matches every element.
func (d TargetDescriptor) IsEmpty() bool {
	return d.AutomationID == "" && d.Name == "" && d.ControlType == ""
}

// EventFilter selects which events a monitoring session records.
type EventFilter struct {
	// Types lists the event types to record. Empty means all types.
	Types []EventType `json:"eventTypes"`

	// Target restricts recording to events from matching elements.
	Target TargetDescriptor `json:"target"`
}

// Matches reports whether e passes the filter.
func (f EventFilter) Matches(e Event) bool {
	if len(f.Types) > 0 {
		found := false
		for _, t := range f.Types {
			if strings.EqualFold(string(t), string(e.Type)) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if f.Target.AutomationID != "" && f.Target.AutomationID != e.AutomationID {
		return false
	}
	if f.Target.Name != "" && !strings.EqualFold(f.Target.Name, e.Name) {
		return false
	}
	if f.Target.ControlType != "" && !strings.EqualFold(f.Target.ControlType, e.ControlType) {
		return false
	}
	return true
}
