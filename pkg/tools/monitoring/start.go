package monitoring

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/entrhq/forge-automation/pkg/failure"
	"github.com/entrhq/forge-automation/pkg/operation"
	"github.com/entrhq/forge-automation/pkg/session"
	"github.com/entrhq/forge-automation/pkg/types"
)

// StartTool starts a monitoring session that records platform events.
type StartTool struct {
	manager *session.Manager
	source  types.EventSource
	maxAge  time.Duration
}

// NewStartTool creates a new start-monitoring tool. When maxAge is positive,
// expired sessions are swept before each new session is created.
func NewStartTool(manager *session.Manager, source types.EventSource, maxAge time.Duration) *StartTool {
	return &StartTool{
		manager: manager,
		source:  source,
		maxAge:  maxAge,
	}
}

// Name returns the operation name.
func (t *StartTool) Name() string {
	return StartEventMonitoringName
}

// Description returns the operation description.
func (t *StartTool) Description() string {
	return "Start recording UI events (Invoke, ValueChanged, FocusChanged, SelectionChanged, StructureChanged), optionally restricted to one element. Returns a sessionId for GetEventLog and StopEventMonitoring."
}

// Schema returns the operation's parameter schema.
func (t *StartTool) Schema() map[string]interface{} {
	return operation.ObjectSchema(
		map[string]interface{}{
			"eventTypes": map[string]interface{}{
				"type":        "array",
				"items":       map[string]interface{}{"type": "string"},
				"description": "Event types to record; empty records every type",
			},
			"automationId": map[string]interface{}{
				"type":        "string",
				"description": "Only record events raised by the element with this automation id",
			},
			"name": map[string]interface{}{
				"type":        "string",
				"description": "Only record events raised by elements with this name",
			},
			"controlType": map[string]interface{}{
				"type":        "string",
				"description": "Only record events raised by elements of this control type",
			},
		},
		nil,
	)
}

// StartRequest are the StartEventMonitoring parameters.
type StartRequest struct {
	EventTypes   []string `json:"eventTypes"`
	AutomationID string   `json:"automationId"`
	Name         string   `json:"name"`
	ControlType  string   `json:"controlType"`
}

// StartResponse is the StartEventMonitoring result.
type StartResponse struct {
	SessionID        string            `json:"sessionId"`
	MonitoringStatus string            `json:"monitoringStatus"`
	EventTypes       []types.EventType `json:"eventTypes"`
	StartedAt        time.Time         `json:"startedAt"`
}

// ValidateRequest checks that every event type is known.
func (t *StartTool) ValidateRequest(req *StartRequest) operation.ValidationResult {
	v := operation.Valid()
	for _, name := range req.EventTypes {
		_, err := types.ParseEventType(name)
		v.Check(err == nil, fmt.Sprintf("unknown event type %q", name))
	}
	return v
}

// ExecuteOperation creates the session.
func (t *StartTool) ExecuteOperation(ctx context.Context, req *StartRequest) (StartResponse, error) {
	filter := types.EventFilter{
		Types: make([]types.EventType, 0, len(req.EventTypes)),
		Target: types.TargetDescriptor{
			AutomationID: req.AutomationID,
			Name:         req.Name,
			ControlType:  req.ControlType,
		},
	}
	for _, name := range req.EventTypes {
		eventType, err := types.ParseEventType(name)
		if err != nil {
			return StartResponse{}, failure.InvalidArgument("%v", err)
		}
		filter.Types = append(filter.Types, eventType)
	}

	if t.maxAge > 0 {
		t.manager.CleanupExpired(t.maxAge)
	}

	var (
		s   *session.Session
		err error
	)
	// A freshly generated id can still lose a race with a concurrent creator
	for attempt := 0; attempt < 3; attempt++ {
		s, err = t.manager.CreateSession(t.manager.NewSessionID(), filter, t.source)
		if !errors.Is(err, session.ErrDuplicateSession) {
			break
		}
	}
	switch {
	case errors.Is(err, session.ErrTooManySessions):
		return StartResponse{}, failure.Wrap(failure.KindInvalidOperation, err, "Cannot start monitoring: %v", err)
	case err != nil:
		return StartResponse{}, fmt.Errorf("failed to start monitoring: %w", err)
	}

	return StartResponse{
		SessionID:        s.ID(),
		MonitoringStatus: StatusStarted,
		EventTypes:       filter.Types,
		StartedAt:        s.CreatedAt().UTC(),
	}, nil
}
