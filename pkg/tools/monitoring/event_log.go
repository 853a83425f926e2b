package monitoring

import (
	"context"

	"github.com/entrhq/forge-automation/pkg/operation"
	"github.com/entrhq/forge-automation/pkg/session"
	"github.com/entrhq/forge-automation/pkg/types"
)

// Event log paging
const (
	DefaultMaxCount = 100
	MaxMaxCount     = 1000
)

// EventLogTool returns the events a monitoring session has recorded.
type EventLogTool struct {
	manager *session.Manager
}

// NewEventLogTool creates a new event log tool.
func NewEventLogTool(manager *session.Manager) *EventLogTool {
	return &EventLogTool{manager: manager}
}

// Name returns the operation name.
func (t *EventLogTool) Name() string {
	return GetEventLogName
}

// Description returns the operation description.
func (t *EventLogTool) Description() string {
	return "Return the most recent events recorded by a monitoring session, oldest first. Reading does not clear the log. An unknown or stopped session reports sessionActive=false."
}

// Schema returns the operation's parameter schema.
func (t *EventLogTool) Schema() map[string]interface{} {
	return operation.ObjectSchema(
		map[string]interface{}{
			"monitorId": map[string]interface{}{
				"type":        "string",
				"minLength":   1,
				"description": "Session id returned by StartEventMonitoring",
			},
			"maxCount": map[string]interface{}{
				"type":        "integer",
				"minimum":     1,
				"maximum":     MaxMaxCount,
				"description": "Maximum number of events to return (default 100)",
			},
		},
		[]string{"monitorId"},
	)
}

// EventLogRequest are the GetEventLog parameters.
type EventLogRequest struct {
	MonitorID string `json:"monitorId"`
	MaxCount  *int   `json:"maxCount"`
}

// EventLogResponse is the GetEventLog result.
type EventLogResponse struct {
	MonitorID     string        `json:"monitorId"`
	SessionActive bool          `json:"sessionActive"`
	Events        []types.Event `json:"events"`
	EventCount    int           `json:"eventCount"`
	TotalCaptured uint64        `json:"totalCaptured"`
	Dropped       uint64        `json:"dropped"`
}

// ExecuteOperation reads the session's events.
func (t *EventLogTool) ExecuteOperation(ctx context.Context, req *EventLogRequest) (EventLogResponse, error) {
	maxCount := DefaultMaxCount
	if req.MaxCount != nil {
		maxCount = *req.MaxCount
	}

	resp := EventLogResponse{
		MonitorID: req.MonitorID,
		Events:    []types.Event{},
	}

	s := t.manager.GetSession(req.MonitorID)
	if s == nil {
		return resp, nil
	}

	stats := s.Stats()
	resp.SessionActive = s.IsActive()
	resp.Events = s.Events(maxCount)
	resp.EventCount = len(resp.Events)
	resp.TotalCaptured = stats.TotalCaptured
	resp.Dropped = stats.Dropped + stats.RateLimited
	return resp, nil
}
