package monitoring

import (
	"context"

	"github.com/entrhq/forge-automation/pkg/failure"
	"github.com/entrhq/forge-automation/pkg/operation"
	"github.com/entrhq/forge-automation/pkg/session"
)

// StopTool stops and removes a monitoring session.
type StopTool struct {
	manager *session.Manager
}

// NewStopTool creates a new stop-monitoring tool.
func NewStopTool(manager *session.Manager) *StopTool {
	return &StopTool{manager: manager}
}

// Name returns the operation name.
func (t *StopTool) Name() string {
	return StopEventMonitoringName
}

// Description returns the operation description.
func (t *StopTool) Description() string {
	return "Stop a monitoring session and discard its event log."
}

// Schema returns the operation's parameter schema.
func (t *StopTool) Schema() map[string]interface{} {
	return operation.ObjectSchema(
		map[string]interface{}{
			"monitorId": map[string]interface{}{
				"type":        "string",
				"minLength":   1,
				"description": "Session id returned by StartEventMonitoring",
			},
		},
		[]string{"monitorId"},
	)
}

// StopRequest are the StopEventMonitoring parameters.
type StopRequest struct {
	MonitorID string `json:"monitorId"`
}

// StopResponse is the StopEventMonitoring result.
type StopResponse struct {
	MonitorID        string `json:"monitorId"`
	MonitoringStatus string `json:"monitoringStatus"`
	EventsCaptured   uint64 `json:"eventsCaptured"`
}

// ExecuteOperation removes the session.
func (t *StopTool) ExecuteOperation(ctx context.Context, req *StopRequest) (StopResponse, error) {
	s := t.manager.GetSession(req.MonitorID)
	if s == nil {
		return StopResponse{}, failure.InvalidArgument("Monitoring session not found: %s", req.MonitorID)
	}
	captured := s.Stats().TotalCaptured

	if !t.manager.RemoveSession(req.MonitorID) {
		// Removed concurrently by a sweep or another stop
		return StopResponse{}, failure.InvalidArgument("Monitoring session not found: %s", req.MonitorID)
	}

	return StopResponse{
		MonitorID:        req.MonitorID,
		MonitoringStatus: StatusStopped,
		EventsCaptured:   captured,
	}, nil
}
