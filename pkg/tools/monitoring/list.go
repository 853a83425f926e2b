package monitoring

import (
	"context"

	"github.com/entrhq/forge-automation/pkg/operation"
	"github.com/entrhq/forge-automation/pkg/session"
)

// ListTool lists active monitoring sessions.
type ListTool struct {
	manager *session.Manager
}

// NewListTool creates a new list-sessions tool.
func NewListTool(manager *session.Manager) *ListTool {
	return &ListTool{manager: manager}
}

// Name returns the operation name.
func (t *ListTool) Name() string {
	return ListMonitoringSessionsName
}

// Description returns the operation description.
func (t *ListTool) Description() string {
	return "List every active monitoring session with its filter and event count."
}

// Schema returns the operation's parameter schema.
func (t *ListTool) Schema() map[string]interface{} {
	return operation.ObjectSchema(map[string]interface{}{}, nil)
}

// ListRequest takes no parameters.
type ListRequest struct{}

// ListResponse is the ListMonitoringSessions result.
type ListResponse struct {
	Sessions []session.Info `json:"sessions"`
	Count    int            `json:"count"`
}

// ExecuteOperation snapshots the session table.
func (t *ListTool) ExecuteOperation(ctx context.Context, req *ListRequest) (ListResponse, error) {
	infos := t.manager.List()
	return ListResponse{
		Sessions: infos,
		Count:    len(infos),
	}, nil
}
