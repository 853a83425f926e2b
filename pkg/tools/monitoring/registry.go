package monitoring

import (
	"errors"
	"time"

	"github.com/entrhq/forge-automation/pkg/operation"
	"github.com/entrhq/forge-automation/pkg/session"
	"github.com/entrhq/forge-automation/pkg/types"
)

// Operation names
const (
	StartEventMonitoringName   = "StartEventMonitoring"
	GetEventLogName            = "GetEventLog"
	StopEventMonitoringName    = "StopEventMonitoring"
	ListMonitoringSessionsName = "ListMonitoringSessions"
)

// Monitoring status values
const (
	StatusStarted = "Started"
	StatusStopped = "Stopped"
)

// Register adds the monitoring operations to reg.
func Register(reg *operation.Registry, manager *session.Manager, source types.EventSource, maxAge time.Duration) error {
	return errors.Join(
		reg.Register(StartEventMonitoringName, operation.Typed(StartEventMonitoringName,
			func() operation.Handler[StartRequest, StartResponse] { return NewStartTool(manager, source, maxAge) })),
		reg.Register(GetEventLogName, operation.Typed(GetEventLogName,
			func() operation.Handler[EventLogRequest, EventLogResponse] { return NewEventLogTool(manager) })),
		reg.Register(StopEventMonitoringName, operation.Typed(StopEventMonitoringName,
			func() operation.Handler[StopRequest, StopResponse] { return NewStopTool(manager) })),
		reg.Register(ListMonitoringSessionsName, operation.Typed(ListMonitoringSessionsName,
			func() operation.Handler[ListRequest, ListResponse] { return NewListTool(manager) })),
	)
}
