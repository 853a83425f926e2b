// Package monitoring provides the event monitoring operations.
//
// A caller starts a session with StartEventMonitoring, polls it with
// GetEventLog and ends it with StopEventMonitoring. Sessions live in a
// session.Manager and receive events from the platform's event source while
// the request loop keeps serving other operations.
//
// # Operations
//
//   - StartEventMonitoring: create a session, returns its sessionId
//   - GetEventLog: read the most recent events of a session
//   - StopEventMonitoring: stop a session and discard its log
//   - ListMonitoringSessions: list active sessions
//
// # Lifetime
//
// Sessions are removed by StopEventMonitoring, by the age-based sweep the
// worker runs periodically and before each new session starts, and at
// shutdown. Age is measured from creation, not from the last event.
package monitoring
