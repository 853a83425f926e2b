package types

// Subscription is an active registration for events. Close stops delivery
// and is safe to call more than once.
type Subscription interface {
	Close() error
}

// EventSource delivers platform events matching a filter to a callback.
// Callbacks may run on any goroutine.
type EventSource interface {
	Subscribe(filter EventFilter, fn func(Event)) (Subscription, error)
}
