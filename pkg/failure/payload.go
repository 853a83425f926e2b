package failure

import (
	"fmt"
	"strings"
	"time"
)

// Payload is the structured error detail carried in a failed result's data.
type Payload struct {
	Message        string   `json:"message"`
	Operation      string   `json:"operation"`
	ElementID      string   `json:"elementId,omitempty"`
	Category       Kind     `json:"category"`
	ExceptionType  string   `json:"exceptionType"`
	Suggestions    []string `json:"suggestions"`
	TimeoutSeconds *float64 `json:"timeoutSeconds,omitempty"`
}

// PayloadOption adjusts a payload before it is returned.
type PayloadOption func(*Payload)

// WithElementID records the target the failing operation was acting on.
func WithElementID(id string) PayloadOption {
	return func(p *Payload) {
		if id != "" {
			p.ElementID = id
		}
	}
}

// WithTimeout records the timeout that was in effect.
func WithTimeout(d time.Duration) PayloadOption {
	return func(p *Payload) {
		if d > 0 {
			secs := d.Seconds()
			p.TimeoutSeconds = &secs
		}
	}
}

var suggestions = map[Kind][]string{
	KindTimeout: {
		"Increase the timeout for this operation",
		"Verify the target application is responsive",
		"Check that the element becomes available within the expected time",
	},
	KindInvalidOperation: {
		"Verify the element supports the requested action",
		"Check that the element is enabled and visible",
		"Ensure the application is in the expected state before retrying",
	},
	KindInvalidArgument: {
		"Check the parameter names and value types",
		"Verify numeric parameters are within their allowed range",
	},
	KindUnauthorized: {
		"Verify the worker has permission to perform this action",
		"Check the operation allow and deny lists in the worker configuration",
	},
	KindElementNotFound: {
		"Verify the element ID is correct",
		"Check that the element is present in the current view",
		"Use FindElements to inspect the available elements",
	},
	KindValidation: {
		"Review the validation errors and correct the request",
		"Check that all required parameters are present",
	},
	KindGeneric: {
		"Check the worker log for details",
		"Retry the operation",
	},
}

// Suggestions returns the remediation hints for kind.
func Suggestions(kind Kind) []string {
	s, ok := suggestions[kind]
	if !ok {
		s = suggestions[KindGeneric]
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

// NewPayload builds the payload for err raised by operation. The mapping is
// total: every error, including nil, produces a valid payload.
func NewPayload(err error, operation string, opts ...PayloadOption) Payload {
	kind := Classify(err)

	p := Payload{
		Message:       Message(err),
		Operation:     operation,
		Category:      kind,
		ExceptionType: ExceptionType(err),
		Suggestions:   Suggestions(kind),
	}
	if p.Message == "" {
		p.Message = "Unknown error"
	}

	if fe, ok := As(err); ok {
		WithElementID(fe.ElementID)(&p)
		WithTimeout(fe.Timeout)(&p)
	}

	for _, opt := range opts {
		opt(&p)
	}
	return p
}

func typeName(err error) string {
	name := fmt.Sprintf("%T", err)
	name = strings.TrimPrefix(name, "*")
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return name
}
