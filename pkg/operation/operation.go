// Package operation defines the contract every capability provider
// implements, the name-keyed registry the host dispatches through, and the
// typed scaffolding that gives every operation the same
// validate/execute/convert pipeline.
package operation

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/entrhq/forge-automation/pkg/failure"
)

// Operation is a single unit of work invoked by wire-protocol name.
//
// Execute never returns a Go error: every failure is reported through the
// returned Result so the host can always write a response line.
type Operation interface {
	Execute(ctx context.Context, params json.RawMessage) Result
}

// Factory produces a fresh Operation for each request.
type Factory func() Operation

// Describer is implemented by operations that carry a human-readable
// description.
type Describer interface {
	Description() string
}

// Describe returns op's description, or "" if it has none.
func Describe(op Operation) string {
	if d, ok := op.(Describer); ok {
		return d.Description()
	}
	return ""
}

// Func adapts a plain function to the Operation interface.
type Func func(ctx context.Context, params json.RawMessage) Result

// Execute calls f.
func (f Func) Execute(ctx context.Context, params json.RawMessage) Result {
	return f(ctx, params)
}

// Result is the outcome of one operation. It is written to the outbound
// stream as {"success","data","error","executionSeconds"}.
type Result struct {
	Success          bool
	Data             interface{}
	Error            string
	ExecutionSeconds float64
}

// Success wraps data in a successful result.
func Success(data interface{}) Result {
	return Result{Success: true, Data: data}
}

// Failure builds a failed result. data is kept so structured detail survives
// serialization.
func Failure(message string, data interface{}) Result {
	if message == "" {
		message = "Unknown error"
	}
	return Result{Success: false, Data: data, Error: message}
}

// FromError converts err into a failed result whose data is the taxonomy
// payload for operation.
func FromError(operation string, err error, opts ...failure.PayloadOption) Result {
	payload := failure.NewPayload(err, operation, opts...)
	return Failure(payload.Message, payload)
}

type wireResult struct {
	Success          bool        `json:"success"`
	Data             interface{} `json:"data"`
	Error            *string     `json:"error"`
	ExecutionSeconds float64     `json:"executionSeconds"`
}

// MarshalJSON encodes the error as null for successful results and for
// failures without a message.
func (r Result) MarshalJSON() ([]byte, error) {
	w := wireResult{
		Success:          r.Success,
		Data:             r.Data,
		ExecutionSeconds: r.ExecutionSeconds,
	}
	if !r.Success && r.Error != "" {
		msg := r.Error
		w.Error = &msg
	}

	// Page text and markup travel in results; keep <, > and & readable.
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(w); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnmarshalJSON decodes a result line. Data is decoded into generic JSON
// values.
func (r *Result) UnmarshalJSON(data []byte) error {
	var w wireResult
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	r.Success = w.Success
	r.Data = w.Data
	r.ExecutionSeconds = w.ExecutionSeconds
	r.Error = ""
	if w.Error != nil {
		r.Error = *w.Error
	}
	return nil
}
