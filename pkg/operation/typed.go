package operation

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/entrhq/forge-automation/pkg/failure"
)

// Handler is implemented by every typed capability provider. It only does the
// work; validation, decoding and result conversion are handled by Run and
// RunJSON.
type Handler[Req any, Res any] interface {
	ExecuteOperation(ctx context.Context, req *Req) (Res, error)
}

// Validator is an optional Handler extension for field-level checks.
type Validator[Req any] interface {
	ValidateRequest(req *Req) ValidationResult
}

// SchemaProvider is an optional Handler extension. When present, the raw
// parameters are checked against the returned JSON schema before decoding.
type SchemaProvider interface {
	Schema() map[string]interface{}
}

// ValidationResult is the outcome of request validation.
type ValidationResult struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors,omitempty"`
}

// Valid returns a passing validation result.
func Valid() ValidationResult {
	return ValidationResult{IsValid: true}
}

// Invalid returns a failing validation result with the given messages.
func Invalid(errs ...string) ValidationResult {
	return ValidationResult{IsValid: false, Errors: errs}
}

// Check appends msg when cond is false.
func (v *ValidationResult) Check(cond bool, msg string) {
	if !cond {
		v.IsValid = false
		v.Errors = append(v.Errors, msg)
	}
}

// TypedResult is the strongly-typed outcome of Run.
type TypedResult[Res any] struct {
	Success bool
	Data    Res
	Error   string
	Failure *failure.Payload
}

// Result converts the typed outcome into the wire Result.
func (r TypedResult[Res]) Result() Result {
	if r.Success {
		return Success(r.Data)
	}
	if r.Failure != nil {
		return Failure(r.Error, *r.Failure)
	}
	return Failure(r.Error, nil)
}

func failed[Res any](name string, err error) TypedResult[Res] {
	payload := failure.NewPayload(err, name)
	return TypedResult[Res]{Error: payload.Message, Failure: &payload}
}

// Run validates req and executes h. A nil request or a failed validation
// short-circuits without calling ExecuteOperation. Domain failures forward
// their message; any other error is reported as "Operation failed: ...".
func Run[Req any, Res any](ctx context.Context, name string, h Handler[Req, Res], req *Req) TypedResult[Res] {
	if req == nil {
		return failed[Res](name, failure.Validation("Request cannot be null"))
	}

	if v, ok := h.(Validator[Req]); ok {
		if vr := v.ValidateRequest(req); !vr.IsValid {
			msg := "Validation failed"
			if len(vr.Errors) > 0 {
				msg += ": " + strings.Join(vr.Errors, "; ")
			}
			return failed[Res](name, failure.Validation("%s", msg))
		}
	}

	res, err := h.ExecuteOperation(ctx, req)
	if err != nil {
		return failed[Res](name, err)
	}
	return TypedResult[Res]{Success: true, Data: res}
}

// RunJSON decodes raw into a request and runs the same pipeline as Run.
// A JSON null payload is treated as a null request.
func RunJSON[Req any, Res any](ctx context.Context, name string, h Handler[Req, Res], raw json.RawMessage) Result {
	schema, err := compileSchema(h)
	if err != nil {
		return FromError(name, err)
	}
	return runJSON(ctx, name, h, schema, raw)
}

func runJSON[Req any, Res any](ctx context.Context, name string, h Handler[Req, Res], schema *gojsonschema.Schema, raw json.RawMessage) Result {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	if bytes.Equal(raw, []byte("null")) {
		return Run[Req, Res](ctx, name, h, nil).Result()
	}

	if schema != nil {
		if err := validateSchema(schema, raw); err != nil {
			return FromError(name, err)
		}
	}

	req := new(Req)
	if err := json.Unmarshal(raw, req); err != nil {
		return FromError(name, failure.Wrap(failure.KindInvalidArgument, err, "Invalid parameters: %v", err))
	}
	return Run(ctx, name, h, req).Result()
}

type typedOperation[Req any, Res any] struct {
	name      string
	handler   Handler[Req, Res]
	schema    *gojsonschema.Schema
	schemaErr error
}

func (o *typedOperation[Req, Res]) Execute(ctx context.Context, params json.RawMessage) Result {
	if o.schemaErr != nil {
		return FromError(o.name, o.schemaErr)
	}
	return runJSON(ctx, o.name, o.handler, o.schema, params)
}

// Description forwards the handler's description, if it has one.
func (o *typedOperation[Req, Res]) Description() string {
	if d, ok := o.handler.(Describer); ok {
		return d.Description()
	}
	return ""
}

// Typed adapts a handler constructor to a registry Factory. Each call to the
// factory builds a fresh handler; the handler's schema is compiled once.
func Typed[Req any, Res any](name string, newHandler func() Handler[Req, Res]) Factory {
	var (
		once      sync.Once
		schema    *gojsonschema.Schema
		schemaErr error
	)
	return func() Operation {
		h := newHandler()
		once.Do(func() {
			schema, schemaErr = compileSchema(h)
		})
		return &typedOperation[Req, Res]{
			name:      name,
			handler:   h,
			schema:    schema,
			schemaErr: schemaErr,
		}
	}
}
