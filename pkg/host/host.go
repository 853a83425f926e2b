// Package host runs the worker's request loop: read one request line,
// dispatch it to a registered operation and write exactly one response line.
//
// The loop is strictly request-then-response. A response is flushed before
// the next line is read, and a failing or panicking operation never ends the
// loop. Only end-of-stream (clean) or an I/O failure (fatal) stop it.
package host

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"runtime/debug"
	"time"

	"github.com/entrhq/forge-automation/pkg/failure"
	"github.com/entrhq/forge-automation/pkg/logging"
	"github.com/entrhq/forge-automation/pkg/operation"
	"github.com/entrhq/forge-automation/pkg/protocol"
)

var debugLog *logging.Logger

func init() {
	var err error
	debugLog, err = logging.NewLogger("host")
	if err != nil {
		debugLog.Warnf("Failed to initialize host logger, using stderr fallback: %v", err)
	}
}

// Filter decides whether an operation may run.
type Filter interface {
	IsAllowed(name string) bool
}

// Host owns the request stream, the response stream and the registry.
type Host struct {
	registry *operation.Registry
	decoder  *protocol.Decoder
	encoder  *protocol.Encoder
	filter   Filter
	maxLine  int
	now      func() time.Time
}

// Option configures a Host.
type Option func(*Host)

// WithFilter rejects operations f does not allow.
func WithFilter(f Filter) Option {
	return func(h *Host) {
		h.filter = f
	}
}

// WithMaxLineBytes bounds a single request line.
func WithMaxLineBytes(n int) Option {
	return func(h *Host) {
		h.maxLine = n
	}
}

// WithClock replaces the clock used to time operations.
func WithClock(now func() time.Time) Option {
	return func(h *Host) {
		h.now = now
	}
}

// New creates a host reading requests from in and writing responses to out.
func New(registry *operation.Registry, in io.Reader, out io.Writer, opts ...Option) *Host {
	h := &Host{
		registry: registry,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.decoder = protocol.NewDecoder(in, h.maxLine)
	h.encoder = protocol.NewEncoder(out)
	return h
}

// Run serves requests until the inbound stream ends, returning nil, or a
// read or write fails, returning the error. Cancelling ctx stops the loop
// before the next read.
func (h *Host) Run(ctx context.Context) error {
	debugLog.Infof("Request loop started with %d operations", h.registry.Len())

	for {
		if err := ctx.Err(); err != nil {
			debugLog.Infof("Request loop cancelled")
			return nil
		}

		line, err := h.decoder.ReadLine()
		switch {
		case errors.Is(err, io.EOF):
			debugLog.Infof("Inbound stream closed")
			return nil
		case errors.Is(err, protocol.ErrLineTooLong):
			debugLog.Warnf("Discarded oversized request line")
			if err := h.write(operation.Failure(err.Error(), nil)); err != nil {
				return err
			}
			continue
		case err != nil:
			debugLog.Errorf("Read failed: %v", err)
			return err
		}

		if err := h.Handle(ctx, line); err != nil {
			debugLog.Errorf("Write failed: %v", err)
			return err
		}
	}
}

// Handle runs one dispatch cycle for line and writes its response. A blank
// line writes nothing. The returned error is always a write failure.
func (h *Host) Handle(ctx context.Context, line []byte) error {
	if len(bytes.TrimSpace(line)) == 0 {
		return nil
	}
	return h.write(h.dispatch(ctx, line))
}

func (h *Host) dispatch(ctx context.Context, line []byte) operation.Result {
	req, err := protocol.ParseRequest(line)
	if err != nil {
		debugLog.Warnf("Rejected request: %v", err)
		return operation.Failure(err.Error(), nil)
	}
	name := req.Operation

	if !h.registry.IsRegistered(name) {
		debugLog.Warnf("Unknown operation: %s", name)
		return operation.Failure(fmt.Sprintf("Unknown operation: %s", name), nil)
	}

	if h.filter != nil && !h.filter.IsAllowed(name) {
		debugLog.Warnf("Operation not permitted: %s", name)
		return operation.FromError(name, failure.Unauthorized("Operation not permitted: %s", name))
	}

	op, ok := h.registry.Resolve(name)
	if !ok {
		debugLog.Warnf("Unknown operation: %s", name)
		return operation.Failure(fmt.Sprintf("Unknown operation: %s", name), nil)
	}

	start := h.now()
	res := h.execute(ctx, name, op, req.Payload())
	res.ExecutionSeconds = h.now().Sub(start).Seconds()

	if res.Success {
		debugLog.Debugf("%s succeeded in %.3fs", name, res.ExecutionSeconds)
	} else {
		debugLog.Infof("%s failed in %.3fs: %s", name, res.ExecutionSeconds, res.Error)
	}
	return res
}

func (h *Host) execute(ctx context.Context, name string, op operation.Operation, params json.RawMessage) (res operation.Result) {
	defer func() {
		if r := recover(); r != nil {
			debugLog.Errorf("Operation %s panicked: %v\n%s", name, r, debug.Stack())
			res = operation.FromError(name, fmt.Errorf("panic in %s: %v", name, r))
		}
	}()
	return op.Execute(ctx, params)
}

// write serializes res before touching the stream so an unencodable result
// becomes an error response instead of a broken line.
func (h *Host) write(res operation.Result) error {
	data, err := protocol.Marshal(res)
	if err != nil {
		debugLog.Errorf("Failed to serialize result: %v", err)
		fallback := operation.Failure(fmt.Sprintf("Failed to serialize result: %v", err), nil)
		fallback.ExecutionSeconds = res.ExecutionSeconds
		if data, err = protocol.Marshal(fallback); err != nil {
			return fmt.Errorf("failed to serialize result: %w", err)
		}
	}
	return h.encoder.Encode(json.RawMessage(data))
}
