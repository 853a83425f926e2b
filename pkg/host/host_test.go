package host

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/forge-automation/pkg/automation"
	"github.com/entrhq/forge-automation/pkg/automation/automationtest"
	"github.com/entrhq/forge-automation/pkg/config"
	"github.com/entrhq/forge-automation/pkg/operation"
	"github.com/entrhq/forge-automation/pkg/session"
	"github.com/entrhq/forge-automation/pkg/tools/monitoring"
)

func testRegistry(t *testing.T) *operation.Registry {
	t.Helper()
	reg := operation.NewRegistry()
	reg.MustRegister("Echo", func() operation.Operation {
		return operation.Func(func(ctx context.Context, params json.RawMessage) operation.Result {
			var v interface{}
			if err := json.Unmarshal(params, &v); err != nil {
				return operation.FromError("Echo", err)
			}
			return operation.Success(v)
		})
	})
	reg.MustRegister("Panic", func() operation.Operation {
		return operation.Func(func(ctx context.Context, params json.RawMessage) operation.Result {
			panic("boom")
		})
	})
	reg.MustRegister("Unencodable", func() operation.Operation {
		return operation.Func(func(ctx context.Context, params json.RawMessage) operation.Result {
			return operation.Success(make(chan int))
		})
	})
	return reg
}

func responses(t *testing.T, out *bytes.Buffer) []operation.Result {
	t.Helper()
	var results []operation.Result
	for _, line := range strings.Split(strings.TrimRight(out.String(), "\n"), "\n") {
		if line == "" {
			continue
		}
		var res operation.Result
		require.NoError(t, json.Unmarshal([]byte(line), &res), line)
		results = append(results, res)
	}
	return results
}

func handle(t *testing.T, h *Host, out *bytes.Buffer, line string) (operation.Result, map[string]interface{}) {
	t.Helper()
	out.Reset()
	require.NoError(t, h.Handle(context.Background(), []byte(line)))
	results := responses(t, out)
	require.Len(t, results, 1)
	data, _ := results[0].Data.(map[string]interface{})
	return results[0], data
}

func TestRunTransportErrorsAreRecoverable(t *testing.T) {
	in := strings.NewReader(strings.Join([]string{
		``,
		`not json`,
		`{"parameters":{}}`,
		`{"operation":"DoesNotExist"}`,
		`{"operation":"Panic"}`,
		`{"operation":"Echo","parametersJson":"{\"a\":1}","parameters":{"a":2}}`,
		`   `,
		`{"operation":"Echo","parameters":{"b":true}}`,
	}, "\n"))
	var out bytes.Buffer

	h := New(testRegistry(t), in, &out)
	require.NoError(t, h.Run(context.Background()))

	results := responses(t, &out)
	require.Len(t, results, 6, "one response per non-blank line")

	assert.False(t, results[0].Success)
	assert.Equal(t, "Invalid JSON", results[0].Error)

	assert.False(t, results[1].Success)
	assert.Equal(t, "Missing/empty operation property", results[1].Error)

	assert.False(t, results[2].Success)
	assert.Equal(t, "Unknown operation: DoesNotExist", results[2].Error)
	assert.Nil(t, results[2].Data)

	assert.False(t, results[3].Success)
	assert.Contains(t, results[3].Error, "panic in Panic: boom")
	payload := results[3].Data.(map[string]interface{})
	assert.Equal(t, "Generic", payload["category"])
	assert.Equal(t, "Panic", payload["operation"])

	assert.True(t, results[4].Success)
	assert.Equal(t, map[string]interface{}{"a": float64(1)}, results[4].Data)

	assert.True(t, results[5].Success)
	assert.Equal(t, map[string]interface{}{"b": true}, results[5].Data)
}

func TestUnknownOperationWireFormat(t *testing.T) {
	var out bytes.Buffer
	h := New(testRegistry(t), strings.NewReader(`{"operation":"DoesNotExist"}`), &out)
	require.NoError(t, h.Run(context.Background()))

	var wire map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &wire))
	assert.Equal(t, false, wire["success"])
	assert.Equal(t, "Unknown operation: DoesNotExist", wire["error"])
	assert.Nil(t, wire["data"])
	assert.Contains(t, wire, "executionSeconds")
}

func TestRunLineTooLong(t *testing.T) {
	long := `{"operation":"Echo","parameters":{"x":"` + strings.Repeat("y", 200) + `"}}`
	in := strings.NewReader(long + "\n" + `{"operation":"Echo"}` + "\n")
	var out bytes.Buffer

	h := New(testRegistry(t), in, &out, WithMaxLineBytes(64))
	require.NoError(t, h.Run(context.Background()))

	results := responses(t, &out)
	require.Len(t, results, 2)
	assert.False(t, results[0].Success)
	assert.Equal(t, "request line too long", results[0].Error)
	assert.True(t, results[1].Success)
}

func TestOperationFilter(t *testing.T) {
	filter, err := config.NewOperationFilter(nil, []string{"Pan*"})
	require.NoError(t, err)

	var out bytes.Buffer
	h := New(testRegistry(t), strings.NewReader(""), &out, WithFilter(filter))

	res, data := handle(t, h, &out, `{"operation":"Panic"}`)
	assert.False(t, res.Success)
	assert.Equal(t, "Operation not permitted: Panic", res.Error)
	assert.Equal(t, "Unauthorized", data["category"])

	res, _ = handle(t, h, &out, `{"operation":"Echo"}`)
	assert.True(t, res.Success)
}

func TestUnknownOperationWithAllowList(t *testing.T) {
	filter, err := config.NewOperationFilter([]string{"Get*"}, nil)
	require.NoError(t, err)

	var out bytes.Buffer
	h := New(testRegistry(t), strings.NewReader(""), &out, WithFilter(filter))

	res, _ := handle(t, h, &out, `{"operation":"DoesNotExist"}`)
	assert.False(t, res.Success)
	assert.Equal(t, "Unknown operation: DoesNotExist", res.Error)
	assert.Nil(t, res.Data)

	res, _ = handle(t, h, &out, `{"operation":"Echo"}`)
	assert.Equal(t, "Operation not permitted: Echo", res.Error)
}

func TestResponseKeepsMarkup(t *testing.T) {
	var out bytes.Buffer
	h := New(testRegistry(t), strings.NewReader(""), &out)

	require.NoError(t, h.Handle(context.Background(), []byte(`{"operation":"Echo","parameters":{"html":"<p>a & b</p>"}}`)))
	assert.Contains(t, out.String(), `"html":"<p>a & b</p>"`)
}

func TestExecutionSecondsStamped(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		now = now.Add(1500 * time.Millisecond)
		return now
	}

	var out bytes.Buffer
	h := New(testRegistry(t), strings.NewReader(""), &out, WithClock(clock))

	res, _ := handle(t, h, &out, `{"operation":"Echo"}`)
	assert.Equal(t, 1.5, res.ExecutionSeconds)
}

func TestUnencodableResult(t *testing.T) {
	var out bytes.Buffer
	h := New(testRegistry(t), strings.NewReader(""), &out)

	res, _ := handle(t, h, &out, `{"operation":"Unencodable"}`)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "Failed to serialize result")
}

func TestHandleBlankLine(t *testing.T) {
	var out bytes.Buffer
	h := New(testRegistry(t), strings.NewReader(""), &out)
	require.NoError(t, h.Handle(context.Background(), []byte(" \t")))
	assert.Zero(t, out.Len())
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("broken pipe")
}

type failingReader struct{}

func (failingReader) Read(p []byte) (int, error) {
	return 0, errors.New("device gone")
}

func TestRunFatalIO(t *testing.T) {
	t.Run("write failure", func(t *testing.T) {
		h := New(testRegistry(t), strings.NewReader(`{"operation":"Echo"}`+"\n"), failingWriter{})
		err := h.Run(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "broken pipe")
	})

	t.Run("read failure", func(t *testing.T) {
		h := New(testRegistry(t), failingReader{}, io.Discard)
		err := h.Run(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "device gone")
	})
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	h := New(testRegistry(t), strings.NewReader(`{"operation":"Echo"}`+"\n"), &out)
	require.NoError(t, h.Run(ctx))
	assert.Zero(t, out.Len())
}

func TestMonitoringOverTheWire(t *testing.T) {
	platform := automationtest.New(automationtest.Button("btn1", "OK"))
	manager := session.NewManager()
	reg := operation.NewRegistry()
	require.NoError(t, monitoring.Register(reg, manager, platform, time.Hour))

	var out bytes.Buffer
	h := New(reg, strings.NewReader(""), &out)

	res, data := handle(t, h, &out, `{"operation":"StartEventMonitoring","parametersJson":"{\"eventTypes\":[\"Invoke\"]}"}`)
	require.True(t, res.Success, res.Error)
	id := data["sessionId"].(string)
	require.NotEmpty(t, id)

	require.NoError(t, platform.Invoke(context.Background(), automation.Target{AutomationID: "btn1"}, 0))

	res, data = handle(t, h, &out, `{"operation":"GetEventLog","parameters":{"monitorId":"`+id+`"}}`)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, true, data["sessionActive"])
	assert.Len(t, data["events"], 1)

	res, data = handle(t, h, &out, `{"operation":"StopEventMonitoring","parameters":{"monitorId":"`+id+`"}}`)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "Stopped", data["monitoringStatus"])

	res, data = handle(t, h, &out, `{"operation":"GetEventLog","parameters":{"monitorId":"`+id+`"}}`)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, false, data["sessionActive"])

	assert.Zero(t, manager.Count())
}
