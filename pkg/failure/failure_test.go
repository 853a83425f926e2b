package failure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type netTimeout struct{}

func (netTimeout) Error() string { return "i/o timeout" }
func (netTimeout) Timeout() bool { return true }

func TestClassify(t *testing.T) {
	var syntaxErr error
	{
		var v map[string]interface{}
		syntaxErr = json.Unmarshal([]byte("{nope"), &v)
	}
	_, numErr := strconv.Atoi("abc")

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"domain error keeps its kind", NotFound("btn1"), KindElementNotFound},
		{"wrapped domain error", fmt.Errorf("outer: %w", InvalidOperation("not invokable")), KindInvalidOperation},
		{"context deadline", context.DeadlineExceeded, KindTimeout},
		{"os deadline", os.ErrDeadlineExceeded, KindTimeout},
		{"timeout interface", netTimeout{}, KindTimeout},
		{"permission", &fs.PathError{Op: "open", Path: "/x", Err: fs.ErrPermission}, KindUnauthorized},
		{"not exist", fs.ErrNotExist, KindElementNotFound},
		{"unsupported", errors.ErrUnsupported, KindInvalidOperation},
		{"canceled", context.Canceled, KindInvalidOperation},
		{"json syntax", syntaxErr, KindInvalidArgument},
		{"strconv", numErr, KindInvalidArgument},
		{"unknown", errors.New("boom"), KindGeneric},
		{"nil", nil, KindGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "Element not found: btn1", Message(NotFound("btn1")))
	assert.Equal(t, "Operation failed: boom", Message(errors.New("boom")))
	assert.Equal(t, "", Message(nil))
}

func TestNewPayload(t *testing.T) {
	t.Run("domain failure", func(t *testing.T) {
		p := NewPayload(TimedOut("btn1", 5*time.Second, nil), "WaitForElement")

		assert.Equal(t, KindTimeout, p.Category)
		assert.Equal(t, "WaitForElement", p.Operation)
		assert.Equal(t, "btn1", p.ElementID)
		require.NotNil(t, p.TimeoutSeconds)
		assert.InDelta(t, 5.0, *p.TimeoutSeconds, 0.001)
		assert.Equal(t, "TimeoutError", p.ExceptionType)
		assert.NotEmpty(t, p.Suggestions)
	})

	t.Run("unrecognized error", func(t *testing.T) {
		p := NewPayload(errors.New("boom"), "Navigate", WithElementID("root"))

		assert.Equal(t, KindGeneric, p.Category)
		assert.Equal(t, "Operation failed: boom", p.Message)
		assert.Equal(t, "root", p.ElementID)
		assert.Equal(t, "errorString", p.ExceptionType)
		assert.Nil(t, p.TimeoutSeconds)
	})

	t.Run("nil error still produces a payload", func(t *testing.T) {
		p := NewPayload(nil, "X")
		assert.Equal(t, "Unknown error", p.Message)
		assert.Equal(t, KindGeneric, p.Category)
	})
}

func TestEveryKindHasSuggestions(t *testing.T) {
	for _, k := range Kinds() {
		assert.NotEmpty(t, Suggestions(k), "kind %s", k)
	}
}

func TestSuggestionsAreCopied(t *testing.T) {
	s := Suggestions(KindTimeout)
	s[0] = "mutated"
	assert.NotEqual(t, "mutated", Suggestions(KindTimeout)[0])
}

func TestPayloadJSON(t *testing.T) {
	data, err := json.Marshal(NewPayload(NotFound(""), "InvokeElement"))
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "ElementNotFound", m["category"])
	assert.Equal(t, "Element not found", m["message"])
	assert.NotContains(t, m, "elementId")
	assert.NotContains(t, m, "timeoutSeconds")
}
