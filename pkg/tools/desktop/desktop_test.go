package desktop

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/forge-automation/pkg/automation/automationtest"
	"github.com/entrhq/forge-automation/pkg/failure"
	"github.com/entrhq/forge-automation/pkg/operation"
	"github.com/entrhq/forge-automation/pkg/types"
)

type memClipboard struct {
	text string
	err  error
}

func (c *memClipboard) ReadAll() (string, error) {
	return c.text, c.err
}

func (c *memClipboard) WriteAll(text string) error {
	if c.err != nil {
		return c.err
	}
	c.text = text
	return nil
}

func setup(t *testing.T, cb Clipboard) (*operation.Registry, *automationtest.Platform) {
	t.Helper()
	platform := automationtest.New(automationtest.Button("save", "Save"))
	reg := operation.NewRegistry()
	require.NoError(t, Register(reg, platform, cb))
	return reg, platform
}

func execute(t *testing.T, reg *operation.Registry, name, params string) (operation.Result, map[string]interface{}) {
	t.Helper()
	op, ok := reg.Resolve(name)
	require.True(t, ok, "operation %s not registered", name)

	res := op.Execute(context.Background(), json.RawMessage(params))

	data, err := json.Marshal(res)
	require.NoError(t, err)
	var decoded operation.Result
	require.NoError(t, json.Unmarshal(data, &decoded))

	m, _ := decoded.Data.(map[string]interface{})
	return decoded, m
}

func TestNavigate(t *testing.T) {
	reg, platform := setup(t, &memClipboard{})

	var seen []types.Event
	sub, err := platform.Subscribe(types.EventFilter{}, func(e types.Event) { seen = append(seen, e) })
	require.NoError(t, err)
	defer sub.Close()

	res, data := execute(t, reg, NavigateName, `{"url":"https://example.com/form","waitUntil":"load"}`)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "https://example.com/form", data["url"])
	assert.Equal(t, "https://example.com/form", platform.URL)
	require.Len(t, seen, 1)
	assert.Equal(t, types.EventTypeStructureChanged, seen[0].Type)

	tests := []struct {
		name     string
		params   string
		category failure.Kind
	}{
		{"missing url", `{}`, failure.KindInvalidArgument},
		{"relative url", `{"url":"example.com"}`, failure.KindValidation},
		{"bad waitUntil", `{"url":"https://example.com","waitUntil":"idle"}`, failure.KindInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, data := execute(t, reg, NavigateName, tt.params)
			assert.False(t, res.Success)
			assert.Equal(t, string(tt.category), data["category"])
		})
	}
}

func TestTakeScreenshot(t *testing.T) {
	reg, _ := setup(t, &memClipboard{})

	res, data := execute(t, reg, TakeScreenshotName, `{}`)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "png", data["format"])
	assert.Equal(t, float64(4), data["width"])
	assert.Equal(t, float64(3), data["height"])

	raw, err := base64.StdEncoding.DecodeString(data["base64"].(string))
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), raw[:4])

	res, _ = execute(t, reg, TakeScreenshotName, `{"automationId":"save"}`)
	assert.True(t, res.Success, res.Error)

	res, data = execute(t, reg, TakeScreenshotName, `{"automationId":"missing"}`)
	assert.False(t, res.Success)
	assert.Equal(t, "ElementNotFound", data["category"])
}

func TestTakeScreenshotUndecodable(t *testing.T) {
	reg, platform := setup(t, &memClipboard{})
	platform.PNG = []byte("not an image")

	res, data := execute(t, reg, TakeScreenshotName, `{}`)
	assert.False(t, res.Success)
	assert.Equal(t, "Generic", data["category"])
	assert.Contains(t, res.Error, "failed to read screenshot")
}

func TestClipboard(t *testing.T) {
	cb := &memClipboard{}
	reg, _ := setup(t, cb)

	res, data := execute(t, reg, SetClipboardTextName, `{"text":"héllo"}`)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, float64(5), data["length"])
	assert.Equal(t, "héllo", cb.text)

	res, data = execute(t, reg, GetClipboardTextName, `{}`)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "héllo", data["text"])

	res, data = execute(t, reg, SetClipboardTextName, `{}`)
	assert.False(t, res.Success)
	assert.Equal(t, "InvalidArgument", data["category"])
}

func TestClipboardFailures(t *testing.T) {
	t.Run("helper failure", func(t *testing.T) {
		reg, _ := setup(t, &memClipboard{err: errors.New("exit status 1")})
		res, data := execute(t, reg, GetClipboardTextName, `{}`)
		assert.False(t, res.Success)
		assert.Equal(t, "Clipboard access failed: exit status 1", res.Error)
		assert.Equal(t, "InvalidOperation", data["category"])
	})

	t.Run("unsupported", func(t *testing.T) {
		reg, _ := setup(t, &memClipboard{err: errClipboardUnsupported()})
		res, data := execute(t, reg, SetClipboardTextName, `{"text":"x"}`)
		assert.False(t, res.Success)
		assert.Contains(t, res.Error, "Clipboard is not available")
		assert.Equal(t, "InvalidOperation", data["category"])
	})
}

func TestRegisterDefaultsToSystemClipboard(t *testing.T) {
	reg := operation.NewRegistry()
	require.NoError(t, Register(reg, automationtest.New(), nil))
	assert.Equal(t, []string{GetClipboardTextName, NavigateName, SetClipboardTextName, TakeScreenshotName}, reg.Names())
}
