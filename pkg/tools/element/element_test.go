package element

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/forge-automation/pkg/automation/automationtest"
	"github.com/entrhq/forge-automation/pkg/operation"
)

const page = `<html><head><title>Login</title></head>
<body>
  <div>
    <input id="user" type="text" aria-label="User name">
    <button data-automation-id="login">Sign in</button>
  </div>
  <section id="help"><p>Forgot your password?</p></section>
</body></html>`

func setup(t *testing.T) (*operation.Registry, *automationtest.Platform) {
	t.Helper()
	disabled := automationtest.Button("archive", "Archive")
	disabled.IsEnabled = false

	platform := automationtest.New(
		automationtest.Button("login", "Sign in"),
		automationtest.Button("cancel", "Cancel"),
		automationtest.TextBox("user", "User name", ""),
		disabled,
	)
	platform.HTML = page

	reg := operation.NewRegistry()
	require.NoError(t, Register(reg, platform))
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

func TestRegister(t *testing.T) {
	reg, _ := setup(t)
	assert.Equal(t, 6, reg.Len())
	for _, name := range reg.Names() {
		op, ok := reg.Resolve(name)
		require.True(t, ok)
		assert.NotEmpty(t, operation.Describe(op), name)
	}
}

func TestTargetRequired(t *testing.T) {
	reg, _ := setup(t)
	for _, name := range []string{FindElementsName, InvokeElementName, GetElementTextName, WaitForElementName} {
		t.Run(name, func(t *testing.T) {
			res, data := execute(t, reg, name, `{"controlType":"button"}`)
			assert.False(t, res.Success)
			assert.Contains(t, res.Error, "one of automationId, name or selector is required")
			assert.Equal(t, "Validation", data["category"])
		})
	}
}

func TestFindElements(t *testing.T) {
	reg, _ := setup(t)

	t.Run("by name", func(t *testing.T) {
		res, data := execute(t, reg, FindElementsName, `{"name":"sign in"}`)
		require.True(t, res.Success, res.Error)
		assert.Equal(t, float64(1), data["count"])
		elements := data["elements"].([]interface{})
		assert.Equal(t, "login", elements[0].(map[string]interface{})["automationId"])
	})

	t.Run("by selector", func(t *testing.T) {
		res, data := execute(t, reg, FindElementsName, `{"selector":"#user"}`)
		require.True(t, res.Success, res.Error)
		assert.Equal(t, float64(1), data["count"])
	})

	t.Run("no match is empty", func(t *testing.T) {
		res, data := execute(t, reg, FindElementsName, `{"automationId":"missing"}`)
		require.True(t, res.Success, res.Error)
		assert.Equal(t, float64(0), data["count"])
		assert.Equal(t, []interface{}{}, data["elements"])
	})

	t.Run("maxResults bounds", func(t *testing.T) {
		res, data := execute(t, reg, FindElementsName, `{"name":"x","maxResults":0}`)
		assert.False(t, res.Success)
		assert.Equal(t, "InvalidArgument", data["category"])
	})
}

func TestInvokeElement(t *testing.T) {
	reg, platform := setup(t)

	res, data := execute(t, reg, InvokeElementName, `{"automationId":"login"}`)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, true, data["invoked"])
	assert.Equal(t, "login", data["element"])
	assert.Equal(t, []string{"login"}, platform.Invoked)

	res, data = execute(t, reg, InvokeElementName, `{"automationId":"nope"}`)
	assert.False(t, res.Success)
	assert.Equal(t, "Element not found: nope", res.Error)
	assert.Equal(t, "ElementNotFound", data["category"])
	assert.Equal(t, "nope", data["elementId"])
	assert.NotEmpty(t, data["suggestions"])

	res, data = execute(t, reg, InvokeElementName, `{"automationId":"archive"}`)
	assert.False(t, res.Success)
	assert.Equal(t, "InvalidOperation", data["category"])

	res, data = execute(t, reg, InvokeElementName, `{"automationId":"login","timeoutSeconds":-1}`)
	assert.False(t, res.Success)
	assert.Equal(t, "InvalidArgument", data["category"])
}

func TestSetAndGetValue(t *testing.T) {
	reg, _ := setup(t)

	res, data := execute(t, reg, SetElementValueName, `{"automationId":"user","value":"ada"}`)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "ada", data["value"])

	res, data = execute(t, reg, GetElementTextName, `{"automationId":"user"}`)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "ada", data["text"])
	assert.Equal(t, false, data["truncated"])

	res, data = execute(t, reg, SetElementValueName, `{"automationId":"login","value":"x"}`)
	assert.False(t, res.Success)
	assert.Equal(t, "InvalidOperation", data["category"])

	res, data = execute(t, reg, SetElementValueName, `{"automationId":"user"}`)
	assert.False(t, res.Success)
	assert.Equal(t, "InvalidArgument", data["category"])
}

func TestGetElementTextTruncates(t *testing.T) {
	reg, _ := setup(t)

	_, _ = execute(t, reg, SetElementValueName, `{"automationId":"user","value":"héllo world"}`)

	res, data := execute(t, reg, GetElementTextName, `{"automationId":"user","maxLength":3}`)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "hél", data["text"])
	assert.Equal(t, float64(11), data["length"])
	assert.Equal(t, true, data["truncated"])
}

func TestWaitForElement(t *testing.T) {
	reg, _ := setup(t)

	res, data := execute(t, reg, WaitForElementName, `{"automationId":"login"}`)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "visible", data["state"])

	res, _ = execute(t, reg, WaitForElementName, `{"automationId":"gone","state":"detached"}`)
	assert.True(t, res.Success, res.Error)

	res, data = execute(t, reg, WaitForElementName, `{"automationId":"login","state":"hidden","timeoutSeconds":0.5}`)
	assert.False(t, res.Success)
	assert.Equal(t, "Timeout", data["category"])
	assert.Equal(t, 0.5, data["timeoutSeconds"])
	assert.Equal(t, "login", data["elementId"])

	res, data = execute(t, reg, WaitForElementName, `{"automationId":"login","state":"gone"}`)
	assert.False(t, res.Success)
	assert.Equal(t, "InvalidArgument", data["category"])
}

func TestGetElementTree(t *testing.T) {
	reg, _ := setup(t)

	res, data := execute(t, reg, GetElementTreeName, `{}`)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "Login", data["title"])
	root := data["root"].(map[string]interface{})
	assert.Equal(t, "document", root["controlType"])
	assert.NotEmpty(t, root["children"])

	res, data = execute(t, reg, GetElementTreeName, `{"automationId":"missing"}`)
	assert.False(t, res.Success)
	assert.Equal(t, "ElementNotFound", data["category"])

	res, data = execute(t, reg, GetElementTreeName, `{"maxDepth":100}`)
	assert.False(t, res.Success)
	assert.Equal(t, "InvalidArgument", data["category"])
}

func TestPlatformErrorIsGeneric(t *testing.T) {
	reg, platform := setup(t)
	platform.Err = errors.New("browser crashed")

	res, data := execute(t, reg, InvokeElementName, `{"automationId":"login"}`)
	assert.False(t, res.Success)
	assert.Equal(t, "Operation failed: browser crashed", res.Error)
	assert.Equal(t, "Generic", data["category"])
	assert.Equal(t, InvokeElementName, data["operation"])
}

func TestTimeoutOf(t *testing.T) {
	half := 0.5
	zero := 0.0
	assert.Equal(t, 500*time.Millisecond, timeoutOf(&half))
	assert.Zero(t, timeoutOf(&zero))
	assert.Zero(t, timeoutOf(nil))
}
