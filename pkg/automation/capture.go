package automation

import (
	"fmt"
	"time"

	"github.com/entrhq/forge-automation/pkg/types"
)

// bindingName is the page-global function the capture script reports through.
const bindingName = "__automationEvent"

// captureScript installs capturing DOM listeners on every document and
// reports them through the exposed binding. Structure changes are debounced.
var captureScript = fmt.Sprintf(`(() => {
  if (window.__automationCaptureInstalled) return;
  window.__automationCaptureInstalled = true;

  const describe = (el) => {
    if (!el || el.nodeType !== 1) return {};
    const label = el.labels && el.labels.length ? el.labels[0].innerText : '';
    let value = '';
    if (el.type === 'checkbox' || el.type === 'radio') value = String(!!el.checked);
    else if ('value' in el && typeof el.value === 'string') value = el.value;
    return {
      automationId: el.getAttribute('data-automation-id') || el.id || '',
      name: el.getAttribute('aria-label') || el.getAttribute('name') || el.getAttribute('title') || label || '',
      role: el.getAttribute('role') || '',
      tag: el.tagName.toLowerCase(),
      type: el.getAttribute('type') || '',
      value: value,
    };
  };

  const send = (type, el) => {
    try {
      window.%[1]s(Object.assign({ eventType: type }, describe(el)));
    } catch (e) {}
  };

  document.addEventListener('click', (e) => send('Invoke', e.target), true);
  document.addEventListener('input', (e) => send('ValueChanged', e.target), true);
  document.addEventListener('focusin', (e) => send('FocusChanged', e.target), true);
  document.addEventListener('change', (e) => {
    const t = e.target;
    if (t && (t.type === 'checkbox' || t.type === 'radio' || t.tagName === 'SELECT')) send('SelectionChanged', t);
  }, true);

  let pending = null;
  const observer = new MutationObserver(() => {
    if (pending) return;
    pending = setTimeout(() => { pending = null; send('StructureChanged', document.body); }, %[2]d);
  });
  const start = () => observer.observe(document.documentElement, { childList: true, subtree: true });
  if (document.documentElement) start(); else document.addEventListener('DOMContentLoaded', start);
})();`, bindingName, structureDebounce.Milliseconds())

const structureDebounce = 250 * time.Millisecond

// eventFromBinding converts a binding payload into an Event. It reports false
// for payloads that do not name a known event type.
func eventFromBinding(args []interface{}, now time.Time) (types.Event, bool) {
	if len(args) == 0 {
		return types.Event{}, false
	}
	m, ok := args[0].(map[string]interface{})
	if !ok {
		return types.Event{}, false
	}

	str := func(key string) string {
		s, _ := m[key].(string)
		return s
	}

	eventType, err := types.ParseEventType(str("eventType"))
	if err != nil {
		return types.Event{}, false
	}

	return types.Event{
		Type:         eventType,
		Timestamp:    now.UTC(),
		AutomationID: str("automationId"),
		Name:         str("name"),
		ControlType:  ControlTypeFor(str("tag"), str("type"), str("role")),
		Value:        str("value"),
	}, true
}
