package schemas

import "fmt"

// ActionType is the discriminant of an Action. The set of valid values is closed;
// see the constants below and the registry in internal/actions.
type ActionType string

const (
	// -- Interaction --
	ActionClick    ActionType = "click"
	ActionTypeText ActionType = "type"
	ActionClear    ActionType = "clear"
	ActionSelect   ActionType = "select"
	ActionHover    ActionType = "hover"
	ActionFocus    ActionType = "focus"
	ActionPress    ActionType = "press"

	// -- Waiting --
	ActionWaitForSelector   ActionType = "waitForSelector"
	ActionWaitForNavigation ActionType = "waitForNavigation"
	ActionWaitForTimeout    ActionType = "waitForTimeout"
	ActionWaitForFunction   ActionType = "waitForFunction"

	// -- Navigation --
	ActionGoto      ActionType = "goto"
	ActionGoBack    ActionType = "goBack"
	ActionGoForward ActionType = "goForward"
	ActionReload    ActionType = "reload"

	// -- Scrolling --
	ActionScroll          ActionType = "scroll"
	ActionScrollToElement ActionType = "scrollToElement"

	// -- Page manipulation --
	ActionEvaluate    ActionType = "evaluate"
	ActionSetViewport ActionType = "setViewport"

	// -- Assertions --
	ActionAssert         ActionType = "assert"
	ActionAssertSelector ActionType = "assertSelector"
	ActionAssertText     ActionType = "assertText"
	ActionAssertURL      ActionType = "assertUrl"
	ActionAssertTitle    ActionType = "assertTitle"
)

func (t ActionType) String() string { return string(t) }

// Action is one declarative step, decoded from a validated JSON step. Only the
// fields relevant to Action.Action are meaningful; the rest stay at their zero value.
type Action struct {
	Action ActionType `json:"action"`
	Label  string     `json:"label,omitempty"`

	Selector string `json:"selector,omitempty"`
	Text     string `json:"text,omitempty"`
	// Value is a string or a list of strings (select).
	Value     interface{} `json:"value,omitempty"`
	URL       string      `json:"url,omitempty"`
	Script    string      `json:"script,omitempty"`
	Message   string      `json:"message,omitempty"`
	Key       string      `json:"key,omitempty"`
	Pattern   string      `json:"pattern,omitempty"`
	WaitUntil string      `json:"waitUntil,omitempty"`
	Button    string      `json:"button,omitempty"`
	Block     string      `json:"block,omitempty"`
	Inline    string      `json:"inline,omitempty"`
	Behavior  string      `json:"behavior,omitempty"`

	// Durations are expressed in milliseconds on the wire.
	Timeout int `json:"timeout,omitempty"`
	Ms      int `json:"ms,omitempty"`
	Delay   int `json:"delay,omitempty"`
	Polling int `json:"polling,omitempty"`

	ClickCount int  `json:"clickCount,omitempty"`
	Count      *int `json:"count,omitempty"`

	X                 float64 `json:"x,omitempty"`
	Y                 float64 `json:"y,omitempty"`
	Width             int     `json:"width,omitempty"`
	Height            int     `json:"height,omitempty"`
	DeviceScaleFactor float64 `json:"deviceScaleFactor,omitempty"`

	Exact    bool `json:"exact,omitempty"`
	Visible  bool `json:"visible,omitempty"`
	Hidden   bool `json:"hidden,omitempty"`
	IsMobile bool `json:"isMobile,omitempty"`
	HasTouch bool `json:"hasTouch,omitempty"`
}

// SelectValues normalizes Value into the list form expected by Page.Select.
func (a Action) SelectValues() []string {
	switch v := a.Value.(type) {
	case nil:
		return nil
	case string:
		return []string{v}
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprint(item))
		}
		return out
	default:
		return []string{fmt.Sprint(v)}
	}
}

// ActionSequence is the ordered, non-empty list of steps executed against one page.
type ActionSequence struct {
	Steps []Action `json:"steps"`
}
