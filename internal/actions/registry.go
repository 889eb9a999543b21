// internal/actions/registry.go
package actions

import (
	"strings"
	"time"

	"github.com/xkilldash9x/stepwise/api/schemas"
)

// ActionSchema describes the parameters an action type accepts.
type ActionSchema struct {
	Required []string
	Optional []string
	// DefaultTimeout is zero for action types that take no timeout.
	DefaultTimeout time.Duration
}

const (
	interactionTimeout = 5 * time.Second
	waitTimeout        = 10 * time.Second
	navigationTimeout  = 30 * time.Second
)

var navigationOptional = []string{"timeout", "waitUntil"}

// registry is the static schema table. It is consulted by name only.
var registry = map[schemas.ActionType]ActionSchema{
	schemas.ActionClick:    {Required: []string{"selector"}, Optional: []string{"timeout", "button", "clickCount", "delay"}, DefaultTimeout: interactionTimeout},
	schemas.ActionTypeText: {Required: []string{"selector", "text"}, Optional: []string{"timeout", "delay"}, DefaultTimeout: interactionTimeout},
	schemas.ActionClear:    {Required: []string{"selector"}, Optional: []string{"timeout"}, DefaultTimeout: interactionTimeout},
	schemas.ActionSelect:   {Required: []string{"selector", "value"}, Optional: []string{"timeout"}, DefaultTimeout: interactionTimeout},
	schemas.ActionHover:    {Required: []string{"selector"}, Optional: []string{"timeout"}, DefaultTimeout: interactionTimeout},
	schemas.ActionFocus:    {Required: []string{"selector"}, Optional: []string{"timeout"}, DefaultTimeout: interactionTimeout},
	schemas.ActionPress:    {Required: []string{"key"}, Optional: []string{"delay"}},

	schemas.ActionWaitForSelector:   {Required: []string{"selector"}, Optional: []string{"timeout", "visible", "hidden"}, DefaultTimeout: waitTimeout},
	schemas.ActionWaitForNavigation: {Optional: navigationOptional, DefaultTimeout: navigationTimeout},
	schemas.ActionWaitForTimeout:    {Required: []string{"ms"}},
	schemas.ActionWaitForFunction:   {Required: []string{"script"}, Optional: []string{"timeout", "polling"}, DefaultTimeout: waitTimeout},

	schemas.ActionGoto:      {Required: []string{"url"}, Optional: navigationOptional, DefaultTimeout: navigationTimeout},
	schemas.ActionGoBack:    {Optional: navigationOptional, DefaultTimeout: navigationTimeout},
	schemas.ActionGoForward: {Optional: navigationOptional, DefaultTimeout: navigationTimeout},
	schemas.ActionReload:    {Optional: navigationOptional, DefaultTimeout: navigationTimeout},

	schemas.ActionScroll:          {Optional: []string{"selector", "x", "y"}},
	schemas.ActionScrollToElement: {Required: []string{"selector"}, Optional: []string{"block", "inline", "behavior", "timeout"}, DefaultTimeout: interactionTimeout},

	schemas.ActionEvaluate:    {Required: []string{"script"}},
	schemas.ActionSetViewport: {Required: []string{"width", "height"}, Optional: []string{"deviceScaleFactor", "isMobile", "hasTouch"}},

	schemas.ActionAssert:         {Required: []string{"script"}, Optional: []string{"message"}},
	schemas.ActionAssertSelector: {Required: []string{"selector"}, Optional: []string{"count", "visible"}},
	schemas.ActionAssertText:     {Required: []string{"selector", "text"}, Optional: []string{"exact"}},
	schemas.ActionAssertURL:      {Required: []string{"pattern"}, Optional: []string{"exact"}},
	schemas.ActionAssertTitle:    {Required: []string{"pattern"}, Optional: []string{"exact"}},
}

// knownTypes fixes the presentation order used in error messages and listings.
var knownTypes = []schemas.ActionType{
	schemas.ActionClick, schemas.ActionTypeText, schemas.ActionClear, schemas.ActionSelect,
	schemas.ActionHover, schemas.ActionFocus, schemas.ActionPress,
	schemas.ActionWaitForSelector, schemas.ActionWaitForNavigation, schemas.ActionWaitForTimeout, schemas.ActionWaitForFunction,
	schemas.ActionGoto, schemas.ActionGoBack, schemas.ActionGoForward, schemas.ActionReload,
	schemas.ActionScroll, schemas.ActionScrollToElement,
	schemas.ActionEvaluate, schemas.ActionSetViewport,
	schemas.ActionAssert, schemas.ActionAssertSelector, schemas.ActionAssertText, schemas.ActionAssertURL, schemas.ActionAssertTitle,
}

// LookupSchema returns the schema registered for name.
func LookupSchema(name string) (ActionSchema, bool) {
	s, ok := registry[schemas.ActionType(name)]
	return s, ok
}

// KnownActionTypes lists every registered action type name.
func KnownActionTypes() []string {
	names := make([]string, len(knownTypes))
	for i, t := range knownTypes {
		names[i] = string(t)
	}
	return names
}

// IsAssertion reports whether an action name denotes an assertion step.
func IsAssertion(name string) bool {
	return strings.HasPrefix(name, "assert")
}
