// internal/actions/handlers_assert.go
package actions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dlclark/regexp2"

	"github.com/xkilldash9x/stepwise/api/schemas"
)

// patternMatchTimeout bounds a single regex evaluation against a URL or title.
const patternMatchTimeout = time.Second

const msgAssertBadReturn = "Assert script must return boolean or {passed, message}"

// Assertion handlers report a mismatch as a successful step whose result has
// passed=false. Only a failure to evaluate the assertion is returned as an error.

func (e *Executor) handleAssert(ctx context.Context, page schemas.Page, action schemas.Action, _ *RunContext) (interface{}, error) {
	v, err := evaluateValue(ctx, page, action.Script)
	if err != nil {
		return nil, err
	}
	return normalizeAssertResult(v, action.Message), nil
}

// normalizeAssertResult turns whatever an assert script returned into an outcome.
func normalizeAssertResult(v interface{}, message string) schemas.AssertionOutcome {
	switch t := v.(type) {
	case bool:
		if message == "" {
			message = "Assertion failed"
			if t {
				message = "Assertion passed"
			}
		}
		return schemas.AssertionOutcome{Passed: t, Message: message}
	case map[string]interface{}:
		passed, ok := t["passed"].(bool)
		if !ok {
			break
		}
		msg, _ := t["message"].(string)
		if msg == "" {
			msg = message
		}
		return schemas.AssertionOutcome{Passed: passed, Message: msg}
	}
	return schemas.AssertionOutcome{Passed: false, Message: msgAssertBadReturn}
}

func (e *Executor) handleAssertSelector(ctx context.Context, page schemas.Page, action schemas.Action, _ *RunContext) (interface{}, error) {
	sel := action.Selector
	n, err := page.QueryCount(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("counting %q: %w", sel, err)
	}

	switch {
	case action.Count != nil:
		want := *action.Count
		if n == want {
			return outcome(true, "Found expected %d element(s) matching %q", want, sel), nil
		}
		return outcome(false, "Expected %d element(s) matching %q, found %d", want, sel, n), nil

	case action.Visible:
		if n == 0 {
			return outcome(false, "No elements found matching %q", sel), nil
		}
		visible, err := page.IsVisible(ctx, sel)
		if err != nil {
			return nil, fmt.Errorf("checking visibility of %q: %w", sel, err)
		}
		if visible {
			return outcome(true, "Element %q is visible", sel), nil
		}
		return outcome(false, "Element %q exists but is not visible", sel), nil

	default:
		if n > 0 {
			return outcome(true, "Found %d element(s) matching %q", n, sel), nil
		}
		return outcome(false, "No elements found matching %q", sel), nil
	}
}

func (e *Executor) handleAssertText(ctx context.Context, page schemas.Page, action schemas.Action, _ *RunContext) (interface{}, error) {
	text, found, err := page.TextContent(ctx, action.Selector)
	if err != nil {
		return nil, fmt.Errorf("reading text of %q: %w", action.Selector, err)
	}
	if !found {
		return outcome(false, "Element not found: %s", action.Selector), nil
	}

	actual := strings.TrimSpace(text)
	if action.Exact {
		if actual == action.Text {
			return outcome(true, "Text matches exactly: %q", action.Text), nil
		}
		return outcome(false, "Expected text %q but found %q", action.Text, actual), nil
	}
	if strings.Contains(actual, action.Text) {
		return outcome(true, "Text contains %q", action.Text), nil
	}
	return outcome(false, "Expected text to contain %q but found %q", action.Text, actual), nil
}

func (e *Executor) handleAssertURL(ctx context.Context, page schemas.Page, action schemas.Action, _ *RunContext) (interface{}, error) {
	url, err := page.URL(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading page URL: %w", err)
	}
	return comparePattern("URL", url, action.Pattern, action.Exact), nil
}

func (e *Executor) handleAssertTitle(ctx context.Context, page schemas.Page, action schemas.Action, _ *RunContext) (interface{}, error) {
	title, err := page.Title(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading page title: %w", err)
	}
	return comparePattern("Title", title, action.Pattern, action.Exact), nil
}

func comparePattern(subject, actual, pattern string, exact bool) schemas.AssertionOutcome {
	if exact {
		if actual == pattern {
			return outcome(true, "%s equals %q", subject, pattern)
		}
		return outcome(false, "Expected %s %q but got %q", strings.ToLower(subject), pattern, actual)
	}
	if matchPattern(actual, pattern) {
		return outcome(true, "%s %q matches pattern %q", subject, actual, pattern)
	}
	return outcome(false, "%s %q does not match pattern %q", subject, actual, pattern)
}

// matchPattern treats pattern as an ECMAScript regular expression. A pattern
// that does not compile is matched as a plain substring instead.
func matchPattern(actual, pattern string) bool {
	re, err := regexp2.Compile(pattern, regexp2.ECMAScript)
	if err != nil {
		return strings.Contains(actual, pattern)
	}
	re.MatchTimeout = patternMatchTimeout
	ok, err := re.MatchString(actual)
	return err == nil && ok
}

func outcome(passed bool, format string, args ...interface{}) schemas.AssertionOutcome {
	return schemas.AssertionOutcome{Passed: passed, Message: fmt.Sprintf(format, args...)}
}
