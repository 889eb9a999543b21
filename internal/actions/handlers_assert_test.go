// internal/actions/handlers_assert_test.go
package actions

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/stepwise/api/schemas"
	"github.com/xkilldash9x/stepwise/internal/mocks"
)

func intPtr(n int) *int { return &n }

// runAssertion executes an assertion step and requires it to have produced an outcome.
func runAssertion(t *testing.T, page schemas.Page, action schemas.Action) schemas.AssertionOutcome {
	t.Helper()
	res := newTestExecutor(t).Execute(context.Background(), page, action, nil)
	require.True(t, res.Success, "assertion step should not fail: %s", res.Error)
	o, ok := res.Result.(schemas.AssertionOutcome)
	require.True(t, ok, "unexpected result type %T", res.Result)
	return o
}

func TestNormalizeAssertResult(t *testing.T) {
	tests := []struct {
		name    string
		value   interface{}
		message string
		want    schemas.AssertionOutcome
	}{
		{"TrueWithDefault", true, "", schemas.AssertionOutcome{Passed: true, Message: "Assertion passed"}},
		{"FalseWithDefault", false, "", schemas.AssertionOutcome{Passed: false, Message: "Assertion failed"}},
		{"BoolWithCallerMessage", false, "cart is empty", schemas.AssertionOutcome{Passed: false, Message: "cart is empty"}},
		{"ShapedObject", map[string]interface{}{"passed": true, "message": "ok"}, "ignored", schemas.AssertionOutcome{Passed: true, Message: "ok"}},
		{"ShapedObjectWithoutMessage", map[string]interface{}{"passed": false}, "fallback", schemas.AssertionOutcome{Passed: false, Message: "fallback"}},
		{"ObjectWithoutPassed", map[string]interface{}{"ok": true}, "", schemas.AssertionOutcome{Passed: false, Message: msgAssertBadReturn}},
		{"Number", float64(1), "", schemas.AssertionOutcome{Passed: false, Message: msgAssertBadReturn}},
		{"String", "true", "", schemas.AssertionOutcome{Passed: false, Message: msgAssertBadReturn}},
		{"Null", nil, "", schemas.AssertionOutcome{Passed: false, Message: msgAssertBadReturn}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeAssertResult(tt.value, tt.message))
		})
	}
}

func TestExecutor_Assert(t *testing.T) {
	page := new(mocks.MockPage)
	page.On("Evaluate", mock.Anything, "document.title.length > 0").Return("true", nil).Once()
	page.On("Evaluate", mock.Anything, "42").Return("42", nil).Once()
	page.On("Evaluate", mock.Anything, "nope(").Return(nil, errors.New("SyntaxError: Unexpected end of input")).Once()

	o := runAssertion(t, page, schemas.Action{Action: schemas.ActionAssert, Script: "document.title.length > 0", Message: "has title"})
	assert.Equal(t, schemas.AssertionOutcome{Passed: true, Message: "has title"}, o)

	o = runAssertion(t, page, schemas.Action{Action: schemas.ActionAssert, Script: "42"})
	assert.False(t, o.Passed)
	assert.Equal(t, msgAssertBadReturn, o.Message)

	// A script that cannot run is an execution failure, not a failed assertion.
	res := newTestExecutor(t).Execute(context.Background(), page, schemas.Action{Action: schemas.ActionAssert, Script: "nope("}, nil)
	assert.False(t, res.Success)
	assert.Equal(t, string(ErrCodeScriptError), res.ErrorCode)
	page.AssertExpectations(t)
}

func TestExecutor_AssertSelector(t *testing.T) {
	t.Run("CountMatches", func(t *testing.T) {
		page := new(mocks.MockPage)
		page.On("QueryCount", mock.Anything, ".item").Return(2, nil)
		o := runAssertion(t, page, schemas.Action{Action: schemas.ActionAssertSelector, Selector: ".item", Count: intPtr(2)})
		assert.True(t, o.Passed)
		assert.Contains(t, o.Message, "Found expected 2")
	})

	t.Run("CountMismatch", func(t *testing.T) {
		page := new(mocks.MockPage)
		page.On("QueryCount", mock.Anything, ".item").Return(3, nil)
		o := runAssertion(t, page, schemas.Action{Action: schemas.ActionAssertSelector, Selector: ".item", Count: intPtr(2)})
		assert.False(t, o.Passed)
		assert.Contains(t, o.Message, "found 3")
	})

	t.Run("CountZeroIsHonored", func(t *testing.T) {
		page := new(mocks.MockPage)
		page.On("QueryCount", mock.Anything, ".error").Return(0, nil)
		o := runAssertion(t, page, schemas.Action{Action: schemas.ActionAssertSelector, Selector: ".error", Count: intPtr(0)})
		assert.True(t, o.Passed)
	})

	t.Run("VisibleButHidden", func(t *testing.T) {
		page := new(mocks.MockPage)
		page.On("QueryCount", mock.Anything, "#modal").Return(1, nil)
		page.On("IsVisible", mock.Anything, "#modal").Return(false, nil)
		o := runAssertion(t, page, schemas.Action{Action: schemas.ActionAssertSelector, Selector: "#modal", Visible: true})
		assert.False(t, o.Passed)
	})

	t.Run("VisibleWithNoMatches", func(t *testing.T) {
		page := new(mocks.MockPage)
		page.On("QueryCount", mock.Anything, "#modal").Return(0, nil)
		o := runAssertion(t, page, schemas.Action{Action: schemas.ActionAssertSelector, Selector: "#modal", Visible: true})
		assert.False(t, o.Passed)
		page.AssertNotCalled(t, "IsVisible", mock.Anything, mock.Anything)
	})

	t.Run("Exists", func(t *testing.T) {
		page := new(mocks.MockPage)
		page.On("QueryCount", mock.Anything, "h1").Return(1, nil).Once()
		page.On("QueryCount", mock.Anything, "h2").Return(0, nil).Once()
		assert.True(t, runAssertion(t, page, schemas.Action{Action: schemas.ActionAssertSelector, Selector: "h1"}).Passed)
		assert.False(t, runAssertion(t, page, schemas.Action{Action: schemas.ActionAssertSelector, Selector: "h2"}).Passed)
	})
}

func TestExecutor_AssertText(t *testing.T) {
	page := new(mocks.MockPage)
	page.On("TextContent", mock.Anything, "h1").Return("  Welcome back, Ada  ", true, nil)
	page.On("TextContent", mock.Anything, "#gone").Return("", false, nil)

	assert.True(t, runAssertion(t, page, schemas.Action{Action: schemas.ActionAssertText, Selector: "h1", Text: "Welcome"}).Passed)
	assert.False(t, runAssertion(t, page, schemas.Action{Action: schemas.ActionAssertText, Selector: "h1", Text: "Welcome", Exact: true}).Passed)
	assert.True(t, runAssertion(t, page, schemas.Action{Action: schemas.ActionAssertText, Selector: "h1", Text: "Welcome back, Ada", Exact: true}).Passed)

	o := runAssertion(t, page, schemas.Action{Action: schemas.ActionAssertText, Selector: "#gone", Text: "x"})
	assert.False(t, o.Passed)
	assert.Equal(t, "Element not found: #gone", o.Message)
}

func TestExecutor_AssertURLAndTitle(t *testing.T) {
	page := new(mocks.MockPage)
	page.On("URL", mock.Anything).Return("https://shop.example.com/cart?id=7", nil)
	page.On("Title", mock.Anything).Return("Cart (3)", nil)

	tests := []struct {
		name   string
		action schemas.Action
		passed bool
	}{
		{"URLRegex", schemas.Action{Action: schemas.ActionAssertURL, Pattern: `/cart\?id=\d+$`}, true},
		{"URLRegexMiss", schemas.Action{Action: schemas.ActionAssertURL, Pattern: `^http://`}, false},
		{"URLExact", schemas.Action{Action: schemas.ActionAssertURL, Pattern: "https://shop.example.com/cart?id=7", Exact: true}, true},
		{"URLExactMiss", schemas.Action{Action: schemas.ActionAssertURL, Pattern: "https://shop.example.com/cart", Exact: true}, false},
		{"TitleInvalidRegexFallsBackToSubstring", schemas.Action{Action: schemas.ActionAssertTitle, Pattern: "Cart ("}, true},
		{"TitleRegex", schemas.Action{Action: schemas.ActionAssertTitle, Pattern: `^Cart \(\d\)$`}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := runAssertion(t, page, tt.action)
			assert.Equal(t, tt.passed, o.Passed, o.Message)
		})
	}
}

func TestMatchPattern(t *testing.T) {
	assert.True(t, matchPattern("abc123", `\d{3}`))
	assert.True(t, matchPattern("price [USD]", "[USD"), "unterminated class falls back to substring")
	assert.False(t, matchPattern("price", "[USD"))
}
