// internal/actions/runner_test.go
package actions

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/stepwise/api/schemas"
	"github.com/xkilldash9x/stepwise/internal/mocks"
)

func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	return NewRunner(zaptest.NewLogger(t), newTestExecutor(t))
}

// threeClicks is a valid sequence whose second step targets #b.
func threeClicks() map[string]interface{} {
	return map[string]interface{}{
		"steps": []interface{}{
			map[string]interface{}{"action": "click", "selector": "#a"},
			map[string]interface{}{"action": "click", "selector": "#b", "label": "Second"},
			map[string]interface{}{"action": "click", "selector": "#c"},
		},
	}
}

func clickablePage(failing string) *mocks.MockPage {
	page := new(mocks.MockPage)
	page.On("WaitForSelector", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	page.On("Click", mock.Anything, failing, mock.Anything).Return(errors.New("Element not found: " + failing))
	page.On("Click", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	return page
}

func TestRunner_InvalidSequenceNeverTouchesPage(t *testing.T) {
	defer goleak.VerifyNone(t)

	page := new(mocks.MockPage)
	seq := map[string]interface{}{
		"steps": []interface{}{
			map[string]interface{}{"action": "click"},
			map[string]interface{}{"action": "fly"},
		},
	}

	res := newTestRunner(t).Run(context.Background(), page, seq, RunOptions{})
	assert.False(t, res.Success)
	assert.True(t, strings.HasPrefix(res.Error, "Invalid action sequence: "))
	assert.Contains(t, res.Error, "; ")
	assert.NotNil(t, res.Results)
	assert.Empty(t, res.Results)
	assert.Empty(t, page.Calls)
}

func TestRunner_StopsAtFirstFailureByDefault(t *testing.T) {
	defer goleak.VerifyNone(t)

	res := newTestRunner(t).Run(context.Background(), clickablePage("#b"), threeClicks(), RunOptions{})
	assert.False(t, res.Success)
	assert.Equal(t, 3, res.TotalSteps)
	assert.Equal(t, 2, res.CompletedSteps)
	require.Len(t, res.Results, 2)
	assert.True(t, res.Results[0].Success)
	assert.False(t, res.Results[1].Success)
	assert.Equal(t, string(ErrCodeElementNotFound), res.Results[1].ErrorCode)
}

func TestRunner_ContinueOnError(t *testing.T) {
	defer goleak.VerifyNone(t)

	res := newTestRunner(t).Run(context.Background(), clickablePage("#b"), threeClicks(), RunOptions{StopOnError: Bool(false)})
	assert.False(t, res.Success)
	assert.Equal(t, 3, res.CompletedSteps)
	require.Len(t, res.Results, 3)
	assert.True(t, res.Results[2].Success)
}

func TestRunner_TagsIndexAndLabel(t *testing.T) {
	defer goleak.VerifyNone(t)

	res := newTestRunner(t).Run(context.Background(), clickablePage("#none"), threeClicks(), RunOptions{LogPrefix: "[test]"})
	require.True(t, res.Success)
	require.Len(t, res.Results, 3)

	wantLabels := []string{"Step 1", "Second", "Step 3"}
	var sum int64
	for i, r := range res.Results {
		assert.Equal(t, i+1, r.StepIndex)
		assert.Equal(t, wantLabels[i], r.Label)
		assert.Equal(t, "click", r.Action)
		sum += r.Duration
	}
	assert.Equal(t, sum, res.TotalDuration)
	assert.Equal(t, len(res.Results), res.CompletedSteps)
}

func TestRunner_AcceptsTypedSequence(t *testing.T) {
	defer goleak.VerifyNone(t)

	page := new(mocks.MockPage)
	page.On("Navigate", mock.Anything, "https://example.com", mock.Anything).Return(nil).Once()
	page.On("Title", mock.Anything).Return("Example Domain", nil).Once()

	seq := schemas.ActionSequence{Steps: []schemas.Action{
		{Action: schemas.ActionGoto, URL: "https://example.com"},
		{Action: schemas.ActionAssertTitle, Pattern: "Example"},
	}}
	res := newTestRunner(t).Run(context.Background(), page, seq, RunOptions{})
	require.True(t, res.Success, res.Error)
	require.Len(t, res.Results, 2)
	assert.Equal(t, schemas.AssertionOutcome{Passed: true, Message: `Title "Example Domain" matches pattern "Example"`}, res.Results[1].Result)
	page.AssertExpectations(t)
}

func TestRunner_AcceptsJSONText(t *testing.T) {
	defer goleak.VerifyNone(t)

	page := new(mocks.MockPage)
	page.On("Press", mock.Anything, "Tab", time.Duration(0)).Return(nil).Once()

	res := newTestRunner(t).Run(context.Background(), page, `{"steps":[{"action":"press","key":"Tab"}]}`, RunOptions{})
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.CompletedSteps)
}

func TestRunner_LooselyTypedParametersAreCoerced(t *testing.T) {
	defer goleak.VerifyNone(t)

	page := new(mocks.MockPage)
	page.On("WaitForSelector", mock.Anything, "#a", schemas.WaitOptions{Timeout: 5 * time.Second}).Return(nil).Once()
	page.On("Click", mock.Anything, "#a", schemas.ClickOptions{Button: "left", ClickCount: 2}).Return(nil).Once()

	var slept []time.Duration
	e := newTestExecutor(t)
	e.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	seq := map[string]interface{}{
		"steps": []interface{}{
			map[string]interface{}{"action": "click", "selector": "#a", "timeout": "soon", "clickCount": "2"},
			map[string]interface{}{"action": "waitForTimeout", "ms": "100"},
			map[string]interface{}{"action": "waitForTimeout", "ms": 1.5},
		},
	}
	res := NewRunner(zaptest.NewLogger(t), e).Run(context.Background(), page, seq, RunOptions{})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, 3, res.CompletedSteps)
	for _, r := range res.Results {
		assert.True(t, r.Success)
		assert.Empty(t, r.ErrorCode)
	}
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 2 * time.Millisecond}, slept)
	page.AssertExpectations(t)
}

func TestRunner_NonScalarStringParameterFailsTheStep(t *testing.T) {
	defer goleak.VerifyNone(t)

	step := map[string]interface{}{"action": "click", "selector": map[string]interface{}{"css": "#a"}}
	v := ValidateAction(step, 0)
	require.True(t, v.Valid)
	assert.Contains(t, v.Warnings, "Step 1: selector should be a string")

	seq := map[string]interface{}{"steps": []interface{}{step}}
	res := newTestRunner(t).Run(context.Background(), new(mocks.MockPage), seq, RunOptions{})
	assert.False(t, res.Success)
	require.Len(t, res.Results, 1)
	assert.Equal(t, "click", res.Results[0].Action)
	assert.Equal(t, string(ErrCodeInvalidParameters), res.Results[0].ErrorCode)
	assert.Equal(t, 1, res.Results[0].StepIndex)
}

func TestRunner_AssertionFailureDoesNotStopTheRun(t *testing.T) {
	defer goleak.VerifyNone(t)

	page := new(mocks.MockPage)
	page.On("QueryCount", mock.Anything, ".missing").Return(0, nil).Once()
	page.On("URL", mock.Anything).Return("https://example.com/", nil).Once()

	seq := map[string]interface{}{
		"steps": []interface{}{
			map[string]interface{}{"action": "assertSelector", "selector": ".missing"},
			map[string]interface{}{"action": "assertUrl", "pattern": "example"},
		},
	}
	res := newTestRunner(t).Run(context.Background(), page, seq, RunOptions{})
	assert.True(t, res.Success)
	require.Len(t, res.Results, 2)

	summary := CollectAssertionResults(res.Results)
	assert.Equal(t, 2, summary.TotalAssertions)
	assert.Equal(t, 1, summary.Failed)
	assert.False(t, summary.AllPassed)
}
