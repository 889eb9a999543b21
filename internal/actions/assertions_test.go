// internal/actions/assertions_test.go
package actions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/stepwise/api/schemas"
)

func TestCollectAssertionResults(t *testing.T) {
	results := []schemas.StepResult{
		{Action: "goto", Success: true},
		{Action: "assertText", Label: "Heading", Success: true, Result: schemas.AssertionOutcome{Passed: true, Message: "ok"}},
		{Action: "assertUrl", Label: "Step 3", Success: true, Result: map[string]interface{}{"passed": false, "message": "wrong page"}},
		{Action: "assertTitle", Label: "Step 4", Success: false, Error: "boom"},
		{Action: "evaluate", Success: true, Result: map[string]interface{}{"passed": true}},
	}

	summary := CollectAssertionResults(results)
	assert.Equal(t, 2, summary.TotalAssertions)
	assert.Equal(t, 1, summary.Passed)
	assert.Equal(t, 1, summary.Failed)
	assert.False(t, summary.AllPassed)
	require.Len(t, summary.Results, 2)
	assert.Equal(t, schemas.AssertionRecord{Action: "assertText", Passed: true, Message: "ok", Label: "Heading"}, summary.Results[0])
	assert.Equal(t, schemas.AssertionRecord{Action: "assertUrl", Passed: false, Message: "wrong page", Label: "Step 3"}, summary.Results[1])
}

func TestCollectAssertionResults_Empty(t *testing.T) {
	summary := CollectAssertionResults(nil)
	assert.Zero(t, summary.TotalAssertions)
	assert.True(t, summary.AllPassed)
	assert.NotNil(t, summary.Results)
}

func TestCollectAssertionResults_CountsAddUp(t *testing.T) {
	var results []schemas.StepResult
	for i := 0; i < 7; i++ {
		results = append(results, schemas.StepResult{
			Action:  "assert",
			Success: true,
			Result:  &schemas.AssertionOutcome{Passed: i%3 != 0},
		})
	}
	summary := CollectAssertionResults(results)
	assert.Equal(t, summary.TotalAssertions, summary.Passed+summary.Failed)
	assert.Equal(t, 3, summary.Failed)
}
