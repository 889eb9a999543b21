// internal/actions/assertions.go
package actions

import (
	"github.com/xkilldash9x/stepwise/api/schemas"
)

// CollectAssertionResults summarizes the assertion steps of a run. Steps whose
// action does not start with "assert", and assertion steps that carry no
// result (for example because the page call itself failed), are skipped.
// AllPassed is true when nothing failed, including when there were no
// assertions at all.
func CollectAssertionResults(results []schemas.StepResult) schemas.AssertionSummary {
	summary := schemas.AssertionSummary{Results: []schemas.AssertionRecord{}}
	for _, r := range results {
		if !IsAssertion(r.Action) || r.Result == nil {
			continue
		}
		o, ok := assertionOutcome(r.Result)
		if !ok {
			continue
		}
		summary.Results = append(summary.Results, schemas.AssertionRecord{
			Action:  r.Action,
			Passed:  o.Passed,
			Message: o.Message,
			Label:   r.Label,
		})
		if o.Passed {
			summary.Passed++
		} else {
			summary.Failed++
		}
	}
	summary.TotalAssertions = len(summary.Results)
	summary.AllPassed = summary.Failed == 0
	return summary
}

// assertionOutcome extracts {passed, message} from a step result payload,
// which is either the executor's own value or a decoded JSON object.
func assertionOutcome(v interface{}) (schemas.AssertionOutcome, bool) {
	switch t := v.(type) {
	case schemas.AssertionOutcome:
		return t, true
	case *schemas.AssertionOutcome:
		if t == nil {
			return schemas.AssertionOutcome{}, false
		}
		return *t, true
	case map[string]interface{}:
		passed, ok := t["passed"].(bool)
		if !ok {
			return schemas.AssertionOutcome{}, false
		}
		msg, _ := t["message"].(string)
		return schemas.AssertionOutcome{Passed: passed, Message: msg}, true
	}
	return schemas.AssertionOutcome{}, false
}
