// internal/actions/report.go
package actions

import (
	"github.com/xkilldash9x/stepwise/api/schemas"
)

// GenerateValidationReport produces a step-indexed validation report for either
// JSON text or an already-decoded sequence. It never executes anything.
func GenerateValidationReport(input interface{}) schemas.ValidationReport {
	report := schemas.ValidationReport{Steps: []schemas.StepReport{}}

	parsed := ParseActionSequence(input)
	if !parsed.Success {
		report.ParseError = parsed.Error
		return report
	}

	raw, err := normalize(parsed.Sequence)
	if err != nil {
		report.ParseError = err.Error()
		return report
	}
	obj, _ := raw.(map[string]interface{})
	steps, ok := obj["steps"].([]interface{})
	if !ok {
		report.ParseError = msgStepsNotArray
		return report
	}

	for i, step := range steps {
		r := ValidateAction(step, i)
		row := schemas.StepReport{
			Index:    i + 1,
			Action:   "unknown",
			Valid:    r.Valid,
			Error:    r.Error,
			Warnings: r.Warnings,
		}
		if row.Warnings == nil {
			row.Warnings = []string{}
		}
		if m, isMap := step.(map[string]interface{}); isMap {
			if name, isString := m["action"].(string); isString && name != "" {
				row.Action = name
			}
			if label, isString := m["label"].(string); isString {
				row.Label = label
			}
		}
		report.Steps = append(report.Steps, row)

		report.Summary.TotalSteps++
		if r.Valid {
			report.Summary.ValidSteps++
		} else {
			report.Summary.InvalidSteps++
			report.Summary.ErrorCount++
		}
		report.Summary.WarningCount += len(r.Warnings)
	}
	return report
}
