// internal/actions/validator.go
package actions

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xkilldash9x/stepwise/api/schemas"
)

// Sequence-level validation messages. Each shape problem has its own message so
// editors can tell them apart.
const (
	msgSequenceNotObject = "Action sequence must be an object"
	msgStepsNotArray     = `Action sequence must have a "steps" array`
	msgNoSteps           = "Action sequence has no steps"
)

// ValidateAction checks a single step against the schema registry. stepIndex is
// zero-based; messages use the 1-based form or the step's label.
func ValidateAction(action interface{}, stepIndex int) schemas.ValidationResult {
	raw, err := normalize(action)
	if err != nil {
		return invalid(fmt.Sprintf("Step %d: %v", stepIndex+1, err))
	}

	obj, ok := raw.(map[string]interface{})
	if !ok {
		return invalid(fmt.Sprintf("Step %d: Action must be an object", stepIndex+1))
	}
	prefix := stepPrefix(obj, stepIndex)

	name, ok := obj["action"].(string)
	if !ok || name == "" {
		return invalid(fmt.Sprintf(`%s: Missing or invalid "action" field`, prefix))
	}

	schema, ok := LookupSchema(name)
	if !ok {
		return invalid(fmt.Sprintf(`%s: Unknown action type "%s". Valid actions: %s`,
			prefix, name, strings.Join(KnownActionTypes(), ", ")))
	}

	var missing []string
	for _, field := range schema.Required {
		if isMissing(obj, field) {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return invalid(fmt.Sprintf(`%s: Missing required field(s) for "%s": %s`,
			prefix, name, strings.Join(missing, ", ")))
	}

	var warnings []string
	if unknown := unknownFields(obj, schema); len(unknown) > 0 {
		warnings = append(warnings, fmt.Sprintf(`%s: Unknown field(s) for "%s": %s`,
			prefix, name, strings.Join(unknown, ", ")))
	}
	if v, ok := obj["timeout"]; ok && v != nil {
		if n, isNum := v.(float64); !isNum || n <= 0 {
			warnings = append(warnings, fmt.Sprintf("%s: timeout should be a positive number", prefix))
		}
	}
	if v, ok := obj["ms"]; ok && v != nil {
		if n, isNum := v.(float64); !isNum || n < 0 {
			warnings = append(warnings, fmt.Sprintf("%s: ms should be a non-negative number", prefix))
		}
	}
	for _, field := range uncoercibleFields(obj) {
		if field == "timeout" || field == "ms" {
			continue
		}
		warnings = append(warnings, fmt.Sprintf("%s: %s should be a %s", prefix, field, fieldKinds[field]))
	}

	return schemas.ValidationResult{Valid: true, Warnings: warnings}
}

// ValidateActionSequence validates every step independently and unions the
// errors and warnings. It does not stop at the first invalid step.
func ValidateActionSequence(sequence interface{}) schemas.SequenceValidationResult {
	result := schemas.SequenceValidationResult{Errors: []string{}, Warnings: []string{}}

	raw, err := normalize(sequence)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result
	}
	obj, ok := raw.(map[string]interface{})
	if !ok {
		result.Errors = append(result.Errors, msgSequenceNotObject)
		return result
	}
	steps, ok := obj["steps"].([]interface{})
	if !ok {
		result.Errors = append(result.Errors, msgStepsNotArray)
		return result
	}
	if len(steps) == 0 {
		result.Errors = append(result.Errors, msgNoSteps)
		return result
	}

	for i, step := range steps {
		r := ValidateAction(step, i)
		if !r.Valid {
			result.Errors = append(result.Errors, r.Error)
		}
		result.Warnings = append(result.Warnings, r.Warnings...)
	}
	result.Valid = len(result.Errors) == 0
	return result
}

func invalid(msg string) schemas.ValidationResult {
	return schemas.ValidationResult{Valid: false, Error: msg}
}

// stepPrefix addresses a step by its quoted label, or by its 1-based position.
func stepPrefix(obj map[string]interface{}, stepIndex int) string {
	if label, ok := obj["label"].(string); ok && label != "" {
		return fmt.Sprintf("%q", label)
	}
	return fmt.Sprintf("Step %d", stepIndex+1)
}

// isMissing treats absent, null and empty-string values as missing.
func isMissing(obj map[string]interface{}, field string) bool {
	v, ok := obj[field]
	if !ok || v == nil {
		return true
	}
	s, isString := v.(string)
	return isString && s == ""
}

func unknownFields(obj map[string]interface{}, schema ActionSchema) []string {
	allowed := map[string]bool{"action": true, "label": true}
	for _, f := range schema.Required {
		allowed[f] = true
	}
	for _, f := range schema.Optional {
		allowed[f] = true
	}

	var unknown []string
	for k := range obj {
		if !allowed[k] {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	return unknown
}
