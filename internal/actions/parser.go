// internal/actions/parser.go
package actions

import (
	"fmt"

	json "github.com/json-iterator/go"

	"github.com/xkilldash9x/stepwise/api/schemas"
)

// ParseActionSequence normalizes raw JSON text (string or []byte) into a
// sequence value. Anything else is assumed to be an already-decoded object and
// is passed through unchanged. Shape checks are left to the validator.
func ParseActionSequence(input interface{}) schemas.ParseResult {
	switch v := input.(type) {
	case string:
		return parseJSON([]byte(v))
	case []byte:
		return parseJSON(v)
	default:
		return schemas.ParseResult{Success: true, Sequence: input}
	}
}

func parseJSON(data []byte) schemas.ParseResult {
	var seq interface{}
	if err := json.Unmarshal(data, &seq); err != nil {
		return schemas.ParseResult{Success: false, Error: fmt.Sprintf("Invalid JSON: %v", err)}
	}
	return schemas.ParseResult{Success: true, Sequence: seq}
}

// normalize converts typed Go values (schemas.ActionSequence, schemas.Action,
// typed maps and slices, non-float numbers) into the generic JSON tree the
// validator inspects. Values that already are generic trees all the way down
// are returned as is.
func normalize(v interface{}) (interface{}, error) {
	if isJSONTree(v) {
		return v, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode value: %w", err)
	}
	var out interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode value: %w", err)
	}
	return out, nil
}

// isJSONTree reports whether v holds only the types json.Unmarshal produces
// into an interface{}.
func isJSONTree(v interface{}) bool {
	switch t := v.(type) {
	case nil, string, bool, float64:
		return true
	case map[string]interface{}:
		for _, e := range t {
			if !isJSONTree(e) {
				return false
			}
		}
		return true
	case []interface{}:
		for _, e := range t {
			if !isJSONTree(e) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// decodeAction turns a validated generic step into its typed form. Typed
// parameters are coerced first so "100", 1.5 or "true" decode instead of
// failing the step.
func decodeAction(step interface{}) (schemas.Action, error) {
	var a schemas.Action
	if m, ok := step.(map[string]interface{}); ok {
		step = coerceStep(m)
	}
	data, err := json.Marshal(step)
	if err != nil {
		return a, fmt.Errorf("failed to encode step: %w", err)
	}
	if err := json.Unmarshal(data, &a); err != nil {
		return a, fmt.Errorf("%w: %v", ErrInvalidParameters, err)
	}
	return a, nil
}
