// internal/actions/coerce_test.go
package actions

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/stepwise/api/schemas"
)

func TestCoerceField(t *testing.T) {
	tests := []struct {
		name   string
		kind   fieldKind
		in     interface{}
		want   interface{}
		wantOK bool
	}{
		{"IntFromFloat", kindInt, 1.5, int64(2), true},
		{"IntRoundsHalfAwayFromZero", kindInt, -2.5, int64(-3), true},
		{"IntFromNumericString", kindInt, "100", int64(100), true},
		{"IntFromFractionalString", kindInt, "7.4", int64(7), true},
		{"IntClampsHuge", kindInt, 1e300, int64(maxWireInt), true},
		{"IntRejectsWord", kindInt, "soon", nil, false},
		{"IntRejectsBool", kindInt, true, nil, false},
		{"IntRejectsNaN", kindInt, math.NaN(), nil, false},
		{"IntRejectsList", kindInt, []interface{}{1.0}, nil, false},
		{"FloatFromString", kindFloat, "0.25", 0.25, true},
		{"BoolFromString", kindBool, "true", true, true},
		{"BoolFromZero", kindBool, 0.0, false, true},
		{"BoolRejectsWord", kindBool, "maybe", nil, false},
		{"StringFromNumber", kindString, 42.0, "42", true},
		{"StringFromBool", kindString, false, "false", true},
		{"StringRejectsObject", kindString, map[string]interface{}{}, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := coerceField(tt.kind, tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeAction_Coerces(t *testing.T) {
	a, err := decodeAction(map[string]interface{}{
		"action":     "click",
		"selector":   "#a",
		"timeout":    "soon",
		"clickCount": "3",
		"delay":      9.7,
		"count":      "0",
		"exact":      "true",
		"label":      12.0,
		"x":          "1.5",
		"visible":    nil,
	})
	require.NoError(t, err)
	assert.Equal(t, schemas.Action{
		Action:     schemas.ActionClick,
		Label:      "12",
		Selector:   "#a",
		ClickCount: 3,
		Delay:      10,
		Count:      intPtr(0),
		Exact:      true,
		X:          1.5,
	}, a)
	assert.Equal(t, interactionTimeout, timeoutFor(a), "an unusable timeout falls back to the default")
}

func TestDecodeAction_NonScalarStringFails(t *testing.T) {
	_, err := decodeAction(map[string]interface{}{"action": "click", "selector": []interface{}{"#a"}})
	assert.ErrorIs(t, err, ErrInvalidParameters)
}

func TestCoerceStep_LeavesInputUntouched(t *testing.T) {
	step := map[string]interface{}{"action": "waitForTimeout", "ms": "100", "extra": 1.0}
	out := coerceStep(step)
	assert.Equal(t, "100", step["ms"])
	assert.Equal(t, int64(100), out["ms"])
	assert.Equal(t, 1.0, out["extra"])
}

func TestNormalize_PassesJSONTreesThrough(t *testing.T) {
	tree := map[string]interface{}{"steps": []interface{}{map[string]interface{}{"ms": 1.0, "x": nil}}}
	assert.True(t, isJSONTree(tree))

	got, err := normalize(map[string]interface{}{"steps": []interface{}{map[string]interface{}{"ms": 1}}})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"steps": []interface{}{map[string]interface{}{"ms": 1.0}}}, got)

	got, err = normalize([]map[string]interface{}{{"a": "b"}})
	require.NoError(t, err)
	assert.Equal(t, []interface{}{map[string]interface{}{"a": "b"}}, got)
}
