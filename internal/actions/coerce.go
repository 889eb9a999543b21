// internal/actions/coerce.go
package actions

import (
	"math"
	"sort"

	"github.com/spf13/cast"
)

type fieldKind int

const (
	kindInt fieldKind = iota
	kindFloat
	kindBool
	kindString
)

func (k fieldKind) String() string {
	switch k {
	case kindInt, kindFloat:
		return "number"
	case kindBool:
		return "boolean"
	default:
		return "string"
	}
}

// fieldKinds lists the typed step parameters. "value" is absent because it
// accepts a string or a list.
var fieldKinds = map[string]fieldKind{
	"timeout":    kindInt,
	"ms":         kindInt,
	"delay":      kindInt,
	"polling":    kindInt,
	"clickCount": kindInt,
	"count":      kindInt,
	"width":      kindInt,
	"height":     kindInt,

	"x":                 kindFloat,
	"y":                 kindFloat,
	"deviceScaleFactor": kindFloat,

	"exact":    kindBool,
	"visible":  kindBool,
	"hidden":   kindBool,
	"isMobile": kindBool,
	"hasTouch": kindBool,

	"label":     kindString,
	"selector":  kindString,
	"text":      kindString,
	"url":       kindString,
	"script":    kindString,
	"message":   kindString,
	"key":       kindString,
	"pattern":   kindString,
	"waitUntil": kindString,
	"button":    kindString,
	"block":     kindString,
	"inline":    kindString,
	"behavior":  kindString,
}

// maxWireInt is the largest integer a JSON number carries exactly.
const maxWireInt = 1 << 53

// coerceField converts a loosely typed wire value into the form Action
// decodes. Numbers may be fractional or numeric strings and are rounded;
// booleans may be "true"/"false"/"1"/"0"; strings may be given as numbers or
// booleans. ok is false when v has no sensible reading.
func coerceField(kind fieldKind, v interface{}) (interface{}, bool) {
	switch kind {
	case kindInt, kindFloat:
		if _, isBool := v.(bool); isBool {
			return nil, false
		}
		f, err := cast.ToFloat64E(v)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, false
		}
		if kind == kindFloat {
			return f, true
		}
		f = math.Max(-maxWireInt, math.Min(maxWireInt, math.Round(f)))
		return int64(f), true
	case kindBool:
		b, err := cast.ToBoolE(v)
		if err != nil {
			return nil, false
		}
		return b, true
	default:
		switch v.(type) {
		case string, float64, bool:
			return cast.ToString(v), true
		}
		return nil, false
	}
}

// coerceStep returns a copy of step with every typed parameter converted by
// coerceField. Unusable numbers and booleans are dropped so the field falls
// back to its zero value or schema default; the validator has already warned
// about them. Unusable strings are kept and fail decoding.
func coerceStep(step map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(step))
	for k, v := range step {
		kind, typed := fieldKinds[k]
		if !typed {
			out[k] = v
			continue
		}
		if v == nil {
			continue
		}
		if c, ok := coerceField(kind, v); ok {
			out[k] = c
		} else if kind == kindString {
			out[k] = v
		}
	}
	return out
}

// uncoercibleFields returns the typed parameters of step whose values cannot
// be read as their kind, sorted by name. Nil values are skipped.
func uncoercibleFields(step map[string]interface{}) []string {
	var bad []string
	for k, v := range step {
		kind, typed := fieldKinds[k]
		if !typed || v == nil {
			continue
		}
		if _, ok := coerceField(kind, v); !ok {
			bad = append(bad, k)
		}
	}
	sort.Strings(bad)
	return bad
}
