package tourvisor

import (
	"strconv"
	"strings"
)

// The upstream is loose about shapes: fields that hold one element in some
// responses hold a list in others, numbers arrive as strings, and several
// keys have short aliases. These helpers normalize those shapes before any
// business logic sees them.

// AsMap returns v as an object, or nil.
func AsMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

// AsList normalizes a one-or-many field: a list stays a list, a single
// object becomes a one-element list, anything else is nil.
func AsList(v any) []any {
	switch t := v.(type) {
	case []any:
		return t
	case map[string]any:
		return []any{t}
	default:
		return nil
	}
}

// FirstKey returns the value of the first key present with a non-nil value.
func FirstKey(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

// ToInt parses an int out of whatever the upstream sent: JSON numbers,
// numeric strings with whitespace, or actual ints.
func ToInt(v any) (int, bool) {
	switch t := v.(type) {
	case nil:
		return 0, false
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		return int(t), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// ToStr renders a scalar as its string form; nil becomes the empty string
// and floats carrying integral values drop the fraction part.
func ToStr(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}
