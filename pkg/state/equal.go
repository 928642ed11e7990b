package state

import "reflect"

// Equal reports whether two state values are deeply equal.
// Comparable scalars are compared with ==, everything else with
// reflect.DeepEqual.
func Equal(a, b any) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case int:
		bv, ok := b.(int)
		return ok && av == bv
	case int64:
		bv, ok := b.(int64)
		return ok && av == bv
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	default:
		return reflect.DeepEqual(a, b)
	}
}

// Copy returns a deep copy of the mapping and slice structure of v.
// Leaf values are shared.
func Copy(v any) any {
	switch tv := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(tv))
		for k, child := range tv {
			out[k] = Copy(child)
		}
		return out
	case []any:
		out := make([]any, len(tv))
		for i, child := range tv {
			out[i] = Copy(child)
		}
		return out
	default:
		return v
	}
}

// copyTree deep-copies a tree, treating nil as empty.
func copyTree(tree map[string]any) map[string]any {
	if tree == nil {
		return make(map[string]any)
	}
	return Copy(tree).(map[string]any)
}
