package hooks

import "reflect"

// Deps is a dependency list for UseEffect, UseMemo, and UseCallback.
// Elements are compared by value for comparable kinds and by
// reflect.DeepEqual otherwise.
//
// A nil Deps means "no dependency list": the effect runs after every
// commit. An empty Deps{} means "no dependencies": the effect runs once
// on mount.
type Deps []any

// changed reports whether next differs from prev.
// A nil prev snapshot (first mount) always counts as changed, as does a
// length mismatch between renders.
func (prev Deps) changed(next Deps) bool {
	if prev == nil {
		return true
	}
	if len(prev) != len(next) {
		return true
	}
	for i := range prev {
		if !valueEquals(prev[i], next[i]) {
			return true
		}
	}
	return false
}

// valueEquals provides type-appropriate equality checking.
// Uses == for common comparable types and reflect.DeepEqual for others.
func valueEquals(a, b any) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case int:
		bv, ok := b.(int)
		return ok && av == bv
	case int8:
		bv, ok := b.(int8)
		return ok && av == bv
	case int16:
		bv, ok := b.(int16)
		return ok && av == bv
	case int32:
		bv, ok := b.(int32)
		return ok && av == bv
	case int64:
		bv, ok := b.(int64)
		return ok && av == bv
	case uint:
		bv, ok := b.(uint)
		return ok && av == bv
	case uint8:
		bv, ok := b.(uint8)
		return ok && av == bv
	case uint16:
		bv, ok := b.(uint16)
		return ok && av == bv
	case uint32:
		bv, ok := b.(uint32)
		return ok && av == bv
	case uint64:
		bv, ok := b.(uint64)
		return ok && av == bv
	case float32:
		bv, ok := b.(float32)
		return ok && av == bv
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	default:
		return reflect.DeepEqual(a, b)
	}
}
