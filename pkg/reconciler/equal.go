package reconciler

import "reflect"

// identical is the equality used for eager bail-out and dependency lists:
// == for comparable values, pointer identity for slices, maps and channels.
// It never compares contents deeply. Two non-nil funcs are never identical
// because Go offers no closure identity.
func identical(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() {
	case reflect.Slice:
		return va.Len() == vb.Len() && va.UnsafePointer() == vb.UnsafePointer()
	case reflect.Map, reflect.Chan:
		return va.UnsafePointer() == vb.UnsafePointer()
	case reflect.Func:
		return va.IsNil() && vb.IsNil()
	}
	if !va.Comparable() {
		return false
	}
	return a == b
}

// depsEqual compares two dependency lists element-wise.
func depsEqual(next, prev []any) bool {
	if len(next) != len(prev) {
		return false
	}
	for i := range next {
		if !identical(next[i], prev[i]) {
			return false
		}
	}
	return true
}
