package dirtify

import "reflect"

// identical reports whether a and b are the same value under strict equality.
// Maps and slices compare by reference. Funcs and non-comparable structs are
// never identical.
func identical(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	if ra.Type() != rb.Type() {
		return false
	}

	switch ra.Kind() {
	case reflect.Map:
		return ra.Pointer() == rb.Pointer()
	case reflect.Slice:
		return ra.Pointer() == rb.Pointer() && ra.Len() == rb.Len()
	case reflect.Func:
		return false
	}

	if !ra.Comparable() {
		return false
	}
	return a == b
}

// objectLike reports whether rv should be wrapped in a view.
func objectLike(rv reflect.Value) bool {
	switch rv.Kind() {
	case reflect.Map, reflect.Slice:
		return !rv.IsNil()
	case reflect.Pointer:
		if rv.IsNil() {
			return false
		}
		switch rv.Elem().Kind() {
		case reflect.Struct, reflect.Slice, reflect.Array, reflect.Map:
			return true
		}
	}
	return false
}
