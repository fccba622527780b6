package treectx

import "reflect"

// Equal is the default value-equality predicate used to suppress redundant
// propagation. Booleans, numerics, strings, channels and pointers compare
// with ==; everything else goes through deep structural comparison. Contexts
// can override it per instance with WithEqual.
//
// Structs and arrays stay off the == path even when their type is
// comparable: an interface field holding a non-comparable value makes ==
// panic at runtime.
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return a == b
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	switch ta.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128,
		reflect.String,
		reflect.Chan, reflect.Pointer, reflect.UnsafePointer:
		return a == b
	}
	return reflect.DeepEqual(a, b)
}

// NotEqual is the negation of Equal.
func NotEqual(a, b any) bool {
	return !Equal(a, b)
}
