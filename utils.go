package sparsecs

import "reflect"

// extendSlice extends a slice by n elements, reallocating if necessary. New
// elements are set to fill.
func extendSlice[T any](s []T, n int, fill T) []T {
	oldLen := len(s)
	newLen := oldLen + n
	if cap(s) >= newLen {
		s = s[:newLen]
	} else {
		ns := make([]T, newLen, max(2*cap(s), newLen))
		copy(ns, s)
		s = ns
	}
	for i := oldLen; i < newLen; i++ {
		s[i] = fill
	}
	return s
}

// typeOf returns the type key used for component and event registries.
func typeOf[T any]() reflect.Type {
	return reflect.TypeFor[T]()
}
