package sparsecs

// Join calls fn for every entity holding both an A and a B, with write
// access to A and read access to B. It borrows A exclusively and B shared
// for the duration of the call, so A and B must be different types. The
// smaller of the two sets drives the iteration. Join reports false, without
// calling fn, when either type was never inserted.
func Join[A, B any](w *World, fn func(e Entity, a *A, b B)) bool {
	ra, ok := QueryMut[A](w)
	if !ok {
		return false
	}
	defer ra.Release()
	rb, ok := Query[B](w)
	if !ok {
		return false
	}
	defer rb.Release()

	if ra.Len() <= rb.Len() {
		for e, a := range ra.All() {
			if b, ok := rb.Get(e); ok {
				fn(e, a, b)
			}
		}
		return true
	}
	for e, b := range rb.All() {
		if a, ok := ra.Get(e); ok {
			fn(e, a, b)
		}
	}
	return true
}
