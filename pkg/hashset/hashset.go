// Package hashset provides a small generic set on top of a map.
package hashset

type Set[T comparable] map[T]struct{}

func New[T comparable]() Set[T] {
	return map[T]struct{}{}
}

func FromSlice[T comparable](vals []T) Set[T] {
	set := New[T]()
	for _, v := range vals {
		set.Add(v)
	}
	return set
}

func (vs Set[T]) Add(v T) {
	vs[v] = struct{}{}
}

func (vs Set[T]) Has(v T) bool {
	_, ok := vs[v]
	return ok
}

func (vs Set[T]) Len() int {
	return len(vs)
}

func (vs Set[T]) HasAny(xs Set[T]) bool {
	for x := range xs {
		if vs.Has(x) {
			return true
		}
	}
	return false
}

// Diff returns the elements of vs that are not in xs.
func (vs Set[T]) Diff(xs Set[T]) Set[T] {
	result := New[T]()
	for v := range vs {
		if !xs.Has(v) {
			result.Add(v)
		}
	}
	return result
}

func (vs Set[T]) AsSlice() []T {
	slice := make([]T, 0, len(vs))
	for v := range vs {
		slice = append(slice, v)
	}
	return slice
}
