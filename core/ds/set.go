// Package ds provides small generic containers shared across the module.
package ds

import "fmt"

// Set is an insertion-ordered set: O(1) membership tests and iteration in
// the order elements were first added.
type Set[T comparable] struct {
	items map[T]struct{}
	order []T
}

// NewSet creates a set holding the given items, first occurrence wins.
func NewSet[T comparable](items ...T) *Set[T] {
	s := &Set[T]{
		items: make(map[T]struct{}, len(items)),
		order: make([]T, 0, len(items)),
	}
	for _, v := range items {
		s.Add(v)
	}
	return s
}

// Add inserts v and reports whether it was absent. Adding a present element
// is a no-op that keeps its original position.
func (s *Set[T]) Add(v T) bool {
	if _, ok := s.items[v]; ok {
		return false
	}
	s.items[v] = struct{}{}
	s.order = append(s.order, v)
	return true
}

// Contains reports whether v is in the set.
func (s *Set[T]) Contains(v T) bool {
	_, ok := s.items[v]
	return ok
}

// Len returns the number of elements.
func (s *Set[T]) Len() int { return len(s.items) }

// IsEmpty reports whether the set has no elements.
func (s *Set[T]) IsEmpty() bool { return len(s.items) == 0 }

// Values returns a copy of the elements in insertion order.
func (s *Set[T]) Values() []T {
	out := make([]T, len(s.order))
	copy(out, s.order)
	return out
}

func (s *Set[T]) String() string {
	return fmt.Sprintf("%v", s.order)
}
