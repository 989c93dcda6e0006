// Package orderedset provides an insertion-ordered set.
//
// Table and column names are compared by membership but reported in the order
// they were first seen, so diagnostics are deterministic across runs.
package orderedset

import "iter"

// Set is a set that remembers insertion order. The zero value is empty and
// ready to use. A nil *Set behaves as an empty set for all read methods.
type Set[T comparable] struct {
	items []T
	index map[T]struct{}
}

// New returns a set holding items in order, dropping repeats.
func New[T comparable](items ...T) *Set[T] {
	s := &Set[T]{}
	for _, item := range items {
		s.Add(item)
	}
	return s
}

// Add inserts v and reports whether it was not already present.
func (s *Set[T]) Add(v T) bool {
	if s.index == nil {
		s.index = make(map[T]struct{})
	}
	if _, ok := s.index[v]; ok {
		return false
	}
	s.index[v] = struct{}{}
	s.items = append(s.items, v)
	return true
}

// Contains reports whether v is in the set.
func (s *Set[T]) Contains(v T) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[v]
	return ok
}

// Len returns the number of elements.
func (s *Set[T]) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// Items returns a copy of the elements in insertion order.
func (s *Set[T]) Items() []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

// All iterates the elements in insertion order.
func (s *Set[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		if s == nil {
			return
		}
		for _, v := range s.items {
			if !yield(v) {
				return
			}
		}
	}
}

// Clone returns an independent copy of s.
func (s *Set[T]) Clone() *Set[T] {
	if s == nil {
		return &Set[T]{}
	}
	return New(s.items...)
}
