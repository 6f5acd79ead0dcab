// Copyright 2026 Contributors to the Veraison project.
// SPDX-License-Identifier: Apache-2.0

package integrity

import "sync"

// Registry owns values on behalf of a Provider and hands out opaque numeric
// handles for them. Handles are never reused within a Registry.
type Registry[T any] struct {
	mu     sync.Mutex
	next   uint64
	values map[uint64]T
}

// NewRegistry instantiates an empty Registry
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{values: make(map[uint64]T)}
}

// Put stores v and returns its handle.
func (o *Registry[T]) Put(v T) uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.next++
	o.values[o.next] = v

	return o.next
}

// Get returns the value associated with h.
func (o *Registry[T]) Get(h uint64) (T, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	v, ok := o.values[h]

	return v, ok
}

// Release drops h and returns the value it referred to. Releasing an unknown
// handle reports false.
func (o *Registry[T]) Release(h uint64) (T, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	v, ok := o.values[h]
	if ok {
		delete(o.values, h)
	}

	return v, ok
}

// Drain releases every outstanding handle and returns the values they
// referred to.
func (o *Registry[T]) Drain() []T {
	o.mu.Lock()
	defer o.mu.Unlock()

	ret := make([]T, 0, len(o.values))
	for h, v := range o.values {
		ret = append(ret, v)
		delete(o.values, h)
	}

	return ret
}

// Len returns the number of outstanding handles.
func (o *Registry[T]) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()

	return len(o.values)
}
