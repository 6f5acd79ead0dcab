// Copyright 2026 Contributors to the Veraison project.
// SPDX-License-Identifier: Apache-2.0

package verifier

import (
	"context"
	"sync"
	"time"
)

type memoryKey struct {
	kind  Kind
	value string
}

// MemoryStore is a process-local Store
type MemoryStore struct {
	mu      sync.Mutex
	entries map[memoryKey]time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[memoryKey]time.Time)}
}

func (o *MemoryStore) Put(_ context.Context, kind Kind, value string, issued time.Time) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.entries[memoryKey{kind, value}] = issued

	return nil
}

func (o *MemoryStore) Take(_ context.Context, kind Kind, value string) (time.Time, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	k := memoryKey{kind, value}

	issued, ok := o.entries[k]
	if !ok {
		return time.Time{}, ErrNotFound
	}

	delete(o.entries, k)

	return issued, nil
}

// Len returns the number of values not yet taken
func (o *MemoryStore) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()

	return len(o.entries)
}

func (o *MemoryStore) Close() error {
	return nil
}
