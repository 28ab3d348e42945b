package statestore

import (
	"context"
	"sync"

	"github.com/roach88/zeromem/internal/ir"
)

// Memory is an in-process Store. Values are kept in encoded form so that
// callers can never mutate stored state through a returned map.
//
// Thread-safety: safe for concurrent use via internal mutex.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

// Load implements Store.
func (m *Memory) Load(ctx context.Context, key string) (ir.IRValue, bool, error) {
	if err := checkKey(key); err != nil {
		return nil, false, err
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	m.mu.RLock()
	data, ok := m.values[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}

	v, err := decodeValue(data)
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// Save implements Store.
func (m *Memory) Save(ctx context.Context, key string, value ir.IRValue) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := encodeValue(value)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.values[key] = data
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}

// Close implements Store. It is a no-op.
func (m *Memory) Close() error {
	return nil
}
