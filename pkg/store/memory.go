// memory.go — In-process store with staged, all-or-nothing updates.
package store

import (
	"errors"
	"sort"
	"sync"
)

// Memory keeps everything in a map. Update stages writes in an overlay and
// merges it only when the callback succeeds.
type Memory struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed bool
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) View(fn func(Tx) error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrClosed
	}
	return fn(&memTx{base: m.data})
}

func (m *Memory) Update(fn func(Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}

	tx := &memTx{base: m.data, writable: true, staged: make(map[string][]byte)}
	if err := fn(tx); err != nil {
		return err
	}
	for k, v := range tx.staged {
		if v == nil {
			delete(m.data, k)
		} else {
			m.data[k] = v
		}
	}
	return nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

var errReadOnly = errors.New("store: write in read-only transaction")

// memTx reads through staged writes to the base map. A nil staged value is a
// pending delete.
type memTx struct {
	base     map[string][]byte
	staged   map[string][]byte
	writable bool
}

func (tx *memTx) Get(key string) ([]byte, bool, error) {
	if v, ok := tx.staged[key]; ok {
		return v, v != nil, nil
	}
	v, ok := tx.base[key]
	return v, ok, nil
}

func (tx *memTx) Put(key string, value []byte) error {
	if !tx.writable {
		return errReadOnly
	}
	tx.staged[key] = append(make([]byte, 0, len(value)), value...)
	return nil
}

func (tx *memTx) Delete(key string) error {
	if !tx.writable {
		return errReadOnly
	}
	tx.staged[key] = nil
	return nil
}

func (tx *memTx) Keys() ([]string, error) {
	seen := make(map[string]bool, len(tx.base)+len(tx.staged))
	for k := range tx.base {
		seen[k] = true
	}
	for k, v := range tx.staged {
		seen[k] = v != nil
	}
	keys := make([]string, 0, len(seen))
	for k, ok := range seen {
		if ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
