package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

const MemoryType = "memory"

// MemoryStore keeps records in process memory. Writes made inside Update are
// staged and only applied when the callback returns nil.
type MemoryStore struct {
	mu      sync.RWMutex
	buckets map[string]map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	buckets := make(map[string]map[string][]byte, len(Buckets))
	for _, name := range Buckets {
		buckets[name] = make(map[string][]byte)
	}
	return &MemoryStore{buckets: buckets}
}

func (s *MemoryStore) Type() string {
	return MemoryType
}

func (s *MemoryStore) Update(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memoryTx{store: s, staged: make(map[Key][]byte)}
	if err := fn(tx); err != nil {
		return err
	}
	for key, data := range tx.staged {
		s.buckets[key.Bucket][key.ID] = data
	}
	return nil
}

func (s *MemoryStore) View(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&memoryTx{store: s, readOnly: true})
}

func (s *MemoryStore) Close() error {
	return nil
}

type memoryTx struct {
	store    *MemoryStore
	staged   map[Key][]byte
	readOnly bool
}

func (t *memoryTx) lookup(key Key) ([]byte, error) {
	if data, ok := t.staged[key]; ok {
		return data, nil
	}
	bkt, ok := t.store.buckets[key.Bucket]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBucket, key.Bucket)
	}
	return bkt[key.ID], nil
}

func (t *memoryTx) Get(key Key, out interface{}) error {
	data, err := t.lookup(key)
	if err != nil {
		return err
	}
	if data == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return json.Unmarshal(data, out)
}

func (t *memoryTx) Put(key Key, value interface{}) error {
	if t.readOnly {
		return fmt.Errorf("put %s: read-only transaction", key)
	}
	if _, err := t.lookup(key); err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	t.staged[key] = data
	return nil
}

func (t *memoryTx) CreateOnce(key Key, value interface{}) error {
	existing, err := t.lookup(key)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, key)
	}
	return t.Put(key, value)
}
