// Package session holds per-session result collections so repeated paginated
// tool calls reuse one upstream fetch. Entries have no TTL and are replaced
// only on explicit refresh.
package session

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ggonzalez94/ledgertools/internal/cache"
)

// DefaultKey is used when no account identity is configured.
const DefaultKey = "default"

// Cache maps a session key to an immutable collection. Get never fetches.
type Cache[T any] interface {
	Get(key string) ([]T, bool, error)
	Set(key string, items []T) error
	Clear(key string) error
}

// Key returns the session key for an account, falling back to DefaultKey.
func Key(accountID string) string {
	if accountID == "" {
		return DefaultKey
	}
	return accountID
}

// Memory is a process-lifetime cache. Distinct keys never share state and
// writes to the same key are last-writer-wins.
type Memory[T any] struct {
	mu      sync.RWMutex
	entries map[string][]T
}

func NewMemory[T any]() *Memory[T] {
	return &Memory[T]{entries: map[string][]T{}}
}

func (m *Memory[T]) Get(key string) ([]T, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	items, ok := m.entries[key]
	return items, ok, nil
}

func (m *Memory[T]) Set(key string, items []T) error {
	stored := make([]T, len(items))
	copy(stored, items)
	m.mu.Lock()
	m.entries[key] = stored
	m.mu.Unlock()
	return nil
}

func (m *Memory[T]) Clear(key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Persistent stores collections in the sqlite snapshot store under
// "<key>/<namespace>" so one-shot invocations share a session.
type Persistent[T any] struct {
	store     *cache.Store
	namespace string
}

func NewPersistent[T any](store *cache.Store, namespace string) *Persistent[T] {
	return &Persistent[T]{store: store, namespace: namespace}
}

func (p *Persistent[T]) Get(key string) ([]T, bool, error) {
	snap, err := p.store.Get(p.storeKey(key))
	if err != nil {
		return nil, false, err
	}
	if !snap.Hit {
		return nil, false, nil
	}
	var items []T
	if err := json.Unmarshal(snap.Value, &items); err != nil {
		return nil, false, fmt.Errorf("decode session snapshot %s: %w", p.storeKey(key), err)
	}
	if items == nil {
		items = []T{}
	}
	return items, true, nil
}

func (p *Persistent[T]) Set(key string, items []T) error {
	if items == nil {
		items = []T{}
	}
	buf, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode session snapshot %s: %w", p.storeKey(key), err)
	}
	return p.store.Set(p.storeKey(key), buf)
}

func (p *Persistent[T]) Clear(key string) error {
	return p.store.Delete(p.storeKey(key))
}

func (p *Persistent[T]) storeKey(key string) string {
	return key + "/" + p.namespace
}
