package session

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ggonzalez94/ledgertools/internal/cache"
)

type record struct {
	ID     int    `json:"id"`
	Symbol string `json:"symbol"`
}

func TestKeyFallsBackToDefault(t *testing.T) {
	assert.Equal(t, "default", Key(""))
	assert.Equal(t, "0.0.1001", Key("0.0.1001"))
}

func TestMemoryGetSetClear(t *testing.T) {
	c := NewMemory[record]()

	_, ok, err := c.Get("0.0.1")
	require.NoError(t, err)
	assert.False(t, ok)

	items := []record{{ID: 1, Symbol: "HBAR"}, {ID: 2, Symbol: "SAUCE"}}
	require.NoError(t, c.Set("0.0.1", items))
	items[0].Symbol = "MUTATED"

	got, ok, err := c.Get("0.0.1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "HBAR", got[0].Symbol, "stored collection must not alias the caller's slice")

	require.NoError(t, c.Set("0.0.1", []record{{ID: 3}}))
	got, _, _ = c.Get("0.0.1")
	assert.Len(t, got, 1)

	require.NoError(t, c.Clear("0.0.1"))
	_, ok, _ = c.Get("0.0.1")
	assert.False(t, ok)
}

func TestMemoryEmptyCollectionIsAHit(t *testing.T) {
	c := NewMemory[record]()
	require.NoError(t, c.Set("k", nil))
	got, ok, err := c.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, got)
}

func TestMemoryConcurrentDistinctKeys(t *testing.T) {
	c := NewMemory[record]()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("0.0.%d", n)
			_ = c.Set(key, []record{{ID: n}})
			got, ok, _ := c.Get(key)
			if !ok || got[0].ID != n {
				t.Errorf("key %s: unexpected entry %+v", key, got)
			}
		}(i)
	}
	wg.Wait()
}

func TestPersistentRoundTripAcrossHandles(t *testing.T) {
	tmp := t.TempDir()
	dbPath := filepath.Join(tmp, "sessions.db")
	lockPath := filepath.Join(tmp, "sessions.lock")

	store, err := cache.Open(dbPath, lockPath)
	require.NoError(t, err)
	defer store.Close()

	first := NewPersistent[record](store, "pools")
	require.NoError(t, first.Set("default", []record{{ID: 7, Symbol: "USDC"}}))

	other, err := cache.Open(dbPath, lockPath)
	require.NoError(t, err)
	defer other.Close()

	second := NewPersistent[record](other, "pools")
	got, ok, err := second.Get("default")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []record{{ID: 7, Symbol: "USDC"}}, got)

	rates := NewPersistent[record](other, "rates")
	_, ok, err = rates.Get("default")
	require.NoError(t, err)
	assert.False(t, ok, "namespaces must not collide")

	require.NoError(t, second.Clear("default"))
	_, ok, err = first.Get("default")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPersistentEmptyCollection(t *testing.T) {
	tmp := t.TempDir()
	store, err := cache.Open(filepath.Join(tmp, "s.db"), filepath.Join(tmp, "s.lock"))
	require.NoError(t, err)
	defer store.Close()

	c := NewPersistent[record](store, "pools")
	require.NoError(t, c.Set("k", nil))
	got, ok, err := c.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
