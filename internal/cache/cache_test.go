package cache

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"
)

func openTestStore(t *testing.T) (*Store, string, string) {
	t.Helper()
	tmp := t.TempDir()
	dbPath := filepath.Join(tmp, "sessions.db")
	lockPath := filepath.Join(tmp, "sessions.lock")
	store, err := Open(dbPath, lockPath)
	if err != nil {
		t.Fatalf("Open cache failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store, dbPath, lockPath
}

func TestStoreSetGetReplace(t *testing.T) {
	store, _, _ := openTestStore(t)

	res, err := store.Get("0.0.1001/pools")
	if err != nil {
		t.Fatalf("Get miss failed: %v", err)
	}
	if res.Hit {
		t.Fatalf("expected miss, got %+v", res)
	}

	if err := store.Set("0.0.1001/pools", []byte(`[1]`)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Set("0.0.1001/pools", []byte(`[1,2]`)); err != nil {
		t.Fatalf("Set replace failed: %v", err)
	}
	res, err = store.Get("0.0.1001/pools")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !res.Hit || string(res.Value) != `[1,2]` {
		t.Fatalf("expected replaced snapshot, got %+v", res)
	}
	if res.UpdatedAt.IsZero() {
		t.Fatal("expected updated timestamp")
	}
}

func TestStoreDelete(t *testing.T) {
	store, _, _ := openTestStore(t)
	if err := store.Set("default/pools", []byte(`[]`)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Delete("default/pools"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	res, err := store.Get("default/pools")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if res.Hit {
		t.Fatalf("expected miss after delete, got %+v", res)
	}
	if err := store.Delete("missing"); err != nil {
		t.Fatalf("Delete of missing key should be a no-op: %v", err)
	}
}

func TestStoreSharedAcrossHandles(t *testing.T) {
	store, dbPath, lockPath := openTestStore(t)
	if err := store.Set("k", []byte(`"v"`)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	other, err := Open(dbPath, lockPath)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	defer other.Close()
	res, err := other.Get("k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !res.Hit || string(res.Value) != `"v"` {
		t.Fatalf("expected snapshot visible to second handle, got %+v", res)
	}
}

func TestStoreConcurrentOpenAndSet(t *testing.T) {
	tmp := t.TempDir()
	dbPath := filepath.Join(tmp, "sessions.db")
	lockPath := filepath.Join(tmp, "sessions.lock")

	const workers = 16
	const iterations = 40

	var wg sync.WaitGroup
	errCh := make(chan error, workers)
	for worker := 0; worker < workers; worker++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()

			store, err := Open(dbPath, lockPath)
			if err != nil {
				errCh <- fmt.Errorf("worker %d open: %w", workerID, err)
				return
			}
			defer store.Close()

			for i := 0; i < iterations; i++ {
				key := fmt.Sprintf("worker-%d-key-%d", workerID, i)
				if err := store.Set(key, []byte(`{"ok":true}`)); err != nil {
					errCh <- fmt.Errorf("worker %d set iter %d: %w", workerID, i, err)
					return
				}
				res, err := store.Get(key)
				if err != nil {
					errCh <- fmt.Errorf("worker %d get iter %d: %w", workerID, i, err)
					return
				}
				if !res.Hit {
					errCh <- fmt.Errorf("worker %d get iter %d: expected hit", workerID, i)
					return
				}
			}
		}(worker)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Fatal(err)
	}
}
