package app

import (
	"sync/atomic"
	"testing"
)

func TestCallReusesPersistentSnapshotAcrossInvocations(t *testing.T) {
	isolateEnv(t)
	var hits int32
	srv := newSaucerSwapServer(t, &hits)

	for _, args := range []string{`{"page":1,"pageSize":2}`, `{"page":2,"pageSize":2}`, `{"page":3,"pageSize":2}`} {
		code, stdout, stderr := runCLI("", "call", "sauceswap_get_pools", args, "--non-custodial", "--saucerswap-url", srv.URL)
		if code != 0 {
			t.Fatalf("expected exit 0, got %d stdout=%s stderr=%s", code, stdout, stderr)
		}
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Fatalf("expected snapshot reuse across calls, got %d fetches", got)
	}

	code, _, stderr := runCLI("", "call", "sauceswap_get_pools", `{"refresh":true}`, "--non-custodial", "--saucerswap-url", srv.URL)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d stderr=%s", code, stderr)
	}
	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Fatalf("expected refresh to fetch exactly once, got %d fetches", got)
	}
}

func TestCallSessionsArePartitionedByAccount(t *testing.T) {
	isolateEnv(t)
	var hits int32
	srv := newSaucerSwapServer(t, &hits)

	for _, account := range []string{"0.0.1001", "0.0.2002", "0.0.1001"} {
		code, _, stderr := runCLI("", "call", "sauceswap_get_pools", "--non-custodial", "--account-id", account, "--saucerswap-url", srv.URL)
		if code != 0 {
			t.Fatalf("expected exit 0, got %d stderr=%s", code, stderr)
		}
	}
	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Fatalf("expected one fetch per account session, got %d", got)
	}
}

func TestCallNoCacheKeepsSnapshotsInMemory(t *testing.T) {
	isolateEnv(t)
	var hits int32
	srv := newSaucerSwapServer(t, &hits)

	for i := 0; i < 2; i++ {
		code, _, stderr := runCLI("", "call", "sauceswap_get_pools", "--non-custodial", "--no-cache", "--saucerswap-url", srv.URL)
		if code != 0 {
			t.Fatalf("expected exit 0, got %d stderr=%s", code, stderr)
		}
	}
	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Fatalf("expected each uncached invocation to fetch, got %d", got)
	}
}
