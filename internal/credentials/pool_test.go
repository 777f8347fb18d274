package credentials_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"voicereel/internal/credentials"
)

type fakeChecker struct {
	quotas map[string]int
	errs   map[string]error
	calls  []string
}

func (f *fakeChecker) Remaining(_ context.Context, key string) (int, error) {
	f.calls = append(f.calls, key)
	if err := f.errs[key]; err != nil {
		return 0, err
	}
	return f.quotas[key], nil
}

func refreshedPool(t *testing.T, quotas map[string]int, errs map[string]error, keys ...string) *credentials.Pool {
	t.Helper()
	pool := credentials.NewPool(keys)
	checker := &fakeChecker{quotas: quotas, errs: errs}
	pool.Refresh(context.Background(), checker)
	return pool
}

func TestNewPoolSkipsBlankKeysAndStartsUnknown(t *testing.T) {
	pool := credentials.NewPool([]string{"key-one-abc", "  ", "key-two-def"})
	if pool.Len() != 2 {
		t.Fatalf("expected 2 credentials, got %d", pool.Len())
	}
	for _, c := range pool.Snapshot() {
		if c.Known {
			t.Fatalf("expected unknown quota before refresh: %+v", c)
		}
	}
	if _, ok := pool.Select(1, nil); ok {
		t.Fatal("unknown credentials must not be selectable")
	}
}

func TestRefreshRecordsUnknownOnFailure(t *testing.T) {
	checker := &fakeChecker{
		quotas: map[string]int{"good": 500, "negative": -20},
		errs:   map[string]error{"bad": errors.New("401")},
	}
	pool := credentials.NewPool([]string{"good", "bad", "negative"})
	results := pool.Refresh(context.Background(), checker)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Err != nil || !results[0].Credential.Known || results[0].Credential.Remaining != 500 {
		t.Fatalf("unexpected first result: %+v", results[0])
	}
	if results[1].Err == nil || results[1].Credential.Known {
		t.Fatalf("expected unknown quota for failed check: %+v", results[1])
	}
	if results[2].Credential.Remaining != 0 {
		t.Fatalf("negative quota should clamp to zero: %+v", results[2])
	}
	if len(checker.calls) != 3 {
		t.Fatalf("expected every key checked once, got %v", checker.calls)
	}
}

func TestSelectUsesStableOrderAndSufficiency(t *testing.T) {
	pool := refreshedPool(t, map[string]int{"a": 100, "b": 5000, "c": 9000}, nil, "a", "b", "c")

	cred, ok := pool.Select(4000, nil)
	if !ok || cred.Key != "b" {
		t.Fatalf("expected b, got %+v ok=%v", cred, ok)
	}
	cred, ok = pool.Select(100, nil)
	if !ok || cred.Key != "a" {
		t.Fatalf("exact quota should qualify, got %+v ok=%v", cred, ok)
	}
	cred, ok = pool.Select(4000, map[int]bool{1: true})
	if !ok || cred.Key != "c" {
		t.Fatalf("expected exclusion to skip b, got %+v ok=%v", cred, ok)
	}
	if _, ok := pool.Select(9001, nil); ok {
		t.Fatal("expected no credential to cover 9001 characters")
	}
}

func TestConsumeAndExhaustion(t *testing.T) {
	// Two keys with 6000 and 9000 left; chunks of 5000, 5000 and 4000.
	pool := refreshedPool(t, map[string]int{"k1": 6000, "k2": 9000}, nil, "k1", "k2")

	var used []string
	for _, size := range []int{5000, 5000, 4000} {
		cred, ok := pool.Select(size, nil)
		if !ok {
			t.Fatalf("expected a credential for %d characters", size)
		}
		if err := pool.Consume(cred.ID, size); err != nil {
			t.Fatalf("Consume failed: %v", err)
		}
		used = append(used, cred.Key)
	}
	if got := used[0] + "," + used[1] + "," + used[2]; got != "k1,k2,k2" {
		t.Fatalf("unexpected credential order: %s", got)
	}
	snap := pool.Snapshot()
	if snap[0].Remaining != 1000 || snap[1].Remaining != 0 {
		t.Fatalf("unexpected remaining quota: %+v", snap)
	}
	if _, ok := pool.Select(1001, nil); ok {
		t.Fatal("expected exhaustion")
	}
}

func TestConsumeRejectsOverdraw(t *testing.T) {
	pool := refreshedPool(t, map[string]int{"k": 10}, nil, "k")
	if err := pool.Consume(0, 11); err == nil {
		t.Fatal("expected overdraw error")
	}
	if err := pool.Consume(5, 1); err == nil {
		t.Fatal("expected unknown id error")
	}
}

func TestBlockExcludesForRestOfRun(t *testing.T) {
	pool := refreshedPool(t, map[string]int{"a": 1000, "b": 1000}, nil, "a", "b")
	pool.Block(0)
	cred, ok := pool.Select(10, nil)
	if !ok || cred.Key != "b" {
		t.Fatalf("expected blocked credential to be skipped, got %+v", cred)
	}
	if total := pool.TotalRemaining(); total != 1000 {
		t.Fatalf("blocked quota should not count, got %d", total)
	}
}

func TestReserveIsAtomicUnderConcurrency(t *testing.T) {
	pool := refreshedPool(t, map[string]int{"a": 1000}, nil, "a")

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted int
	)
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := pool.Reserve(100, nil); ok {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if granted != 10 {
		t.Fatalf("expected exactly 10 reservations, got %d", granted)
	}
	pool.Release(0, 100)
	if cred, _ := pool.Get(0); cred.Remaining != 100 {
		t.Fatalf("expected released quota, got %d", cred.Remaining)
	}
}

func TestMaskAndLabel(t *testing.T) {
	if got := credentials.Mask("sk_1234567890"); got != "sk_123…" {
		t.Fatalf("Mask = %q", got)
	}
	if got := credentials.Mask("abc"); got != "***" {
		t.Fatalf("short keys should be fully masked, got %q", got)
	}
	if got := credentials.Label(1, "sk_1234567890"); got != "#2 (sk_123…)" {
		t.Fatalf("Label = %q", got)
	}
	for _, c := range credentials.NewPool([]string{"sk_secretvalue"}).Snapshot() {
		if c.Label == c.Key {
			t.Fatal("label must not expose the key")
		}
	}
}
