package lock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/akyairhashvil/marathon/internal/util"
)

func setupRedis(t *testing.T, ttl time.Duration) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	r, err := NewRedis(context.Background(), "redis://"+mr.Addr(), ttl, util.Discard())
	if err != nil {
		t.Fatalf("NewRedis failed: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r, mr
}

func TestRedisSerializesSameKey(t *testing.T) {
	r, mr := setupRedis(t, time.Minute)
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := r.Lock(ctx, SubmissionKey(1))
			if err != nil {
				t.Errorf("Lock failed: %v", err)
				return
			}
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()
			time.Sleep(5 * time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()
	if maxSeen != 1 {
		t.Fatalf("expected at most one holder at a time, saw %d", maxSeen)
	}
	if mr.Exists(redisKeyPrefix + SubmissionKey(1)) {
		t.Fatalf("expected lock key to be released")
	}
}

func TestRedisContextCancel(t *testing.T) {
	r, _ := setupRedis(t, time.Minute)
	unlock, err := r.Lock(context.Background(), UserKey(7))
	if err != nil {
		t.Fatalf("Lock failed: %v", err)
	}
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()
	if _, err := r.Lock(ctx, UserKey(7)); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestRedisStaleUnlockKeepsNewHolder(t *testing.T) {
	r, mr := setupRedis(t, time.Second)
	ctx := context.Background()
	key := redisKeyPrefix + UserKey(3)

	stale, err := r.Lock(ctx, UserKey(3))
	if err != nil {
		t.Fatalf("Lock failed: %v", err)
	}
	// The first holder's lease runs out and someone else takes the key.
	mr.FastForward(2 * time.Second)
	fresh, err := r.Lock(ctx, UserKey(3))
	if err != nil {
		t.Fatalf("Lock after expiry failed: %v", err)
	}
	owner, err := mr.Get(key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	stale()
	if got, err := mr.Get(key); err != nil || got != owner {
		t.Fatalf("expired holder released the new lock: got %q (%v), want %q", got, err, owner)
	}
	fresh()
	if mr.Exists(key) {
		t.Fatalf("expected key to be released by its owner")
	}
}

func TestRedisUnlockIsIdempotent(t *testing.T) {
	r, mr := setupRedis(t, time.Minute)
	ctx := context.Background()

	unlock, err := r.Lock(ctx, HandleKey("42"))
	if err != nil {
		t.Fatalf("Lock failed: %v", err)
	}
	unlock()
	next, err := r.Lock(ctx, HandleKey("42"))
	if err != nil {
		t.Fatalf("relock failed: %v", err)
	}
	unlock()
	if !mr.Exists(redisKeyPrefix + HandleKey("42")) {
		t.Fatalf("second unlock of the first holder freed the current lock")
	}
	next()
}
