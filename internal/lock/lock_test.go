package lock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

var (
	_ Locker = (*Keyed)(nil)
	_ Locker = (*Redis)(nil)
)

func TestKeyedSerializesSameKey(t *testing.T) {
	k := NewKeyed()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := k.Lock(ctx, SubmissionKey(1))
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
			time.Sleep(time.Millisecond)
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
	if k.active() != 0 {
		t.Fatalf("expected lock table to drain, %d keys left", k.active())
	}
}

func TestKeyedIndependentKeys(t *testing.T) {
	k := NewKeyed()
	ctx := context.Background()
	unlockA, err := k.Lock(ctx, UserKey(1))
	if err != nil {
		t.Fatalf("Lock failed: %v", err)
	}
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB, err := k.Lock(ctx, UserKey(2))
		if err == nil {
			unlockB()
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("lock on a different key blocked")
	}
}

func TestKeyedContextCancel(t *testing.T) {
	k := NewKeyed()
	unlock, err := k.Lock(context.Background(), UserKey(7))
	if err != nil {
		t.Fatalf("Lock failed: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := k.Lock(ctx, UserKey(7)); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	unlock()
	unlock()
	if k.active() != 0 {
		t.Fatalf("expected lock table to drain, %d keys left", k.active())
	}
}

func TestKeys(t *testing.T) {
	if UserKey(3) != "user:3" || SubmissionKey(9) != "submission:9" || HandleKey("42") != "handle:42" {
		t.Fatalf("unexpected key format")
	}
}

func TestNewRedisBadURL(t *testing.T) {
	if _, err := NewRedis(context.Background(), "not a url", time.Second, nil); err == nil {
		t.Fatalf("expected parse error")
	}
}
