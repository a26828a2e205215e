package main

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/akyairhashvil/marathon/internal/config"
	"github.com/akyairhashvil/marathon/internal/lock"
	"github.com/akyairhashvil/marathon/internal/notify"
	"github.com/akyairhashvil/marathon/internal/util"
)

func TestConsoleSenderOffline(t *testing.T) {
	sender, closeSender, err := consoleSender(&config.Config{}, nil)
	if err != nil {
		t.Fatalf("consoleSender: %v", err)
	}
	defer closeSender()
	if err := sender.Send(context.Background(), notify.Message{Handle: "1", Text: "hi"}); err == nil {
		t.Fatalf("expected offline sender to fail")
	}
}

func TestConsoleSenderQueue(t *testing.T) {
	sender, closeSender, err := consoleSender(&config.Config{RedisURL: "redis://localhost:6379/0"}, nil)
	if err != nil {
		t.Fatalf("consoleSender: %v", err)
	}
	defer closeSender()
	if _, ok := sender.(*notify.Queue); !ok {
		t.Fatalf("expected queue sender, got %T", sender)
	}
}

func TestConsoleLockerUsesRedisWhenConfigured(t *testing.T) {
	mr := miniredis.RunT(t)
	locker, closeLocker, err := consoleLocker(context.Background(), &config.Config{RedisURL: "redis://" + mr.Addr()}, util.Discard())
	if err != nil {
		t.Fatalf("consoleLocker: %v", err)
	}
	defer closeLocker()
	if _, ok := locker.(*lock.Redis); !ok {
		t.Fatalf("expected redis locker, got %T", locker)
	}
	unlock, err := locker.Lock(context.Background(), lock.UserKey(1))
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	defer unlock()
	if len(mr.Keys()) != 1 {
		t.Fatalf("expected the lock to live in redis, keys=%v", mr.Keys())
	}
}

func TestConsoleLockerInProcessWithoutRedis(t *testing.T) {
	locker, closeLocker, err := consoleLocker(context.Background(), &config.Config{}, util.Discard())
	if err != nil {
		t.Fatalf("consoleLocker: %v", err)
	}
	defer closeLocker()
	if _, ok := locker.(*lock.Keyed); !ok {
		t.Fatalf("expected in-process locker, got %T", locker)
	}
}
