package redis

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"quizzera/internal/domain"
)

func TestLockerSetsAndClearsKeys(t *testing.T) {
	mr, client := newTestRedis(t)
	locker := NewLocker(client, 5*time.Second, time.Second, nil)

	release, err := locker.Acquire(context.Background(), "quiz:stats:quiz-1")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if !mr.Exists("lock:quiz:stats:quiz-1") {
		t.Fatalf("expected redis key to be set")
	}
	if ttl := mr.TTL("lock:quiz:stats:quiz-1"); ttl != 5*time.Second {
		t.Fatalf("expected lease of 5s, got %v", ttl)
	}

	release()
	if mr.Exists("lock:quiz:stats:quiz-1") {
		t.Fatalf("expected redis key to be removed")
	}
}

func TestLockerTimesOutWhileHeld(t *testing.T) {
	_, client := newTestRedis(t)
	locker := NewLocker(client, 5*time.Second, 60*time.Millisecond, nil)

	release, err := locker.Acquire(context.Background(), "k")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer release()

	_, err = locker.Acquire(context.Background(), "k")
	if !errors.Is(err, domain.ErrLockNotAcquired) {
		t.Fatalf("expected lock not acquired, got %v", err)
	}
}

func TestLockerReleaseKeepsForeignLease(t *testing.T) {
	mr, client := newTestRedis(t)
	locker := NewLocker(client, time.Second, time.Second, nil)

	release, err := locker.Acquire(context.Background(), "k")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	// Lease expires and another holder takes over.
	mr.FastForward(2 * time.Second)
	if err := mr.Set("lock:k", "someone-else"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	release()
	if got, _ := mr.Get("lock:k"); got != "someone-else" {
		t.Fatalf("expected foreign lease untouched, got %q", got)
	}
}

func TestLockerSerializesAcrossClients(t *testing.T) {
	_, client := newTestRedis(t)
	lockers := []*Locker{
		NewLocker(client, 5*time.Second, 5*time.Second, nil),
		NewLocker(client, 5*time.Second, 5*time.Second, nil),
	}

	var (
		wg      sync.WaitGroup
		active  atomic.Int32
		overlap atomic.Bool
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(l *Locker) {
			defer wg.Done()
			release, err := l.Acquire(context.Background(), "attempt:start:u1:quiz-1")
			if err != nil {
				t.Errorf("acquire: %v", err)
				return
			}
			if active.Add(1) > 1 {
				overlap.Store(true)
			}
			time.Sleep(5 * time.Millisecond)
			active.Add(-1)
			release()
		}(lockers[i%2])
	}
	wg.Wait()

	if overlap.Load() {
		t.Fatalf("expected exclusive access")
	}
}
