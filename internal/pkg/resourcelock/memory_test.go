package resourcelock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestMemoryLockerExclusive(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLocker(time.Minute, zerolog.Nop())

	lease, err := l.TryAcquire(ctx, ClassKey(1))
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if _, err := l.TryAcquire(ctx, ClassKey(1)); !errors.Is(err, ErrLocked) {
		t.Fatalf("second acquire err = %v, want ErrLocked", err)
	}
	if _, err := l.TryAcquire(ctx, ClassKey(2)); err != nil {
		t.Fatalf("other key should be free: %v", err)
	}

	if err := l.Release(ctx, lease); err != nil {
		t.Fatal(err)
	}
	if _, err := l.TryAcquire(ctx, ClassKey(1)); err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
}

func TestMemoryLockerExpiry(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLocker(time.Second, zerolog.Nop())
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	stale, err := l.TryAcquire(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}

	now = now.Add(2 * time.Second)
	fresh, err := l.TryAcquire(ctx, "k")
	if err != nil {
		t.Fatalf("expired lease not reclaimed: %v", err)
	}

	// The stale holder must not free the new holder's lease.
	_ = l.Release(ctx, stale)
	if _, err := l.TryAcquire(ctx, "k"); !errors.Is(err, ErrLocked) {
		t.Fatalf("stale release freed the key, err = %v", err)
	}
	_ = l.Release(ctx, fresh)

	if l.Len() != 0 {
		t.Errorf("Len = %d after release, want 0", l.Len())
	}
}

func TestMemoryLockerCleanup(t *testing.T) {
	l := NewMemoryLocker(time.Second, zerolog.Nop())
	now := time.Now()
	l.now = func() time.Time { return now }

	for _, k := range []string{"a", "b", "c"} {
		if _, err := l.TryAcquire(context.Background(), k); err != nil {
			t.Fatal(err)
		}
	}
	now = now.Add(time.Hour)

	if n := l.Cleanup(); n != 3 {
		t.Errorf("Cleanup removed %d, want 3", n)
	}
}

func TestMemoryLockerConcurrentSingleWinner(t *testing.T) {
	l := NewMemoryLocker(time.Minute, zerolog.Nop())

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.TryAcquire(context.Background(), "hot"); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	if wins.Load() != 1 {
		t.Errorf("%d goroutines acquired the same key, want 1", wins.Load())
	}
}
