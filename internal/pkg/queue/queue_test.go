package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestEnqueueRunsInOrder(t *testing.T) {
	q := New(zerolog.Nop())

	var mu sync.Mutex
	var got []int
	for i := 0; i < 100; i++ {
		i := i
		if err := q.Enqueue(func(context.Context) error {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
			return nil
		}); err != nil {
			t.Fatal(err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := q.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	if len(got) != 100 {
		t.Fatalf("ran %d tasks, want 100", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("task %d ran at position %d", v, i)
		}
	}
}

func TestOneTaskAtATime(t *testing.T) {
	q := New(zerolog.Nop())

	var active, maxActive atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = q.Do(context.Background(), func(context.Context) error {
				n := active.Add(1)
				for {
					m := maxActive.Load()
					if n <= m || maxActive.CompareAndSwap(m, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				active.Add(-1)
				return nil
			})
		}()
	}
	wg.Wait()

	if maxActive.Load() != 1 {
		t.Errorf("max concurrent tasks = %d, want 1", maxActive.Load())
	}
}

func TestFailuresDoNotStopWorker(t *testing.T) {
	q := New(zerolog.Nop())
	boom := errors.New("boom")

	if err := q.Do(context.Background(), func(context.Context) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("Do err = %v, want boom", err)
	}

	err := q.Do(context.Background(), func(context.Context) error { panic("kaboom") })
	if err == nil {
		t.Fatal("panicking task reported success")
	}

	ran := false
	if err := q.Do(context.Background(), func(context.Context) error { ran = true; return nil }); err != nil {
		t.Fatal(err)
	}
	if !ran {
		t.Fatal("task after failures did not run")
	}
}

func TestWorkerRestartsAfterIdle(t *testing.T) {
	q := New(zerolog.Nop())

	for round := 0; round < 3; round++ {
		done := make(chan struct{})
		if err := q.Enqueue(func(context.Context) error { close(done); return nil }); err != nil {
			t.Fatal(err)
		}
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatalf("round %d: task never ran", round)
		}
		// Give the worker a chance to go idle before the next round.
		time.Sleep(5 * time.Millisecond)
	}
}

func TestShutdownRejectsNewTasks(t *testing.T) {
	q := New(zerolog.Nop())
	if err := q.Shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := q.Enqueue(func(context.Context) error { return nil }); !errors.Is(err, ErrClosed) {
		t.Fatalf("Enqueue after shutdown err = %v, want ErrClosed", err)
	}
}

func TestShutdownTimeoutCancelsRunningTask(t *testing.T) {
	q := New(zerolog.Nop())
	started := make(chan struct{})
	cancelled := make(chan struct{})

	_ = q.Enqueue(func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		close(cancelled)
		return ctx.Err()
	})
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := q.Shutdown(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Shutdown err = %v, want deadline exceeded", err)
	}

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("running task context was not cancelled")
	}
}

func TestAwaitPrefersFinishedResult(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	committed := errors.New("committed")

	// Both channels are ready; the finished task must win every time.
	for i := 0; i < 200; i++ {
		result := make(chan error, 1)
		result <- committed
		if err := await(ctx, result); !errors.Is(err, committed) {
			t.Fatalf("iteration %d: err = %v, want task result", i, err)
		}
	}

	result := make(chan error, 1)
	result <- nil
	if err := await(ctx, result); err != nil {
		t.Fatalf("successful task reported %v", err)
	}
}

func TestAwaitReturnsContextErrorWhilePending(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := await(ctx, make(chan error, 1)); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
