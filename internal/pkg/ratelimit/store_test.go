package ratelimit

import (
	"testing"
	"time"
)

func TestStoreAllowBurstThenBlock(t *testing.T) {
	s := NewStore(1, 2)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if ok, _ := s.Allow("u1"); !ok {
			t.Fatalf("request %d within burst was refused", i+1)
		}
	}

	ok, retry := s.Allow("u1")
	if ok {
		t.Fatal("request past burst was allowed")
	}
	if retry <= 0 || retry > time.Second {
		t.Errorf("retry = %v, want (0, 1s]", retry)
	}

	if ok, _ := s.Allow("u2"); !ok {
		t.Error("keys must not share a bucket")
	}

	now = now.Add(time.Second)
	if ok, _ := s.Allow("u1"); !ok {
		t.Error("token was not refilled after one second")
	}
}

func TestStoreCleanup(t *testing.T) {
	s := NewStore(1, 1, WithIdleTTL(time.Minute))
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.Allow("a")
	now = now.Add(30 * time.Second)
	s.Allow("b")
	now = now.Add(45 * time.Second)

	s.Cleanup()
	if s.Len() != 1 {
		t.Fatalf("Len = %d after cleanup, want 1", s.Len())
	}
}
