package resourcelock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type entry struct {
	token     string
	expiresAt time.Time
}

// MemoryLocker is a process-local Locker. It only coordinates requests that
// reach the same process.
type MemoryLocker struct {
	mu   sync.Mutex
	held map[string]entry
	ttl  time.Duration
	now  func() time.Time
	log  zerolog.Logger
}

// NewMemoryLocker creates a MemoryLocker whose leases last ttl.
func NewMemoryLocker(ttl time.Duration, log zerolog.Logger) *MemoryLocker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryLocker{
		held: make(map[string]entry),
		ttl:  ttl,
		now:  time.Now,
		log:  log,
	}
}

func (m *MemoryLocker) TryAcquire(_ context.Context, key string) (*Lease, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if e, ok := m.held[key]; ok {
		if now.Before(e.expiresAt) {
			return nil, ErrLocked
		}
		m.log.Warn().Str("key", key).Msg("Reclaiming expired lock lease")
	}

	lease := &Lease{Key: key, Token: uuid.NewString(), ExpiresAt: now.Add(m.ttl)}
	m.held[key] = entry{token: lease.Token, expiresAt: lease.ExpiresAt}
	return lease, nil
}

func (m *MemoryLocker) Release(_ context.Context, lease *Lease) error {
	if lease == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.held[lease.Key]; ok && e.token == lease.Token {
		delete(m.held, lease.Key)
	}
	return nil
}

// Len returns the number of keys currently held, expired ones included.
func (m *MemoryLocker) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.held)
}

// Cleanup drops expired leases and returns how many were removed.
func (m *MemoryLocker) Cleanup() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for key, e := range m.held {
		if !now.Before(e.expiresAt) {
			delete(m.held, key)
			removed++
		}
	}
	return removed
}

// StartJanitor runs Cleanup every interval until ctx is done.
func (m *MemoryLocker) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = m.ttl
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := m.Cleanup(); n > 0 {
					m.log.Debug().Int("removed", n).Msg("Expired lock leases swept")
				}
			}
		}
	}()
}
