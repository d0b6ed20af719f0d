// Package resourcelock provides short-lived advisory locks keyed by resource
// id. A holder gets a Lease back and must hand it to Release; a lease that is
// never released expires after its TTL.
package resourcelock

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrLocked is returned by TryAcquire when another holder owns the key.
var ErrLocked = errors.New("resourcelock: key is locked")

// DefaultTTL bounds how long a forgotten lease blocks its key.
const DefaultTTL = 30 * time.Second

// Lease identifies one successful acquisition.
type Lease struct {
	Key       string
	Token     string
	ExpiresAt time.Time
}

// Locker is implemented by every backend.
type Locker interface {
	// TryAcquire never blocks; it fails with ErrLocked if key is held.
	TryAcquire(ctx context.Context, key string) (*Lease, error)
	// Release is idempotent and ignores leases that have expired or been taken over.
	Release(ctx context.Context, lease *Lease) error
}

// ClassKey is the lock key for a class.
func ClassKey(classID int64) string {
	return fmt.Sprintf("class:%d", classID)
}
