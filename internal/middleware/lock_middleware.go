package middleware

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/mclass/internal/pkg/apperrors"
	"github.com/yigit/mclass/internal/pkg/resourcelock"
)

// ClassResolver maps a path id to the class whose lock guards it.
type ClassResolver func(ctx context.Context, id int64) (int64, error)

// LockMiddleware admits one in-flight write per class. A second request for
// the same class is turned away with 429 instead of queueing.
type LockMiddleware struct {
	locker resourcelock.Locker
	logger zerolog.Logger
}

// NewLockMiddleware creates a LockMiddleware; a nil locker disables it.
func NewLockMiddleware(locker resourcelock.Locker, logger zerolog.Logger) *LockMiddleware {
	return &LockMiddleware{locker: locker, logger: logger}
}

// ByClassParam locks the class named by the path parameter.
func (m *LockMiddleware) ByClassParam(param string) gin.HandlerFunc {
	return m.guard(param, nil)
}

// ByResolvedClass locks the class that resolve returns for the path parameter.
func (m *LockMiddleware) ByResolvedClass(param string, resolve ClassResolver) gin.HandlerFunc {
	return m.guard(param, resolve)
}

func (m *LockMiddleware) guard(param string, resolve ClassResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.locker == nil {
			c.Next()
			return
		}

		id, ok := BindID(c, param)
		if !ok {
			return
		}

		classID := id
		if resolve != nil {
			resolved, err := resolve(c.Request.Context(), id)
			if err != nil {
				HandleAPIError(c, err)
				return
			}
			classID = resolved
		}

		lease, err := m.locker.TryAcquire(c.Request.Context(), resourcelock.ClassKey(classID))
		if err != nil {
			if !errors.Is(err, resourcelock.ErrLocked) {
				m.logger.Error().Err(err).Int64("classID", classID).Msg("Failed to acquire class lock")
				HandleAPIError(c, err)
				return
			}
			HandleAPIError(c, apperrors.ErrResourceBusy)
			return
		}

		defer func() {
			// The request context may already be cancelled here
			if err := m.locker.Release(context.WithoutCancel(c.Request.Context()), lease); err != nil {
				m.logger.Warn().Err(err).Str("key", lease.Key).Msg("Failed to release class lock")
			}
		}()

		c.Next()
	}
}
