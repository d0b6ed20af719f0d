package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yigit/mclass/internal/app/models/dto"
	"github.com/yigit/mclass/internal/pkg/ratelimit"
)

// RateLimit throttles callers per user, falling back to the client IP for
// unauthenticated requests.
func RateLimit(store *ratelimit.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, retryAfter := store.Allow(rateLimitKey(c))
		if allowed {
			c.Next()
			return
		}

		seconds := int(math.Ceil(retryAfter.Seconds()))
		if seconds < 1 {
			seconds = 1
		}
		c.Header("Retry-After", strconv.Itoa(seconds))

		errorDetail := dto.NewErrorDetail(dto.ErrorCodeRateLimited, "Too many requests").
			WithDetails("retry after " + (time.Duration(seconds) * time.Second).String()).
			WithSeverity(dto.ErrorSeverityWarning)
		c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponse(errorDetail))
	}
}

func rateLimitKey(c *gin.Context) string {
	if principal, ok := GetPrincipal(c); ok {
		return "user:" + strconv.FormatInt(principal.UserID, 10)
	}
	return "ip:" + c.ClientIP()
}
