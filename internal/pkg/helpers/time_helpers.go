package helpers

import (
	"time"

	"github.com/rs/zerolog/log"
)

// ParseDuration parses a duration string, returns default duration on error.
func ParseDuration(durationStr string, defaultDuration time.Duration) time.Duration {
	duration, err := time.ParseDuration(durationStr)
	if err != nil {
		log.Warn().Err(err).Str("durationStr", durationStr).Dur("defaultDuration", defaultDuration).Msg("Failed to parse duration string, using default")
		return defaultDuration
	}
	return duration
}

// Clock returns the current time. Services take one so tests can pin "now".
type Clock func() time.Time

// UTCNow is the production clock; timestamps are stored in UTC.
func UTCNow() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
