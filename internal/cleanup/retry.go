package cleanup

import (
	"math/rand"
	"time"
)

// Delays between delete attempts. Attempt 1: 30s, 2: 2m, 3: 10m, 4: 1h, 5: 6h.
var retryDelays = []time.Duration{
	30 * time.Second,
	2 * time.Minute,
	10 * time.Minute,
	1 * time.Hour,
	6 * time.Hour,
}

const (
	// DefaultMaxAttempts is the number of deletes tried before dead-lettering.
	DefaultMaxAttempts = 5

	// JitterFactor is the ±fraction of jitter applied to delays.
	JitterFactor = 0.2
)

// NextRetryDelay returns the backoff for a 0-indexed attempt, with jitter.
func NextRetryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= len(retryDelays) {
		attempt = len(retryDelays) - 1
	}

	base := retryDelays[attempt]
	jitter := (rand.Float64()*2 - 1) * float64(base) * JitterFactor
	return time.Duration(float64(base) + jitter)
}

// IsExhausted reports whether attempt has reached maxAttempts.
func IsExhausted(attempt, maxAttempts int) bool {
	return attempt >= maxAttempts
}
