package queue

import (
	"math"
	"math/rand"
	"time"
)

// calculateBackoff calculates the retry delay for an attempt: exponential from
// a 5 second base, capped at an hour, with ±20% jitter
func calculateBackoff(retry int) time.Duration {
	base := 5.0
	max := 3600.0

	seconds := math.Min(max, base*math.Pow(2, float64(retry)))

	jitter := seconds * 0.2
	seconds = seconds - jitter + (rand.Float64() * jitter * 2)

	return time.Duration(seconds) * time.Second
}
