package ratelimit

import (
	"math"
	"strconv"
	"time"
)

// FetchRetryError is returned by Client when a source's base_url isn't
// reachable: either every retry attempt has been spent, or the source
// answered with a non-retryable status and no retry was made.
type FetchRetryError struct {
	URL       string
	Attempts  int
	LastStatus int
	LastError error
}

func (e *FetchRetryError) Error() string {
	msg := "failed to reach source at " + e.URL + " after " + strconv.Itoa(e.Attempts) + " attempts"
	if e.LastStatus != 0 {
		msg += " (HTTP " + strconv.Itoa(e.LastStatus) + ")"
	}
	if e.LastError != nil {
		msg += ": " + e.LastError.Error()
	}
	return msg
}

// IsRetryableStatus checks if an HTTP status code is retryable
// Retryable: 429 and any 5xx (500-599)
func IsRetryableStatus(status int) bool {
	return status == 429 || (status >= 500 && status < 600)
}

// CalculateBackoff calculates exponential backoff delay for a given attempt
// Uses exponential backoff with jitter (0-25%)
func CalculateBackoff(attempt int, config Config) time.Duration {
	// Exponential backoff: initialBackoff * 2^attempt
	exponentialDelay := float64(config.InitialBackoffMs) * math.Pow(2.0, float64(attempt))

	// Cap at maximum backoff
	cappedDelay := math.Min(exponentialDelay, float64(config.MaxBackoffMs))

	// Add jitter (0-25% of delay) to prevent thundering herd
	jitter := jitterFraction() * 0.25 * cappedDelay

	return time.Duration((cappedDelay + jitter) * float64(time.Millisecond))
}

// CalculateRateLimitBackoff calculates backoff for HTTP 429 responses
// Uses longer backoff (3x multiplier instead of 2x) for rate limiting
func CalculateRateLimitBackoff(attempt int, config Config, retryAfterHeader *string) time.Duration {
	// If server provides Retry-After, respect it
	if retryAfterHeader != nil {
		if seconds, err := strconv.Atoi(*retryAfterHeader); err == nil && seconds > 0 {
			// Add small jitter to server-provided delay
			jitter := time.Duration(jitterFraction() * 1000)
			return time.Duration(seconds)*time.Second + jitter
		}
	}

	// For rate limiting, use a more aggressive backoff (3x multiplier instead of 2x)
	exponentialDelay := float64(config.InitialBackoffMs) * math.Pow(3.0, float64(attempt))
	cappedDelay := math.Min(exponentialDelay, float64(config.MaxBackoffMs))
	jitter := jitterFraction() * 0.25 * cappedDelay

	return time.Duration((cappedDelay + jitter) * float64(time.Millisecond))
}

// Sleep blocks for the specified duration in milliseconds
func Sleep(ms int) {
	time.Sleep(time.Duration(ms) * time.Millisecond)
}

// jitterFraction returns a value in [0, 1) used to spread out retries, so
// several reachability probes against the same failing host don't retry
// in lockstep. Source adapters never retry and do not use it.
func jitterFraction() float64 {
	return float64(time.Now().UnixNano()%1000) / 1000.0
}
