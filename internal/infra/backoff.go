package infra

import "time"

// Backoff returns how long to wait after the given failed attempt
// (1-based) before the next one. delay is the request's RetryDelay.
type Backoff func(attempt int, delay time.Duration) time.Duration

// FixedDelay waits the request's RetryDelay between every attempt.
func FixedDelay(_ int, delay time.Duration) time.Duration {
	return delay
}

// ExponentialBackoff doubles the request's RetryDelay after every failed
// attempt, capped at max. A non-positive max means no cap.
func ExponentialBackoff(max time.Duration) Backoff {
	return func(attempt int, delay time.Duration) time.Duration {
		if attempt < 1 {
			attempt = 1
		}
		d := delay
		for i := 1; i < attempt; i++ {
			d *= 2
			if max > 0 && d >= max {
				return max
			}
		}
		if max > 0 && d > max {
			return max
		}
		return d
	}
}
