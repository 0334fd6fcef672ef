// Package retry provides exponential backoff policy for transient
// failures.
//
// The channel client schedules reconnection attempts rather than
// blocking in a retry loop, so this package exposes the backoff
// computation directly: Delay returns the wait before a given attempt,
// and the caller decides when to give up via Config.MaxAttempts.
//
// Delay for attempt n (1-based) is InitialDelay * Multiplier^(n-1),
// capped at MaxDelay, with optional jitter to prevent thundering herd.
package retry

import (
	"math/rand"
	"sync"
	"time"
)

var (
	// Thread-safe random source for jitter
	randMu     sync.Mutex
	randSource = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// Config provides backoff configuration
type Config struct {
	MaxAttempts  int           // Maximum number of attempts (0 = unlimited)
	InitialDelay time.Duration // Delay before the first retry
	MaxDelay     time.Duration // Maximum delay between attempts
	Multiplier   float64       // Backoff multiplier (typically 2.0)
	AddJitter    bool          // Add randomness to prevent thundering herd
}

// DefaultConfig returns sensible defaults for reconnection backoff
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  5,
		InitialDelay: 1 * time.Second,
		MaxDelay:     60 * time.Second,
		Multiplier:   2.0,
		AddJitter:    false,
	}
}

// Exhausted reports whether the given 1-based attempt number exceeds the
// configured attempt budget. MaxAttempts == 0 means never exhausted.
func (c Config) Exhausted(attempt int) bool {
	return c.MaxAttempts > 0 && attempt > c.MaxAttempts
}

// Delay returns the backoff delay before the given 1-based attempt.
// Attempt 1 waits InitialDelay; each subsequent attempt multiplies the
// previous delay by Multiplier, capped at MaxDelay.
func Delay(cfg Config, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	multiplier := cfg.Multiplier
	if multiplier <= 0 {
		multiplier = 2.0
	}

	delay := cfg.InitialDelay
	for i := 1; i < attempt; i++ {
		delay = time.Duration(float64(delay) * multiplier)
		if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
			break
		}
	}

	if cfg.AddJitter && delay > 0 {
		delay += jitter(delay)
	}

	return delay
}

// jitter returns a random duration in [0, delay/4)
func jitter(delay time.Duration) time.Duration {
	randMu.Lock()
	defer randMu.Unlock()
	return time.Duration(randSource.Int63n(int64(delay) / 4))
}
