package retry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDelay_ExponentialSequence(t *testing.T) {
	cfg := Config{
		MaxAttempts:  5,
		InitialDelay: 1 * time.Second,
		MaxDelay:     60 * time.Second,
		Multiplier:   2.0,
		AddJitter:    false, // Disable for predictable tests
	}

	assert.Equal(t, 1*time.Second, Delay(cfg, 1))
	assert.Equal(t, 2*time.Second, Delay(cfg, 2))
	assert.Equal(t, 4*time.Second, Delay(cfg, 3))
	assert.Equal(t, 8*time.Second, Delay(cfg, 4))
	assert.Equal(t, 16*time.Second, Delay(cfg, 5))
}

func TestDelay_CappedAtMax(t *testing.T) {
	cfg := Config{
		InitialDelay: 1 * time.Second,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
	}

	assert.Equal(t, 5*time.Second, Delay(cfg, 4))
	assert.Equal(t, 5*time.Second, Delay(cfg, 10))
}

func TestDelay_AttemptBelowOne(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, Delay(cfg, 1), Delay(cfg, 0))
}

func TestDelay_JitterBounded(t *testing.T) {
	cfg := Config{
		InitialDelay: 1 * time.Second,
		MaxDelay:     60 * time.Second,
		Multiplier:   2.0,
		AddJitter:    true,
	}

	for i := 0; i < 100; i++ {
		d := Delay(cfg, 2)
		assert.GreaterOrEqual(t, d, 2*time.Second)
		assert.Less(t, d, 2*time.Second+500*time.Millisecond)
	}
}

func TestExhausted(t *testing.T) {
	cfg := Config{MaxAttempts: 3}
	assert.False(t, cfg.Exhausted(1))
	assert.False(t, cfg.Exhausted(3))
	assert.True(t, cfg.Exhausted(4))

	// Zero means unlimited
	unlimited := Config{MaxAttempts: 0}
	assert.False(t, unlimited.Exhausted(1000))
}
