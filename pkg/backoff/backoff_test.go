package backoff

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExponentialJitterGrowsWithAttempts(t *testing.T) {
	base := 100 * time.Millisecond
	max := 10 * time.Second

	for attempt := 1; attempt <= 6; attempt++ {
		d := ExponentialJitter(base, max, attempt)
		ideal := time.Duration(float64(base) * float64(int(1)<<(attempt-1)))
		if ideal > max {
			ideal = max
		}
		// jitter stays within +/- 20% of the ideal delay
		assert.GreaterOrEqual(t, d, time.Duration(float64(ideal)*0.8), "attempt %d", attempt)
		assert.LessOrEqual(t, d, time.Duration(float64(ideal)*1.2), "attempt %d", attempt)
	}
}

func TestExponentialJitterCapsAtMax(t *testing.T) {
	d := ExponentialJitter(time.Second, 3*time.Second, 10)
	assert.LessOrEqual(t, d, time.Duration(float64(3*time.Second)*1.2))
}

func TestExponentialJitterNormalizesAttempt(t *testing.T) {
	// attempt <= 0 behaves like the first attempt
	d := ExponentialJitter(time.Second, 5*time.Second, -3)
	assert.GreaterOrEqual(t, d, 800*time.Millisecond)
	assert.LessOrEqual(t, d, 1200*time.Millisecond)
}
