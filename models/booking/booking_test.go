package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestElapsedMs(t *testing.T) {
	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	stop := start.Add(95 * time.Minute)

	b := Booking{TimerStartedAt: &start, TimerStoppedAt: &stop}
	assert.Equal(t, int64(95*60*1000), b.ElapsedMs())
}

func TestElapsedMsZeroWhenTimerNeverRan(t *testing.T) {
	start := time.Now()

	assert.Equal(t, int64(0), (&Booking{}).ElapsedMs())
	assert.Equal(t, int64(0), (&Booking{TimerStartedAt: &start}).ElapsedMs())
}

func TestLiveElapsedMs(t *testing.T) {
	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	now := start.Add(30 * time.Minute)

	running := Booking{TimerStartedAt: &start}
	assert.Equal(t, int64(30*60*1000), running.LiveElapsedMs(now))

	// A stopped timer ignores the clock.
	stop := start.Add(10 * time.Minute)
	stopped := Booking{TimerStartedAt: &start, TimerStoppedAt: &stop}
	assert.Equal(t, int64(10*60*1000), stopped.LiveElapsedMs(now))

	assert.Equal(t, int64(0), (&Booking{}).LiveElapsedMs(now))
}
