package billing

import (
	"testing"
	"time"

	bookingModel "agrirent-booking/models/booking"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 { return &v }

func TestComputeTime(t *testing.T) {
	tests := []struct {
		name     string
		rate     int64
		elapsed  time.Duration
		expected int64
	}{
		{
			name:     "one second rounds up to one minute and hits the floor",
			rate:     600, // rs 10 per minute
			elapsed:  time.Second,
			expected: 10,
		},
		{
			name:     "61 seconds bills two minutes",
			rate:     600,
			elapsed:  61 * time.Second,
			expected: 20,
		},
		{
			name:     "exactly one minute bills one minute",
			rate:     600,
			elapsed:  time.Minute,
			expected: 10,
		},
		{
			name:     "low rate job is floored at ten rupees",
			rate:     60, // rs 1 per minute
			elapsed:  3 * time.Minute,
			expected: 10,
		},
		{
			name:     "per-minute fraction is rounded up",
			rate:     100, // rs 100/hr
			elapsed:  7 * time.Minute,
			expected: 12, // 7*100/60 = 11.66 -> 12
		},
		{
			name:     "full hour",
			rate:     600,
			elapsed:  time.Hour,
			expected: 600,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount, err := Compute(bookingModel.BillingSchemeTime, decimal.NewFromInt(tt.rate), Context{
				ElapsedMs: tt.elapsed.Milliseconds(),
			})
			require.NoError(t, err)
			assert.True(t, decimal.NewFromInt(tt.expected).Equal(amount),
				"expected %d, got %s", tt.expected, amount)
		})
	}
}

func TestComputeArea(t *testing.T) {
	tests := []struct {
		name     string
		rate     int64
		area     *float64
		expected int64
	}{
		{
			name:     "five bigha at 500",
			rate:     500,
			area:     f64(5),
			expected: 2500,
		},
		{
			name:     "area defaults to one when unset",
			rate:     500,
			area:     nil,
			expected: 500,
		},
		{
			name:     "zero area treated as one",
			rate:     300,
			area:     f64(0),
			expected: 300,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount, err := Compute(bookingModel.BillingSchemeArea, decimal.NewFromInt(tt.rate), Context{
				AreaBigha: tt.area,
			})
			require.NoError(t, err)
			assert.True(t, decimal.NewFromInt(tt.expected).Equal(amount),
				"expected %d, got %s", tt.expected, amount)
		})
	}
}

func TestComputeAreaIgnoresElapsedTime(t *testing.T) {
	// Area billing does not depend on the timer: a job completed immediately
	// and a job run for hours bill the same.
	ctxShort := Context{ElapsedMs: 0, AreaBigha: f64(5)}
	ctxLong := Context{ElapsedMs: (8 * time.Hour).Milliseconds(), AreaBigha: f64(5)}

	rate := decimal.NewFromInt(500)
	short, err := Compute(bookingModel.BillingSchemeArea, rate, ctxShort)
	require.NoError(t, err)
	long, err := Compute(bookingModel.BillingSchemeArea, rate, ctxLong)
	require.NoError(t, err)

	assert.True(t, short.Equal(long))
	assert.True(t, decimal.NewFromInt(2500).Equal(short))
}

func TestComputeDaily(t *testing.T) {
	tests := []struct {
		name     string
		rate     int64
		elapsed  time.Duration
		expected int64
	}{
		{
			name:     "25 hours bills two days",
			rate:     1000,
			elapsed:  25 * time.Hour,
			expected: 2000,
		},
		{
			name:     "partial day bills one full day",
			rate:     1000,
			elapsed:  3 * time.Hour,
			expected: 1000,
		},
		{
			name:     "zero elapsed still bills minimum one day",
			rate:     1000,
			elapsed:  0,
			expected: 1000,
		},
		{
			name:     "exactly 24 hours bills one day",
			rate:     1000,
			elapsed:  24 * time.Hour,
			expected: 1000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount, err := Compute(bookingModel.BillingSchemeDaily, decimal.NewFromInt(tt.rate), Context{
				ElapsedMs: tt.elapsed.Milliseconds(),
			})
			require.NoError(t, err)
			assert.True(t, decimal.NewFromInt(tt.expected).Equal(amount),
				"expected %d, got %s", tt.expected, amount)
		})
	}
}

func TestComputeIsDeterministic(t *testing.T) {
	// The live display calls this every second with the same frozen inputs the
	// final bill uses; both must always agree.
	ctx := Context{ElapsedMs: (95 * time.Minute).Milliseconds()}
	rate := decimal.NewFromInt(450)

	first, err := Compute(bookingModel.BillingSchemeTime, rate, ctx)
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		again, err := Compute(bookingModel.BillingSchemeTime, rate, ctx)
		require.NoError(t, err)
		assert.True(t, first.Equal(again))
	}
}

func TestComputeUnknownScheme(t *testing.T) {
	_, err := Compute(bookingModel.BillingScheme("weekly"), decimal.NewFromInt(100), Context{})
	assert.Error(t, err)
}

func TestElapsedMinutes(t *testing.T) {
	assert.Equal(t, int64(0), ElapsedMinutes(0))
	assert.Equal(t, int64(0), ElapsedMinutes(-500))
	assert.Equal(t, int64(1), ElapsedMinutes(1))
	assert.Equal(t, int64(1), ElapsedMinutes(60000))
	assert.Equal(t, int64(2), ElapsedMinutes(60001))
}
