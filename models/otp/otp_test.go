package otp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func freshOTP() OTP {
	return OTP{
		BookingID:  7,
		Phone:      "+919876543210",
		OTPCode:    "482913",
		Purpose:    OTPPurposeArrival,
		MaxRetries: 3,
		ExpiresAt:  time.Now().Add(5 * time.Minute),
	}
}

func TestIsValid(t *testing.T) {
	o := freshOTP()
	assert.True(t, o.IsValid())

	used := freshOTP()
	used.IsUsed = true
	assert.False(t, used.IsValid())

	expired := freshOTP()
	expired.ExpiresAt = time.Now().Add(-time.Second)
	assert.False(t, expired.IsValid())
	assert.True(t, expired.IsExpired())

	blocked := freshOTP()
	blocked.IsBlocked = true
	assert.False(t, blocked.IsValid())
}

func TestIncrementRetryBlocksAfterMaxRetries(t *testing.T) {
	o := freshOTP()

	o.IncrementRetry()
	o.IncrementRetry()
	assert.Equal(t, 2, o.RetryCount)
	assert.False(t, o.IsBlocked)
	assert.True(t, o.CanRetry())
	assert.NotNil(t, o.LastAttemptAt)

	// Third failure exhausts the budget and starts the block window.
	o.IncrementRetry()
	assert.Equal(t, 3, o.RetryCount)
	assert.True(t, o.IsBlocked)
	assert.True(t, o.IsCurrentlyBlocked())
	assert.False(t, o.CanRetry())

	if assert.NotNil(t, o.BlockedUntil) {
		remaining := time.Until(*o.BlockedUntil)
		assert.Greater(t, remaining, 14*time.Minute)
		assert.LessOrEqual(t, remaining, 15*time.Minute)
	}
}

func TestBlockExpires(t *testing.T) {
	o := freshOTP()
	o.IsBlocked = true
	past := time.Now().Add(-time.Minute)
	o.BlockedUntil = &past

	assert.False(t, o.IsCurrentlyBlocked())
}

func TestBlockWithoutDeadlineIsPermanent(t *testing.T) {
	o := freshOTP()
	o.IsBlocked = true
	o.BlockedUntil = nil

	assert.True(t, o.IsCurrentlyBlocked())
}

func TestReset(t *testing.T) {
	o := freshOTP()
	o.IncrementRetry()
	o.IncrementRetry()
	o.IncrementRetry()
	assert.True(t, o.IsBlocked)

	o.Reset()
	assert.Equal(t, 0, o.RetryCount)
	assert.False(t, o.IsBlocked)
	assert.Nil(t, o.BlockedUntil)
	assert.Nil(t, o.LastAttemptAt)
	assert.True(t, o.CanRetry())
}
