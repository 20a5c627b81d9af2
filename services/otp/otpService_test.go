package otp

import (
	"testing"
	"time"

	"agrirent-booking/apperrors"
	otpModel "agrirent-booking/models/otp"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&otpModel.OTP{}, &otpModel.OTPEvent{}))

	// SMS_GATEWAY_URL is unset, so delivery fails and is logged; issuance
	// must still succeed.
	return NewOTPService(db)
}

func kindOf(t *testing.T, err error) apperrors.Kind {
	t.Helper()
	appErr, ok := apperrors.AsError(err)
	require.True(t, ok, "expected a typed domain error, got %v", err)
	return appErr.Kind
}

func TestVerifyConsumesCodeExactlyOnce(t *testing.T) {
	s := newTestService(t)

	issued, err := s.Issue(nil, 1, otpModel.OTPPurposeArrival, "+919876543210")
	require.NoError(t, err)

	consumed, err := s.Verify(nil, 1, otpModel.OTPPurposeArrival, issued.OTPCode)
	require.NoError(t, err)
	assert.True(t, consumed.IsUsed)

	// Replaying the consumed code must fail as absent, not as a mismatch.
	_, err = s.Verify(nil, 1, otpModel.OTPPurposeArrival, issued.OTPCode)
	assert.Equal(t, apperrors.KindOTPNotFound, kindOf(t, err))
}

func TestVerifyWrongCodePersistsRetryCount(t *testing.T) {
	s := newTestService(t)

	issued, err := s.Issue(nil, 2, otpModel.OTPPurposeCompletion, "+919876543210")
	require.NoError(t, err)

	wrong := "000000"
	if issued.OTPCode == wrong {
		wrong = "000001"
	}

	_, err = s.Verify(nil, 2, otpModel.OTPPurposeCompletion, wrong)
	assert.Equal(t, apperrors.KindOTPMismatch, kindOf(t, err))

	var stored otpModel.OTP
	require.NoError(t, s.DB.Where("booking_id = ? AND purpose = ?", 2, otpModel.OTPPurposeCompletion).
		Order("created_at DESC").First(&stored).Error)
	assert.Equal(t, 1, stored.RetryCount)
	assert.False(t, stored.IsUsed)
}

func TestVerifyBlocksAfterMaxFailures(t *testing.T) {
	s := newTestService(t)

	issued, err := s.Issue(nil, 3, otpModel.OTPPurposeArrival, "+919876543210")
	require.NoError(t, err)

	wrong := "000000"
	if issued.OTPCode == wrong {
		wrong = "000001"
	}

	_, err = s.Verify(nil, 3, otpModel.OTPPurposeArrival, wrong)
	assert.Equal(t, apperrors.KindOTPMismatch, kindOf(t, err))
	_, err = s.Verify(nil, 3, otpModel.OTPPurposeArrival, wrong)
	assert.Equal(t, apperrors.KindOTPMismatch, kindOf(t, err))
	_, err = s.Verify(nil, 3, otpModel.OTPPurposeArrival, wrong)
	assert.Equal(t, apperrors.KindOTPBlocked, kindOf(t, err))

	// Even the correct code is rejected while the block window is open.
	_, err = s.Verify(nil, 3, otpModel.OTPPurposeArrival, issued.OTPCode)
	assert.Equal(t, apperrors.KindOTPBlocked, kindOf(t, err))
}

func TestVerifyExpiredCode(t *testing.T) {
	s := newTestService(t)

	issued, err := s.Issue(nil, 4, otpModel.OTPPurposeArrival, "+919876543210")
	require.NoError(t, err)

	require.NoError(t, s.DB.Model(&otpModel.OTP{}).Where("id = ?", issued.ID).
		Update("expires_at", time.Now().Add(-time.Minute)).Error)

	_, err = s.Verify(nil, 4, otpModel.OTPPurposeArrival, issued.OTPCode)
	assert.Equal(t, apperrors.KindOTPExpired, kindOf(t, err))
}

func TestIssueShortCircuitsWhileCodeIsActive(t *testing.T) {
	s := newTestService(t)

	_, err := s.Issue(nil, 5, otpModel.OTPPurposeArrival, "+919876543210")
	require.NoError(t, err)

	_, err = s.Issue(nil, 5, otpModel.OTPPurposeArrival, "+919876543210")
	assert.Equal(t, apperrors.KindConflict, kindOf(t, err))
}

func TestInvalidateRemovesActiveCode(t *testing.T) {
	s := newTestService(t)

	issued, err := s.Issue(nil, 6, otpModel.OTPPurposeArrival, "+919876543210")
	require.NoError(t, err)

	require.NoError(t, s.Invalidate(nil, 6, otpModel.OTPPurposeArrival))

	_, err = s.Verify(nil, 6, otpModel.OTPPurposeArrival, issued.OTPCode)
	assert.Equal(t, apperrors.KindOTPNotFound, kindOf(t, err))
}
