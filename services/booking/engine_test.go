package booking

import (
	"testing"
	"time"

	"agrirent-booking/apperrors"
	bookingModel "agrirent-booking/models/booking"
	machineModel "agrirent-booking/models/machine"
	otpModel "agrirent-booking/models/otp"
	userModel "agrirent-booking/models/user"
	"agrirent-booking/realtime"
	otpService "agrirent-booking/services/otp"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&userModel.User{},
		&machineModel.Machine{},
		&bookingModel.Booking{},
		&bookingModel.BookingEvent{},
		&otpModel.OTP{},
		&otpModel.OTPEvent{},
	))

	return NewEngine(db, otpService.NewOTPService(db), realtime.NopNotifier{})
}

func seedUser(t *testing.T, db *gorm.DB, name, role string) *userModel.User {
	t.Helper()

	u := userModel.User{
		Uuid:        uuid.NewString(),
		Name:        name,
		Phone:       "+9198765" + uuid.NewString()[:5],
		Role:        role,
		Permissions: userModel.StringSlice{"agrirent." + role + ".full-permit"},
	}
	require.NoError(t, db.Create(&u).Error)
	return &u
}

func seedBooking(t *testing.T, db *gorm.DB, farmer, owner *userModel.User, status bookingModel.BookingStatus) *bookingModel.Booking {
	t.Helper()

	m := machineModel.Machine{
		Uuid:          uuid.NewString(),
		OwnerID:       owner.ID,
		Name:          "Tractor",
		Category:      "tractor",
		BillingScheme: "time",
		Rate:          decimal.NewFromInt(500),
		Unit:          "hour",
		IsActive:      true,
	}
	require.NoError(t, db.Create(&m).Error)

	b := bookingModel.Booking{
		Uuid:             uuid.NewString(),
		MachineID:        m.ID,
		FarmerID:         farmer.ID,
		OwnerID:          owner.ID,
		Status:           status,
		RequestedStartAt: time.Now(),
		BillingScheme:    bookingModel.BillingSchemeTime,
		Rate:             m.Rate,
		Unit:             m.Unit,
		CreatedBy:        farmer.Uuid,
	}
	require.NoError(t, db.Create(&b).Error)
	return &b
}

func unusedOTPCount(t *testing.T, db *gorm.DB, bookingID uint, purpose otpModel.OTPPurpose) int64 {
	t.Helper()

	var n int64
	require.NoError(t, db.Model(&otpModel.OTP{}).
		Where("booking_id = ? AND purpose = ? AND is_used = false", bookingID, purpose).
		Count(&n).Error)
	return n
}

func TestCancelInvalidatesPendingArrivalCode(t *testing.T) {
	e := newTestEngine(t)
	farmer := seedUser(t, e.DB, "Farmer", "farmer")
	owner := seedUser(t, e.DB, "Owner", "owner")
	b := seedBooking(t, e.DB, farmer, owner, bookingModel.BookingStatusOwnerConfirmed)

	issued, err := e.OTP.Issue(nil, b.ID, otpModel.OTPPurposeArrival, farmer.Phone)
	require.NoError(t, err)

	cancelled, err := e.Cancel(farmer, b.Uuid, "machine no longer needed")
	require.NoError(t, err)
	assert.Equal(t, bookingModel.BookingStatusCancelled, cancelled.Status)
	assert.Nil(t, cancelled.ArrivalOTPEncrypted)

	// The otps row must be retired together with the row snapshot, so the
	// dead code can never be verified later.
	assert.Zero(t, unusedOTPCount(t, e.DB, b.ID, otpModel.OTPPurposeArrival))

	_, err = e.OTP.Verify(nil, b.ID, otpModel.OTPPurposeArrival, issued.OTPCode)
	appErr, ok := apperrors.AsError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.KindOTPNotFound, appErr.Kind)
}

func TestRejectInvalidatesPendingArrivalCode(t *testing.T) {
	e := newTestEngine(t)
	farmer := seedUser(t, e.DB, "Farmer", "farmer")
	owner := seedUser(t, e.DB, "Owner", "owner")
	b := seedBooking(t, e.DB, farmer, owner, bookingModel.BookingStatusRequested)

	_, err := e.OTP.Issue(nil, b.ID, otpModel.OTPPurposeArrival, farmer.Phone)
	require.NoError(t, err)

	rejected, err := e.Confirm(owner, b.Uuid, false, 0, "machine is in the shop")
	require.NoError(t, err)
	assert.Equal(t, bookingModel.BookingStatusCancelled, rejected.Status)

	assert.Zero(t, unusedOTPCount(t, e.DB, b.ID, otpModel.OTPPurposeArrival))
}

func TestTransitionVersionFenceHasOneWinner(t *testing.T) {
	e := newTestEngine(t)
	farmer := seedUser(t, e.DB, "Farmer", "farmer")
	owner := seedUser(t, e.DB, "Owner", "owner")
	seeded := seedBooking(t, e.DB, farmer, owner, bookingModel.BookingStatusRequested)

	var first, stale bookingModel.Booking
	require.NoError(t, e.DB.First(&first, seeded.ID).Error)
	require.NoError(t, e.DB.First(&stale, seeded.ID).Error)

	err := e.transition(&first, farmer, bookingModel.BookingStatusCancelled, "cancel", "cancelled",
		func(tx *gorm.DB, updates map[string]interface{}) error {
			updates["cancellation_reason"] = "changed plans"
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, seeded.Version+1, first.Version)

	// The second caller loaded the same version and must lose the race.
	err = e.transition(&stale, owner, bookingModel.BookingStatusCancelled, "cancel", "cancelled", nil)
	appErr, ok := apperrors.AsError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.KindInvalidTransition, appErr.Kind)

	var current bookingModel.Booking
	require.NoError(t, e.DB.First(&current, seeded.ID).Error)
	assert.Equal(t, bookingModel.BookingStatusCancelled, current.Status)
	assert.Equal(t, seeded.Version+1, current.Version)
	require.NotNil(t, current.CancellationReason)
	assert.Equal(t, "changed plans", *current.CancellationReason)
}

func TestSweeperCancelsPastDeadline(t *testing.T) {
	e := newTestEngine(t)
	farmer := seedUser(t, e.DB, "Farmer", "farmer")
	owner := seedUser(t, e.DB, "Owner", "owner")
	b := seedBooking(t, e.DB, farmer, owner, bookingModel.BookingStatusOwnerConfirmed)

	deadline := time.Now().Add(-time.Minute)
	require.NoError(t, e.DB.Model(&bookingModel.Booking{}).
		Where("id = ?", b.ID).
		Update("arrival_deadline_at", deadline).Error)

	_, err := e.OTP.Issue(nil, b.ID, otpModel.OTPPurposeArrival, farmer.Phone)
	require.NoError(t, err)

	require.NoError(t, e.sweepExpiredArrivals())

	var swept bookingModel.Booking
	require.NoError(t, e.DB.First(&swept, b.ID).Error)
	assert.Equal(t, bookingModel.BookingStatusCancelled, swept.Status)
	assert.Equal(t, sweeperActor, swept.UpdatedBy)
	require.NotNil(t, swept.CancellationReason)
	assert.Equal(t, expiredArrivalReason, *swept.CancellationReason)

	assert.Zero(t, unusedOTPCount(t, e.DB, b.ID, otpModel.OTPPurposeArrival))
}

func TestSweeperSkipsFutureDeadline(t *testing.T) {
	e := newTestEngine(t)
	farmer := seedUser(t, e.DB, "Farmer", "farmer")
	owner := seedUser(t, e.DB, "Owner", "owner")
	b := seedBooking(t, e.DB, farmer, owner, bookingModel.BookingStatusOwnerConfirmed)

	deadline := time.Now().Add(time.Hour)
	require.NoError(t, e.DB.Model(&bookingModel.Booking{}).
		Where("id = ?", b.ID).
		Update("arrival_deadline_at", deadline).Error)

	require.NoError(t, e.sweepExpiredArrivals())

	var untouched bookingModel.Booking
	require.NoError(t, e.DB.First(&untouched, b.ID).Error)
	assert.Equal(t, bookingModel.BookingStatusOwnerConfirmed, untouched.Status)
}
