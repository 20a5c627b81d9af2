package booking

import (
	"fmt"
	"time"

	"agrirent-booking/apperrors"
	"agrirent-booking/logger"
	bookingModel "agrirent-booking/models/booking"
	machineModel "agrirent-booking/models/machine"
	otpModel "agrirent-booking/models/otp"
	userModel "agrirent-booking/models/user"
	"agrirent-booking/realtime"
	"agrirent-booking/services/billing"
	bookingEvent "agrirent-booking/services/booking_event"
	otpService "agrirent-booking/services/otp"
	"agrirent-booking/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const defaultArrivalDeadlineMinutes = 120

// Engine owns the booking lifecycle. Every transition runs inside a
// transaction whose UPDATE is guarded by the row version, so two racing calls
// on the same booking resolve to exactly one winner; the loser sees
// InvalidTransition and reconciles over REST.
type Engine struct {
	DB       *gorm.DB
	OTP      *otpService.Service
	Notifier realtime.Notifier
}

func NewEngine(db *gorm.DB, otpSvc *otpService.Service, notifier realtime.Notifier) *Engine {
	return &Engine{
		DB:       db,
		OTP:      otpSvc,
		Notifier: notifier,
	}
}

// Create opens a new booking in "requested" for the given farmer. Billing
// scheme and rate are frozen from the machine at this moment.
func (e *Engine) Create(farmer *userModel.User, machineUuid string, requestedStartAt time.Time, areaBigha *float64, note string) (*bookingModel.Booking, error) {
	var machine machineModel.Machine
	if err := e.DB.Where("uuid = ? AND is_active = true", machineUuid).First(&machine).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NotFound("machine")
		}
		return nil, fmt.Errorf("failed to load machine: %w", err)
	}

	if machine.OwnerID == farmer.ID {
		return nil, apperrors.Forbidden("you cannot book your own machine")
	}

	b := bookingModel.Booking{
		Uuid:             uuid.NewString(),
		MachineID:        machine.ID,
		FarmerID:         farmer.ID,
		OwnerID:          machine.OwnerID,
		Status:           bookingModel.BookingStatusRequested,
		RequestedStartAt: requestedStartAt,
		BillingScheme:    bookingModel.BillingScheme(machine.BillingScheme),
		Rate:             machine.Rate,
		Unit:             machine.Unit,
		AreaBigha:        areaBigha,
		Note:             note,
		CreatedBy:        farmer.Uuid,
	}

	err := e.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&b).Error; err != nil {
			return err
		}
		return bookingEvent.SnapshotBookingToEvent(tx, &b, "created", farmer.Uuid)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	created, err := e.reload(b.ID)
	if err != nil {
		return nil, err
	}

	// Notify the owner of the incoming request
	e.Notifier.Publish(realtime.OwnerChannel(created.Owner.Uuid), realtime.Event{
		BookingUuid: created.Uuid,
		Type:        realtime.EventBookingRequest,
		Version:     created.Version,
		Payload:     created,
	})

	return created, nil
}

// Confirm is the owner's accept/reject decision on a requested booking.
// Accepting issues the arrival OTP (delivered to the farmer, entered by the
// owner on arrival) and sets the arrival deadline.
func (e *Engine) Confirm(actor *userModel.User, bookingUuid string, accept bool, deadlineMinutes int, reason string) (*bookingModel.Booking, error) {
	b, err := e.loadForActor(bookingUuid, actor)
	if err != nil {
		return nil, err
	}
	if b.OwnerID != actor.ID {
		return nil, apperrors.Forbidden("only the machine owner can confirm or reject a booking")
	}

	if !accept {
		return e.reject(b, actor, reason)
	}

	if deadlineMinutes <= 0 {
		deadlineMinutes = defaultArrivalDeadlineMinutes
	}
	deadline := time.Now().Add(time.Duration(deadlineMinutes) * time.Minute)

	var issued *otpModel.OTP
	err = e.transition(b, actor, bookingModel.BookingStatusOwnerConfirmed, "confirm", "confirmed",
		func(tx *gorm.DB, updates map[string]interface{}) error {
			// The arrival code goes to the farmer's phone; the owner keys it
			// in at the field to prove the machine arrived.
			code, err := e.OTP.Issue(tx, b.ID, otpModel.OTPPurposeArrival, b.Farmer.Phone)
			if err != nil {
				return err
			}
			issued = code

			encrypted, err := utils.EncryptData(code.OTPCode)
			if err != nil {
				return fmt.Errorf("failed to encrypt arrival OTP: %w", err)
			}
			updates["arrival_otp_encrypted"] = encrypted
			updates["arrival_deadline_at"] = deadline
			return nil
		})
	if err != nil {
		return nil, err
	}

	logger.Success(fmt.Sprintf("Booking %s confirmed, arrival OTP %d issued", b.Uuid, issued.ID))

	e.publish(b, realtime.EventBookingConfirmed)
	return b, nil
}

func (e *Engine) reject(b *bookingModel.Booking, actor *userModel.User, reason string) (*bookingModel.Booking, error) {
	if reason == "" {
		return nil, apperrors.New(apperrors.KindValidation, "a reason is required when rejecting")
	}

	err := e.transition(b, actor, bookingModel.BookingStatusCancelled, "reject", "rejected",
		func(tx *gorm.DB, updates map[string]interface{}) error {
			updates["cancellation_reason"] = reason
			return e.OTP.Invalidate(tx, b.ID, otpModel.OTPPurposeArrival)
		})
	if err != nil {
		return nil, err
	}

	e.publish(b, realtime.EventBookingRejected)
	return b, nil
}

// Cancel ends a not-yet-started booking. Either party may cancel; work in
// progress and settled bookings cannot be cancelled.
func (e *Engine) Cancel(actor *userModel.User, bookingUuid string, reason string) (*bookingModel.Booking, error) {
	b, err := e.loadForActor(bookingUuid, actor)
	if err != nil {
		return nil, err
	}

	if !b.Status.CanCancel() {
		return nil, apperrors.InvalidTransition(b.Status.String(), "cancel")
	}

	err = e.transition(b, actor, bookingModel.BookingStatusCancelled, "cancel", "cancelled",
		func(tx *gorm.DB, updates map[string]interface{}) error {
			updates["cancellation_reason"] = reason
			// Drop any pending arrival code, on the row and in the otps table
			updates["arrival_otp_encrypted"] = nil
			return e.OTP.Invalidate(tx, b.ID, otpModel.OTPPurposeArrival)
		})
	if err != nil {
		return nil, err
	}

	e.publish(b, realtime.EventBookingUpdated)
	return b, nil
}

// VerifyArrival consumes the arrival OTP, starts the billing timer and issues
// the completion OTP (delivered to the owner, entered by the farmer when the
// job is done).
func (e *Engine) VerifyArrival(actor *userModel.User, bookingUuid string, candidate string) (*bookingModel.Booking, error) {
	b, err := e.loadForActor(bookingUuid, actor)
	if err != nil {
		return nil, err
	}
	if b.OwnerID != actor.ID {
		return nil, apperrors.Forbidden("only the machine owner verifies arrival")
	}
	if b.Status != bookingModel.BookingStatusOwnerConfirmed {
		return nil, apperrors.InvalidTransition(b.Status.String(), "verify arrival")
	}

	// OTP consumption commits independently of the transition so failed
	// attempts keep their retry count even when nothing else changes.
	if _, err := e.OTP.Verify(nil, b.ID, otpModel.OTPPurposeArrival, candidate); err != nil {
		return nil, err
	}

	startedAt := time.Now()
	err = e.transition(b, actor, bookingModel.BookingStatusArrivedOTPVerified, "verify arrival", "arrival_verified",
		func(tx *gorm.DB, updates map[string]interface{}) error {
			code, err := e.OTP.Issue(tx, b.ID, otpModel.OTPPurposeCompletion, b.Owner.Phone)
			if err != nil {
				return err
			}

			encrypted, err := utils.EncryptData(code.OTPCode)
			if err != nil {
				return fmt.Errorf("failed to encrypt completion OTP: %w", err)
			}

			updates["timer_started_at"] = startedAt
			updates["arrival_otp_encrypted"] = nil
			updates["completion_otp_encrypted"] = encrypted
			return nil
		})
	if err != nil {
		return nil, err
	}

	e.publish(b, realtime.EventTimerStarted)
	return b, nil
}

// VerifyCompletion consumes the completion OTP, stops the timer and freezes
// the bill via the billing calculator. The live display uses the same pure
// function, so the displayed and billed amounts always agree.
func (e *Engine) VerifyCompletion(actor *userModel.User, bookingUuid string, candidate string) (*bookingModel.Booking, error) {
	b, err := e.loadForActor(bookingUuid, actor)
	if err != nil {
		return nil, err
	}
	if b.FarmerID != actor.ID {
		return nil, apperrors.Forbidden("only the farmer verifies job completion")
	}
	if b.Status != bookingModel.BookingStatusArrivedOTPVerified {
		return nil, apperrors.InvalidTransition(b.Status.String(), "verify completion")
	}
	if b.TimerStartedAt == nil {
		return nil, apperrors.InvalidTransition(b.Status.String(), "verify completion without a running timer")
	}

	if _, err := e.OTP.Verify(nil, b.ID, otpModel.OTPPurposeCompletion, candidate); err != nil {
		return nil, err
	}

	stoppedAt := time.Now()
	elapsedMs := stoppedAt.Sub(*b.TimerStartedAt).Milliseconds()
	durationMinutes := billing.ElapsedMinutes(elapsedMs)

	amount, err := billing.Compute(b.BillingScheme, b.Rate, billing.Context{
		ElapsedMs: elapsedMs,
		AreaBigha: b.AreaBigha,
	})
	if err != nil {
		return nil, err
	}

	err = e.transition(b, actor, bookingModel.BookingStatusCompletedPendingPayment, "verify completion", "completion_verified",
		func(tx *gorm.DB, updates map[string]interface{}) error {
			updates["timer_stopped_at"] = stoppedAt
			updates["duration_minutes"] = durationMinutes
			updates["calculated_amount"] = amount
			updates["completion_otp_encrypted"] = nil
			return nil
		})
	if err != nil {
		return nil, err
	}

	e.publish(b, realtime.EventTimerStopped)
	return b, nil
}

// ConfirmPayment marks a completed booking paid once the external payment
// system has verified the farmer's payment.
func (e *Engine) ConfirmPayment(actor *userModel.User, bookingUuid string, paymentReference string) (*bookingModel.Booking, error) {
	b, err := e.loadForActor(bookingUuid, actor)
	if err != nil {
		return nil, err
	}
	if b.FarmerID != actor.ID {
		return nil, apperrors.Forbidden("only the farmer confirms payment")
	}

	err = e.transition(b, actor, bookingModel.BookingStatusPaid, "confirm payment", "paid",
		func(tx *gorm.DB, updates map[string]interface{}) error {
			updates["payment_reference"] = paymentReference
			return nil
		})
	if err != nil {
		return nil, err
	}

	e.publish(b, realtime.EventBookingUpdated)
	return b, nil
}

// Dispute records dispute metadata on a completed or paid booking. Disputed
// is terminal for this engine; resolution is an admin concern.
func (e *Engine) Dispute(actor *userModel.User, bookingUuid string, reason, details string) (*bookingModel.Booking, error) {
	b, err := e.loadForActor(bookingUuid, actor)
	if err != nil {
		return nil, err
	}
	if b.FarmerID != actor.ID {
		return nil, apperrors.Forbidden("only the farmer can raise a dispute")
	}
	if !b.Status.CanDispute() {
		return nil, apperrors.InvalidTransition(b.Status.String(), "raise dispute")
	}

	err = e.transition(b, actor, bookingModel.BookingStatusDisputed, "raise dispute", "disputed",
		func(tx *gorm.DB, updates map[string]interface{}) error {
			updates["dispute_reason"] = reason
			if details != "" {
				updates["dispute_details"] = details
			}
			return nil
		})
	if err != nil {
		return nil, err
	}

	e.publish(b, realtime.EventBookingUpdated)
	return b, nil
}

// ResendOTP reissues the pending arrival or completion code. Throttling lives
// in the OTP service: an unexpired active code short-circuits, and repeated
// failures block the key.
func (e *Engine) ResendOTP(actor *userModel.User, bookingUuid string, otpType string) (*otpModel.OTP, error) {
	b, err := e.loadForActor(bookingUuid, actor)
	if err != nil {
		return nil, err
	}

	switch otpType {
	case "arrival":
		if b.Status != bookingModel.BookingStatusOwnerConfirmed {
			return nil, apperrors.InvalidTransition(b.Status.String(), "resend arrival OTP")
		}
		return e.OTP.Resend(b.ID, otpModel.OTPPurposeArrival, b.Farmer.Phone)
	case "completion":
		if b.Status != bookingModel.BookingStatusArrivedOTPVerified {
			return nil, apperrors.InvalidTransition(b.Status.String(), "resend completion OTP")
		}
		return e.OTP.Resend(b.ID, otpModel.OTPPurposeCompletion, b.Owner.Phone)
	default:
		return nil, apperrors.New(apperrors.KindValidation, "type must be either 'arrival' or 'completion'")
	}
}

// transition applies a guarded state change. The edge is validated against
// the lifecycle graph, mutate collects the column updates (and may issue
// OTPs inside the transaction), and the UPDATE is fenced by the version the
// caller loaded: zero rows affected means a concurrent transition won.
func (e *Engine) transition(b *bookingModel.Booking, actor *userModel.User, next bookingModel.BookingStatus, attempted, eventType string, mutate func(tx *gorm.DB, updates map[string]interface{}) error) error {
	if !b.Status.CanTransitionTo(next) {
		return apperrors.InvalidTransition(b.Status.String(), attempted)
	}

	err := e.DB.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"status":     next,
			"version":    b.Version + 1,
			"updated_by": actor.Uuid,
		}
		if mutate != nil {
			if err := mutate(tx, updates); err != nil {
				return err
			}
		}

		res := tx.Model(&bookingModel.Booking{}).
			Where("id = ? AND version = ?", b.ID, b.Version).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Lost the race: someone else already moved this booking
			return apperrors.InvalidTransition(b.Status.String(), attempted)
		}

		if err := tx.Preload("Machine").Preload("Farmer").Preload("Owner").First(b, b.ID).Error; err != nil {
			return err
		}

		return bookingEvent.SnapshotBookingToEvent(tx, b, eventType, actor.Uuid)
	})
	return err
}

// publish emits the transition event to the booking's room. Best-effort.
func (e *Engine) publish(b *bookingModel.Booking, eventType string) {
	e.Notifier.Publish(realtime.BookingChannel(b.Uuid), realtime.Event{
		BookingUuid: b.Uuid,
		Type:        eventType,
		Version:     b.Version,
		Payload:     b,
	})
}

// loadForActor fetches a booking and enforces that the requester is one of
// its two parties (admins pass).
func (e *Engine) loadForActor(bookingUuid string, actor *userModel.User) (*bookingModel.Booking, error) {
	var b bookingModel.Booking
	err := e.DB.Preload("Machine").Preload("Farmer").Preload("Owner").
		Where("uuid = ?", bookingUuid).First(&b).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NotFound("booking")
		}
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}

	if b.FarmerID != actor.ID && b.OwnerID != actor.ID && actor.Role != "admin" {
		return nil, apperrors.Forbidden("you are not a party to this booking")
	}

	return &b, nil
}

func (e *Engine) reload(id uint) (*bookingModel.Booking, error) {
	var b bookingModel.Booking
	if err := e.DB.Preload("Machine").Preload("Farmer").Preload("Owner").First(&b, id).Error; err != nil {
		return nil, fmt.Errorf("failed to reload booking: %w", err)
	}
	return &b, nil
}
