package booking

import (
	"time"

	"agrirent-booking/models/machine"
	"agrirent-booking/models/user"

	"github.com/shopspring/decimal"
)

// Booking is the central entity of the rental lifecycle. Status is the single
// source of truth for which actions are currently valid; Version increments on
// every transition and guards concurrent updates.
type Booking struct {
	ID   uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Uuid string `gorm:"type:varchar(255);not null;unique" json:"uuid"`

	MachineID uint            `gorm:"not null;index" json:"machine_id"`
	Machine   machine.Machine `gorm:"foreignKey:MachineID" json:"machine"`

	FarmerID uint      `gorm:"not null;index" json:"farmer_id"`
	Farmer   user.User `gorm:"foreignKey:FarmerID" json:"farmer"`

	OwnerID uint      `gorm:"not null;index" json:"owner_id"`
	Owner   user.User `gorm:"foreignKey:OwnerID" json:"owner"`

	Status  BookingStatus `gorm:"type:varchar(40);not null;default:requested" json:"status"`
	Version uint          `gorm:"not null;default:0" json:"version"`

	// Schedule
	RequestedStartAt  time.Time  `gorm:"not null" json:"requested_start_at"`
	ArrivalDeadlineAt *time.Time `gorm:"index" json:"arrival_deadline_at,omitempty"`

	// OTP codes at rest, AES-GCM encrypted; present only while pending
	// verification and cleared after successful use.
	ArrivalOTPEncrypted    *string `gorm:"column:arrival_otp_encrypted;type:text" json:"-"`
	CompletionOTPEncrypted *string `gorm:"column:completion_otp_encrypted;type:text" json:"-"`

	// Timer
	TimerStartedAt  *time.Time `json:"timer_started_at,omitempty"`
	TimerStoppedAt  *time.Time `json:"timer_stopped_at,omitempty"`
	DurationMinutes *int64     `json:"duration_minutes,omitempty"`

	// Billing, copied from the machine at creation
	BillingScheme    BillingScheme    `gorm:"type:varchar(20);not null" json:"billing_scheme"`
	Rate             decimal.Decimal  `gorm:"type:numeric(12,2);not null" json:"rate"`
	Unit             string           `gorm:"type:varchar(50)" json:"unit"`
	AreaBigha        *float64         `gorm:"type:numeric(10,2)" json:"area_bigha,omitempty"`
	CalculatedAmount *decimal.Decimal `gorm:"type:numeric(12,2)" json:"calculated_amount,omitempty"`

	// Terminal-path metadata
	CancellationReason *string `gorm:"type:varchar(500)" json:"cancellation_reason,omitempty"`
	DisputeReason      *string `gorm:"type:varchar(1000)" json:"dispute_reason,omitempty"`
	DisputeDetails     *string `gorm:"type:text" json:"dispute_details,omitempty"`
	PaymentReference   *string `gorm:"type:varchar(255)" json:"payment_reference,omitempty"`

	Note string `gorm:"type:varchar(500)" json:"note,omitempty"`

	CreatedBy string     `gorm:"type:varchar(255);not null" json:"created_by"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedBy string     `gorm:"type:varchar(255)" json:"updated_by,omitempty"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"deleted_at,omitempty"`
}

// ElapsedMs returns the billable elapsed time between timer start and stop.
// Returns 0 when the timer has not run.
func (b *Booking) ElapsedMs() int64 {
	if b.TimerStartedAt == nil || b.TimerStoppedAt == nil {
		return 0
	}
	return b.TimerStoppedAt.Sub(*b.TimerStartedAt).Milliseconds()
}

// LiveElapsedMs returns elapsed time against now for a running timer.
func (b *Booking) LiveElapsedMs(now time.Time) int64 {
	if b.TimerStartedAt == nil {
		return 0
	}
	if b.TimerStoppedAt != nil {
		return b.ElapsedMs()
	}
	return now.Sub(*b.TimerStartedAt).Milliseconds()
}
