package booking

import (
	"time"

	"agrirent-booking/models/user"

	"github.com/shopspring/decimal"
)

// BookingEvent is a full-row snapshot of a Booking taken on every transition.
// Terminal states are never deleted; this table is the historical record.
type BookingEvent struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	BookingID uint `gorm:"not null;index" json:"booking_id"`

	// DO NOT make this unique here (events are many per booking)
	BookingUuid string `gorm:"type:varchar(255);not null;index" json:"booking_uuid"`

	MachineID uint      `gorm:"not null" json:"machine_id"`
	FarmerID  uint      `gorm:"not null" json:"farmer_id"`
	Farmer    user.User `gorm:"foreignKey:FarmerID" json:"farmer"`
	OwnerID   uint      `gorm:"not null" json:"owner_id"`
	Owner     user.User `gorm:"foreignKey:OwnerID" json:"owner"`

	Status  BookingStatus `gorm:"type:varchar(40);not null" json:"status"`
	Version uint          `gorm:"not null" json:"version"`

	RequestedStartAt  time.Time  `json:"requested_start_at"`
	ArrivalDeadlineAt *time.Time `json:"arrival_deadline_at,omitempty"`

	// keep field names consistent with Booking
	ArrivalOTPEncrypted    *string `gorm:"column:arrival_otp_encrypted;type:text" json:"-"`
	CompletionOTPEncrypted *string `gorm:"column:completion_otp_encrypted;type:text" json:"-"`

	TimerStartedAt  *time.Time `json:"timer_started_at,omitempty"`
	TimerStoppedAt  *time.Time `json:"timer_stopped_at,omitempty"`
	DurationMinutes *int64     `json:"duration_minutes,omitempty"`

	BillingScheme    BillingScheme    `gorm:"type:varchar(20);not null" json:"billing_scheme"`
	Rate             decimal.Decimal  `gorm:"type:numeric(12,2);not null" json:"rate"`
	Unit             string           `gorm:"type:varchar(50)" json:"unit"`
	AreaBigha        *float64         `gorm:"type:numeric(10,2)" json:"area_bigha,omitempty"`
	CalculatedAmount *decimal.Decimal `gorm:"type:numeric(12,2)" json:"calculated_amount,omitempty"`

	CancellationReason *string `gorm:"type:varchar(500)" json:"cancellation_reason,omitempty"`
	DisputeReason      *string `gorm:"type:varchar(1000)" json:"dispute_reason,omitempty"`
	PaymentReference   *string `gorm:"type:varchar(255)" json:"payment_reference,omitempty"`

	EventType string `gorm:"type:varchar(50);not null;index" json:"event_type"` // created, confirmed, rejected, arrival_verified, ...

	CreatedBy string    `gorm:"type:varchar(255);not null" json:"created_by"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName sets the table name for the BookingEvent model
func (BookingEvent) TableName() string {
	return "booking_events"
}
