package machine

import (
	"time"

	"agrirent-booking/models/user"

	"github.com/shopspring/decimal"
)

// Machine is a rentable agricultural machine listed by an owner. Its billing
// scheme and rate are copied onto each booking at creation time so later rate
// changes never affect in-flight jobs.
type Machine struct {
	ID   uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Uuid string `gorm:"type:varchar(255);not null;unique" json:"uuid"`

	OwnerID uint      `gorm:"not null;index" json:"owner_id"`
	Owner   user.User `gorm:"foreignKey:OwnerID" json:"owner"`

	Name     string `gorm:"type:varchar(255);not null" json:"name"`
	Category string `gorm:"type:varchar(100);not null" json:"category"` // tractor, harvester, rotavator, ...

	BillingScheme string          `gorm:"type:varchar(20);not null" json:"billing_scheme"` // "time", "area" or "daily"
	Rate          decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"rate"`
	Unit          string          `gorm:"type:varchar(50)" json:"unit"` // "hour", "bigha", "day"

	Location   string  `gorm:"type:varchar(500)" json:"location"`
	HorsePower float64 `gorm:"type:numeric(6,1)" json:"horse_power,omitempty"`
	IsActive   bool    `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"deleted_at,omitempty"`
}
