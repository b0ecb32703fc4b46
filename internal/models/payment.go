package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "UNPAID"
	PaymentStatusPaid   PaymentStatus = "PAID"
)

// Payment is the settlement record for a work, created alongside it at bid
// acceptance. Its UNPAID -> PAID flip is the sole signal that the freelancer
// has been paid.
type Payment struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	WorkID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"work_id"`

	Amount int64         `gorm:"not null" json:"amount"`
	Status PaymentStatus `gorm:"type:varchar(20);not null;default:'UNPAID';index" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Work *Work `gorm:"foreignKey:WorkID" json:"work,omitempty"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}
