package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WalletTrxType string

const (
	WalletTrxCredit WalletTrxType = "credit"
)

// WalletTransaction is the ledger behind Freelancer.Balance: one row per
// balance mutation, referencing the work that was paid.
type WalletTransaction struct {
	ID           uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	FreelancerID uuid.UUID     `gorm:"type:uuid;index;not null" json:"freelancer_id"`
	Amount       int64         `gorm:"not null" json:"amount"`
	Type         WalletTrxType `gorm:"type:varchar(20);not null" json:"type"`
	Description  string        `gorm:"type:text" json:"description"`
	ReferenceID  *uuid.UUID    `gorm:"type:uuid;index" json:"reference_id,omitempty"` // work ID
	CreatedAt    time.Time     `json:"created_at"`

	Freelancer *Freelancer `gorm:"foreignKey:FreelancerID" json:"-"`
}

func (t *WalletTransaction) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return
}
