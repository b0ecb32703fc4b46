package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BidStatus string

const (
	BidStatusPending  BidStatus = "PENDING"
	BidStatusAccepted BidStatus = "ACCEPTED"
	BidStatusRejected BidStatus = "REJECTED"
)

type Bid struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	// One bid per freelancer per task
	TaskID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_bids_task_freelancer" json:"task_id"`
	FreelancerID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_bids_task_freelancer;index" json:"freelancer_id"`

	Message string    `gorm:"type:text" json:"message"`
	Status  BidStatus `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Task       *Task       `gorm:"foreignKey:TaskID" json:"task,omitempty"`
	Freelancer *Freelancer `gorm:"foreignKey:FreelancerID" json:"freelancer,omitempty"`
}

func (b *Bid) BeforeCreate(tx *gorm.DB) (err error) {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return
}
