package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Freelancer struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`

	Telephone string `gorm:"type:varchar(30)" json:"telephone"`
	// Balance only ever goes up, via payment processing (atomic increment)
	Balance int64 `gorm:"not null;default:0" json:"balance"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	User  *User  `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Bids  []Bid  `gorm:"foreignKey:FreelancerID" json:"bids,omitempty"`
	Works []Work `gorm:"foreignKey:FreelancerID" json:"works,omitempty"`
}

func (f *Freelancer) BeforeCreate(tx *gorm.DB) (err error) {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return
}
