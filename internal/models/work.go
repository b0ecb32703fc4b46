package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WorkStatus string

const (
	WorkStatusInProgress WorkStatus = "IN_PROGRESS"
	WorkStatusCompleted  WorkStatus = "COMPLETED"
)

// Work is created only as a side effect of bid acceptance, at most one per task.
type Work struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TaskID       uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"task_id"`
	FreelancerID uuid.UUID `gorm:"type:uuid;index;not null" json:"freelancer_id"`

	CompletionURL string     `gorm:"type:text" json:"completion_url"`
	Status        WorkStatus `gorm:"type:varchar(20);not null;default:'IN_PROGRESS';index" json:"status"`

	StartDate time.Time `gorm:"not null" json:"start_date"`
	EndDate   time.Time `gorm:"not null" json:"end_date"` // deadline set at bid acceptance

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Task       *Task       `gorm:"foreignKey:TaskID" json:"task,omitempty"`
	Freelancer *Freelancer `gorm:"foreignKey:FreelancerID" json:"freelancer,omitempty"`
	Payment    *Payment    `gorm:"foreignKey:WorkID" json:"payment,omitempty"`
}

func (w *Work) BeforeCreate(tx *gorm.DB) (err error) {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return
}
