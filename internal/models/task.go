package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TaskStatus string

const (
	TaskStatusOpen      TaskStatus = "OPEN"      // accepting bids
	TaskStatusAssigned  TaskStatus = "ASSIGNED"  // a bid was accepted, work in flight
	TaskStatusCompleted TaskStatus = "COMPLETED" // work submitted or paid
)

type Task struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID uuid.UUID `gorm:"type:uuid;index;not null" json:"project_id"`

	Name        string `gorm:"not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Price       int64  `gorm:"not null" json:"price"`
	// Skill tags, stored as a JSON array ["React", "CSS", ...]
	Skills datatypes.JSON `json:"skills"`

	Status TaskStatus `gorm:"type:varchar(20);not null;default:'OPEN';index" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Project *Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Bids    []Bid    `gorm:"foreignKey:TaskID" json:"bids,omitempty"`
	Work    *Work    `gorm:"foreignKey:TaskID" json:"work,omitempty"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return
}
