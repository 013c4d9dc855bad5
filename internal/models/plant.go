package models

import (
	"time"

	"gorm.io/gorm"
)

type Plant struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"size:255;not null;uniqueIndex" json:"name"`
	Description string    `gorm:"type:text;not null" json:"description"`
	CareGuide   string    `gorm:"type:text;not null" json:"careGuide"`
	ImageURL    *string   `gorm:"type:text" json:"imageUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (p *Plant) BeforeCreate(tx *gorm.DB) error {
	assignID(&p.ID)
	return nil
}
