package models

import (
	"time"

	"gorm.io/gorm"
)

type EventType string

const (
	EventOnline  EventType = "ONLINE"
	EventOffline EventType = "OFFLINE"
	EventHybrid  EventType = "HYBRID"
)

// Valid reports whether t is ONLINE, OFFLINE or HYBRID.
func (t EventType) Valid() bool {
	return t == EventOnline || t == EventOffline || t == EventHybrid
}

type Event struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Location    *string   `gorm:"type:text" json:"location"`
	EventType   EventType `gorm:"size:16;not null;index" json:"eventType"`
	StartDate   time.Time `gorm:"not null;index" json:"startDate"`
	EndDate     time.Time `gorm:"not null" json:"endDate"`
	ImageURL    *string   `gorm:"type:text" json:"imageUrl"`
	Organizer   string    `gorm:"size:255;not null" json:"organizer"`
	ContactInfo *string   `gorm:"size:255" json:"contactInfo"`
	Website     *string   `gorm:"type:text" json:"website"`
	IsPublished bool      `gorm:"not null;default:true;index" json:"isPublished"`
	CategoryID  string    `gorm:"type:uuid;not null;index" json:"categoryId"`
	Category    *Category `gorm:"foreignKey:CategoryID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"category,omitempty"`
	UserID      string    `gorm:"type:uuid;not null;index" json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	assignID(&e.ID)
	return nil
}
