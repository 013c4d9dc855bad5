package models

import (
	"time"

	"gorm.io/gorm"
)

type Category struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"size:255;not null;uniqueIndex" json:"name"`
	Description *string   `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	assignID(&c.ID)
	return nil
}

type ContentType string

const (
	ContentArticle ContentType = "ARTICLE"
	ContentVideo   ContentType = "VIDEO"
)

// AgroguideContent is a published farming guide, either an article or a video.
type AgroguideContent struct {
	ID          string      `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string      `gorm:"size:255;not null" json:"title"`
	Description string      `gorm:"type:text;not null" json:"description"`
	ContentType ContentType `gorm:"size:16;not null;index" json:"contentType"`
	URL         string      `gorm:"type:text;not null" json:"url"`
	Thumbnail   *string     `gorm:"type:text" json:"thumbnail"`
	IsPublished bool        `gorm:"not null;default:true;index" json:"isPublished"`
	CategoryID  string      `gorm:"type:uuid;not null;index" json:"categoryId"`
	Category    *Category   `gorm:"foreignKey:CategoryID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"category,omitempty"`
	UserID      string      `gorm:"type:uuid;not null;index" json:"userId"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

func (c *AgroguideContent) BeforeCreate(tx *gorm.DB) error {
	assignID(&c.ID)
	return nil
}
