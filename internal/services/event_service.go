package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/mamelilea/agrowtify-web/internal/models"
	"github.com/mamelilea/agrowtify-web/pkg/utils"
)

type EventService struct {
	db   *gorm.DB
	feed *EventFeed
}

// NewEventService wires the service; feed may be nil.
func NewEventService(db *gorm.DB, feed *EventFeed) *EventService {
	return &EventService{db: db, feed: feed}
}

type EventInput struct {
	Title       string           `json:"title" validate:"required,max=255"`
	Description string           `json:"description" validate:"required"`
	Location    *string          `json:"location"`
	EventType   models.EventType `json:"eventType" validate:"required,oneof=ONLINE OFFLINE HYBRID"`
	StartDate   time.Time        `json:"startDate" validate:"required"`
	EndDate     time.Time        `json:"endDate" validate:"required,gtefield=StartDate"`
	ImageURL    *string          `json:"imageUrl" validate:"omitempty,url"`
	Organizer   string           `json:"organizer" validate:"required,max=255"`
	ContactInfo *string          `json:"contactInfo" validate:"omitempty,max=255"`
	Website     *string          `json:"website" validate:"omitempty,url"`
	IsPublished *bool            `json:"isPublished"`
	CategoryID  string           `json:"categoryId" validate:"required"`
}

func (in *EventInput) trim() {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Organizer = strings.TrimSpace(in.Organizer)
}

// List returns published events, soonest first.
func (s *EventService) List(ctx context.Context, q ListQuery) ([]models.Event, Pagination, error) {
	q.normalize()
	if q.Category != "" && !models.IsID(q.Category) {
		return nil, NewPagination(0, q.Page, q.Limit), nil
	}
	filter := func(db *gorm.DB) *gorm.DB {
		db = db.Where("is_published = ?", true)
		if q.Category != "" {
			db = db.Where("category_id = ?", q.Category)
		}
		if models.EventType(q.Type).Valid() {
			db = db.Where("event_type = ?", q.Type)
		}
		return db.Scopes(searchScope(q.Search, "title", "description", "organizer"))
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Event{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, Pagination{}, fmt.Errorf("count events: %w", err)
	}
	var events []models.Event
	err := s.db.WithContext(ctx).Scopes(filter).
		Preload("Category").
		Order("start_date asc").
		Offset(q.offset()).Limit(q.Limit).
		Find(&events).Error
	if err != nil {
		return nil, Pagination{}, fmt.Errorf("list events: %w", err)
	}
	return events, NewPagination(total, q.Page, q.Limit), nil
}

func (s *EventService) Get(ctx context.Context, id string) (*models.Event, error) {
	if !models.IsID(id) {
		return nil, ErrNotFound
	}
	var ev models.Event
	err := s.db.WithContext(ctx).Preload("Category").Where("id = ?", id).First(&ev).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return &ev, nil
}

func (s *EventService) Create(ctx context.Context, userID string, in EventInput) (*models.Event, error) {
	in.trim()
	if err := utils.Validate(in); err != nil {
		return nil, err
	}
	if err := checkCategory(ctx, s.db, in.CategoryID); err != nil {
		return nil, err
	}

	ev := models.Event{
		Title:       in.Title,
		Description: in.Description,
		Location:    in.Location,
		EventType:   in.EventType,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		ImageURL:    in.ImageURL,
		Organizer:   in.Organizer,
		ContactInfo: in.ContactInfo,
		Website:     in.Website,
		IsPublished: in.IsPublished == nil || *in.IsPublished,
		CategoryID:  in.CategoryID,
		UserID:      userID,
	}
	if err := s.db.WithContext(ctx).Select("*").Omit("Category").Create(&ev).Error; err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	created, err := s.Get(ctx, ev.ID)
	if err != nil {
		return nil, err
	}
	s.feed.Publish(ctx, FeedEventCreated, created, created.ID)
	return created, nil
}

// Update replaces an event's fields. Only its creator may update it.
func (s *EventService) Update(ctx context.Context, userID, id string, in EventInput) (*models.Event, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.UserID != userID {
		return nil, ErrForbidden
	}
	in.trim()
	if err := utils.Validate(in); err != nil {
		return nil, err
	}
	if err := checkCategory(ctx, s.db, in.CategoryID); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"title":        in.Title,
		"description":  in.Description,
		"location":     in.Location,
		"event_type":   in.EventType,
		"start_date":   in.StartDate,
		"end_date":     in.EndDate,
		"image_url":    in.ImageURL,
		"organizer":    in.Organizer,
		"contact_info": in.ContactInfo,
		"website":      in.Website,
		"category_id":  in.CategoryID,
	}
	if in.IsPublished != nil {
		updates["is_published"] = *in.IsPublished
	}
	if err := s.db.WithContext(ctx).Model(&models.Event{ID: existing.ID}).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	updated, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.feed.Publish(ctx, FeedEventUpdated, updated, updated.ID)
	return updated, nil
}

// Delete removes an event. Its creator and admins may delete it.
func (s *EventService) Delete(ctx context.Context, user *models.User, id string) error {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if existing.UserID != user.ID && !user.IsAdmin() {
		return ErrForbidden
	}
	if err := s.db.WithContext(ctx).Delete(&models.Event{ID: existing.ID}).Error; err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	s.feed.Publish(ctx, FeedEventDeleted, nil, existing.ID)
	return nil
}
