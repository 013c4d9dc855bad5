package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/mamelilea/agrowtify-web/internal/database"
	"github.com/mamelilea/agrowtify-web/internal/models"
	"github.com/mamelilea/agrowtify-web/pkg/utils"
)

const MaxPageSize = 50

// ListQuery is the shared filter of the agroguide and event listings.
type ListQuery struct {
	Category string `schema:"category" json:"category"`
	Search   string `schema:"search" json:"search"`
	Type     string `schema:"type" json:"type"`
	Page     int    `schema:"page" default:"1" json:"-"`
	Limit    int    `schema:"limit" default:"10" json:"-"`
}

func (q *ListQuery) normalize() {
	q.Category = strings.TrimSpace(q.Category)
	q.Search = strings.TrimSpace(q.Search)
	q.Type = strings.ToUpper(strings.TrimSpace(q.Type))
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = 10
	}
	if q.Limit > MaxPageSize {
		q.Limit = MaxPageSize
	}
}

func (q ListQuery) offset() int { return (q.Page - 1) * q.Limit }

type Pagination struct {
	Total       int64 `json:"total"`
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	TotalPages  int   `json:"totalPages"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
}

func NewPagination(total int64, page, limit int) Pagination {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{
		Total:       total,
		Page:        page,
		Limit:       limit,
		TotalPages:  pages,
		HasNextPage: page < pages,
		HasPrevPage: page > 1,
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// searchScope matches term case-insensitively against any of columns.
// Wildcards in term match literally.
func searchScope(term string, columns ...string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if term == "" {
			return db
		}
		like := "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
		conds := make([]string, len(columns))
		args := make([]interface{}, len(columns))
		for i, c := range columns {
			conds[i] = "LOWER(" + c + `) LIKE ? ESCAPE '\'`
			args[i] = like
		}
		return db.Where(strings.Join(conds, " OR "), args...)
	}
}

type ContentService struct {
	db *gorm.DB
}

func NewContentService(db *gorm.DB) *ContentService {
	return &ContentService{db: db}
}

type CategoryInput struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Description *string `json:"description"`
}

// CategoryWithCount is a category plus, when requested, its published guide count.
type CategoryWithCount struct {
	models.Category
	ContentCount *int64 `json:"contentCount,omitempty"`
}

func (s *ContentService) ListCategories(ctx context.Context, includeCount bool) ([]CategoryWithCount, error) {
	var cats []models.Category
	if err := s.db.WithContext(ctx).Order("name asc").Find(&cats).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := make([]CategoryWithCount, len(cats))
	for i, c := range cats {
		out[i].Category = c
	}
	if !includeCount || len(cats) == 0 {
		return out, nil
	}

	var rows []struct {
		CategoryID string
		Count      int64
	}
	err := s.db.WithContext(ctx).Model(&models.AgroguideContent{}).
		Select("category_id, COUNT(*) AS count").
		Where("is_published = ?", true).
		Group("category_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count category content: %w", err)
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.CategoryID] = r.Count
	}
	for i := range out {
		n := counts[out[i].ID]
		out[i].ContentCount = &n
	}
	return out, nil
}

func (s *ContentService) CreateCategory(ctx context.Context, in CategoryInput) (*models.Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := utils.Validate(in); err != nil {
		return nil, err
	}
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Category{}).
		Where("LOWER(name) = ?", strings.ToLower(in.Name)).
		Count(&count).Error
	if err != nil {
		return nil, fmt.Errorf("look up category: %w", err)
	}
	if count > 0 {
		return nil, fmt.Errorf("category %q: %w", in.Name, ErrConflict)
	}

	cat := models.Category{Name: in.Name, Description: in.Description}
	if err := s.db.WithContext(ctx).Create(&cat).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, fmt.Errorf("category %q: %w", in.Name, ErrConflict)
		}
		return nil, fmt.Errorf("create category: %w", err)
	}
	return &cat, nil
}

// checkCategory rejects a categoryId that names no category.
func checkCategory(ctx context.Context, db *gorm.DB, id string) error {
	if !models.IsID(id) {
		return utils.NewValidationError("categoryId", "Invalid categoryId. Category does not exist.")
	}
	var count int64
	if err := db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("look up category: %w", err)
	}
	if count == 0 {
		return utils.NewValidationError("categoryId", "Invalid categoryId. Category does not exist.")
	}
	return nil
}

type GuideInput struct {
	Title       string             `json:"title" validate:"required,max=255"`
	Description string             `json:"description" validate:"required"`
	ContentType models.ContentType `json:"contentType" validate:"required,oneof=ARTICLE VIDEO"`
	URL         string             `json:"url" validate:"required,url"`
	Thumbnail   *string            `json:"thumbnail" validate:"omitempty,url"`
	IsPublished *bool              `json:"isPublished"`
	CategoryID  string             `json:"categoryId" validate:"required"`
}

// ListGuides returns published guides, newest first.
func (s *ContentService) ListGuides(ctx context.Context, q ListQuery) ([]models.AgroguideContent, Pagination, error) {
	q.normalize()
	if q.Category != "" && !models.IsID(q.Category) {
		return nil, NewPagination(0, q.Page, q.Limit), nil
	}
	filter := func(db *gorm.DB) *gorm.DB {
		db = db.Where("is_published = ?", true)
		if q.Category != "" {
			db = db.Where("category_id = ?", q.Category)
		}
		if q.Type == string(models.ContentArticle) || q.Type == string(models.ContentVideo) {
			db = db.Where("content_type = ?", q.Type)
		}
		return db.Scopes(searchScope(q.Search, "title", "description"))
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.AgroguideContent{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, Pagination{}, fmt.Errorf("count guides: %w", err)
	}
	var guides []models.AgroguideContent
	err := s.db.WithContext(ctx).Scopes(filter).
		Preload("Category").
		Order("created_at desc").Order("title asc").
		Offset(q.offset()).Limit(q.Limit).
		Find(&guides).Error
	if err != nil {
		return nil, Pagination{}, fmt.Errorf("list guides: %w", err)
	}
	return guides, NewPagination(total, q.Page, q.Limit), nil
}

func (s *ContentService) GetGuide(ctx context.Context, id string) (*models.AgroguideContent, error) {
	if !models.IsID(id) {
		return nil, ErrNotFound
	}
	var g models.AgroguideContent
	err := s.db.WithContext(ctx).Preload("Category").Where("id = ?", id).First(&g).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get guide: %w", err)
	}
	return &g, nil
}

func (s *ContentService) CreateGuide(ctx context.Context, userID string, in GuideInput) (*models.AgroguideContent, error) {
	if err := utils.Validate(in); err != nil {
		return nil, err
	}
	if err := checkCategory(ctx, s.db, in.CategoryID); err != nil {
		return nil, err
	}
	g := models.AgroguideContent{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		ContentType: in.ContentType,
		URL:         in.URL,
		Thumbnail:   in.Thumbnail,
		IsPublished: in.IsPublished == nil || *in.IsPublished,
		CategoryID:  in.CategoryID,
		UserID:      userID,
	}
	// a zero-value false would otherwise be replaced by the column default
	if err := s.db.WithContext(ctx).Select("*").Omit("Category").Create(&g).Error; err != nil {
		return nil, fmt.Errorf("create guide: %w", err)
	}
	return s.GetGuide(ctx, g.ID)
}

func (s *ContentService) UpdateGuide(ctx context.Context, id string, in GuideInput) (*models.AgroguideContent, error) {
	existing, err := s.GetGuide(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := utils.Validate(in); err != nil {
		return nil, err
	}
	if err := checkCategory(ctx, s.db, in.CategoryID); err != nil {
		return nil, err
	}
	updates := map[string]interface{}{
		"title":        strings.TrimSpace(in.Title),
		"description":  strings.TrimSpace(in.Description),
		"content_type": in.ContentType,
		"url":          in.URL,
		"thumbnail":    in.Thumbnail,
		"category_id":  in.CategoryID,
	}
	if in.IsPublished != nil {
		updates["is_published"] = *in.IsPublished
	}
	if err := s.db.WithContext(ctx).Model(&models.AgroguideContent{ID: existing.ID}).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update guide: %w", err)
	}
	return s.GetGuide(ctx, id)
}

func (s *ContentService) DeleteGuide(ctx context.Context, id string) error {
	if _, err := s.GetGuide(ctx, id); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(&models.AgroguideContent{ID: id}).Error; err != nil {
		return fmt.Errorf("delete guide: %w", err)
	}
	return nil
}
