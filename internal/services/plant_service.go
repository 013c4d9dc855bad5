package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"gorm.io/gorm"

	"github.com/mamelilea/agrowtify-web/internal/database"
	"github.com/mamelilea/agrowtify-web/internal/models"
	"github.com/mamelilea/agrowtify-web/pkg/utils"
)

var plantListCacheKey = CacheKey("plants", "all")

type PlantService struct {
	db    *gorm.DB
	cache *CacheService
}

func NewPlantService(db *gorm.DB, cache *CacheService) *PlantService {
	return &PlantService{db: db, cache: cache}
}

type PlantInput struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Description string  `json:"description" validate:"required"`
	CareGuide   string  `json:"careGuide" validate:"required"`
	ImageURL    *string `json:"imageUrl" validate:"omitempty,url"`
}

// List returns every plant ordered by name, creating the default catalogue
// the first time it is asked for.
func (s *PlantService) List(ctx context.Context) ([]models.Plant, error) {
	var plants []models.Plant
	if hit, err := s.cache.Get(ctx, plantListCacheKey, &plants); err != nil {
		log.Printf("⚠️  WARNING: plant cache read failed: %v", err)
	} else if hit {
		return plants, nil
	}

	if err := s.SeedDefaults(ctx); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Order("name asc").Find(&plants).Error; err != nil {
		return nil, fmt.Errorf("list plants: %w", err)
	}
	if err := s.cache.Set(ctx, plantListCacheKey, plants); err != nil {
		log.Printf("⚠️  WARNING: plant cache write failed: %v", err)
	}
	return plants, nil
}

// Get returns the plant with id, or ErrNotFound.
func (s *PlantService) Get(ctx context.Context, id string) (*models.Plant, error) {
	if !models.IsID(id) {
		return nil, ErrNotFound
	}
	var plant models.Plant
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&plant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get plant: %w", err)
	}
	return &plant, nil
}

func (s *PlantService) Create(ctx context.Context, in PlantInput) (*models.Plant, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.CareGuide = strings.TrimSpace(in.CareGuide)
	if err := utils.Validate(in); err != nil {
		return nil, err
	}

	plant := models.Plant{
		Name:        in.Name,
		Description: in.Description,
		CareGuide:   in.CareGuide,
		ImageURL:    in.ImageURL,
	}
	if err := s.db.WithContext(ctx).Create(&plant).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, fmt.Errorf("plant %q: %w", in.Name, ErrConflict)
		}
		return nil, fmt.Errorf("create plant: %w", err)
	}
	if err := s.cache.Delete(ctx, plantListCacheKey); err != nil {
		log.Printf("⚠️  WARNING: plant cache invalidation failed: %v", err)
	}
	return &plant, nil
}

// SeedDefaults creates the default plants when the table is empty.
func (s *PlantService) SeedDefaults(ctx context.Context) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Plant{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count plants: %w", err)
	}
	if count > 0 {
		return nil
	}
	plants := make([]models.Plant, len(defaultPlants))
	copy(plants, defaultPlants)
	if err := s.db.WithContext(ctx).Create(&plants).Error; err != nil {
		if database.IsUniqueViolation(err) {
			// another instance seeded first
			return nil
		}
		return fmt.Errorf("seed plants: %w", err)
	}
	log.Println("✅ Default plants created")
	return nil
}

var defaultPlants = []models.Plant{
	{
		Name:        "Rice",
		Description: "Rice is the seed of the grass species Oryza sativa or less commonly Oryza glaberrima. As a cereal grain, it is the most widely consumed staple food for a large part of the world's human population, especially in Asia.",
		CareGuide:   "Rice plants need consistent water, with fields typically flooded. They prefer full sun and temperatures between 20-30°C. Regular fertilization and pest monitoring are essential.",
	},
	{
		Name:        "Coffee",
		Description: "Coffee is a brewed drink prepared from roasted coffee beans, the seeds of berries from certain Coffea species. When coffee berries turn from green to bright red, indicating ripeness, they are picked, processed, and dried.",
		CareGuide:   "Coffee plants prefer partial shade, consistent moisture but not waterlogged soil, and temperatures between 15-24°C. They benefit from regular organic fertilizer and protection from frost.",
	},
	{
		Name:        "Corn (Maize)",
		Description: "Corn is a cereal grain first domesticated by indigenous peoples in southern Mexico about 10,000 years ago. It is a staple food worldwide and also used for animal feed and many industrial applications.",
		CareGuide:   "Corn requires full sun, consistent moisture, and temperatures between 16-35°C. Plant in well-draining soil, fertilize regularly, and monitor for common pests like corn borers.",
	},
	{
		Name:        "Soybean",
		Description: "Soybeans are legumes native to East Asia, widely grown for their edible bean, which has numerous uses. The plant is classed as an oil seed rather than a pulse.",
		CareGuide:   "Soybeans need full sun, moderate water, and warm temperatures between 20-30°C. As legumes, they fix nitrogen but still benefit from phosphorus and potassium fertilizers.",
	},
	{
		Name:        "Cassava",
		Description: "Cassava is a root vegetable widely consumed in developing countries. It provides some carbohydrate nutrition and can be prepared similar to potatoes.",
		CareGuide:   "Cassava is drought-tolerant but performs best with regular watering. It needs full sun, well-draining soil, and temperatures above 18°C. Minimal fertilization is required.",
	},
	{
		Name:        "Chili Pepper",
		Description: "Chili peppers are varieties of the berry-fruit of plants from the genus Capsicum, members of the nightshade family Solanaceae, cultivated for their pungency.",
		CareGuide:   "Chili peppers require full sun, moderate water, and warm temperatures between 20-32°C. They benefit from regular feeding with a potassium-rich fertilizer during fruiting.",
	},
}
