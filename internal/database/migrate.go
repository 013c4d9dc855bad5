package database

import (
	"log"

	"gorm.io/gorm"

	"github.com/mamelilea/agrowtify-web/internal/models"
)

// Migrate creates or updates every table the service owns.
// Each model is migrated on its own so one failure does not block the rest.
func Migrate(db *gorm.DB) error {
	tables := []struct {
		name  string
		model interface{}
	}{
		{"users", &models.User{}},
		{"plants", &models.Plant{}},
		{"categories", &models.Category{}},
		{"journal_questions", &models.JournalQuestion{}},
		{"journal_entries", &models.JournalEntry{}},
		{"journal_answers", &models.JournalAnswer{}},
		{"journal_media", &models.Media{}},
		{"agroguide_contents", &models.AgroguideContent{}},
		{"events", &models.Event{}},
	}

	var firstErr error
	for _, t := range tables {
		if err := db.AutoMigrate(t.model); err != nil {
			log.Printf("migration warning (%s): %v", t.name, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if firstErr == nil {
		log.Println("✅ Database schema migrated")
	}
	return firstErr
}
