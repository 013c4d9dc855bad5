package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mamelilea/agrowtify-web/internal/models"
	"github.com/mamelilea/agrowtify-web/pkg/utils"
)

const (
	DefaultUploadTimeout = 2 * time.Minute
	compensationTimeout  = 30 * time.Second
)

// JournalService owns journal entries, their answers and their media.
type JournalService struct {
	db            *gorm.DB
	media         MediaHost
	uploadTimeout time.Duration
	now           func() time.Time
}

// NewJournalService wires the service. media may be nil, in which case
// submissions carrying files fail with ErrMediaHostMissing.
func NewJournalService(db *gorm.DB, media MediaHost, uploadTimeout time.Duration) *JournalService {
	if uploadTimeout <= 0 {
		uploadTimeout = DefaultUploadTimeout
	}
	return &JournalService{db: db, media: media, uploadTimeout: uploadTimeout, now: time.Now}
}

type AnswerInput struct {
	QuestionID string `json:"questionId"`
	Text       string `json:"text"`
}

type CreateEntryInput struct {
	UserID  string
	Title   string
	Date    *time.Time
	PlantID string
	Answers []AnswerInput
	Media   []MediaUpload
}

type storedAsset struct {
	asset *UploadedAsset
	kind  models.MediaType
}

// CreateEntry runs a whole journal submission. Every check happens before the
// first side effect; uploads run next, one at a time, and the entry, answers and
// media rows are written in a single transaction. A failed upload or transaction
// destroys whatever already reached the media host.
func (s *JournalService) CreateEntry(ctx context.Context, in CreateEntryInput) (*models.JournalEntry, error) {
	kinds, err := ValidateMediaUploads(in.Media)
	if err != nil {
		return nil, err
	}
	if err := s.checkAnswers(ctx, in.Answers); err != nil {
		return nil, err
	}
	plantID, err := s.checkPlant(ctx, in.PlantID)
	if err != nil {
		return nil, err
	}
	if len(in.Media) > 0 && s.media == nil {
		return nil, &UploadError{Filename: displayName(in.Media[0]), Err: ErrMediaHostMissing}
	}

	now := s.now()
	entry := models.JournalEntry{
		ID:      models.NewID(),
		UserID:  in.UserID,
		Title:   strings.TrimSpace(in.Title),
		Date:    now,
		PlantID: plantID,
	}
	if in.Date != nil {
		entry.Date = *in.Date
	}
	if entry.Title == "" {
		entry.Title = models.DefaultJournalTitle(now)
	}

	assets, err := s.uploadAll(ctx, entry.ID, in.Media, kinds)
	if err != nil {
		return nil, err
	}

	answers := make([]models.JournalAnswer, 0, len(in.Answers))
	for _, a := range in.Answers {
		answers = append(answers, models.JournalAnswer{
			EntryID:    entry.ID,
			QuestionID: strings.TrimSpace(a.QuestionID),
			Answer:     strings.TrimSpace(a.Text),
		})
	}
	media := make([]models.Media, 0, len(assets))
	for i, a := range assets {
		media = append(media, models.Media{
			EntryID:  entry.ID,
			URL:      a.asset.URL,
			FileKey:  a.asset.FileKey,
			Type:     a.kind,
			Position: i,
		})
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&entry).Error; err != nil {
			return fmt.Errorf("create journal entry: %w", err)
		}
		if len(answers) > 0 {
			if err := tx.Create(&answers).Error; err != nil {
				return fmt.Errorf("create journal answers: %w", err)
			}
		}
		if len(media) > 0 {
			if err := tx.Create(&media).Error; err != nil {
				return fmt.Errorf("create journal media: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		s.discardAssets(ctx, assets)
		return nil, err
	}

	entry.Answers = answers
	entry.Media = media
	return &entry, nil
}

// checkAnswers rejects unknown or repeated questions and lists every required
// question left blank.
func (s *JournalService) checkAnswers(ctx context.Context, answers []AnswerInput) error {
	var questions []models.JournalQuestion
	if err := s.db.WithContext(ctx).Order("order_index asc").Find(&questions).Error; err != nil {
		return fmt.Errorf("load journal questions: %w", err)
	}
	known := make(map[string]*models.JournalQuestion, len(questions))
	for i := range questions {
		known[questions[i].ID] = &questions[i]
	}

	submitted := make(map[string]string, len(answers))
	for _, a := range answers {
		id := strings.TrimSpace(a.QuestionID)
		if id == "" {
			return utils.NewValidationError("answers", "Every answer needs a questionId")
		}
		q, ok := known[id]
		if !ok {
			return utils.NewValidationError("answers", fmt.Sprintf("Unknown question %q", id))
		}
		if _, dup := submitted[id]; dup {
			return utils.NewValidationError("answers", fmt.Sprintf("Question %q is answered more than once", id))
		}
		text := strings.TrimSpace(a.Text)
		if text != "" && !answerMatchesOptions(q, text) {
			return utils.NewValidationError("answers", fmt.Sprintf("%q is not an option of %q", text, q.Question))
		}
		submitted[id] = text
	}

	var missing []string
	for _, q := range questions {
		if q.Required && submitted[q.ID] == "" {
			missing = append(missing, q.Question)
		}
	}
	if len(missing) > 0 {
		return utils.NewValidationError("answers", "Please answer all required questions: "+strings.Join(missing, ", "))
	}
	return nil
}

// answerMatchesOptions requires SELECT and RADIO answers to be one of the
// question's options. Other types take free text.
func answerMatchesOptions(q *models.JournalQuestion, text string) bool {
	if q.Type != models.QuestionSelect && q.Type != models.QuestionRadio {
		return true
	}
	options := q.OptionList()
	if len(options) == 0 {
		return true
	}
	for _, o := range options {
		if o == text {
			return true
		}
	}
	return false
}

func (s *JournalService) checkPlant(ctx context.Context, plantID string) (*string, error) {
	plantID = strings.TrimSpace(plantID)
	if plantID == "" {
		return nil, nil
	}
	if !models.IsID(plantID) {
		return nil, utils.NewValidationError("plantId", "Plant not found")
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Plant{}).Where("id = ?", plantID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("look up plant: %w", err)
	}
	if count == 0 {
		return nil, utils.NewValidationError("plantId", "Plant not found")
	}
	return &plantID, nil
}

func (s *JournalService) uploadAll(ctx context.Context, entryID string, uploads []MediaUpload, kinds []models.MediaType) ([]storedAsset, error) {
	folder := JournalMediaFolder(entryID)
	done := make([]storedAsset, 0, len(uploads))
	for i, u := range uploads {
		asset, err := s.uploadOne(ctx, folder, u, kinds[i])
		if err != nil {
			s.discardAssets(ctx, done)
			return nil, &UploadError{Filename: displayName(u), Err: err}
		}
		done = append(done, storedAsset{asset: asset, kind: kinds[i]})
	}
	return done, nil
}

func (s *JournalService) uploadOne(ctx context.Context, folder string, u MediaUpload, kind models.MediaType) (*UploadedAsset, error) {
	if u.Open == nil {
		return nil, errors.New("file has no content")
	}
	rc, err := u.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	uploadCtx, cancel := context.WithTimeout(ctx, s.uploadTimeout)
	defer cancel()
	return s.media.Upload(uploadCtx, rc, UploadOptions{Folder: folder, Kind: kind, Filename: u.Filename})
}

// discardAssets undoes uploads after a failed submission. It runs detached from
// the request so a disconnected client does not leave assets behind.
func (s *JournalService) discardAssets(ctx context.Context, assets []storedAsset) {
	if len(assets) == 0 || s.media == nil {
		return
	}
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()
	for _, a := range assets {
		if err := s.media.Destroy(cctx, a.asset.FileKey, a.kind); err != nil {
			log.Printf("⚠️  WARNING: failed to remove orphaned media %s: %v", a.asset.FileKey, err)
		}
	}
}

// ListEntriesQuery is decoded from the query string of the entry list.
type ListEntriesQuery struct {
	Limit     int    `schema:"limit" default:"10" validate:"min=1,max=100"`
	SortBy    string `schema:"sortBy" default:"date" validate:"oneof=date createdAt title"`
	SortOrder string `schema:"sortOrder" default:"desc" validate:"oneof=asc desc"`
}

var entrySortColumns = map[string]string{
	"date":      "date",
	"createdAt": "created_at",
	"title":     "title",
}

// ListEntries returns the caller's entries with plant, media and answers loaded.
func (s *JournalService) ListEntries(ctx context.Context, userID string, q ListEntriesQuery) ([]models.JournalEntry, error) {
	if err := utils.Validate(q); err != nil {
		return nil, err
	}
	var entries []models.JournalEntry
	err := s.entryQuery(ctx).
		Where("user_id = ?", userID).
		Order(clause.OrderByColumn{Column: clause.Column{Name: entrySortColumns[q.SortBy]}, Desc: q.SortOrder == "desc"}).
		Limit(q.Limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("list journal entries: %w", err)
	}
	return entries, nil
}

// GetEntry loads one entry, refusing entries owned by someone else.
func (s *JournalService) GetEntry(ctx context.Context, userID, entryID string) (*models.JournalEntry, error) {
	if !models.IsID(entryID) {
		return nil, ErrNotFound
	}
	var entry models.JournalEntry
	err := s.entryQuery(ctx).Where("id = ?", entryID).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get journal entry: %w", err)
	}
	if entry.UserID != userID {
		return nil, ErrForbidden
	}
	return &entry, nil
}

func (s *JournalService) entryQuery(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Preload("Plant").
		Preload("Media", func(db *gorm.DB) *gorm.DB { return db.Order("position asc") }).
		Preload("Answers.Question")
}

// UpdateEntryInput carries the only fields that may change after creation.
// A nil field is left as is; an empty PlantID clears the plant.
type UpdateEntryInput struct {
	Title   *string
	Date    *time.Time
	PlantID *string
}

func (s *JournalService) UpdateEntry(ctx context.Context, userID, entryID string, in UpdateEntryInput) (*models.JournalEntry, error) {
	entry, err := s.GetEntry(ctx, userID, entryID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if len(title) > 255 {
			return nil, utils.NewValidationError("title", "title must be at most 255 characters")
		}
		updates["title"] = title
	}
	if in.Date != nil {
		updates["date"] = *in.Date
	}
	if in.PlantID != nil {
		plantID, err := s.checkPlant(ctx, *in.PlantID)
		if err != nil {
			return nil, err
		}
		updates["plant_id"] = plantID
	}
	if len(updates) == 0 {
		return entry, nil
	}

	if err := s.db.WithContext(ctx).Model(&models.JournalEntry{ID: entry.ID}).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update journal entry: %w", err)
	}
	return s.GetEntry(ctx, userID, entryID)
}

// DeleteEntry removes the entry's media from the host, then the rows themselves.
// A failed remote delete is logged and does not keep the entry alive.
func (s *JournalService) DeleteEntry(ctx context.Context, userID, entryID string) error {
	entry, err := s.GetEntry(ctx, userID, entryID)
	if err != nil {
		return err
	}

	if s.media != nil {
		for _, m := range entry.Media {
			if err := s.media.Destroy(ctx, m.FileKey, m.Type); err != nil {
				log.Printf("⚠️  WARNING: failed to delete media %s of entry %s: %v", m.FileKey, entry.ID, err)
			}
		}
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("entry_id = ?", entry.ID).Delete(&models.Media{}).Error; err != nil {
			return fmt.Errorf("delete journal media: %w", err)
		}
		if err := tx.Where("entry_id = ?", entry.ID).Delete(&models.JournalAnswer{}).Error; err != nil {
			return fmt.Errorf("delete journal answers: %w", err)
		}
		if err := tx.Delete(&models.JournalEntry{ID: entry.ID}).Error; err != nil {
			return fmt.Errorf("delete journal entry: %w", err)
		}
		return nil
	})
}

// ParseEntryDate accepts a calendar date (2006-01-02) or an RFC 3339 timestamp.
func ParseEntryDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, utils.NewValidationError("date", "date must be YYYY-MM-DD or an RFC 3339 timestamp")
}

// QuestionInput creates a journal question.
type QuestionInput struct {
	Question   string              `json:"question" validate:"required,max=1000"`
	Type       models.QuestionType `json:"type"`
	Required   bool                `json:"required"`
	OrderIndex *int                `json:"orderIndex" validate:"required,min=0"`
	Options    []string            `json:"options" validate:"omitempty,dive,required"`
}

func (s *JournalService) ListQuestions(ctx context.Context) ([]models.JournalQuestion, error) {
	var questions []models.JournalQuestion
	if err := s.db.WithContext(ctx).Order("order_index asc").Find(&questions).Error; err != nil {
		return nil, fmt.Errorf("list journal questions: %w", err)
	}
	return questions, nil
}

func (s *JournalService) CreateQuestion(ctx context.Context, in QuestionInput) (*models.JournalQuestion, error) {
	in.Question = strings.TrimSpace(in.Question)
	if err := utils.Validate(in); err != nil {
		return nil, err
	}
	if in.Type == "" {
		in.Type = models.QuestionText
	}
	if !in.Type.Valid() {
		return nil, utils.NewValidationError("type", "type must be one of TEXT, TEXTAREA, SELECT, RADIO or CHECKBOX")
	}
	selectable := in.Type == models.QuestionSelect || in.Type == models.QuestionRadio || in.Type == models.QuestionCheckbox
	if selectable && len(in.Options) == 0 {
		return nil, utils.NewValidationError("options", "options are required for "+string(in.Type)+" questions")
	}

	q := models.JournalQuestion{
		Question:   in.Question,
		Type:       in.Type,
		Required:   in.Required,
		OrderIndex: *in.OrderIndex,
	}
	if len(in.Options) > 0 {
		raw, err := json.Marshal(in.Options)
		if err != nil {
			return nil, err
		}
		q.Options = datatypes.JSON(raw)
	}
	if err := s.db.WithContext(ctx).Create(&q).Error; err != nil {
		return nil, fmt.Errorf("create journal question: %w", err)
	}
	return &q, nil
}

var defaultQuestions = []models.JournalQuestion{
	{Question: "Kondisi tanaman", Type: models.QuestionTextarea, Required: true, OrderIndex: 0},
	{Question: "Aktivitas hari ini", Type: models.QuestionTextarea, OrderIndex: 1},
	{Question: "Perubahan tercatat", Type: models.QuestionTextarea, OrderIndex: 2},
	{Question: "Catatan tambahan", Type: models.QuestionTextarea, OrderIndex: 3},
}

// SeedDefaultQuestions fills an empty question table with the standard diary prompts.
func (s *JournalService) SeedDefaultQuestions(ctx context.Context) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.JournalQuestion{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	questions := make([]models.JournalQuestion, len(defaultQuestions))
	copy(questions, defaultQuestions)
	if err := s.db.WithContext(ctx).Create(&questions).Error; err != nil {
		return err
	}
	log.Printf("✅ Seeded %d default journal questions", len(questions))
	return nil
}
