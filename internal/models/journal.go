package models

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type QuestionType string

const (
	QuestionText     QuestionType = "TEXT"
	QuestionTextarea QuestionType = "TEXTAREA"
	QuestionSelect   QuestionType = "SELECT"
	QuestionRadio    QuestionType = "RADIO"
	QuestionCheckbox QuestionType = "CHECKBOX"
)

// Valid reports whether t is one of the known question types.
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionText, QuestionTextarea, QuestionSelect, QuestionRadio, QuestionCheckbox:
		return true
	}
	return false
}

type MediaType string

const (
	MediaImage MediaType = "IMAGE"
	MediaVideo MediaType = "VIDEO"
)

// JournalQuestion is a predefined prompt shown on every journal submission.
type JournalQuestion struct {
	ID         string         `gorm:"type:uuid;primaryKey" json:"id"`
	Question   string         `gorm:"type:text;not null" json:"question"`
	Type       QuestionType   `gorm:"size:16;not null;default:TEXT" json:"type"`
	Required   bool           `gorm:"not null;default:false" json:"required"`
	OrderIndex int            `gorm:"not null;index" json:"orderIndex"`
	Options    datatypes.JSON `json:"options,omitempty"` // choices for SELECT, RADIO and CHECKBOX
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

func (q *JournalQuestion) BeforeCreate(tx *gorm.DB) error {
	assignID(&q.ID)
	if q.Type == "" {
		q.Type = QuestionText
	}
	return nil
}

// OptionList decodes Options; an empty or malformed column yields nil.
func (q *JournalQuestion) OptionList() []string {
	if len(q.Options) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(q.Options, &out); err != nil {
		return nil
	}
	return out
}

// JournalEntry is one day's farming-diary submission.
type JournalEntry struct {
	ID        string          `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    string          `gorm:"type:uuid;not null;index" json:"userId"`
	Title     string          `gorm:"size:255" json:"title"`
	Date      time.Time       `gorm:"not null;index" json:"date"`
	PlantID   *string         `gorm:"type:uuid;index" json:"plantId"`
	Plant     *Plant          `gorm:"foreignKey:PlantID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"plant,omitempty"`
	Answers   []JournalAnswer `gorm:"foreignKey:EntryID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"answers"`
	Media     []Media         `gorm:"foreignKey:EntryID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"media"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func (e *JournalEntry) BeforeCreate(tx *gorm.DB) error {
	assignID(&e.ID)
	return nil
}

// DisplayTitle falls back to "Journal <d/m/yyyy>", the id-ID short date of the entry.
func (e *JournalEntry) DisplayTitle() string {
	if e.Title != "" {
		return e.Title
	}
	return DefaultJournalTitle(e.Date)
}

// DefaultJournalTitle formats t the way the id-ID locale prints a short date.
func DefaultJournalTitle(t time.Time) string {
	return "Journal " + t.Format("2/1/2006")
}

// FirstImageURL returns the URL of the first IMAGE attachment, or "".
func (e *JournalEntry) FirstImageURL() string {
	for _, m := range e.Media {
		if m.Type == MediaImage {
			return m.URL
		}
	}
	return ""
}

// Summary joins the non-blank answers in question order.
func (e *JournalEntry) Summary() string {
	answers := make([]JournalAnswer, len(e.Answers))
	copy(answers, e.Answers)
	sort.SliceStable(answers, func(i, j int) bool {
		return answerOrder(answers[i]) < answerOrder(answers[j])
	})
	parts := make([]string, 0, len(answers))
	for _, a := range answers {
		if t := strings.TrimSpace(a.Answer); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

func answerOrder(a JournalAnswer) int {
	if a.Question == nil {
		return int(^uint(0) >> 1)
	}
	return a.Question.OrderIndex
}

// JournalAnswer is one response to one question within one entry.
type JournalAnswer struct {
	ID         string           `gorm:"type:uuid;primaryKey" json:"id"`
	EntryID    string           `gorm:"type:uuid;not null;index" json:"entryId"`
	QuestionID string           `gorm:"type:uuid;not null;index" json:"questionId"`
	Question   *JournalQuestion `gorm:"foreignKey:QuestionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"question,omitempty"`
	Answer     string           `gorm:"type:text;not null" json:"answer"`
	CreatedAt  time.Time        `json:"createdAt"`
}

func (a *JournalAnswer) BeforeCreate(tx *gorm.DB) error {
	assignID(&a.ID)
	return nil
}

// Media is an uploaded image or video bound to a journal entry.
type Media struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	EntryID   string    `gorm:"type:uuid;not null;index" json:"entryId"`
	URL       string    `gorm:"type:text;not null" json:"url"`
	FileKey   string    `gorm:"size:512;not null" json:"fileKey"` // media host public id
	Type      MediaType `gorm:"size:8;not null" json:"type"`
	Position  int       `gorm:"not null;default:0" json:"position"` // upload order within the entry
	CreatedAt time.Time `json:"createdAt"`
}

func (Media) TableName() string { return "journal_media" }

func (m *Media) BeforeCreate(tx *gorm.DB) error {
	assignID(&m.ID)
	return nil
}
