package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mamelilea/agrowtify-web/internal/middleware"
	"github.com/mamelilea/agrowtify-web/internal/models"
	"github.com/mamelilea/agrowtify-web/internal/services"
	"github.com/mamelilea/agrowtify-web/pkg/utils"
)

const (
	// maxSubmissionBytes allows five maximum-size videos plus form overhead.
	maxSubmissionBytes = services.MaxMediaFiles*services.MaxVideoBytes + 1<<20
	// multipartMemory is kept in memory; larger parts spill to temp files.
	multipartMemory = 32 << 20
)

type JournalHandler struct {
	journal *services.JournalService
}

func NewJournalHandler(journal *services.JournalService) *JournalHandler {
	return &JournalHandler{journal: journal}
}

// journalEntryForm holds the text fields of a multipart journal submission.
type journalEntryForm struct {
	Title   string `schema:"title" validate:"max=255"`
	Date    string `schema:"date"`
	PlantID string `schema:"plantId" validate:"omitempty,uuid"`
	Answers string `schema:"answers"`
}

type JournalEntryResponse struct {
	Success bool                `json:"success"`
	Message string              `json:"message,omitempty"`
	Journal models.JournalEntry `json:"journal"`
}

// JournalListItem is the summary shape of the entry list.
type JournalListItem struct {
	ID       string         `json:"id"`
	Title    string         `json:"title"`
	Date     int64          `json:"date"`
	Content  string         `json:"content"`
	ImageURL string         `json:"imageUrl,omitempty"`
	Media    []models.Media `json:"media"`
	Plant    *models.Plant  `json:"plant"`
}

type JournalListResponse struct {
	Success  bool              `json:"success"`
	Journals []JournalListItem `json:"journals"`
}

type QuestionsResponse struct {
	Success   bool                     `json:"success"`
	Questions []models.JournalQuestion `json:"questions"`
}

type QuestionResponse struct {
	Success  bool                   `json:"success"`
	Message  string                 `json:"message"`
	Question models.JournalQuestion `json:"question"`
}

// CreateEntry handles POST /api/agrocare/journal/entries (multipart/form-data).
func (h *JournalHandler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxSubmissionBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusBadRequest, "Submission is too large")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	in, err := parseEntryForm(r)
	if err != nil {
		respondError(w, "create journal entry", err)
		return
	}
	in.UserID = user.ID

	entry, err := h.journal.CreateEntry(r.Context(), *in)
	if err != nil {
		respondError(w, "create journal entry", err)
		return
	}
	writeJSON(w, http.StatusCreated, JournalEntryResponse{
		Success: true,
		Message: "Journal berhasil disimpan",
		Journal: *entry,
	})
}

func parseEntryForm(r *http.Request) (*services.CreateEntryInput, error) {
	var form journalEntryForm
	if err := formDecoder.Decode(&form, r.MultipartForm.Value); err != nil {
		return nil, queryError(err)
	}
	if err := utils.Validate(form); err != nil {
		return nil, err
	}

	in := &services.CreateEntryInput{
		Title:   form.Title,
		PlantID: form.PlantID,
	}
	if strings.TrimSpace(form.Date) != "" {
		d, err := services.ParseEntryDate(form.Date)
		if err != nil {
			return nil, err
		}
		in.Date = &d
	}
	if strings.TrimSpace(form.Answers) != "" {
		if err := json.Unmarshal([]byte(form.Answers), &in.Answers); err != nil {
			return nil, utils.NewValidationError("answers", "answers must be a JSON array of {questionId, text}")
		}
	}
	for _, fh := range r.MultipartForm.File["media"] {
		in.Media = append(in.Media, services.MediaUploadFromHeader(fh))
	}
	return in, nil
}

// ListEntries handles GET /api/agrocare/journal/entries.
func (h *JournalHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r.Context())

	var q services.ListEntriesQuery
	if err := decodeQuery(r, &q); err != nil {
		respondError(w, "list journal entries", err)
		return
	}
	entries, err := h.journal.ListEntries(r.Context(), user.ID, q)
	if err != nil {
		respondError(w, "list journal entries", err)
		return
	}

	items := make([]JournalListItem, 0, len(entries))
	for i := range entries {
		e := &entries[i]
		media := e.Media
		if media == nil {
			media = []models.Media{}
		}
		items = append(items, JournalListItem{
			ID:       e.ID,
			Title:    e.DisplayTitle(),
			Date:     e.Date.Unix(),
			Content:  e.Summary(),
			ImageURL: e.FirstImageURL(),
			Media:    media,
			Plant:    e.Plant,
		})
	}
	writeJSON(w, http.StatusOK, JournalListResponse{Success: true, Journals: items})
}

// GetEntry handles GET /api/agrocare/journal/entries/{id}.
func (h *JournalHandler) GetEntry(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r.Context())
	entry, err := h.journal.GetEntry(r.Context(), user.ID, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, "get journal entry", err)
		return
	}
	writeJSON(w, http.StatusOK, JournalEntryResponse{Success: true, Journal: *entry})
}

// UpdateEntryRequest is the PATCH body; absent fields stay unchanged.
type UpdateEntryRequest struct {
	Title   *string `json:"title" validate:"omitempty,max=255"`
	Date    *string `json:"date"`
	PlantID *string `json:"plantId"`
}

// UpdateEntry handles PATCH /api/agrocare/journal/entries/{id}.
func (h *JournalHandler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r.Context())

	var req UpdateEntryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, "update journal entry", err)
		return
	}
	if err := utils.Validate(req); err != nil {
		respondError(w, "update journal entry", err)
		return
	}
	in := services.UpdateEntryInput{Title: req.Title, PlantID: req.PlantID}
	if req.Date != nil {
		d, err := services.ParseEntryDate(*req.Date)
		if err != nil {
			respondError(w, "update journal entry", err)
			return
		}
		in.Date = &d
	}

	entry, err := h.journal.UpdateEntry(r.Context(), user.ID, chi.URLParam(r, "id"), in)
	if err != nil {
		respondError(w, "update journal entry", err)
		return
	}
	writeJSON(w, http.StatusOK, JournalEntryResponse{Success: true, Message: "Journal updated", Journal: *entry})
}

// DeleteEntry handles DELETE /api/agrocare/journal/entries/{id}.
func (h *JournalHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r.Context())
	if err := h.journal.DeleteEntry(r.Context(), user.ID, chi.URLParam(r, "id")); err != nil {
		respondError(w, "delete journal entry", err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Success: true, Message: "Journal deleted"})
}

func (h *JournalHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := h.journal.ListQuestions(r.Context())
	if err != nil {
		respondError(w, "list journal questions", err)
		return
	}
	if questions == nil {
		questions = []models.JournalQuestion{}
	}
	writeJSON(w, http.StatusOK, QuestionsResponse{Success: true, Questions: questions})
}

func (h *JournalHandler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	var in services.QuestionInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, "create journal question", err)
		return
	}
	q, err := h.journal.CreateQuestion(r.Context(), in)
	if err != nil {
		respondError(w, "create journal question", err)
		return
	}
	writeJSON(w, http.StatusCreated, QuestionResponse{Success: true, Message: "Question created", Question: *q})
}
