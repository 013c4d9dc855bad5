package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mamelilea/agrowtify-web/internal/middleware"
	"github.com/mamelilea/agrowtify-web/internal/models"
	"github.com/mamelilea/agrowtify-web/internal/services"
)

type ContentHandler struct {
	content *services.ContentService
}

func NewContentHandler(content *services.ContentService) *ContentHandler {
	return &ContentHandler{content: content}
}

type CategoriesResponse struct {
	Success    bool                         `json:"success"`
	Categories []services.CategoryWithCount `json:"categories"`
}

type CategoryResponse struct {
	Success  bool            `json:"success"`
	Message  string          `json:"message"`
	Category models.Category `json:"category"`
}

type GuideListResponse struct {
	Success    bool                      `json:"success"`
	Content    []models.AgroguideContent `json:"content"`
	Pagination services.Pagination       `json:"pagination"`
	Filters    services.ListQuery        `json:"filters"`
}

type GuideResponse struct {
	Success bool                    `json:"success"`
	Message string                  `json:"message,omitempty"`
	Content models.AgroguideContent `json:"content"`
}

type categoryQuery struct {
	IncludeCount bool `schema:"includeCount"`
}

func (h *ContentHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	var q categoryQuery
	if err := decodeQuery(r, &q); err != nil {
		respondError(w, "fetch categories", err)
		return
	}
	cats, err := h.content.ListCategories(r.Context(), q.IncludeCount)
	if err != nil {
		respondError(w, "fetch categories", err)
		return
	}
	writeJSON(w, http.StatusOK, CategoriesResponse{Success: true, Categories: cats})
}

func (h *ContentHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var in services.CategoryInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, "create category", err)
		return
	}
	cat, err := h.content.CreateCategory(r.Context(), in)
	if err != nil {
		respondError(w, "create category", err)
		return
	}
	writeJSON(w, http.StatusCreated, CategoryResponse{Success: true, Message: "Category created successfully", Category: *cat})
}

func (h *ContentHandler) ListGuides(w http.ResponseWriter, r *http.Request) {
	var q services.ListQuery
	if err := decodeQuery(r, &q); err != nil {
		respondError(w, "fetch agroguide content", err)
		return
	}
	guides, page, err := h.content.ListGuides(r.Context(), q)
	if err != nil {
		respondError(w, "fetch agroguide content", err)
		return
	}
	if guides == nil {
		guides = []models.AgroguideContent{}
	}
	writeJSON(w, http.StatusOK, GuideListResponse{Success: true, Content: guides, Pagination: page, Filters: q})
}

func (h *ContentHandler) GetGuide(w http.ResponseWriter, r *http.Request) {
	g, err := h.content.GetGuide(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, "fetch agroguide content", err)
		return
	}
	writeJSON(w, http.StatusOK, GuideResponse{Success: true, Content: *g})
}

func (h *ContentHandler) CreateGuide(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r.Context())
	var in services.GuideInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, "create agroguide content", err)
		return
	}
	g, err := h.content.CreateGuide(r.Context(), user.ID, in)
	if err != nil {
		respondError(w, "create agroguide content", err)
		return
	}
	writeJSON(w, http.StatusCreated, GuideResponse{Success: true, Message: "Content created successfully", Content: *g})
}

func (h *ContentHandler) UpdateGuide(w http.ResponseWriter, r *http.Request) {
	var in services.GuideInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, "update agroguide content", err)
		return
	}
	g, err := h.content.UpdateGuide(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		respondError(w, "update agroguide content", err)
		return
	}
	writeJSON(w, http.StatusOK, GuideResponse{Success: true, Message: "Content updated successfully", Content: *g})
}

func (h *ContentHandler) DeleteGuide(w http.ResponseWriter, r *http.Request) {
	if err := h.content.DeleteGuide(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, "delete agroguide content", err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Success: true, Message: "Content deleted successfully"})
}
