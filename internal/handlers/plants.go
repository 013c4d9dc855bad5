package handlers

import (
	"net/http"

	"github.com/mamelilea/agrowtify-web/internal/models"
	"github.com/mamelilea/agrowtify-web/internal/services"
)

type PlantHandler struct {
	plants *services.PlantService
}

func NewPlantHandler(plants *services.PlantService) *PlantHandler {
	return &PlantHandler{plants: plants}
}

type PlantsResponse struct {
	Success bool           `json:"success"`
	Plants  []models.Plant `json:"plants"`
}

type PlantResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Plant   models.Plant `json:"plant"`
}

func (h *PlantHandler) List(w http.ResponseWriter, r *http.Request) {
	plants, err := h.plants.List(r.Context())
	if err != nil {
		respondError(w, "fetch plants", err)
		return
	}
	if plants == nil {
		plants = []models.Plant{}
	}
	writeJSON(w, http.StatusOK, PlantsResponse{Success: true, Plants: plants})
}

func (h *PlantHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.PlantInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, "create plant", err)
		return
	}
	plant, err := h.plants.Create(r.Context(), in)
	if err != nil {
		respondError(w, "create plant", err)
		return
	}
	writeJSON(w, http.StatusCreated, PlantResponse{Success: true, Message: "Plant created successfully", Plant: *plant})
}
