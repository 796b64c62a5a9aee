package handlers

import (
	"net/http"

	"github.com/junho-l/pickup-system/services"
)

type SportHandler struct {
	sportService *services.SportService
}

func NewSportHandler(sportService *services.SportService) *SportHandler {
	return &SportHandler{sportService: sportService}
}

// ListSports godoc
// @Summary Список активных видов спорта
// @Tags sports
// @Produce json
// @Success 200 {array} models.Sport
// @Router /sports [get]
func (h *SportHandler) ListSports(w http.ResponseWriter, r *http.Request) {
	sports, err := h.sportService.ListActive(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"sports": sports}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
