package handlers

import (
	"net/http"

	"github.com/junho-l/pickup-system/middleware"
	"github.com/junho-l/pickup-system/services"
)

type ParticipantHandler struct {
	participationService *services.ParticipationService
}

func NewParticipantHandler(participationService *services.ParticipationService) *ParticipantHandler {
	return &ParticipantHandler{participationService: participationService}
}

// JoinRoom godoc
// @Summary Вступить в комнату
// @Description Вступление атомарно: проверка статуса и вместимости и инкремент счётчика выполняются в одной транзакции.
// @Tags participants
// @Produce json
// @Security BearerAuth
// @Success 201 {object} models.RoomParticipant
// @Failure 404 {object} map[string]string "Комната не найдена"
// @Failure 409 {object} map[string]string "Хост, повторное вступление, набор закрыт или комната заполнена"
// @Router /rooms/{roomID}/join [post]
func (h *ParticipantHandler) JoinRoom(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	roomID, err := getIDFromURL(r, "roomID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	participant, err := h.participationService.JoinRoom(r.Context(), roomID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"participant": participant}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetMyParticipation godoc
// @Summary Моё участие в комнате
// @Tags participants
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.RoomParticipant
// @Failure 404 {object} map[string]string "Пользователь не состоит в комнате"
// @Router /rooms/{roomID}/participation [get]
func (h *ParticipantHandler) GetMyParticipation(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	roomID, err := getIDFromURL(r, "roomID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	participant, err := h.participationService.GetMembership(r.Context(), roomID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"participant": participant}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// LeaveRoom godoc
// @Summary Покинуть комнату
// @Tags participants
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string "Пользователь не состоит в комнате"
// @Router /rooms/{roomID}/leave [delete]
func (h *ParticipantHandler) LeaveRoom(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	roomID, err := getIDFromURL(r, "roomID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.participationService.LeaveRoom(r.Context(), roomID, userID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "left room"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
