package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/junho-l/pickup-system/middleware"
	"github.com/junho-l/pickup-system/models"
	"github.com/junho-l/pickup-system/services"
)

type RoomHandler struct {
	roomService   *services.RoomService
	statusService *services.StatusService
}

func NewRoomHandler(roomService *services.RoomService, statusService *services.StatusService) *RoomHandler {
	return &RoomHandler{roomService: roomService, statusService: statusService}
}

// CreateRoom godoc
// @Summary Создать комнату
// @Description Создаёт комнату со статусом recruiting; создатель становится хостом и сразу учитывается в счётчике участников.
// @Tags rooms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 201 {object} models.Room
// @Failure 400 {object} map[string]string "Ошибка валидации"
// @Failure 404 {object} map[string]string "Вид спорта не найден"
// @Router /rooms [post]
func (h *RoomHandler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	hostID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var input models.CreateRoomInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	room, err := h.roomService.CreateRoom(r.Context(), input, hostID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"room": room}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListRooms godoc
// @Summary Список комнат в наборе
// @Description Возвращает предстоящие комнаты со статусом recruiting. Параметры: sport_id, skill_level, q, limit.
// @Tags rooms
// @Produce json
// @Success 200 {array} models.RoomSummary
// @Router /rooms [get]
func (h *RoomHandler) ListRooms(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var filter services.SearchRoomsFilter
	if raw := query.Get("sport_id"); raw != "" {
		sportID, err := strconv.Atoi(raw)
		if err != nil || sportID < 1 {
			badRequestResponse(w, r, errors.New("invalid sport_id parameter"))
			return
		}
		filter.SportID = &sportID
	}
	if raw := query.Get("skill_level"); raw != "" {
		level, err := strconv.Atoi(raw)
		if err != nil {
			badRequestResponse(w, r, errors.New("invalid skill_level parameter"))
			return
		}
		filter.SkillLevel = &level
	}
	if q := query.Get("q"); q != "" {
		filter.TitleQuery = &q
	}

	rooms, err := h.roomService.SearchRooms(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"rooms": rooms}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListFeed godoc
// @Summary Лента набирающих комнат
// @Description Главный экран: ближайшие комнаты в наборе. Параметр limit (по умолчанию 20).
// @Tags rooms
// @Produce json
// @Success 200 {array} models.RoomSummary
// @Router /rooms/feed [get]
func (h *RoomHandler) ListFeed(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			badRequestResponse(w, r, errors.New("invalid limit parameter"))
			return
		}
		limit = parsed
	}

	rooms, err := h.roomService.ListRecruitingRooms(r.Context(), limit)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"rooms": rooms}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListRoomsBySport godoc
// @Summary Набирающие комнаты вида спорта
// @Tags rooms
// @Produce json
// @Success 200 {array} models.RoomSummary
// @Router /sports/{sportID}/rooms [get]
func (h *RoomHandler) ListRoomsBySport(w http.ResponseWriter, r *http.Request) {
	sportID, err := getIDFromURL(r, "sportID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	rooms, err := h.roomService.GetRoomsBySport(r.Context(), sportID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"rooms": rooms}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetRoomDetail godoc
// @Summary Детали комнаты
// @Description Возвращает комнату вместе со списком участников и увеличивает счётчик просмотров.
// @Tags rooms
// @Produce json
// @Success 200 {object} models.RoomDetail
// @Failure 404 {object} map[string]string "Комната не найдена"
// @Router /rooms/{roomID} [get]
func (h *RoomHandler) GetRoomDetail(w http.ResponseWriter, r *http.Request) {
	roomID, err := getIDFromURL(r, "roomID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	detail, err := h.roomService.GetRoomDetail(r.Context(), roomID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	// Счётчик просмотров не критичен для ответа.
	_ = h.roomService.IncrementViewCount(r.Context(), roomID)

	if err := writeJSON(w, http.StatusOK, jsonResponse{"room": detail}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetMyRooms godoc
// @Summary Мои комнаты
// @Description Возвращает комнаты, где пользователь хост, и комнаты, куда он вступил.
// @Tags rooms
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.MyRooms
// @Router /rooms/my [get]
func (h *RoomHandler) GetMyRooms(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	myRooms, err := h.roomService.GetMyRooms(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"rooms": myRooms}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateRoomStatus godoc
// @Summary Сменить статус комнаты
// @Description Доступно только хосту. Допустимые переходы: recruiting→closed, recruiting→cancelled, closed→cancelled.
// @Tags rooms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string "Недопустимый переход"
// @Failure 403 {object} map[string]string "Пользователь не хост"
// @Router /rooms/{roomID}/status [patch]
func (h *RoomHandler) UpdateRoomStatus(w http.ResponseWriter, r *http.Request) {
	callerID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	roomID, err := getIDFromURL(r, "roomID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Status models.RoomStatus `json:"status"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.statusService.UpdateRoomStatus(r.Context(), roomID, callerID, input.Status); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "room status updated"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteRoom godoc
// @Summary Удалить комнату
// @Description Доступно только хосту и только для комнат в статусе cancelled.
// @Tags rooms
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string "Комната не отменена"
// @Failure 403 {object} map[string]string "Пользователь не хост"
// @Router /rooms/{roomID} [delete]
func (h *RoomHandler) DeleteRoom(w http.ResponseWriter, r *http.Request) {
	callerID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	roomID, err := getIDFromURL(r, "roomID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.statusService.DeleteRoom(r.Context(), roomID, callerID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "room deleted"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
