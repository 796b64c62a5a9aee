package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/junho-l/pickup-system/middleware"
	"github.com/junho-l/pickup-system/models"
	"github.com/junho-l/pickup-system/services"
)

const maxAvatarSize = 5 << 20 // 5 MB

type UserHandler struct {
	userService      *services.UserService
	userSportService *services.UserSportService
}

func NewUserHandler(userService *services.UserService, userSportService *services.UserSportService) *UserHandler {
	return &UserHandler{userService: userService, userSportService: userSportService}
}

// GetMe godoc
// @Summary Текущий профиль
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User
// @Router /users/me [get]
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"user": user}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateProfile godoc
// @Summary Обновить профиль
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User
// @Failure 400 {object} map[string]string "Ошибка валидации"
// @Failure 409 {object} map[string]string "Никнейм занят"
// @Router /users/me [patch]
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var input models.UpdateProfileInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), userID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"user": user}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UploadAvatar godoc
// @Summary Загрузить аватар
// @Description Принимает multipart-форму с полем avatar, кладёт файл в объектное хранилище и обновляет профиль.
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User
// @Failure 400 {object} map[string]string "Файл отсутствует или слишком большой"
// @Router /users/me/avatar [post]
func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarSize)
	if err := r.ParseMultipartForm(maxAvatarSize); err != nil {
		badRequestResponse(w, r, errors.New("avatar file is missing or too large"))
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		badRequestResponse(w, r, errors.New("avatar file is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	user, err := h.userService.UploadAvatar(r.Context(), userID, header.Header.Get("Content-Type"), data)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"user": user}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetStats godoc
// @Summary Статистика пользователя
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.UserStats
// @Router /users/me/stats [get]
func (h *UserHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	stats, err := h.userService.GetStats(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"stats": stats}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetMySports godoc
// @Summary Мои виды спорта
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.UserSportWithSport
// @Router /users/me/sports [get]
func (h *UserHandler) GetMySports(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	sports, err := h.userSportService.ListForUser(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"sports": sports}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SaveMySports godoc
// @Summary Сохранить виды спорта
// @Description Полностью заменяет набор видов спорта пользователя переданным списком.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string "Недопустимый уровень или дубликаты"
// @Router /users/me/sports [put]
func (h *UserHandler) SaveMySports(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var input struct {
		Sports []models.UserSportSelection `json:"sports"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.userSportService.ReplaceAll(r.Context(), userID, input.Sports); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "sports updated"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RemoveMySport godoc
// @Summary Убрать вид спорта
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string "Вид спорта не выбран пользователем"
// @Router /users/me/sports/{sportID} [delete]
func (h *UserHandler) RemoveMySport(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	sportID, err := getIDFromURL(r, "sportID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.userSportService.Remove(r.Context(), userID, sportID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "sport removed"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
