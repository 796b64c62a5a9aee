package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/junho-l/pickup-system/middleware"
	"github.com/junho-l/pickup-system/places"
	"github.com/junho-l/pickup-system/services"
)

type PlaceHandler struct {
	searcher             places.Searcher
	favoritePlaceService *services.FavoritePlaceService
}

func NewPlaceHandler(searcher places.Searcher, favoritePlaceService *services.FavoritePlaceService) *PlaceHandler {
	return &PlaceHandler{searcher: searcher, favoritePlaceService: favoritePlaceService}
}

// SearchPlaces godoc
// @Summary Поиск площадок по ключевому слову
// @Description Проксирует поиск мест во внешний геосервис. Параметры: q (обязателен), lon, lat, radius.
// @Tags places
// @Produce json
// @Security BearerAuth
// @Success 200 {array} places.Place
// @Failure 400 {object} map[string]string "Пустой запрос"
// @Router /places/search [get]
func (h *PlaceHandler) SearchPlaces(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		badRequestResponse(w, r, errors.New("query parameter q is required"))
		return
	}

	var opts places.SearchOptions
	if raw := r.URL.Query().Get("lon"); raw != "" {
		lon, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			badRequestResponse(w, r, errors.New("invalid lon parameter"))
			return
		}
		opts.Longitude = &lon
	}
	if raw := r.URL.Query().Get("lat"); raw != "" {
		lat, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			badRequestResponse(w, r, errors.New("invalid lat parameter"))
			return
		}
		opts.Latitude = &lat
	}
	if raw := r.URL.Query().Get("radius"); raw != "" {
		radius, err := strconv.Atoi(raw)
		if err != nil {
			badRequestResponse(w, r, errors.New("invalid radius parameter"))
			return
		}
		opts.Radius = &radius
	}

	results, err := h.searcher.Search(r.Context(), query, &opts)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"places": results}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListFavoritePlaces godoc
// @Summary Избранные площадки пользователя
// @Tags places
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.FavoritePlace
// @Router /places/favorites [get]
func (h *PlaceHandler) ListFavoritePlaces(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	favorites, err := h.favoritePlaceService.ListForUser(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"favorites": favorites}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// AddFavoritePlace godoc
// @Summary Добавить площадку в избранное
// @Tags places
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 201 {object} models.FavoritePlace
// @Failure 400 {object} map[string]string "Ошибка валидации"
// @Router /places/favorites [post]
func (h *PlaceHandler) AddFavoritePlace(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var place places.Place
	if err := readJSON(w, r, &place); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	favorite, err := h.favoritePlaceService.Add(r.Context(), userID, place)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"favorite": favorite}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RemoveFavoritePlace godoc
// @Summary Убрать площадку из избранного
// @Tags places
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string "Запись не найдена"
// @Router /places/favorites/{favoriteID} [delete]
func (h *PlaceHandler) RemoveFavoritePlace(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	favoriteID, err := getIDFromURL(r, "favoriteID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.favoritePlaceService.Remove(r.Context(), favoriteID, userID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "favorite removed"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
