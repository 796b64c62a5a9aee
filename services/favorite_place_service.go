package services

import (
	"context"
	"errors"

	"github.com/junho-l/pickup-system/models"
	"github.com/junho-l/pickup-system/places"
	"github.com/junho-l/pickup-system/repositories"
)

// FavoritePlaceService — сохранённые места пользователя.
type FavoritePlaceService struct {
	repo repositories.FavoritePlaceRepository
}

func NewFavoritePlaceService(repo repositories.FavoritePlaceRepository) *FavoritePlaceService {
	return &FavoritePlaceService{repo: repo}
}

func (s *FavoritePlaceService) ListForUser(ctx context.Context, userID int) ([]models.FavoritePlace, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Add сохраняет результат поиска мест как избранное.
func (s *FavoritePlaceService) Add(ctx context.Context, userID int, place places.Place) (*models.FavoritePlace, error) {
	if place.Name == "" || place.Address == "" {
		return nil, ErrValidationFailed
	}

	favorite := &models.FavoritePlace{
		UserID:          userID,
		PlaceName:       place.Name,
		AddressName:     place.Address,
		RoadAddressName: place.RoadAddress,
		Latitude:        place.Latitude,
		Longitude:       place.Longitude,
		Phone:           place.Phone,
	}
	if err := s.repo.Create(ctx, favorite); err != nil {
		return nil, err
	}
	return favorite, nil
}

func (s *FavoritePlaceService) Remove(ctx context.Context, id, userID int) error {
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		if errors.Is(err, repositories.ErrFavoritePlaceNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
