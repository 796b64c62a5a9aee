package services

import (
	"context"
	"errors"

	"github.com/junho-l/pickup-system/models"
	"github.com/junho-l/pickup-system/repositories"
)

// SportService читает справочник видов спорта.
type SportService struct {
	repo repositories.SportRepository
}

func NewSportService(repo repositories.SportRepository) *SportService {
	return &SportService{repo: repo}
}

func (s *SportService) ListActive(ctx context.Context) ([]models.Sport, error) {
	return s.repo.ListActive(ctx)
}

func (s *SportService) GetByID(ctx context.Context, id int) (*models.Sport, error) {
	sport, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrSportNotFound) {
			return nil, ErrSportNotFound
		}
		return nil, err
	}
	return sport, nil
}
