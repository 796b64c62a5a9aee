package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/junho-l/pickup-system/models"
	"github.com/junho-l/pickup-system/repositories"
)

// UserSportService — интересующие пользователя виды спорта с уровнем подготовки.
type UserSportService struct {
	txRunner repositories.TxRunner
	repo     repositories.UserSportRepository
}

func NewUserSportService(txRunner repositories.TxRunner, repo repositories.UserSportRepository) *UserSportService {
	return &UserSportService{txRunner: txRunner, repo: repo}
}

func (s *UserSportService) ListForUser(ctx context.Context, userID int) ([]models.UserSportWithSport, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *UserSportService) ListSportIDs(ctx context.Context, userID int) ([]int, error) {
	return s.repo.ListSportIDsByUser(ctx, userID)
}

// ReplaceAll сохраняет выбор целиком: прежние строки удаляются и вставляются
// новые в одной транзакции. Пустой список валиден — пользователь просто
// не выбрал ни одного вида спорта.
func (s *UserSportService) ReplaceAll(ctx context.Context, userID int, selections []models.UserSportSelection) error {
	seen := make(map[int]bool, len(selections))
	for _, sel := range selections {
		if !models.IsValidSkillLevel(sel.SkillLevel) {
			return ErrInvalidSkillLevel
		}
		if seen[sel.SportID] {
			return fmt.Errorf("%w: duplicate sport %d", ErrValidationFailed, sel.SportID)
		}
		seen[sel.SportID] = true
	}

	return s.txRunner.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.repo.DeleteAllByUser(ctx, exec, userID); err != nil {
			return err
		}
		if err := s.repo.CreateBatch(ctx, exec, userID, selections); err != nil {
			if errors.Is(err, repositories.ErrUserSportSportInvalid) {
				return ErrSportNotFound
			}
			return err
		}
		return nil
	})
}

func (s *UserSportService) Remove(ctx context.Context, userID, sportID int) error {
	if err := s.repo.DeleteByUserAndSport(ctx, userID, sportID); err != nil {
		if errors.Is(err, repositories.ErrUserSportNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
