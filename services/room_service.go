package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/junho-l/pickup-system/models"
	"github.com/junho-l/pickup-system/repositories"
	"golang.org/x/sync/errgroup"
)

// RoomService инкапсулирует создание и чтение комнат.
type RoomService struct {
	roomRepo        repositories.RoomRepository
	sportRepo       repositories.SportRepository
	participantRepo repositories.ParticipantRepository
}

func NewRoomService(
	roomRepo repositories.RoomRepository,
	sportRepo repositories.SportRepository,
	participantRepo repositories.ParticipantRepository,
) *RoomService {
	return &RoomService{
		roomRepo:        roomRepo,
		sportRepo:       sportRepo,
		participantRepo: participantRepo,
	}
}

// CreateRoom валидирует форму и создаёт комнату в статусе recruiting.
// Счётчик участников сразу равен единице: хост учитывается без строки
// в room_participants.
func (s *RoomService) CreateRoom(ctx context.Context, input models.CreateRoomInput, hostID int) (*models.Room, error) {
	if err := s.validateCreateRoom(ctx, input); err != nil {
		return nil, err
	}

	room := &models.Room{
		HostID:              hostID,
		SportID:             input.SportID,
		Title:               strings.TrimSpace(input.Title),
		Description:         input.Description,
		LocationName:        strings.TrimSpace(input.LocationName),
		LocationAddress:     input.LocationAddress,
		Latitude:            input.Latitude,
		Longitude:           input.Longitude,
		PlayDate:            input.PlayDate,
		MaxParticipants:     input.MaxParticipants,
		CurrentParticipants: 1,
		CostPerPerson:       input.CostPerPerson,
		MinSkillLevel:       input.MinSkillLevel,
		MaxSkillLevel:       input.MaxSkillLevel,
		Status:              models.RoomStatusRecruiting,
	}

	if err := s.roomRepo.Create(ctx, room); err != nil {
		if errors.Is(err, repositories.ErrRoomInvalidSport) {
			return nil, ErrSportNotFound
		}
		return nil, fmt.Errorf("failed to persist room: %w", err)
	}
	return room, nil
}

func (s *RoomService) validateCreateRoom(ctx context.Context, input models.CreateRoomInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return ErrRoomTitleRequired
	}
	if strings.TrimSpace(input.LocationName) == "" {
		return ErrRoomLocationRequired
	}
	if !input.PlayDate.After(time.Now()) {
		return ErrRoomPlayDateInPast
	}
	if input.MaxParticipants < 2 {
		return ErrRoomInvalidCapacity
	}
	if !models.IsValidSkillLevel(input.MinSkillLevel) ||
		!models.IsValidSkillLevel(input.MaxSkillLevel) ||
		input.MinSkillLevel > input.MaxSkillLevel {
		return ErrRoomInvalidSkillRange
	}
	if input.CostPerPerson < 0 {
		return ErrRoomInvalidCost
	}

	sport, err := s.sportRepo.GetByID(ctx, input.SportID)
	if err != nil {
		if errors.Is(err, repositories.ErrSportNotFound) {
			return ErrSportNotFound
		}
		return fmt.Errorf("failed to check sport: %w", err)
	}
	if !sport.IsActive {
		return ErrRoomSportInactive
	}
	return nil
}

// GetRoomsBySport — набирающие комнаты вида спорта с игрой в будущем,
// по возрастанию даты игры. Снимок на момент вызова; актуальность
// поддерживается повторным вызовом или подпиской на realtime-сигналы.
func (s *RoomService) GetRoomsBySport(ctx context.Context, sportID int) ([]models.RoomSummary, error) {
	status := models.RoomStatusRecruiting
	now := time.Now()
	return s.roomRepo.ListSummaries(ctx, repositories.ListRoomsFilter{
		SportID:      &sportID,
		Status:       &status,
		PlayDateFrom: &now,
	})
}

// ListRecruitingRooms — лента главного экрана.
func (s *RoomService) ListRecruitingRooms(ctx context.Context, limit int) ([]models.RoomSummary, error) {
	status := models.RoomStatusRecruiting
	now := time.Now()
	return s.roomRepo.ListSummaries(ctx, repositories.ListRoomsFilter{
		Status:       &status,
		PlayDateFrom: &now,
		Limit:        limit,
	})
}

// GetRoomDetail собирает комнату, вид спорта, хоста и ВСЕ строки участников
// независимо от статуса — политику отображения применяет вызывающий.
func (s *RoomService) GetRoomDetail(ctx context.Context, roomID int) (*models.RoomDetail, error) {
	summary, err := s.roomRepo.GetSummaryByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, repositories.ErrRoomNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to load room: %w", err)
	}

	participants, err := s.participantRepo.ListByRoom(ctx, roomID, nil, true)
	if err != nil {
		return nil, fmt.Errorf("failed to load room participants: %w", err)
	}

	return &models.RoomDetail{
		RoomSummary:  *summary,
		Participants: participants,
	}, nil
}

// GetMyRooms возвращает созданные пользователем комнаты и комнаты, где он
// подтверждённый участник. Участие разворачивается в два шага: сперва id
// комнат по подтверждённым строкам, затем сами комнаты. Обе выборки идут
// параллельно.
func (s *RoomService) GetMyRooms(ctx context.Context, userID int) (*models.MyRooms, error) {
	var hosted, participating []models.RoomSummary

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		hosted, err = s.roomRepo.ListSummaries(gCtx, repositories.ListRoomsFilter{HostID: &userID})
		return err
	})

	g.Go(func() error {
		roomIDs, err := s.participantRepo.ListRoomIDsByUser(gCtx, userID, models.ParticipantStatusApproved)
		if err != nil {
			return err
		}
		participating, err = s.roomRepo.ListSummariesByIDs(gCtx, roomIDs)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load user rooms: %w", err)
	}

	return &models.MyRooms{Hosted: hosted, Participating: participating}, nil
}

// SearchRoomsFilter — необязательные условия поиска; пустой фильтр означает
// «все набирающие комнаты с игрой в будущем».
type SearchRoomsFilter struct {
	SportID    *int
	SkillLevel *int
	TitleQuery *string
}

// SearchRooms — конъюнкция условий: вид спорта, попадание уровня в диапазон
// комнаты, подстрока названия без учёта регистра; всегда только набирающие
// комнаты с игрой в будущем, по возрастанию даты игры.
func (s *RoomService) SearchRooms(ctx context.Context, filter SearchRoomsFilter) ([]models.RoomSummary, error) {
	if filter.SkillLevel != nil && !models.IsValidSkillLevel(*filter.SkillLevel) {
		return nil, ErrInvalidSkillLevel
	}

	status := models.RoomStatusRecruiting
	now := time.Now()
	rooms, err := s.roomRepo.ListSummaries(ctx, repositories.ListRoomsFilter{
		SportID:      filter.SportID,
		Status:       &status,
		PlayDateFrom: &now,
		TitleQuery:   filter.TitleQuery,
	})
	if err != nil {
		return nil, err
	}

	if filter.SkillLevel == nil {
		return rooms, nil
	}

	matched := make([]models.RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		if room.MatchesSkillLevel(*filter.SkillLevel) {
			matched = append(matched, room)
		}
	}
	return matched, nil
}

// IncrementViewCount — информационный счётчик просмотров, вне ядра доменных
// правил; ошибка не фатальна для вызывающего.
func (s *RoomService) IncrementViewCount(ctx context.Context, roomID int) error {
	if err := s.roomRepo.IncrementViewCount(ctx, roomID); err != nil {
		if errors.Is(err, repositories.ErrRoomNotFound) {
			return ErrRoomNotFound
		}
		return err
	}
	return nil
}
