package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/junho-l/pickup-system/models"
	"github.com/lib/pq"
)

var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrRoomInvalidSport = errors.New("invalid sport reference")
	ErrRoomInvalidHost  = errors.New("invalid host reference")

	// Условное обновление счётчика не прошло: комната заполнена либо
	// уже не в статусе recruiting. Проверка и инкремент — один UPDATE,
	// поэтому гонка двух одновременных вступлений исключена на стороне БД.
	ErrRoomCapacityExceeded = errors.New("room is full or no longer recruiting")
)

// ListRoomsFilter — параметры выборки комнат для списков и поиска.
type ListRoomsFilter struct {
	SportID      *int
	HostID       *int
	Status       *models.RoomStatus
	PlayDateFrom *time.Time
	TitleQuery   *string // подстрока названия, без учёта регистра
	Limit        int
}

type RoomRepository interface {
	Create(ctx context.Context, room *models.Room) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Room, error)
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Room, error)
	GetSummaryByID(ctx context.Context, id int) (*models.RoomSummary, error)
	ListSummaries(ctx context.Context, filter ListRoomsFilter) ([]models.RoomSummary, error)
	ListSummariesByIDs(ctx context.Context, ids []int) ([]models.RoomSummary, error)
	IncrementParticipants(ctx context.Context, exec SQLExecutor, id int) error
	DecrementParticipants(ctx context.Context, exec SQLExecutor, id int) error
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.RoomStatus) error
	Delete(ctx context.Context, id int) error
	IncrementViewCount(ctx context.Context, id int) error
	CountByHost(ctx context.Context, hostID int) (int, error)
	ListExpired(ctx context.Context, exec SQLExecutor, now time.Time) ([]*models.Room, error)
}

type postgresRoomRepository struct {
	db *sql.DB
}

func NewPostgresRoomRepository(db *sql.DB) RoomRepository {
	return &postgresRoomRepository{db: db}
}

func (r *postgresRoomRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const roomColumns = `
	id, host_id, sport_id, title, description, location_name, location_address,
	latitude, longitude, play_date, max_participants, current_participants,
	cost_per_person, min_skill_level, max_skill_level, view_count, status,
	created_at, updated_at`

func scanRoom(row interface{ Scan(dest ...interface{}) error }, room *models.Room) error {
	return row.Scan(
		&room.ID, &room.HostID, &room.SportID, &room.Title, &room.Description,
		&room.LocationName, &room.LocationAddress, &room.Latitude, &room.Longitude,
		&room.PlayDate, &room.MaxParticipants, &room.CurrentParticipants,
		&room.CostPerPerson, &room.MinSkillLevel, &room.MaxSkillLevel,
		&room.ViewCount, &room.Status, &room.CreatedAt, &room.UpdatedAt,
	)
}

func (r *postgresRoomRepository) Create(ctx context.Context, room *models.Room) error {
	query := `
		INSERT INTO rooms (
			host_id, sport_id, title, description, location_name, location_address,
			latitude, longitude, play_date, max_participants, current_participants,
			cost_per_person, min_skill_level, max_skill_level, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, view_count, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		room.HostID, room.SportID, room.Title, room.Description,
		room.LocationName, room.LocationAddress, room.Latitude, room.Longitude,
		room.PlayDate, room.MaxParticipants, room.CurrentParticipants,
		room.CostPerPerson, room.MinSkillLevel, room.MaxSkillLevel, room.Status,
	).Scan(&room.ID, &room.ViewCount, &room.CreatedAt, &room.UpdatedAt)

	return r.handleRoomError(err)
}

func (r *postgresRoomRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Room, error) {
	executor := r.getExecutor(exec)
	query := `SELECT` + roomColumns + ` FROM rooms WHERE id = $1`

	room := &models.Room{}
	err := scanRoom(executor.QueryRowContext(ctx, query, id), room)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	return room, nil
}

// GetByIDForUpdate читает комнату с блокировкой строки. Вызывается только
// внутри транзакции вступления/выхода, чтобы решение о приёме принималось
// по свежему состоянию, а не по устаревшему чтению.
func (r *postgresRoomRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Room, error) {
	executor := r.getExecutor(exec)
	query := `SELECT` + roomColumns + ` FROM rooms WHERE id = $1 FOR UPDATE`

	room := &models.Room{}
	err := scanRoom(executor.QueryRowContext(ctx, query, id), room)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to lock room: %w", err)
	}
	return room, nil
}

const roomSummaryColumns = `
	r.id, r.host_id, r.sport_id, r.title, r.description, r.location_name, r.location_address,
	r.latitude, r.longitude, r.play_date, r.max_participants, r.current_participants,
	r.cost_per_person, r.min_skill_level, r.max_skill_level, r.view_count, r.status,
	r.created_at, r.updated_at,
	s.id, s.name, s.icon, s.min_players, s.max_players, s.is_active, s.created_at,
	u.id, u.email, u.nickname, u.region, u.avatar_url, u.manner_score, u.created_at, u.updated_at`

const roomSummaryJoins = `
	FROM rooms r
	JOIN sports s ON r.sport_id = s.id
	JOIN users u ON r.host_id = u.id`

func scanRoomSummary(row interface{ Scan(dest ...interface{}) error }) (*models.RoomSummary, error) {
	var rs models.RoomSummary
	var sport models.Sport
	var host models.User

	err := row.Scan(
		&rs.ID, &rs.HostID, &rs.SportID, &rs.Title, &rs.Description,
		&rs.LocationName, &rs.LocationAddress, &rs.Latitude, &rs.Longitude,
		&rs.PlayDate, &rs.MaxParticipants, &rs.CurrentParticipants,
		&rs.CostPerPerson, &rs.MinSkillLevel, &rs.MaxSkillLevel,
		&rs.ViewCount, &rs.Status, &rs.CreatedAt, &rs.UpdatedAt,
		&sport.ID, &sport.Name, &sport.Icon, &sport.MinPlayers, &sport.MaxPlayers,
		&sport.IsActive, &sport.CreatedAt,
		&host.ID, &host.Email, &host.Nickname, &host.Region, &host.AvatarURL,
		&host.MannerScore, &host.CreatedAt, &host.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	rs.Sport = &sport
	rs.Host = &host
	return &rs, nil
}

func (r *postgresRoomRepository) GetSummaryByID(ctx context.Context, id int) (*models.RoomSummary, error) {
	query := `SELECT` + roomSummaryColumns + roomSummaryJoins + ` WHERE r.id = $1`

	summary, err := scanRoomSummary(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to get room summary: %w", err)
	}
	return summary, nil
}

func (r *postgresRoomRepository) ListSummaries(ctx context.Context, filter ListRoomsFilter) ([]models.RoomSummary, error) {
	query := `SELECT` + roomSummaryColumns + roomSummaryJoins + ` WHERE 1=1`

	args := []interface{}{}
	argID := 1

	if filter.SportID != nil {
		query += fmt.Sprintf(" AND r.sport_id = $%d", argID)
		args = append(args, *filter.SportID)
		argID++
	}
	if filter.HostID != nil {
		query += fmt.Sprintf(" AND r.host_id = $%d", argID)
		args = append(args, *filter.HostID)
		argID++
	}
	if filter.Status != nil {
		query += fmt.Sprintf(" AND r.status = $%d", argID)
		args = append(args, *filter.Status)
		argID++
	}
	if filter.PlayDateFrom != nil {
		query += fmt.Sprintf(" AND r.play_date >= $%d", argID)
		args = append(args, *filter.PlayDateFrom)
		argID++
	}
	if filter.TitleQuery != nil {
		query += fmt.Sprintf(" AND r.title ILIKE $%d", argID)
		args = append(args, "%"+*filter.TitleQuery+"%")
		argID++
	}

	query += " ORDER BY r.play_date ASC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
	}

	return r.listSummaries(ctx, query, args...)
}

func (r *postgresRoomRepository) ListSummariesByIDs(ctx context.Context, ids []int) ([]models.RoomSummary, error) {
	if len(ids) == 0 {
		return []models.RoomSummary{}, nil
	}
	query := `SELECT` + roomSummaryColumns + roomSummaryJoins + `
		WHERE r.id = ANY($1)
		ORDER BY r.play_date ASC`
	return r.listSummaries(ctx, query, pq.Array(ids))
}

func (r *postgresRoomRepository) listSummaries(ctx context.Context, query string, args ...interface{}) ([]models.RoomSummary, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	defer rows.Close()

	summaries := make([]models.RoomSummary, 0)
	for rows.Next() {
		summary, scanErr := scanRoomSummary(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan room row: %w", scanErr)
		}
		summaries = append(summaries, *summary)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating room rows: %w", err)
	}
	return summaries, nil
}

// IncrementParticipants увеличивает счётчик участников одним условным UPDATE.
// Ноль затронутых строк означает, что место кончилось или набор закрыт
// между чтением и записью — вызывающая транзакция обязана откатиться.
func (r *postgresRoomRepository) IncrementParticipants(ctx context.Context, exec SQLExecutor, id int) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE rooms
		SET current_participants = current_participants + 1, updated_at = NOW()
		WHERE id = $1
		  AND status = $2
		  AND current_participants < max_participants`

	result, err := executor.ExecContext(ctx, query, id, models.RoomStatusRecruiting)
	if err != nil {
		return fmt.Errorf("failed to increment room participants: %w", err)
	}
	return checkAffectedRows(result, ErrRoomCapacityExceeded)
}

// DecrementParticipants уменьшает счётчик, не опуская его ниже единицы:
// хост учитывается в счётчике всегда.
func (r *postgresRoomRepository) DecrementParticipants(ctx context.Context, exec SQLExecutor, id int) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE rooms
		SET current_participants = current_participants - 1, updated_at = NOW()
		WHERE id = $1 AND current_participants > 1`

	result, err := executor.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to decrement room participants: %w", err)
	}
	return checkAffectedRows(result, ErrRoomNotFound)
}

func (r *postgresRoomRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.RoomStatus) error {
	executor := r.getExecutor(exec)
	query := `UPDATE rooms SET status = $1, updated_at = NOW() WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update room status: %w", err)
	}
	return checkAffectedRows(result, ErrRoomNotFound)
}

func (r *postgresRoomRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM rooms WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}
	return checkAffectedRows(result, ErrRoomNotFound)
}

func (r *postgresRoomRepository) IncrementViewCount(ctx context.Context, id int) error {
	query := `UPDATE rooms SET view_count = view_count + 1 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to increment room view count: %w", err)
	}
	return checkAffectedRows(result, ErrRoomNotFound)
}

func (r *postgresRoomRepository) CountByHost(ctx context.Context, hostID int) (int, error) {
	query := `SELECT COUNT(*) FROM rooms WHERE host_id = $1`
	var count int
	if err := r.db.QueryRowContext(ctx, query, hostID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count hosted rooms: %w", err)
	}
	return count, nil
}

// ListExpired возвращает комнаты, чья дата игры уже прошла, но статус ещё
// не терминальный. Используется планировщиком автозавершения.
func (r *postgresRoomRepository) ListExpired(ctx context.Context, exec SQLExecutor, now time.Time) ([]*models.Room, error) {
	executor := r.getExecutor(exec)
	query := `SELECT` + roomColumns + `
		FROM rooms
		WHERE status IN ($1, $2) AND play_date < $3`

	rows, err := executor.QueryContext(ctx, query, models.RoomStatusRecruiting, models.RoomStatusClosed, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query expired rooms: %w", err)
	}
	defer rows.Close()

	var rooms []*models.Room
	for rows.Next() {
		var room models.Room
		if scanErr := scanRoom(rows, &room); scanErr != nil {
			return nil, fmt.Errorf("failed to scan expired room: %w", scanErr)
		}
		rooms = append(rooms, &room)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expired rooms: %w", err)
	}
	return rooms, nil
}

func (r *postgresRoomRepository) handleRoomError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		if pqErr.Code == "23503" { // foreign_key_violation
			switch pqErr.Constraint {
			case "rooms_sport_id_fkey":
				return ErrRoomInvalidSport
			case "rooms_host_id_fkey":
				return ErrRoomInvalidHost
			}
		}
	}
	return fmt.Errorf("failed to create room: %w", err)
}
