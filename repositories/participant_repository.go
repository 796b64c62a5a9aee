package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/junho-l/pickup-system/models"
	"github.com/lib/pq"
)

var (
	ErrParticipantNotFound    = errors.New("participant not found")
	ErrParticipantConflict    = errors.New("participant conflict: user already joined this room")
	ErrParticipantUserInvalid = errors.New("participant user conflict or invalid")
	ErrParticipantRoomInvalid = errors.New("participant room conflict or invalid")
)

type ParticipantRepository interface {
	Create(ctx context.Context, exec SQLExecutor, p *models.RoomParticipant) error
	DeleteByRoomAndUser(ctx context.Context, exec SQLExecutor, roomID, userID int, status models.ParticipantStatus) error
	FindByRoomAndUser(ctx context.Context, roomID, userID int) (*models.RoomParticipant, error)
	ListByRoom(ctx context.Context, roomID int, statusFilter *models.ParticipantStatus, includeUser bool) ([]models.ParticipantWithUser, error)
	ListRoomIDsByUser(ctx context.Context, userID int, status models.ParticipantStatus) ([]int, error)
	ListUserIDsByRoom(ctx context.Context, roomID int, status models.ParticipantStatus) ([]int, error)
	CountByUser(ctx context.Context, userID int, status models.ParticipantStatus) (int, error)
}

type postgresParticipantRepository struct {
	db *sql.DB
}

func NewPostgresParticipantRepository(db *sql.DB) ParticipantRepository {
	return &postgresParticipantRepository{db: db}
}

func (r *postgresParticipantRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresParticipantRepository) Create(ctx context.Context, exec SQLExecutor, p *models.RoomParticipant) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO room_participants (room_id, user_id, status)
		VALUES ($1, $2, $3)
		RETURNING id, joined_at`

	err := executor.QueryRowContext(ctx, query,
		p.RoomID,
		p.UserID,
		p.Status,
	).Scan(&p.ID, &p.JoinedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505": // unique_violation
				if pqErr.Constraint == "room_participants_room_id_user_id_key" {
					return ErrParticipantConflict
				}
			case "23503": // foreign_key_violation
				switch pqErr.Constraint {
				case "room_participants_user_id_fkey":
					return ErrParticipantUserInvalid
				case "room_participants_room_id_fkey":
					return ErrParticipantRoomInvalid
				}
			}
		}
		return fmt.Errorf("failed to create participant: %w", err)
	}
	return nil
}

// DeleteByRoomAndUser удаляет строку участия (жёсткое удаление, как в потоке
// «покинуть комнату»). Ноль затронутых строк — участие не найдено; счётчик
// комнаты в этом случае трогать нельзя.
func (r *postgresParticipantRepository) DeleteByRoomAndUser(ctx context.Context, exec SQLExecutor, roomID, userID int, status models.ParticipantStatus) error {
	executor := r.getExecutor(exec)
	query := `DELETE FROM room_participants WHERE room_id = $1 AND user_id = $2 AND status = $3`
	result, err := executor.ExecContext(ctx, query, roomID, userID, status)
	if err != nil {
		return fmt.Errorf("failed to delete participant: %w", err)
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func (r *postgresParticipantRepository) FindByRoomAndUser(ctx context.Context, roomID, userID int) (*models.RoomParticipant, error) {
	query := `SELECT id, room_id, user_id, status, joined_at FROM room_participants WHERE room_id = $1 AND user_id = $2`

	p := &models.RoomParticipant{}
	err := r.db.QueryRowContext(ctx, query, roomID, userID).Scan(
		&p.ID, &p.RoomID, &p.UserID, &p.Status, &p.JoinedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrParticipantNotFound
		}
		return nil, fmt.Errorf("failed to find participant: %w", err)
	}
	return p, nil
}

func (r *postgresParticipantRepository) ListByRoom(ctx context.Context, roomID int, statusFilter *models.ParticipantStatus, includeUser bool) ([]models.ParticipantWithUser, error) {
	query := `
		SELECT p.id, p.room_id, p.user_id, p.status, p.joined_at` +
		selectParticipantUserFieldsSQL(includeUser) + `
		FROM room_participants p`

	if includeUser {
		query += `
		JOIN users u ON p.user_id = u.id`
	}

	args := []interface{}{roomID}
	query += ` WHERE p.room_id = $1`
	if statusFilter != nil {
		query += ` AND p.status = $2`
		args = append(args, *statusFilter)
	}
	query += ` ORDER BY p.joined_at ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants by room: %w", err)
	}
	defer rows.Close()

	participants := make([]models.ParticipantWithUser, 0)
	for rows.Next() {
		var p models.ParticipantWithUser
		var u models.User
		scanDest := []interface{}{&p.ID, &p.RoomID, &p.UserID, &p.Status, &p.JoinedAt}
		if includeUser {
			scanDest = append(scanDest,
				&u.ID, &u.Nickname, &u.Region, &u.AvatarURL, &u.MannerScore,
			)
		}
		if err := rows.Scan(scanDest...); err != nil {
			return nil, fmt.Errorf("failed to scan participant row: %w", err)
		}
		if includeUser {
			p.User = &u
		}
		participants = append(participants, p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participant rows: %w", err)
	}
	return participants, nil
}

// ListRoomIDsByUser — первый шаг двухшаговой выборки "мои комнаты":
// сначала собираем id комнат по подтверждённым строкам, затем отдельным
// запросом достаём сами комнаты.
func (r *postgresParticipantRepository) ListRoomIDsByUser(ctx context.Context, userID int, status models.ParticipantStatus) ([]int, error) {
	query := `SELECT room_id FROM room_participants WHERE user_id = $1 AND status = $2`
	return r.listIDs(ctx, query, userID, status)
}

func (r *postgresParticipantRepository) ListUserIDsByRoom(ctx context.Context, roomID int, status models.ParticipantStatus) ([]int, error) {
	query := `SELECT user_id FROM room_participants WHERE room_id = $1 AND status = $2`
	return r.listIDs(ctx, query, roomID, status)
}

func (r *postgresParticipantRepository) listIDs(ctx context.Context, query string, args ...interface{}) ([]int, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list participant ids: %w", err)
	}
	defer rows.Close()

	ids := make([]int, 0)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan participant id: %w", err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participant ids: %w", err)
	}
	return ids, nil
}

func (r *postgresParticipantRepository) CountByUser(ctx context.Context, userID int, status models.ParticipantStatus) (int, error) {
	query := `SELECT COUNT(*) FROM room_participants WHERE user_id = $1 AND status = $2`
	var count int
	if err := r.db.QueryRowContext(ctx, query, userID, status).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count participations: %w", err)
	}
	return count, nil
}

func selectParticipantUserFieldsSQL(includeUser bool) string {
	if !includeUser {
		return ""
	}
	return `,
		u.id as user_db_id, u.nickname as user_nickname, u.region as user_region,
		u.avatar_url as user_avatar_url, u.manner_score as user_manner_score`
}
