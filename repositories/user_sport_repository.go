package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/junho-l/pickup-system/models"
	"github.com/lib/pq"
)

var (
	ErrUserSportNotFound     = errors.New("user sport selection not found")
	ErrUserSportConflict     = errors.New("user sport selection already exists")
	ErrUserSportSportInvalid = errors.New("user sport references unknown sport")
)

type UserSportRepository interface {
	ListByUser(ctx context.Context, userID int) ([]models.UserSportWithSport, error)
	ListSportIDsByUser(ctx context.Context, userID int) ([]int, error)
	DeleteAllByUser(ctx context.Context, exec SQLExecutor, userID int) error
	CreateBatch(ctx context.Context, exec SQLExecutor, userID int, selections []models.UserSportSelection) error
	DeleteByUserAndSport(ctx context.Context, userID, sportID int) error
}

type postgresUserSportRepository struct {
	db *sql.DB
}

func NewPostgresUserSportRepository(db *sql.DB) UserSportRepository {
	return &postgresUserSportRepository{db: db}
}

func (r *postgresUserSportRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresUserSportRepository) ListByUser(ctx context.Context, userID int) ([]models.UserSportWithSport, error) {
	query := `
		SELECT us.id, us.user_id, us.sport_id, us.skill_level,
		       s.id, s.name, s.icon, s.min_players, s.max_players, s.is_active, s.created_at
		FROM user_sports us
		JOIN sports s ON us.sport_id = s.id
		WHERE us.user_id = $1
		ORDER BY s.name ASC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user sports: %w", err)
	}
	defer rows.Close()

	selections := make([]models.UserSportWithSport, 0)
	for rows.Next() {
		var us models.UserSportWithSport
		var s models.Sport
		if err := rows.Scan(
			&us.ID, &us.UserID, &us.SportID, &us.SkillLevel,
			&s.ID, &s.Name, &s.Icon, &s.MinPlayers, &s.MaxPlayers, &s.IsActive, &s.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user sport row: %w", err)
		}
		us.Sport = &s
		selections = append(selections, us)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user sport rows: %w", err)
	}
	return selections, nil
}

func (r *postgresUserSportRepository) ListSportIDsByUser(ctx context.Context, userID int) ([]int, error) {
	query := `SELECT sport_id FROM user_sports WHERE user_id = $1`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user sport ids: %w", err)
	}
	defer rows.Close()

	ids := make([]int, 0)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan sport id: %w", err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sport ids: %w", err)
	}
	return ids, nil
}

// DeleteAllByUser: ноль строк здесь не ошибка — пустой прежний выбор валиден.
func (r *postgresUserSportRepository) DeleteAllByUser(ctx context.Context, exec SQLExecutor, userID int) error {
	executor := r.getExecutor(exec)
	if _, err := executor.ExecContext(ctx, `DELETE FROM user_sports WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete user sports: %w", err)
	}
	return nil
}

func (r *postgresUserSportRepository) CreateBatch(ctx context.Context, exec SQLExecutor, userID int, selections []models.UserSportSelection) error {
	if len(selections) == 0 {
		return nil
	}
	executor := r.getExecutor(exec)

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`INSERT INTO user_sports (user_id, sport_id, skill_level) VALUES `)
	args := make([]interface{}, 0, len(selections)*3)
	for i, sel := range selections {
		if i > 0 {
			queryBuilder.WriteString(", ")
		}
		queryBuilder.WriteString(fmt.Sprintf("($%d, $%d, $%d)", i*3+1, i*3+2, i*3+3))
		args = append(args, userID, sel.SportID, sel.SkillLevel)
	}

	if _, err := executor.ExecContext(ctx, queryBuilder.String(), args...); err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505": // unique_violation
				return ErrUserSportConflict
			case "23503": // foreign_key_violation
				return ErrUserSportSportInvalid
			}
		}
		return fmt.Errorf("failed to insert user sports: %w", err)
	}
	return nil
}

func (r *postgresUserSportRepository) DeleteByUserAndSport(ctx context.Context, userID, sportID int) error {
	query := `DELETE FROM user_sports WHERE user_id = $1 AND sport_id = $2`
	result, err := r.db.ExecContext(ctx, query, userID, sportID)
	if err != nil {
		return fmt.Errorf("failed to delete user sport: %w", err)
	}
	return checkAffectedRows(result, ErrUserSportNotFound)
}
