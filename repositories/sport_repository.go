package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/junho-l/pickup-system/models"
)

var ErrSportNotFound = errors.New("sport not found")

// SportRepository только читает справочник: записи ведутся административно.
type SportRepository interface {
	GetByID(ctx context.Context, id int) (*models.Sport, error)
	ListActive(ctx context.Context) ([]models.Sport, error)
}

type postgresSportRepository struct {
	db *sql.DB
}

func NewPostgresSportRepository(db *sql.DB) SportRepository {
	return &postgresSportRepository{db: db}
}

const sportColumns = `id, name, icon, min_players, max_players, is_active, created_at`

func (r *postgresSportRepository) GetByID(ctx context.Context, id int) (*models.Sport, error) {
	query := `SELECT ` + sportColumns + ` FROM sports WHERE id = $1`

	s := &models.Sport{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&s.ID, &s.Name, &s.Icon, &s.MinPlayers, &s.MaxPlayers, &s.IsActive, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSportNotFound
		}
		return nil, fmt.Errorf("failed to get sport: %w", err)
	}
	return s, nil
}

func (r *postgresSportRepository) ListActive(ctx context.Context) ([]models.Sport, error) {
	query := `SELECT ` + sportColumns + ` FROM sports WHERE is_active = TRUE ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active sports: %w", err)
	}
	defer rows.Close()

	sports := make([]models.Sport, 0)
	for rows.Next() {
		var s models.Sport
		if err := rows.Scan(&s.ID, &s.Name, &s.Icon, &s.MinPlayers, &s.MaxPlayers, &s.IsActive, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sport row: %w", err)
		}
		sports = append(sports, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sport rows: %w", err)
	}
	return sports, nil
}
