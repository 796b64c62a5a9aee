package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/junho-l/pickup-system/models"
)

var ErrFavoritePlaceNotFound = errors.New("favorite place not found")

type FavoritePlaceRepository interface {
	Create(ctx context.Context, place *models.FavoritePlace) error
	ListByUser(ctx context.Context, userID int) ([]models.FavoritePlace, error)
	Delete(ctx context.Context, id, userID int) error
}

type postgresFavoritePlaceRepository struct {
	db *sql.DB
}

func NewPostgresFavoritePlaceRepository(db *sql.DB) FavoritePlaceRepository {
	return &postgresFavoritePlaceRepository{db: db}
}

func (r *postgresFavoritePlaceRepository) Create(ctx context.Context, place *models.FavoritePlace) error {
	query := `
		INSERT INTO favorite_places (user_id, place_name, address_name, road_address_name, latitude, longitude, phone)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		place.UserID, place.PlaceName, place.AddressName, place.RoadAddressName,
		place.Latitude, place.Longitude, place.Phone,
	).Scan(&place.ID, &place.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create favorite place: %w", err)
	}
	return nil
}

func (r *postgresFavoritePlaceRepository) ListByUser(ctx context.Context, userID int) ([]models.FavoritePlace, error) {
	query := `
		SELECT id, user_id, place_name, address_name, road_address_name, latitude, longitude, phone, created_at
		FROM favorite_places
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorite places: %w", err)
	}
	defer rows.Close()

	places := make([]models.FavoritePlace, 0)
	for rows.Next() {
		var p models.FavoritePlace
		if err := rows.Scan(&p.ID, &p.UserID, &p.PlaceName, &p.AddressName, &p.RoadAddressName,
			&p.Latitude, &p.Longitude, &p.Phone, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan favorite place row: %w", err)
		}
		places = append(places, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating favorite place rows: %w", err)
	}
	return places, nil
}

// Delete привязан к владельцу: чужую запись удалить нельзя.
func (r *postgresFavoritePlaceRepository) Delete(ctx context.Context, id, userID int) error {
	query := `DELETE FROM favorite_places WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete favorite place: %w", err)
	}
	return checkAffectedRows(result, ErrFavoritePlaceNotFound)
}
