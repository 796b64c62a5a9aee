package models

import "time"

// FavoritePlace — сохранённое пользователем место для игр.
type FavoritePlace struct {
	ID              int       `json:"id" db:"id"`
	UserID          int       `json:"user_id" db:"user_id"`
	PlaceName       string    `json:"place_name" db:"place_name"`
	AddressName     string    `json:"address_name" db:"address_name"`
	RoadAddressName *string   `json:"road_address_name,omitempty" db:"road_address_name"`
	Latitude        float64   `json:"latitude" db:"latitude"`
	Longitude       float64   `json:"longitude" db:"longitude"`
	Phone           *string   `json:"phone,omitempty" db:"phone"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}
