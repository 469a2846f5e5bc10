package models

import (
	"time"

	"github.com/google/uuid"
)

// Location описывает сохранённый адрес пользователя.
// Координаты хранятся в колонке coordinates (GEOGRAPHY(POINT, 4326)),
// при чтении точка разворачивается в latitude/longitude через ST_Y/ST_X.
type Location struct {
	ID           uuid.UUID `db:"id" json:"id"`
	UserID       uuid.UUID `db:"user_id" json:"user_id"`
	Address      string    `db:"address" json:"address"`
	City         string    `db:"city" json:"city"`
	State        string    `db:"state" json:"state"`
	ZipCode      string    `db:"zip_code" json:"zip_code"`
	Latitude     float64   `db:"latitude" json:"latitude"`
	Longitude    float64   `db:"longitude" json:"longitude"`
	IsPrimary    bool      `db:"is_primary" json:"is_primary"`
	PropertyType *string   `db:"property_type" json:"property_type,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
