package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Job описывает заявку на работу.
type Job struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	UserID          uuid.UUID       `db:"user_id" json:"user_id"`
	LocationID      uuid.UUID       `db:"location_id" json:"location_id"`
	JobType         string          `db:"job_type" json:"job_type"`
	Title           string          `db:"title" json:"title"`
	Description     *string         `db:"description" json:"description,omitempty"`
	Status          string          `db:"status" json:"status"`
	Severity        *string         `db:"severity" json:"severity,omitempty"`
	EstimatedPrice  float64         `db:"estimated_price" json:"estimated_price"`
	FinalPrice      float64         `db:"final_price" json:"final_price"`
	SurgeMultiplier float64         `db:"surge_multiplier" json:"surge_multiplier"`
	EstimatedSqFt   *float64        `db:"estimated_square_footage" json:"estimated_square_footage,omitempty"`
	AIConfidence    *float64        `db:"ai_confidence" json:"ai_confidence,omitempty"`
	ExtraData       json.RawMessage `db:"extra_data" json:"extra_data,omitempty"`
	ExpiresAt       *time.Time      `db:"expires_at" json:"expires_at,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// IsExpired сообщает, истекла ли заявка относительно переданного момента.
func (j *Job) IsExpired(now time.Time) bool {
	return j.ExpiresAt != nil && !j.ExpiresAt.After(now)
}

// JobImage описывает фотографию, прикреплённую к заявке.
type JobImage struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	JobID           uuid.UUID       `db:"job_id" json:"job_id"`
	ImageURL        string          `db:"image_url" json:"image_url"`
	ImageType       *string         `db:"image_type" json:"image_type,omitempty"`
	AnalysisResults json.RawMessage `db:"analysis_results" json:"analysis_results,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
}

// JobAssignment связывает заявку с принявшим её исполнителем.
// На одну заявку может существовать не более одного назначения.
type JobAssignment struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	JobID       uuid.UUID  `db:"job_id" json:"job_id"`
	ProviderID  uuid.UUID  `db:"provider_id" json:"provider_id"`
	AssignedAt  time.Time  `db:"assigned_at" json:"assigned_at"`
	StartedAt   *time.Time `db:"started_at" json:"started_at,omitempty"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	FinalPrice  *float64   `db:"final_price" json:"final_price,omitempty"`
	Rating      *int       `db:"rating" json:"rating,omitempty"`
	Review      *string    `db:"review" json:"review,omitempty"`
}

// JobSearchResult содержит заявку и расстояние до точки поиска.
type JobSearchResult struct {
	Job
	DistanceKM float64 `db:"distance_km" json:"distance_km"`
}
