package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Provider описывает исполнителя работ.
type Provider struct {
	ID            uuid.UUID      `db:"id" json:"id"`
	Email         string         `db:"email" json:"email"`
	PasswordHash  string         `db:"hashed_password" json:"-"`
	FullName      string         `db:"full_name" json:"full_name"`
	Phone         string         `db:"phone" json:"phone"`
	Status        string         `db:"status" json:"status"`
	JobTypes      pq.StringArray `db:"job_types" json:"job_types"`
	HourlyRate    *float64       `db:"hourly_rate" json:"hourly_rate,omitempty"`
	Rating        float64        `db:"rating" json:"rating"`
	CompletedJobs int            `db:"completed_jobs" json:"completed_jobs"`
	IsAvailable   bool           `db:"is_available" json:"is_available"`
	IsActive      bool           `db:"is_active" json:"is_active"`
	Latitude      *float64       `db:"latitude" json:"latitude,omitempty"`
	Longitude     *float64       `db:"longitude" json:"longitude,omitempty"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// CanTakeJobs сообщает, допущен ли исполнитель к приёму заявок.
func (p *Provider) CanTakeJobs() bool {
	return p.Status == ProviderStatusVerified && p.IsAvailable && p.IsActive
}

// ServesJobType проверяет, обслуживает ли исполнитель данный тип работ.
func (p *Provider) ServesJobType(jobType string) bool {
	for _, jt := range p.JobTypes {
		if jt == jobType {
			return true
		}
	}
	return false
}

// ProviderSearchResult содержит исполнителя и расстояние до точки поиска.
type ProviderSearchResult struct {
	Provider
	DistanceKM float64 `db:"distance_km" json:"distance_km"`
}

// ProviderVerification описывает загруженный документ верификации.
type ProviderVerification struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	ProviderID    uuid.UUID       `db:"provider_id" json:"provider_id"`
	DocumentType  string          `db:"document_type" json:"document_type"`
	DocumentURL   string          `db:"document_url" json:"document_url"`
	ExtractedData json.RawMessage `db:"extracted_data" json:"extracted_data,omitempty"`
	IsVerified    bool            `db:"is_verified" json:"is_verified"`
	VerifiedAt    *time.Time      `db:"verified_at" json:"verified_at,omitempty"`
	VerifiedBy    *uuid.UUID      `db:"verified_by" json:"verified_by,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}
