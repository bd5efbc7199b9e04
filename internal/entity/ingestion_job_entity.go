package entity

import (
	"time"

	"github.com/google/uuid"
)

type IngestionJob struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey"`
	DocumentId   uuid.UUID `gorm:"type:uuid;index"`
	DealId       uuid.UUID `gorm:"type:uuid;index"`
	Status       string
	Attempts     int
	ErrorMessage string
	StartedAt    *time.Time
	FinishedAt   *time.Time
	CreatedAt    time.Time
	UpdatedAt    *time.Time
	DeletedAt    *time.Time
	IsDeleted    bool
}
