package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	IngestionJobStatusQueued     = "queued"
	IngestionJobStatusProcessing = "processing"
	IngestionJobStatusSucceeded  = "succeeded"
	IngestionJobStatusFailed     = "failed"
)

type IngestionJob struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DocumentId   uuid.UUID `gorm:"type:uuid;not null;index"`
	DealId       uuid.UUID `gorm:"type:uuid;not null;index"`
	Status       string    `gorm:"type:varchar(32);not null;default:'queued';index"`
	Attempts     int       `gorm:"not null;default:0"`
	ErrorMessage string    `gorm:"type:text"`
	StartedAt    *time.Time
	FinishedAt   *time.Time
	CreatedAt    time.Time      `gorm:"autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime"`
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

func (IngestionJob) TableName() string {
	return "ingestion_jobs"
}
