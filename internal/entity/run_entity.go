package entity

import (
	"time"

	"github.com/google/uuid"
)

type Run struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey"`
	DealId       uuid.UUID `gorm:"type:uuid;index"`
	ParentRunId  *uuid.UUID
	Mode         string
	ResearchMode bool
	Status       string
	Params       map[string]interface{}
	ErrorMessage string
	StartedAt    *time.Time
	FinishedAt   *time.Time
	CreatedAt    time.Time
	UpdatedAt    *time.Time
	DeletedAt    *time.Time
	IsDeleted    bool
}
