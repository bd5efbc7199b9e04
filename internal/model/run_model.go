package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	RunStatusPending = "pending"
	RunStatusRunning = "running"
	RunStatusSuccess = "success"
	RunStatusFailed  = "failed"
)

const (
	RunModeFull = "full"
	RunModeFast = "fast"
)

type Run struct {
	Id           uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DealId       uuid.UUID      `gorm:"type:uuid;not null;index"`
	ParentRunId  *uuid.UUID     `gorm:"type:uuid;index"` // set on fast reruns
	Mode         string         `gorm:"type:varchar(16);not null;default:'full'"`
	ResearchMode bool           `gorm:"not null;default:false"` // deeper retrieval per section
	Status       string         `gorm:"type:varchar(32);not null;default:'pending';index"`
	Params       datatypes.JSON `gorm:"type:jsonb"`
	ErrorMessage string         `gorm:"type:text"`
	StartedAt    *time.Time
	FinishedAt   *time.Time
	CreatedAt    time.Time      `gorm:"autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime"`
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

func (Run) TableName() string {
	return "runs"
}
