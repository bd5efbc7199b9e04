package entity

import (
	"time"

	"github.com/google/uuid"
)

type Artifact struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey"`
	RunId       uuid.UUID `gorm:"type:uuid;index"`
	Kind        string
	StoragePath string
	Meta        map[string]interface{}
	CreatedAt   time.Time
	UpdatedAt   *time.Time
	DeletedAt   *time.Time
	IsDeleted   bool
}
