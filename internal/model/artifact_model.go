package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ArtifactKindRenderedDoc = "rendered_doc"
	ArtifactKindVariables   = "variables"
)

type Artifact struct {
	Id          uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RunId       uuid.UUID      `gorm:"type:uuid;not null;index"`
	Kind        string         `gorm:"type:varchar(32);not null"`
	StoragePath string         `gorm:"type:varchar(1024);not null"`
	Meta        datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt   time.Time      `gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (Artifact) TableName() string {
	return "artifacts"
}
