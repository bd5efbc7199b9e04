package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type EmbeddingChunk struct {
	Id             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DocumentId     uuid.UUID       `gorm:"type:uuid;not null;index"`
	DealId         uuid.UUID       `gorm:"type:uuid;not null;index"`
	Content        string          `gorm:"type:text"`
	ContentHash    string          `gorm:"type:varchar(64);index"` // sha256 of Content
	Embedding      pgvector.Vector `gorm:"type:vector(1536)"`      // text-embedding-3-small uses 1536 dimensions
	EmbeddingModel string          `gorm:"type:varchar(64)"`       // model that produced the vector
	ChunkIndex     int             `gorm:"default:0"`              // 0-based index for ordering
	ChunkSize      int             `gorm:"default:0"`
	ChunkOverlap   int             `gorm:"default:0"`
	SourceFilename string          `gorm:"type:varchar(512)"`
	SourceFileType string          `gorm:"type:varchar(32)"`
	SectionTitle   string          `gorm:"type:varchar(255)"` // optional page or section heading
	CreatedAt      time.Time       `gorm:"autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime"`
	DeletedAt      gorm.DeletedAt  `gorm:"index"`
}

func (EmbeddingChunk) TableName() string {
	return "embedding_chunks"
}
