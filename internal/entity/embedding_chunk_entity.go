package entity

import (
	"time"

	"github.com/google/uuid"
)

type EmbeddingChunk struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey"`
	DocumentId     uuid.UUID `gorm:"type:uuid;index"`
	DealId         uuid.UUID `gorm:"type:uuid;index"`
	Content        string
	ContentHash    string
	Embedding      []float32
	EmbeddingModel string
	ChunkIndex     int
	ChunkSize      int
	ChunkOverlap   int
	SourceFilename string
	SourceFileType string
	SectionTitle   string
	CreatedAt      time.Time
	UpdatedAt      *time.Time
	DeletedAt      *time.Time
	IsDeleted      bool
}

// RetrievalResult is a scored chunk returned by similarity search. It is
// transient and never persisted. Provenance names the source file so a
// hit can be attributed in generated output.
type RetrievalResult struct {
	ChunkId        uuid.UUID
	DocumentId     uuid.UUID
	DealId         uuid.UUID
	Content        string
	ChunkIndex     int
	SourceFilename string
	SourceFileType string
	SectionTitle   string
	Similarity     float64
}
