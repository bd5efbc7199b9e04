package entity

import (
	"time"

	"github.com/google/uuid"
)

type Document struct {
	Id               uuid.UUID `gorm:"type:uuid;primaryKey"`
	DealId           uuid.UUID `gorm:"type:uuid;index"`
	Filename         string
	OriginalFilename string
	StoragePath      string
	MimeType         string
	SizeBytes        int64
	Checksum         string
	Note             string

	Status       string
	ErrorMessage string

	ExtractedText     string
	TextExtracted     bool
	EmbeddingsCreated bool
	TextChunksCount   int
	PdfPageCount      int

	TokenCount        int
	NativeTokenCount  int
	SummaryTokenCount int

	IsTooLarge              bool
	IsSummarized            bool
	UseSummaryForGeneration bool
	Summary                 string

	ProcessedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   *time.Time
	DeletedAt   *time.Time
	IsDeleted   bool
}
