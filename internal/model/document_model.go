package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Document lifecycle statuses. "uploaded" is terminal for files that
// yielded no extractable text; "completed" means chunks are searchable.
const (
	DocumentStatusQueued     = "queued"
	DocumentStatusProcessing = "processing"
	DocumentStatusUploaded   = "uploaded"
	DocumentStatusCompleted  = "completed"
	DocumentStatusFailed     = "failed"
)

type Document struct {
	Id               uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DealId           uuid.UUID `gorm:"type:uuid;not null;index"`
	Filename         string    `gorm:"type:varchar(512);not null"`
	OriginalFilename string    `gorm:"type:varchar(512)"`
	StoragePath      string    `gorm:"type:varchar(1024);not null"`
	MimeType         string    `gorm:"type:varchar(255)"`
	SizeBytes        int64     `gorm:"not null;default:0"`
	Checksum         string    `gorm:"type:varchar(64);index"` // sha256 of the raw upload
	Note             string    `gorm:"type:text"`

	Status       string `gorm:"type:varchar(32);not null;default:'queued';index"`
	ErrorMessage string `gorm:"type:text"`

	ExtractedText     string `gorm:"type:text"`
	TextExtracted     bool   `gorm:"not null;default:false"`
	EmbeddingsCreated bool   `gorm:"not null;default:false"`
	TextChunksCount   int    `gorm:"not null;default:0"`
	PdfPageCount      int    `gorm:"not null;default:0"`

	// Token accounting. TokenCount reflects the active generation mode
	// and is swapped between native and summary counts on toggle.
	TokenCount        int `gorm:"not null;default:0"`
	NativeTokenCount  int `gorm:"not null;default:0"`
	SummaryTokenCount int `gorm:"not null;default:0"`

	IsTooLarge              bool   `gorm:"not null;default:false"`
	IsSummarized            bool   `gorm:"not null;default:false"`
	UseSummaryForGeneration bool   `gorm:"not null;default:false"`
	Summary                 string `gorm:"type:text"`

	ProcessedAt *time.Time
	CreatedAt   time.Time      `gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (Document) TableName() string {
	return "documents"
}
