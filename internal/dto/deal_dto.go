package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateDealRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description"`
	Focus       string `json:"focus"`
}

type CreateDealResponse struct {
	Id        uuid.UUID                `json:"id"`
	Name      string                   `json:"name"`
	Documents []UploadedDocumentStatus `json:"documents"`
}

// UploadedDocumentStatus reports what happened to one file in a multipart
// create request. Accepted files are queued; oversized ones also report
// the summarization outcome.
type UploadedDocumentStatus struct {
	Id           uuid.UUID `json:"id"`
	Filename     string    `json:"filename"`
	Status       string    `json:"status"`
	IsTooLarge   bool      `json:"is_too_large"`
	IsSummarized bool      `json:"is_summarized"`
	TokenCount   int       `json:"token_count"`
}

type ShowDealResponse struct {
	Id            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	Focus         string     `json:"focus"`
	DocumentCount int64      `json:"document_count"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at"`
}

type UpdateDealRequest struct {
	Id          uuid.UUID
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description"`
	Focus       string `json:"focus"`
}

type UpdateDealResponse struct {
	Id uuid.UUID `json:"id"`
}
