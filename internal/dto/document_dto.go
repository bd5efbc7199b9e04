package dto

import (
	"time"

	"github.com/google/uuid"
)

type ShowDocumentResponse struct {
	Id                      uuid.UUID  `json:"id"`
	DealId                  uuid.UUID  `json:"deal_id"`
	Filename                string     `json:"filename"`
	OriginalFilename        string     `json:"original_filename,omitempty"`
	MimeType                string     `json:"mime_type"`
	SizeBytes               int64      `json:"size_bytes"`
	Note                    string     `json:"note,omitempty"`
	Status                  string     `json:"status"`
	ErrorMessage            string     `json:"error_message,omitempty"`
	TextExtracted           bool       `json:"text_extracted"`
	EmbeddingsCreated       bool       `json:"embeddings_created"`
	TokenCount              int        `json:"token_count"`
	TextChunksCount         int        `json:"text_chunks_count"`
	PdfPageCount            int        `json:"pdf_page_count,omitempty"`
	IsTooLarge              bool       `json:"is_too_large"`
	IsSummarized            bool       `json:"is_summarized"`
	UseSummaryForGeneration bool       `json:"use_summary_for_generation"`
	ProcessedAt             *time.Time `json:"processed_at,omitempty"`
	CreatedAt               time.Time  `json:"created_at"`
	UpdatedAt               *time.Time `json:"updated_at"`
}

type SummarizeDocumentResponse struct {
	Id                uuid.UUID `json:"id"`
	IsSummarized      bool      `json:"is_summarized"`
	SummaryTokenCount int       `json:"summary_token_count"`
}

// ToggleGenerationModeRequest flips a document between sending its native
// text or its summary to generation.
type ToggleGenerationModeRequest struct {
	Id         uuid.UUID
	UseSummary bool `json:"use_summary"`
}

type ToggleGenerationModeResponse struct {
	Id                      uuid.UUID `json:"id"`
	UseSummaryForGeneration bool      `json:"use_summary_for_generation"`
	TokenCount              int       `json:"token_count"`
}

type ReingestDocumentResponse struct {
	Id     uuid.UUID `json:"id"`
	JobId  uuid.UUID `json:"job_id"`
	Status string    `json:"status"`
}

type DeleteDocumentResponse struct {
	Id            uuid.UUID `json:"id"`
	ChunksDeleted int64     `json:"chunks_deleted"`
}
