package events

import (
	"time"

	"github.com/google/uuid"
)

// Event type codes emitted by the pipeline.
const (
	TypeDocumentIngested        = "DOCUMENT_INGESTED"
	TypeDocumentIngestionFailed = "DOCUMENT_INGESTION_FAILED"
	TypeRunCompleted            = "RUN_COMPLETED"
	TypeRunFailed               = "RUN_FAILED"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "DOCUMENT_INGESTED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent helps embed common logic if needed,
// strictly creating valid implementations is preferred though.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// NewDocumentIngested signals that a document finished the ingestion
// pipeline and its chunks are searchable.
func NewDocumentIngested(documentId, dealId uuid.UUID, chunkCount int) Event {
	return BaseEvent{
		Type: TypeDocumentIngested,
		Data: map[string]interface{}{
			"document_id": documentId.String(),
			"deal_id":     dealId.String(),
			"chunk_count": chunkCount,
		},
		OccurredAt: time.Now(),
	}
}

// NewDocumentIngestionFailed signals a terminal ingestion failure.
func NewDocumentIngestionFailed(documentId, dealId uuid.UUID, reason string) Event {
	return BaseEvent{
		Type: TypeDocumentIngestionFailed,
		Data: map[string]interface{}{
			"document_id": documentId.String(),
			"deal_id":     dealId.String(),
			"reason":      reason,
		},
		OccurredAt: time.Now(),
	}
}

// NewRunCompleted signals a generation run reached success and its
// artifacts are downloadable.
func NewRunCompleted(runId, dealId uuid.UUID) Event {
	return BaseEvent{
		Type: TypeRunCompleted,
		Data: map[string]interface{}{
			"run_id":  runId.String(),
			"deal_id": dealId.String(),
		},
		OccurredAt: time.Now(),
	}
}

// NewRunFailed signals a generation run aborted with an error.
func NewRunFailed(runId, dealId uuid.UUID, reason string) Event {
	return BaseEvent{
		Type: TypeRunFailed,
		Data: map[string]interface{}{
			"run_id":  runId.String(),
			"deal_id": dealId.String(),
			"reason":  reason,
		},
		OccurredAt: time.Now(),
	}
}
