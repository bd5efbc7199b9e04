package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateRunRequest struct {
	DealId       uuid.UUID
	ParentRunId  *uuid.UUID             `json:"parent_run_id,omitempty"`
	ResearchMode bool                   `json:"research_mode,omitempty"`
	Params       map[string]interface{} `json:"params,omitempty"`
}

type CreateRunResponse struct {
	Id     uuid.UUID `json:"id"`
	DealId uuid.UUID `json:"deal_id"`
	Mode   string    `json:"mode"`
	Status string    `json:"status"`
}

type ShowRunResponse struct {
	Id           uuid.UUID              `json:"id"`
	DealId       uuid.UUID              `json:"deal_id"`
	ParentRunId  *uuid.UUID             `json:"parent_run_id,omitempty"`
	Mode         string                 `json:"mode"`
	ResearchMode bool                   `json:"research_mode"`
	Status       string                 `json:"status"`
	Params       map[string]interface{} `json:"params,omitempty"`
	ErrorMessage string                 `json:"error_message,omitempty"`
	StartedAt    *time.Time             `json:"started_at,omitempty"`
	FinishedAt   *time.Time             `json:"finished_at,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
}

type ShowArtifactResponse struct {
	Id        uuid.UUID              `json:"id"`
	RunId     uuid.UUID              `json:"run_id"`
	Kind      string                 `json:"kind"`
	Meta      map[string]interface{} `json:"meta,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}
