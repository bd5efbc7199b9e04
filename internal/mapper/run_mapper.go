package mapper

import (
	"encoding/json"
	"time"

	"dealdocs-be/internal/entity"
	"dealdocs-be/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type RunMapper struct{}

func NewRunMapper() *RunMapper {
	return &RunMapper{}
}

func (m *RunMapper) ToEntity(r *model.Run) *entity.Run {
	if r == nil {
		return nil
	}

	var deletedAt *time.Time
	if r.DeletedAt.Valid {
		t := r.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !r.UpdatedAt.IsZero() {
		t := r.UpdatedAt
		updatedAt = &t
	}

	var params map[string]interface{}
	if len(r.Params) > 0 {
		// Malformed JSON in the column is treated as no params.
		_ = json.Unmarshal(r.Params, &params)
	}

	return &entity.Run{
		Id:           r.Id,
		DealId:       r.DealId,
		ParentRunId:  r.ParentRunId,
		Mode:         r.Mode,
		ResearchMode: r.ResearchMode,
		Status:       r.Status,
		Params:       params,
		ErrorMessage: r.ErrorMessage,
		StartedAt:    r.StartedAt,
		FinishedAt:   r.FinishedAt,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    updatedAt,
		DeletedAt:    deletedAt,
		IsDeleted:    r.DeletedAt.Valid,
	}
}

func (m *RunMapper) ToModel(r *entity.Run) *model.Run {
	if r == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if r.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *r.DeletedAt, Valid: true}
	} else if r.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if r.UpdatedAt != nil {
		updatedAt = *r.UpdatedAt
	}

	var params datatypes.JSON
	if r.Params != nil {
		if data, err := json.Marshal(r.Params); err == nil {
			params = datatypes.JSON(data)
		}
	}

	return &model.Run{
		Id:           r.Id,
		DealId:       r.DealId,
		ParentRunId:  r.ParentRunId,
		Mode:         r.Mode,
		ResearchMode: r.ResearchMode,
		Status:       r.Status,
		Params:       params,
		ErrorMessage: r.ErrorMessage,
		StartedAt:    r.StartedAt,
		FinishedAt:   r.FinishedAt,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    updatedAt,
		DeletedAt:    deletedAt,
	}
}

func (m *RunMapper) ToEntities(runs []*model.Run) []*entity.Run {
	entities := make([]*entity.Run, len(runs))
	for i, r := range runs {
		entities[i] = m.ToEntity(r)
	}
	return entities
}

func (m *RunMapper) ToModels(runs []*entity.Run) []*model.Run {
	models := make([]*model.Run, len(runs))
	for i, r := range runs {
		models[i] = m.ToModel(r)
	}
	return models
}
