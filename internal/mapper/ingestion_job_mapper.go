package mapper

import (
	"time"

	"dealdocs-be/internal/entity"
	"dealdocs-be/internal/model"

	"gorm.io/gorm"
)

type IngestionJobMapper struct{}

func NewIngestionJobMapper() *IngestionJobMapper {
	return &IngestionJobMapper{}
}

func (m *IngestionJobMapper) ToEntity(j *model.IngestionJob) *entity.IngestionJob {
	if j == nil {
		return nil
	}

	var deletedAt *time.Time
	if j.DeletedAt.Valid {
		t := j.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !j.UpdatedAt.IsZero() {
		t := j.UpdatedAt
		updatedAt = &t
	}

	return &entity.IngestionJob{
		Id:           j.Id,
		DocumentId:   j.DocumentId,
		DealId:       j.DealId,
		Status:       j.Status,
		Attempts:     j.Attempts,
		ErrorMessage: j.ErrorMessage,
		StartedAt:    j.StartedAt,
		FinishedAt:   j.FinishedAt,
		CreatedAt:    j.CreatedAt,
		UpdatedAt:    updatedAt,
		DeletedAt:    deletedAt,
		IsDeleted:    j.DeletedAt.Valid,
	}
}

func (m *IngestionJobMapper) ToModel(j *entity.IngestionJob) *model.IngestionJob {
	if j == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if j.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *j.DeletedAt, Valid: true}
	} else if j.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if j.UpdatedAt != nil {
		updatedAt = *j.UpdatedAt
	}

	return &model.IngestionJob{
		Id:           j.Id,
		DocumentId:   j.DocumentId,
		DealId:       j.DealId,
		Status:       j.Status,
		Attempts:     j.Attempts,
		ErrorMessage: j.ErrorMessage,
		StartedAt:    j.StartedAt,
		FinishedAt:   j.FinishedAt,
		CreatedAt:    j.CreatedAt,
		UpdatedAt:    updatedAt,
		DeletedAt:    deletedAt,
	}
}

func (m *IngestionJobMapper) ToEntities(jobs []*model.IngestionJob) []*entity.IngestionJob {
	entities := make([]*entity.IngestionJob, len(jobs))
	for i, j := range jobs {
		entities[i] = m.ToEntity(j)
	}
	return entities
}

func (m *IngestionJobMapper) ToModels(jobs []*entity.IngestionJob) []*model.IngestionJob {
	models := make([]*model.IngestionJob, len(jobs))
	for i, j := range jobs {
		models[i] = m.ToModel(j)
	}
	return models
}
