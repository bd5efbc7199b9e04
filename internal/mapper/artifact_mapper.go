package mapper

import (
	"encoding/json"
	"time"

	"dealdocs-be/internal/entity"
	"dealdocs-be/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ArtifactMapper struct{}

func NewArtifactMapper() *ArtifactMapper {
	return &ArtifactMapper{}
}

func (m *ArtifactMapper) ToEntity(a *model.Artifact) *entity.Artifact {
	if a == nil {
		return nil
	}

	var deletedAt *time.Time
	if a.DeletedAt.Valid {
		t := a.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !a.UpdatedAt.IsZero() {
		t := a.UpdatedAt
		updatedAt = &t
	}

	var meta map[string]interface{}
	if len(a.Meta) > 0 {
		_ = json.Unmarshal(a.Meta, &meta)
	}

	return &entity.Artifact{
		Id:          a.Id,
		RunId:       a.RunId,
		Kind:        a.Kind,
		StoragePath: a.StoragePath,
		Meta:        meta,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   updatedAt,
		DeletedAt:   deletedAt,
		IsDeleted:   a.DeletedAt.Valid,
	}
}

func (m *ArtifactMapper) ToModel(a *entity.Artifact) *model.Artifact {
	if a == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if a.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *a.DeletedAt, Valid: true}
	} else if a.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if a.UpdatedAt != nil {
		updatedAt = *a.UpdatedAt
	}

	var meta datatypes.JSON
	if a.Meta != nil {
		if data, err := json.Marshal(a.Meta); err == nil {
			meta = datatypes.JSON(data)
		}
	}

	return &model.Artifact{
		Id:          a.Id,
		RunId:       a.RunId,
		Kind:        a.Kind,
		StoragePath: a.StoragePath,
		Meta:        meta,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   updatedAt,
		DeletedAt:   deletedAt,
	}
}

func (m *ArtifactMapper) ToEntities(artifacts []*model.Artifact) []*entity.Artifact {
	entities := make([]*entity.Artifact, len(artifacts))
	for i, a := range artifacts {
		entities[i] = m.ToEntity(a)
	}
	return entities
}

func (m *ArtifactMapper) ToModels(artifacts []*entity.Artifact) []*model.Artifact {
	models := make([]*model.Artifact, len(artifacts))
	for i, a := range artifacts {
		models[i] = m.ToModel(a)
	}
	return models
}
