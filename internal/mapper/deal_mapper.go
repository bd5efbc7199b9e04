package mapper

import (
	"time"

	"dealdocs-be/internal/entity"
	"dealdocs-be/internal/model"

	"gorm.io/gorm"
)

type DealMapper struct{}

func NewDealMapper() *DealMapper {
	return &DealMapper{}
}

func (m *DealMapper) ToEntity(d *model.Deal) *entity.Deal {
	if d == nil {
		return nil
	}

	var deletedAt *time.Time
	if d.DeletedAt.Valid {
		t := d.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !d.UpdatedAt.IsZero() {
		t := d.UpdatedAt
		updatedAt = &t
	}

	return &entity.Deal{
		Id:          d.Id,
		Name:        d.Name,
		Description: d.Description,
		Focus:       d.Focus,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   updatedAt,
		DeletedAt:   deletedAt,
		IsDeleted:   d.DeletedAt.Valid,
	}
}

func (m *DealMapper) ToModel(d *entity.Deal) *model.Deal {
	if d == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if d.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *d.DeletedAt, Valid: true}
	} else if d.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if d.UpdatedAt != nil {
		updatedAt = *d.UpdatedAt
	}

	return &model.Deal{
		Id:          d.Id,
		Name:        d.Name,
		Description: d.Description,
		Focus:       d.Focus,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   updatedAt,
		DeletedAt:   deletedAt,
	}
}

func (m *DealMapper) ToEntities(deals []*model.Deal) []*entity.Deal {
	entities := make([]*entity.Deal, len(deals))
	for i, d := range deals {
		entities[i] = m.ToEntity(d)
	}
	return entities
}

func (m *DealMapper) ToModels(deals []*entity.Deal) []*model.Deal {
	models := make([]*model.Deal, len(deals))
	for i, d := range deals {
		models[i] = m.ToModel(d)
	}
	return models
}
