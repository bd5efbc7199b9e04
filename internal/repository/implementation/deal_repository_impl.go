package implementation

import (
	"context"
	"errors"

	"dealdocs-be/internal/entity"
	"dealdocs-be/internal/mapper"
	"dealdocs-be/internal/model"
	"dealdocs-be/internal/repository/contract"
	"dealdocs-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DealRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.DealMapper
}

func NewDealRepository(db *gorm.DB) contract.DealRepository {
	return &DealRepositoryImpl{
		db:     db,
		mapper: mapper.NewDealMapper(),
	}
}

func (r *DealRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *DealRepositoryImpl) Create(ctx context.Context, deal *entity.Deal) error {
	m := r.mapper.ToModel(deal)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*deal = *r.mapper.ToEntity(m)
	return nil
}

func (r *DealRepositoryImpl) Update(ctx context.Context, deal *entity.Deal) error {
	m := r.mapper.ToModel(deal)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*deal = *r.mapper.ToEntity(m)
	return nil
}

func (r *DealRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Deal{}, id).Error
}

func (r *DealRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Deal, error) {
	var m model.Deal
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *DealRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Deal, error) {
	var models []*model.Deal
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.Deal, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

func (r *DealRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.Deal{}).Count(&count).Error
	return count, err
}
