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

type ArtifactRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ArtifactMapper
}

func NewArtifactRepository(db *gorm.DB) contract.ArtifactRepository {
	return &ArtifactRepositoryImpl{
		db:     db,
		mapper: mapper.NewArtifactMapper(),
	}
}

func (r *ArtifactRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ArtifactRepositoryImpl) Create(ctx context.Context, artifact *entity.Artifact) error {
	m := r.mapper.ToModel(artifact)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*artifact = *r.mapper.ToEntity(m)
	return nil
}

func (r *ArtifactRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Artifact{}, id).Error
}

func (r *ArtifactRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Artifact, error) {
	var m model.Artifact
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *ArtifactRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Artifact, error) {
	var models []*model.Artifact
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.Artifact, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

func (r *ArtifactRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.Artifact{}).Count(&count).Error
	return count, err
}
