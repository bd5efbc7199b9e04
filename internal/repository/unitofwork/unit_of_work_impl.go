package unitofwork

import (
	"context"
	"fmt"

	"dealdocs-be/internal/repository/contract"
	"dealdocs-be/internal/repository/implementation"

	"gorm.io/gorm"
)

type UnitOfWorkImpl struct {
	db *gorm.DB
	tx *gorm.DB // active transaction, nil outside Begin/Commit
}

func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &UnitOfWorkImpl{
		db: db,
	}
}

func (u *UnitOfWorkImpl) getDB() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

func (u *UnitOfWorkImpl) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}
	u.tx = u.db.WithContext(ctx).Begin()
	return u.tx.Error
}

func (u *UnitOfWorkImpl) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}
	err := u.tx.Commit().Error
	u.tx = nil
	return err
}

func (u *UnitOfWorkImpl) Rollback() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to rollback")
	}
	err := u.tx.Rollback().Error
	u.tx = nil
	return err
}

// Repository Accessors

func (u *UnitOfWorkImpl) DealRepository() contract.DealRepository {
	return implementation.NewDealRepository(u.getDB())
}

func (u *UnitOfWorkImpl) DocumentRepository() contract.DocumentRepository {
	return implementation.NewDocumentRepository(u.getDB())
}

func (u *UnitOfWorkImpl) IngestionJobRepository() contract.IngestionJobRepository {
	return implementation.NewIngestionJobRepository(u.getDB())
}

func (u *UnitOfWorkImpl) EmbeddingChunkRepository() contract.EmbeddingChunkRepository {
	return implementation.NewEmbeddingChunkRepository(u.getDB())
}

func (u *UnitOfWorkImpl) RunRepository() contract.RunRepository {
	return implementation.NewRunRepository(u.getDB())
}

func (u *UnitOfWorkImpl) ArtifactRepository() contract.ArtifactRepository {
	return implementation.NewArtifactRepository(u.getDB())
}
