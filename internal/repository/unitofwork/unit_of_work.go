package unitofwork

import (
	"context"

	"dealdocs-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	DealRepository() contract.DealRepository
	DocumentRepository() contract.DocumentRepository
	IngestionJobRepository() contract.IngestionJobRepository
	EmbeddingChunkRepository() contract.EmbeddingChunkRepository
	RunRepository() contract.RunRepository
	ArtifactRepository() contract.ArtifactRepository
}
