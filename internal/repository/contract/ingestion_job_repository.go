package contract

import (
	"context"

	"dealdocs-be/internal/entity"
	"dealdocs-be/internal/repository/specification"

	"github.com/google/uuid"
)

type IngestionJobRepository interface {
	Create(ctx context.Context, job *entity.IngestionJob) error
	Update(ctx context.Context, job *entity.IngestionJob) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.IngestionJob, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.IngestionJob, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
