package contract

import (
	"context"

	"dealdocs-be/internal/entity"
	"dealdocs-be/internal/repository/specification"

	"github.com/google/uuid"
)

type RunRepository interface {
	Create(ctx context.Context, run *entity.Run) error
	Update(ctx context.Context, run *entity.Run) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Run, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Run, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
