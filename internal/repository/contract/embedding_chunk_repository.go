package contract

import (
	"context"

	"dealdocs-be/internal/entity"
	"dealdocs-be/internal/repository/specification"

	"github.com/google/uuid"
)

// SearchFilter narrows similarity search. DealId scopes to one deal;
// DocumentIds, when set, restricts further to those documents. Both
// conditions combine with AND.
type SearchFilter struct {
	DealId      *uuid.UUID
	DocumentIds []uuid.UUID
}

type EmbeddingChunkRepository interface {
	Create(ctx context.Context, chunk *entity.EmbeddingChunk) error
	CreateBulk(ctx context.Context, chunks []*entity.EmbeddingChunk) error
	Delete(ctx context.Context, id uuid.UUID) error
	// DeleteByDocumentId hard deletes every chunk of a document and
	// reports how many rows went away. Runs before re-ingestion so stale
	// vectors never survive a re-upload.
	DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) (int64, error)
	DeleteByDealIdUnscoped(ctx context.Context, dealId uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.EmbeddingChunk, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.EmbeddingChunk, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// SearchSimilarWithScore returns the topK most similar chunks with
	// cosine similarity scores in [0, 1], ordered best first with
	// created_at ASC as the tiebreak.
	SearchSimilarWithScore(ctx context.Context, embedding []float32, topK int, filter SearchFilter) ([]*entity.RetrievalResult, error)
}
