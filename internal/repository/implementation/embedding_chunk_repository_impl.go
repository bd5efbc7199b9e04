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
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type EmbeddingChunkRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.EmbeddingChunkMapper
}

func NewEmbeddingChunkRepository(db *gorm.DB) contract.EmbeddingChunkRepository {
	return &EmbeddingChunkRepositoryImpl{
		db:     db,
		mapper: mapper.NewEmbeddingChunkMapper(),
	}
}

func (r *EmbeddingChunkRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *EmbeddingChunkRepositoryImpl) Create(ctx context.Context, chunk *entity.EmbeddingChunk) error {
	m := r.mapper.ToModel(chunk)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*chunk = *r.mapper.ToEntity(m)
	return nil
}

func (r *EmbeddingChunkRepositoryImpl) CreateBulk(ctx context.Context, chunks []*entity.EmbeddingChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	models := make([]*model.EmbeddingChunk, len(chunks))
	for i, c := range chunks {
		models[i] = r.mapper.ToModel(c)
	}

	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}

	// Update IDs back to entities
	for i, m := range models {
		*chunks[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *EmbeddingChunkRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.EmbeddingChunk{}, id).Error
}

// DeleteByDocumentId hard deletes so re-ingested documents start from a
// clean slate. Soft-deleted vectors would still occupy index space and
// could resurface through Unscoped reads.
func (r *EmbeddingChunkRepositoryImpl) DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Unscoped().Where("document_id = ?", documentId).Delete(&model.EmbeddingChunk{})
	return result.RowsAffected, result.Error
}

func (r *EmbeddingChunkRepositoryImpl) DeleteByDealIdUnscoped(ctx context.Context, dealId uuid.UUID) error {
	return r.db.WithContext(ctx).Unscoped().Where("deal_id = ?", dealId).Delete(&model.EmbeddingChunk{}).Error
}

func (r *EmbeddingChunkRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.EmbeddingChunk, error) {
	var m model.EmbeddingChunk
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *EmbeddingChunkRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.EmbeddingChunk, error) {
	var models []*model.EmbeddingChunk
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.EmbeddingChunk, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

func (r *EmbeddingChunkRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.EmbeddingChunk{}).Count(&count).Error
	return count, err
}

// searchOrderClause ranks by score, then insertion time, then chunk
// index. Rows bulk-inserted in one statement share created_at, so the
// chunk index keeps equal-score ordering stable within a document.
const searchOrderClause = "similarity DESC, embedding_chunks.created_at ASC, embedding_chunks.chunk_index ASC"

// SearchSimilarWithScore computes cosine similarity as 1 - (embedding <=> query).
// pgvector's <=> operator is cosine distance, so the subtraction yields a
// score in [0, 1] where 1 means identical direction.
func (r *EmbeddingChunkRepositoryImpl) SearchSimilarWithScore(ctx context.Context, embedding []float32, topK int, filter contract.SearchFilter) ([]*entity.RetrievalResult, error) {
	if topK <= 0 {
		topK = 5
	}

	type result struct {
		model.EmbeddingChunk
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	query := r.db.WithContext(ctx).
		Table("embedding_chunks").
		Select("embedding_chunks.*, 1 - (embedding <=> ?) as similarity", queryVector).
		Where("embedding_chunks.deleted_at IS NULL")

	if filter.DealId != nil {
		query = query.Where("embedding_chunks.deal_id = ?", *filter.DealId)
	}
	if len(filter.DocumentIds) > 0 {
		query = query.Where("embedding_chunks.document_id IN ?", filter.DocumentIds)
	}

	err := query.
		Order(searchOrderClause).
		Limit(topK).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	retrieved := make([]*entity.RetrievalResult, len(results))
	for i, res := range results {
		retrieved[i] = &entity.RetrievalResult{
			ChunkId:        res.Id,
			DocumentId:     res.DocumentId,
			DealId:         res.DealId,
			Content:        res.Content,
			ChunkIndex:     res.ChunkIndex,
			SourceFilename: res.SourceFilename,
			SourceFileType: res.SourceFileType,
			SectionTitle:   res.SectionTitle,
			Similarity:     res.Similarity,
		}
	}
	return retrieved, nil
}
