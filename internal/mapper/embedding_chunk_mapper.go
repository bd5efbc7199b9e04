package mapper

import (
	"time"

	"dealdocs-be/internal/entity"
	"dealdocs-be/internal/model"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type EmbeddingChunkMapper struct{}

func NewEmbeddingChunkMapper() *EmbeddingChunkMapper {
	return &EmbeddingChunkMapper{}
}

func (m *EmbeddingChunkMapper) ToEntity(c *model.EmbeddingChunk) *entity.EmbeddingChunk {
	if c == nil {
		return nil
	}

	var deletedAt *time.Time
	if c.DeletedAt.Valid {
		t := c.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !c.UpdatedAt.IsZero() {
		t := c.UpdatedAt
		updatedAt = &t
	}

	return &entity.EmbeddingChunk{
		Id:             c.Id,
		DocumentId:     c.DocumentId,
		DealId:         c.DealId,
		Content:        c.Content,
		ContentHash:    c.ContentHash,
		Embedding:      c.Embedding.Slice(),
		EmbeddingModel: c.EmbeddingModel,
		ChunkIndex:     c.ChunkIndex,
		ChunkSize:      c.ChunkSize,
		ChunkOverlap:   c.ChunkOverlap,
		SourceFilename: c.SourceFilename,
		SourceFileType: c.SourceFileType,
		SectionTitle:   c.SectionTitle,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      updatedAt,
		DeletedAt:      deletedAt,
		IsDeleted:      c.DeletedAt.Valid,
	}
}

func (m *EmbeddingChunkMapper) ToModel(c *entity.EmbeddingChunk) *model.EmbeddingChunk {
	if c == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if c.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *c.DeletedAt, Valid: true}
	} else if c.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if c.UpdatedAt != nil {
		updatedAt = *c.UpdatedAt
	}

	return &model.EmbeddingChunk{
		Id:             c.Id,
		DocumentId:     c.DocumentId,
		DealId:         c.DealId,
		Content:        c.Content,
		ContentHash:    c.ContentHash,
		Embedding:      pgvector.NewVector(c.Embedding),
		EmbeddingModel: c.EmbeddingModel,
		ChunkIndex:     c.ChunkIndex,
		ChunkSize:      c.ChunkSize,
		ChunkOverlap:   c.ChunkOverlap,
		SourceFilename: c.SourceFilename,
		SourceFileType: c.SourceFileType,
		SectionTitle:   c.SectionTitle,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      updatedAt,
		DeletedAt:      deletedAt,
	}
}

func (m *EmbeddingChunkMapper) ToEntities(chunks []*model.EmbeddingChunk) []*entity.EmbeddingChunk {
	entities := make([]*entity.EmbeddingChunk, len(chunks))
	for i, c := range chunks {
		entities[i] = m.ToEntity(c)
	}
	return entities
}

func (m *EmbeddingChunkMapper) ToModels(chunks []*entity.EmbeddingChunk) []*model.EmbeddingChunk {
	models := make([]*model.EmbeddingChunk, len(chunks))
	for i, c := range chunks {
		models[i] = m.ToModel(c)
	}
	return models
}
