package mapper

import (
	"time"

	"dealdocs-be/internal/entity"
	"dealdocs-be/internal/model"

	"gorm.io/gorm"
)

type DocumentMapper struct{}

func NewDocumentMapper() *DocumentMapper {
	return &DocumentMapper{}
}

func (m *DocumentMapper) ToEntity(d *model.Document) *entity.Document {
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

	return &entity.Document{
		Id:                      d.Id,
		DealId:                  d.DealId,
		Filename:                d.Filename,
		OriginalFilename:        d.OriginalFilename,
		StoragePath:             d.StoragePath,
		MimeType:                d.MimeType,
		SizeBytes:               d.SizeBytes,
		Checksum:                d.Checksum,
		Note:                    d.Note,
		Status:                  d.Status,
		ErrorMessage:            d.ErrorMessage,
		ExtractedText:           d.ExtractedText,
		TextExtracted:           d.TextExtracted,
		EmbeddingsCreated:       d.EmbeddingsCreated,
		TextChunksCount:         d.TextChunksCount,
		PdfPageCount:            d.PdfPageCount,
		TokenCount:              d.TokenCount,
		NativeTokenCount:        d.NativeTokenCount,
		SummaryTokenCount:       d.SummaryTokenCount,
		IsTooLarge:              d.IsTooLarge,
		IsSummarized:            d.IsSummarized,
		UseSummaryForGeneration: d.UseSummaryForGeneration,
		Summary:                 d.Summary,
		ProcessedAt:             d.ProcessedAt,
		CreatedAt:               d.CreatedAt,
		UpdatedAt:               updatedAt,
		DeletedAt:               deletedAt,
		IsDeleted:               d.DeletedAt.Valid,
	}
}

func (m *DocumentMapper) ToModel(d *entity.Document) *model.Document {
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

	return &model.Document{
		Id:                      d.Id,
		DealId:                  d.DealId,
		Filename:                d.Filename,
		OriginalFilename:        d.OriginalFilename,
		StoragePath:             d.StoragePath,
		MimeType:                d.MimeType,
		SizeBytes:               d.SizeBytes,
		Checksum:                d.Checksum,
		Note:                    d.Note,
		Status:                  d.Status,
		ErrorMessage:            d.ErrorMessage,
		ExtractedText:           d.ExtractedText,
		TextExtracted:           d.TextExtracted,
		EmbeddingsCreated:       d.EmbeddingsCreated,
		TextChunksCount:         d.TextChunksCount,
		PdfPageCount:            d.PdfPageCount,
		TokenCount:              d.TokenCount,
		NativeTokenCount:        d.NativeTokenCount,
		SummaryTokenCount:       d.SummaryTokenCount,
		IsTooLarge:              d.IsTooLarge,
		IsSummarized:            d.IsSummarized,
		UseSummaryForGeneration: d.UseSummaryForGeneration,
		Summary:                 d.Summary,
		ProcessedAt:             d.ProcessedAt,
		CreatedAt:               d.CreatedAt,
		UpdatedAt:               updatedAt,
		DeletedAt:               deletedAt,
	}
}

func (m *DocumentMapper) ToEntities(docs []*model.Document) []*entity.Document {
	entities := make([]*entity.Document, len(docs))
	for i, d := range docs {
		entities[i] = m.ToEntity(d)
	}
	return entities
}

func (m *DocumentMapper) ToModels(docs []*entity.Document) []*model.Document {
	models := make([]*model.Document, len(docs))
	for i, d := range docs {
		models[i] = m.ToModel(d)
	}
	return models
}
