package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"dealdocs-be/internal/dto"
	"dealdocs-be/internal/entity"
	"dealdocs-be/internal/model"
	"dealdocs-be/internal/repository/specification"
	"dealdocs-be/internal/repository/unitofwork"
	"dealdocs-be/pkg/ingest"
	"dealdocs-be/pkg/storage"
	"dealdocs-be/pkg/summarize"
	"dealdocs-be/pkg/tokencount"

	"github.com/google/uuid"
)

var (
	// ErrNativeModeUnavailable rejects switching an oversized, never
	// summarized document to native mode. Its raw text would blow the
	// generation context.
	ErrNativeModeUnavailable = errors.New("document is too large for native mode and has no summary")

	// ErrSummaryModeUnavailable rejects summary mode before a summary exists.
	ErrSummaryModeUnavailable = errors.New("document has not been summarized yet")

	// ErrNoExtractedText rejects summarization of documents whose
	// ingestion produced no text.
	ErrNoExtractedText = errors.New("document has no extracted text to summarize")
)

type IDocumentService interface {
	List(ctx context.Context, dealId uuid.UUID) ([]*dto.ShowDocumentResponse, error)
	Show(ctx context.Context, id uuid.UUID) (*dto.ShowDocumentResponse, error)
	Summarize(ctx context.Context, id uuid.UUID) (*dto.SummarizeDocumentResponse, error)
	ToggleGenerationMode(ctx context.Context, req *dto.ToggleGenerationModeRequest) (*dto.ToggleGenerationModeResponse, error)
	Reingest(ctx context.Context, id uuid.UUID) (*dto.ReingestDocumentResponse, error)
	Delete(ctx context.Context, id uuid.UUID) (*dto.DeleteDocumentResponse, error)
}

type documentService struct {
	uowFactory unitofwork.RepositoryFactory
	store      storage.Backend
	queue      *ingest.Queue
	summarizer *summarize.Summarizer
}

func NewDocumentService(
	uowFactory unitofwork.RepositoryFactory,
	store storage.Backend,
	queue *ingest.Queue,
	summarizer *summarize.Summarizer,
) IDocumentService {
	return &documentService{
		uowFactory: uowFactory,
		store:      store,
		queue:      queue,
		summarizer: summarizer,
	}
}

func (s *documentService) List(ctx context.Context, dealId uuid.UUID) ([]*dto.ShowDocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	docs, err := uow.DocumentRepository().FindAll(ctx,
		specification.ByDealID{DealID: dealId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.ShowDocumentResponse, len(docs))
	for i, doc := range docs {
		responses[i] = toShowDocumentResponse(doc)
	}
	return responses, nil
}

func (s *documentService) Show(ctx context.Context, id uuid.UUID) (*dto.ShowDocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	doc, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}
	return toShowDocumentResponse(doc), nil
}

// Summarize produces (or refreshes) the structured summary from the
// document's extracted text. Token counts update but the active
// generation mode is left alone.
func (s *documentService) Summarize(ctx context.Context, id uuid.UUID) (*dto.SummarizeDocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	doc, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}
	if !doc.TextExtracted || doc.ExtractedText == "" {
		return nil, ErrNoExtractedText
	}

	deal, err := uow.DealRepository().FindOne(ctx, specification.ByID{ID: doc.DealId})
	if err != nil {
		return nil, err
	}

	focus := ""
	if deal != nil {
		focus = deal.Focus
	}

	summary := s.summarizer.Summarize(ctx, summarize.Input{
		Filename:    doc.Filename,
		Content:     doc.ExtractedText,
		Focus:       focus,
		Note:        doc.Note,
		ContentHash: doc.Checksum,
	})

	encoded, err := json.Marshal(summary)
	if err != nil {
		return nil, err
	}

	doc.Summary = string(encoded)
	doc.IsSummarized = true
	doc.SummaryTokenCount = tokencount.EstimateText(string(encoded))
	if doc.UseSummaryForGeneration {
		doc.TokenCount = doc.SummaryTokenCount
	}

	if err := uow.DocumentRepository().Update(ctx, doc); err != nil {
		return nil, err
	}

	return &dto.SummarizeDocumentResponse{
		Id:                doc.Id,
		IsSummarized:      doc.IsSummarized,
		SummaryTokenCount: doc.SummaryTokenCount,
	}, nil
}

// ToggleGenerationMode flips which text the document contributes to
// generation. Switching in either direction requires the target text to
// actually be usable, and the visible token count follows the mode.
func (s *documentService) ToggleGenerationMode(ctx context.Context, req *dto.ToggleGenerationModeRequest) (*dto.ToggleGenerationModeResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	doc, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: req.Id})
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}

	if req.UseSummary {
		if !doc.IsSummarized {
			return nil, ErrSummaryModeUnavailable
		}
		doc.UseSummaryForGeneration = true
		doc.TokenCount = doc.SummaryTokenCount
	} else {
		if doc.IsTooLarge && !doc.IsSummarized {
			return nil, ErrNativeModeUnavailable
		}
		doc.UseSummaryForGeneration = false
		doc.TokenCount = doc.NativeTokenCount
	}

	if err := uow.DocumentRepository().Update(ctx, doc); err != nil {
		return nil, err
	}

	return &dto.ToggleGenerationModeResponse{
		Id:                      doc.Id,
		UseSummaryForGeneration: doc.UseSummaryForGeneration,
		TokenCount:              doc.TokenCount,
	}, nil
}

// Reingest queues the document for a fresh extract/chunk/embed pass.
// The pipeline clears prior chunks itself, so nothing is deleted here.
func (s *documentService) Reingest(ctx context.Context, id uuid.UUID) (*dto.ReingestDocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	doc, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}

	doc.Status = model.DocumentStatusQueued
	doc.ErrorMessage = ""
	if err := uow.DocumentRepository().Update(ctx, doc); err != nil {
		return nil, err
	}

	job, err := s.queue.Enqueue(ctx, doc.Id, doc.DealId)
	if err != nil {
		return nil, err
	}

	return &dto.ReingestDocumentResponse{
		Id:     doc.Id,
		JobId:  job.Id,
		Status: job.Status,
	}, nil
}

func (s *documentService) Delete(ctx context.Context, id uuid.UUID) (*dto.DeleteDocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	doc, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}

	deleted, err := uow.EmbeddingChunkRepository().DeleteByDocumentId(ctx, doc.Id)
	if err != nil {
		return nil, err
	}

	if err := uow.DocumentRepository().Delete(ctx, doc.Id); err != nil {
		return nil, err
	}

	if err := s.store.Delete(ctx, doc.StoragePath); err != nil {
		log.Printf("[WARN] Failed to delete stored file %s: %v", doc.StoragePath, err)
	}

	return &dto.DeleteDocumentResponse{
		Id:            doc.Id,
		ChunksDeleted: deleted,
	}, nil
}

func toShowDocumentResponse(doc *entity.Document) *dto.ShowDocumentResponse {
	return &dto.ShowDocumentResponse{
		Id:                      doc.Id,
		DealId:                  doc.DealId,
		Filename:                doc.Filename,
		OriginalFilename:        doc.OriginalFilename,
		MimeType:                doc.MimeType,
		SizeBytes:               doc.SizeBytes,
		Note:                    doc.Note,
		Status:                  doc.Status,
		ErrorMessage:            doc.ErrorMessage,
		TextExtracted:           doc.TextExtracted,
		EmbeddingsCreated:       doc.EmbeddingsCreated,
		TokenCount:              doc.TokenCount,
		TextChunksCount:         doc.TextChunksCount,
		PdfPageCount:            doc.PdfPageCount,
		IsTooLarge:              doc.IsTooLarge,
		IsSummarized:            doc.IsSummarized,
		UseSummaryForGeneration: doc.UseSummaryForGeneration,
		ProcessedAt:             doc.ProcessedAt,
		CreatedAt:               doc.CreatedAt,
		UpdatedAt:               doc.UpdatedAt,
	}
}
