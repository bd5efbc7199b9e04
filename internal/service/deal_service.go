package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dealdocs-be/internal/dto"
	"dealdocs-be/internal/entity"
	"dealdocs-be/internal/model"
	"dealdocs-be/internal/repository/specification"
	"dealdocs-be/internal/repository/unitofwork"
	"dealdocs-be/pkg/extract"
	"dealdocs-be/pkg/ingest"
	"dealdocs-be/pkg/storage"
	"dealdocs-be/pkg/summarize"
	"dealdocs-be/pkg/tokencount"

	"github.com/google/uuid"
)

// UploadLimits decides when a file is too large to feed generation
// natively. Oversized files are summarized at upload time and default to
// summary mode.
type UploadLimits struct {
	MaxNativeTokens   int
	MaxNativePDFBytes int64
	MaxNativePDFPages int
}

type IDealService interface {
	Create(ctx context.Context, req *dto.CreateDealRequest, files []*multipart.FileHeader) (*dto.CreateDealResponse, error)
	Show(ctx context.Context, id uuid.UUID) (*dto.ShowDealResponse, error)
	List(ctx context.Context) ([]*dto.ShowDealResponse, error)
	Update(ctx context.Context, req *dto.UpdateDealRequest) (*dto.UpdateDealResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type dealService struct {
	uowFactory unitofwork.RepositoryFactory
	store      storage.Backend
	queue      *ingest.Queue
	summarizer *summarize.Summarizer
	limits     UploadLimits
}

func NewDealService(
	uowFactory unitofwork.RepositoryFactory,
	store storage.Backend,
	queue *ingest.Queue,
	summarizer *summarize.Summarizer,
	limits UploadLimits,
) IDealService {
	return &dealService{
		uowFactory: uowFactory,
		store:      store,
		queue:      queue,
		summarizer: summarizer,
		limits:     limits,
	}
}

func (s *dealService) Create(ctx context.Context, req *dto.CreateDealRequest, files []*multipart.FileHeader) (*dto.CreateDealResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	deal := entity.Deal{
		Id:          uuid.New(),
		Name:        req.Name,
		Description: req.Description,
		Focus:       req.Focus,
		CreatedAt:   time.Now(),
	}
	if err := uow.DealRepository().Create(ctx, &deal); err != nil {
		return nil, err
	}

	statuses := make([]dto.UploadedDocumentStatus, 0, len(files))
	for _, fh := range files {
		status, err := s.uploadDocument(ctx, uow, &deal, fh)
		if err != nil {
			// One bad file must not sink the deal or its siblings.
			log.Printf("[ERROR] Upload failed for %s in deal %s: %v", fh.Filename, deal.Id, err)
			continue
		}
		statuses = append(statuses, *status)
	}

	return &dto.CreateDealResponse{
		Id:        deal.Id,
		Name:      deal.Name,
		Documents: statuses,
	}, nil
}

func (s *dealService) uploadDocument(ctx context.Context, uow unitofwork.UnitOfWork, deal *entity.Deal, fh *multipart.FileHeader) (*dto.UploadedDocumentStatus, error) {
	file, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	normalized := extract.NormalizeFilename(fh.Filename)
	sum := sha256.Sum256(data)
	checksum := hex.EncodeToString(sum[:])

	analysis := s.analyze(normalized, data)

	// The document id prefixes the key so identically named uploads
	// within one deal never overwrite each other.
	docId := uuid.New()
	key := storage.Key(deal.Id.String(), fmt.Sprintf("input/%s_%s", docId, normalized))
	if err := s.store.Put(ctx, key, data); err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	doc := entity.Document{
		Id:               docId,
		DealId:           deal.Id,
		Filename:         normalized,
		OriginalFilename: fh.Filename,
		StoragePath:      key,
		MimeType:         fh.Header.Get("Content-Type"),
		SizeBytes:        int64(len(data)),
		Checksum:         checksum,
		Status:           model.DocumentStatusQueued,
		TokenCount:       analysis.tokens,
		NativeTokenCount: analysis.tokens,
		PdfPageCount:     analysis.pdfPages,
		IsTooLarge:       analysis.tooLarge,
		CreatedAt:        time.Now(),
	}

	if analysis.tooLarge && analysis.text != "" {
		s.summarizeDocument(ctx, &doc, deal, analysis.text)
	}

	if err := uow.DocumentRepository().Create(ctx, &doc); err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	if _, err := s.queue.Enqueue(ctx, doc.Id, deal.Id); err != nil {
		return nil, fmt.Errorf("failed to enqueue ingestion: %w", err)
	}

	return &dto.UploadedDocumentStatus{
		Id:           doc.Id,
		Filename:     doc.Filename,
		Status:       doc.Status,
		IsTooLarge:   doc.IsTooLarge,
		IsSummarized: doc.IsSummarized,
		TokenCount:   doc.TokenCount,
	}, nil
}

type uploadAnalysis struct {
	text     string
	tokens   int
	pdfPages int
	tooLarge bool
}

// analyze estimates token cost from the upload and applies the size
// limits. Text is extracted eagerly here only for the estimate and for
// feeding the summarizer; the pipeline re-extracts from storage later.
func (s *dealService) analyze(filename string, data []byte) uploadAnalysis {
	var analysis uploadAnalysis

	tmpDir, err := os.MkdirTemp("", "upload-*")
	if err == nil {
		defer os.RemoveAll(tmpDir)
		tmpPath := filepath.Join(tmpDir, filename)
		if writeErr := os.WriteFile(tmpPath, data, 0o600); writeErr == nil {
			analysis.text = strings.TrimSpace(extract.Extract(tmpPath))

			if strings.EqualFold(filepath.Ext(filename), ".pdf") {
				analysis.pdfPages = extract.PDFPageCount(tmpPath)
				if s.limits.MaxNativePDFPages > 0 && analysis.pdfPages > s.limits.MaxNativePDFPages {
					analysis.tooLarge = true
				}
			}
		}
	}

	if analysis.text != "" {
		analysis.tokens = tokencount.EstimateText(analysis.text)
	} else {
		analysis.tokens = tokencount.EstimateBinary(len(data))
	}

	if s.limits.MaxNativeTokens > 0 && analysis.tokens > s.limits.MaxNativeTokens {
		analysis.tooLarge = true
	}
	if strings.EqualFold(filepath.Ext(filename), ".pdf") &&
		s.limits.MaxNativePDFBytes > 0 && int64(len(data)) > s.limits.MaxNativePDFBytes {
		analysis.tooLarge = true
	}

	return analysis
}

// summarizeDocument runs the cached summarizer and switches the document
// to summary mode. Summarize never fails, so the document always leaves
// here usable for generation.
func (s *dealService) summarizeDocument(ctx context.Context, doc *entity.Document, deal *entity.Deal, text string) {
	summary := s.summarizer.Summarize(ctx, summarize.Input{
		Filename:    doc.Filename,
		Content:     text,
		Focus:       deal.Focus,
		Note:        doc.Note,
		ContentHash: doc.Checksum,
	})

	encoded, err := json.Marshal(summary)
	if err != nil {
		log.Printf("[WARN] Failed to encode summary for %s: %v", doc.Filename, err)
		return
	}

	doc.Summary = string(encoded)
	doc.IsSummarized = true
	doc.SummaryTokenCount = tokencount.EstimateText(string(encoded))
	doc.UseSummaryForGeneration = true
	doc.TokenCount = doc.SummaryTokenCount
}

func (s *dealService) Show(ctx context.Context, id uuid.UUID) (*dto.ShowDealResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	deal, err := uow.DealRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if deal == nil {
		return nil, nil
	}

	count, err := uow.DocumentRepository().Count(ctx, specification.ByDealID{DealID: id})
	if err != nil {
		return nil, err
	}

	return toShowDealResponse(deal, count), nil
}

func (s *dealService) List(ctx context.Context) ([]*dto.ShowDealResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	deals, err := uow.DealRepository().FindAll(ctx, specification.OrderBy{Field: "created_at", Desc: true})
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.ShowDealResponse, len(deals))
	for i, deal := range deals {
		count, err := uow.DocumentRepository().Count(ctx, specification.ByDealID{DealID: deal.Id})
		if err != nil {
			return nil, err
		}
		responses[i] = toShowDealResponse(deal, count)
	}
	return responses, nil
}

func (s *dealService) Update(ctx context.Context, req *dto.UpdateDealRequest) (*dto.UpdateDealResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	deal, err := uow.DealRepository().FindOne(ctx, specification.ByID{ID: req.Id})
	if err != nil {
		return nil, err
	}
	if deal == nil {
		return nil, nil
	}

	deal.Name = req.Name
	deal.Description = req.Description
	deal.Focus = req.Focus
	if err := uow.DealRepository().Update(ctx, deal); err != nil {
		return nil, err
	}

	return &dto.UpdateDealResponse{Id: deal.Id}, nil
}

// Delete removes the deal with everything hanging off it: chunks,
// documents, and stored files. Stored file removal is best-effort.
func (s *dealService) Delete(ctx context.Context, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	deal, err := uow.DealRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return err
	}
	if deal == nil {
		return nil
	}

	docs, err := uow.DocumentRepository().FindAll(ctx, specification.ByDealID{DealID: id})
	if err != nil {
		return err
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	if err := uow.EmbeddingChunkRepository().DeleteByDealIdUnscoped(ctx, id); err != nil {
		_ = uow.Rollback()
		return err
	}
	if err := uow.DocumentRepository().DeleteByDealIdUnscoped(ctx, id); err != nil {
		_ = uow.Rollback()
		return err
	}
	if err := uow.DealRepository().Delete(ctx, id); err != nil {
		_ = uow.Rollback()
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	for _, doc := range docs {
		if err := s.store.Delete(ctx, doc.StoragePath); err != nil {
			log.Printf("[WARN] Failed to delete stored file %s: %v", doc.StoragePath, err)
		}
	}
	return nil
}

func toShowDealResponse(deal *entity.Deal, documentCount int64) *dto.ShowDealResponse {
	return &dto.ShowDealResponse{
		Id:            deal.Id,
		Name:          deal.Name,
		Description:   deal.Description,
		Focus:         deal.Focus,
		DocumentCount: documentCount,
		CreatedAt:     deal.CreatedAt,
		UpdatedAt:     deal.UpdatedAt,
	}
}
