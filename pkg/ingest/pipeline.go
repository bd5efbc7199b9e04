package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"dealdocs-be/internal/entity"
	"dealdocs-be/internal/model"
	"dealdocs-be/internal/repository/specification"
	"dealdocs-be/internal/repository/unitofwork"
	"dealdocs-be/pkg/chunker"
	"dealdocs-be/pkg/embedding"
	"dealdocs-be/pkg/events"
	"dealdocs-be/pkg/extract"
	"dealdocs-be/pkg/llm"
	"dealdocs-be/pkg/storage"
	"dealdocs-be/pkg/tokencount"

	"github.com/google/uuid"
)

// Below this many characters of native PDF text the file is assumed to
// be scanned and the vision model is asked to describe it instead.
const minDirectPDFTextLen = 200

// pageMarkerRe matches the page separators the PDF extractor inserts.
var pageMarkerRe = regexp.MustCompile(`--- Page (\d+) ---`)

// EventPublisher decouples the pipeline from the concrete NATS client.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// Pipeline runs one ingestion job end to end: download, extract, chunk,
// embed, persist. Every terminal outcome is recorded on both the job and
// the document rows.
type Pipeline struct {
	uowFactory   unitofwork.RepositoryFactory
	store        storage.Backend
	embedder     embedding.Provider
	describer    llm.Provider   // optional, for scanned PDFs and images
	publisher    EventPublisher // optional, events are best-effort
	chunkSize    int
	chunkOverlap int
}

func NewPipeline(
	uowFactory unitofwork.RepositoryFactory,
	store storage.Backend,
	embedder embedding.Provider,
	describer llm.Provider,
	publisher EventPublisher,
	chunkSize, chunkOverlap int,
) *Pipeline {
	if chunkSize <= 0 {
		chunkSize = chunker.DefaultChunkSize
	}
	if chunkOverlap < 0 {
		chunkOverlap = chunker.DefaultOverlap
	}
	return &Pipeline{
		uowFactory:   uowFactory,
		store:        store,
		embedder:     embedder,
		describer:    describer,
		publisher:    publisher,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

// Process executes the job named by msg. A returned error means the job
// was marked failed; the message should still be acked since the failure
// is recorded.
func (p *Pipeline) Process(ctx context.Context, msg JobMessage) error {
	uow := p.uowFactory.NewUnitOfWork(ctx)

	job, err := uow.IngestionJobRepository().FindOne(ctx, specification.ByID{ID: msg.JobId})
	if err != nil {
		return fmt.Errorf("failed to load job %s: %w", msg.JobId, err)
	}
	if job == nil {
		return fmt.Errorf("ingestion job %s not found", msg.JobId)
	}

	now := time.Now()
	job.Status = model.IngestionJobStatusProcessing
	job.Attempts++
	job.StartedAt = &now
	if err := uow.IngestionJobRepository().Update(ctx, job); err != nil {
		return fmt.Errorf("failed to mark job processing: %w", err)
	}

	doc, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: msg.DocumentId})
	if err != nil {
		return p.fail(ctx, uow, job, nil, fmt.Errorf("failed to load document: %w", err))
	}
	if doc == nil {
		return p.fail(ctx, uow, job, nil, fmt.Errorf("document %s not found", msg.DocumentId))
	}

	doc.Status = model.DocumentStatusProcessing
	doc.ErrorMessage = ""
	if err := uow.DocumentRepository().Update(ctx, doc); err != nil {
		return p.fail(ctx, uow, job, nil, fmt.Errorf("failed to mark document processing: %w", err))
	}

	text, err := p.extractText(ctx, doc)
	if err != nil {
		return p.fail(ctx, uow, job, doc, err)
	}

	// Nothing extractable is a valid terminal state: the file stays
	// downloadable but never reaches the vector index.
	if text == "" {
		doc.Status = model.DocumentStatusUploaded
		doc.TextExtracted = false
		doc.EmbeddingsCreated = false
		doc.TextChunksCount = 0
		if err := uow.DocumentRepository().Update(ctx, doc); err != nil {
			return p.fail(ctx, uow, job, doc, fmt.Errorf("failed to finalize document: %w", err))
		}
		p.succeed(ctx, uow, job)
		p.notify(ctx, events.NewDocumentIngested(doc.Id, doc.DealId, 0))
		return nil
	}

	doc.ExtractedText = text
	doc.TextExtracted = true
	doc.NativeTokenCount = tokencount.EstimateText(text)
	if !doc.UseSummaryForGeneration {
		doc.TokenCount = doc.NativeTokenCount
	}

	chunks := chunker.Chunk(text, p.chunkSize, p.chunkOverlap)

	// Old vectors go first so a re-ingested document can never serve a
	// mix of stale and fresh chunks.
	deleted, err := uow.EmbeddingChunkRepository().DeleteByDocumentId(ctx, doc.Id)
	if err != nil {
		return p.fail(ctx, uow, job, doc, fmt.Errorf("failed to clear previous chunks: %w", err))
	}
	if deleted > 0 {
		log.Printf("[INFO] Removed %d stale chunks for document %s", deleted, doc.Id)
	}

	fileType := strings.TrimPrefix(strings.ToLower(filepath.Ext(doc.Filename)), ".")
	var newChunks []*entity.EmbeddingChunk
	carriedTitle := ""
	for i, chunk := range chunks {
		// Page markers survive chunking; label each chunk with the page
		// it starts in, carrying the last seen marker across windows.
		markers := pageMarkerRe.FindAllStringSubmatch(chunk, -1)
		title := carriedTitle
		if title == "" && len(markers) > 0 {
			title = "Page " + markers[0][1]
		}
		if len(markers) > 0 {
			carriedTitle = "Page " + markers[len(markers)-1][1]
		}

		vec, err := p.embedder.Embed(ctx, chunk)
		if err != nil {
			log.Printf("[WARN] Embedding failed for chunk %d of document %s, skipping: %v", i, doc.Id, err)
			continue
		}
		sum := sha256.Sum256([]byte(chunk))
		newChunks = append(newChunks, &entity.EmbeddingChunk{
			Id:             uuid.New(),
			DocumentId:     doc.Id,
			DealId:         doc.DealId,
			Content:        chunk,
			ContentHash:    hex.EncodeToString(sum[:]),
			Embedding:      vec,
			EmbeddingModel: p.embedder.ModelName(),
			ChunkIndex:     i,
			ChunkSize:      p.chunkSize,
			ChunkOverlap:   p.chunkOverlap,
			SourceFilename: doc.Filename,
			SourceFileType: fileType,
			SectionTitle:   title,
		})
	}

	if len(newChunks) > 0 {
		if err := uow.EmbeddingChunkRepository().CreateBulk(ctx, newChunks); err != nil {
			return p.fail(ctx, uow, job, doc, fmt.Errorf("failed to store chunks: %w", err))
		}
	}

	finished := time.Now()
	doc.EmbeddingsCreated = len(newChunks) > 0
	doc.TextChunksCount = len(newChunks)
	doc.Status = model.DocumentStatusCompleted
	doc.ProcessedAt = &finished
	if err := uow.DocumentRepository().Update(ctx, doc); err != nil {
		return p.fail(ctx, uow, job, doc, fmt.Errorf("failed to finalize document: %w", err))
	}

	p.succeed(ctx, uow, job)
	p.notify(ctx, events.NewDocumentIngested(doc.Id, doc.DealId, len(newChunks)))
	return nil
}

// extractText downloads the stored file and pulls text out of it,
// falling back to the vision model for scanned PDFs and images.
func (p *Pipeline) extractText(ctx context.Context, doc *entity.Document) (string, error) {
	tmpDir, err := os.MkdirTemp("", "ingest-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	localPath := filepath.Join(tmpDir, doc.Filename)
	if err := p.store.DownloadToPath(ctx, doc.StoragePath, localPath); err != nil {
		return "", fmt.Errorf("failed to download %s: %w", doc.StoragePath, err)
	}

	if extract.IsImageFile(filepath.Ext(doc.Filename)) {
		return p.describeImage(ctx, localPath, doc)
	}

	text := strings.TrimSpace(extract.Extract(localPath))

	if strings.EqualFold(filepath.Ext(doc.Filename), ".pdf") && len(text) < minDirectPDFTextLen && p.describer != nil {
		described, err := p.describeFile(ctx, localPath, "application/pdf", doc)
		if err != nil {
			log.Printf("[WARN] Vision fallback failed for %s, keeping native text: %v", doc.Filename, err)
		} else if described != "" {
			text = described
		}
	}

	return text, nil
}

func (p *Pipeline) describeImage(ctx context.Context, localPath string, doc *entity.Document) (string, error) {
	if p.describer == nil {
		return fmt.Sprintf("[Image: %s]", doc.Filename), nil
	}
	described, err := p.describeFile(ctx, localPath, doc.MimeType, doc)
	if err != nil {
		log.Printf("[WARN] Image description failed for %s: %v", doc.Filename, err)
		return fmt.Sprintf("[Image: %s]", doc.Filename), nil
	}
	return described, nil
}

func (p *Pipeline) describeFile(ctx context.Context, localPath, mimeType string, doc *entity.Document) (string, error) {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return "", err
	}

	prompt := "Describe the content of this file in detail. Transcribe any visible text verbatim."
	if doc.Note != "" {
		prompt += "\nContext from the uploader: " + doc.Note
	}

	described, err := p.describer.Describe(ctx, data, mimeType, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(described), nil
}

func (p *Pipeline) fail(ctx context.Context, uow unitofwork.UnitOfWork, job *entity.IngestionJob, doc *entity.Document, cause error) error {
	now := time.Now()
	job.Status = model.IngestionJobStatusFailed
	job.ErrorMessage = cause.Error()
	job.FinishedAt = &now
	if err := uow.IngestionJobRepository().Update(ctx, job); err != nil {
		log.Printf("[ERROR] Failed to record job failure for %s: %v", job.Id, err)
	}

	if doc != nil {
		doc.Status = model.DocumentStatusFailed
		doc.ErrorMessage = cause.Error()
		if err := uow.DocumentRepository().Update(ctx, doc); err != nil {
			log.Printf("[ERROR] Failed to record document failure for %s: %v", doc.Id, err)
		}
		p.notify(ctx, events.NewDocumentIngestionFailed(doc.Id, doc.DealId, cause.Error()))
	}

	return cause
}

func (p *Pipeline) succeed(ctx context.Context, uow unitofwork.UnitOfWork, job *entity.IngestionJob) {
	now := time.Now()
	job.Status = model.IngestionJobStatusSucceeded
	job.ErrorMessage = ""
	job.FinishedAt = &now
	if err := uow.IngestionJobRepository().Update(ctx, job); err != nil {
		log.Printf("[ERROR] Failed to record job success for %s: %v", job.Id, err)
	}
}

func (p *Pipeline) notify(ctx context.Context, event events.Event) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.Publish(ctx, event); err != nil {
		log.Printf("[WARN] Failed to publish %s event: %v", event.EventType(), err)
	}
}
