package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"dealdocs-be/internal/entity"
	"dealdocs-be/internal/model"
	"dealdocs-be/internal/repository/contract"
	"dealdocs-be/internal/repository/specification"
	"dealdocs-be/internal/repository/unitofwork"
	"dealdocs-be/pkg/events"
	"dealdocs-be/pkg/llm"
	"dealdocs-be/pkg/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pipeJobRepo struct {
	contract.IngestionJobRepository
	job *entity.IngestionJob
}

func (f *pipeJobRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.IngestionJob, error) {
	return f.job, nil
}

func (f *pipeJobRepo) Update(ctx context.Context, job *entity.IngestionJob) error {
	f.job = job
	return nil
}

type pipeDocRepo struct {
	contract.DocumentRepository
	doc *entity.Document
}

func (f *pipeDocRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Document, error) {
	return f.doc, nil
}

func (f *pipeDocRepo) Update(ctx context.Context, doc *entity.Document) error {
	f.doc = doc
	return nil
}

type pipeChunkRepo struct {
	contract.EmbeddingChunkRepository
	ops     []string
	stale   int64
	stored  []*entity.EmbeddingChunk
	bulkErr error
}

func (f *pipeChunkRepo) DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) (int64, error) {
	f.ops = append(f.ops, "delete")
	return f.stale, nil
}

func (f *pipeChunkRepo) CreateBulk(ctx context.Context, chunks []*entity.EmbeddingChunk) error {
	f.ops = append(f.ops, "create")
	if f.bulkErr != nil {
		return f.bulkErr
	}
	f.stored = chunks
	return nil
}

type pipeUow struct {
	unitofwork.UnitOfWork
	jobs   *pipeJobRepo
	docs   *pipeDocRepo
	chunks *pipeChunkRepo
}

func (f *pipeUow) IngestionJobRepository() contract.IngestionJobRepository     { return f.jobs }
func (f *pipeUow) DocumentRepository() contract.DocumentRepository             { return f.docs }
func (f *pipeUow) EmbeddingChunkRepository() contract.EmbeddingChunkRepository { return f.chunks }

type pipeUowFactory struct {
	uow *pipeUow
}

func (f *pipeUowFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork { return f.uow }

type pipeEmbedder struct {
	failFirst bool
	calls     int
}

func (f *pipeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	if f.failFirst && f.calls == 1 {
		return nil, errors.New("embedding failed")
	}
	return []float32{0.5}, nil
}

func (f *pipeEmbedder) Dimensions() int   { return 1 }
func (f *pipeEmbedder) ModelName() string { return "fake" }

type pipePublisher struct {
	published []events.Event
}

func (f *pipePublisher) Publish(ctx context.Context, event events.Event) error {
	f.published = append(f.published, event)
	return nil
}

type pipeFixture struct {
	pipeline  *Pipeline
	uow       *pipeUow
	store     storage.Backend
	embedder  *pipeEmbedder
	publisher *pipePublisher
	msg       JobMessage
}

// newPipeFixture stores content under the document's key and wires a
// pipeline with small windows so short texts still produce several chunks.
func newPipeFixture(t *testing.T, filename string, content []byte) *pipeFixture {
	t.Helper()

	store, err := storage.NewLocalBackend(t.TempDir())
	require.NoError(t, err)

	dealId := uuid.New()
	doc := &entity.Document{
		Id:          uuid.New(),
		DealId:      dealId,
		Filename:    filename,
		StoragePath: storage.Key(dealId.String(), "input/"+filename),
		Status:      model.DocumentStatusQueued,
	}
	if content != nil {
		require.NoError(t, store.Put(context.Background(), doc.StoragePath, content))
	}

	job := &entity.IngestionJob{
		Id:         uuid.New(),
		DocumentId: doc.Id,
		DealId:     dealId,
		Status:     model.IngestionJobStatusQueued,
	}

	uow := &pipeUow{
		jobs:   &pipeJobRepo{job: job},
		docs:   &pipeDocRepo{doc: doc},
		chunks: &pipeChunkRepo{},
	}
	embedder := &pipeEmbedder{}
	publisher := &pipePublisher{}

	var describer llm.Provider // nil, vision paths degrade to placeholders
	pipeline := NewPipeline(&pipeUowFactory{uow: uow}, store, embedder, describer, publisher, 100, 20)

	return &pipeFixture{
		pipeline:  pipeline,
		uow:       uow,
		store:     store,
		embedder:  embedder,
		publisher: publisher,
		msg:       JobMessage{JobId: job.Id, DocumentId: doc.Id, DealId: dealId},
	}
}

func TestProcessIngestsTextDocument(t *testing.T) {
	text := strings.Repeat("Acme generates recurring revenue from subscriptions. ", 10)
	fx := newPipeFixture(t, "report.txt", []byte(text))

	err := fx.pipeline.Process(context.Background(), fx.msg)
	require.NoError(t, err)

	doc := fx.uow.docs.doc
	assert.Equal(t, model.DocumentStatusCompleted, doc.Status)
	assert.True(t, doc.TextExtracted)
	assert.True(t, doc.EmbeddingsCreated)
	assert.Greater(t, doc.NativeTokenCount, 0)
	assert.Equal(t, doc.NativeTokenCount, doc.TokenCount)
	assert.NotNil(t, doc.ProcessedAt)

	job := fx.uow.jobs.job
	assert.Equal(t, model.IngestionJobStatusSucceeded, job.Status)
	assert.Equal(t, 1, job.Attempts)
	assert.NotNil(t, job.FinishedAt)

	require.NotEmpty(t, fx.uow.chunks.stored)
	assert.Equal(t, len(fx.uow.chunks.stored), doc.TextChunksCount)
	for i, chunk := range fx.uow.chunks.stored {
		assert.Equal(t, doc.Id, chunk.DocumentId)
		assert.Equal(t, i, chunk.ChunkIndex)
		assert.NotEmpty(t, chunk.Embedding)
		assert.Len(t, chunk.ContentHash, 64)
		assert.Equal(t, "report.txt", chunk.SourceFilename)
		assert.Equal(t, "txt", chunk.SourceFileType)
		assert.Equal(t, "fake", chunk.EmbeddingModel)
		assert.Equal(t, 100, chunk.ChunkSize)
		assert.Equal(t, 20, chunk.ChunkOverlap)
	}

	// Stale vectors are cleared before new ones land.
	assert.Equal(t, []string{"delete", "create"}, fx.uow.chunks.ops)

	require.Len(t, fx.publisher.published, 1)
	assert.Equal(t, events.TypeDocumentIngested, fx.publisher.published[0].EventType())
	assert.Equal(t, len(fx.uow.chunks.stored), fx.publisher.published[0].Payload()["chunk_count"])
}

func TestProcessEmptyExtractionIsTerminalUploaded(t *testing.T) {
	fx := newPipeFixture(t, "firmware.bin", []byte{0x00, 0x01})

	err := fx.pipeline.Process(context.Background(), fx.msg)
	require.NoError(t, err)

	doc := fx.uow.docs.doc
	assert.Equal(t, model.DocumentStatusUploaded, doc.Status)
	assert.False(t, doc.TextExtracted)
	assert.False(t, doc.EmbeddingsCreated)
	assert.Equal(t, 0, doc.TextChunksCount)

	assert.Equal(t, model.IngestionJobStatusSucceeded, fx.uow.jobs.job.Status)
	assert.Empty(t, fx.uow.chunks.ops, "no vector work for empty text")

	require.Len(t, fx.publisher.published, 1)
	assert.Equal(t, events.TypeDocumentIngested, fx.publisher.published[0].EventType())
	assert.Equal(t, 0, fx.publisher.published[0].Payload()["chunk_count"])
}

func TestProcessLabelsChunksWithPageSections(t *testing.T) {
	text := "--- Page 1 ---\n" + strings.Repeat("First page facts. ", 10) +
		"\n--- Page 2 ---\n" + strings.Repeat("Second page facts. ", 10)
	fx := newPipeFixture(t, "deck.txt", []byte(text))

	err := fx.pipeline.Process(context.Background(), fx.msg)
	require.NoError(t, err)

	stored := fx.uow.chunks.stored
	require.NotEmpty(t, stored)
	assert.Equal(t, "Page 1", stored[0].SectionTitle)
	assert.Equal(t, "Page 2", stored[len(stored)-1].SectionTitle)
	for _, chunk := range stored {
		assert.NotEmpty(t, chunk.SectionTitle)
	}
}

func TestProcessDownloadFailureMarksBothFailed(t *testing.T) {
	// nil content: the storage key was never written.
	fx := newPipeFixture(t, "report.txt", nil)

	err := fx.pipeline.Process(context.Background(), fx.msg)
	require.Error(t, err)

	assert.Equal(t, model.DocumentStatusFailed, fx.uow.docs.doc.Status)
	assert.NotEmpty(t, fx.uow.docs.doc.ErrorMessage)
	assert.Equal(t, model.IngestionJobStatusFailed, fx.uow.jobs.job.Status)
	assert.NotEmpty(t, fx.uow.jobs.job.ErrorMessage)

	require.Len(t, fx.publisher.published, 1)
	assert.Equal(t, events.TypeDocumentIngestionFailed, fx.publisher.published[0].EventType())
}

func TestProcessSkipsChunksThatFailEmbedding(t *testing.T) {
	text := strings.Repeat("Subscription revenue details. ", 20)
	fx := newPipeFixture(t, "report.txt", []byte(text))
	fx.embedder.failFirst = true

	err := fx.pipeline.Process(context.Background(), fx.msg)
	require.NoError(t, err)

	assert.Equal(t, model.DocumentStatusCompleted, fx.uow.docs.doc.Status)
	assert.True(t, fx.uow.docs.doc.EmbeddingsCreated)
	// First chunk skipped, the rest stored.
	assert.Len(t, fx.uow.chunks.stored, fx.embedder.calls-1)
}

func TestProcessImageWithoutDescriberGetsPlaceholder(t *testing.T) {
	fx := newPipeFixture(t, "floorplan.png", []byte{0x89, 0x50})

	err := fx.pipeline.Process(context.Background(), fx.msg)
	require.NoError(t, err)

	doc := fx.uow.docs.doc
	assert.Equal(t, model.DocumentStatusCompleted, doc.Status)
	assert.Equal(t, "[Image: floorplan.png]", doc.ExtractedText)
	assert.True(t, doc.TextExtracted)
}

func TestProcessKeepsSummaryTokenCountInSummaryMode(t *testing.T) {
	fx := newPipeFixture(t, "report.txt", []byte(strings.Repeat("text ", 100)))
	fx.uow.docs.doc.UseSummaryForGeneration = true
	fx.uow.docs.doc.SummaryTokenCount = 42
	fx.uow.docs.doc.TokenCount = 42

	err := fx.pipeline.Process(context.Background(), fx.msg)
	require.NoError(t, err)

	doc := fx.uow.docs.doc
	assert.Greater(t, doc.NativeTokenCount, 0)
	// Summary mode owns the visible count.
	assert.Equal(t, 42, doc.TokenCount)
}
