package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"dealdocs-be/internal/entity"
	"dealdocs-be/internal/model"
	"dealdocs-be/internal/repository/contract"
	"dealdocs-be/internal/repository/specification"
	"dealdocs-be/internal/repository/unitofwork"
	"dealdocs-be/pkg/llm"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	err   error
	calls int
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (f *fakeEmbedder) Dimensions() int   { return 3 }
func (f *fakeEmbedder) ModelName() string { return "fake-embedding" }

type fakeGenerator struct {
	failOnCall int // 1-based; 0 means never fail
	calls      int
	prompts    []string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if f.failOnCall > 0 && f.calls == f.failOnCall {
		return "", errors.New("model overloaded")
	}
	return fmt.Sprintf("generated body %d", f.calls), nil
}

func (f *fakeGenerator) Describe(ctx context.Context, data []byte, mimeType string, prompt string, options ...llm.Option) (string, error) {
	return "", errors.New("not implemented")
}

type fakeChunkRepo struct {
	contract.EmbeddingChunkRepository
	results []*entity.RetrievalResult
	err     error
	calls   int
	topKs   []int
	filters []contract.SearchFilter
}

func (f *fakeChunkRepo) SearchSimilarWithScore(ctx context.Context, embedding []float32, topK int, filter contract.SearchFilter) ([]*entity.RetrievalResult, error) {
	f.calls++
	f.topKs = append(f.topKs, topK)
	f.filters = append(f.filters, filter)
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

type fakeDocRepo struct {
	contract.DocumentRepository
	docs []*entity.Document
}

func (f *fakeDocRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Document, error) {
	return f.docs, nil
}

type fakeUow struct {
	unitofwork.UnitOfWork
	chunks *fakeChunkRepo
	docs   *fakeDocRepo
}

func (f *fakeUow) EmbeddingChunkRepository() contract.EmbeddingChunkRepository { return f.chunks }
func (f *fakeUow) DocumentRepository() contract.DocumentRepository             { return f.docs }

type fakeUowFactory struct {
	uow *fakeUow
}

func (f *fakeUowFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork { return f.uow }

func testDeal() *entity.Deal {
	return &entity.Deal{Id: uuid.New(), Name: "Acme Corp", Focus: "recurring revenue"}
}

func fullOpts() Options {
	return Options{Mode: model.RunModeFull, AttachFullDocuments: true}
}

func newFixture(sections []Section) (*Orchestrator, *fakeEmbedder, *fakeGenerator, *fakeUow) {
	uow := &fakeUow{
		chunks: &fakeChunkRepo{results: []*entity.RetrievalResult{
			{Content: "Acme sells subscriptions.", Similarity: 0.92},
			{Content: "Revenue grew 20% in 2024.", Similarity: 0.88},
		}},
		docs: &fakeDocRepo{},
	}
	embedder := &fakeEmbedder{}
	generator := &fakeGenerator{}
	orch := NewOrchestrator(&fakeUowFactory{uow: uow}, embedder, generator, sections)
	return orch, embedder, generator, uow
}

func TestGenerateDocumentFullMode(t *testing.T) {
	sections := []Section{
		{Key: "executive_summary", Name: "Executive Summary", Query: "overview", Instruction: "Summarize."},
		{Key: "risks", Name: "Risk Factors", Query: "risks", Instruction: "List risks."},
	}
	orch, embedder, generator, uow := newFixture(sections)

	result, err := orch.GenerateDocument(context.Background(), testDeal(), fullOpts())
	require.NoError(t, err)

	assert.Len(t, result.Variables, 2)
	assert.Equal(t, "generated body 1", result.Variables["executive_summary"])
	assert.Equal(t, "generated body 2", result.Variables["risks"])
	assert.Contains(t, result.Rendered, "# Offering Memorandum: Acme Corp")
	assert.Contains(t, result.Rendered, "generated body 1")

	// One embedding and one retrieval per section.
	assert.Equal(t, 2, embedder.calls)
	assert.Equal(t, 2, uow.chunks.calls)
	assert.Equal(t, 2, generator.calls)

	// Retrieved chunks reach the prompt.
	assert.Contains(t, generator.prompts[0], "Acme sells subscriptions.")
	assert.Contains(t, generator.prompts[0], "DEAL FOCUS: recurring revenue")
}

func TestGenerateDocumentSectionFailureAborts(t *testing.T) {
	sections := []Section{
		{Key: "executive_summary", Name: "Executive Summary", Query: "overview"},
		{Key: "risks", Name: "Risk Factors", Query: "risks"},
		{Key: "financial_overview", Name: "Financial Overview", Query: "financials"},
	}
	orch, _, generator, _ := newFixture(sections)
	generator.failOnCall = 2

	result, err := orch.GenerateDocument(context.Background(), testDeal(), fullOpts())

	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "risks")
	// The third section is never attempted.
	assert.Equal(t, 2, generator.calls)
}

func TestGenerateDocumentEmbeddingFailureAborts(t *testing.T) {
	orch, embedder, generator, _ := newFixture([]Section{{Key: "risks", Name: "Risk Factors", Query: "risks"}})
	embedder.err = errors.New("embedding service down")

	result, err := orch.GenerateDocument(context.Background(), testDeal(), fullOpts())

	require.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, 0, generator.calls)
}

func TestGenerateDocumentRetrievalFailureAborts(t *testing.T) {
	orch, _, generator, uow := newFixture([]Section{{Key: "risks", Name: "Risk Factors", Query: "risks"}})
	uow.chunks.err = errors.New("database down")

	result, err := orch.GenerateDocument(context.Background(), testDeal(), fullOpts())

	require.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, 0, generator.calls)
}

func TestGenerateDocumentAttachesSmallDocuments(t *testing.T) {
	orch, _, generator, uow := newFixture([]Section{{Key: "risks", Name: "Risk Factors", Query: "risks"}})
	uow.docs.docs = []*entity.Document{
		{Filename: "summary.txt", ExtractedText: "A small but mighty document."},
		{Filename: "huge.txt", ExtractedText: strings.Repeat("x", fullDocumentCharLimit+1)},
		{Filename: "empty.txt", ExtractedText: "   "},
	}

	_, err := orch.GenerateDocument(context.Background(), testDeal(), fullOpts())
	require.NoError(t, err)

	prompt := generator.prompts[0]
	assert.Contains(t, prompt, "[[summary.txt]]")
	assert.Contains(t, prompt, "A small but mighty document.")
	assert.NotContains(t, prompt, "[[huge.txt]]")
	assert.NotContains(t, prompt, "[[empty.txt]]")
}

func TestGenerateDocumentPrefersSummaryText(t *testing.T) {
	orch, _, generator, uow := newFixture([]Section{{Key: "risks", Name: "Risk Factors", Query: "risks"}})
	uow.docs.docs = []*entity.Document{
		{
			Filename:                "big.pdf",
			ExtractedText:           strings.Repeat("native text ", 1000),
			Summary:                 `{"purpose": "condensed"}`,
			IsSummarized:            true,
			UseSummaryForGeneration: true,
		},
	}

	_, err := orch.GenerateDocument(context.Background(), testDeal(), fullOpts())
	require.NoError(t, err)

	prompt := generator.prompts[0]
	assert.Contains(t, prompt, "[[big.pdf]]")
	assert.Contains(t, prompt, `"purpose": "condensed"`)
	assert.NotContains(t, prompt, "native text")
}

func TestGenerateDocumentFastModeSkipsFullDocuments(t *testing.T) {
	orch, _, generator, uow := newFixture([]Section{{Key: "risks", Name: "Risk Factors", Query: "risks"}})
	uow.docs.docs = []*entity.Document{
		{Filename: "summary.txt", ExtractedText: "A small document."},
	}

	_, err := orch.GenerateDocument(context.Background(), testDeal(), Options{Mode: model.RunModeFast})
	require.NoError(t, err)

	assert.NotContains(t, generator.prompts[0], "[[summary.txt]]")
}

func TestGenerateDocumentScopesSearchToIncludedFiles(t *testing.T) {
	orch, _, generator, uow := newFixture([]Section{{Key: "risks", Name: "Risk Factors", Query: "risks"}})

	includedId := uuid.New()
	excludedId := uuid.New()
	uow.docs.docs = []*entity.Document{
		{Id: includedId, Filename: "scoped.txt", ExtractedText: "Scoped document text."},
		{Id: excludedId, Filename: "other.txt", ExtractedText: "Out of scope text."},
	}

	opts := fullOpts()
	opts.IncludedFileIds = []uuid.UUID{includedId}

	deal := testDeal()
	_, err := orch.GenerateDocument(context.Background(), deal, opts)
	require.NoError(t, err)

	// Retrieval is restricted to the included documents.
	require.Len(t, uow.chunks.filters, 1)
	filter := uow.chunks.filters[0]
	require.NotNil(t, filter.DealId)
	assert.Equal(t, deal.Id, *filter.DealId)
	assert.Equal(t, []uuid.UUID{includedId}, filter.DocumentIds)

	// So is full-document attachment.
	prompt := generator.prompts[0]
	assert.Contains(t, prompt, "[[scoped.txt]]")
	assert.NotContains(t, prompt, "[[other.txt]]")
}

func TestGenerateDocumentUnscopedSearchCoversWholeDeal(t *testing.T) {
	orch, _, _, uow := newFixture([]Section{{Key: "risks", Name: "Risk Factors", Query: "risks"}})

	_, err := orch.GenerateDocument(context.Background(), testDeal(), fullOpts())
	require.NoError(t, err)

	require.Len(t, uow.chunks.filters, 1)
	assert.Empty(t, uow.chunks.filters[0].DocumentIds)
}

func TestGenerateDocumentAppliesInstructionsOverride(t *testing.T) {
	orch, _, generator, _ := newFixture([]Section{{Key: "risks", Name: "Risk Factors", Query: "risks", Instruction: "List risks."}})

	opts := fullOpts()
	opts.Instructions = "Write in British English."

	_, err := orch.GenerateDocument(context.Background(), testDeal(), opts)
	require.NoError(t, err)

	assert.Contains(t, generator.prompts[0], "ADDITIONAL INSTRUCTIONS: Write in British English.")
}

func TestGenerateDocumentResearchModeWidensRetrieval(t *testing.T) {
	orch, _, _, uow := newFixture([]Section{{Key: "risks", Name: "Risk Factors", Query: "risks"}})

	opts := fullOpts()
	opts.ResearchMode = true

	_, err := orch.GenerateDocument(context.Background(), testDeal(), opts)
	require.NoError(t, err)

	require.Len(t, uow.chunks.topKs, 1)
	assert.Equal(t, researchSearchTopK, uow.chunks.topKs[0])

	orch2, _, _, uow2 := newFixture([]Section{{Key: "risks", Name: "Risk Factors", Query: "risks"}})
	_, err = orch2.GenerateDocument(context.Background(), testDeal(), fullOpts())
	require.NoError(t, err)
	assert.Equal(t, searchTopK, uow2.chunks.topKs[0])
}

func TestBuildContext(t *testing.T) {
	dup := "Acme sells subscriptions."
	results := []*entity.RetrievalResult{
		{Content: dup},
		{Content: "  " + dup + "  "}, // duplicate after trimming
		{Content: ""},
		{Content: "Second unique chunk."},
	}

	got := buildContext(results)

	assert.Equal(t, 1, strings.Count(got, dup))
	assert.Contains(t, got, "Second unique chunk.")
	assert.Contains(t, got, "\n\n---\n\n")
}

func TestBuildContextLabelsSources(t *testing.T) {
	results := []*entity.RetrievalResult{
		{Content: "Churn is low.", SourceFilename: "metrics.xlsx"},
		{Content: "No provenance recorded."},
	}

	got := buildContext(results)

	assert.Contains(t, got, "(source: metrics.xlsx)\nChurn is low.")
	assert.Contains(t, got, "No provenance recorded.")
	assert.NotContains(t, got, "(source: )")
}

func TestBuildContextCapsChunkCount(t *testing.T) {
	var results []*entity.RetrievalResult
	for i := 0; i < searchTopK; i++ {
		results = append(results, &entity.RetrievalResult{Content: fmt.Sprintf("chunk %d", i)})
	}

	got := buildContext(results)

	assert.Equal(t, contextChunkLimit, len(strings.Split(got, "\n\n---\n\n")))
	assert.NotContains(t, got, fmt.Sprintf("chunk %d", contextChunkLimit))
}
