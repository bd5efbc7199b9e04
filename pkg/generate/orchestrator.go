package generate

import (
	"context"
	"fmt"
	"log"
	"strings"

	"dealdocs-be/internal/entity"
	"dealdocs-be/internal/model"
	"dealdocs-be/internal/repository/contract"
	"dealdocs-be/internal/repository/specification"
	"dealdocs-be/internal/repository/unitofwork"
	"dealdocs-be/pkg/embedding"
	"dealdocs-be/pkg/llm"

	"github.com/google/uuid"
)

const (
	// searchTopK chunks are retrieved per section, then deduplicated
	// down to at most contextChunkLimit. Research mode widens the net
	// before the same dedupe cap applies.
	searchTopK         = 12
	researchSearchTopK = 24
	contextChunkLimit  = 10

	// Documents whose active text fits under this limit are attached to
	// every section prompt in full.
	fullDocumentCharLimit = 5000

	sectionMaxTokens     = 4096
	fastSectionMaxTokens = 1024
)

// Result is the output of one generation pass: per-section bodies plus
// the rendered markdown document.
type Result struct {
	Variables map[string]string
	Rendered  string
}

// Options shape one generation pass. The zero value is a full-mode run
// over every document of the deal with no extra instructions.
type Options struct {
	// Mode is model.RunModeFull or model.RunModeFast. Fast mode caps
	// section length for cheap reruns.
	Mode string

	// ResearchMode widens per-section retrieval before dedupe.
	ResearchMode bool

	// IncludedFileIds restricts retrieval and document attachment to
	// these documents. Empty means the whole deal.
	IncludedFileIds []uuid.UUID

	// Instructions is a run-level override appended to every section
	// prompt.
	Instructions string

	// AttachFullDocuments adds every small document's text to each
	// section prompt in full.
	AttachFullDocuments bool
}

// Orchestrator produces a full document for a deal, one section at a
// time. Sections run sequentially; the first failure aborts the run and
// discards everything generated so far.
type Orchestrator struct {
	uowFactory unitofwork.RepositoryFactory
	embedder   embedding.Provider
	generator  llm.Provider
	sections   []Section
}

func NewOrchestrator(
	uowFactory unitofwork.RepositoryFactory,
	embedder embedding.Provider,
	generator llm.Provider,
	sections []Section,
) *Orchestrator {
	if len(sections) == 0 {
		sections = DefaultSections()
	}
	return &Orchestrator{
		uowFactory: uowFactory,
		embedder:   embedder,
		generator:  generator,
		sections:   sections,
	}
}

// GenerateDocument runs every section for the deal per opts. Fast mode
// trims the context to retrieval hits only and caps section length; it
// exists for cheap reruns of a previously generated document.
func (o *Orchestrator) GenerateDocument(ctx context.Context, deal *entity.Deal, opts Options) (*Result, error) {
	uow := o.uowFactory.NewUnitOfWork(ctx)

	fullDocs := ""
	if opts.AttachFullDocuments {
		attached, err := o.attachFullDocuments(ctx, uow, deal.Id, opts.IncludedFileIds)
		if err != nil {
			return nil, fmt.Errorf("failed to collect full documents: %w", err)
		}
		fullDocs = attached
	}

	maxTokens := sectionMaxTokens
	if opts.Mode == model.RunModeFast {
		maxTokens = fastSectionMaxTokens
	}
	topK := searchTopK
	if opts.ResearchMode {
		topK = researchSearchTopK
	}

	vars := make(map[string]string, len(o.sections))
	for _, sec := range o.sections {
		query := sec.Query
		if deal.Focus != "" {
			query += "\n" + deal.Focus
		}

		vec, err := o.embedder.Embed(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("section %s: query embedding failed: %w", sec.Key, err)
		}

		results, err := uow.EmbeddingChunkRepository().SearchSimilarWithScore(ctx, vec, topK, contract.SearchFilter{
			DealId:      &deal.Id,
			DocumentIds: opts.IncludedFileIds,
		})
		if err != nil {
			return nil, fmt.Errorf("section %s: retrieval failed: %w", sec.Key, err)
		}

		contextText := buildContext(results)
		prompt := o.buildPrompt(deal, sec, contextText, fullDocs, opts.Instructions)

		body, err := o.generator.Generate(ctx, prompt,
			llm.WithTemperature(0.3),
			llm.WithMaxTokens(maxTokens),
		)
		if err != nil {
			return nil, fmt.Errorf("section %s: generation failed: %w", sec.Key, err)
		}

		vars[sec.Key] = strings.TrimSpace(body)
		log.Printf("[INFO] Generated section %s for deal %s (%d context chunks)", sec.Key, deal.Id, len(results))
	}

	rendered, err := Render(deal.Name, o.sections, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to render document: %w", err)
	}

	return &Result{Variables: vars, Rendered: rendered}, nil
}

// buildContext joins retrieved chunks, dropping exact duplicates. The
// same text can be retrieved through overlapping windows of one source.
// Each surviving chunk is labeled with its source file so the model can
// attribute facts.
func buildContext(results []*entity.RetrievalResult) string {
	seen := make(map[string]struct{}, len(results))
	var parts []string
	for _, res := range results {
		trimmed := strings.TrimSpace(res.Content)
		if trimmed == "" {
			continue
		}
		if _, dup := seen[trimmed]; dup {
			continue
		}
		seen[trimmed] = struct{}{}
		if res.SourceFilename != "" {
			trimmed = fmt.Sprintf("(source: %s)\n%s", res.SourceFilename, trimmed)
		}
		parts = append(parts, trimmed)
		if len(parts) >= contextChunkLimit {
			break
		}
	}
	return strings.Join(parts, "\n\n---\n\n")
}

// attachFullDocuments collects every document whose active text fits
// under fullDocumentCharLimit, formatted as [[filename]] blocks. Summary
// text substitutes for native text when the document is toggled to
// summary mode. A non-empty includedIds restricts attachment to those
// documents.
func (o *Orchestrator) attachFullDocuments(ctx context.Context, uow unitofwork.UnitOfWork, dealId uuid.UUID, includedIds []uuid.UUID) (string, error) {
	docs, err := uow.DocumentRepository().FindAll(ctx, specification.ByDealID{DealID: dealId})
	if err != nil {
		return "", err
	}

	included := make(map[uuid.UUID]struct{}, len(includedIds))
	for _, id := range includedIds {
		included[id] = struct{}{}
	}

	var blocks []string
	for _, doc := range docs {
		if len(included) > 0 {
			if _, ok := included[doc.Id]; !ok {
				continue
			}
		}
		text := doc.ExtractedText
		if doc.UseSummaryForGeneration && doc.IsSummarized {
			text = doc.Summary
		}
		text = strings.TrimSpace(text)
		if text == "" || len(text) > fullDocumentCharLimit {
			continue
		}
		blocks = append(blocks, fmt.Sprintf("[[%s]]\n%s", doc.Filename, text))
	}
	return strings.Join(blocks, "\n\n"), nil
}

func (o *Orchestrator) buildPrompt(deal *entity.Deal, sec Section, contextText, fullDocs, instructions string) string {
	var sb strings.Builder

	sb.WriteString("You are drafting the \"")
	sb.WriteString(sec.Name)
	sb.WriteString("\" section of a confidential offering memorandum for the business \"")
	sb.WriteString(deal.Name)
	sb.WriteString("\".\n\n")

	if deal.Focus != "" {
		sb.WriteString("DEAL FOCUS: ")
		sb.WriteString(deal.Focus)
		sb.WriteString("\n\n")
	}

	sb.WriteString("INSTRUCTION: ")
	sb.WriteString(sec.Instruction)
	sb.WriteString("\n\n")

	if instructions != "" {
		sb.WriteString("ADDITIONAL INSTRUCTIONS: ")
		sb.WriteString(instructions)
		sb.WriteString("\n\n")
	}

	if contextText != "" {
		sb.WriteString("RETRIEVED CONTEXT:\n")
		sb.WriteString(contextText)
		sb.WriteString("\n\n")
	}

	if fullDocs != "" {
		sb.WriteString("FULL DOCUMENTS:\n")
		sb.WriteString(fullDocs)
		sb.WriteString("\n\n")
	}

	sb.WriteString("Write only the section body in markdown. Use only facts from the material above; state clearly when information is unavailable.")
	return sb.String()
}
