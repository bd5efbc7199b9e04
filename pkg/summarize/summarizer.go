package summarize

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log"
	"strings"
	"time"

	"dealdocs-be/pkg/llm"
	"dealdocs-be/pkg/retry"
)

const cacheKeyLength = 16

// PainPoint is one concrete problem identified in the source document.
type PainPoint struct {
	Description  string `json:"description"`
	Severity     string `json:"severity"`
	EvidenceRefs []int  `json:"evidence_refs"`
}

// EvidenceQuote anchors a summary claim to a location in the source.
type EvidenceQuote struct {
	Quote          string `json:"quote"`
	Rationale      string `json:"rationale"`
	ApproxLocation string `json:"approx_location"`
}

// FileSummary is the structured, decision-oriented summary produced for
// documents too large to send to generation natively.
type FileSummary struct {
	Filename              string          `json:"filename"`
	Purpose               string          `json:"purpose"`
	KeyEntities           []string        `json:"key_entities"`
	PainPoints            []PainPoint     `json:"pain_points"`
	Risks                 []string        `json:"risks"`
	IntegrationComplexity string          `json:"integration_complexity"`
	Unknowns              []string        `json:"unknowns"`
	EffortMultipliers     []string        `json:"effort_multipliers"`
	MustReadSections      []string        `json:"must_read_sections"`
	EvidenceQuotes        []EvidenceQuote `json:"evidence_quotes"`
	ImportanceScore       int             `json:"importance_score"`
}

// Input identifies one summarization request. Identical inputs always map
// to the same cache key, which makes Summarize idempotent.
type Input struct {
	Filename    string
	Content     string
	Focus       string
	Note        string
	ContentHash string
}

type Summarizer struct {
	provider llm.Provider
	cache    Cache
	policy   retry.Policy
	logger   *log.Logger
}

// NewSummarizer builds a summarizer over a generation provider. The
// provider may be nil, in which case every request falls back to the
// heuristic stub; oversized files still get a usable placeholder.
func NewSummarizer(provider llm.Provider, cache Cache, logger *log.Logger) *Summarizer {
	return &Summarizer{
		provider: provider,
		cache:    cache,
		logger:   logger,
		policy: retry.Policy{
			MaxAttempts: 3,
			Backoff:     retry.ExpBackoff(5*time.Second, 20*time.Second),
			Retryable:   llm.IsRateLimit,
		},
	}
}

// WithRetryPolicy overrides the rate-limit retry behaviour, mainly so
// tests can run the schedule without sleeping.
func (s *Summarizer) WithRetryPolicy(policy retry.Policy) *Summarizer {
	s.policy = policy
	return s
}

// Summarize returns a structured summary for in. The result comes from the
// cache when an identical request was served before; otherwise the provider
// is consulted, with rate limits retried and any terminal failure degraded
// to a minimal stub. Summarize never fails the caller: cache backend errors
// are logged and ignored.
func (s *Summarizer) Summarize(ctx context.Context, in Input) *FileSummary {
	key := s.cacheKey(in)

	if s.cache != nil {
		if data, found, err := s.cache.Get(ctx, key); err != nil {
			s.logger.Printf("[WARN] Summary cache read failed for %s: %v", in.Filename, err)
		} else if found {
			var cached FileSummary
			if err := json.Unmarshal(data, &cached); err == nil {
				return &cached
			}
		}
	}

	if s.provider == nil {
		return s.stub(in.Filename)
	}

	prompt := s.buildPrompt(in)

	var summary *FileSummary
	err := s.policy.Do(ctx, func() error {
		response, err := s.provider.Generate(ctx, prompt,
			llm.WithTemperature(0.1),
			llm.WithMaxTokens(2048),
		)
		if err != nil {
			return err
		}
		parsed, err := parseJSON(response)
		if err != nil {
			return err
		}
		summary = parsed
		return nil
	})
	if err != nil {
		s.logger.Printf("[ERROR] Falling back to heuristic summary for %s: %v", in.Filename, err)
		return s.stub(in.Filename)
	}

	summary.Filename = in.Filename
	if s.cache != nil {
		if data, err := json.Marshal(summary); err == nil {
			if err := s.cache.Set(ctx, key, data); err != nil {
				s.logger.Printf("[WARN] Summary cache write failed for %s: %v", in.Filename, err)
			}
		}
	}
	return summary
}

// cacheKey hashes every field that influences the output, truncated to a
// short hex prefix. Content hash is included separately so re-uploads of
// byte-identical files hit the cache even under new names upstream.
func (s *Summarizer) cacheKey(in Input) string {
	hasher := sha256.New()
	hasher.Write([]byte(sanitizeName(in.Filename)))
	hasher.Write([]byte(in.Content))
	if in.Focus != "" {
		hasher.Write([]byte(in.Focus))
	}
	if in.Note != "" {
		hasher.Write([]byte(in.Note))
	}
	if in.ContentHash != "" {
		hasher.Write([]byte(in.ContentHash))
	}
	return hex.EncodeToString(hasher.Sum(nil))[:cacheKeyLength]
}

func (s *Summarizer) buildPrompt(in Input) string {
	var header []string
	if in.Focus != "" {
		header = append(header, "PROJECT FOCUS: "+in.Focus)
	}
	header = append(header, "SOURCE FILE: "+in.Filename)
	if in.Note != "" {
		header = append(header, "FILE NOTE: "+in.Note)
	}

	return strings.Join(header, "\n") +
		"\n\nGOAL: Create a decision-oriented summary for scope planning.\n" +
		"Focus on: pain points, risks, integration complexity, unknowns, and what increases effort.\n" +
		"Include 3-10 evidence quotes from the content with brief rationale and approximate location.\n" +
		"Return strictly valid JSON matching this schema (and nothing else):\n" +
		summarySchema +
		"\n\nCONTENT:\n" +
		in.Content
}

func (s *Summarizer) stub(filename string) *FileSummary {
	return &FileSummary{
		Filename:          filename,
		Purpose:           "Summary unavailable (generation provider disabled).",
		KeyEntities:       []string{},
		PainPoints:        []PainPoint{},
		Risks:             []string{},
		Unknowns:          []string{},
		EffortMultipliers: []string{},
		MustReadSections:  []string{},
		EvidenceQuotes:    []EvidenceQuote{},
	}
}

func sanitizeName(name string) string {
	var sb strings.Builder
	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9',
			c == '.', c == '-', c == '_':
			sb.WriteRune(c)
		default:
			sb.WriteRune('_')
		}
	}
	return sb.String()
}

const summarySchema = `{
  "filename": "string",
  "purpose": "string",
  "key_entities": ["string"],
  "pain_points": [{"description": "string", "severity": "low|medium|high", "evidence_refs": [0]}],
  "risks": ["string"],
  "integration_complexity": "string",
  "unknowns": ["string"],
  "effort_multipliers": ["string"],
  "must_read_sections": ["string"],
  "evidence_quotes": [{"quote": "string", "rationale": "string", "approx_location": "string"}],
  "importance_score": 0
}`
