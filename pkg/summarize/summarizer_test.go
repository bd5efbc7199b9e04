package summarize

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"testing"
	"time"

	"dealdocs-be/pkg/llm"
	"dealdocs-be/pkg/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	responses []string
	errs      []error
	calls     int
}

func (p *fakeProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	i := p.calls
	p.calls++
	var err error
	if i < len(p.errs) {
		err = p.errs[i]
	}
	if err != nil {
		return "", err
	}
	if i < len(p.responses) {
		return p.responses[i], nil
	}
	return p.responses[len(p.responses)-1], nil
}

func (p *fakeProvider) Describe(ctx context.Context, data []byte, mimeType string, prompt string, options ...llm.Option) (string, error) {
	return "", errors.New("not implemented")
}

func noSleepPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts: 3,
		Backoff:     retry.ExpBackoff(time.Millisecond, time.Millisecond),
		Retryable:   llm.IsRateLimit,
		Sleep:       func(time.Duration) {},
	}
}

func validResponse(purpose string) string {
	summary := FileSummary{Purpose: purpose, ImportanceScore: 7}
	data, _ := json.Marshal(summary)
	return string(data)
}

func TestSummarizeParsesProviderResponse(t *testing.T) {
	provider := &fakeProvider{responses: []string{validResponse("financial statements")}}
	s := NewSummarizer(provider, NewMemoryCache(time.Minute), log.Default()).WithRetryPolicy(noSleepPolicy())

	got := s.Summarize(context.Background(), Input{Filename: "fin.pdf", Content: "revenue tables"})

	require.NotNil(t, got)
	assert.Equal(t, "financial statements", got.Purpose)
	assert.Equal(t, "fin.pdf", got.Filename)
	assert.Equal(t, 1, provider.calls)
}

func TestSummarizeCacheHitSkipsProvider(t *testing.T) {
	provider := &fakeProvider{responses: []string{validResponse("first call")}}
	s := NewSummarizer(provider, NewMemoryCache(time.Minute), log.Default()).WithRetryPolicy(noSleepPolicy())

	in := Input{Filename: "fin.pdf", Content: "revenue tables", ContentHash: "abc"}

	first := s.Summarize(context.Background(), in)
	second := s.Summarize(context.Background(), in)

	assert.Equal(t, 1, provider.calls)
	assert.Equal(t, first.Purpose, second.Purpose)
}

func TestSummarizeDifferentInputsMissCache(t *testing.T) {
	provider := &fakeProvider{responses: []string{validResponse("a"), validResponse("b")}}
	s := NewSummarizer(provider, NewMemoryCache(time.Minute), log.Default()).WithRetryPolicy(noSleepPolicy())

	s.Summarize(context.Background(), Input{Filename: "fin.pdf", Content: "one"})
	s.Summarize(context.Background(), Input{Filename: "fin.pdf", Content: "two"})

	assert.Equal(t, 2, provider.calls)
}

func TestSummarizeNilProviderReturnsStub(t *testing.T) {
	s := NewSummarizer(nil, NewMemoryCache(time.Minute), log.Default())

	got := s.Summarize(context.Background(), Input{Filename: "big.pdf", Content: "text"})

	require.NotNil(t, got)
	assert.Equal(t, "big.pdf", got.Filename)
	assert.Contains(t, got.Purpose, "unavailable")
}

func TestSummarizeProviderFailureFallsBackToStub(t *testing.T) {
	provider := &fakeProvider{errs: []error{errors.New("boom")}, responses: []string{""}}
	s := NewSummarizer(provider, NewMemoryCache(time.Minute), log.Default()).WithRetryPolicy(noSleepPolicy())

	got := s.Summarize(context.Background(), Input{Filename: "big.pdf", Content: "text"})

	require.NotNil(t, got)
	assert.Equal(t, "big.pdf", got.Filename)
	// Non-retryable failure: exactly one provider call.
	assert.Equal(t, 1, provider.calls)
}

func TestSummarizeRetriesRateLimits(t *testing.T) {
	provider := &fakeProvider{
		errs:      []error{&llm.RateLimitError{Message: "429"}, &llm.RateLimitError{Message: "429"}},
		responses: []string{"", "", validResponse("third time lucky")},
	}
	s := NewSummarizer(provider, NewMemoryCache(time.Minute), log.Default()).WithRetryPolicy(noSleepPolicy())

	got := s.Summarize(context.Background(), Input{Filename: "fin.pdf", Content: "text"})

	require.NotNil(t, got)
	assert.Equal(t, "third time lucky", got.Purpose)
	assert.Equal(t, 3, provider.calls)
}

func TestCacheKeyStable(t *testing.T) {
	s := NewSummarizer(nil, nil, log.Default())
	in := Input{Filename: "fin.pdf", Content: "body", Focus: "saas", Note: "q3", ContentHash: "deadbeef"}

	first := s.cacheKey(in)
	second := s.cacheKey(in)

	assert.Equal(t, first, second)
	assert.Len(t, first, cacheKeyLength)
}

func TestCacheKeyVariesByField(t *testing.T) {
	s := NewSummarizer(nil, nil, log.Default())
	base := Input{Filename: "fin.pdf", Content: "body"}

	variants := []Input{
		{Filename: "other.pdf", Content: "body"},
		{Filename: "fin.pdf", Content: "other body"},
		{Filename: "fin.pdf", Content: "body", Focus: "saas"},
		{Filename: "fin.pdf", Content: "body", Note: "note"},
		{Filename: "fin.pdf", Content: "body", ContentHash: "deadbeef"},
	}

	baseKey := s.cacheKey(base)
	for i, v := range variants {
		assert.NotEqual(t, baseKey, s.cacheKey(v), "variant %d should change the key", i)
	}
}

func TestParseJSON(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		wantPurpose string
		wantErr     bool
	}{
		{
			name:        "bare object",
			text:        `{"purpose": "bare"}`,
			wantPurpose: "bare",
		},
		{
			name:        "fenced json block",
			text:        "Here you go:\n```json\n{\"purpose\": \"fenced\"}\n```\nDone.",
			wantPurpose: "fenced",
		},
		{
			name:        "object buried in prose",
			text:        `The summary is {"purpose": "buried"} as requested.`,
			wantPurpose: "buried",
		},
		{
			name:    "no json at all",
			text:    "I cannot produce a summary.",
			wantErr: true,
		},
		{
			name:    "malformed json",
			text:    `{"purpose": `,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseJSON(tt.text)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPurpose, got.Purpose)
		})
	}
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	cache := NewMemoryCache(time.Minute)
	ctx := context.Background()

	_, found, err := cache.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, cache.Set(ctx, "key", []byte("value")))

	data, found, err := cache.Get(ctx, "key")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("value"), data)
}
