package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"dealdocs-be/pkg/llm"
)

const defaultModel = "gemini-2.5-pro"

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiContent struct {
	Parts []*geminiPart `json:"parts"`
	Role  string        `json:"role,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiRequest struct {
	Contents         []*geminiContent        `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiCandidate struct {
	Content *geminiContent `json:"content"`
}

type geminiResponse struct {
	Candidates []*geminiCandidate `json:"candidates"`
}

type Provider struct {
	apiKey string
	model  string
	client *http.Client
}

// NewProvider builds a Gemini text/vision client. The key is required;
// generation is useless without one and callers must know at startup.
func NewProvider(apiKey string, model string) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: API key is not configured")
	}
	if model == "" {
		model = defaultModel
	}
	return &Provider{
		apiKey: apiKey,
		model:  model,
		client: &http.Client{},
	}, nil
}

func (p *Provider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	parts := []*geminiPart{{Text: prompt}}
	return p.call(ctx, parts, options...)
}

func (p *Provider) Describe(ctx context.Context, data []byte, mimeType string, prompt string, options ...llm.Option) (string, error) {
	parts := []*geminiPart{
		{Text: prompt},
		{InlineData: &geminiInlineData{
			MimeType: mimeType,
			Data:     base64.StdEncoding.EncodeToString(data),
		}},
	}
	return p.call(ctx, parts, options...)
}

func (p *Provider) call(ctx context.Context, parts []*geminiPart, options ...llm.Option) (string, error) {
	opts := &llm.Options{}
	for _, opt := range options {
		opt(opts)
	}

	model := p.model
	if opts.Model != "" {
		model = opts.Model
	}

	payload := geminiRequest{
		Contents: []*geminiContent{{Parts: parts, Role: "user"}},
	}
	if opts.Temperature > 0 || opts.MaxTokens > 0 {
		payload.GenerationConfig = &geminiGenerationConfig{
			Temperature:     opts.Temperature,
			MaxOutputTokens: opts.MaxTokens,
		}
	}

	payloadJson, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf(
		"https://generativelanguage.googleapis.com/v1/models/%s:generateContent",
		model,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(payloadJson))
	if err != nil {
		return "", err
	}
	req.Header.Set("x-goog-api-key", p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return "", err
	}

	if res.StatusCode == http.StatusTooManyRequests {
		return "", &llm.RateLimitError{Message: string(resBody)}
	}
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf(
			"gemini status error, got status %d. with response body %s",
			res.StatusCode,
			string(resBody),
		)
	}

	var geminiRes geminiResponse
	if err := json.Unmarshal(resBody, &geminiRes); err != nil {
		return "", err
	}
	if len(geminiRes.Candidates) == 0 || geminiRes.Candidates[0].Content == nil || len(geminiRes.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned an empty response")
	}

	return geminiRes.Candidates[0].Content.Parts[0].Text, nil
}
