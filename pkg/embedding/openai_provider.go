package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const openAIEmbeddingsEndpoint = "https://api.openai.com/v1/embeddings"

type openAIRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type openAIResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

type OpenAIProvider struct {
	apiKey string
	model  string
	dim    int
	client *http.Client
}

// NewOpenAIProvider builds an embedding client for one of the supported
// OpenAI models. A missing key or unknown model fails here so the rest of
// the pipeline never discovers the problem mid-job.
func NewOpenAIProvider(apiKey string, model string) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	dim, ok := ModelDimensions[model]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, model)
	}
	return &OpenAIProvider{
		apiKey: apiKey,
		model:  model,
		dim:    dim,
		client: &http.Client{},
	}, nil
}

func (p *OpenAIProvider) ModelName() string {
	return p.model
}

func (p *OpenAIProvider) Dimensions() int {
	return p.dim
}

func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	payload, err := json.Marshal(openAIRequest{
		Model: p.model,
		Input: text,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, openAIEmbeddingsEndpoint, bytes.NewBuffer(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("error from openai embeddings, code %d, body %s", res.StatusCode, string(resBody))
	}

	var parsed openAIResponse
	if err := json.Unmarshal(resBody, &parsed); err != nil {
		return nil, err
	}
	if len(parsed.Data) == 0 {
		return nil, fmt.Errorf("openai embeddings returned no data for model %s", p.model)
	}

	vector := parsed.Data[0].Embedding
	if len(vector) != p.dim {
		return nil, fmt.Errorf("openai returned %d dimensions, expected %d for model %s", len(vector), p.dim, p.model)
	}
	return vector, nil
}
