package retrieval

import (
	"context"
	"errors"
	"fmt"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIEmbedder implements Embedder against OpenAI's embeddings endpoint,
// reusing the same SDK the agent/openai provider adapter wraps.
type OpenAIEmbedder struct {
	apiKey    string
	modelName string
}

// NewOpenAIEmbedder creates an OpenAIEmbedder for modelName (empty uses
// text-embedding-3-small).
func NewOpenAIEmbedder(apiKey, modelName string) *OpenAIEmbedder {
	if modelName == "" {
		modelName = "text-embedding-3-small"
	}
	return &OpenAIEmbedder{apiKey: apiKey, modelName: modelName}
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.apiKey == "" {
		return nil, errors.New("retrieval: OpenAI API key is required")
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	client := openaisdk.NewClient(option.WithAPIKey(e.apiKey))
	resp, err := client.Embeddings.New(ctx, openaisdk.EmbeddingNewParams{
		Model: openaisdk.EmbeddingModel(e.modelName),
		Input: openaisdk.EmbeddingNewParamsInputUnion{OfString: openaisdk.String(text)},
	})
	if err != nil {
		return nil, fmt.Errorf("retrieval: embeddings request: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("retrieval: embeddings response had no data")
	}

	vector := make([]float32, len(resp.Data[0].Embedding))
	for i, v := range resp.Data[0].Embedding {
		vector[i] = float32(v)
	}
	return vector, nil
}
