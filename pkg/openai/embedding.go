package openai

import (
	"context"
	"fmt"

	"github.com/amikos-tech/chroma-go/pkg/embeddings"
)

// EmbeddingFunction adapts the client's embeddings endpoint to Chroma's
// embedding interface, so collections embed with the same model the rest of
// the app uses.
type EmbeddingFunction struct {
	client *Client
}

var _ embeddings.EmbeddingFunction = (*EmbeddingFunction)(nil)

func NewEmbeddingFunction(client *Client) *EmbeddingFunction {
	return &EmbeddingFunction{client: client}
}

func (f *EmbeddingFunction) EmbedDocuments(ctx context.Context, documents []string) ([]embeddings.Embedding, error) {
	vectors, err := f.client.EmbedTexts(ctx, documents)
	if err != nil {
		return nil, err
	}
	result := make([]embeddings.Embedding, len(vectors))
	for i, v := range vectors {
		result[i] = embeddings.NewEmbeddingFromFloat32(v)
	}
	return result, nil
}

func (f *EmbeddingFunction) EmbedQuery(ctx context.Context, document string) (embeddings.Embedding, error) {
	vectors, err := f.client.EmbedTexts(ctx, []string{document})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("no embedding returned for query")
	}
	return embeddings.NewEmbeddingFromFloat32(vectors[0]), nil
}
