package retrieval

import (
	"context"
	"fmt"

	qdrant "github.com/qdrant/go-client/qdrant"
)

// Embedder turns query text into the dense vector Qdrant searches against.
// Narrowed to the one call QdrantRetriever needs, separate from
// agent.Provider since embedding is not a text-generation call.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// QdrantRetriever implements Retriever against a Qdrant collection.
type QdrantRetriever struct {
	client     *qdrant.Client
	collection string
	embedder   Embedder
}

// NewQdrantRetriever dials host:port and targets collection, embedding
// queries with embedder before each search.
func NewQdrantRetriever(host string, port int, collection string, embedder Embedder) (*QdrantRetriever, error) {
	client, err := qdrant.NewClient(&qdrant.Config{Host: host, Port: port})
	if err != nil {
		return nil, fmt.Errorf("retrieval: failed to create qdrant client: %w", err)
	}
	return &QdrantRetriever{client: client, collection: collection, embedder: embedder}, nil
}

func (r *QdrantRetriever) Search(ctx context.Context, query string, topK int, minRelevance float64, filters map[string]string) ([]RetrievedDoc, error) {
	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("retrieval: embed query: %w", err)
	}

	limit := uint64(topK)
	points, err := r.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: r.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &limit,
		Filter:         buildFilter(filters),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("retrieval: qdrant query: %w", err)
	}

	docs := make([]RetrievedDoc, 0, len(points))
	for _, p := range points {
		relevance := float64(p.GetScore())
		if relevance < minRelevance {
			continue
		}
		docs = append(docs, pointToDoc(p, relevance))
	}
	return docs, nil
}

func buildFilter(filters map[string]string) *qdrant.Filter {
	if len(filters) == 0 {
		return nil
	}
	conditions := make([]*qdrant.Condition, 0, len(filters))
	for key, value := range filters {
		conditions = append(conditions, qdrant.NewMatch(key, value))
	}
	return &qdrant.Filter{Must: conditions}
}

func pointToDoc(p *qdrant.ScoredPoint, relevance float64) RetrievedDoc {
	payload := p.GetPayload()
	content := ""
	metadata := make(map[string]string, len(payload))
	for key, value := range payload {
		s := value.GetStringValue()
		if key == "content" {
			content = s
			continue
		}
		metadata[key] = s
	}
	return RetrievedDoc{
		ID:        p.GetId().GetUuid(),
		Content:   content,
		Relevance: relevance,
		Metadata:  metadata,
	}
}
