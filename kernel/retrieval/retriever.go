// Package retrieval provides the retrieval-augmented-generation (RAG)
// contract step handlers use to pull context documents into a prompt,
// plus a Qdrant-backed implementation and an in-memory one for tests.
package retrieval

import "context"

// RetrievedDoc is one document surfaced by a Search call.
type RetrievedDoc struct {
	ID        string
	Content   string
	Relevance float64
	Metadata  map[string]string
}

// Retriever is the RAG contract: narrow and single-purpose, matching the
// kernel's other adapter interfaces (EventStore, Emitter, Tool).
type Retriever interface {
	// Search returns up to topK documents matching query, each with
	// Relevance >= minRelevance, restricted to documents whose Metadata is
	// a superset of filters.
	Search(ctx context.Context, query string, topK int, minRelevance float64, filters map[string]string) ([]RetrievedDoc, error)
}
