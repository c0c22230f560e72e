package retrieval

import "context"

// MockRetriever is a deterministic Retriever test double: it holds a fixed
// corpus and filters/scores it directly rather than embedding anything.
type MockRetriever struct {
	Docs []RetrievedDoc
	Err  error
}

func (m *MockRetriever) Search(ctx context.Context, query string, topK int, minRelevance float64, filters map[string]string) ([]RetrievedDoc, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if m.Err != nil {
		return nil, m.Err
	}

	var matched []RetrievedDoc
	for _, d := range m.Docs {
		if d.Relevance < minRelevance {
			continue
		}
		if !matchesFilters(d.Metadata, filters) {
			continue
		}
		matched = append(matched, d)
	}
	if topK >= 0 && len(matched) > topK {
		matched = matched[:topK]
	}
	return matched, nil
}

func matchesFilters(metadata, filters map[string]string) bool {
	for key, want := range filters {
		if got, ok := metadata[key]; !ok || got != want {
			return false
		}
	}
	return true
}
