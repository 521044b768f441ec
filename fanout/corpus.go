package fanout

import (
	"context"

	"github.com/dragnet-io/dragnet/core"
	"github.com/dragnet-io/dragnet/engines"
	"github.com/dragnet-io/dragnet/storage"
)

// Corpus searches the locally indexed document store.
type Corpus interface {
	Search(ctx context.Context, query string, limit int) ([]*core.Document, error)
}

// RouterCorpus adapts the storage router into a Corpus, searching with
// backend failover.
type RouterCorpus struct {
	router *storage.Router
}

var _ Corpus = (*RouterCorpus)(nil)

// NewRouterCorpus wraps a storage router as the corpus search surface.
func NewRouterCorpus(router *storage.Router) *RouterCorpus {
	return &RouterCorpus{router: router}
}

// Search runs a keyword search through the router.
func (c *RouterCorpus) Search(ctx context.Context, query string, limit int) ([]*core.Document, error) {
	result, err := c.router.ExecuteWithFallback(ctx, &storage.Request{
		Op:    storage.OpSearchKeyword,
		Query: query,
		Limit: limit,
	})
	if err != nil {
		return nil, err
	}
	return result.Documents, nil
}

// corpusResults maps stored documents to engine-result form, pre-tagged with
// their stored category so they skip external categorization.
func corpusResults(docs []*core.Document) []engines.Result {
	out := make([]engines.Result, 0, len(docs))
	for _, doc := range docs {
		metadata := map[string]string{}
		if doc.Category != "" {
			metadata["category"] = doc.Category
		}
		out = append(out, engines.Result{
			URL:      doc.URL,
			Title:    doc.Title,
			Snippet:  doc.Snippet,
			Metadata: metadata,
		})
	}
	return out
}
