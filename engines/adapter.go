package engines

import "context"

// Result is one raw hit returned by an engine adapter, before normalization
// and dedup.
type Result struct {
	URL      string
	Title    string
	Snippet  string
	Metadata map[string]string
}

// Adapter is a single third-party search engine. Implementations own their
// HTTP or scrape transport and per-call timeouts.
// Implementations must be thread-safe for concurrent use.
type Adapter interface {
	// Code returns the short fixed source code of the engine, e.g. "GO".
	Code() string

	// Search runs one query against the engine, returning at most
	// maxResults hits. An empty result set is not an error.
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}

// Descriptor pairs an adapter with its static dispatch settings.
type Descriptor struct {
	Code       string
	MaxResults int
	Primary    bool // Primary engines run in every round; the rest only when the strategy asks for all
	Adapter    Adapter
}
