package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Categorizer assigns one category label to a search result. Categorization
// is best-effort throughout the system: callers log failures and keep the
// result uncategorized rather than propagating the error.
// Implementations must be thread-safe for concurrent use.
type Categorizer interface {
	// Categorize returns one of the Categories labels for a result.
	Categorize(ctx context.Context, title, snippet, url string) (string, error)
}

// Categories is the closed label set produced by categorizers.
var Categories = []string{
	"news", "academic", "social", "forum", "book",
	"code", "document", "image", "video", "general",
}

// ValidCategory reports whether label belongs to the closed category set.
func ValidCategory(label string) bool {
	for _, c := range Categories {
		if c == label {
			return true
		}
	}
	return false
}

// Provider aggregates AI services for convenient initialization and
// lifecycle management.
type Provider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Categorizer returns the result categorization service.
	Categorizer() Categorizer

	// Close releases resources held by the provider and its services.
	Close() error
}
