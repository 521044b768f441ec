package mock

import (
	"context"
	"hash/fnv"
	"sync/atomic"

	"github.com/dragnet-io/dragnet/ai"
)

// Embedder is a test double for ai.Embedder.
// It allows custom behavior injection via function fields.
type Embedder struct {
	// EmbedTextFunc is called by EmbedText if set.
	// If nil, uses default deterministic behavior.
	EmbedTextFunc func(ctx context.Context, text string) ([]float32, error)

	// EmbedTextsFunc is called by EmbedTexts if set.
	// If nil, uses default deterministic behavior.
	EmbedTextsFunc func(ctx context.Context, texts []string) ([][]float32, error)

	calls atomic.Int64
}

var _ ai.Embedder = (*Embedder)(nil)

// NewEmbedder creates a mock embedder with default deterministic behavior.
func NewEmbedder() *Embedder {
	return &Embedder{}
}

// EmbedText generates a deterministic embedding based on text hash.
func (m *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	m.calls.Add(1)
	if m.EmbedTextFunc != nil {
		return m.EmbedTextFunc(ctx, text)
	}
	return deterministicVector(text, 16), nil
}

// EmbedTexts generates deterministic embeddings for multiple texts.
func (m *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	m.calls.Add(1)
	if m.EmbedTextsFunc != nil {
		return m.EmbedTextsFunc(ctx, texts)
	}
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = deterministicVector(text, 16)
	}
	return vectors, nil
}

// Calls returns the number of method invocations.
func (m *Embedder) Calls() int {
	return int(m.calls.Load())
}

// deterministicVector produces a stable pseudo-embedding from a text hash.
func deterministicVector(text string, dim int) []float32 {
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float32, dim)
	for i := range vec {
		seed = seed*6364136223846793005 + 1442695040888963407
		vec[i] = float32(seed%2000)/1000.0 - 1.0
	}
	return vec
}

// Categorizer is a test double for ai.Categorizer.
type Categorizer struct {
	// CategorizeFunc is called by Categorize if set.
	// If nil, every result is labeled "general".
	CategorizeFunc func(ctx context.Context, title, snippet, url string) (string, error)

	calls atomic.Int64
}

var _ ai.Categorizer = (*Categorizer)(nil)

// NewCategorizer creates a mock categorizer labeling everything "general".
func NewCategorizer() *Categorizer {
	return &Categorizer{}
}

// Categorize returns the injected label or "general".
func (m *Categorizer) Categorize(ctx context.Context, title, snippet, url string) (string, error) {
	m.calls.Add(1)
	if m.CategorizeFunc != nil {
		return m.CategorizeFunc(ctx, title, snippet, url)
	}
	return "general", nil
}

// Calls returns the number of method invocations.
func (m *Categorizer) Calls() int {
	return int(m.calls.Load())
}

// Provider is a test double for ai.Provider bundling the mock services.
type Provider struct {
	embedder    *Embedder
	categorizer *Categorizer
}

var _ ai.Provider = (*Provider)(nil)

// NewProvider creates a mock provider with deterministic services.
func NewProvider() *Provider {
	return &Provider{
		embedder:    NewEmbedder(),
		categorizer: NewCategorizer(),
	}
}

// Embedder returns the mock embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Categorizer returns the mock categorization service.
func (p *Provider) Categorizer() ai.Categorizer {
	return p.categorizer
}

// MockEmbedder returns the concrete embedder for test assertions.
func (p *Provider) MockEmbedder() *Embedder {
	return p.embedder
}

// MockCategorizer returns the concrete categorizer for test assertions.
func (p *Provider) MockCategorizer() *Categorizer {
	return p.categorizer
}

// Close is a no-op.
func (p *Provider) Close() error {
	return nil
}
