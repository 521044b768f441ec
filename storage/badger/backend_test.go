package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dragnet-io/dragnet/core"
	"github.com/dragnet-io/dragnet/storage"
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	backend, err := NewMemoryBackend()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	return backend
}

func makeDoc(url, title, snippet string, vector []float32) *core.Document {
	return &core.Document{
		Id:        core.IDFromContent(url),
		URL:       url,
		Title:     title,
		Snippet:   snippet,
		Sources:   []string{core.SourceGoogle},
		Score:     15,
		Vector:    vector,
		CreatedAt: time.Now().UTC(),
	}
}

func TestIndexAndGetDocument(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()

	doc := makeDoc("https://example.com/page", "Public records portal", "Search state public records online", nil)
	require.NoError(t, backend.IndexDocument(ctx, doc))

	got, err := backend.GetByID(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, doc.URL, got.URL)
	assert.Equal(t, doc.Title, got.Title)

	count, err := backend.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestGetMissingDocument(t *testing.T) {
	backend := newTestBackend(t)

	_, err := backend.GetByID(context.Background(), core.ID(12345))
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestReindexReplacesTokens(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()

	doc := makeDoc("https://example.com/page", "Quarterly earnings report", "Company earnings figures", nil)
	require.NoError(t, backend.IndexDocument(ctx, doc))

	doc.Title = "Annual budget summary"
	doc.Snippet = "Municipal budget figures"
	require.NoError(t, backend.IndexDocument(ctx, doc))

	// Old tokens no longer match.
	docs, err := backend.SearchKeyword(ctx, "earnings", 10)
	require.NoError(t, err)
	assert.Empty(t, docs)

	docs, err = backend.SearchKeyword(ctx, "budget", 10)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, doc.Id, docs[0].Id)

	count, err := backend.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestSearchKeywordPrefersFullMatches(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()

	full := makeDoc("https://example.com/both", "Climate policy report", "Detailed climate policy analysis", nil)
	partial := makeDoc("https://example.com/one", "Climate science primer", "Introductory material", nil)
	require.NoError(t, backend.IndexDocument(ctx, full))
	require.NoError(t, backend.IndexDocument(ctx, partial))

	docs, err := backend.SearchKeyword(ctx, "climate policy", 10)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, full.Id, docs[0].Id)

	// With no full match, partial matches rank by ratio.
	docs, err = backend.SearchKeyword(ctx, "climate treaties", 10)
	require.NoError(t, err)
	require.Len(t, docs, 2)
}

func TestSearchKeywordEmptyQuery(t *testing.T) {
	backend := newTestBackend(t)

	docs, err := backend.SearchKeyword(context.Background(), "the of and", 10)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestSearchVector(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()

	near := makeDoc("https://example.com/near", "Close match", "Very similar content here", []float32{1, 0, 0})
	far := makeDoc("https://example.com/far", "Distant match", "Unrelated content entirely", []float32{0, 1, 0})
	noVec := makeDoc("https://example.com/novec", "No vector", "Never embedded at all", nil)
	require.NoError(t, backend.IndexDocument(ctx, near))
	require.NoError(t, backend.IndexDocument(ctx, far))
	require.NoError(t, backend.IndexDocument(ctx, noVec))

	docs, err := backend.SearchVector(ctx, []float32{1, 0, 0}, 0.5, 10)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, near.Id, docs[0].Id)

	// Threshold 0 admits orthogonal vectors but never unembedded docs.
	docs, err = backend.SearchVector(ctx, []float32{1, 0, 0}, 0, 10)
	require.NoError(t, err)
	assert.Len(t, docs, 2)
	assert.Equal(t, near.Id, docs[0].Id)
}

func TestSearchHybridFusesRankings(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()

	both := makeDoc("https://example.com/both", "Solar energy grants", "Solar energy grant programs", []float32{1, 0})
	both.Score = 30
	keywordOnly := makeDoc("https://example.com/kw", "Solar energy news", "Daily solar energy updates", []float32{0, 1})
	require.NoError(t, backend.IndexDocument(ctx, both))
	require.NoError(t, backend.IndexDocument(ctx, keywordOnly))

	docs, err := backend.SearchHybrid(ctx, "solar energy", []float32{1, 0}, 10)
	require.NoError(t, err)
	require.NotEmpty(t, docs)
	assert.Equal(t, both.Id, docs[0].Id)
}

func TestTraverseGraphReturnsDomainNeighbors(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()

	a := makeDoc("https://example.com/a", "First page here", "Content of the first page", nil)
	b := makeDoc("https://example.com/b", "Second page here", "Content of the second page", nil)
	other := makeDoc("https://other.org/c", "Elsewhere entirely", "Content hosted on another site", nil)
	require.NoError(t, backend.IndexDocument(ctx, a))
	require.NoError(t, backend.IndexDocument(ctx, b))
	require.NoError(t, backend.IndexDocument(ctx, other))

	docs, err := backend.TraverseGraph(ctx, a.Id, 1)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, b.Id, docs[0].Id)

	docs, err = backend.TraverseGraph(ctx, a.Id, 0)
	require.NoError(t, err)
	assert.Empty(t, docs)

	_, err = backend.TraverseGraph(ctx, core.ID(999), 1)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDeleteByID(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()

	doc := makeDoc("https://example.com/page", "Removable page here", "Soon to be deleted entirely", nil)
	require.NoError(t, backend.IndexDocument(ctx, doc))
	require.NoError(t, backend.DeleteByID(ctx, doc.Id))

	_, err := backend.GetByID(ctx, doc.Id)
	require.ErrorIs(t, err, storage.ErrNotFound)

	docs, err := backend.SearchKeyword(ctx, "removable", 10)
	require.NoError(t, err)
	assert.Empty(t, docs)

	require.ErrorIs(t, backend.DeleteByID(ctx, doc.Id), storage.ErrNotFound)
}

func TestIndexEntity(t *testing.T) {
	backend := newTestBackend(t)

	err := backend.IndexEntity(context.Background(), &storage.Entity{
		ID:   core.IDFromContent("example.com"),
		Kind: "domain",
		Name: "example.com",
	})
	require.NoError(t, err)
}

func TestCapabilitiesCoverFullSet(t *testing.T) {
	backend := newTestBackend(t)

	caps := backend.Capabilities()
	assert.True(t, caps.Has(storage.OpSearchVector))
	assert.True(t, caps.Has(storage.OpSearchHybrid))
	assert.True(t, caps.Has(storage.OpTraverseGraph))
}
