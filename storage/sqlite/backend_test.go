package sqlite

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
	backend, err := OpenBackend("")
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
		Sources:   []string{core.SourceBing},
		Score:     15,
		Vector:    vector,
		CreatedAt: time.Now().UTC(),
	}
}

func TestIndexAndGetDocument(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()

	doc := makeDoc("https://example.com/page", "Court filings archive", "Browse historical court filings", nil)
	require.NoError(t, backend.IndexDocument(ctx, doc))

	got, err := backend.GetByID(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, doc.URL, got.URL)
	assert.Equal(t, doc.Title, got.Title)

	count, err := backend.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// Reindexing the same URL overwrites.
	doc.Title = "Court filings archive, updated"
	require.NoError(t, backend.IndexDocument(ctx, doc))
	count, err = backend.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestGetMissingDocument(t *testing.T) {
	backend := newTestBackend(t)

	_, err := backend.GetByID(context.Background(), core.ID(42))
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSearchKeyword(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()

	full := makeDoc("https://example.com/a", "Water quality report", "Regional water quality data", nil)
	partial := makeDoc("https://example.com/b", "Water rights overview", "Legal background material", nil)
	require.NoError(t, backend.IndexDocument(ctx, full))
	require.NoError(t, backend.IndexDocument(ctx, partial))

	docs, err := backend.SearchKeyword(ctx, "water quality", 10)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, full.URL, docs[0].URL)

	// No doc matches all tokens, so the any-token fallback kicks in.
	docs, err = backend.SearchKeyword(ctx, "water permits", 10)
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestSearchKeywordPrefersWholeWords(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()

	word := makeDoc("https://example.com/a", "Cat adoption guide", "Finding homes for shelter animals", nil)
	substring := makeDoc("https://example.com/b", "Catalog of services", "Full listing of county services", nil)
	require.NoError(t, backend.IndexDocument(ctx, word))
	require.NoError(t, backend.IndexDocument(ctx, substring))

	docs, err := backend.SearchKeyword(ctx, "cat", 10)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, word.URL, docs[0].URL)

	// With no whole-word match the substring candidates still surface.
	docs, err = backend.SearchKeyword(ctx, "catalo", 10)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, substring.URL, docs[0].URL)
}

func TestSearchVector(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()

	near := makeDoc("https://example.com/near", "Close match", "Very similar content here", []float32{1, 0})
	far := makeDoc("https://example.com/far", "Distant match", "Unrelated content entirely", []float32{0, 1})
	require.NoError(t, backend.IndexDocument(ctx, near))
	require.NoError(t, backend.IndexDocument(ctx, far))

	docs, err := backend.SearchVector(ctx, []float32{1, 0}, 0.5, 10)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, near.URL, docs[0].URL)
}

func TestSearchHybridUnsupported(t *testing.T) {
	backend := newTestBackend(t)

	_, err := backend.SearchHybrid(context.Background(), "query", []float32{1}, 10)
	require.ErrorIs(t, err, storage.ErrUnsupportedOperation)
	assert.False(t, backend.Capabilities().Has(storage.OpSearchHybrid))
}

func TestRouterDegradesHybridToKeyword(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()

	doc := makeDoc("https://example.com/a", "Open data portals", "Catalog of open data portals", nil)
	require.NoError(t, backend.IndexDocument(ctx, doc))

	router, err := storage.NewRouter(backend, nil)
	require.NoError(t, err)

	result, err := router.ExecuteWithFallback(ctx, &storage.Request{
		Op:    storage.OpSearchHybrid,
		Query: "open data",
		Limit: 10,
	})
	require.NoError(t, err)
	assert.True(t, result.Degraded)
	require.Len(t, result.Documents, 1)
	assert.Equal(t, doc.URL, result.Documents[0].URL)
}

func TestTraverseGraph(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()

	a := makeDoc("https://example.com/a", "First page here", "Content of the first page", nil)
	b := makeDoc("https://example.com/b", "Second page here", "Content of the second page", nil)
	other := makeDoc("https://other.org/c", "Elsewhere entirely", "Hosted on another site", nil)
	require.NoError(t, backend.IndexDocument(ctx, a))
	require.NoError(t, backend.IndexDocument(ctx, b))
	require.NoError(t, backend.IndexDocument(ctx, other))

	docs, err := backend.TraverseGraph(ctx, a.Id, 1)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, b.URL, docs[0].URL)
}

func TestDeleteByID(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()

	doc := makeDoc("https://example.com/page", "Removable page here", "Soon to be deleted entirely", nil)
	require.NoError(t, backend.IndexDocument(ctx, doc))
	require.NoError(t, backend.DeleteByID(ctx, doc.Id))
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

func TestVectorRoundTrip(t *testing.T) {
	vector := []float32{0.25, -1.5, 3.0}
	assert.Equal(t, vector, decodeVector(encodeVector(vector)))
	assert.Nil(t, encodeVector(nil))
	assert.Nil(t, decodeVector(nil))
}
