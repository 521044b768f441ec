package indexer

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dragnet-io/dragnet/ai/mock"
	"github.com/dragnet-io/dragnet/core"
	"github.com/dragnet-io/dragnet/storage"
)

// memBackend is a minimal in-memory storage.Backend for sink tests.
type memBackend struct {
	name     string
	indexErr error

	mu   sync.Mutex
	docs map[core.ID]*core.Document
}

func newMemBackend(name string) *memBackend {
	return &memBackend{name: name, docs: make(map[core.ID]*core.Document)}
}

func (m *memBackend) Name() string                        { return m.name }
func (m *memBackend) Capabilities() storage.CapabilitySet { return storage.FullCapabilities() }
func (m *memBackend) Close() error                        { return nil }

func (m *memBackend) IndexEntity(ctx context.Context, entity *storage.Entity) error { return nil }

func (m *memBackend) IndexDocument(ctx context.Context, doc *core.Document) error {
	if m.indexErr != nil {
		return m.indexErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[doc.Id] = doc
	return nil
}

func (m *memBackend) SearchKeyword(ctx context.Context, query string, limit int) ([]*core.Document, error) {
	return nil, nil
}

func (m *memBackend) SearchVector(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.Document, error) {
	return nil, nil
}

func (m *memBackend) SearchHybrid(ctx context.Context, query string, vector []float32, limit int) ([]*core.Document, error) {
	return nil, nil
}

func (m *memBackend) TraverseGraph(ctx context.Context, seed core.ID, depth int) ([]*core.Document, error) {
	return nil, nil
}

func (m *memBackend) GetByID(ctx context.Context, id core.ID) (*core.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return doc, nil
}

func (m *memBackend) DeleteByID(ctx context.Context, id core.ID) error { return nil }

func (m *memBackend) Count(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.docs)), nil
}

func (m *memBackend) stored(id core.ID) *core.Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.docs[id]
}

func fullDoc(url string) core.Document {
	return core.Document{
		Id:      core.IDFromContent(url),
		URL:     url,
		Title:   "A page worth indexing",
		Snippet: "Snippet text describing the page contents",
	}
}

func TestDocumentSinkIndexesBatch(t *testing.T) {
	primary := newMemBackend("primary")
	router, err := storage.NewRouter(primary, nil)
	require.NoError(t, err)

	sink, err := NewDocumentSink(router)
	require.NoError(t, err)
	assert.Equal(t, "documents", sink.Name())

	docs := []core.Document{fullDoc("https://example.com/a"), fullDoc("https://example.com/b")}
	require.NoError(t, sink.IndexBatch(context.Background(), docs))

	count, err := primary.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestDocumentSinkCollectsPerDocumentErrors(t *testing.T) {
	primary := newMemBackend("primary")
	primary.indexErr = errors.New("disk full")
	router, err := storage.NewRouter(primary, nil)
	require.NoError(t, err)

	sink, err := NewDocumentSink(router)
	require.NoError(t, err)

	err = sink.IndexBatch(context.Background(), []core.Document{fullDoc("https://example.com/a")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestVectorSinkAttachesVectors(t *testing.T) {
	primary := newMemBackend("primary")
	secondary := newMemBackend("secondary")
	router, err := storage.NewRouter(primary, secondary)
	require.NoError(t, err)

	sink, err := NewVectorSink(router, mock.NewEmbedder())
	require.NoError(t, err)
	assert.Equal(t, "vectors", sink.Name())

	doc := fullDoc("https://example.com/a")
	require.NoError(t, sink.IndexBatch(context.Background(), []core.Document{doc}))

	// Dual write lands on both backends with a vector attached.
	stored := primary.stored(doc.Id)
	require.NotNil(t, stored)
	assert.NotEmpty(t, stored.Vector)
	require.NotNil(t, secondary.stored(doc.Id))
}

func TestVectorSinkDegradesOnEmbeddingFailure(t *testing.T) {
	primary := newMemBackend("primary")
	router, err := storage.NewRouter(primary, nil)
	require.NoError(t, err)

	embedder := mock.NewEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("model unavailable")
	}

	sink, err := NewVectorSink(router, embedder)
	require.NoError(t, err)

	doc := fullDoc("https://example.com/a")
	require.NoError(t, sink.IndexBatch(context.Background(), []core.Document{doc}))

	// Indexed without a vector rather than dropped.
	stored := primary.stored(doc.Id)
	require.NotNil(t, stored)
	assert.Empty(t, stored.Vector)
}

func TestSinkConstructorsValidate(t *testing.T) {
	_, err := NewDocumentSink(nil)
	require.ErrorIs(t, err, ErrRouterRequired)

	router, err := storage.NewRouter(newMemBackend("primary"), nil)
	require.NoError(t, err)

	_, err = NewVectorSink(nil, mock.NewEmbedder())
	require.ErrorIs(t, err, ErrRouterRequired)

	_, err = NewVectorSink(router, nil)
	require.ErrorIs(t, err, ErrEmbedderRequired)
}
