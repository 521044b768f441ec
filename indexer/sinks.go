package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dragnet-io/dragnet/ai"
	"github.com/dragnet-io/dragnet/core"
	"github.com/dragnet-io/dragnet/storage"
)

// Sink receives flushed document batches. Sinks are independent: a failing
// sink never blocks the others, and partial failure within a batch is the
// sink's own concern.
type Sink interface {
	// Name identifies the sink in logs.
	Name() string

	// IndexBatch persists a batch of documents.
	IndexBatch(ctx context.Context, docs []core.Document) error
}

const (
	sinkRetryAttempts = 3
	sinkRetryDelay    = 100 * time.Millisecond
)

// DocumentSink writes documents through the router with failover, retrying
// transient failures with backoff.
type DocumentSink struct {
	router *storage.Router
	logger *slog.Logger
}

var _ Sink = (*DocumentSink)(nil)

// NewDocumentSink creates a sink that indexes documents via the router.
func NewDocumentSink(router *storage.Router) (*DocumentSink, error) {
	if router == nil {
		return nil, ErrRouterRequired
	}
	return &DocumentSink{
		router: router,
		logger: slog.Default().With("component", "document-sink"),
	}, nil
}

// Name identifies the sink in logs.
func (s *DocumentSink) Name() string {
	return "documents"
}

// IndexBatch writes each document through the router. Per-document failures
// are collected; the rest of the batch still goes through.
func (s *DocumentSink) IndexBatch(ctx context.Context, docs []core.Document) error {
	var errs []error
	for i := range docs {
		doc := docs[i]
		err := RetryWithBackoff(ctx, func() error {
			_, err := s.router.ExecuteWithFallback(ctx, &storage.Request{
				Op:       storage.OpIndexDocument,
				Document: &doc,
			})
			return err
		}, sinkRetryAttempts, sinkRetryDelay)
		if err != nil {
			errs = append(errs, fmt.Errorf("index %s: %w", doc.URL, err))
		}
	}
	return errors.Join(errs...)
}

// VectorSink embeds each batch and dual-writes the documents with their
// vectors to both backends. An embedding failure degrades the batch to a
// no-vector write rather than dropping it.
type VectorSink struct {
	router   *storage.Router
	embedder ai.Embedder
	logger   *slog.Logger
}

var _ Sink = (*VectorSink)(nil)

// NewVectorSink creates a sink that embeds and dual-writes documents.
func NewVectorSink(router *storage.Router, embedder ai.Embedder) (*VectorSink, error) {
	if router == nil {
		return nil, ErrRouterRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	return &VectorSink{
		router:   router,
		embedder: embedder,
		logger:   slog.Default().With("component", "vector-sink"),
	}, nil
}

// Name identifies the sink in logs.
func (s *VectorSink) Name() string {
	return "vectors"
}

// IndexBatch embeds the batch in one call, attaches the vectors, and
// dual-writes every document.
func (s *VectorSink) IndexBatch(ctx context.Context, docs []core.Document) error {
	texts := make([]string, len(docs))
	for i := range docs {
		texts[i] = strings.TrimSpace(docs[i].Title + " " + docs[i].Snippet)
	}

	vectors, err := s.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		s.logger.Warn("embedding batch failed, indexing without vectors", "count", len(docs), "err", err)
		vectors = nil
	}

	var errs []error
	for i := range docs {
		doc := docs[i]
		if i < len(vectors) {
			doc.Vector = vectors[i]
		}
		err := RetryWithBackoff(ctx, func() error {
			_, err := s.router.DualWrite(ctx, &storage.Request{
				Op:       storage.OpIndexDocument,
				Document: &doc,
			})
			return err
		}, sinkRetryAttempts, sinkRetryDelay)
		if err != nil {
			errs = append(errs, fmt.Errorf("index %s: %w", doc.URL, err))
		}
	}
	return errors.Join(errs...)
}
