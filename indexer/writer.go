package indexer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dragnet-io/dragnet/core"
)

const (
	defaultQueueCapacity = 256
	defaultBatchSize     = 5
	defaultFlushAge      = 2 * time.Second
	defaultTickInterval  = 500 * time.Millisecond
	defaultStopTimeout   = 2 * time.Second
)

// WriterOption configures a Writer.
type WriterOption func(*Writer) error

// WithWriterLogger sets the logger used by the writer.
func WithWriterLogger(logger *slog.Logger) WriterOption {
	return func(w *Writer) error {
		if logger == nil {
			return errors.New("logger must not be nil")
		}
		w.logger = logger
		return nil
	}
}

// WithQueueCapacity sets the intake channel capacity.
func WithQueueCapacity(capacity int) WriterOption {
	return func(w *Writer) error {
		if capacity < 1 {
			return errors.New("queue capacity must be at least 1")
		}
		w.queueCapacity = capacity
		return nil
	}
}

// WithBatchSize sets the batch size that triggers an immediate flush.
func WithBatchSize(size int) WriterOption {
	return func(w *Writer) error {
		if size < 1 {
			return errors.New("batch size must be at least 1")
		}
		w.batchSize = size
		return nil
	}
}

// WithFlushAge sets how long a non-empty batch may sit before a time-based
// flush.
func WithFlushAge(age time.Duration) WriterOption {
	return func(w *Writer) error {
		if age <= 0 {
			return errors.New("flush age must be positive")
		}
		w.flushAge = age
		return nil
	}
}

// WithTickInterval sets how often the consumer checks batch age.
func WithTickInterval(interval time.Duration) WriterOption {
	return func(w *Writer) error {
		if interval <= 0 {
			return errors.New("tick interval must be positive")
		}
		w.tickInterval = interval
		return nil
	}
}

// Writer is the background index writer: a single long-lived consumer
// goroutine reading a bounded channel and flushing batches to every sink.
// A batch flushes as soon as it reaches the batch size, or when it has aged
// past the flush threshold. Sink failures and per-batch panics are contained;
// the loop never stops until the writer does.
type Writer struct {
	sinks         []Sink
	logger        *slog.Logger
	queueCapacity int
	batchSize     int
	flushAge      time.Duration
	tickInterval  time.Duration

	queue    chan core.Document
	done     chan struct{}
	stopOnce sync.Once

	enqueued atomic.Int64
	dropped  atomic.Int64
	flushed  atomic.Int64
}

// NewWriter creates and starts a background writer over the given sinks.
func NewWriter(sinks []Sink, opts ...WriterOption) (*Writer, error) {
	if len(sinks) == 0 {
		return nil, ErrSinkRequired
	}

	w := &Writer{
		sinks:         sinks,
		logger:        slog.Default().With("component", "index-writer"),
		queueCapacity: defaultQueueCapacity,
		batchSize:     defaultBatchSize,
		flushAge:      defaultFlushAge,
		tickInterval:  defaultTickInterval,
	}

	for _, opt := range opts {
		if err := opt(w); err != nil {
			return nil, err
		}
	}

	w.queue = make(chan core.Document, w.queueCapacity)
	w.done = make(chan struct{})
	go w.run()

	return w, nil
}

// Enqueue hands a document to the writer without blocking. Returns false if
// the queue is full or the writer has stopped; the document is then dropped.
func (w *Writer) Enqueue(doc core.Document) (accepted bool) {
	defer func() {
		// Send on closed channel after Stop.
		if r := recover(); r != nil {
			accepted = false
		}
		if !accepted {
			w.dropped.Add(1)
		}
	}()

	select {
	case w.queue <- doc:
		w.enqueued.Add(1)
		return true
	default:
		w.logger.Warn("index queue full, dropping document", "url", doc.URL)
		return false
	}
}

// Stop closes the intake and waits for the consumer to drain, bounded by the
// context deadline (2s default when the context carries none). The consumer
// keeps flushing in the background if the wait expires.
func (w *Writer) Stop(ctx context.Context) error {
	w.stopOnce.Do(func() {
		close(w.queue)
	})

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultStopTimeout)
		defer cancel()
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn("writer stop timed out before drain completed")
		return ctx.Err()
	}
}

// Flushed returns the number of batches flushed so far.
func (w *Writer) Flushed() int64 {
	return w.flushed.Load()
}

// Dropped returns the number of documents dropped at intake.
func (w *Writer) Dropped() int64 {
	return w.dropped.Load()
}

func (w *Writer) run() {
	defer close(w.done)

	ticker := time.NewTicker(w.tickInterval)
	defer ticker.Stop()

	batch := make([]core.Document, 0, w.batchSize)
	lastFlush := time.Now()

	for {
		select {
		case doc, ok := <-w.queue:
			if !ok {
				if len(batch) > 0 {
					w.flush(batch)
				}
				return
			}
			batch = append(batch, doc)
			if len(batch) >= w.batchSize {
				w.flush(batch)
				batch = batch[:0]
				lastFlush = time.Now()
			}

		case <-ticker.C:
			if len(batch) > 0 && time.Since(lastFlush) > w.flushAge {
				w.flush(batch)
				batch = batch[:0]
				lastFlush = time.Now()
			}
		}
	}
}

// flush sends a copy of the batch to every sink independently. A sink error
// or panic discards only this batch for that sink.
func (w *Writer) flush(batch []core.Document) {
	docs := make([]core.Document, len(batch))
	copy(docs, batch)

	for _, sink := range w.sinks {
		w.flushSink(sink, docs)
	}
	w.flushed.Add(1)
}

func (w *Writer) flushSink(sink Sink, docs []core.Document) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("sink panicked, batch discarded", "sink", sink.Name(), "panic", r)
		}
	}()

	if err := sink.IndexBatch(context.Background(), docs); err != nil {
		w.logger.Warn("sink failed to index batch", "sink", sink.Name(), "count", len(docs), "err", err)
	}
}
