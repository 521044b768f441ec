package storage

import (
	"context"

	"github.com/dragnet-io/dragnet/core"
)

// Operation identifies one member of the uniform backend operation set.
// The router dispatches by operation through an explicit table, never by
// reflecting on method names.
type Operation int

const (
	OpIndexEntity Operation = iota
	OpIndexDocument
	OpSearchKeyword
	OpSearchVector
	OpSearchHybrid
	OpTraverseGraph
	OpGetByID
	OpDeleteByID
	OpCount
)

var operationNames = map[Operation]string{
	OpIndexEntity:   "indexEntity",
	OpIndexDocument: "indexDocument",
	OpSearchKeyword: "searchKeyword",
	OpSearchVector:  "searchVector",
	OpSearchHybrid:  "searchHybrid",
	OpTraverseGraph: "traverseGraph",
	OpGetByID:       "getById",
	OpDeleteByID:    "deleteById",
	OpCount:         "count",
}

// String returns the wire name of the operation.
func (op Operation) String() string {
	if name, ok := operationNames[op]; ok {
		return name
	}
	return "unknown"
}

// IsWrite reports whether the operation mutates backend state in a way that
// should be mirrored to the non-serving backend.
func (op Operation) IsWrite() bool {
	return op == OpIndexEntity || op == OpIndexDocument
}

// Degraded returns the nearest supported substitute for an operation the
// active backend cannot serve, or the operation itself if no substitute
// exists.
func (op Operation) Degraded() Operation {
	switch op {
	case OpSearchVector, OpSearchHybrid:
		return OpSearchKeyword
	default:
		return op
	}
}

// CapabilitySet describes which operations a backend supports natively.
type CapabilitySet map[Operation]bool

// Has reports whether the set includes op.
func (c CapabilitySet) Has(op Operation) bool {
	return c[op]
}

// FullCapabilities returns a set covering every operation.
func FullCapabilities() CapabilitySet {
	set := make(CapabilitySet, len(operationNames))
	for op := range operationNames {
		set[op] = true
	}
	return set
}

// Entity is a lightweight derived record indexed alongside documents,
// typically a domain or a person surfaced during a run.
type Entity struct {
	ID       core.ID
	Kind     string
	Name     string
	Metadata map[string]string
}

// Backend is the uniform storage operation set implemented identically by the
// primary and secondary backends. Implementations must be safe for concurrent
// use.
type Backend interface {
	// Name returns a stable identifier used in logs and health snapshots.
	Name() string

	// Capabilities reports the operations this backend supports natively.
	Capabilities() CapabilitySet

	// IndexEntity upserts a derived entity record.
	IndexEntity(ctx context.Context, entity *Entity) error

	// IndexDocument upserts a document keyed by its content ID.
	IndexDocument(ctx context.Context, doc *core.Document) error

	// SearchKeyword returns documents matching the query tokens, best first.
	SearchKeyword(ctx context.Context, query string, limit int) ([]*core.Document, error)

	// SearchVector returns documents whose stored vectors have cosine
	// similarity >= minSimilarity with the query vector, best first.
	SearchVector(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.Document, error)

	// SearchHybrid merges keyword and vector rankings for the same query.
	SearchHybrid(ctx context.Context, query string, vector []float32, limit int) ([]*core.Document, error)

	// TraverseGraph returns documents adjacent to the seed document, up to
	// the given depth.
	TraverseGraph(ctx context.Context, seed core.ID, depth int) ([]*core.Document, error)

	// GetByID retrieves a single document. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, id core.ID) (*core.Document, error)

	// DeleteByID removes a document and its index entries.
	// Returns ErrNotFound if the document doesn't exist.
	DeleteByID(ctx context.Context, id core.ID) error

	// Count returns the number of stored documents. Used as the health probe.
	Count(ctx context.Context) (int64, error)

	// Close releases backend resources.
	Close() error
}
