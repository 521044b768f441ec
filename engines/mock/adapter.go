package mock

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync/atomic"

	"github.com/dragnet-io/dragnet/engines"
)

// Adapter is a test double for engines.Adapter.
// It allows custom behavior injection via function fields.
type Adapter struct {
	// CodeValue is returned by Code.
	CodeValue string

	// SearchFunc is called by Search if set.
	// If nil, uses default deterministic behavior.
	SearchFunc func(ctx context.Context, query string, maxResults int) ([]engines.Result, error)

	calls atomic.Int64
}

var _ engines.Adapter = (*Adapter)(nil)

// NewAdapter creates a mock adapter with default deterministic behavior:
// Search returns maxResults synthetic results derived from the query hash.
func NewAdapter(code string) *Adapter {
	return &Adapter{CodeValue: code}
}

// NewFixedAdapter creates a mock adapter that always returns the given results.
func NewFixedAdapter(code string, results []engines.Result) *Adapter {
	return &Adapter{
		CodeValue: code,
		SearchFunc: func(ctx context.Context, query string, maxResults int) ([]engines.Result, error) {
			if len(results) > maxResults {
				return results[:maxResults], nil
			}
			return results, nil
		},
	}
}

// NewFailingAdapter creates a mock adapter whose Search always returns err.
func NewFailingAdapter(code string, err error) *Adapter {
	return &Adapter{
		CodeValue: code,
		SearchFunc: func(ctx context.Context, query string, maxResults int) ([]engines.Result, error) {
			return nil, err
		},
	}
}

// Code returns the configured source code.
func (a *Adapter) Code() string {
	return a.CodeValue
}

// Search returns deterministic synthetic results unless SearchFunc is set.
func (a *Adapter) Search(ctx context.Context, query string, maxResults int) ([]engines.Result, error) {
	a.calls.Add(1)

	if a.SearchFunc != nil {
		return a.SearchFunc(ctx, query, maxResults)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h := fnv.New32a()
	h.Write([]byte(query))
	seed := h.Sum32()

	n := maxResults
	if n > 5 {
		n = 5
	}
	results := make([]engines.Result, 0, n)
	for i := 0; i < n; i++ {
		results = append(results, engines.Result{
			URL:     fmt.Sprintf("https://%s.example.com/%08x/%d", a.CodeValue, seed, i),
			Title:   fmt.Sprintf("Result %d from %s", i, a.CodeValue),
			Snippet: fmt.Sprintf("Synthetic snippet %d for query %q from engine %s", i, query, a.CodeValue),
		})
	}
	return results, nil
}

// Calls returns the number of Search invocations. Safe to read while
// concurrent searches are in flight.
func (a *Adapter) Calls() int {
	return int(a.calls.Load())
}
