package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dragnet-io/dragnet/core"
)

// Request carries the arguments for one backend operation. Op selects the
// operation; the remaining fields are read according to the operation's
// signature. Callers issuing vector searches should also set Query so the
// request stays servable when the router degrades to keyword search.
type Request struct {
	Op            Operation
	Entity        *Entity
	Document      *core.Document
	Query         string
	Vector        []float32
	MinSimilarity float32
	Limit         int
	ID            core.ID
	Depth         int
}

// Result is the annotated outcome of a routed operation. Backend names the
// backend that served the call; Fallback is set when the preferred backend
// failed and the other one answered; Degraded is set when the operation was
// substituted with a simpler one the serving backend supports.
type Result struct {
	Backend   string
	Fallback  bool
	Degraded  bool
	Documents []*core.Document
	Document  *core.Document
	Count     int64
}

// dispatch maps each operation to its backend method. Adding an operation
// means adding a Backend method and one entry here.
var dispatch = map[Operation]func(ctx context.Context, b Backend, req *Request) (*Result, error){
	OpIndexEntity: func(ctx context.Context, b Backend, req *Request) (*Result, error) {
		if req.Entity == nil {
			return nil, fmt.Errorf("%w: indexEntity requires an entity", ErrInvalidRequest)
		}
		return &Result{}, b.IndexEntity(ctx, req.Entity)
	},
	OpIndexDocument: func(ctx context.Context, b Backend, req *Request) (*Result, error) {
		if req.Document == nil {
			return nil, fmt.Errorf("%w: indexDocument requires a document", ErrInvalidRequest)
		}
		return &Result{}, b.IndexDocument(ctx, req.Document)
	},
	OpSearchKeyword: func(ctx context.Context, b Backend, req *Request) (*Result, error) {
		docs, err := b.SearchKeyword(ctx, req.Query, req.Limit)
		return &Result{Documents: docs}, err
	},
	OpSearchVector: func(ctx context.Context, b Backend, req *Request) (*Result, error) {
		docs, err := b.SearchVector(ctx, req.Vector, req.MinSimilarity, req.Limit)
		return &Result{Documents: docs}, err
	},
	OpSearchHybrid: func(ctx context.Context, b Backend, req *Request) (*Result, error) {
		docs, err := b.SearchHybrid(ctx, req.Query, req.Vector, req.Limit)
		return &Result{Documents: docs}, err
	},
	OpTraverseGraph: func(ctx context.Context, b Backend, req *Request) (*Result, error) {
		docs, err := b.TraverseGraph(ctx, req.ID, req.Depth)
		return &Result{Documents: docs}, err
	},
	OpGetByID: func(ctx context.Context, b Backend, req *Request) (*Result, error) {
		doc, err := b.GetByID(ctx, req.ID)
		return &Result{Document: doc}, err
	},
	OpDeleteByID: func(ctx context.Context, b Backend, req *Request) (*Result, error) {
		return &Result{}, b.DeleteByID(ctx, req.ID)
	},
	OpCount: func(ctx context.Context, b Backend, req *Request) (*Result, error) {
		count, err := b.Count(ctx)
		return &Result{Count: count}, err
	},
}

// BackendHealth is a point-in-time snapshot of one backend's counters.
type BackendHealth struct {
	Name      string
	Available bool
	Calls     int64
	Failures  int64
}

// Health is a point-in-time snapshot of the router's state.
type Health struct {
	Primary           *BackendHealth
	Secondary         *BackendHealth
	Fallbacks         int64
	DualIndexFailures int64
}

// DualWriteResult reports the per-backend outcome of a parallel dual write.
// Success is true if at least one backend wrote; Canonical is the primary
// backend's result when present, otherwise the secondary's.
type DualWriteResult struct {
	Success   bool
	Canonical *Result
	Errors    map[string]error
}

// RouterOption configures a Router.
type RouterOption func(*Router) error

// WithPreferSecondary makes the secondary backend serve reads and writes
// first, with the primary as fallback.
func WithPreferSecondary() RouterOption {
	return func(r *Router) error {
		r.preferSecondary = true
		return nil
	}
}

// WithRouterLogger sets the logger used by the router.
func WithRouterLogger(logger *slog.Logger) RouterOption {
	return func(r *Router) error {
		if logger == nil {
			return errors.New("logger must not be nil")
		}
		r.logger = logger
		return nil
	}
}

// Router fronts a primary and a secondary backend with automatic failover,
// best-effort dual indexing, and capability degradation. All state is guarded
// by a single mutex; backend calls themselves run outside the lock.
type Router struct {
	primary         Backend
	secondary       Backend
	preferSecondary bool
	logger          *slog.Logger

	mu                sync.Mutex
	unavailable       map[string]bool
	calls             map[string]int64
	failures          map[string]int64
	fallbacks         int64
	dualIndexFailures int64
}

// NewRouter creates a router over the given backends. Either backend may be
// nil (the router then runs without failover), but at least one must be
// present.
func NewRouter(primary, secondary Backend, opts ...RouterOption) (*Router, error) {
	if primary == nil && secondary == nil {
		return nil, ErrNoBackends
	}

	r := &Router{
		primary:     primary,
		secondary:   secondary,
		logger:      slog.Default().With("component", "storage-router"),
		unavailable: make(map[string]bool),
		calls:       make(map[string]int64),
		failures:    make(map[string]int64),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// ExecuteWithFallback routes the request to the preferred available backend.
// On failure it retries once on the other backend, marking the result as a
// fallback. Successful writes are mirrored best-effort to the non-serving
// backend.
func (r *Router) ExecuteWithFallback(ctx context.Context, req *Request) (*Result, error) {
	if _, ok := dispatch[req.Op]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedOperation, req.Op)
	}

	serving, other := r.pick()
	if serving == nil {
		return nil, ErrNoBackends
	}

	result, err := r.invoke(ctx, serving, req)
	if err == nil {
		result.Backend = serving.Name()
		if req.Op.IsWrite() && other != nil {
			r.mirror(ctx, other, req)
		}
		return result, nil
	}

	if other == nil {
		return nil, err
	}

	r.logger.Warn("backend call failed, trying fallback",
		"op", req.Op.String(), "backend", serving.Name(), "fallback", other.Name(), "err", err)

	result, fallbackErr := r.invoke(ctx, other, req)
	if fallbackErr != nil {
		return nil, fmt.Errorf("%s failed on both backends: %w",
			req.Op, errors.Join(err, fallbackErr))
	}

	result.Backend = other.Name()
	result.Fallback = true

	r.mu.Lock()
	r.fallbacks++
	r.mu.Unlock()

	return result, nil
}

// DualWrite normalizes the payload once and writes it to both backends
// concurrently. The write succeeds if at least one backend accepted it.
func (r *Router) DualWrite(ctx context.Context, req *Request) (*DualWriteResult, error) {
	if !req.Op.IsWrite() {
		return nil, fmt.Errorf("%w: %s is not a write operation", ErrInvalidRequest, req.Op)
	}
	if req.Op == OpIndexDocument {
		if req.Document == nil {
			return nil, fmt.Errorf("%w: indexDocument requires a document", ErrInvalidRequest)
		}
		normalizeDocument(req.Document)
	}

	outcome := &DualWriteResult{Errors: make(map[string]error)}
	var (
		outcomeMu     sync.Mutex
		primaryResult *Result
		secondResult  *Result
	)

	g, gctx := errgroup.WithContext(ctx)
	if r.primary != nil {
		g.Go(func() error {
			result, err := r.invoke(gctx, r.primary, req)
			outcomeMu.Lock()
			defer outcomeMu.Unlock()
			if err != nil {
				outcome.Errors[r.primary.Name()] = err
				return nil
			}
			result.Backend = r.primary.Name()
			primaryResult = result
			return nil
		})
	}
	if r.secondary != nil {
		g.Go(func() error {
			result, err := r.invoke(gctx, r.secondary, req)
			outcomeMu.Lock()
			defer outcomeMu.Unlock()
			if err != nil {
				outcome.Errors[r.secondary.Name()] = err
				return nil
			}
			result.Backend = r.secondary.Name()
			secondResult = result
			return nil
		})
	}
	_ = g.Wait()

	outcome.Canonical = primaryResult
	if outcome.Canonical == nil {
		outcome.Canonical = secondResult
	}
	outcome.Success = outcome.Canonical != nil

	if !outcome.Success {
		var errs []error
		for name, err := range outcome.Errors {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
		return outcome, fmt.Errorf("dual write failed on all backends: %w", errors.Join(errs...))
	}

	for name, err := range outcome.Errors {
		r.logger.Warn("dual write partial failure", "op", req.Op.String(), "backend", name, "err", err)
	}

	return outcome, nil
}

// ProbeHealth issues a count to each backend and updates its availability
// flag. A backend that fails the probe is skipped as the serving choice until
// a later probe succeeds.
func (r *Router) ProbeHealth(ctx context.Context) {
	for _, b := range []Backend{r.primary, r.secondary} {
		if b == nil {
			continue
		}
		_, err := b.Count(ctx)

		r.mu.Lock()
		r.unavailable[b.Name()] = err != nil
		r.mu.Unlock()

		if err != nil {
			r.logger.Warn("backend failed health probe", "backend", b.Name(), "err", err)
		}
	}
}

// Health returns a snapshot of the router's counters and availability flags.
func (r *Router) Health() Health {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := Health{
		Fallbacks:         r.fallbacks,
		DualIndexFailures: r.dualIndexFailures,
	}
	if r.primary != nil {
		snapshot.Primary = r.healthLocked(r.primary)
	}
	if r.secondary != nil {
		snapshot.Secondary = r.healthLocked(r.secondary)
	}
	return snapshot
}

func (r *Router) healthLocked(b Backend) *BackendHealth {
	name := b.Name()
	return &BackendHealth{
		Name:      name,
		Available: !r.unavailable[name],
		Calls:     r.calls[name],
		Failures:  r.failures[name],
	}
}

// Close closes both backends.
func (r *Router) Close() error {
	var errs []error
	for _, b := range []Backend{r.primary, r.secondary} {
		if b == nil {
			continue
		}
		if err := b.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", b.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// pick selects the serving backend by preference and availability, and the
// other backend as fallback candidate. If every candidate looks unavailable
// the preferred one is still returned, since probe state may be stale.
func (r *Router) pick() (serving, other Backend) {
	first, second := r.primary, r.secondary
	if r.preferSecondary {
		first, second = second, first
	}
	if first == nil {
		return second, nil
	}
	if second == nil {
		return first, nil
	}

	r.mu.Lock()
	firstDown := r.unavailable[first.Name()]
	secondDown := r.unavailable[second.Name()]
	r.mu.Unlock()

	if firstDown && !secondDown {
		return second, first
	}
	return first, second
}

// invoke runs the request on one backend, degrading the operation if the
// backend lacks the capability, and records call counters.
func (r *Router) invoke(ctx context.Context, b Backend, req *Request) (*Result, error) {
	op := req.Op
	degraded := false
	if !b.Capabilities().Has(op) {
		substitute := op.Degraded()
		if substitute == op {
			return nil, fmt.Errorf("%w: %s on backend %s", ErrUnsupportedOperation, op, b.Name())
		}
		r.logger.Debug("degrading operation",
			"backend", b.Name(), "from", op.String(), "to", substitute.String())
		op = substitute
		degraded = true
	}

	effective := req
	if degraded {
		clone := *req
		clone.Op = op
		effective = &clone
	}

	result, err := dispatch[op](ctx, b, effective)

	r.mu.Lock()
	r.calls[b.Name()]++
	if err != nil {
		r.failures[b.Name()]++
	}
	r.mu.Unlock()

	if err != nil {
		return nil, err
	}
	result.Degraded = degraded
	return result, nil
}

// mirror replays a successful write on the non-serving backend. Failures are
// logged and counted but never surfaced to the caller.
func (r *Router) mirror(ctx context.Context, b Backend, req *Request) {
	_, err := r.invoke(ctx, b, req)
	if err != nil {
		r.mu.Lock()
		r.dualIndexFailures++
		r.mu.Unlock()
		r.logger.Warn("dual index mirror failed", "op", req.Op.String(), "backend", b.Name(), "err", err)
	}
}

// normalizeDocument fills in timestamps and dedups tag/source lists so both
// backends receive an identical payload.
func normalizeDocument(doc *core.Document) {
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now
	doc.Tags = dedupSorted(doc.Tags)
	doc.Sources = dedupPreserveOrder(doc.Sources)
}

func dedupSorted(values []string) []string {
	if len(values) == 0 {
		return values
	}
	out := slices.Clone(values)
	slices.Sort(out)
	return slices.Compact(out)
}

func dedupPreserveOrder(values []string) []string {
	if len(values) < 2 {
		return values
	}
	seen := make(map[string]struct{}, len(values))
	out := values[:0]
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
