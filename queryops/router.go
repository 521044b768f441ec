package queryops

import (
	"iter"
	"log/slog"
	"strings"
)

// Detected is one operator match with its extracted values.
type Detected struct {
	Family    Family
	Dimension Dimension
	Name      string
	Values    []string
}

// ModuleRoute is one routing-decision record, used for observability and
// dispatch hinting only; it never gates execution.
type ModuleRoute struct {
	Module    string // hierarchical path, e.g. "location/format/filetype"
	Operator  string
	Values    []string
	Family    Family
	Dimension Dimension
}

// Routing is the full output of routing a query.
type Routing struct {
	Query      string
	Detected   []Detected
	Engines    LayerSet
	Routes     []ModuleRoute
	HasRouting bool
}

// ExecutionEventKind tags events yielded by ExecuteRoutes.
type ExecutionEventKind string

const (
	// EventRoute dispatches one module route.
	EventRoute ExecutionEventKind = "route"
	// EventDefault signals the caller should fall back to an unrouted
	// search. It is not an error condition.
	EventDefault ExecutionEventKind = "default"
)

// ExecutionEvent is one step of a lazy route execution sequence.
type ExecutionEvent struct {
	Kind  ExecutionEventKind
	Route *ModuleRoute // nil for EventDefault
}

// Router classifies compact search-DSL tokens into engine-routing decisions.
// The zero-cost construction holds only the static grammar; Router is safe
// for concurrent use.
type Router struct {
	logger *slog.Logger
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
	}
}

// NewRouter creates a new operator router.
func NewRouter(opts ...Option) *Router {
	r := &Router{logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DetectOperators runs every grammar rule against the query. Detection is
// multi-label: a single query may match any number of rules independently.
func (r *Router) DetectOperators(query string) []Detected {
	var detected []Detected
	for _, rule := range grammar {
		matches := rule.Pattern.FindAllStringSubmatch(query, -1)
		if len(matches) == 0 {
			continue
		}
		var values []string
		for _, m := range matches {
			for _, group := range m[1:] {
				group = strings.Trim(group, `"`)
				if group != "" {
					values = append(values, group)
				}
			}
			// Rules without capture groups (pure flags) record the token.
			if len(m) == 1 {
				values = append(values, strings.TrimSpace(m[0]))
			}
		}
		detected = append(detected, Detected{
			Family:    rule.Family,
			Dimension: rule.Dimension,
			Name:      rule.Name,
			Values:    values,
		})
	}
	return detected
}

// EnginesForOperators unions the static layer mapping of every matched
// operator into running per-layer engine sets.
func (r *Router) EnginesForOperators(detected []Detected) LayerSet {
	var out LayerSet
	seen := map[string]map[string]bool{
		"L1": {}, "L2": {}, "L3": {},
	}
	add := func(layer string, dst *[]string, codes []string) {
		for _, code := range codes {
			if !seen[layer][code] {
				seen[layer][code] = true
				*dst = append(*dst, code)
			}
		}
	}
	for _, d := range detected {
		ls, ok := operatorEngines[d.Name]
		if !ok {
			continue
		}
		add("L1", &out.L1, ls.L1)
		add("L2", &out.L2, ls.L2)
		add("L3", &out.L3, ls.L3)
	}
	return out
}

// RouteToModules emits one routing-decision record per matched operator,
// naming a hierarchical module path.
func (r *Router) RouteToModules(query string, detected []Detected) []ModuleRoute {
	routes := make([]ModuleRoute, 0, len(detected))
	for _, d := range detected {
		parts := []string{strings.ToLower(string(d.Family))}
		if d.Dimension != DimensionNone {
			parts = append(parts, string(d.Dimension))
		}
		parts = append(parts, d.Name)
		routes = append(routes, ModuleRoute{
			Module:    strings.Join(parts, "/"),
			Operator:  d.Name,
			Values:    d.Values,
			Family:    d.Family,
			Dimension: d.Dimension,
		})
	}
	return routes
}

// RouteQuery runs the full routing pipeline: detection, engine selection,
// and module routing.
func (r *Router) RouteQuery(query string) Routing {
	detected := r.DetectOperators(query)
	routing := Routing{
		Query:      query,
		Detected:   detected,
		Engines:    r.EnginesForOperators(detected),
		Routes:     r.RouteToModules(query, detected),
		HasRouting: len(detected) > 0,
	}
	r.logger.Debug("routed query",
		"query", query,
		"operators", len(detected),
		"hasRouting", routing.HasRouting)
	return routing
}

// ExecuteRoutes produces a lazy, finite, non-restartable sequence of
// execution events for a routing decision. When no routes were produced it
// yields exactly one default event signaling the caller should fall back to
// an unrouted search.
func (r *Router) ExecuteRoutes(routing Routing) iter.Seq[ExecutionEvent] {
	consumed := false
	return func(yield func(ExecutionEvent) bool) {
		if consumed {
			return
		}
		consumed = true
		if len(routing.Routes) == 0 {
			yield(ExecutionEvent{Kind: EventDefault})
			return
		}
		for i := range routing.Routes {
			if !yield(ExecutionEvent{Kind: EventRoute, Route: &routing.Routes[i]}) {
				return
			}
		}
	}
}
