package fanout

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"golang.org/x/sync/errgroup"

	"github.com/dragnet-io/dragnet/ai"
	"github.com/dragnet-io/dragnet/core"
	"github.com/dragnet-io/dragnet/engines"
	"github.com/dragnet-io/dragnet/expand"
	"github.com/dragnet-io/dragnet/indexer"
	"github.com/dragnet-io/dragnet/phrase"
	"github.com/dragnet-io/dragnet/queryops"
	"github.com/dragnet-io/dragnet/ratelimit"
	"github.com/dragnet-io/dragnet/recall"
)

const (
	defaultSeenDomainCap = 4096
	eventBufferSize      = 64
)

// defaultAnchorCategories is the category allow-set gating anchor expansion
// when the run does not force it.
var defaultAnchorCategories = []string{"news", "academic", "document", "forum", "book", "code"}

// Orchestrator drives a full search run: it fans queries out to engines on a
// bounded worker pool, merges results through the shared dedup map, expands
// promising domains with anchor follow-ups, feeds accepted results to the
// background index writer, and streams events to the caller.
type Orchestrator struct {
	registry    *engines.Registry
	limiter     ratelimit.Limiter
	matcher     phrase.Matcher
	expander    expand.Expander
	planner     *recall.Planner
	writer      *indexer.Writer
	ops         *queryops.Router
	categorizer ai.Categorizer
	corpus      Corpus

	pool             *ants.Pool
	anchorLimit      int
	anchorCategories map[string]struct{}
	seenDomainCap    int
	logger           *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithPoolSize sets the worker pool size for engine dispatch and the
// concurrency limit for anchor gathering.
// Default is runtime.NumCPU(), with a minimum of 4.
func WithPoolSize(size int) Option {
	return func(o *Orchestrator) error {
		if size < 1 {
			size = 1
		}

		if o.pool != nil {
			o.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		o.pool = pool
		o.anchorLimit = size
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

// WithCategorizer enables best-effort result categorization.
func WithCategorizer(categorizer ai.Categorizer) Option {
	return func(o *Orchestrator) error {
		o.categorizer = categorizer
		return nil
	}
}

// WithCorpus enables corpus-scoped search against the local index.
func WithCorpus(corpus Corpus) Option {
	return func(o *Orchestrator) error {
		o.corpus = corpus
		return nil
	}
}

// WithAnchorCategories replaces the category allow-set for anchor expansion.
func WithAnchorCategories(categories ...string) Option {
	return func(o *Orchestrator) error {
		o.anchorCategories = make(map[string]struct{}, len(categories))
		for _, c := range categories {
			o.anchorCategories[strings.ToLower(c)] = struct{}{}
		}
		return nil
	}
}

// WithSeenDomainCap bounds the per-run seen-domains cache. Domains evicted
// under pressure may be anchor-expanded again.
func WithSeenDomainCap(cap int) Option {
	return func(o *Orchestrator) error {
		if cap < 1 {
			return fmt.Errorf("seen-domain cap must be at least 1, got %d", cap)
		}
		o.seenDomainCap = cap
		return nil
	}
}

// NewOrchestrator creates a streaming orchestrator over the given
// collaborators. Registry, limiter, matcher, expander, planner, and writer
// are required; categorization and corpus search are optional.
func NewOrchestrator(
	registry *engines.Registry,
	limiter ratelimit.Limiter,
	matcher phrase.Matcher,
	expander expand.Expander,
	planner *recall.Planner,
	writer *indexer.Writer,
	opts ...Option,
) (*Orchestrator, error) {
	if registry == nil {
		return nil, ErrRegistryRequired
	}
	if limiter == nil {
		return nil, ErrLimiterRequired
	}
	if matcher == nil {
		return nil, ErrMatcherRequired
	}
	if expander == nil {
		return nil, ErrExpanderRequired
	}
	if planner == nil {
		return nil, ErrPlannerRequired
	}
	if writer == nil {
		return nil, ErrWriterRequired
	}

	poolSize := runtime.NumCPU()
	if poolSize < 4 {
		poolSize = 4
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	o := &Orchestrator{
		registry:      registry,
		limiter:       limiter,
		matcher:       matcher,
		expander:      expander,
		planner:       planner,
		writer:        writer,
		ops:           queryops.NewRouter(),
		pool:          pool,
		anchorLimit:   poolSize,
		seenDomainCap: defaultSeenDomainCap,
		logger:        slog.Default().With("component", "orchestrator"),
	}

	for _, opt := range opts {
		if err := opt(o); err != nil {
			pool.Release()
			return nil, err
		}
	}

	if o.anchorCategories == nil {
		o.anchorCategories = make(map[string]struct{}, len(defaultAnchorCategories))
		for _, c := range defaultAnchorCategories {
			o.anchorCategories[c] = struct{}{}
		}
	}

	return o, nil
}

// Close releases the worker pool. The orchestrator cannot stream after Close.
func (o *Orchestrator) Close() {
	o.pool.Release()
}

// Stream runs one search and returns its event stream. The channel carries
// results and progress events in task completion order and closes after the
// terminal complete event. Validation failures surface before any dispatch.
func (o *Orchestrator) Stream(ctx context.Context, rawQuery string, level int, scope core.Scope) (<-chan Event, error) {
	stripped, forceAnchor := stripAnchorToken(rawQuery)

	query := &core.Query{
		Raw:          rawQuery,
		Concrete:     o.expander.Parse(stripped),
		Web:          o.expander.ExpandForWeb(stripped),
		ExactPhrases: o.matcher.ExtractPhrases(stripped),
		Level:        level,
		Scope:        scope,
		ForceAnchor:  forceAnchor,
	}
	if err := core.ValidateQuery(query); err != nil {
		return nil, err
	}
	if (scope == core.ScopeCorpus || scope == core.ScopeBoth) && o.corpus == nil {
		return nil, ErrCorpusRequired
	}

	routing := o.ops.RouteQuery(stripped)
	searchType := searchTypeFor(routing.Detected)

	rs, err := newResultSet(o.matcher, query.ExactPhrases, o.categorizer, o.seenDomainCap, o.logger)
	if err != nil {
		return nil, err
	}

	o.logger.Info("starting search run",
		"query", stripped, "level", level, "scope", scope.String(),
		"searchType", searchType, "hasRouting", routing.HasRouting)

	events := make(chan Event, eventBufferSize)
	go o.run(ctx, query, routing, searchType, rs, events)
	return events, nil
}

// runState tracks task completion and per-engine outcomes across a run.
type runState struct {
	mu        sync.Mutex
	completed int
	total     int
	stats     map[string]*EngineStat
}

func newRunState() *runState {
	return &runState{stats: make(map[string]*EngineStat)}
}

func (r *runState) addTask() {
	r.mu.Lock()
	r.total++
	r.mu.Unlock()
}

func (r *runState) taskDone(code string, results int, elapsed time.Duration, failed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed++
	stat, ok := r.stats[code]
	if !ok {
		stat = &EngineStat{Code: code}
		r.stats[code] = stat
	}
	stat.Elapsed += elapsed
	if failed {
		stat.Failures++
	} else {
		stat.Succeeded = true
		stat.Results += results
	}
}

func (r *runState) progress() (completed, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.completed, r.total
}

func (r *runState) tally() (stats []EngineStat, succeeded, failed int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, stat := range r.stats {
		stats = append(stats, *stat)
		if stat.Succeeded {
			succeeded++
		} else {
			failed++
		}
	}
	return stats, succeeded, failed
}

func (o *Orchestrator) run(ctx context.Context, query *core.Query, routing queryops.Routing, searchType string, rs *resultSet, events chan<- Event) {
	defer close(events)

	start := time.Now()
	run := newRunState()
	rounds := 0

	for round := 1; ; round++ {
		rounds = round
		strategy := o.planner.SearchStrategy(searchType, rs.count(), round)
		o.dispatchRound(ctx, query, routing, strategy, rs, run, events)

		if !o.planner.ShouldContinue(rs.count(), round, searchType) {
			break
		}
	}

	// FINALIZE: bounded writer join, then the terminal event.
	if err := o.writer.Stop(ctx); err != nil {
		o.logger.Warn("index writer did not drain before timeout", "err", err)
	}

	stats, succeeded, failed := run.tally()
	events <- Event{Kind: EventComplete, Complete: &CompleteEvent{
		RunID:            uuid.NewString(),
		TotalResults:     rs.rawCount(),
		UniqueURLs:       rs.count(),
		ElapsedTime:      time.Since(start),
		EnginesSucceeded: succeeded,
		EnginesFailed:    failed,
		Rounds:           rounds,
		Stats:            stats,
	}}
}

// dispatchRound schedules one task per selected engine (plus one corpus task
// when in scope) on the worker pool, waits for the round, then gathers the
// round's anchor follow-ups.
func (o *Orchestrator) dispatchRound(ctx context.Context, query *core.Query, routing queryops.Routing, strategy recall.Strategy, rs *resultSet, run *runState, events chan<- Event) {
	anchorEnabled := query.Level >= 3 || query.ForceAnchor

	var wg sync.WaitGroup
	var seedMu sync.Mutex
	var seeds []anchorSeed

	collectSeeds := func(code string, fresh []*core.SearchResult) {
		if !anchorEnabled {
			return
		}
		for _, entry := range fresh {
			domain := core.DomainOf(entry.URL)
			if domain == "" {
				continue
			}
			if !query.ForceAnchor {
				if _, ok := o.anchorCategories[strings.ToLower(entry.Category)]; !ok {
					continue
				}
			}
			if !rs.claimDomain(domain) {
				continue
			}
			seedMu.Lock()
			seeds = append(seeds, anchorSeed{domain: domain, code: code})
			seedMu.Unlock()
		}
	}

	if query.Scope == core.ScopeWeb || query.Scope == core.ScopeBoth {
		for _, code := range o.selectEngines(strategy, routing) {
			desc, ok := o.registry.Get(code)
			if !ok {
				continue
			}
			run.addTask()
			wg.Add(1)
			task := func() {
				defer wg.Done()
				o.engineTask(ctx, desc, query, strategy, rs, run, events, collectSeeds)
			}
			if err := o.pool.Submit(task); err != nil {
				go task()
			}
		}
	}

	if query.Scope == core.ScopeCorpus || query.Scope == core.ScopeBoth {
		run.addTask()
		wg.Add(1)
		task := func() {
			defer wg.Done()
			o.corpusTask(ctx, query, rs, run, events)
		}
		if err := o.pool.Submit(task); err != nil {
			go task()
		}
	}

	wg.Wait()

	if anchorEnabled && len(seeds) > 0 {
		o.anchorRound(ctx, seeds, query, rs, run, events)
	}
}

// engineTask runs one engine's round: limiter gate, variant searches, merge,
// writer push, seed collection, and events.
func (o *Orchestrator) engineTask(ctx context.Context, desc engines.Descriptor, query *core.Query, strategy recall.Strategy, rs *resultSet, run *runState, events chan<- Event, collectSeeds func(string, []*core.SearchResult)) {
	taskStart := time.Now()

	data, err := o.searchEngine(ctx, desc, query, strategy)
	if err != nil {
		o.logger.Warn("engine task failed", "engine", desc.Code, "err", err)
		run.taskDone(desc.Code, 0, time.Since(taskStart), true)
		o.emitProgress(events, run, rs)
		return
	}

	touched, fresh := rs.merge(ctx, desc.Code, data, false)
	o.pushToWriter(touched)
	collectSeeds(desc.Code, fresh)

	run.taskDone(desc.Code, len(touched), time.Since(taskStart), false)
	o.emitResults(events, desc.Code, touched)
	o.emitProgress(events, run, rs)
}

// corpusTask searches the local index. Failure yields an empty result set
// for the corpus source rather than failing the run.
func (o *Orchestrator) corpusTask(ctx context.Context, query *core.Query, rs *resultSet, run *runState, events chan<- Event) {
	taskStart := time.Now()

	limit := o.planner.Config().MaxResultsPerEngine
	docs, err := o.corpus.Search(ctx, query.Concrete, limit)
	if err != nil {
		o.logger.Warn("corpus search failed", "err", err)
		run.taskDone(core.SourceCorpus, 0, time.Since(taskStart), true)
		o.emitProgress(events, run, rs)
		return
	}

	touched, _ := rs.merge(ctx, core.SourceCorpus, corpusResults(docs), true)
	o.pushToWriter(touched)

	run.taskDone(core.SourceCorpus, len(touched), time.Since(taskStart), false)
	o.emitResults(events, core.SourceCorpus, touched)
	o.emitProgress(events, run, rs)
}

type anchorSeed struct {
	domain string
	code   string
}

// anchorRound gathers the round's anchor follow-ups concurrently: one
// site-scoped query per claimed domain, issued through the engine that
// surfaced it and merged back under the ANCHOR source.
func (o *Orchestrator) anchorRound(ctx context.Context, seeds []anchorSeed, query *core.Query, rs *resultSet, run *runState, events chan<- Event) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.anchorLimit)

	for _, seed := range seeds {
		desc, ok := o.registry.Get(seed.code)
		if !ok {
			continue
		}
		run.addTask()
		g.Go(func() error {
			taskStart := time.Now()

			if err := o.limiter.WaitIfNeeded(gctx, desc.Code); err != nil {
				run.taskDone(core.SourceAnchor, 0, time.Since(taskStart), true)
				o.emitProgress(events, run, rs)
				return nil
			}

			anchorQuery := fmt.Sprintf("site:%s anchor:%q", seed.domain, query.Concrete)
			data, err := desc.Adapter.Search(gctx, anchorQuery, desc.MaxResults)
			if err != nil {
				o.limiter.ReportError(desc.Code)
				o.logger.Debug("anchor task failed", "domain", seed.domain, "engine", desc.Code, "err", err)
				run.taskDone(core.SourceAnchor, 0, time.Since(taskStart), true)
				o.emitProgress(events, run, rs)
				return nil
			}
			o.limiter.ReportSuccess(desc.Code)

			touched, _ := rs.merge(ctx, core.SourceAnchor, data, false)
			o.pushToWriter(touched)

			run.taskDone(core.SourceAnchor, len(touched), time.Since(taskStart), false)
			o.emitResults(events, core.SourceAnchor, touched)
			o.emitProgress(events, run, rs)
			return nil
		})
	}
	_ = g.Wait()
}

// searchEngine waits for rate-limiter clearance, then runs every query
// variant against the adapter, reporting each outcome to the limiter.
func (o *Orchestrator) searchEngine(ctx context.Context, desc engines.Descriptor, query *core.Query, strategy recall.Strategy) ([]engines.Result, error) {
	if err := o.limiter.WaitIfNeeded(ctx, desc.Code); err != nil {
		return nil, err
	}

	var all []engines.Result
	for _, variant := range buildVariants(query, strategy) {
		results, err := desc.Adapter.Search(ctx, variant, desc.MaxResults)
		if err != nil {
			o.limiter.ReportError(desc.Code)
			return nil, err
		}
		o.limiter.ReportSuccess(desc.Code)
		all = append(all, results...)
	}
	return all, nil
}

// buildVariants derives the round's query variants: the expanded web query,
// operator rewrites at level 2 and up, and the strategy's extra patterns.
func buildVariants(query *core.Query, strategy recall.Strategy) []string {
	variants := []string{query.Web}
	seen := map[string]struct{}{query.Web: {}}

	add := func(v string) {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			variants = append(variants, v)
		}
	}

	if query.Level >= 2 {
		if strings.Contains(query.Web, "filetype:") {
			add(strings.ReplaceAll(query.Web, "filetype:", "inurl:"))
		}
		if strings.Contains(query.Web, "site:") {
			add(strings.ReplaceAll(query.Web, "site:", "inurl:"))
		}
	}

	for _, pattern := range strategy.ExtraPatterns {
		add(query.Web + " " + pattern)
	}

	return variants
}

// selectEngines picks the round's engine codes. Router hints take precedence
// when present; otherwise the strategy's selection decides between primary
// and all registered engines.
func (o *Orchestrator) selectEngines(strategy recall.Strategy, routing queryops.Routing) []string {
	if routing.HasRouting {
		var hinted []string
		for _, code := range routing.Engines.All() {
			if _, ok := o.registry.Get(code); ok {
				hinted = append(hinted, code)
			}
		}
		if len(hinted) > 0 {
			return hinted
		}
	}

	if strategy.EngineSelection == recall.EnginesPrimary {
		if primary := o.registry.PrimaryCodes(); len(primary) > 0 {
			return primary
		}
	}
	return o.registry.Codes()
}

func (o *Orchestrator) pushToWriter(entries []*core.SearchResult) {
	for _, entry := range entries {
		o.writer.Enqueue(core.DocumentFromResult(entry))
	}
}

func (o *Orchestrator) emitResults(events chan<- Event, code string, data []*core.SearchResult) {
	if len(data) == 0 {
		return
	}
	events <- Event{Kind: EventResults, Results: &ResultsEvent{
		Engine: code,
		Count:  len(data),
		Data:   data,
	}}
}

func (o *Orchestrator) emitProgress(events chan<- Event, run *runState, rs *resultSet) {
	completed, total := run.progress()
	percent := 0.0
	if total > 0 {
		percent = float64(completed) / float64(total) * 100
	}
	events <- Event{Kind: EventProgress, Progress: &ProgressEvent{
		Completed:    completed,
		Total:        total,
		Percent:      percent,
		ResultsCount: rs.rawCount(),
		UniqueURLs:   rs.count(),
	}}
}

// stripAnchorToken removes the force-anchor token from a raw query.
func stripAnchorToken(raw string) (stripped string, forced bool) {
	fields := strings.Fields(raw)
	kept := make([]string, 0, len(fields))
	for _, f := range fields {
		if f == core.AnchorToken {
			forced = true
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " "), forced
}

// searchTypeFor maps detected operators to the planner's search type. The
// first matching rule in priority order wins; no operators means general.
func searchTypeFor(detected []queryops.Detected) string {
	var hasLocation, hasCorporate, hasDate, hasLanguage bool
	for _, d := range detected {
		switch {
		case d.Dimension == queryops.DimensionFormat:
			return recall.TypeFiletype
		case d.Name == "proximity":
			return recall.TypeProximity
		case d.Dimension == queryops.DimensionGeographic && d.Name != "language":
			hasLocation = true
		case d.Dimension == queryops.DimensionAddress:
			hasLocation = true
		case d.Name == "company":
			hasCorporate = true
		case d.Dimension == queryops.DimensionTemporal:
			hasDate = true
		case d.Name == "language":
			hasLanguage = true
		}
	}
	switch {
	case hasLocation:
		return recall.TypeLocation
	case hasCorporate:
		return recall.TypeCorporate
	case hasDate:
		return recall.TypeDate
	case hasLanguage:
		return recall.TypeLanguage
	default:
		return recall.TypeGeneral
	}
}
