// Copyright 2025 Dragnet Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dragnet

import (
	"context"
	"log/slog"

	"github.com/dragnet-io/dragnet/ai"
	"github.com/dragnet-io/dragnet/ai/openai"
	"github.com/dragnet-io/dragnet/engines"
	"github.com/dragnet-io/dragnet/expand"
	"github.com/dragnet-io/dragnet/fanout"
	"github.com/dragnet-io/dragnet/indexer"
	"github.com/dragnet-io/dragnet/phrase"
	"github.com/dragnet-io/dragnet/ratelimit"
	"github.com/dragnet-io/dragnet/recall"
	"github.com/dragnet-io/dragnet/storage"
	"github.com/dragnet-io/dragnet/storage/badger"
	"github.com/dragnet-io/dragnet/storage/sqlite"
)

// Client bundles the storage router, engine registry, planner, and optional
// AI services behind one handle. It is the composition root used by the CLI.
type Client struct {
	primary   *badger.Backend
	secondary storage.Backend
	router    *storage.Router
	registry  *engines.Registry
	planner   *recall.Planner
	limiter   ratelimit.Limiter
	provider  ai.Provider
	logger    *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*clientOptions)

type clientOptions struct {
	inMemory        bool
	sqlitePath      string
	useSQLite       bool
	preferSecondary bool
	aiConfig        *ai.Config
	recallConfig    recall.Config
	descriptors     []engines.Descriptor
}

// WithInMemory opens the primary backend in memory, for tests and dry runs.
func WithInMemory() ClientOption {
	return func(o *clientOptions) {
		o.inMemory = true
	}
}

// WithSQLite attaches a sqlite secondary backend at path. An empty path opens
// an in-memory database.
func WithSQLite(path string) ClientOption {
	return func(o *clientOptions) {
		o.sqlitePath = path
		o.useSQLite = true
	}
}

// WithPreferSecondary routes reads and writes to the secondary backend first.
func WithPreferSecondary() ClientOption {
	return func(o *clientOptions) {
		o.preferSecondary = true
	}
}

// WithAIConfig enables embedding and categorization through an
// OpenAI-compatible host. Without it the client falls back to the heuristic
// categorizer and indexes documents without vectors.
func WithAIConfig(config *ai.Config) ClientOption {
	return func(o *clientOptions) {
		o.aiConfig = config
	}
}

// WithRecallConfig overrides the planner configuration.
func WithRecallConfig(cfg recall.Config) ClientOption {
	return func(o *clientOptions) {
		o.recallConfig = cfg
	}
}

// WithEngines registers the search engine adapters available to searchers.
func WithEngines(descriptors ...engines.Descriptor) ClientOption {
	return func(o *clientOptions) {
		o.descriptors = append(o.descriptors, descriptors...)
	}
}

// NewClient opens the backends at filePath and assembles the client.
func NewClient(filePath string, opts ...ClientOption) (*Client, error) {
	options := &clientOptions{
		recallConfig: recall.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	primary, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	var secondary storage.Backend
	if options.useSQLite {
		sec, err := sqlite.OpenBackend(options.sqlitePath)
		if err != nil {
			primary.Close()
			return nil, err
		}
		secondary = sec
	}

	var routerOpts []storage.RouterOption
	if options.preferSecondary {
		routerOpts = append(routerOpts, storage.WithPreferSecondary())
	}
	router, err := storage.NewRouter(primary, secondary, routerOpts...)
	if err != nil {
		if secondary != nil {
			secondary.Close()
		}
		primary.Close()
		return nil, err
	}

	registry, err := engines.NewRegistry(options.descriptors...)
	if err != nil {
		router.Close()
		return nil, err
	}

	planner, err := recall.NewPlanner(options.recallConfig)
	if err != nil {
		router.Close()
		return nil, err
	}

	var provider ai.Provider
	if options.aiConfig != nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			router.Close()
			return nil, err
		}
	}

	return &Client{
		primary:   primary,
		secondary: secondary,
		router:    router,
		registry:  registry,
		planner:   planner,
		limiter:   ratelimit.NewAdaptive(),
		provider:  provider,
		logger:    slog.Default(),
	}, nil
}

// Close releases the AI provider and both storage backends.
func (c *Client) Close() error {
	if c.provider != nil {
		if err := c.provider.Close(); err != nil {
			c.logger.Error("error closing AI provider", "err", err)
		}
	}
	if err := c.router.Close(); err != nil {
		c.logger.Error("error closing storage backends", "err", err)
		return err
	}
	return nil
}

// Router exposes the storage router for direct document operations.
func (c *Client) Router() *storage.Router {
	return c.router
}

// Registry exposes the engine registry.
func (c *Client) Registry() *engines.Registry {
	return c.registry
}

// NewSearcher assembles a streaming orchestrator with a fresh index writer.
// The orchestrator stops the writer when its run finalizes, so build one
// searcher per run. Callers must Close the returned orchestrator.
func (c *Client) NewSearcher(opts ...fanout.Option) (*fanout.Orchestrator, error) {
	docSink, err := indexer.NewDocumentSink(c.router)
	if err != nil {
		return nil, err
	}
	sinks := []indexer.Sink{docSink}
	if c.provider != nil {
		vecSink, err := indexer.NewVectorSink(c.router, c.provider.Embedder())
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, vecSink)
	}

	writer, err := indexer.NewWriter(sinks)
	if err != nil {
		return nil, err
	}

	base := []fanout.Option{
		fanout.WithCorpus(fanout.NewRouterCorpus(c.router)),
		fanout.WithCategorizer(c.categorizer()),
	}
	return fanout.NewOrchestrator(c.registry, c.limiter, phrase.NewMatcher(),
		expand.NewExpander(), c.planner, writer, append(base, opts...)...)
}

func (c *Client) categorizer() ai.Categorizer {
	if c.provider != nil {
		return c.provider.Categorizer()
	}
	return ai.NewHeuristicCategorizer()
}

// Count returns the indexed document count, with backend failover.
func (c *Client) Count(ctx context.Context) (int64, error) {
	result, err := c.router.ExecuteWithFallback(ctx, &storage.Request{Op: storage.OpCount})
	if err != nil {
		return 0, err
	}
	return result.Count, nil
}

// ProbeHealth checks every backend and returns the refreshed health report.
func (c *Client) ProbeHealth(ctx context.Context) storage.Health {
	c.router.ProbeHealth(ctx)
	return c.router.Health()
}
