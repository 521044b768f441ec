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

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/urfave/cli/v2"

	"github.com/dragnet-io/dragnet"
	"github.com/dragnet-io/dragnet/ai"
	"github.com/dragnet-io/dragnet/core"
	"github.com/dragnet-io/dragnet/engines"
	"github.com/dragnet-io/dragnet/engines/mock"
	"github.com/dragnet-io/dragnet/fanout"
	"github.com/dragnet-io/dragnet/recall"
	"github.com/dragnet-io/dragnet/storage"
)

func main() {
	app := &cli.App{
		Name:  "dragnet",
		Usage: "Concurrent meta-search with a local document corpus",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "search",
				Usage:     "Run a streaming search and index the results",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "db",
						Aliases: []string{"d"},
						Usage:   "Path to BadgerDB database directory (omit for in-memory)",
					},
					&cli.StringFlag{
						Name:  "sqlite",
						Usage: "Path to a sqlite secondary database",
					},
					&cli.IntFlag{
						Name:  "level",
						Usage: "Search aggressiveness (1-3)",
						Value: 1,
					},
					&cli.StringFlag{
						Name:  "scope",
						Usage: "Search scope (web, corpus, both)",
						Value: "corpus",
					},
					&cli.StringFlag{
						Name:  "mode",
						Usage: "Recall mode (maximum, balanced, precision)",
						Value: "balanced",
					},
					&cli.IntFlag{
						Name:  "max-rounds",
						Usage: "Maximum search rounds",
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "OpenAI-compatible service host URL (enables embeddings and categorization)",
					},
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name",
					},
					&cli.StringFlag{
						Name:  "categorizer-model",
						Usage: "Categorizer model name",
					},
					&cli.BoolFlag{
						Name:  "mock-engines",
						Usage: "Register deterministic synthetic engines (web scope without real adapters)",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Emit events as JSON lines",
					},
				},
			},
			{
				Name:   "probe",
				Usage:  "Probe backend health and print the router state",
				Action: probeCommand,
				Flags:  storageFlags(),
			},
			{
				Name:   "count",
				Usage:  "Print the indexed document count",
				Action: countCommand,
				Flags:  storageFlags(),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func storageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to BadgerDB database directory",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "sqlite",
			Usage: "Path to a sqlite secondary database",
		},
	}
}

func searchCommand(c *cli.Context) error {
	ctx := context.Background()

	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("a search query is required")
	}

	scope, err := core.ParseScope(c.String("scope"))
	if err != nil {
		return err
	}

	mode, err := recall.ParseMode(c.String("mode"))
	if err != nil {
		return err
	}
	recallConfig := recall.DefaultConfig()
	recallConfig.Mode = mode
	if rounds := c.Int("max-rounds"); rounds > 0 {
		recallConfig.MaxRounds = rounds
	}

	opts := []dragnet.ClientOption{dragnet.WithRecallConfig(recallConfig)}

	dbPath := c.String("db")
	if dbPath == "" {
		opts = append(opts, dragnet.WithInMemory())
	}
	if c.String("sqlite") != "" {
		opts = append(opts, dragnet.WithSQLite(c.String("sqlite")))
	}
	if host := c.String("embedding-host"); host != "" {
		aiOpts := []ai.ConfigOption{ai.WithHost(host)}
		if model := c.String("embedding-model"); model != "" {
			aiOpts = append(aiOpts, ai.WithEmbeddingModel(model))
		}
		if model := c.String("categorizer-model"); model != "" {
			aiOpts = append(aiOpts, ai.WithCategorizerModel(model))
		}
		aiConfig := ai.NewConfig(aiOpts...)
		if err := aiConfig.Validate(); err != nil {
			return fmt.Errorf("invalid AI configuration: %w", err)
		}
		opts = append(opts, dragnet.WithAIConfig(aiConfig))
	}

	if c.Bool("mock-engines") {
		opts = append(opts, dragnet.WithEngines(mockDescriptors()...))
	} else if scope != core.ScopeCorpus {
		return fmt.Errorf("web scope needs engine adapters: pass --mock-engines or use --scope corpus")
	}

	client, err := dragnet.NewClient(dbPath, opts...)
	if err != nil {
		return fmt.Errorf("failed to open client: %w", err)
	}
	defer client.Close()

	searcher, err := client.NewSearcher()
	if err != nil {
		return fmt.Errorf("failed to assemble searcher: %w", err)
	}
	defer searcher.Close()

	events, err := searcher.Stream(ctx, query, c.Int("level"), scope)
	if err != nil {
		return err
	}

	if c.Bool("json") {
		return printJSON(events)
	}
	return printText(events)
}

func printJSON(events <-chan fanout.Event) error {
	enc := gojson.NewEncoder(os.Stdout)
	for ev := range events {
		if err := enc.Encode(ev); err != nil {
			return err
		}
	}
	return nil
}

func printText(events <-chan fanout.Event) error {
	for ev := range events {
		switch ev.Kind {
		case fanout.EventResults:
			for _, r := range ev.Results.Data {
				fmt.Printf("[%s] %s\n    %s\n", strings.Join(r.FoundBy, ","), r.Title, r.URL)
			}
		case fanout.EventProgress:
			fmt.Fprintf(os.Stderr, "progress: %d/%d engines, %d unique results\n",
				ev.Progress.Completed, ev.Progress.Total, ev.Progress.UniqueURLs)
		case fanout.EventComplete:
			done := ev.Complete
			fmt.Fprintf(os.Stderr, "\nrun %s finished in %s: %d unique of %d raw results, %d engines ok, %d failed, %d rounds\n",
				done.RunID, done.ElapsedTime.Round(time.Millisecond), done.UniqueURLs, done.TotalResults,
				done.EnginesSucceeded, done.EnginesFailed, done.Rounds)
		}
	}
	return nil
}

func probeCommand(c *cli.Context) error {
	client, err := openClient(c)
	if err != nil {
		return err
	}
	defer client.Close()

	health := client.ProbeHealth(context.Background())
	printBackendHealth(health.Primary)
	printBackendHealth(health.Secondary)
	fmt.Printf("fallbacks: %d\ndual-index failures: %d\n", health.Fallbacks, health.DualIndexFailures)
	return nil
}

func printBackendHealth(h *storage.BackendHealth) {
	if h == nil {
		return
	}
	status := "available"
	if !h.Available {
		status = "unavailable"
	}
	fmt.Printf("%s: %s (%d calls, %d failures)\n", h.Name, status, h.Calls, h.Failures)
}

func countCommand(c *cli.Context) error {
	client, err := openClient(c)
	if err != nil {
		return err
	}
	defer client.Close()

	count, err := client.Count(context.Background())
	if err != nil {
		return fmt.Errorf("count failed: %w", err)
	}
	fmt.Println(count)
	return nil
}

func openClient(c *cli.Context) (*dragnet.Client, error) {
	var opts []dragnet.ClientOption
	if c.String("sqlite") != "" {
		opts = append(opts, dragnet.WithSQLite(c.String("sqlite")))
	}
	client, err := dragnet.NewClient(c.String("db"), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open client: %w", err)
	}
	return client, nil
}

// mockDescriptors registers the synthetic engines used for dry runs.
func mockDescriptors() []engines.Descriptor {
	return []engines.Descriptor{
		{Code: core.SourceGoogle, Primary: true, Adapter: mock.NewAdapter(core.SourceGoogle)},
		{Code: core.SourceBing, Primary: true, Adapter: mock.NewAdapter(core.SourceBing)},
		{Code: core.SourceExa, Primary: true, Adapter: mock.NewAdapter(core.SourceExa)},
		{Code: core.SourceBrave, Adapter: mock.NewAdapter(core.SourceBrave)},
		{Code: core.SourceDuck, Adapter: mock.NewAdapter(core.SourceDuck)},
	}
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
