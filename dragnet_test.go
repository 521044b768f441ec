package dragnet

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dragnet-io/dragnet/core"
	"github.com/dragnet-io/dragnet/engines"
	"github.com/dragnet-io/dragnet/engines/mock"
	"github.com/dragnet-io/dragnet/fanout"
	"github.com/dragnet-io/dragnet/recall"
)

func TestNewClient(t *testing.T) {
	t.Run("create new client", func(t *testing.T) {
		tmpDir := filepath.Join(t.TempDir(), "test_db")
		client, err := NewClient(tmpDir)
		require.NoError(t, err)
		require.NotNil(t, client)
		defer client.Close()

		assert.NotNil(t, client.Router())
		assert.NotNil(t, client.Registry())
		assert.NotNil(t, client.planner)
		assert.NotNil(t, client.logger)
		assert.Nil(t, client.provider)
	})

	t.Run("error with invalid path", func(t *testing.T) {
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		err := os.WriteFile(tmpFile, []byte("test"), 0644)
		require.NoError(t, err)

		client, err := NewClient(tmpFile)
		assert.Error(t, err)
		assert.Nil(t, client)
	})
}

func TestClient_Close(t *testing.T) {
	client, err := NewClient("", WithInMemory(), WithSQLite(""))
	require.NoError(t, err)
	require.NotNil(t, client)

	err = client.Close()
	assert.NoError(t, err)
}

func TestClient_CountAndHealth(t *testing.T) {
	client, err := NewClient("", WithInMemory(), WithSQLite(""))
	require.NoError(t, err)
	defer client.Close()

	count, err := client.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	health := client.ProbeHealth(context.Background())
	require.NotNil(t, health.Primary)
	require.NotNil(t, health.Secondary)
	assert.True(t, health.Primary.Available)
	assert.True(t, health.Secondary.Available)
}

func TestClient_SearchIndexesIntoCorpus(t *testing.T) {
	results := []engines.Result{
		{
			URL:     "https://alpha.example.com/solar",
			Title:   "County approved the solar farm",
			Snippet: "Construction begins next spring season",
		},
		{
			URL:     "https://beta.example.com/wind",
			Title:   "Wind project cleared final review",
			Snippet: "Turbine deliveries scheduled for autumn",
		},
	}

	recallConfig := recall.DefaultConfig()
	recallConfig.MaxRounds = 1

	client, err := NewClient("",
		WithInMemory(),
		WithRecallConfig(recallConfig),
		WithEngines(engines.Descriptor{
			Code:    core.SourceGoogle,
			Primary: true,
			Adapter: mock.NewFixedAdapter(core.SourceGoogle, results),
		}))
	require.NoError(t, err)
	defer client.Close()

	searcher, err := client.NewSearcher()
	require.NoError(t, err)
	defer searcher.Close()

	events, err := searcher.Stream(context.Background(), "renewable energy permits", 1, core.ScopeWeb)
	require.NoError(t, err)
	complete := drainForComplete(t, events)
	assert.Equal(t, 2, complete.UniqueURLs)
	assert.Equal(t, 1, complete.EnginesSucceeded)

	count, err := client.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// The indexed documents are now searchable through the corpus scope.
	corpusSearcher, err := client.NewSearcher()
	require.NoError(t, err)
	defer corpusSearcher.Close()

	events, err = corpusSearcher.Stream(context.Background(), "approved", 1, core.ScopeCorpus)
	require.NoError(t, err)

	var corpusHits []*core.SearchResult
	var done *fanout.CompleteEvent
	timeout := time.After(10 * time.Second)
	for done == nil {
		select {
		case ev, ok := <-events:
			require.True(t, ok, "stream closed without a complete event")
			switch ev.Kind {
			case fanout.EventResults:
				if ev.Results.Engine == core.SourceCorpus {
					corpusHits = append(corpusHits, ev.Results.Data...)
				}
			case fanout.EventComplete:
				done = ev.Complete
			}
		case <-timeout:
			t.Fatal("event stream did not complete in time")
		}
	}

	require.Len(t, corpusHits, 1)
	assert.Equal(t, "https://alpha.example.com/solar", corpusHits[0].URL)
	assert.True(t, corpusHits[0].HasSource(core.SourceCorpus))
}

func drainForComplete(t *testing.T, events <-chan fanout.Event) *fanout.CompleteEvent {
	t.Helper()
	timeout := time.After(10 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			require.True(t, ok, "stream closed without a complete event")
			if ev.Kind == fanout.EventComplete {
				return ev.Complete
			}
		case <-timeout:
			t.Fatal("event stream did not complete in time")
			return nil
		}
	}
}
