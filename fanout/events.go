package fanout

import (
	"time"

	"github.com/dragnet-io/dragnet/core"
)

// EventKind tags events on the stream returned by Stream.
type EventKind string

const (
	// EventResults carries one completed task's accepted results.
	EventResults EventKind = "results"
	// EventProgress reports running completion totals.
	EventProgress EventKind = "progress"
	// EventComplete is the single terminal event of a run.
	EventComplete EventKind = "complete"
)

// Event is one message on a run's event stream. Exactly one of the payload
// fields is set, matching Kind. Events are emitted in task completion order,
// not submission order.
type Event struct {
	Kind     EventKind
	Results  *ResultsEvent
	Progress *ProgressEvent
	Complete *CompleteEvent
}

// ResultsEvent carries the results a single task contributed.
type ResultsEvent struct {
	Engine string
	Count  int
	Data   []*core.SearchResult
}

// ProgressEvent reports completion totals after a task finishes.
type ProgressEvent struct {
	Completed    int
	Total        int
	Percent      float64
	ResultsCount int
	UniqueURLs   int
}

// EngineStat is one engine's outcome over a whole run.
type EngineStat struct {
	Code      string
	Succeeded bool
	Results   int
	Failures  int
	Elapsed   time.Duration
}

// CompleteEvent is the terminal summary of a run.
type CompleteEvent struct {
	RunID            string
	TotalResults     int
	UniqueURLs       int
	ElapsedTime      time.Duration
	EnginesSucceeded int
	EnginesFailed    int
	Rounds           int
	Stats            []EngineStat
}
