package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter throttles per-engine calls and adapts its pacing from reported
// outcomes. It is the sole backpressure mechanism for engine dispatch: every
// call must await clearance first and report its outcome afterward.
// Implementations must be thread-safe for concurrent use.
type Limiter interface {
	// WaitIfNeeded blocks until the engine identified by code may issue a
	// call, or returns an error when the context ends or the engine's
	// circuit is open.
	WaitIfNeeded(ctx context.Context, code string) error

	// ReportSuccess records a successful call, decaying any backoff.
	ReportSuccess(code string)

	// ReportError records a failed call, growing the engine's delay and
	// eventually opening its circuit.
	ReportError(code string)
}

// engineState is the per-code limiter state. Decisions for one code are
// serialized by the Adaptive mutex.
type engineState struct {
	limiter          *rate.Limiter
	interval         time.Duration
	consecutiveErrs  int
	circuitOpenUntil time.Time
}

// Adaptive is the standard limiter: a lazily created token bucket per engine
// code, with exponential backoff on consecutive errors and a circuit that
// opens after too many failures in a row.
type Adaptive struct {
	mu     sync.Mutex
	states map[string]*engineState

	baseInterval time.Duration
	maxInterval  time.Duration
	burst        int
	circuitAfter int
	cooldown     time.Duration
	logger       *slog.Logger
}

var _ Limiter = (*Adaptive)(nil)

// Option configures an Adaptive limiter.
type Option func(*Adaptive)

// WithBaseInterval sets the steady-state delay between calls per engine.
// Default is 200ms.
func WithBaseInterval(d time.Duration) Option {
	return func(a *Adaptive) {
		if d > 0 {
			a.baseInterval = d
		}
	}
}

// WithBurst sets the per-engine burst allowance. Default is 2.
func WithBurst(n int) Option {
	return func(a *Adaptive) {
		if n > 0 {
			a.burst = n
		}
	}
}

// WithCooldown sets how long an opened circuit stays open. Default is 30s.
func WithCooldown(d time.Duration) Option {
	return func(a *Adaptive) {
		if d > 0 {
			a.cooldown = d
		}
	}
}

// WithCircuitAfter sets how many consecutive errors open the circuit.
// Default is 5.
func WithCircuitAfter(n int) Option {
	return func(a *Adaptive) {
		if n > 0 {
			a.circuitAfter = n
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Adaptive) {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger
	}
}

// NewAdaptive creates an adaptive per-engine rate limiter.
func NewAdaptive(opts ...Option) *Adaptive {
	a := &Adaptive{
		states:       make(map[string]*engineState),
		baseInterval: 200 * time.Millisecond,
		maxInterval:  30 * time.Second,
		burst:        2,
		circuitAfter: 5,
		cooldown:     30 * time.Second,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Adaptive) state(code string) *engineState {
	s, ok := a.states[code]
	if !ok {
		s = &engineState{
			limiter:  rate.NewLimiter(rate.Every(a.baseInterval), a.burst),
			interval: a.baseInterval,
		}
		a.states[code] = s
	}
	return s
}

// WaitIfNeeded blocks until the engine may proceed. The token wait happens
// outside the mutex so one slow engine never stalls the others.
func (a *Adaptive) WaitIfNeeded(ctx context.Context, code string) error {
	a.mu.Lock()
	s := a.state(code)
	if !s.circuitOpenUntil.IsZero() {
		if time.Now().Before(s.circuitOpenUntil) {
			a.mu.Unlock()
			return ErrCircuitOpen
		}
		// Cooldown elapsed; close the circuit and probe again.
		s.circuitOpenUntil = time.Time{}
		s.consecutiveErrs = 0
	}
	limiter := s.limiter
	a.mu.Unlock()

	return limiter.Wait(ctx)
}

// ReportSuccess decays the engine's delay back toward the base interval.
func (a *Adaptive) ReportSuccess(code string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := a.state(code)
	s.consecutiveErrs = 0
	if s.interval > a.baseInterval {
		s.interval /= 2
		if s.interval < a.baseInterval {
			s.interval = a.baseInterval
		}
		s.limiter.SetLimit(rate.Every(s.interval))
	}
}

// ReportError doubles the engine's delay and opens the circuit after too
// many consecutive failures.
func (a *Adaptive) ReportError(code string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := a.state(code)
	s.consecutiveErrs++
	s.interval *= 2
	if s.interval > a.maxInterval {
		s.interval = a.maxInterval
	}
	s.limiter.SetLimit(rate.Every(s.interval))

	if s.consecutiveErrs >= a.circuitAfter {
		s.circuitOpenUntil = time.Now().Add(a.cooldown)
		a.logger.Warn("engine circuit opened",
			"engine", code,
			"consecutiveErrors", s.consecutiveErrs,
			"cooldown", a.cooldown)
	}
}
