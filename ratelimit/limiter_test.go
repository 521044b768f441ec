package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitIfNeeded_AllowsWithinBurst(t *testing.T) {
	a := NewAdaptive(WithBaseInterval(time.Hour), WithBurst(2))
	ctx := context.Background()

	// Two calls fit the burst without blocking.
	done := make(chan struct{})
	go func() {
		defer close(done)
		require.NoError(t, a.WaitIfNeeded(ctx, "GO"))
		require.NoError(t, a.WaitIfNeeded(ctx, "GO"))
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("burst calls blocked unexpectedly")
	}
}

func TestWaitIfNeeded_ContextCancellation(t *testing.T) {
	a := NewAdaptive(WithBaseInterval(time.Hour), WithBurst(1))
	ctx := context.Background()

	require.NoError(t, a.WaitIfNeeded(ctx, "GO"))

	cancelled, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	err := a.WaitIfNeeded(cancelled, "GO")
	assert.Error(t, err)
}

func TestCircuitOpensAfterConsecutiveErrors(t *testing.T) {
	a := NewAdaptive(
		WithBaseInterval(time.Microsecond),
		WithCircuitAfter(3),
		WithCooldown(time.Hour),
	)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		a.ReportError("GO")
	}

	err := a.WaitIfNeeded(ctx, "GO")
	assert.ErrorIs(t, err, ErrCircuitOpen)

	// Other engines are unaffected.
	assert.NoError(t, a.WaitIfNeeded(ctx, "BI"))
}

func TestCircuitClosesAfterCooldown(t *testing.T) {
	a := NewAdaptive(
		WithBaseInterval(time.Microsecond),
		WithCircuitAfter(1),
		WithCooldown(10*time.Millisecond),
	)
	ctx := context.Background()

	a.ReportError("GO")
	assert.ErrorIs(t, a.WaitIfNeeded(ctx, "GO"), ErrCircuitOpen)

	time.Sleep(20 * time.Millisecond)
	assert.NoError(t, a.WaitIfNeeded(ctx, "GO"))
}

func TestSuccessResetsErrorCount(t *testing.T) {
	a := NewAdaptive(
		WithBaseInterval(time.Microsecond),
		WithCircuitAfter(3),
		WithCooldown(time.Hour),
	)
	ctx := context.Background()

	a.ReportError("GO")
	a.ReportError("GO")
	a.ReportSuccess("GO")
	a.ReportError("GO")
	a.ReportError("GO")

	// Only two consecutive errors since the last success: circuit stays closed.
	assert.NoError(t, a.WaitIfNeeded(ctx, "GO"))
}

func TestConcurrentAccess(t *testing.T) {
	a := NewAdaptive(WithBaseInterval(time.Microsecond), WithBurst(100))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			code := []string{"GO", "BI", "EX"}[i%3]
			for j := 0; j < 50; j++ {
				_ = a.WaitIfNeeded(ctx, code)
				if j%2 == 0 {
					a.ReportSuccess(code)
				} else {
					a.ReportError(code)
				}
			}
		}(i)
	}
	wg.Wait()
}
