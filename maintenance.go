package routegraph

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// AutoLearnOptions contains options for the background adaptation loop.
type AutoLearnOptions struct {
	// Interval is the pacing between adaptation passes.
	Interval time.Duration

	// MinSearches is the number of new searches that must have been recorded
	// since the last pass before another pass runs. A pass with nothing new
	// to consume is skipped.
	MinSearches uint64
}

// DefaultAutoLearnOptions holds the default auto-learn configuration.
var DefaultAutoLearnOptions = AutoLearnOptions{
	Interval:    30 * time.Second,
	MinSearches: 10,
}

// StartAutoLearn runs adaptation passes in the background, paced by a rate
// limiter. A weighted semaphore keeps passes single-flight even if StartAutoLearn
// is called more than once on the same index.
//
// The returned stop function cancels the loop and blocks until it has exited.
// The loop also exits when ctx is canceled.
func (idx *Index[T]) StartAutoLearn(ctx context.Context, optFns ...func(o *AutoLearnOptions)) (stop func()) {
	opts := DefaultAutoLearnOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultAutoLearnOptions.Interval
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	limiter := rate.NewLimiter(rate.Every(opts.Interval), 1)

	// Burn the initial token so the first pass waits a full interval.
	limiter.Allow()

	go func() {
		defer close(done)

		for {
			if err := limiter.Wait(ctx); err != nil {
				return
			}

			if idx.pendingSearches() < opts.MinSearches {
				continue
			}

			if !idx.learnGate.TryAcquire(1) {
				continue
			}
			idx.Learn(ctx)
			idx.learnGate.Release(1)
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

func newLearnGate() *semaphore.Weighted {
	return semaphore.NewWeighted(1)
}
