// Package sender implements the per-channel send workers described in
// §4.4: morning prompt/reminder, evening prompt/reminder, and custom
// reminder delivery, each consuming one Redis-backed queue with a bounded
// pool of goroutines.
package sender

import (
	"context"
	"time"

	"github.com/sourcegraph/conc"
	"go.uber.org/zap"

	"github.com/aliskhannn/plannerbot/internal/render"
	"github.com/aliskhannn/plannerbot/internal/queue"
)

// Gateway is the capability a sender needs from the transport layer.
type Gateway interface {
	Send(chatID int64, msg render.Message) error
}

const (
	maxRetries = 3
	popTimeout = 5 * time.Second
)

// backoffAfter returns the exponential retry delay for a given 0-based
// attempt count, per §4.4: 2^(attempt+1) minutes.
func backoffAfter(attempt int) time.Duration {
	return time.Duration(1<<(attempt+1)) * time.Minute
}

// runWorkers starts n goroutines, each blocking on q.Pop(kind) in a loop
// and calling handle for every job received, until ctx is cancelled.
func runWorkers(ctx context.Context, n int, kind queue.Kind, q *queue.Queue, logger *zap.Logger, handle func(context.Context, queue.Job)) {
	var wg conc.WaitGroup
	for i := 0; i < n; i++ {
		wg.Go(func() {
			for ctx.Err() == nil {
				job, ok, err := q.Pop(ctx, kind, popTimeout)
				if err != nil {
					logger.Error("queue pop failed", zap.String("kind", string(kind)), zap.Error(err))
					continue
				}
				if !ok {
					continue
				}
				handle(ctx, job)
			}
		})
	}
	wg.Wait()
}
