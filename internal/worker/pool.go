package worker

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Pool runs independent tasks with a bounded number of goroutines.
type Pool struct {
	workerCount int
}

// NewPool returns a pool running at most workerCount tasks at once.
// A count below 1 runs tasks one after another.
func NewPool(workerCount int) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	return &Pool{workerCount: workerCount}
}

func (p *Pool) Size() int {
	return p.workerCount
}

// Run calls task once per index in [0, n) and blocks until all have returned.
// Tasks report their own outcome; a failing task never cancels the others.
func (p *Pool) Run(ctx context.Context, n int, task func(ctx context.Context, i int)) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workerCount)

	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			task(gctx, i)
			return nil
		})
	}

	g.Wait()
}

// Map runs fn for every item and returns the outputs in input order,
// regardless of completion order.
func Map[In, Out any](ctx context.Context, p *Pool, items []In, fn func(ctx context.Context, i int, item In) Out) []Out {
	out := make([]Out, len(items))
	p.Run(ctx, len(items), func(ctx context.Context, i int) {
		out[i] = fn(ctx, i, items[i])
	})
	return out
}
