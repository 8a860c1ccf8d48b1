// Package taskpool provides the bounded fork-join worker pool the light
// tree builder uses to spread independent work across goroutines without
// spawning one goroutine per task. DiagSplit (package subd) runs on a
// single goroutine and does not use it.
package taskpool

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Pool runs tasks with bounded concurrency and first-error-wins
// cancellation: once one task returns an error, Wait returns that error
// and any task that checks ctx.Err() can stop early.
type Pool struct {
	group *errgroup.Group
	ctx   context.Context
}

// New returns a Pool sized to leave one OS thread free for the caller,
// matching the concurrency budget the engine reserves for coordination
// and I/O rather than recursive split/build work. GOMAXPROCS(0)-1 is
// clamped to at least 1.
func New(ctx context.Context) *Pool {
	workers := runtime.GOMAXPROCS(0) - 1
	if workers < 1 {
		workers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	return &Pool{group: g, ctx: gctx}
}

// Context returns the pool's context, cancelled once any pushed task
// returns an error.
func (p *Pool) Context() context.Context { return p.ctx }

// Push schedules fn to run, blocking only if the pool is already at its
// concurrency limit.
func (p *Pool) Push(fn func(ctx context.Context) error) {
	p.group.Go(func() error { return fn(p.ctx) })
}

// Wait blocks until every pushed task has returned, and returns the
// first non-nil error any of them produced.
func (p *Pool) Wait() error {
	return p.group.Wait()
}
