package taskpool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

func TestPoolRunsAllTasks(t *testing.T) {
	p := New(context.Background())
	var count int64
	for i := 0; i < 50; i++ {
		p.Push(func(ctx context.Context) error {
			atomic.AddInt64(&count, 1)
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if count != 50 {
		t.Errorf("count = %d, want 50", count)
	}
}

func TestPoolPropagatesFirstError(t *testing.T) {
	p := New(context.Background())
	want := errors.New("boom")
	p.Push(func(ctx context.Context) error { return want })
	p.Push(func(ctx context.Context) error { return nil })
	if err := p.Wait(); !errors.Is(err, want) {
		t.Errorf("Wait() = %v, want %v", err, want)
	}
}

func TestPoolCancelsSiblingsOnError(t *testing.T) {
	p := New(context.Background())
	want := errors.New("boom")
	p.Push(func(ctx context.Context) error { return want })
	p.Push(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if err := p.Wait(); !errors.Is(err, want) {
		t.Errorf("Wait() = %v, want %v", err, want)
	}
}
