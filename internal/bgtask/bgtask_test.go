package bgtask

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

func TestRunAllRespectsConcurrencyCeiling(t *testing.T) {
	e := New(2)
	var current, maxSeen int32

	fns := make([]func(ctx context.Context) error, 10)
	for i := range fns {
		fns[i] = func(ctx context.Context) error {
			n := atomic.AddInt32(&current, 1)
			for {
				seen := atomic.LoadInt32(&maxSeen)
				if n <= seen || atomic.CompareAndSwapInt32(&maxSeen, seen, n) {
					break
				}
			}
			atomic.AddInt32(&current, -1)
			return nil
		}
	}

	if err := e.RunAll(context.Background(), fns); err != nil {
		t.Fatal(err)
	}
	if maxSeen > 2 {
		t.Fatalf("expected at most 2 concurrent tasks, saw %d", maxSeen)
	}
}

func TestRunAllReturnsFirstError(t *testing.T) {
	e := New(4)
	wantErr := errors.New("boom")
	fns := []func(ctx context.Context) error{
		func(ctx context.Context) error { return nil },
		func(ctx context.Context) error { return wantErr },
	}
	if err := e.RunAll(context.Background(), fns); err == nil {
		t.Fatal("expected an error")
	}
}

func TestSubmitBlocksUntilSlotFree(t *testing.T) {
	e := New(1)
	started := make(chan struct{})
	release := make(chan struct{})

	go e.Submit(context.Background(), func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	})
	<-started

	done := make(chan struct{})
	go func() {
		e.Submit(context.Background(), func(ctx context.Context) error { return nil })
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("expected second Submit to block while the first holds the only slot")
	default:
	}
	close(release)
	<-done
}
