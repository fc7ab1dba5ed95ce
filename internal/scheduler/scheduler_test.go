package scheduler

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func dummyExecutor(out Output) Executor {
	return func(ctx context.Context) (Output, error) {
		return out, nil
	}
}

func TestPriorityOrder(t *testing.T) {
	s := New()
	s.Enqueue(NewJob("low", PriorityThumbnail, CategoryThumbnail, dummyExecutor(Output{})))
	s.Enqueue(NewJob("mid", PriorityPreload, CategoryPageContent, dummyExecutor(Output{})))
	s.Enqueue(NewJob("high", PriorityCurrentPage, CategoryPageContent, dummyExecutor(Output{})))

	job, _, ok := s.tryDequeue(PriorityThumbnail)
	if !ok || job.Key != "high" {
		t.Fatalf("expected high first, got %+v ok=%v", job, ok)
	}
	job, _, ok = s.tryDequeue(PriorityThumbnail)
	if !ok || job.Key != "mid" {
		t.Fatalf("expected mid second, got %+v ok=%v", job, ok)
	}
	job, _, ok = s.tryDequeue(PriorityThumbnail)
	if !ok || job.Key != "low" {
		t.Fatalf("expected low third, got %+v ok=%v", job, ok)
	}
}

func TestFIFOTiebreakWithinSamePriority(t *testing.T) {
	s := New()
	s.Enqueue(NewJob("first", PriorityPreload, CategoryPageContent, dummyExecutor(Output{})))
	s.Enqueue(NewJob("second", PriorityPreload, CategoryPageContent, dummyExecutor(Output{})))

	job, _, _ := s.tryDequeue(PriorityThumbnail)
	if job.Key != "first" {
		t.Fatalf("expected FIFO order, got %s first", job.Key)
	}
}

func TestEnqueueSameKeyCancelsOld(t *testing.T) {
	s := New()
	ctx1 := s.Enqueue(NewJob("same", PriorityCurrentPage, CategoryPageContent, dummyExecutor(Output{})))
	ctx2 := s.Enqueue(NewJob("same", PriorityCurrentPage, CategoryPageContent, dummyExecutor(Output{})))

	if ctx1.Err() == nil {
		t.Fatal("expected old job's context to be cancelled")
	}
	if ctx2.Err() != nil {
		t.Fatal("expected new job's context to remain live")
	}
}

func TestPrimaryWorkerSkipsThumbnailJobs(t *testing.T) {
	s := New()
	s.Enqueue(NewJob("thumb", PriorityThumbnail, CategoryThumbnail, dummyExecutor(Output{})))

	if _, _, ok := s.tryDequeue(PriorityPreload); ok {
		t.Fatal("expected a thumbnail-priority job to be invisible to a Preload-floor dequeue")
	}
}

func TestCancelByPrefixCancelsMatchingJobsOnly(t *testing.T) {
	s := New()
	ctxA := s.Enqueue(NewJob("page:book.zip:1", PriorityCurrentPage, CategoryPageContent, dummyExecutor(Output{})))
	ctxB := s.Enqueue(NewJob("page:other.zip:1", PriorityCurrentPage, CategoryPageContent, dummyExecutor(Output{})))

	s.CancelByPrefix("page:book.zip:")

	if ctxA.Err() == nil {
		t.Fatal("expected book.zip job to be cancelled")
	}
	if ctxB.Err() != nil {
		t.Fatal("expected other.zip job to survive")
	}
}

func TestPoolExecutesJobsAndPublishesEvents(t *testing.T) {
	p := NewPool(1, 1)
	defer p.Shutdown()

	p.Scheduler.Enqueue(NewJob("k", PriorityCurrentPage, CategoryPageContent, dummyExecutor(Output{MimeType: "image/jpeg"})))

	select {
	case ev := <-p.Events:
		if ev.Key != "k" || ev.Output.MimeType != "image/jpeg" {
			t.Fatalf("unexpected event %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for job completion event")
	}
}

func TestBurstEnqueueFansOutAcrossWorkers(t *testing.T) {
	p := NewPool(4, 0)
	defer p.Shutdown()

	const n = 20
	slow := func(ctx context.Context) (Output, error) {
		time.Sleep(30 * time.Millisecond)
		return Output{}, nil
	}
	for i := 0; i < n; i++ {
		p.Scheduler.Enqueue(NewJob(fmt.Sprintf("burst:%d", i), PriorityPreload, CategoryPageContent, slow))
	}

	seen := make(map[int]bool)
	for i := 0; i < n; i++ {
		select {
		case ev := <-p.Events:
			seen[ev.WorkerID] = true
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for completion event %d/%d", i+1, n)
		}
	}

	if len(seen) < 2 {
		t.Fatalf("expected a burst to fan out across more than one worker, only saw worker IDs %v", seen)
	}
}

func TestCancelledJobSurfacesAsCancelledEvent(t *testing.T) {
	p := NewPool(1, 0)
	defer p.Shutdown()

	started := make(chan struct{})
	blocking := func(ctx context.Context) (Output, error) {
		close(started)
		<-ctx.Done()
		return Output{}, ctx.Err()
	}
	p.Scheduler.Enqueue(NewJob("blocker", PriorityUrgent, CategoryPageContent, blocking))

	<-started
	p.Scheduler.CancelAll()

	select {
	case ev := <-p.Events:
		if !ev.Cancelled {
			t.Fatalf("expected cancelled event, got %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for cancellation event")
	}
}
