package prefetch

import (
	"context"
	"testing"
	"time"

	"github.com/neoview/album-core/internal/scheduler"
)

func TestPlanScoresCloserPagesHigher(t *testing.T) {
	candidates := Plan(10, 100, DirectionForward, 3, 1)
	if len(candidates) == 0 {
		t.Fatal("expected candidates")
	}
	for i := 1; i < len(candidates); i++ {
		if candidates[i].Score > candidates[i-1].Score {
			t.Fatalf("expected descending score order, got %+v then %+v", candidates[i-1], candidates[i])
		}
	}
}

func TestPlanPrefersAheadOverBehindAtSameDistance(t *testing.T) {
	candidates := Plan(10, 100, DirectionForward, 1, 1)
	var ahead, behind Candidate
	for _, c := range candidates {
		if c.PageIndex == 11 {
			ahead = c
		}
		if c.PageIndex == 9 {
			behind = c
		}
	}
	if ahead.Score <= behind.Score {
		t.Fatalf("expected ahead page to outscore behind page at equal distance: %+v vs %+v", ahead, behind)
	}
}

func TestPlanClampsToBookBounds(t *testing.T) {
	candidates := Plan(0, 5, DirectionForward, 3, 3)
	for _, c := range candidates {
		if c.PageIndex < 0 || c.PageIndex >= 5 {
			t.Fatalf("candidate out of bounds: %+v", c)
		}
	}
}

func TestRequestPrefetchReplansOnJump(t *testing.T) {
	sched := scheduler.New()
	defer sched.Close()
	e := New(sched, 2, 1)

	load := func(ctx context.Context, pageIndex int) (scheduler.Output, error) {
		<-ctx.Done()
		return scheduler.Output{}, ctx.Err()
	}

	e.RequestPrefetch("book.zip", 10, 100, DirectionForward, load)
	if sched.Stats().ActiveCount == 0 {
		t.Fatal("expected jobs queued after first request")
	}

	e.RequestPrefetch("book.zip", 90, 100, DirectionForward, load)

	time.Sleep(10 * time.Millisecond)
	if sched.HasJob("prefetch:book.zip:11") {
		t.Fatal("expected a jump to cancel stale prefetch jobs from the old position")
	}
}
