// Package prefetch implements score-based neighbor-page loading that
// replans whenever the viewer jumps rather than advancing one page at
// a time.
//
// Grounded on archive_service_commands.rs's
// notify_page_change/request_prefetch/cancel_current shape (the
// direction-aware "current page list plus a jump direction" inputs are
// carried over directly). Jobs are submitted through internal/scheduler
// so prefetch naturally competes with urgent and current-page work at
// a lower priority.
package prefetch

import (
	"context"
	"sort"

	"github.com/neoview/album-core/internal/scheduler"
)

// Direction matches the original's signed direction argument: positive
// means forward, negative means backward, zero means "no directional
// bias" (e.g. a jump to an arbitrary page).
type Direction int

const (
	DirectionBackward Direction = -1
	DirectionNone     Direction = 0
	DirectionForward  Direction = 1
)

// Candidate is one page eligible for prefetch, with its computed score.
type Candidate struct {
	PageIndex int
	Distance  int
	Score     float64
}

// LoadFunc loads the bytes for a page; provided by the caller (book
// package) so this package stays decoupled from archive/index types.
type LoadFunc func(ctx context.Context, pageIndex int) (scheduler.Output, error)

// Engine scores and submits prefetch jobs for pages near the current
// read position.
type Engine struct {
	sched  *scheduler.Scheduler
	ahead  int
	behind int

	lastBookPath string
	lastPage     int
	lastDir      Direction
}

// New creates a PrefetchEngine submitting jobs to sched, looking ahead
// pages in the read direction (forward when there is no direction) and
// behind pages opposite it.
func New(sched *scheduler.Scheduler, ahead, behind int) *Engine {
	return &Engine{sched: sched, ahead: ahead, behind: behind}
}

// score ranks closer pages higher, and pages in the current reading
// direction higher than pages behind it at the same distance.
func score(distance int, dir Direction, isAhead bool) float64 {
	base := 1.0 / float64(distance+1)
	if dir != DirectionNone {
		if isAhead {
			base *= 1.5
		} else {
			base *= 0.75
		}
	}
	return base
}

// Plan computes the ranked set of pages to prefetch around currentPage
// out of totalPages, given the last known read direction.
func Plan(currentPage, totalPages int, dir Direction, ahead, behind int) []Candidate {
	var candidates []Candidate

	step := 1
	if dir == DirectionBackward {
		step = -1
	}
	for d := 1; d <= ahead; d++ {
		idx := currentPage + step*d
		if idx < 0 || idx >= totalPages {
			continue
		}
		candidates = append(candidates, Candidate{PageIndex: idx, Distance: d, Score: score(d, dir, true)})
	}
	for d := 1; d <= behind; d++ {
		idx := currentPage - step*d
		if idx < 0 || idx >= totalPages {
			continue
		}
		candidates = append(candidates, Candidate{PageIndex: idx, Distance: d, Score: score(d, dir, false)})
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	return candidates
}

// RequestPrefetch submits prefetch jobs for the neighborhood of
// pageIndex within bookPath. If the read position jumped (a
// non-adjacent page change, or a direction reversal) any previously
// queued prefetch jobs for this book are cancelled first, replanning
// from scratch rather than letting a stale plan linger alongside the
// new one.
func (e *Engine) RequestPrefetch(bookPath string, pageIndex, totalPages int, dir Direction, load LoadFunc) {
	jumped := e.lastBookPath != bookPath || abs(pageIndex-e.lastPage) > 1 || (dir != DirectionNone && dir != e.lastDir && e.lastDir != DirectionNone)
	if jumped {
		e.sched.CancelByPrefix("prefetch:" + bookPath + ":")
	}
	e.lastBookPath = bookPath
	e.lastPage = pageIndex
	e.lastDir = dir

	for _, c := range Plan(pageIndex, totalPages, dir, e.ahead, e.behind) {
		c := c
		key := "prefetch:" + bookPath + ":" + itoa(c.PageIndex)
		e.sched.Enqueue(scheduler.NewJob(key, scheduler.PriorityPreload, scheduler.CategoryPageContent, func(ctx context.Context) (scheduler.Output, error) {
			return load(ctx, c.PageIndex)
		}))
	}
}

// CancelCurrent cancels all outstanding prefetch jobs for bookPath.
func (e *Engine) CancelCurrent(bookPath string) {
	e.sched.CancelByPrefix("prefetch:" + bookPath + ":")
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
