package scheduler

import "container/heap"

// prioritizedJob wraps a Job with a monotonic sequence number so that
// equal-priority jobs dequeue in FIFO order, mirroring the original's
// PrioritizedJob Ord impl.
type prioritizedJob struct {
	job      Job
	sequence uint64
}

// jobHeap is a max-heap on (priority, then oldest sequence first).
type jobHeap []*prioritizedJob

func (h jobHeap) Len() int { return len(h) }

func (h jobHeap) Less(i, j int) bool {
	if h[i].job.Priority != h[j].job.Priority {
		return h[i].job.Priority > h[j].job.Priority
	}
	return h[i].sequence < h[j].sequence
}

func (h jobHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *jobHeap) Push(x any) {
	*h = append(*h, x.(*prioritizedJob))
}

func (h *jobHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

var _ = heap.Interface(&jobHeap{})
