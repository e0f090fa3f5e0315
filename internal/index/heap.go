package index

import "container/heap"

// scoredHeap is a bounded min-heap of Results keyed by ascending score, with
// ties broken by descending chunk id so that, combined with a pop-and-
// reverse at the end, the final ordering is descending score / ascending
// chunk id exactly as the common contract requires.
type scoredHeap []Result

func (h scoredHeap) Len() int { return len(h) }
func (h scoredHeap) Less(i, j int) bool {
	if h[i].Score != h[j].Score {
		return h[i].Score < h[j].Score
	}
	return h[i].ChunkID > h[j].ChunkID
}
func (h scoredHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *scoredHeap) Push(x any) {
	*h = append(*h, x.(Result))
}

func (h *scoredHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// topKCollector maintains a bounded min-heap of capacity k over the results
// passed to offer, returning the final k entries sorted descending by score
// with ties broken by ascending chunk id.
type topKCollector struct {
	k int
	h scoredHeap
}

func newTopKCollector(k int) *topKCollector {
	return &topKCollector{k: k, h: make(scoredHeap, 0, k)}
}

func (c *topKCollector) offer(r Result) {
	if c.k <= 0 {
		return
	}
	if c.h.Len() < c.k {
		heap.Push(&c.h, r)
		return
	}
	if r.Score > c.h[0].Score || (r.Score == c.h[0].Score && r.ChunkID < c.h[0].ChunkID) {
		c.h[0] = r
		heap.Fix(&c.h, 0)
	}
}

func (c *topKCollector) results() []Result {
	n := c.h.Len()
	out := make([]Result, n)
	for i := n - 1; i >= 0; i-- {
		out[i] = heap.Pop(&c.h).(Result)
	}
	return out
}
