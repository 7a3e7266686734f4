package stat

import (
	"container/heap"
	"time"
)

// expiryHeap is a min-heap of modifier expiry times.
// It only answers "could anything have expired by now?"; the modifier
// list stays authoritative and is pruned during recompute.
type expiryHeap []time.Duration

func (h expiryHeap) Len() int           { return len(h) }
func (h expiryHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h expiryHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *expiryHeap) Push(x any) { *h = append(*h, x.(time.Duration)) }

func (h *expiryHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// peek returns the earliest hint. Empty heap reports ok=false.
func (h expiryHeap) peek() (time.Duration, bool) {
	if len(h) == 0 {
		return 0, false
	}
	return h[0], true
}

func (h *expiryHeap) add(t time.Duration) {
	heap.Push(h, t)
}

// rebuild replaces the hints with the expiry times of the surviving timed modifiers.
func (h *expiryHeap) rebuild(mods []Modifier) {
	*h = (*h)[:0]
	for _, m := range mods {
		if !m.Permanent {
			*h = append(*h, m.ExpiresAt)
		}
	}
	heap.Init(h)
}
