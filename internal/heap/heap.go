// Package heap implements the aging min-heap each replica uses to order
// pending jobs by an effective priority that decays with logical time.
//
// The heap is a plain binary heap over a slice, using the standard
// parent=(i-1)/2, left=2i+1, right=2i+2 arithmetic. The ordering key is
// effective_priority, not priority: callers must call Recompute whenever
// logical time advances for this heap to keep the invariant current.
package heap

import "sort"

// Node is the in-memory representation of a job inside a replica's heap.
// EffectivePriority is the sole ordering key; Priority is preserved
// unmutated by aging so ChangePriority can reset the baseline.
type Node struct {
	JobID             uint64
	Priority          uint32
	EffectivePriority uint32
	EnqueueTime       uint64
}

// AgingHeap is a binary min-heap ordered by EffectivePriority, with an
// aging factor that lets Recompute decay priorities toward urgency as
// logical time elapses. Not safe for concurrent use; callers (the
// follower acceptor, the leader's own apply path) serialize access with
// their own lock.
type AgingHeap struct {
	nodes       []Node
	agingFactor float64
}

// New returns an empty aging heap with the given aging factor, a
// real-valued coefficient in [0,1] scaling how fast priority decays with
// logical time.
func New(agingFactor float64) *AgingHeap {
	return &AgingHeap{
		nodes:       make([]Node, 0, 16),
		agingFactor: agingFactor,
	}
}

// Len returns the number of live nodes in the heap.
func (h *AgingHeap) Len() int {
	return len(h.nodes)
}

func parent(i int) int { return (i - 1) / 2 }
func left(i int) int   { return 2*i + 1 }
func right(i int) int  { return 2*i + 2 }

// Insert appends a node with EffectivePriority set to priority, then sifts
// it up until the heap-order invariant holds. O(log n).
func (h *AgingHeap) Insert(priority uint32, jobID uint64, enqueueTime uint64) {
	h.nodes = append(h.nodes, Node{
		JobID:             jobID,
		Priority:          priority,
		EffectivePriority: priority,
		EnqueueTime:       enqueueTime,
	})
	h.siftUp(len(h.nodes) - 1)
}

// Peek returns a read-only copy of the root node, or false if the heap is
// empty. O(1).
func (h *AgingHeap) Peek() (Node, bool) {
	if len(h.nodes) == 0 {
		return Node{}, false
	}
	return h.nodes[0], true
}

// ExtractTop removes and returns the root node, moving the last element
// into its place and sifting down. O(log n).
func (h *AgingHeap) ExtractTop() (Node, bool) {
	if len(h.nodes) == 0 {
		return Node{}, false
	}
	top := h.nodes[0]
	last := len(h.nodes) - 1
	h.nodes[0] = h.nodes[last]
	h.nodes = h.nodes[:last]
	if len(h.nodes) > 0 {
		h.siftDown(0)
	}
	return top, true
}

// ChangePriority scans linearly for the node with the given job id and, on
// a hit, resets both Priority and EffectivePriority to newPriority before
// re-establishing heap order by sifting in whichever direction the change
// requires. Returns whether a matching node was found. O(n).
func (h *AgingHeap) ChangePriority(jobID uint64, newPriority uint32) bool {
	idx := -1
	for i := range h.nodes {
		if h.nodes[i].JobID == jobID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return false
	}

	old := h.nodes[idx].EffectivePriority
	h.nodes[idx].Priority = newPriority
	h.nodes[idx].EffectivePriority = newPriority

	if newPriority < old {
		h.siftUp(idx)
	} else if newPriority > old {
		h.siftDown(idx)
	}
	return true
}

// Recompute sets EffectivePriority = max(0, priority - floor(agingFactor *
// (now - enqueueTime))) for every node, then re-establishes the heap
// property with a bottom-up Floyd heapify. Must be called on every
// externally-visible clock tick that touches this heap. O(n).
func (h *AgingHeap) Recompute(now uint64) {
	for i := range h.nodes {
		n := &h.nodes[i]
		age := int64(0)
		if now > n.EnqueueTime {
			age = int64(now - n.EnqueueTime)
		}
		decay := int64(h.agingFactor * float64(age))
		effective := int64(n.Priority) - decay
		if effective < 0 {
			effective = 0
		}
		n.EffectivePriority = uint32(effective)
	}

	for i := len(h.nodes)/2 - 1; i >= 0; i-- {
		h.siftDown(i)
	}
}

func (h *AgingHeap) siftUp(i int) {
	for i > 0 {
		p := parent(i)
		if h.nodes[p].EffectivePriority <= h.nodes[i].EffectivePriority {
			break
		}
		h.nodes[p], h.nodes[i] = h.nodes[i], h.nodes[p]
		i = p
	}
}

// siftDown descends to the child with the strictly smaller effective
// priority; ties prefer the left child. When only one child exists it is
// necessarily the left one. Stops once no child is strictly smaller.
func (h *AgingHeap) siftDown(i int) {
	n := len(h.nodes)
	for {
		l, r := left(i), right(i)
		smallest := i

		if l < n && h.nodes[l].EffectivePriority < h.nodes[smallest].EffectivePriority {
			smallest = l
		}
		if r < n && h.nodes[r].EffectivePriority < h.nodes[smallest].EffectivePriority {
			smallest = r
		}
		if smallest == i {
			return
		}
		h.nodes[i], h.nodes[smallest] = h.nodes[smallest], h.nodes[i]
		i = smallest
	}
}

// Snapshot returns a defensive copy of the heap's nodes sorted by
// EffectivePriority, for read-only inspection (e.g. a batch dequeue path
// upstream of ExtractTop). It does not mutate heap order.
func (h *AgingHeap) Snapshot() []Node {
	out := make([]Node, len(h.nodes))
	copy(out, h.nodes)
	sort.Slice(out, func(i, j int) bool {
		return out[i].EffectivePriority < out[j].EffectivePriority
	})
	return out
}
