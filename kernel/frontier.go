package kernel

import (
	"container/heap"
	"crypto/sha256"
	"encoding/binary"
)

// WorkItem is one branch of a Fork node dispatched for concurrent execution.
// OrderKey gives the branches a deterministic merge order so that two runs
// over the same graph and state always apply Fork-branch deltas in the same
// sequence, regardless of goroutine completion order.
//
// Grounded on the retrieved example's generic WorkItem[S]/workHeap[S]
// scheduling primitives, narrowed from a general concurrent-node work queue
// to the one thing C8 needs concurrency for: executing a Fork's branches and
// merging their results at the matching Join.
type WorkItem struct {
	BranchIndex int
	NodeID      string
	OrderKey    uint64
}

// computeOrderKey derives a deterministic sort key from the forking node's id
// and the branch's position, so branch results merge in a stable order even
// though they execute concurrently.
func computeOrderKey(forkNodeID string, branchIndex int) uint64 {
	h := sha256.New()
	h.Write([]byte(forkNodeID))
	idxBytes := make([]byte, 4)
	binary.BigEndian.PutUint32(idxBytes, uint32(branchIndex))
	h.Write(idxBytes)
	sum := h.Sum(nil)
	return binary.BigEndian.Uint64(sum[:8])
}

// workHeap orders WorkItems by OrderKey so concurrently-completed branch
// results can be drained back into a deterministic merge sequence.
type workHeap []WorkItem

func (h workHeap) Len() int            { return len(h) }
func (h workHeap) Less(i, j int) bool  { return h[i].OrderKey < h[j].OrderKey }
func (h workHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *workHeap) Push(x interface{}) { *h = append(*h, x.(WorkItem)) }
func (h *workHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[0 : n-1]
	return item
}

// forkBranches builds the ordered WorkItems for a KindFork node's branches.
func forkBranches(forkNodeID string, branches []string) []WorkItem {
	items := make([]WorkItem, len(branches))
	for i, nodeID := range branches {
		items[i] = WorkItem{BranchIndex: i, NodeID: nodeID, OrderKey: computeOrderKey(forkNodeID, i)}
	}
	h := workHeap(items)
	heap.Init(&h)
	sorted := make([]WorkItem, 0, len(items))
	for h.Len() > 0 {
		sorted = append(sorted, heap.Pop(&h).(WorkItem))
	}
	return sorted
}
