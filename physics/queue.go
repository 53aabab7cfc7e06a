package physics

import (
	"sort"
	"sync"

	"github.com/gekko3d/voxelcore/codec"
	"github.com/gekko3d/voxelcore/logging"
)

// Queue is the de-duplicated, node-id-descending physics-update queue,
// grounded on original_source's QueuedNodePhysicsUpdate /
// mark_node_for_physics_update. At most one entry exists per node id;
// marking an already-queued node replaces ("coalesces") its pending volume
// instead of appending a second entry.
type Queue struct {
	mu      sync.Mutex
	entries []queueEntry // kept sorted by NodeID descending
	logger  logging.Logger
}

type queueEntry struct {
	NodeID NodeID
	Volume codec.Volume
}

func NewQueue(logger logging.Logger) *Queue {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Queue{logger: logger}
}

// Mark enqueues a physics-rebuild request for id carrying volume, replacing
// any existing entry for the same id (lower-bound search then
// insert-or-replace, exactly as original_source's mark_node_for_physics_update
// does against its descending-ordered vector).
func (q *Queue) Mark(id NodeID, volume codec.Volume) {
	q.mu.Lock()
	defer q.mu.Unlock()

	idx := sort.Search(len(q.entries), func(i int) bool { return q.entries[i].NodeID <= id })
	if idx < len(q.entries) && q.entries[idx].NodeID == id {
		q.entries[idx].Volume = volume
		return
	}
	q.entries = append(q.entries, queueEntry{})
	copy(q.entries[idx+1:], q.entries[idx:])
	q.entries[idx] = queueEntry{NodeID: id, Volume: volume}
}

// Len reports the number of pending entries.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// NodeIDs returns the currently queued node ids in descending order, for
// tests and diagnostics.
func (q *Queue) NodeIDs() []NodeID {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]NodeID, len(q.entries))
	for i, e := range q.entries {
		out[i] = e.NodeID
	}
	return out
}

// Drain empties the queue, rebuilding each entry's collision shape via
// DecomposeVolume and handing the result to apply. If nodeExists reports a
// node as gone, the entry is discarded with a warning and the drain
// continues to the next entry — spec.md's explicit "if absent, log warning
// and discard" policy, rather than original_source's on_tick handler, which
// returns out of the whole drain on the first missing node.
func (q *Queue) Drain(nodeExists func(NodeID) bool, apply func(NodeID, []CollisionBox), solid func(uint32) bool) {
	q.mu.Lock()
	pending := q.entries
	q.entries = nil
	q.mu.Unlock()

	for _, e := range pending {
		if !nodeExists(e.NodeID) {
			q.logger.Warnf("physics: node %d missing during physics-update drain, discarding entry", e.NodeID)
			continue
		}
		boxes := DecomposeVolume(e.Volume, solid)
		apply(e.NodeID, boxes)
	}
}
