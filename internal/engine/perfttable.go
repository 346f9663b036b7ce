package engine

import (
	"sync"
	"sync/atomic"

	"github.com/hailam/chesscore/internal/board"
)

// Number of shards for table locking (power of 2 for fast modulo)
const ptShardCount = 256
const ptShardMask = ptShardCount - 1

// PerftEntry is a cached subtree count.
type PerftEntry struct {
	Key   uint64 // Full 64-bit Zobrist hash for verification
	Nodes uint64
	Depth uint8
}

// PerftTable is a fixed-size hash table of subtree counts shared by the
// divide workers. Uses sharded locking.
type PerftTable struct {
	entries []PerftEntry
	shards  [ptShardCount]sync.RWMutex
	size    uint64
	mask    uint64

	// Statistics
	hits   atomic.Uint64
	probes atomic.Uint64
}

// NewPerftTable creates a table with the given size in MB.
func NewPerftTable(sizeMB int) *PerftTable {
	if sizeMB < 1 {
		sizeMB = 1
	}
	entrySize := uint64(24)
	numEntries := roundDownToPowerOf2((uint64(sizeMB) * 1024 * 1024) / entrySize)

	return &PerftTable{
		entries: make([]PerftEntry, numEntries),
		size:    numEntries,
		mask:    numEntries - 1,
	}
}

// roundDownToPowerOf2 rounds n down to the nearest power of 2.
func roundDownToPowerOf2(n uint64) uint64 {
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return (n + 1) >> 1
}

// Probe returns the count stored for hash at exactly depth.
func (pt *PerftTable) Probe(hash uint64, depth int) (uint64, bool) {
	pt.probes.Add(1)

	idx := hash & pt.mask
	shard := int(idx & ptShardMask)

	pt.shards[shard].RLock()
	entry := pt.entries[idx]
	pt.shards[shard].RUnlock()

	if entry.Key == hash && int(entry.Depth) == depth && depth > 0 {
		pt.hits.Add(1)
		return entry.Nodes, true
	}
	return 0, false
}

// Store saves a count. A slot keeps the deeper of two counts for the same
// position; a different position always replaces it.
func (pt *PerftTable) Store(hash uint64, depth int, nodes uint64) {
	idx := hash & pt.mask
	shard := int(idx & ptShardMask)

	pt.shards[shard].Lock()
	entry := &pt.entries[idx]
	if entry.Key != hash || depth >= int(entry.Depth) {
		entry.Key = hash
		entry.Nodes = nodes
		entry.Depth = uint8(depth)
	}
	pt.shards[shard].Unlock()
}

// Clear empties the table and its statistics.
func (pt *PerftTable) Clear() {
	for i := range pt.entries {
		pt.entries[i] = PerftEntry{}
	}
	pt.hits.Store(0)
	pt.probes.Store(0)
}

// HitRate returns the cache hit rate as a percentage.
func (pt *PerftTable) HitRate() float64 {
	probes := pt.probes.Load()
	if probes == 0 {
		return 0
	}
	return float64(pt.hits.Load()) / float64(probes) * 100
}

// Size returns the number of entries in the table.
func (pt *PerftTable) Size() uint64 {
	return pt.size
}

// Perft counts leaf nodes like Position.Perft, reusing subtree counts from
// the table. Depths 1 and below are never cached.
func (pt *PerftTable) Perft(pos *board.Position, depth int) uint64 {
	if depth <= 1 {
		return pos.Perft(depth)
	}
	if nodes, ok := pt.Probe(pos.Hash, depth); ok {
		return nodes
	}

	var ml board.MoveList
	pos.GenerateLegalMovesInto(&ml)
	var nodes uint64
	for i := 0; i < ml.Len(); i++ {
		undo := pos.MakeMove(ml.Get(i))
		nodes += pt.Perft(pos, depth-1)
		pos.UnmakeMove(undo)
	}

	pt.Store(pos.Hash, depth, nodes)
	return nodes
}
