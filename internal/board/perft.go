package board

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Perft counts the leaves of the legal move tree at the given depth.
// This is the standard way to verify move generation correctness.
func (p *Position) Perft(depth int) uint64 {
	if depth <= 0 {
		return 1
	}

	var ml MoveList
	p.GenerateLegalMovesInto(&ml)
	if depth == 1 {
		return uint64(ml.Len())
	}

	var nodes uint64
	for i := 0; i < ml.Len(); i++ {
		undo := p.MakeMove(ml.Get(i))
		nodes += p.Perft(depth - 1)
		p.UnmakeMove(undo)
	}
	return nodes
}

// DivideEntry is the perft count below one root move.
type DivideEntry struct {
	Move  Move
	Nodes uint64
}

// Divide returns the perft count below each root move, sorted by the move's
// coordinate text. The counts sum to Perft(depth).
func (p *Position) Divide(depth int) []DivideEntry {
	if depth <= 0 {
		return nil
	}
	var ml MoveList
	p.GenerateLegalMovesInto(&ml)

	byText := make(map[string]DivideEntry, ml.Len())
	for i := 0; i < ml.Len(); i++ {
		m := ml.Get(i)
		undo := p.MakeMove(m)
		byText[m.String()] = DivideEntry{Move: m, Nodes: p.Perft(depth - 1)}
		p.UnmakeMove(undo)
	}
	return SortDivide(byText)
}

// SortDivide flattens per-move counts keyed by move text into text order.
func SortDivide(byText map[string]DivideEntry) []DivideEntry {
	keys := maps.Keys(byText)
	slices.Sort(keys)
	entries := make([]DivideEntry, len(keys))
	for i, k := range keys {
		entries[i] = byText[k]
	}
	return entries
}

// DivideTotal sums the node counts of a divide.
func DivideTotal(entries []DivideEntry) uint64 {
	var total uint64
	for _, e := range entries {
		total += e.Nodes
	}
	return total
}
