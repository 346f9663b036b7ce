package storage

import (
	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/engine"
)

// Perft returns the perft count of pos at depth, answering from the cache
// when possible and storing fresh counts. cached reports a cache hit.
func (s *Storage) Perft(e *engine.Engine, pos *board.Position, depth int) (nodes uint64, cached bool, err error) {
	fen := pos.ToFEN()
	nodes, ok, err := s.LookupPerft(pos.Hash, fen, depth)
	if err != nil || ok {
		return nodes, ok, err
	}

	nodes = e.Perft(pos, depth)
	return nodes, false, s.StorePerft(pos.Hash, fen, depth, nodes)
}
