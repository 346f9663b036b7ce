package engine

import (
	"github.com/hailam/chesscore/internal/board"
)

// Search constants
const (
	Infinity  = 30000
	MateScore = 29000
	DrawScore = 0
	MaxPly    = 128
)

// RootScore is the full-window score of one root move.
type RootScore struct {
	Move  board.Move
	Score int
	Nodes uint64
}

// searcher runs one fail-hard negamax. It is owned by a single goroutine.
type searcher struct {
	nodes uint64
}

// negamax returns the score of pos for its side to move, clamped to
// [alpha, beta]. reps holds the occurrences since the last irreversible move,
// including pos itself.
func (s *searcher) negamax(pos *board.Position, reps board.RepetitionMap, depth, ply, alpha, beta int) int {
	s.nodes++

	if reps.Count(pos.Hash) >= board.RepetitionCount {
		return clamp(DrawScore, alpha, beta)
	}

	var ml board.MoveList
	pos.GenerateLegalMovesInto(&ml)
	if ml.Len() == 0 {
		if pos.InCheck() {
			return clamp(-MateScore+ply, alpha, beta)
		}
		return clamp(DrawScore, alpha, beta)
	}
	if depth <= 0 || ply >= MaxPly {
		return clamp(evaluate(pos, ml.Len()), alpha, beta)
	}

	orderMoves(&ml)

	for i := 0; i < ml.Len(); i++ {
		m := ml.Get(i)
		undo := pos.MakeMove(m)

		var score int
		if m.IsIrreversible() {
			// Nothing before a pawn move or capture can recur.
			score = -s.negamax(pos, board.NewRepetitionMap(pos.Hash), depth-1, ply+1, -beta, -alpha)
		} else {
			reps.Record(pos.Hash)
			score = -s.negamax(pos, reps, depth-1, ply+1, -beta, -alpha)
			reps.Unrecord(pos.Hash)
		}

		pos.UnmakeMove(undo)

		if score >= beta {
			return beta
		}
		if score > alpha {
			alpha = score
		}
	}
	return alpha
}

// searchRoot scores one root move with a full window on private copies of
// the position and repetition map.
func searchRoot(pos *board.Position, reps board.RepetitionMap, m board.Move, depth int) RootScore {
	child := pos.Copy()
	child.MakeMove(m)

	var childReps board.RepetitionMap
	if m.IsIrreversible() {
		childReps = board.NewRepetitionMap(child.Hash)
	} else {
		childReps = reps.Clone()
		childReps.Record(child.Hash)
	}

	s := &searcher{}
	score := -s.negamax(child, childReps, depth-1, 1, -Infinity, Infinity)
	return RootScore{Move: m, Score: score, Nodes: s.nodes}
}

func clamp(score, alpha, beta int) int {
	if score <= alpha {
		return alpha
	}
	if score >= beta {
		return beta
	}
	return score
}
