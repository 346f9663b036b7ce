package engine

import (
	"github.com/hailam/chesscore/internal/board"
)

// Move ordering priorities
const (
	PromotionBase = 2000000 // promotions first, queen highest
	CaptureBase   = 1000000 // then captures by MVV-LVA
	CastleScore   = 100     // castling ahead of other quiet moves
)

// MVV-LVA (Most Valuable Victim - Least Valuable Attacker) scores
// Higher score = search first
// Score = victimValue * 10 - attackerValue
var mvvLva = [6][6]int{
	//       P    N    B    R    Q    K  (attacker)
	/* P */ {15, 14, 14, 13, 12, 11}, // Pawn victim
	/* N */ {25, 24, 24, 23, 22, 21}, // Knight victim
	/* B */ {35, 34, 34, 33, 32, 31}, // Bishop victim
	/* R */ {45, 44, 44, 43, 42, 41}, // Rook victim
	/* Q */ {55, 54, 54, 53, 52, 51}, // Queen victim
	/* K */ {0, 0, 0, 0, 0, 0}, // King can't be captured
}

// scoreMove returns the ordering key of m; larger is searched earlier.
func scoreMove(m board.Move) int {
	score := 0
	if m.IsPromotion() {
		score += PromotionBase + pieceValues[m.Piece()]
	}
	switch {
	case m.IsEnPassant():
		score += CaptureBase + mvvLva[board.Pawn][board.Pawn]
	case m.Captured() != board.NoPieceType:
		score += CaptureBase + mvvLva[m.Captured()][m.Mover()]
	case m.IsCastling():
		score += CastleScore
	}
	return score
}

// orderMoves sorts ml in place by descending scoreMove, keeping generation
// order among equal scores.
func orderMoves(ml *board.MoveList) {
	var scores [board.MaxMoves]int
	n := ml.Len()
	for i := 0; i < n; i++ {
		scores[i] = scoreMove(ml.Get(i))
	}
	for i := 1; i < n; i++ {
		for j := i; j > 0 && scores[j] > scores[j-1]; j-- {
			scores[j], scores[j-1] = scores[j-1], scores[j]
			ml.Swap(j, j-1)
		}
	}
}
