package engine

import (
	"context"
	"log"

	"github.com/hailam/chesscore/internal/board"
)

// Termination explains why a self-play game stopped.
type Termination string

const (
	TermCheckmate    Termination = "checkmate"
	TermStalemate    Termination = "stalemate"
	TermRepetition   Termination = "threefold repetition"
	TermFiftyMoves   Termination = "fifty-move rule"
	TermInsufficient Termination = "insufficient material"
	TermPlyLimit     Termination = "ply limit"
)

// SelfPlayResult summarizes a finished self-play game.
type SelfPlayResult struct {
	Outcome     board.Outcome
	Termination Termination
	Plies       int
}

// SelfPlay lets the engine play both sides of g at a fixed depth until the
// game ends or maxPlies moves have been played (maxPlies <= 0 means no cap).
// The fifty-move rule and bare-minor endings are adjudicated as draws.
// onMove, if set, sees every move after it is applied.
func (e *Engine) SelfPlay(ctx context.Context, g *Game, depth, maxPlies int, onMove func(ply int, m board.Move)) (SelfPlayResult, error) {
	plies := 0
	for g.Outcome() == board.Ongoing {
		pos := g.Position()
		switch {
		case pos.IsFiftyMoveDraw():
			return SelfPlayResult{Outcome: board.Stalemate, Termination: TermFiftyMoves, Plies: plies}, nil
		case pos.IsInsufficientMaterial():
			return SelfPlayResult{Outcome: board.Stalemate, Termination: TermInsufficient, Plies: plies}, nil
		case maxPlies > 0 && plies >= maxPlies:
			return SelfPlayResult{Outcome: board.Ongoing, Termination: TermPlyLimit, Plies: plies}, nil
		}

		res, err := e.Search(ctx, pos, g.reps, depth)
		if err != nil {
			return SelfPlayResult{Outcome: g.Outcome(), Plies: plies}, err
		}
		m := e.PickMove(res.Best)
		if _, err := g.Apply(m); err != nil {
			// The search only returns generated moves.
			log.Printf("selfplay: engine move %v rejected: %v", m, err)
			return SelfPlayResult{Outcome: g.Outcome(), Plies: plies}, err
		}
		plies++
		if onMove != nil {
			onMove(plies, m)
		}
	}

	return SelfPlayResult{Outcome: g.Outcome(), Termination: g.termination(), Plies: plies}, nil
}

// termination classifies a finished game.
func (g *Game) termination() Termination {
	switch g.outcome {
	case board.WhiteWon, board.BlackWon:
		return TermCheckmate
	case board.Stalemate:
		if g.Repetitions() >= board.RepetitionCount {
			return TermRepetition
		}
		return TermStalemate
	}
	return ""
}
