package engine

import (
	"context"
	"fmt"

	"github.com/hailam/chesscore/internal/board"
)

// Game is a position plus the history needed to judge repetition. It is not
// safe for concurrent use.
type Game struct {
	engine   *Engine
	pos      *board.Position
	reps     board.RepetitionMap
	startFEN string
	moves    []board.Move
	outcome  board.Outcome
}

// NewGame starts a game from the standard position. A nil engine gets a
// default one.
func NewGame(e *Engine) *Game {
	g, err := NewGameFromFEN(e, board.StartFEN)
	if err != nil {
		panic(err)
	}
	return g
}

// NewGameFromFEN starts a game from fen.
func NewGameFromFEN(e *Engine, fen string) (*Game, error) {
	pos, err := board.ParseFEN(fen)
	if err != nil {
		return nil, err
	}
	if e == nil {
		e = NewEngine(Options{})
	}
	g := &Game{
		engine:   e,
		pos:      pos,
		reps:     board.NewRepetitionMap(pos.Hash),
		startFEN: pos.ToFEN(),
	}
	g.outcome = pos.Outcome(g.reps)
	return g, nil
}

// Position returns the live position. Callers may MakeMove/UnmakeMove on it
// as long as every make is undone before the next Game call.
func (g *Game) Position() *board.Position { return g.pos }

// Engine returns the engine used by BestMove.
func (g *Game) Engine() *Engine { return g.engine }

// StartFEN returns the position the game began from.
func (g *Game) StartFEN() string { return g.startFEN }

// FEN returns the current position.
func (g *Game) FEN() string { return g.pos.ToFEN() }

// Moves returns the moves played so far.
func (g *Game) Moves() []board.Move {
	return append([]board.Move(nil), g.moves...)
}

// LegalMoves returns the legal moves of the current position.
func (g *Game) LegalMoves() []board.Move { return g.pos.LegalMoves() }

// PieceAt returns the piece on sq.
func (g *Game) PieceAt(sq board.Square) board.Piece { return g.pos.PieceAt(sq) }

// SideToMove returns the color to move.
func (g *Game) SideToMove() board.Color { return g.pos.SideToMove }

// EnPassant returns the en passant target, NoSquare if none.
func (g *Game) EnPassant() board.Square { return g.pos.EnPassant }

// CastlingRights returns the remaining castling rights.
func (g *Game) CastlingRights() board.CastlingRights { return g.pos.CastlingRights }

// Hash returns the Zobrist hash of the current position.
func (g *Game) Hash() uint64 { return g.pos.Hash }

// Repetitions returns how often the current position has occurred since the
// last irreversible move.
func (g *Game) Repetitions() int { return g.reps.Count(g.pos.Hash) }

// Outcome returns the state after the last move.
func (g *Game) Outcome() board.Outcome { return g.outcome }

// Apply plays m if it is legal and returns the resulting outcome.
func (g *Game) Apply(m board.Move) (board.Outcome, error) {
	if g.outcome != board.Ongoing {
		return g.outcome, ErrNotOngoing
	}
	if !g.pos.GenerateLegalMoves().Contains(m) {
		return g.outcome, fmt.Errorf("%w: %v", ErrIllegalMove, m)
	}

	g.pos.MakeMove(m)
	if m.IsIrreversible() {
		g.reps.Reset(g.pos.Hash)
	} else {
		g.reps.Record(g.pos.Hash)
	}
	g.moves = append(g.moves, m)
	g.outcome = g.pos.Outcome(g.reps)
	return g.outcome, nil
}

// ApplyUCI parses coordinate text ("e2e4", "e7e8q") and plays it. Text
// that is not coordinate notation is tried as SAN.
func (g *Game) ApplyUCI(text string) (board.Outcome, error) {
	m, err := board.ParseMove(text, g.pos)
	if err != nil {
		san, sanErr := board.ParseSAN(text, g.pos)
		if sanErr != nil {
			return g.outcome, err
		}
		m = san
	}
	return g.Apply(m)
}

// BestMoves returns every move tied for the best score at depth.
func (g *Game) BestMoves(ctx context.Context, depth int) (SearchResult, error) {
	if g.outcome != board.Ongoing {
		return SearchResult{}, ErrNotOngoing
	}
	return g.engine.Search(ctx, g.pos, g.reps, depth)
}

// BestMove returns one of the best moves at depth, ties broken at random.
func (g *Game) BestMove(ctx context.Context, depth int) (board.Move, error) {
	res, err := g.BestMoves(ctx, depth)
	if err != nil {
		return board.NoMove, err
	}
	return g.engine.PickMove(res.Best), nil
}
