// Package record holds finished games and exports them as PGN.
package record

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/notnil/chess"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/engine"
)

// ErrResultMismatch reports a decisive result the move list does not reach.
var ErrResultMismatch = errors.New("result does not match moves")

// Record is a stored game.
type Record struct {
	ID          string    `json:"id"`
	StartFEN    string    `json:"start_fen"`
	Moves       []string  `json:"moves"` // coordinate notation
	Result      string    `json:"result"`
	Termination string    `json:"termination,omitempty"`
	Depth       int       `json:"depth"`
	PlayedAt    time.Time `json:"played_at"`
}

// FromGame captures g. id is typically a timestamp chosen by the caller.
func FromGame(id string, g *engine.Game, depth int, term engine.Termination) Record {
	moves := g.Moves()
	texts := make([]string, len(moves))
	for i, m := range moves {
		texts[i] = m.String()
	}
	return Record{
		ID:          id,
		StartFEN:    g.StartFEN(),
		Moves:       texts,
		Result:      g.Outcome().Result(),
		Termination: string(term),
		Depth:       depth,
		PlayedAt:    time.Now().UTC(),
	}
}

// Replay rebuilds the game, checking every move.
func (r Record) Replay() (*engine.Game, error) {
	g, err := engine.NewGameFromFEN(nil, r.StartFEN)
	if err != nil {
		return nil, err
	}
	for i, text := range r.Moves {
		if _, err := g.ApplyUCI(text); err != nil {
			return nil, fmt.Errorf("move %d (%s): %w", i+1, text, err)
		}
	}
	return g, nil
}

// SAN returns the moves in standard algebraic notation.
func (r Record) SAN() ([]string, error) {
	pos, err := board.ParseFEN(r.StartFEN)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(r.Moves))
	for i, text := range r.Moves {
		m, err := board.ParseMove(text, pos)
		if err != nil {
			return nil, fmt.Errorf("move %d: %w", i+1, err)
		}
		out = append(out, m.ToSAN(pos))
		pos.MakeMove(m)
	}
	return out, nil
}

// PGN renders the record. Draws that ended by our own rules (threefold or
// adjudication) are recorded as agreed draws when the PGN library would not
// otherwise end the game.
func (r Record) PGN() (string, error) {
	opts := []func(*chess.Game){chess.UseNotation(chess.UCINotation{})}
	if r.StartFEN != "" && r.StartFEN != board.StartFEN {
		fen, err := chess.FEN(r.StartFEN)
		if err != nil {
			return "", fmt.Errorf("%w: %v", board.ErrInvalidFEN, err)
		}
		opts = append(opts, fen)
	}
	game := chess.NewGame(opts...)

	for i, text := range r.Moves {
		if err := game.MoveStr(text); err != nil {
			return "", fmt.Errorf("move %d (%s): %w", i+1, text, err)
		}
	}

	switch r.Result {
	case "1/2-1/2":
		if game.Outcome() == chess.NoOutcome {
			if err := game.Draw(chess.DrawOffer); err != nil {
				return "", err
			}
		}
	case "1-0", "0-1":
		if string(game.Outcome()) != r.Result {
			return "", fmt.Errorf("%w: %s after %d moves", ErrResultMismatch, r.Result, len(r.Moves))
		}
	}

	game.AddTagPair("Event", "chesscore self-play")
	game.AddTagPair("Site", "local")
	if !r.PlayedAt.IsZero() {
		game.AddTagPair("Date", r.PlayedAt.Format("2006.01.02"))
	}
	game.AddTagPair("White", "chesscore")
	game.AddTagPair("Black", "chesscore")
	game.AddTagPair("Result", string(game.Outcome()))
	if r.StartFEN != "" && r.StartFEN != board.StartFEN {
		game.AddTagPair("SetUp", "1")
		game.AddTagPair("FEN", r.StartFEN)
	}
	game.AddTagPair("PlyCount", strconv.Itoa(len(r.Moves)))
	if r.Depth > 0 {
		game.AddTagPair("Depth", strconv.Itoa(r.Depth))
	}
	if r.Termination != "" {
		game.AddTagPair("Termination", r.Termination)
	}
	return game.String(), nil
}
