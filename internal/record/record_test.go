package record

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/engine"
)

func playLine(t *testing.T, fen string, moves ...string) *engine.Game {
	t.Helper()
	g, err := engine.NewGameFromFEN(nil, fen)
	if err != nil {
		t.Fatal(err)
	}
	for _, text := range moves {
		if _, err := g.ApplyUCI(text); err != nil {
			t.Fatalf("%s: %v", text, err)
		}
	}
	return g
}

func TestFromGameAndReplay(t *testing.T) {
	g := playLine(t, board.StartFEN, "f2f3", "e7e5", "g2g4", "d8h4")
	rec := FromGame("g1", g, 3, engine.TermCheckmate)

	if rec.Result != "0-1" {
		t.Errorf("result = %q, want 0-1", rec.Result)
	}
	if len(rec.Moves) != 4 || rec.Moves[3] != "d8h4" {
		t.Errorf("moves = %v", rec.Moves)
	}

	replayed, err := rec.Replay()
	if err != nil {
		t.Fatal(err)
	}
	if replayed.FEN() != g.FEN() || replayed.Outcome() != board.BlackWon {
		t.Errorf("replay reached %s (%v), want %s", replayed.FEN(), replayed.Outcome(), g.FEN())
	}

	san, err := rec.SAN()
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"f3", "e5", "g4", "Qh4#"}; strings.Join(san, " ") != strings.Join(want, " ") {
		t.Errorf("SAN = %v, want %v", san, want)
	}
}

func TestReplayRejectsIllegalMove(t *testing.T) {
	rec := Record{StartFEN: board.StartFEN, Moves: []string{"e2e4", "e2e4"}}
	if _, err := rec.Replay(); !errors.Is(err, board.ErrInvalidMove) {
		t.Errorf("err = %v, want ErrInvalidMove", err)
	}
}

func TestPGN(t *testing.T) {
	g := playLine(t, board.StartFEN, "f2f3", "e7e5", "g2g4", "d8h4")
	rec := FromGame("g1", g, 2, engine.TermCheckmate)
	rec.PlayedAt = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	pgn, err := rec.PGN()
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`[Result "0-1"]`, `[Date "2024.05.01"]`, `[Termination "checkmate"]`, "0-1"} {
		if !strings.Contains(pgn, want) {
			t.Errorf("PGN missing %q:\n%s", want, pgn)
		}
	}
	if strings.Contains(pgn, "[FEN ") {
		t.Errorf("standard start should not carry a FEN tag:\n%s", pgn)
	}
}

func TestPGNFromCustomStartAndDraw(t *testing.T) {
	fen := "4k3/8/8/8/8/8/8/4K2R w K - 0 1"
	rec := Record{
		StartFEN: fen,
		Moves:    []string{"e1g1", "e8d7"},
		Result:   "1/2-1/2",
	}
	pgn, err := rec.PGN()
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`[SetUp "1"]`, `[FEN "` + fen + `"]`, `[Result "1/2-1/2"]`} {
		if !strings.Contains(pgn, want) {
			t.Errorf("PGN missing %q:\n%s", want, pgn)
		}
	}
}

func TestPGNRejectsWrongResult(t *testing.T) {
	rec := Record{StartFEN: board.StartFEN, Moves: []string{"e2e4"}, Result: "1-0"}
	if _, err := rec.PGN(); !errors.Is(err, ErrResultMismatch) {
		t.Errorf("err = %v, want ErrResultMismatch", err)
	}
}
