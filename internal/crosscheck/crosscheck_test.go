package crosscheck

import (
	"testing"

	"github.com/hailam/chesscore/internal/board"
)

var positions = []string{
	board.StartFEN,
	"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
	"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
	"r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1",
	"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8",
}

func TestPerftAgreesWithReference(t *testing.T) {
	for _, fen := range positions {
		pos, err := board.ParseFEN(fen)
		if err != nil {
			t.Fatal(err)
		}
		for depth := 1; depth <= 3; depth++ {
			if ours, ref := pos.Perft(depth), Perft(fen, depth); ours != ref {
				t.Errorf("%s depth %d: ours %d, reference %d", fen, depth, ours, ref)
			}
		}
	}
}

func TestDivideAgreesWithReference(t *testing.T) {
	pos, err := board.ParseFEN(positions[1])
	if err != nil {
		t.Fatal(err)
	}
	ref := Divide(positions[1], 2)
	ours := pos.Divide(2)
	if len(ours) != len(ref) {
		t.Fatalf("ours has %d root moves, reference %d", len(ours), len(ref))
	}
	for _, e := range ours {
		if n, ok := ref[e.Move.String()]; !ok || n != e.Nodes {
			t.Errorf("%v: ours %d, reference %d (present %v)", e.Move, e.Nodes, n, ok)
		}
	}
}

func TestCompareFindsNoMismatch(t *testing.T) {
	depth := 3
	if testing.Short() {
		depth = 2
	}
	for _, fen := range positions {
		pos, err := board.ParseFEN(fen)
		if err != nil {
			t.Fatal(err)
		}
		for _, m := range Compare(pos, depth, 5) {
			t.Errorf("mismatch: %v", m)
		}
		if pos.ToFEN() != fen {
			t.Errorf("Compare changed the position: %s", pos.ToFEN())
		}
	}
}
