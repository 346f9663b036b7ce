package engine

import (
	"context"
	"testing"

	"github.com/hailam/chesscore/internal/board"
)

func TestPerftTableMatchesPlainPerft(t *testing.T) {
	fens := []string{
		board.StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
	}
	pt := NewPerftTable(4)
	for _, fen := range fens {
		pos, err := board.ParseFEN(fen)
		if err != nil {
			t.Fatal(err)
		}
		for depth := 1; depth <= 3; depth++ {
			want := pos.Perft(depth)
			if got := pt.Perft(pos, depth); got != want {
				t.Errorf("%s depth %d: table %d, plain %d", fen, depth, got, want)
			}
			// A second run is answered from the table.
			if got := pt.Perft(pos, depth); got != want {
				t.Errorf("%s depth %d: cached %d, plain %d", fen, depth, got, want)
			}
		}
		if pos.ToFEN() != fen {
			t.Errorf("position changed: %s", pos.ToFEN())
		}
	}
	if pt.HitRate() == 0 {
		t.Error("no table hits")
	}
}

func TestPerftTableProbeNeedsExactDepth(t *testing.T) {
	pt := NewPerftTable(1)
	pt.Store(0xABCDEF, 3, 8902)
	if _, ok := pt.Probe(0xABCDEF, 2); ok {
		t.Error("probe at a different depth hit")
	}
	if n, ok := pt.Probe(0xABCDEF, 3); !ok || n != 8902 {
		t.Errorf("probe = %d, %v", n, ok)
	}
	pt.Clear()
	if _, ok := pt.Probe(0xABCDEF, 3); ok {
		t.Error("probe hit after Clear")
	}
	if pt.Size()&(pt.Size()-1) != 0 {
		t.Errorf("size %d is not a power of two", pt.Size())
	}
}

func TestParallelDivideWithTable(t *testing.T) {
	pos, err := board.ParseFEN("r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	e := NewEngine(Options{Workers: 4, PerftTableMB: 4})
	entries, err := e.ParallelDivide(context.Background(), pos, 3, nil)
	if err != nil {
		t.Fatal(err)
	}
	if total := board.DivideTotal(entries); total != 97862 {
		t.Errorf("divide total = %d, want 97862", total)
	}
}
