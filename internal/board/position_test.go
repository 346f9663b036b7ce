package board

import (
	"errors"
	"math/rand/v2"
	"testing"

	"golang.org/x/exp/slices"
)

func mustParse(t *testing.T, fen string) *Position {
	t.Helper()
	pos, err := ParseFEN(fen)
	if err != nil {
		t.Fatalf("ParseFEN(%q): %v", fen, err)
	}
	return pos
}

func mustMove(t *testing.T, pos *Position, text string) Move {
	t.Helper()
	m, ok := pos.GenerateLegalMoves().Find(text)
	if !ok {
		t.Fatalf("%s is not legal in %s", text, pos.ToFEN())
	}
	return m
}

func TestDoublePushFromStart(t *testing.T) {
	pos := NewPosition()
	before := pos.Hash

	pos.MakeMove(mustMove(t, pos, "e2e4"))

	if pos.EnPassant != E3 {
		t.Errorf("en passant = %v, want e3", pos.EnPassant)
	}
	if pos.HalfMoveClock != 0 {
		t.Errorf("half-move clock = %d, want 0", pos.HalfMoveClock)
	}
	if pos.Hash == before {
		t.Error("hash unchanged after e2e4")
	}
	if n := pos.GenerateLegalMoves().Len(); n != 20 {
		t.Errorf("black has %d moves, want 20", n)
	}
}

func TestOpenGameMoveCount(t *testing.T) {
	pos := mustParse(t, "rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w KQkq - 0 2")
	if n := pos.GenerateLegalMoves().Len(); n != 29 {
		t.Errorf("got %d moves, want 29", n)
	}
}

func TestEnPassantCapture(t *testing.T) {
	pos := mustParse(t, "8/8/8/2k5/3Pp3/8/8/4K3 b - d3 0 1")
	m := mustMove(t, pos, "e4d3")
	if !m.IsEnPassant() {
		t.Fatalf("e4d3 kind = %v, want en passant", m.Kind())
	}

	pos.MakeMove(m)

	if got := pos.PieceAt(D4); got != NoPiece {
		t.Errorf("d4 holds %v, want empty", got)
	}
	if got := pos.PieceAt(D3); got != BlackPawn {
		t.Errorf("d3 holds %v, want black pawn", got)
	}
	if pos.Pieces[White][Pawn] != 0 {
		t.Error("white still has a pawn")
	}
	if pos.SideToMove != White {
		t.Errorf("side to move = %v, want White", pos.SideToMove)
	}
}

func TestCastlingBothSides(t *testing.T) {
	pos := mustParse(t, "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
	moves := pos.GenerateLegalMoves()
	for _, text := range []string{"e1g1", "e1c1"} {
		m, ok := moves.Find(text)
		if !ok || !m.IsCastling() {
			t.Fatalf("%s missing or not a castle", text)
		}
	}

	pos.MakeMove(mustMove(t, pos, "e1g1"))

	if pos.PieceAt(F1) != WhiteRook {
		t.Errorf("f1 holds %v, want white rook", pos.PieceAt(F1))
	}
	if pos.PieceAt(G1) != WhiteKing {
		t.Errorf("g1 holds %v, want white king", pos.PieceAt(G1))
	}
	if pos.PieceAt(H1) != NoPiece || pos.PieceAt(E1) != NoPiece {
		t.Error("e1 or h1 still occupied")
	}
	if long, short := pos.CastlingRights.Pair(White); long || short {
		t.Errorf("white rights = (%v, %v), want none", long, short)
	}
	if long, short := pos.CastlingRights.Pair(Black); !long || !short {
		t.Errorf("black rights = (%v, %v), want both", long, short)
	}
}

func TestKingAvoidsAttackedSquares(t *testing.T) {
	pos := mustParse(t, "4k3/8/8/8/8/8/4r3/4K3 w - - 0 1")

	var got []string
	for _, m := range pos.LegalMoves() {
		if m.Mover() == King {
			got = append(got, m.To().String())
		}
	}
	slices.Sort(got)

	// The rook covers the second rank and the e-file; it is undefended, so
	// the king may take it.
	want := []string{"d1", "e2", "f1"}
	if !slices.Equal(got, want) {
		t.Errorf("king moves = %v, want %v", got, want)
	}
}

func TestCheckmate(t *testing.T) {
	// Back rank mate: Ra8 against Kh8 boxed in by its own pawns.
	pos := mustParse(t, "R6k/6pp/8/8/8/8/8/K7 b - - 0 1")
	if !pos.InCheck() {
		t.Error("expected black to be in check")
	}
	if !pos.IsCheckmate() {
		t.Error("expected checkmate")
	}
	if got := pos.Outcome(nil); got != WhiteWon {
		t.Errorf("outcome = %v, want white won", got)
	}
}

func TestNotCheckmate(t *testing.T) {
	// The king can capture the unprotected rook.
	pos := mustParse(t, "6Rk/8/8/8/8/8/8/K7 b - - 0 1")
	if pos.IsCheckmate() {
		t.Error("expected no checkmate")
	}
	if got := pos.Outcome(nil); got != Ongoing {
		t.Errorf("outcome = %v, want ongoing", got)
	}
}

func TestStalemate(t *testing.T) {
	pos := mustParse(t, "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1")
	if !pos.IsStalemate() {
		t.Error("expected stalemate")
	}
	if got := pos.Outcome(nil); got != Stalemate {
		t.Errorf("outcome = %v, want stalemate", got)
	}
}

func TestDoubleCheckOnlyKingMoves(t *testing.T) {
	// Rook e1 and bishop b5 both check the king on e8.
	pos := mustParse(t, "r3k3/8/8/1B6/8/8/8/4R1K1 b - - 0 1")
	if got := pos.CheckPath().Kind; got != CheckMultiple {
		t.Fatalf("check kind = %v, want multiple", got)
	}
	for _, m := range pos.LegalMoves() {
		if m.Mover() != King {
			t.Errorf("non-king move %v in double check", m)
		}
	}
}

func TestPinnedPieceStaysOnRay(t *testing.T) {
	// The d2 bishop is pinned by the a5 bishop and may only slide along a5-e1.
	pos := mustParse(t, "4k3/8/8/b7/8/8/3B4/4K3 w - - 0 1")
	ps := pos.PinState()
	if !ps.Diagonal.IsSet(D2) {
		t.Fatal("d2 should be pinned diagonally")
	}

	var got []string
	for _, m := range pos.LegalMoves() {
		if m.From() == D2 {
			got = append(got, m.To().String())
		}
	}
	slices.Sort(got)
	want := []string{"a5", "b4", "c3"}
	if !slices.Equal(got, want) {
		t.Errorf("pinned bishop moves = %v, want %v", got, want)
	}
}

func TestCastlingThroughAttack(t *testing.T) {
	// The f8 rook covers f1, so only the long castle is available.
	pos := mustParse(t, "4kr2/8/8/8/8/8/8/R3K2R w KQ - 0 1")
	moves := pos.GenerateLegalMoves()
	if _, ok := moves.Find("e1g1"); ok {
		t.Error("short castle through attacked f1 was generated")
	}
	if _, ok := moves.Find("e1c1"); !ok {
		t.Error("long castle missing")
	}
}

func TestParseFENErrors(t *testing.T) {
	tests := []struct {
		name string
		fen  string
	}{
		{"empty", ""},
		{"too few fields", "8/8/8/8/8/8/8/8 w"},
		{"seven ranks", "8/8/8/8/8/8/8 w - - 0 1"},
		{"bad piece", "rnbqkbnr/ppppxppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"},
		{"long rank", "rnbqkbnr/ppppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"},
		{"bad side", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR x KQkq - 0 1"},
		{"bad castling", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQxq - 0 1"},
		{"bad en passant", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq e9 0 1"},
		{"no white king", "4k3/8/8/8/8/8/8/8 w - - 0 1"},
		{"pawn on back rank", "4k2P/8/8/8/8/8/8/4K3 w - - 0 1"},
		{"opponent in check", "4k3/4R3/8/8/8/8/8/4K3 w - - 0 1"},
		{"bad clock", "4k3/8/8/8/8/8/8/4K3 w - - x 1"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseFEN(tc.fen)
			if !errors.Is(err, ErrInvalidFEN) {
				t.Errorf("ParseFEN(%q) error = %v, want ErrInvalidFEN", tc.fen, err)
			}
		})
	}
}

func TestFENRoundTrip(t *testing.T) {
	fens := []string{
		StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"8/8/8/2k5/3Pp3/8/8/4K3 b - d3 0 1",
		"rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w KQkq - 0 2",
	}
	for _, fen := range fens {
		if got := mustParse(t, fen).ToFEN(); got != fen {
			t.Errorf("ToFEN() = %q, want %q", got, fen)
		}
	}
}

func TestParseMoveKinds(t *testing.T) {
	tests := []struct {
		fen  string
		text string
		kind MoveKind
	}{
		{StartFEN, "e2e4", Normal},
		{"r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1", "e1g1", ShortCastle},
		{"r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1", "e1c1", LongCastle},
		{"8/8/8/2k5/3Pp3/8/8/4K3 b - d3 0 1", "e4d3", EnPassant},
		{"4k3/P7/8/8/8/8/8/4K3 w - - 0 1", "a7a8n", Promotion},
	}
	for _, tc := range tests {
		t.Run(tc.text, func(t *testing.T) {
			pos := mustParse(t, tc.fen)
			m, err := ParseMove(tc.text, pos)
			if err != nil {
				t.Fatalf("ParseMove: %v", err)
			}
			if m.Kind() != tc.kind {
				t.Errorf("kind = %v, want %v", m.Kind(), tc.kind)
			}
			if !pos.GenerateLegalMoves().Contains(m) {
				t.Errorf("parsed %v does not match a generated move", m)
			}
			if m.String() != tc.text {
				t.Errorf("String() = %q, want %q", m.String(), tc.text)
			}
		})
	}

	for _, bad := range []string{"", "e2", "e2e9", "e3e4", "e2e4x", "e2e4q"} {
		if _, err := ParseMove(bad, NewPosition()); !errors.Is(err, ErrInvalidMove) {
			t.Errorf("ParseMove(%q) error = %v, want ErrInvalidMove", bad, err)
		}
	}
}

// TestRandomWalkInvariants plays random legal games and checks that every
// move keeps the planes, mailbox and hash coherent, never leaves the mover
// in check, and is undone bit for bit.
func TestRandomWalkInvariants(t *testing.T) {
	starts := []string{
		StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
		"r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1",
	}
	rng := rand.New(rand.NewPCG(1, 2))

	for _, fen := range starts {
		for game := 0; game < 20; game++ {
			pos := mustParse(t, fen)
			for ply := 0; ply < 80; ply++ {
				moves := pos.LegalMoves()
				if len(moves) == 0 {
					break
				}
				for _, m := range moves {
					checkMove(t, pos, m)
				}
				pos.MakeMove(moves[rng.IntN(len(moves))])
			}
		}
	}
}

func checkMove(t *testing.T, pos *Position, m Move) {
	t.Helper()
	before := *pos
	us := pos.SideToMove

	if piece := pos.PieceAt(m.From()); piece != NewPiece(m.Mover(), us) {
		t.Fatalf("%v in %s: from holds %v", m, pos.ToFEN(), piece)
	}
	if m.IsCastling() {
		rookFrom, _ := castleRookSquares(m)
		attacked := pos.Attacked(us.Other())
		if !pos.IsEmptyBetween(m.From(), rookFrom) || attacked.IsSet(m.From()) ||
			attacked&(Between(m.From(), m.To())|SquareBB(m.To())) != 0 {
			t.Fatalf("%v in %s: castling precondition violated", m, pos.ToFEN())
		}
	}

	undo := pos.MakeMove(m)
	if err := pos.CheckConsistency(); err != nil {
		t.Fatalf("%v from %s: %v", m, before.ToFEN(), err)
	}
	if pos.IsSquareAttacked(pos.KingSquare[us], us.Other()) {
		t.Fatalf("%v from %s leaves the king in check", m, before.ToFEN())
	}
	pos.UnmakeMove(undo)

	if *pos != before {
		t.Fatalf("%v from %s: unmake did not restore the position", m, before.ToFEN())
	}
}

func TestEnPassantHashOnlyWhenCapturable(t *testing.T) {
	// No black pawn can take on e3, so the target does not change the hash.
	pos := NewPosition()
	pos.MakeMove(mustMove(t, pos, "e2e4"))
	same := mustParse(t, "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1")
	if pos.Hash != same.Hash {
		t.Errorf("hash with dead e3 target %016x, without %016x", pos.Hash, same.Hash)
	}

	with := mustParse(t, "8/8/8/2k5/3Pp3/8/8/4K3 b - d3 0 1")
	without := mustParse(t, "8/8/8/2k5/3Pp3/8/8/4K3 b - - 0 1")
	if with.Hash == without.Hash {
		t.Error("capturable en passant target does not change the hash")
	}
}

func TestTranspositionsHashEqual(t *testing.T) {
	a := NewPosition()
	for _, text := range []string{"g1f3", "g8f6", "b1c3", "b8c6"} {
		a.MakeMove(mustMove(t, a, text))
	}
	b := NewPosition()
	for _, text := range []string{"b1c3", "b8c6", "g1f3", "g8f6"} {
		b.MakeMove(mustMove(t, b, text))
	}
	if a.Hash != b.Hash {
		t.Errorf("transposed hashes differ: %016x vs %016x", a.Hash, b.Hash)
	}
}

func TestRepetitionMap(t *testing.T) {
	reps := NewRepetitionMap(42)
	if got := reps.Record(42); got != 2 {
		t.Errorf("Record = %d, want 2", got)
	}
	clone := reps.Clone()
	reps.Unrecord(42)
	reps.Unrecord(42)
	if reps.Count(42) != 0 {
		t.Errorf("Count after unrecord = %d, want 0", reps.Count(42))
	}
	if clone.Count(42) != 2 {
		t.Errorf("clone Count = %d, want 2", clone.Count(42))
	}
}
