// Package board implements the chess position: bitboard planes with a mailbox mirror,
// magic-bitboard slider attacks, legal move generation, and incremental make/unmake
// with Zobrist hashing.
package board

import "fmt"

// Square is a board index in [0,64): file in bits 0-2, rank in bits 3-5.
// A1=0, H1=7, A8=56, H8=63.
type Square uint8

const (
	A1 Square = iota
	B1
	C1
	D1
	E1
	F1
	G1
	H1
	A2
	B2
	C2
	D2
	E2
	F2
	G2
	H2
	A3
	B3
	C3
	D3
	E3
	F3
	G3
	H3
	A4
	B4
	C4
	D4
	E4
	F4
	G4
	H4
	A5
	B5
	C5
	D5
	E5
	F5
	G5
	H5
	A6
	B6
	C6
	D6
	E6
	F6
	G6
	H6
	A7
	B7
	C7
	D7
	E7
	F7
	G7
	H7
	A8
	B8
	C8
	D8
	E8
	F8
	G8
	H8
	NoSquare Square = 64
)

// NewSquare builds a square from a 0-indexed file and rank.
func NewSquare(file, rank int) Square {
	return Square(rank<<3 | file)
}

// File returns 0 for the a-file through 7 for the h-file.
func (sq Square) File() int {
	return int(sq) & 7
}

// Rank returns 0 for the first rank through 7 for the eighth.
func (sq Square) Rank() int {
	return int(sq) >> 3
}

// IsValid reports whether sq is on the board.
func (sq Square) IsValid() bool {
	return sq < NoSquare
}

// Mirror flips the square vertically (a1 <-> a8).
func (sq Square) Mirror() Square {
	return sq ^ 56
}

// RelativeRank returns the rank as seen from c's side of the board.
func (sq Square) RelativeRank(c Color) int {
	return c.RelativeRank(sq.Rank())
}

// Offset applies a file/rank delta. The second result is false when the
// destination leaves the board.
func (sq Square) Offset(o Offset) (Square, bool) {
	f := sq.File() + int(o.DF)
	r := sq.Rank() + int(o.DR)
	if f < 0 || f > 7 || r < 0 || r > 7 {
		return NoSquare, false
	}
	return NewSquare(f, r), true
}

// String returns algebraic notation ("e4"), or "-" for NoSquare.
func (sq Square) String() string {
	if sq >= NoSquare {
		return "-"
	}
	return string([]byte{byte('a' + sq.File()), byte('1' + sq.Rank())})
}

// ParseSquare parses algebraic notation such as "e4".
func ParseSquare(s string) (Square, error) {
	if len(s) != 2 {
		return NoSquare, fmt.Errorf("invalid square: %q", s)
	}
	file := int(s[0]) - 'a'
	rank := int(s[1]) - '1'
	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return NoSquare, fmt.Errorf("invalid square: %q", s)
	}
	return NewSquare(file, rank), nil
}

// Offset is a signed (file, rank) displacement.
type Offset struct {
	DF, DR int8
}

// Scale multiplies the offset by k. The second result is false when either
// component would exceed the width of the board.
func (o Offset) Scale(k int) (Offset, bool) {
	df := int(o.DF) * k
	dr := int(o.DR) * k
	if df < -7 || df > 7 || dr < -7 || dr > 7 {
		return Offset{}, false
	}
	return Offset{DF: int8(df), DR: int8(dr)}, true
}

// Ray directions and jump patterns.
var (
	rookDirections   = [4]Offset{{0, 1}, {0, -1}, {1, 0}, {-1, 0}}
	bishopDirections = [4]Offset{{1, 1}, {-1, 1}, {1, -1}, {-1, -1}}
	knightJumps      = [8]Offset{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingSteps        = [8]Offset{{0, 1}, {1, 1}, {1, 0}, {1, -1}, {0, -1}, {-1, -1}, {-1, 0}, {-1, 1}}
)
