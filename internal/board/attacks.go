package board

import "fmt"

// Precomputed attack tables. All of them are filled by init and read-only
// afterwards, so concurrent readers need no synchronization.
var (
	knightAttacks [64]Bitboard
	kingAttacks   [64]Bitboard
	pawnAttacks   [2][64]Bitboard // [Color][Square]

	betweenBB [64][64]Bitboard // squares strictly between two aligned squares
	lineBB    [64][64]Bitboard // full board line through two aligned squares
)

func init() {
	initJumpTables()
	initLines()
	if err := initMagics(); err != nil {
		panic(fmt.Sprintf("board: %v", err))
	}
	initZobrist()
}

func initJumpTables() {
	for sq := A1; sq <= H8; sq++ {
		for _, o := range knightJumps {
			if to, ok := sq.Offset(o); ok {
				knightAttacks[sq] |= SquareBB(to)
			}
		}
		for _, o := range kingSteps {
			if to, ok := sq.Offset(o); ok {
				kingAttacks[sq] |= SquareBB(to)
			}
		}

		bb := SquareBB(sq)
		pawnAttacks[White][sq] = bb.NorthEast() | bb.NorthWest()
		pawnAttacks[Black][sq] = bb.SouthEast() | bb.SouthWest()
	}
}

func initLines() {
	for from := A1; from <= H8; from++ {
		for _, dir := range kingSteps {
			back := Offset{DF: -dir.DF, DR: -dir.DR}
			full := rayFrom(from, dir) | rayFrom(from, back) | SquareBB(from)

			var between Bitboard
			for k := 1; ; k++ {
				step, ok := dir.Scale(k)
				if !ok {
					break
				}
				to, ok := from.Offset(step)
				if !ok {
					break
				}
				betweenBB[from][to] = between
				lineBB[from][to] = full
				between |= SquareBB(to)
			}
		}
	}
}

// rayFrom returns every square reached from sq in direction dir on an empty board.
func rayFrom(sq Square, dir Offset) Bitboard {
	var ray Bitboard
	for to, ok := sq.Offset(dir); ok; to, ok = to.Offset(dir) {
		ray |= SquareBB(to)
	}
	return ray
}

// KnightAttacks returns the knight landing squares from sq.
func KnightAttacks(sq Square) Bitboard {
	return knightAttacks[sq]
}

// KingAttacks returns the king neighbor squares of sq.
func KingAttacks(sq Square) Bitboard {
	return kingAttacks[sq]
}

// PawnAttacks returns the two forward diagonals of a c pawn on sq.
func PawnAttacks(sq Square, c Color) Bitboard {
	return pawnAttacks[c][sq]
}

// BishopAttacks returns bishop attacks from sq given the occupied set.
func BishopAttacks(sq Square, occupied Bitboard) Bitboard {
	m := &bishopMagics[sq]
	return bishopTable[m.Offset+m.index(occupied)]
}

// RookAttacks returns rook attacks from sq given the occupied set.
func RookAttacks(sq Square, occupied Bitboard) Bitboard {
	m := &rookMagics[sq]
	return rookTable[m.Offset+m.index(occupied)]
}

// QueenAttacks is the union of rook and bishop attacks for the same blockers.
func QueenAttacks(sq Square, occupied Bitboard) Bitboard {
	return BishopAttacks(sq, occupied) | RookAttacks(sq, occupied)
}

// Between returns the squares strictly between a and b, empty unless the two
// share a rank, file or diagonal.
func Between(a, b Square) Bitboard {
	return betweenBB[a][b]
}

// Line returns the whole board line through a and b, empty if not aligned.
func Line(a, b Square) Bitboard {
	return lineBB[a][b]
}

// attacksFrom returns the attack set of a pt of color c on sq.
func attacksFrom(pt PieceType, c Color, sq Square, occupied Bitboard) Bitboard {
	switch pt {
	case Pawn:
		return pawnAttacks[c][sq]
	case Knight:
		return knightAttacks[sq]
	case Bishop:
		return BishopAttacks(sq, occupied)
	case Rook:
		return RookAttacks(sq, occupied)
	case Queen:
		return QueenAttacks(sq, occupied)
	case King:
		return kingAttacks[sq]
	}
	return Empty
}

// AttackersByColor returns the pieces of color c that attack sq.
func (p *Position) AttackersByColor(sq Square, c Color, occupied Bitboard) Bitboard {
	pl := &p.Pieces[c]
	return (pawnAttacks[c.Other()][sq] & pl[Pawn]) |
		(knightAttacks[sq] & pl[Knight]) |
		(kingAttacks[sq] & pl[King]) |
		(BishopAttacks(sq, occupied) & (pl[Bishop] | pl[Queen])) |
		(RookAttacks(sq, occupied) & (pl[Rook] | pl[Queen]))
}

// IsSquareAttacked reports whether c attacks sq in the current position.
func (p *Position) IsSquareAttacked(sq Square, c Color) bool {
	return p.AttackersByColor(sq, c, p.AllOccupied) != 0
}
