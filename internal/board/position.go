package board

import (
	"fmt"
	"strings"
)

// DebugMoveValidation makes MakeMove/UnmakeMove verify plane/mailbox/hash
// coherence after every call and log any violation.
var DebugMoveValidation = false

// CastlingRights is a set of the four castling permissions.
type CastlingRights uint8

const (
	WhiteKingSideCastle  CastlingRights = 1 << iota // K
	WhiteQueenSideCastle                            // Q
	BlackKingSideCastle                             // k
	BlackQueenSideCastle                            // q
	NoCastling           CastlingRights = 0
	AllCastling          CastlingRights = WhiteKingSideCastle | WhiteQueenSideCastle | BlackKingSideCastle | BlackQueenSideCastle
)

// castlingLoss lists the rights that vanish when a piece leaves or lands on a square.
var castlingLoss = [64]CastlingRights{
	A1: WhiteQueenSideCastle,
	E1: WhiteKingSideCastle | WhiteQueenSideCastle,
	H1: WhiteKingSideCastle,
	A8: BlackQueenSideCastle,
	E8: BlackKingSideCastle | BlackQueenSideCastle,
	H8: BlackKingSideCastle,
}

// sideRights returns both castling rights of c.
func sideRights(c Color) CastlingRights {
	if c == White {
		return WhiteKingSideCastle | WhiteQueenSideCastle
	}
	return BlackKingSideCastle | BlackQueenSideCastle
}

// CanCastle reports whether c still holds the short (kingSide) or long right.
func (cr CastlingRights) CanCastle(c Color, kingSide bool) bool {
	switch {
	case c == White && kingSide:
		return cr&WhiteKingSideCastle != 0
	case c == White:
		return cr&WhiteQueenSideCastle != 0
	case kingSide:
		return cr&BlackKingSideCastle != 0
	default:
		return cr&BlackQueenSideCastle != 0
	}
}

// Pair returns c's rights as (long, short).
func (cr CastlingRights) Pair(c Color) (long, short bool) {
	return cr.CanCastle(c, false), cr.CanCastle(c, true)
}

// String returns the FEN castling field.
func (cr CastlingRights) String() string {
	if cr == NoCastling {
		return "-"
	}
	var sb strings.Builder
	for i, ch := range "KQkq" {
		if cr&(1<<i) != 0 {
			sb.WriteRune(ch)
		}
	}
	return sb.String()
}

// Position is a complete chess position. It is a plain value: copying it
// yields an independent position.
type Position struct {
	// Piece planes per color and their unions.
	Pieces      [2]Planes
	Occupied    [2]Bitboard
	AllOccupied Bitboard

	// Mailbox mirrors the planes for O(1) square lookups.
	Mailbox [64]Piece

	SideToMove     Color
	CastlingRights CastlingRights
	EnPassant      Square // target square after a double push, NoSquare otherwise
	HalfMoveClock  int
	FullMoveNumber int

	Hash       uint64
	KingSquare [2]Square
}

// NewPosition returns the standard starting position.
func NewPosition() *Position {
	pos, err := ParseFEN(StartFEN)
	if err != nil {
		panic(err)
	}
	return pos
}

// Copy returns an independent copy of the position.
func (p *Position) Copy() *Position {
	c := *p
	return &c
}

// Clear empties the board.
func (p *Position) Clear() {
	*p = Position{
		EnPassant:      NoSquare,
		FullMoveNumber: 1,
		KingSquare:     [2]Square{NoSquare, NoSquare},
	}
	for sq := range p.Mailbox {
		p.Mailbox[sq] = NoPiece
	}
}

// PieceAt returns the piece on sq, or NoPiece.
func (p *Position) PieceAt(sq Square) Piece {
	return p.Mailbox[sq]
}

// IsEmpty reports whether sq is unoccupied.
func (p *Position) IsEmpty(sq Square) bool {
	return p.AllOccupied&SquareBB(sq) == 0
}

// IsEmptyBetween reports whether every square strictly between a and b is empty.
func (p *Position) IsEmptyBetween(a, b Square) bool {
	return p.AllOccupied&Between(a, b) == 0
}

// InCheck reports whether the side to move is attacked on its king square.
func (p *Position) InCheck() bool {
	us := p.SideToMove
	ksq := p.KingSquare[us]
	if ksq == NoSquare {
		return false
	}
	return p.IsSquareAttacked(ksq, us.Other())
}

// setPiece puts piece on an empty square. The hash is not touched.
func (p *Position) setPiece(piece Piece, sq Square) {
	c, pt := piece.Color(), piece.Type()
	bb := SquareBB(sq)
	p.Pieces[c][pt] |= bb
	p.Occupied[c] |= bb
	p.AllOccupied |= bb
	p.Mailbox[sq] = piece
	if pt == King {
		p.KingSquare[c] = sq
	}
}

// removePiece lifts whatever stands on sq and returns it. The hash is not touched.
func (p *Position) removePiece(sq Square) Piece {
	piece := p.Mailbox[sq]
	if piece == NoPiece {
		return NoPiece
	}
	c, pt := piece.Color(), piece.Type()
	bb := SquareBB(sq)
	p.Pieces[c][pt] &^= bb
	p.Occupied[c] &^= bb
	p.AllOccupied &^= bb
	p.Mailbox[sq] = NoPiece
	return piece
}

// movePiece relocates the piece on from to the empty square to.
func (p *Position) movePiece(from, to Square) {
	piece := p.Mailbox[from]
	c, pt := piece.Color(), piece.Type()
	moveBB := SquareBB(from) | SquareBB(to)
	p.Pieces[c][pt] ^= moveBB
	p.Occupied[c] ^= moveBB
	p.AllOccupied ^= moveBB
	p.Mailbox[from] = NoPiece
	p.Mailbox[to] = piece
	if pt == King {
		p.KingSquare[c] = to
	}
}

// Validate rejects positions that cannot arise in a game.
func (p *Position) Validate() error {
	if p.Pieces[White][King].PopCount() != 1 {
		return fmt.Errorf("white must have exactly one king")
	}
	if p.Pieces[Black][King].PopCount() != 1 {
		return fmt.Errorf("black must have exactly one king")
	}
	if (p.Pieces[White][Pawn]|p.Pieces[Black][Pawn])&(Rank1|Rank8) != 0 {
		return fmt.Errorf("pawns cannot be on rank 1 or 8")
	}
	them := p.SideToMove.Other()
	if p.IsSquareAttacked(p.KingSquare[them], p.SideToMove) {
		return fmt.Errorf("%v king is in check with %v to move", them, p.SideToMove)
	}
	if ep := p.EnPassant; ep != NoSquare {
		if ep.RelativeRank(p.SideToMove) != 5 {
			return fmt.Errorf("en passant square %v is on the wrong rank", ep)
		}
		pusher := Square(int(ep) - p.SideToMove.Forward())
		if p.Mailbox[pusher] != NewPiece(Pawn, them) || !p.IsEmpty(ep) {
			return fmt.Errorf("en passant square %v has no pawn behind it", ep)
		}
	}
	return nil
}

// CheckConsistency verifies that the planes are disjoint, the mailbox mirrors
// them, the unions and king squares are current and the hash matches a
// from-scratch recomputation.
func (p *Position) CheckConsistency() error {
	var all Bitboard
	for c := White; c <= Black; c++ {
		var union Bitboard
		for pt := Pawn; pt <= King; pt++ {
			if union&p.Pieces[c][pt] != 0 {
				return fmt.Errorf("%v %v plane overlaps another plane", c, pt)
			}
			union |= p.Pieces[c][pt]
		}
		if union != p.Occupied[c] {
			return fmt.Errorf("%v occupancy out of date", c)
		}
		if all&union != 0 {
			return fmt.Errorf("white and black planes overlap")
		}
		all |= union
		if k := p.Pieces[c][King]; k != 0 && p.KingSquare[c] != k.LSB() {
			return fmt.Errorf("%v king square %v, plane says %v", c, p.KingSquare[c], k.LSB())
		}
	}
	if all != p.AllOccupied {
		return fmt.Errorf("total occupancy out of date")
	}
	for sq := A1; sq <= H8; sq++ {
		want := NoPiece
		for c := White; c <= Black; c++ {
			if pt := p.Pieces[c].KindAt(sq); pt != NoPieceType {
				want = NewPiece(pt, c)
			}
		}
		if p.Mailbox[sq] != want {
			return fmt.Errorf("mailbox %v holds %q, planes hold %q", sq, p.Mailbox[sq], want)
		}
	}
	if h := p.ComputeHash(); h != p.Hash {
		return fmt.Errorf("hash %016x, recomputed %016x", p.Hash, h)
	}
	return nil
}

// String draws the board with the state fields underneath.
func (p *Position) String() string {
	var sb strings.Builder
	sb.WriteByte('\n')
	for rank := 7; rank >= 0; rank-- {
		fmt.Fprintf(&sb, "%d  ", rank+1)
		for file := 0; file < 8; file++ {
			piece := p.Mailbox[NewSquare(file, rank)]
			if piece == NoPiece {
				sb.WriteString(". ")
			} else {
				sb.WriteString(piece.String() + " ")
			}
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("\n   a b c d e f g h\n\n")
	fmt.Fprintf(&sb, "Side to move: %s\n", p.SideToMove)
	fmt.Fprintf(&sb, "Castling: %s\n", p.CastlingRights)
	fmt.Fprintf(&sb, "En passant: %s\n", p.EnPassant)
	fmt.Fprintf(&sb, "Half-move clock: %d\n", p.HalfMoveClock)
	fmt.Fprintf(&sb, "Hash: %016x\n", p.Hash)
	return sb.String()
}
