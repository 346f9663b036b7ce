package board

import (
	"errors"
	"fmt"
)

// ErrInvalidMove reports move text that is malformed or does not describe a
// move of a piece in the given position.
var ErrInvalidMove = errors.New("invalid move")

// MoveKind tags how a move changes the board.
type MoveKind uint8

const (
	Normal MoveKind = iota
	Promotion
	EnPassant
	LongCastle
	ShortCastle
)

func (k MoveKind) String() string {
	switch k {
	case Normal:
		return "normal"
	case Promotion:
		return "promotion"
	case EnPassant:
		return "en passant"
	case LongCastle:
		return "long castle"
	case ShortCastle:
		return "short castle"
	default:
		return "unknown"
	}
}

// Move encodes a chess move in 21 bits:
// bits 0-5:   from square
// bits 6-11:  to square
// bits 12-14: kind
// bits 15-17: piece type (mover for Normal, promoted piece for Promotion)
// bits 18-20: captured piece type (NoPieceType if none)
//
// En passant and castling moves carry Pawn or King as piece type and no
// captured piece; the removed pawn of an en passant capture is implied by to.
type Move uint32

// NoMove is the zero move. It never matches a generated move since from == to.
const NoMove Move = 0

func makeMove(from, to Square, kind MoveKind, pt, captured PieceType) Move {
	return Move(from) | Move(to)<<6 | Move(kind)<<12 | Move(pt)<<15 | Move(captured)<<18
}

// NewMove creates a normal move of a pt, capturing captured (NoPieceType if quiet).
func NewMove(from, to Square, pt, captured PieceType) Move {
	return makeMove(from, to, Normal, pt, captured)
}

// NewPromotion creates a pawn move to the last rank promoting to promo.
func NewPromotion(from, to Square, promo, captured PieceType) Move {
	return makeMove(from, to, Promotion, promo, captured)
}

// NewEnPassant creates an en passant capture onto the target square to.
func NewEnPassant(from, to Square) Move {
	return makeMove(from, to, EnPassant, Pawn, NoPieceType)
}

// NewCastle creates a castling move expressed as the king's two-square step.
func NewCastle(from, to Square) Move {
	kind := ShortCastle
	if to < from {
		kind = LongCastle
	}
	return makeMove(from, to, kind, King, NoPieceType)
}

// From returns the origin square.
func (m Move) From() Square {
	return Square(m & 0x3F)
}

// To returns the destination square.
func (m Move) To() Square {
	return Square((m >> 6) & 0x3F)
}

// Kind returns the move tag.
func (m Move) Kind() MoveKind {
	return MoveKind((m >> 12) & 7)
}

// Piece returns the moving piece type, or the promoted type for promotions.
func (m Move) Piece() PieceType {
	return PieceType((m >> 15) & 7)
}

// Mover returns the type of the piece standing on From before the move.
func (m Move) Mover() PieceType {
	if m.Kind() == Promotion {
		return Pawn
	}
	return m.Piece()
}

// Captured returns the captured piece type, NoPieceType for quiet moves,
// castling and en passant.
func (m Move) Captured() PieceType {
	return PieceType((m >> 18) & 7)
}

// IsPromotion reports whether the move promotes a pawn.
func (m Move) IsPromotion() bool {
	return m.Kind() == Promotion
}

// IsCastling reports whether the move is either castle.
func (m Move) IsCastling() bool {
	k := m.Kind()
	return k == LongCastle || k == ShortCastle
}

// IsEnPassant reports whether the move is an en passant capture.
func (m Move) IsEnPassant() bool {
	return m.Kind() == EnPassant
}

// IsCapture reports whether the move removes an enemy piece.
func (m Move) IsCapture() bool {
	return m.IsEnPassant() || m.Captured() != NoPieceType
}

// IsIrreversible reports whether the move is a pawn move or a capture.
func (m Move) IsIrreversible() bool {
	return m.Mover() == Pawn || m.IsCapture()
}

// String returns the coordinate form of the move ("e2e4", "e7e8q").
func (m Move) String() string {
	if m == NoMove {
		return "0000"
	}
	s := m.From().String() + m.To().String()
	if m.IsPromotion() {
		s += string(m.Piece().Char())
	}
	return s
}

// ParseMove parses coordinate notation against pos, inferring the move kind
// from the piece on the source square and the geometry. The result is not
// checked for legality.
func ParseMove(s string, pos *Position) (Move, error) {
	if len(s) != 4 && len(s) != 5 {
		return NoMove, fmt.Errorf("%w: %q", ErrInvalidMove, s)
	}
	from, err := ParseSquare(s[0:2])
	if err != nil {
		return NoMove, fmt.Errorf("%w: %v", ErrInvalidMove, err)
	}
	to, err := ParseSquare(s[2:4])
	if err != nil {
		return NoMove, fmt.Errorf("%w: %v", ErrInvalidMove, err)
	}

	piece := pos.PieceAt(from)
	if piece == NoPiece {
		return NoMove, fmt.Errorf("%w: no piece at %s", ErrInvalidMove, from)
	}
	pt := piece.Type()
	captured := pos.PieceAt(to).Type()

	if len(s) == 5 {
		var promo PieceType
		switch s[4] {
		case 'n':
			promo = Knight
		case 'b':
			promo = Bishop
		case 'r':
			promo = Rook
		case 'q':
			promo = Queen
		default:
			return NoMove, fmt.Errorf("%w: invalid promotion piece %q", ErrInvalidMove, s[4])
		}
		if pt != Pawn || to.RelativeRank(piece.Color()) != 7 {
			return NoMove, fmt.Errorf("%w: %s is not a promotion", ErrInvalidMove, s)
		}
		return NewPromotion(from, to, promo, captured), nil
	}

	switch {
	case pt == King && from.Rank() == to.Rank() && abs(to.File()-from.File()) == 2:
		return NewCastle(from, to), nil
	case pt == Pawn && to == pos.EnPassant && from.File() != to.File():
		return NewEnPassant(from, to), nil
	}
	return NewMove(from, to, pt, captured), nil
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// MaxMoves bounds the legal moves of any chess position (218) with headroom.
const MaxMoves = 256

// MoveList is a fixed-size list of moves to avoid allocations.
type MoveList struct {
	moves [MaxMoves]Move
	count int
}

// NewMoveList creates an empty move list.
func NewMoveList() *MoveList {
	return &MoveList{}
}

// Add adds a move to the list.
func (ml *MoveList) Add(m Move) {
	ml.moves[ml.count] = m
	ml.count++
}

// Len returns the number of moves in the list.
func (ml *MoveList) Len() int {
	return ml.count
}

// Get returns the move at index i.
func (ml *MoveList) Get(i int) Move {
	return ml.moves[i]
}

// Swap swaps two moves in the list.
func (ml *MoveList) Swap(i, j int) {
	ml.moves[i], ml.moves[j] = ml.moves[j], ml.moves[i]
}

// Clear clears the list.
func (ml *MoveList) Clear() {
	ml.count = 0
}

// Contains returns true if the list contains the move.
func (ml *MoveList) Contains(m Move) bool {
	for i := 0; i < ml.count; i++ {
		if ml.moves[i] == m {
			return true
		}
	}
	return false
}

// Slice returns the moves as a slice backed by the list.
func (ml *MoveList) Slice() []Move {
	return ml.moves[:ml.count]
}

// Find returns the listed move with the same squares and promotion as text,
// which lets callers resolve coordinate input without building a Move first.
func (ml *MoveList) Find(text string) (Move, bool) {
	for i := 0; i < ml.count; i++ {
		if ml.moves[i].String() == text {
			return ml.moves[i], true
		}
	}
	return NoMove, false
}

// Undo holds the state a move destroys, enough for UnmakeMove to restore the
// position bit for bit.
type Undo struct {
	Move           Move
	CastlingRights CastlingRights
	EnPassant      Square
	HalfMoveClock  int
	Hash           uint64
}
