package board

import "log"

// castleRookSquares returns where the rook starts and lands for a castling move.
func castleRookSquares(m Move) (rookFrom, rookTo Square) {
	rank := m.From().Rank()
	if m.Kind() == ShortCastle {
		return NewSquare(7, rank), NewSquare(5, rank)
	}
	return NewSquare(0, rank), NewSquare(3, rank)
}

// MakeMove applies a legal move and returns what UnmakeMove needs to revert
// it. Bitboards, mailbox and hash are all updated incrementally.
func (p *Position) MakeMove(m Move) Undo {
	undo := Undo{
		Move:           m,
		CastlingRights: p.CastlingRights,
		EnPassant:      p.EnPassant,
		HalfMoveClock:  p.HalfMoveClock,
		Hash:           p.Hash,
	}

	us := p.SideToMove
	them := us.Other()
	from, to := m.From(), m.To()

	// The EP key depends on side to move and pawn placement, so the old one
	// has to come out before anything moves.
	hash := p.Hash ^ p.enPassantKey()

	if captured := m.Captured(); captured != NoPieceType {
		p.removePiece(to)
		hash ^= zobristPiece[them][captured][to]
	}

	switch m.Kind() {
	case Normal:
		pt := m.Piece()
		p.movePiece(from, to)
		hash ^= zobristPiece[us][pt][from] ^ zobristPiece[us][pt][to]

	case Promotion:
		promo := m.Piece()
		p.removePiece(from)
		p.setPiece(NewPiece(promo, us), to)
		hash ^= zobristPiece[us][Pawn][from] ^ zobristPiece[us][promo][to]

	case EnPassant:
		capSq := Square(int(to) - us.Forward())
		p.removePiece(capSq)
		p.movePiece(from, to)
		hash ^= zobristPiece[them][Pawn][capSq]
		hash ^= zobristPiece[us][Pawn][from] ^ zobristPiece[us][Pawn][to]

	case LongCastle, ShortCastle:
		rookFrom, rookTo := castleRookSquares(m)
		p.movePiece(from, to)
		p.movePiece(rookFrom, rookTo)
		hash ^= zobristPiece[us][King][from] ^ zobristPiece[us][King][to]
		hash ^= zobristPiece[us][Rook][rookFrom] ^ zobristPiece[us][Rook][rookTo]
	}

	// Leaving or landing on a king or rook home square drops the matching rights.
	old := p.CastlingRights
	p.CastlingRights &^= castlingLoss[from] | castlingLoss[to]
	hash ^= castlingKey(old &^ p.CastlingRights)

	p.EnPassant = NoSquare
	if m.Mover() == Pawn && abs(int(to)-int(from)) == 16 {
		p.EnPassant = Square((int(from) + int(to)) / 2)
	}

	if m.IsIrreversible() {
		p.HalfMoveClock = 0
	} else {
		p.HalfMoveClock++
	}
	if us == Black {
		p.FullMoveNumber++
	}

	p.SideToMove = them
	hash ^= zobristSideToMove
	p.Hash = hash ^ p.enPassantKey()

	if DebugMoveValidation {
		if err := p.CheckConsistency(); err != nil {
			log.Printf("MAKEMOVE: %v after %v", err, m)
		}
	}
	return undo
}

// UnmakeMove reverts the move recorded in undo. It must be given the Undo of
// the most recent MakeMove still in effect.
func (p *Position) UnmakeMove(undo Undo) {
	m := undo.Move
	p.SideToMove = p.SideToMove.Other()
	us := p.SideToMove
	them := us.Other()
	from, to := m.From(), m.To()

	if us == Black {
		p.FullMoveNumber--
	}

	switch m.Kind() {
	case Normal:
		p.movePiece(to, from)

	case Promotion:
		p.removePiece(to)
		p.setPiece(NewPiece(Pawn, us), from)

	case EnPassant:
		p.movePiece(to, from)
		p.setPiece(NewPiece(Pawn, them), Square(int(to)-us.Forward()))

	case LongCastle, ShortCastle:
		rookFrom, rookTo := castleRookSquares(m)
		p.movePiece(rookTo, rookFrom)
		p.movePiece(to, from)
	}

	if captured := m.Captured(); captured != NoPieceType {
		p.setPiece(NewPiece(captured, them), to)
	}

	p.CastlingRights = undo.CastlingRights
	p.EnPassant = undo.EnPassant
	p.HalfMoveClock = undo.HalfMoveClock
	p.Hash = undo.Hash

	if DebugMoveValidation {
		if err := p.CheckConsistency(); err != nil {
			log.Printf("UNMAKEMOVE: %v after %v", err, m)
		}
	}
}
