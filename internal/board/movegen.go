package board

import "log"

// GenerateLegalMoves generates all legal moves for the position.
func (p *Position) GenerateLegalMoves() *MoveList {
	ml := NewMoveList()
	p.GenerateLegalMovesInto(ml)
	return ml
}

// LegalMoves returns the legal moves as a freshly allocated slice.
func (p *Position) LegalMoves() []Move {
	var ml MoveList
	p.GenerateLegalMovesInto(&ml)
	moves := make([]Move, ml.Len())
	copy(moves, ml.Slice())
	return moves
}

// HasLegalMoves returns true if the side to move has any legal moves.
func (p *Position) HasLegalMoves() bool {
	var ml MoveList
	p.GenerateLegalMovesInto(&ml)
	return ml.Len() > 0
}

// GenerateLegalMovesInto clears ml and fills it with every legal move. Pins
// and checks are resolved during generation, so nothing needs post-filtering.
func (p *Position) GenerateLegalMovesInto(ml *MoveList) {
	ml.Clear()
	us := p.SideToMove

	if DebugMoveValidation {
		kingBB := p.Pieces[us][King]
		if kingBB == 0 {
			log.Printf("MOVEGEN FATAL: %v King bitboard empty! AllOcc=%x Hash=%x",
				us, uint64(p.AllOccupied), p.Hash)
			return
		} else if p.KingSquare[us] != kingBB.LSB() {
			log.Printf("MOVEGEN FATAL: %v KingSquare=%v but King bitboard says %v! Hash=%x",
				us, p.KingSquare[us], kingBB.LSB(), p.Hash)
		}
	}

	ld := p.LegalData()
	own := p.Occupied[us]

	// King steps are legal whenever the destination is unattacked.
	p.addMoves(ml, ld.King, KingAttacks(ld.King)&^own&^ld.Attacked, King)

	if ld.Check.Kind == CheckMultiple {
		return
	}
	checkMask := Universe
	if ld.Check.Kind == CheckBlockable {
		checkMask = ld.Check.Mask
	}

	p.generatePawnMoves(ml, &ld, checkMask)

	// A pinned knight can never stay on its pin ray.
	knights := p.Pieces[us][Knight] &^ ld.Pinned
	for knights != 0 {
		from := knights.PopLSB()
		p.addMoves(ml, from, KnightAttacks(from)&^own&checkMask, Knight)
	}

	for pt := Bishop; pt <= Queen; pt++ {
		sliders := p.Pieces[us][pt]
		for sliders != 0 {
			from := sliders.PopLSB()
			targets := attacksFrom(pt, us, from, p.AllOccupied) &^ own & checkMask & ld.pinMask(from)
			p.addMoves(ml, from, targets, pt)
		}
	}

	if ld.Check.Kind == CheckNone {
		p.generateCastlingMoves(ml, &ld)
	}
}

// addMoves adds a normal move from from to every square in targets.
func (p *Position) addMoves(ml *MoveList, from Square, targets Bitboard, pt PieceType) {
	for targets != 0 {
		to := targets.PopLSB()
		ml.Add(NewMove(from, to, pt, p.Mailbox[to].Type()))
	}
}

// generatePawnMoves generates pushes, captures, promotions and en passant.
func (p *Position) generatePawnMoves(ml *MoveList, ld *LegalData, checkMask Bitboard) {
	us := p.SideToMove
	forward := us.Forward()
	enemies := p.Occupied[us.Other()]

	pawns := p.Pieces[us][Pawn]
	for pawns != 0 {
		from := pawns.PopLSB()
		allowed := checkMask & ld.pinMask(from)
		promoting := from.RelativeRank(us) == 6

		one := Square(int(from) + forward)
		if p.IsEmpty(one) {
			if allowed.IsSet(one) {
				addPawnMove(ml, from, one, NoPieceType, promoting)
			}
			if from.RelativeRank(us) == 1 {
				two := Square(int(one) + forward)
				if p.IsEmpty(two) && allowed.IsSet(two) {
					ml.Add(NewMove(from, two, Pawn, NoPieceType))
				}
			}
		}

		captures := PawnAttacks(from, us) & enemies & allowed
		for captures != 0 {
			to := captures.PopLSB()
			addPawnMove(ml, from, to, p.Mailbox[to].Type(), promoting)
		}

		if ep := p.EnPassant; ep != NoSquare && PawnAttacks(from, us).IsSet(ep) {
			capSq := Square(int(ep) - forward)
			resolves := ld.Check.Allows(ep) ||
				(ld.Check.Kind == CheckBlockable && ld.Check.Mask.IsSet(capSq))
			if resolves && p.enPassantSafe(from, ep) {
				ml.Add(NewEnPassant(from, ep))
			}
		}
	}
}

// addPawnMove adds a pawn move, expanded to the four promotions on the last rank.
func addPawnMove(ml *MoveList, from, to Square, captured PieceType, promoting bool) {
	if !promoting {
		ml.Add(NewMove(from, to, Pawn, captured))
		return
	}
	ml.Add(NewPromotion(from, to, Queen, captured))
	ml.Add(NewPromotion(from, to, Rook, captured))
	ml.Add(NewPromotion(from, to, Bishop, captured))
	ml.Add(NewPromotion(from, to, Knight, captured))
}

// generateCastlingMoves adds castling moves. The caller guarantees the king
// is not in check.
func (p *Position) generateCastlingMoves(ml *MoveList, ld *LegalData) {
	us := p.SideToMove
	rank := us.HomeRank()
	king := NewSquare(4, rank)
	if ld.King != king {
		return
	}
	rook := NewPiece(Rook, us)

	if p.CastlingRights.CanCastle(us, true) && p.Mailbox[NewSquare(7, rank)] == rook {
		between := SquareBB(NewSquare(5, rank)) | SquareBB(NewSquare(6, rank))
		if p.AllOccupied&between == 0 && ld.Attacked&between == 0 {
			ml.Add(NewCastle(king, NewSquare(6, rank)))
		}
	}

	if p.CastlingRights.CanCastle(us, false) && p.Mailbox[NewSquare(0, rank)] == rook {
		between := SquareBB(NewSquare(1, rank)) | SquareBB(NewSquare(2, rank)) | SquareBB(NewSquare(3, rank))
		path := SquareBB(NewSquare(2, rank)) | SquareBB(NewSquare(3, rank))
		if p.AllOccupied&between == 0 && ld.Attacked&path == 0 {
			ml.Add(NewCastle(king, NewSquare(2, rank)))
		}
	}
}
