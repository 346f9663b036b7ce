package board

// PinState holds, per pin direction, the rays from the king to each pinning
// slider (pinner included). A friendly piece inside a mask is pinned along
// that direction.
type PinState struct {
	Diagonal   Bitboard
	Horizontal Bitboard
	Vertical   Bitboard
}

// All returns the union of the three masks.
func (ps PinState) All() Bitboard {
	return ps.Diagonal | ps.Horizontal | ps.Vertical
}

// CheckKind classifies how many enemy pieces give check.
type CheckKind uint8

const (
	CheckNone CheckKind = iota
	CheckBlockable
	CheckMultiple
)

// CheckPath is the set of squares a non-king move must land on to resolve
// a single check: the checker's square plus, for sliders, the squares
// between checker and king. Mask is meaningful only for CheckBlockable.
type CheckPath struct {
	Kind CheckKind
	Mask Bitboard
}

// Allows reports whether a non-king move to sq is compatible with the check.
func (cp CheckPath) Allows(sq Square) bool {
	switch cp.Kind {
	case CheckNone:
		return true
	case CheckBlockable:
		return cp.Mask.IsSet(sq)
	default:
		return false
	}
}

// LegalData is the per-node overlay the legal generator works from.
type LegalData struct {
	King     Square
	Pins     PinState
	Pinned   Bitboard // friendly pieces inside any pin mask
	Check    CheckPath
	Attacked Bitboard // squares the opponent attacks, our king ignored as blocker
}

// PinState computes the pins against the side to move's king.
func (p *Position) PinState() PinState {
	var ps PinState
	us := p.SideToMove
	them := us.Other()
	ksq := p.KingSquare[us]
	if ksq == NoSquare {
		return ps
	}
	theirs := &p.Pieces[them]

	// Snipers see the king through our pieces but not through theirs.
	rookSnipers := RookAttacks(ksq, p.Occupied[them]) & (theirs[Rook] | theirs[Queen])
	for rookSnipers != 0 {
		s := rookSnipers.PopLSB()
		between := Between(ksq, s)
		blockers := between & p.AllOccupied
		if blockers.PopCount() != 1 || blockers&p.Occupied[us] == 0 {
			continue
		}
		ray := between | SquareBB(s)
		if s.Rank() == ksq.Rank() {
			ps.Horizontal |= ray
		} else {
			ps.Vertical |= ray
		}
	}

	bishopSnipers := BishopAttacks(ksq, p.Occupied[them]) & (theirs[Bishop] | theirs[Queen])
	for bishopSnipers != 0 {
		s := bishopSnipers.PopLSB()
		between := Between(ksq, s)
		blockers := between & p.AllOccupied
		if blockers.PopCount() != 1 || blockers&p.Occupied[us] == 0 {
			continue
		}
		ps.Diagonal |= between | SquareBB(s)
	}

	return ps
}

// CheckPath classifies the checks against the side to move.
func (p *Position) CheckPath() CheckPath {
	us := p.SideToMove
	ksq := p.KingSquare[us]
	if ksq == NoSquare {
		return CheckPath{}
	}
	checkers := p.AttackersByColor(ksq, us.Other(), p.AllOccupied)
	switch checkers.PopCount() {
	case 0:
		return CheckPath{Kind: CheckNone}
	case 1:
		sq := checkers.LSB()
		// Between is empty for non-aligned (knight, pawn) and adjacent checkers.
		return CheckPath{Kind: CheckBlockable, Mask: checkers | Between(ksq, sq)}
	default:
		return CheckPath{Kind: CheckMultiple}
	}
}

// Attacked returns every square side attacks. Sliders see through the
// opposing king so that it cannot retreat along a checking ray.
func (p *Position) Attacked(side Color) Bitboard {
	occupied := p.AllOccupied &^ p.Pieces[side.Other()][King]
	pl := &p.Pieces[side]

	pawns := pl[Pawn]
	var attacked Bitboard
	if side == White {
		attacked = pawns.NorthEast() | pawns.NorthWest()
	} else {
		attacked = pawns.SouthEast() | pawns.SouthWest()
	}

	for pt := Knight; pt <= King; pt++ {
		bb := pl[pt]
		for bb != 0 {
			attacked |= attacksFrom(pt, side, bb.PopLSB(), occupied)
		}
	}
	return attacked
}

// LegalData computes pins, checks and enemy attacks for the side to move.
func (p *Position) LegalData() LegalData {
	us := p.SideToMove
	pins := p.PinState()
	return LegalData{
		King:     p.KingSquare[us],
		Pins:     pins,
		Pinned:   pins.All() & p.Occupied[us],
		Check:    p.CheckPath(),
		Attacked: p.Attacked(us.Other()),
	}
}

// pinMask returns the squares a piece on from may move to without leaving
// its pin ray. Unpinned pieces get the whole board.
func (ld *LegalData) pinMask(from Square) Bitboard {
	if !ld.Pinned.IsSet(from) {
		return Universe
	}
	line := Line(ld.King, from)
	for _, mask := range [3]Bitboard{ld.Pins.Diagonal, ld.Pins.Horizontal, ld.Pins.Vertical} {
		if mask.IsSet(from) {
			return mask & line
		}
	}
	return Universe
}

// enPassantSafe reports whether capturing en passant from from onto the
// target to leaves our king out of slider attack once both pawns have gone.
func (p *Position) enPassantSafe(from, to Square) bool {
	us := p.SideToMove
	them := us.Other()
	ksq := p.KingSquare[us]
	capSq := Square(int(to) - us.Forward())

	occupied := (p.AllOccupied &^ SquareBB(from) &^ SquareBB(capSq)) | SquareBB(to)
	theirs := &p.Pieces[them]
	if RookAttacks(ksq, occupied)&(theirs[Rook]|theirs[Queen]) != 0 {
		return false
	}
	return BishopAttacks(ksq, occupied)&(theirs[Bishop]|theirs[Queen]) == 0
}
