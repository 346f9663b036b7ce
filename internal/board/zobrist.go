package board

// Zobrist keys, generated once from a fixed seed so hashes are stable across
// runs and processes.
var (
	zobristPiece      [2][6][64]uint64 // [Color][PieceType][Square]
	zobristEnPassant  [8]uint64        // one per file
	zobristCastling   [4]uint64        // one per right bit
	zobristSideToMove uint64           // mixed in when Black is to move
)

const zobristSeed = 0x98F107A2BEEF1234

// prng is xorshift64*.
type prng struct {
	state uint64
}

func newPRNG(seed uint64) *prng {
	return &prng{state: seed}
}

func (p *prng) next() uint64 {
	p.state ^= p.state >> 12
	p.state ^= p.state << 25
	p.state ^= p.state >> 27
	return p.state * 0x2545F4914F6CDD1D
}

// sparse returns a value with roughly an eighth of its bits set, the usual
// shape of a good magic multiplier.
func (p *prng) sparse() uint64 {
	return p.next() & p.next() & p.next()
}

func initZobrist() {
	rng := newPRNG(zobristSeed)
	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			for sq := A1; sq <= H8; sq++ {
				zobristPiece[c][pt][sq] = rng.next()
			}
		}
	}
	for file := range zobristEnPassant {
		zobristEnPassant[file] = rng.next()
	}
	for i := range zobristCastling {
		zobristCastling[i] = rng.next()
	}
	zobristSideToMove = rng.next()
}

// castlingKey XORs together the keys of every right in cr.
func castlingKey(cr CastlingRights) uint64 {
	var key uint64
	for i := range zobristCastling {
		if cr&(1<<i) != 0 {
			key ^= zobristCastling[i]
		}
	}
	return key
}

// enPassantKey returns the EP-file key if the current side to move has a pawn
// that attacks the en passant target, zero otherwise. Targets nobody can take
// do not change the position's identity.
func (p *Position) enPassantKey() uint64 {
	ep := p.EnPassant
	if ep == NoSquare {
		return 0
	}
	us := p.SideToMove
	if pawnAttacks[us.Other()][ep]&p.Pieces[us][Pawn] == 0 {
		return 0
	}
	return zobristEnPassant[ep.File()]
}

// ComputeHash recomputes the Zobrist hash from scratch.
func (p *Position) ComputeHash() uint64 {
	var hash uint64
	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			bb := p.Pieces[c][pt]
			for bb != 0 {
				hash ^= zobristPiece[c][pt][bb.PopLSB()]
			}
		}
	}
	if p.SideToMove == Black {
		hash ^= zobristSideToMove
	}
	hash ^= castlingKey(p.CastlingRights)
	hash ^= p.enPassantKey()
	return hash
}
