package board

// Outcome is the game state of a position.
type Outcome uint8

const (
	Ongoing Outcome = iota
	WhiteWon
	BlackWon
	// Stalemate covers every draw the core detects: no legal moves without
	// check, and threefold repetition.
	Stalemate
)

func (o Outcome) String() string {
	switch o {
	case Ongoing:
		return "ongoing"
	case WhiteWon:
		return "white won"
	case BlackWon:
		return "black won"
	case Stalemate:
		return "stalemate"
	default:
		return "unknown"
	}
}

// Result returns the PGN result token.
func (o Outcome) Result() string {
	switch o {
	case WhiteWon:
		return "1-0"
	case BlackWon:
		return "0-1"
	case Stalemate:
		return "1/2-1/2"
	default:
		return "*"
	}
}

// RepetitionCount is the number of occurrences that draws the game.
const RepetitionCount = 3

// RepetitionMap counts how often each hash has occurred since the last
// irreversible move.
type RepetitionMap map[uint64]int

// NewRepetitionMap starts a map holding one occurrence of hash.
func NewRepetitionMap(hash uint64) RepetitionMap {
	return RepetitionMap{hash: 1}
}

// Record adds an occurrence of hash and returns the new count.
func (r RepetitionMap) Record(hash uint64) int {
	r[hash]++
	return r[hash]
}

// Unrecord removes an occurrence of hash recorded earlier.
func (r RepetitionMap) Unrecord(hash uint64) {
	if r[hash] <= 1 {
		delete(r, hash)
		return
	}
	r[hash]--
}

// Count returns how often hash has occurred.
func (r RepetitionMap) Count(hash uint64) int {
	return r[hash]
}

// Reset forgets every occurrence and starts over from hash, as required
// after an irreversible move.
func (r RepetitionMap) Reset(hash uint64) {
	clear(r)
	r[hash] = 1
}

// Clone returns an independent copy.
func (r RepetitionMap) Clone() RepetitionMap {
	c := make(RepetitionMap, len(r))
	for h, n := range r {
		c[h] = n
	}
	return c
}

// Outcome reports whether the game is over. reps may be nil when repetition
// should not be considered.
func (p *Position) Outcome(reps RepetitionMap) Outcome {
	if !p.HasLegalMoves() {
		if !p.InCheck() {
			return Stalemate
		}
		if p.SideToMove == White {
			return BlackWon
		}
		return WhiteWon
	}
	if reps.Count(p.Hash) >= RepetitionCount {
		return Stalemate
	}
	return Ongoing
}

// IsCheckmate returns true if the position is checkmate.
func (p *Position) IsCheckmate() bool {
	return p.InCheck() && !p.HasLegalMoves()
}

// IsStalemate returns true if the side to move has no moves and is not in check.
func (p *Position) IsStalemate() bool {
	return !p.InCheck() && !p.HasLegalMoves()
}

// IsFiftyMoveDraw reports whether a hundred plies have passed without a pawn
// move or capture.
func (p *Position) IsFiftyMoveDraw() bool {
	return p.HalfMoveClock >= 100
}

// IsInsufficientMaterial returns true if neither side can checkmate.
func (p *Position) IsInsufficientMaterial() bool {
	if p.Pieces[White][Pawn]|p.Pieces[Black][Pawn] != 0 ||
		p.Pieces[White][Rook]|p.Pieces[Black][Rook] != 0 ||
		p.Pieces[White][Queen]|p.Pieces[Black][Queen] != 0 {
		return false
	}

	wMinors := p.Pieces[White][Knight].PopCount() + p.Pieces[White][Bishop].PopCount()
	bMinors := p.Pieces[Black][Knight].PopCount() + p.Pieces[Black][Bishop].PopCount()

	// K vs K, or K+minor vs K
	return wMinors+bMinors <= 1
}
