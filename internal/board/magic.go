package board

import (
	"errors"
	"fmt"
	"math/bits"
)

// ErrMagicInit reports that a slider attack table could not be built without
// two blocker sets with different attacks sharing a slot.
var ErrMagicInit = errors.New("magic table initialization failed")

// Magic is the perfect-hash entry of one square for one slider kind.
type Magic struct {
	Mask   Bitboard // blocker premask, ray edges excluded
	Magic  uint64   // multiplier
	Shift  uint8    // 64 - popcount(Mask)
	Offset uint32   // start of this square's slice in the shared table
}

func (m *Magic) index(occupied Bitboard) uint32 {
	return uint32((uint64(occupied&m.Mask) * m.Magic) >> m.Shift)
}

var (
	bishopMagics [64]Magic
	rookMagics   [64]Magic

	bishopTable [5248]Bitboard
	rookTable   [102400]Bitboard
)

// magicSearchTries bounds the fallback search for a square whose shipped
// multiplier does not hash cleanly.
const magicSearchTries = 1 << 20

const magicSeed = 0x2F6B3A91C4D8E571

var bishopMagicNumbers = [64]uint64{
	0x0002020202020200, 0x0002020202020000, 0x0004010202000000, 0x0004040080000000,
	0x0001104000000000, 0x0000821040000000, 0x0000410410400000, 0x0000104104104000,
	0x0000040404040400, 0x0000020202020200, 0x0000040102020000, 0x0000040400800000,
	0x0000011040000000, 0x0000008210400000, 0x0000004104104000, 0x0000002082082000,
	0x0004000808080800, 0x0002000404040400, 0x0001000202020200, 0x0000800802004000,
	0x0000800400A00000, 0x0000200100884000, 0x0000400082082000, 0x0000200041041000,
	0x0002080010101000, 0x0001040008080800, 0x0000208004010400, 0x0000404004010200,
	0x0000840000802000, 0x0000404002011000, 0x0000808001041000, 0x0000404000820800,
	0x0001041000202000, 0x0000820800101000, 0x0000104400080800, 0x0000020080080080,
	0x0000404040040100, 0x0000808100020100, 0x0001010100020800, 0x0000808080010400,
	0x0000820820004000, 0x0000410410002000, 0x0000082088001000, 0x0000002011000800,
	0x0000080100400400, 0x0001010101000200, 0x0002020202000400, 0x0001010101000200,
	0x0000410410400000, 0x0000208208200000, 0x0000002084100000, 0x0000000020880000,
	0x0000001002020000, 0x0000040408020000, 0x0004040404040000, 0x0002020202020000,
	0x0000104104104000, 0x0000002082082000, 0x0000000020841000, 0x0000000000208800,
	0x0000000010020200, 0x0000000404080200, 0x0000040404040400, 0x0002020202020200,
}

var rookMagicNumbers = [64]uint64{
	0x0080001020400080, 0x0040001000200040, 0x0080081000200080, 0x0080040800100080,
	0x0080020400080080, 0x0080010200040080, 0x0080008001000200, 0x0080002040800100,
	0x0000800020400080, 0x0000400020005000, 0x0000801000200080, 0x0000800800100080,
	0x0000800400080080, 0x0000800200040080, 0x0000800100020080, 0x0000800040800100,
	0x0000208000400080, 0x0000404000201000, 0x0000808010002000, 0x0000808008001000,
	0x0000808004000800, 0x0000808002000400, 0x0000010100020004, 0x0000020000408104,
	0x0000208080004000, 0x0000200040005000, 0x0000100080200080, 0x0000080080100080,
	0x0000040080080080, 0x0000020080040080, 0x0000010080800200, 0x0000800080004100,
	0x0000204000800080, 0x0000200040401000, 0x0000100080802000, 0x0000080080801000,
	0x0000040080800800, 0x0000020080800400, 0x0000020001010004, 0x0000800040800100,
	0x0000204000808000, 0x0000200040008080, 0x0000100020008080, 0x0000080010008080,
	0x0000040008008080, 0x0000020004008080, 0x0000010002008080, 0x0000004081020004,
	0x0000204000800080, 0x0000200040008080, 0x0000100020008080, 0x0000080010008080,
	0x0000040008008080, 0x0000020004008080, 0x0000800100020080, 0x0000800041000080,
	0x00FFFCDDFCED714A, 0x007FFCDDFCED714A, 0x003FFFCDFFD88096, 0x0000040810002101,
	0x0001000204080011, 0x0001000204000801, 0x0001000082000401, 0x0001FFFAABFAD1A2,
}

func initMagics() error {
	if err := buildMagics(&bishopMagics, bishopTable[:], &bishopMagicNumbers, &bishopDirections, magicSearchTries); err != nil {
		return fmt.Errorf("bishop: %w", err)
	}
	if err := buildMagics(&rookMagics, rookTable[:], &rookMagicNumbers, &rookDirections, magicSearchTries); err != nil {
		return fmt.Errorf("rook: %w", err)
	}
	return nil
}

// buildMagics fills one slider's table. Each square first tries its shipped
// multiplier; if that collides, up to tries sparse random candidates are
// tested before giving up with ErrMagicInit.
func buildMagics(magics *[64]Magic, table []Bitboard, numbers *[64]uint64, dirs *[4]Offset, tries int) error {
	rng := newPRNG(magicSeed)
	var offset uint32

	for sq := A1; sq <= H8; sq++ {
		mask := premask(sq, dirs)
		n := mask.PopCount()
		size := uint32(1) << n
		if int(offset+size) > len(table) {
			return fmt.Errorf("%w: table overflow at %v", ErrMagicInit, sq)
		}

		occupancies := make([]Bitboard, 0, size)
		attacks := make([]Bitboard, 0, size)
		subset := Bitboard(0)
		for {
			occupancies = append(occupancies, subset)
			attacks = append(attacks, slidingAttacks(sq, subset, dirs))
			subset = (subset - mask) & mask
			if subset == 0 {
				break
			}
		}

		m := Magic{Mask: mask, Magic: numbers[sq], Shift: uint8(64 - n), Offset: offset}
		slot := table[offset : offset+size]
		used := make([]bool, size)

		ok := fillMagic(&m, slot, used, occupancies, attacks)
		for try := 0; !ok && try < tries; try++ {
			candidate := rng.sparse()
			if bits.OnesCount64((uint64(mask)*candidate)&0xFF00000000000000) < 6 {
				continue
			}
			m.Magic = candidate
			ok = fillMagic(&m, slot, used, occupancies, attacks)
		}
		if !ok {
			return fmt.Errorf("%w: no collision-free multiplier for %v", ErrMagicInit, sq)
		}

		magics[sq] = m
		offset += size
	}
	return nil
}

// fillMagic writes every blocker subset's attack set into slot. Two subsets
// may share a slot only when their attack sets are equal.
func fillMagic(m *Magic, slot []Bitboard, used []bool, occupancies, attacks []Bitboard) bool {
	clear(used)
	for i, occ := range occupancies {
		idx := m.index(occ)
		if used[idx] {
			if slot[idx] != attacks[i] {
				return false
			}
			continue
		}
		used[idx] = true
		slot[idx] = attacks[i]
	}
	return true
}

// premask collects the squares along each ray from sq that can block, leaving
// out the last square of every ray.
func premask(sq Square, dirs *[4]Offset) Bitboard {
	var mask Bitboard
	for _, d := range dirs {
		for to, ok := sq.Offset(d); ok; to, ok = to.Offset(d) {
			if _, more := to.Offset(d); more {
				mask |= SquareBB(to)
			}
		}
	}
	return mask
}

// slidingAttacks walks each ray from sq, stopping at and including the first
// occupied square.
func slidingAttacks(sq Square, occupied Bitboard, dirs *[4]Offset) Bitboard {
	var attacks Bitboard
	for _, d := range dirs {
		for to, ok := sq.Offset(d); ok; to, ok = to.Offset(d) {
			attacks |= SquareBB(to)
			if occupied.IsSet(to) {
				break
			}
		}
	}
	return attacks
}
