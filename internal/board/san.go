package board

import (
	"fmt"
	"strings"
)

// ToSAN converts a legal move to Standard Algebraic Notation.
func (m Move) ToSAN(pos *Position) string {
	if m == NoMove {
		return "-"
	}

	from := m.From()
	to := m.To()

	var sb strings.Builder
	switch m.Kind() {
	case ShortCastle:
		sb.WriteString("O-O")
	case LongCastle:
		sb.WriteString("O-O-O")
	default:
		pt := m.Mover()
		if pt != Pawn {
			sb.WriteByte("PNBRQK"[pt])
			sb.WriteString(disambiguation(pos, m))
		}
		if m.IsCapture() {
			if pt == Pawn {
				sb.WriteByte('a' + byte(from.File()))
			}
			sb.WriteByte('x')
		}
		sb.WriteString(to.String())
		if m.IsPromotion() {
			sb.WriteByte('=')
			sb.WriteByte("PNBRQK"[m.Piece()])
		}
	}

	next := pos.Copy()
	next.MakeMove(m)
	if next.IsCheckmate() {
		sb.WriteByte('#')
	} else if next.InCheck() {
		sb.WriteByte('+')
	}

	return sb.String()
}

// disambiguation returns the origin file, rank or square needed when another
// piece of the same type can reach the same destination.
func disambiguation(pos *Position, m Move) string {
	from := m.From()
	var sameFile, sameRank, ambiguous bool

	moves := pos.GenerateLegalMoves()
	for i := 0; i < moves.Len(); i++ {
		other := moves.Get(i)
		if other.To() != m.To() || other.From() == from || other.Mover() != m.Mover() {
			continue
		}
		ambiguous = true
		if other.From().File() == from.File() {
			sameFile = true
		}
		if other.From().Rank() == from.Rank() {
			sameRank = true
		}
	}

	switch {
	case !ambiguous:
		return ""
	case !sameFile:
		return string(rune('a' + from.File()))
	case !sameRank:
		return string(rune('1' + from.Rank()))
	default:
		return from.String()
	}
}

// ParseSAN resolves a SAN string against the legal moves of pos.
func ParseSAN(s string, pos *Position) (Move, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, "+#!?")

	moves := pos.GenerateLegalMoves()

	switch s {
	case "O-O", "0-0":
		return findKind(moves, ShortCastle, s)
	case "O-O-O", "0-0-0":
		return findKind(moves, LongCastle, s)
	}

	promo := NoPieceType
	if idx := strings.IndexByte(s, '='); idx >= 0 && idx+1 < len(s) {
		switch s[idx+1] {
		case 'N':
			promo = Knight
		case 'B':
			promo = Bishop
		case 'R':
			promo = Rook
		case 'Q':
			promo = Queen
		default:
			return NoMove, fmt.Errorf("%w: bad promotion in %q", ErrInvalidMove, s)
		}
		s = s[:idx]
	}

	isCapture := strings.Contains(s, "x")
	s = strings.ReplaceAll(s, "x", "")

	pt := Pawn
	if len(s) > 0 && s[0] >= 'A' && s[0] <= 'Z' {
		switch s[0] {
		case 'N':
			pt = Knight
		case 'B':
			pt = Bishop
		case 'R':
			pt = Rook
		case 'Q':
			pt = Queen
		case 'K':
			pt = King
		default:
			return NoMove, fmt.Errorf("%w: bad piece in %q", ErrInvalidMove, s)
		}
		s = s[1:]
	}

	if len(s) < 2 {
		return NoMove, fmt.Errorf("%w: %q", ErrInvalidMove, s)
	}
	dest, err := ParseSquare(s[len(s)-2:])
	if err != nil {
		return NoMove, fmt.Errorf("%w: %v", ErrInvalidMove, err)
	}
	s = s[:len(s)-2]

	fileHint, rankHint := -1, -1
	for _, c := range s {
		switch {
		case c >= 'a' && c <= 'h':
			fileHint = int(c - 'a')
		case c >= '1' && c <= '8':
			rankHint = int(c - '1')
		}
	}

	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		if m.To() != dest || m.Mover() != pt || m.IsCastling() {
			continue
		}
		if fileHint >= 0 && m.From().File() != fileHint {
			continue
		}
		if rankHint >= 0 && m.From().Rank() != rankHint {
			continue
		}
		if isCapture && !m.IsCapture() {
			continue
		}
		if promo != NoPieceType && (!m.IsPromotion() || m.Piece() != promo) {
			continue
		}
		if promo == NoPieceType && m.IsPromotion() {
			continue
		}
		return m, nil
	}

	return NoMove, fmt.Errorf("%w: no legal move matches %q", ErrInvalidMove, s)
}

func findKind(moves *MoveList, kind MoveKind, s string) (Move, error) {
	for i := 0; i < moves.Len(); i++ {
		if m := moves.Get(i); m.Kind() == kind {
			return m, nil
		}
	}
	return NoMove, fmt.Errorf("%w: %s is not legal", ErrInvalidMove, s)
}

// MovesToSAN converts a line of moves played from pos to SAN.
func MovesToSAN(pos *Position, moves []Move) []string {
	result := make([]string, len(moves))
	p := pos.Copy()

	for i, m := range moves {
		result[i] = m.ToSAN(p)
		p.MakeMove(m)
	}

	return result
}
