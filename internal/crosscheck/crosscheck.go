// Package crosscheck compares the board package's move generator against an
// independent implementation (dragontoothmg).
package crosscheck

import (
	"fmt"

	"github.com/dylhunn/dragontoothmg"
	"golang.org/x/exp/slices"

	"github.com/hailam/chesscore/internal/board"
)

// Mismatch is one position where the two generators disagree.
type Mismatch struct {
	FEN     string   // position reached
	Path    []string // moves from the root to FEN
	Missing []string // legal per the reference, not generated by us
	Extra   []string // generated by us, not legal per the reference
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s after %v: missing %v, extra %v", m.FEN, m.Path, m.Missing, m.Extra)
}

// Perft counts leaf nodes with the reference generator.
func Perft(fen string, depth int) uint64 {
	b := dragontoothmg.ParseFen(fen)
	return perft(&b, depth)
}

func perft(b *dragontoothmg.Board, depth int) uint64 {
	if depth <= 0 {
		return 1
	}
	moves := b.GenerateLegalMoves()
	if depth == 1 {
		return uint64(len(moves))
	}
	var nodes uint64
	for _, m := range moves {
		unapply := b.Apply(m)
		nodes += perft(b, depth-1)
		unapply()
	}
	return nodes
}

// Divide returns the reference perft count below each root move, keyed by
// coordinate text.
func Divide(fen string, depth int) map[string]uint64 {
	b := dragontoothmg.ParseFen(fen)
	out := make(map[string]uint64)
	for _, m := range b.GenerateLegalMoves() {
		unapply := b.Apply(m)
		out[m.String()] = perft(&b, depth-1)
		unapply()
	}
	return out
}

// Compare walks both generators in lockstep to the given depth and reports
// every node whose legal move sets differ. Walking stops below a mismatch.
// At most limit mismatches are collected (limit <= 0 means no limit).
func Compare(pos *board.Position, depth, limit int) []Mismatch {
	ref := dragontoothmg.ParseFen(pos.ToFEN())
	w := walker{pos: pos.Copy(), ref: &ref, limit: limit}
	w.walk(depth)
	return w.found
}

type walker struct {
	pos   *board.Position
	ref   *dragontoothmg.Board
	path  []string
	limit int
	found []Mismatch
}

func (w *walker) full() bool {
	return w.limit > 0 && len(w.found) >= w.limit
}

func (w *walker) walk(depth int) {
	if depth <= 0 || w.full() {
		return
	}

	ours := w.pos.LegalMoves()
	theirs := w.ref.GenerateLegalMoves()

	byText := make(map[string]dragontoothmg.Move, len(theirs))
	for _, m := range theirs {
		byText[m.String()] = m
	}

	var extra []string
	seen := make(map[string]bool, len(ours))
	for _, m := range ours {
		text := m.String()
		seen[text] = true
		if _, ok := byText[text]; !ok {
			extra = append(extra, text)
		}
	}
	var missing []string
	for text := range byText {
		if !seen[text] {
			missing = append(missing, text)
		}
	}

	if len(extra) > 0 || len(missing) > 0 {
		slices.Sort(missing)
		slices.Sort(extra)
		w.found = append(w.found, Mismatch{
			FEN:     w.pos.ToFEN(),
			Path:    append([]string(nil), w.path...),
			Missing: missing,
			Extra:   extra,
		})
		return
	}

	for _, m := range ours {
		text := m.String()
		undo := w.pos.MakeMove(m)
		unapply := w.ref.Apply(byText[text])
		w.path = append(w.path, text)

		w.walk(depth - 1)

		w.path = w.path[:len(w.path)-1]
		unapply()
		w.pos.UnmakeMove(undo)
		if w.full() {
			return
		}
	}
}
